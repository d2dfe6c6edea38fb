// Package handlers is the REST surface next to the game wire protocol:
// account registration and login, the lobby read endpoints and the
// websocket entry point.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/setarena/setarena-backend/models"
	"github.com/setarena/setarena-backend/repository"
	"github.com/setarena/setarena-backend/responses"
	"github.com/setarena/setarena-backend/utils"
)

// Store is what the HTTP layer needs from persistence.
type Store interface {
	FindAccount(username string) (*models.User, error)
	CreateAccount(username, passwordHash string) error
	ListTop(limit int) ([]models.User, error)
	MatchesFor(username string) ([]models.MatchRecord, error)
}

type Handler struct {
	store     Store
	rooms     RoomLister
	jwtSecret string
	log       *zap.SugaredLogger
}

func New(store Store, rooms RoomLister, jwtSecret string, log *zap.SugaredLogger) *Handler {
	return &Handler{store: store, rooms: rooms, jwtSecret: jwtSecret, log: log}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	if len(creds.Username) < 3 || len(creds.Username) > 50 {
		utils.HandleError(w, responses.BadRequestError{Msg: "Username must be between 3 and 50 characters."})
		return
	}
	if len(creds.Password) < 3 || len(creds.Password) > 50 {
		utils.HandleError(w, responses.BadRequestError{Msg: "Password must be between 3 and 50 characters."})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to hash password."})
		return
	}

	if err := h.store.CreateAccount(creds.Username, string(hashedPassword)); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			utils.HandleError(w, responses.ConflictError{Msg: "Username already exists."})
			return
		}
		h.log.Errorf("creating account %q failed: %v", creds.Username, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to create user."})
		return
	}

	utils.HandleSuccess(w, models.SuccessResponse(map[string]string{"message": "User created successfully."}))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid request."})
		return
	}

	user, err := h.store.FindAccount(creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNoAccount) {
			utils.HandleError(w, responses.BadRequestError{Msg: "Invalid username or password."})
			return
		}
		h.log.Errorf("account lookup for %q failed: %v", creds.Username, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "An error occurred while processing your request."})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		utils.HandleError(w, responses.BadRequestError{Msg: "Invalid username or password."})
		return
	}

	claims := models.CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		},
		ID:       strconv.FormatInt(user.ID, 10),
		Username: user.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to generate token."})
		return
	}

	utils.HandleSuccess(w, models.SuccessResponse(map[string]string{"access_token": tokenString}))
}
