package handlers

import (
	"errors"
	"net/http"

	"github.com/setarena/setarena-backend/middleware"
	"github.com/setarena/setarena-backend/models"
	"github.com/setarena/setarena-backend/repository"
	"github.com/setarena/setarena-backend/responses"
	"github.com/setarena/setarena-backend/server"
	"github.com/setarena/setarena-backend/utils"
)

const leaderboardSize = 20

// RoomLister is satisfied by the game server's registry. Snapshots are
// plain copies, so reading them here never races the dispatcher.
type RoomLister interface {
	RoomSnapshots() []server.RoomSnapshot
}

// RoomInfo is one row of the public room table.
type RoomInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	NumPlayers int    `json:"num_players"`
	MaxPlayers int    `json:"max_players"`
	Status     string `json:"status"`
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListTop(leaderboardSize)
	if err != nil {
		h.log.Errorf("fetching leaderboard failed: %v", err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to fetch leaderboard."})
		return
	}
	utils.HandleSuccess(w, models.SuccessResponse(users))
}

func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.rooms.RoomSnapshots()
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, RoomInfo{
			ID:         room.ID,
			Name:       room.Name,
			NumPlayers: room.NumPlayers,
			MaxPlayers: room.MaxPlayers,
			Status:     room.Status,
		})
	}
	utils.HandleSuccess(w, models.SuccessResponse(infos))
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := r.Context().Value(middleware.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}
	user, err := h.store.FindAccount(authInfo.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNoAccount) {
			utils.HandleError(w, responses.NotFoundError{Msg: "Account not found."})
			return
		}
		h.log.Errorf("account lookup for %q failed: %v", authInfo.Username, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "An error occurred while processing your request."})
		return
	}
	utils.HandleSuccess(w, models.SuccessResponse(user))
}

func (h *Handler) Matches(w http.ResponseWriter, r *http.Request) {
	authInfo, ok := r.Context().Value(middleware.AuthInfoKey).(*models.CustomClaims)
	if !ok {
		utils.HandleError(w, responses.InternalServerError{Msg: "Error processing request."})
		return
	}
	matches, err := h.store.MatchesFor(authInfo.Username)
	if err != nil {
		h.log.Errorf("fetching matches for %q failed: %v", authInfo.Username, err)
		utils.HandleError(w, responses.InternalServerError{Msg: "Failed to fetch match history."})
		return
	}
	if matches == nil {
		matches = []models.MatchRecord{}
	}
	utils.HandleSuccess(w, models.SuccessResponse(matches))
}
