package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/setarena/setarena-backend/middleware"
)

// NewRouter wires the public and token-secured API routes plus the
// websocket entry point for the game protocol.
func NewRouter(h *Handler, ws http.HandlerFunc) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/api/register", h.Register).Methods("POST")
	r.HandleFunc("/api/login", h.Login).Methods("POST")
	r.HandleFunc("/api/leaderboard", h.Leaderboard).Methods("GET")
	r.HandleFunc("/api/rooms", h.Rooms).Methods("GET")
	r.HandleFunc("/ws", ws)

	// Secured routes
	secured := r.PathPrefix("/api").Subrouter()
	secured.Use(middleware.JWTValidation(h.jwtSecret))
	secured.HandleFunc("/me", h.Me).Methods("GET")
	secured.HandleFunc("/matches", h.Matches).Methods("GET")

	return r
}
