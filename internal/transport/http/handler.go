package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Registry interface {
	Terminate(roomID, reason string) bool
	Participants(roomID string) []string
}

type TokenVerifier interface {
	Username(token string) (string, error)
}

type Handler struct {
	registry Registry
	verifier TokenVerifier
}

func NewHandler(registry Registry, verifier TokenVerifier) *Handler {
	return &Handler{registry: registry, verifier: verifier}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") || len(auth) <= 7 {
		return false
	}
	_, err := h.verifier.Username(strings.TrimSpace(auth[7:]))
	return err == nil
}

// DELETE /rooms/{id}/session — administrative end-of-session: closes every
// live connection and evicts the room.
func (h *Handler) TerminateSession(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
		return
	}
	roomID := chi.URLParam(r, "id")

	if !h.registry.Terminate(roomID, "session terminated") {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	slog.Info("session terminated", "room", roomID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "terminated"})
}

// GET /rooms/{id}/participants — live members of the room.
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
		return
	}
	roomID := chi.URLParam(r, "id")

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":      roomID,
		"participants": h.registry.Participants(roomID),
	})
}
