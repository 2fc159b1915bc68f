package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	rooms map[string][]string
}

func (f *fakeRegistry) Terminate(roomID, _ string) bool {
	_, ok := f.rooms[roomID]
	delete(f.rooms, roomID)
	return ok
}

func (f *fakeRegistry) Participants(roomID string) []string {
	return f.rooms[roomID]
}

type fakeVerifier struct{}

func (fakeVerifier) Username(token string) (string, error) {
	if !strings.HasPrefix(token, "token-") {
		return "", errors.New("token malformed")
	}
	return strings.TrimPrefix(token, "token-"), nil
}

func newTestHandler() (*fakeRegistry, http.Handler) {
	reg := &fakeRegistry{rooms: map[string][]string{"7": {"alice", "bob"}}}
	h := NewHandler(reg, fakeVerifier{})

	r := chi.NewRouter()
	r.Get("/rooms/{id}/participants", h.GetParticipants)
	r.Delete("/rooms/{id}/session", h.TerminateSession)
	return reg, r
}

func doReq(t *testing.T, h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RequiresBearerToken(t *testing.T) {
	_, h := newTestHandler()

	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{name: "participants no token", method: http.MethodGet, path: "/rooms/7/participants"},
		{name: "participants bad token", method: http.MethodGet, path: "/rooms/7/participants", token: "garbage"},
		{name: "terminate no token", method: http.MethodDelete, path: "/rooms/7/session"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doReq(t, h, tt.method, tt.path, tt.token)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestHandler_GetParticipants(t *testing.T) {
	req := require.New(t)
	_, h := newTestHandler()

	rec := doReq(t, h, http.MethodGet, "/rooms/7/participants", "token-admin")
	req.Equal(http.StatusOK, rec.Code)

	var body struct {
		RoomID       string   `json:"room_id"`
		Participants []string `json:"participants"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal("7", body.RoomID)
	req.ElementsMatch([]string{"alice", "bob"}, body.Participants)
}

func TestHandler_TerminateSession(t *testing.T) {
	req := require.New(t)
	reg, h := newTestHandler()

	rec := doReq(t, h, http.MethodDelete, "/rooms/7/session", "token-admin")
	req.Equal(http.StatusOK, rec.Code)
	req.Empty(reg.rooms)

	rec = doReq(t, h, http.MethodDelete, "/rooms/7/session", "token-admin")
	req.Equal(http.StatusNotFound, rec.Code)
}
