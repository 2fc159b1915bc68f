package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/moderation"
)

type Gate interface {
	Screen(ctx context.Context, text string) moderation.Verdict
}

type Directory interface {
	Room(ctx context.Context, roomID string) (*domain.Room, error)
	Identity(ctx context.Context, roomID, username string) (*domain.User, error)
}

type Ingest interface {
	Enqueue(m domain.QueuedMessage)
}

type Tally interface {
	Increment(username string)
}

type TokenVerifier interface {
	Username(token string) (string, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub

	verifier  TokenVerifier
	gate      Gate
	directory Directory
	ingest    Ingest
	tally     Tally

	pingEvery time.Duration
	log       *slog.Logger
}

func NewServer(hub *Hub, verifier TokenVerifier, gate Gate, directory Directory,
	ingest Ingest, tally Tally, log *slog.Logger) *Server {
	return &Server{
		hub:       hub,
		verifier:  verifier,
		gate:      gate,
		directory: directory,
		ingest:    ingest,
		tally:     tally,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
		log:       log,
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...&username=...
// Missing or invalid credentials are a hard rejection before admission.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	username := strings.TrimSpace(q.Get("username"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	if username == "" {
		http.Error(w, "missing username", http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	subject, err := s.verifier.Username(accessToken)
	if err != nil || subject != username {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWSConn(conn, roomID, username, s.pingEvery, s.log)

	if err := s.hub.Admit(c); err != nil {
		reason := "admission rejected"
		switch {
		case errors.Is(err, domain.ErrRoomFull):
			reason = "room is full"
		case errors.Is(err, domain.ErrAlreadyJoined):
			reason = "name already taken in this room"
		}
		s.log.Info("ws admission rejected",
			"room", roomID, "user", username, "reason", reason)
		_ = c.Close(reason)
		return
	}

	s.warmLookups(r.Context(), roomID, username)

	go c.run()
	s.readLoop(r.Context(), c)

	// teardown is synchronous: no further messages are processed for this
	// connection once the read loop exits
	s.hub.Remove(c)
	_ = c.Close("")
}

// warmLookups resolves the room backing record and the participant's
// identity once, so the per-message path hits only the cache. Best-effort.
func (s *Server) warmLookups(ctx context.Context, roomID, username string) {
	if _, err := s.directory.Room(ctx, roomID); err != nil {
		s.log.Debug("room lookup failed", "room", roomID, "err", err)
	}
	if _, err := s.directory.Identity(ctx, roomID, username); err != nil {
		s.log.Debug("identity lookup failed", "user", username, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(1 << 16)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		s.handleInbound(ctx, c, string(data))
	}
}

// handleInbound runs one message through the gate and, when accepted, fans
// it out and hands it to the async persistence pipeline. The gate call
// blocks only this connection's read loop.
func (s *Server) handleInbound(ctx context.Context, c Conn, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	verdict := s.gate.Screen(ctx, text)
	if !verdict.Allowed {
		// the sender, and only the sender, learns why
		if err := c.Send(systemNotice(c.RoomID(), "message blocked: "+verdict.Reason)); err != nil {
			s.log.Debug("rejection notice failed",
				"room", c.RoomID(), "user", c.Username(), "err", err)
		}
		return
	}

	rec, err := s.directory.Identity(ctx, c.RoomID(), c.Username())
	if err != nil {
		rec = nil
	}
	queued := domain.NewQueuedMessage(c.RoomID(), c.Username(), rec, text)

	s.hub.Broadcast(c.RoomID(),
		chatMessage(c.RoomID(), c.Username(), text, queued.SentAt), c.Username())
	s.ingest.Enqueue(queued)
	s.tally.Increment(c.Username())
}
