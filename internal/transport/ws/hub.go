package ws

import (
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

// Conn is the send side of one live socket. Send must be safe for
// concurrent callers and must never interleave partial writes.
type Conn interface {
	Send(msg Message) error
	Close(reason string) error
	IsOpen() bool
	Username() string
	RoomID() string
}

// Hub owns the roomID -> participant -> connection mapping. Rooms are
// created lazily on the first admission and evicted when the last
// participant leaves; eviction fires the hook so room-scoped caches can be
// purged. All mutations are atomic per hub lock.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Conn

	onEvict func(roomID string)
	log     *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{rooms: make(map[string]map[string]Conn), log: log}
}

// OnEvict registers the room-eviction hook. Must be called before the hub
// starts admitting connections.
func (h *Hub) OnEvict(fn func(roomID string)) {
	h.onEvict = fn
}

// Admit is an atomic check-and-insert: a full room or a duplicate name
// rejects with no side effects. On success the whole room, joiner
// included, gets a join notice.
func (h *Hub) Admit(c Conn) error {
	h.mu.Lock()
	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		rs = make(map[string]Conn, domain.RoomCapacity)
		h.rooms[c.RoomID()] = rs
	}
	if _, dup := rs[c.Username()]; dup {
		// reconnect/replace is not supported
		h.mu.Unlock()
		return domain.ErrAlreadyJoined
	}
	if len(rs) >= domain.RoomCapacity {
		h.mu.Unlock()
		return domain.ErrRoomFull
	}
	rs[c.Username()] = c
	all := h.othersLocked(c.RoomID(), "")
	h.mu.Unlock()

	// everyone in the room, the joiner included, sees the arrival
	h.deliver(all, systemNotice(c.RoomID(), c.Username()+" has joined the chat"))
	return nil
}

// Remove drops the participant's connection. The survivor gets a leave
// notice; an emptied room is evicted entirely.
func (h *Hub) Remove(c Conn) bool {
	h.mu.Lock()
	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		h.mu.Unlock()
		return false
	}
	cur, ok := rs[c.Username()]
	if !ok || cur != c {
		h.mu.Unlock()
		return false
	}
	delete(rs, c.Username())
	evicted := len(rs) == 0
	if evicted {
		delete(h.rooms, c.RoomID())
	}
	others := h.othersLocked(c.RoomID(), c.Username())
	h.mu.Unlock()

	if evicted {
		h.evict(c.RoomID())
	} else {
		h.deliver(others, systemNotice(c.RoomID(), c.Username()+" has left the chat"))
	}
	return true
}

// Broadcast delivers msg to every participant except exclude (empty string
// notifies everyone). Per-recipient failures are logged, never raised.
func (h *Hub) Broadcast(roomID string, msg Message, exclude string) {
	h.mu.RLock()
	targets := h.othersLocked(roomID, exclude)
	h.mu.RUnlock()

	h.deliver(targets, msg)
}

// Terminate force-closes every connection in the room and evicts it.
// Returns whether the room existed.
func (h *Hub) Terminate(roomID, reason string) bool {
	h.mu.Lock()
	rs, ok := h.rooms[roomID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	delete(h.rooms, roomID)
	conns := make([]Conn, 0, len(rs))
	for _, c := range rs {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.Close(reason); err != nil {
			h.log.Debug("terminate close failed",
				"room", roomID, "user", c.Username(), "err", err)
		}
	}
	h.evict(roomID)
	return true
}

// Participants returns the current member names of a room.
func (h *Hub) Participants(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return lo.Keys(h.rooms[roomID])
}

func (h *Hub) othersLocked(roomID, exclude string) []Conn {
	rs := h.rooms[roomID]
	out := make([]Conn, 0, len(rs))
	for name, c := range rs {
		if name == exclude {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (h *Hub) deliver(targets []Conn, msg Message) {
	for _, c := range targets {
		if err := c.Send(msg); err != nil {
			h.log.Warn("broadcast delivery failed",
				"room", c.RoomID(), "user", c.Username(), "err", err)
		}
	}
}

func (h *Hub) evict(roomID string) {
	if h.onEvict != nil {
		h.onEvict(roomID)
	}
	h.log.Debug("room evicted", "room", roomID)
}
