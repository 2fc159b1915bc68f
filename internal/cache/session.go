package cache

import (
	"context"
	"sync"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

// RoomFinder and UserFinder are the storage collaborators behind the cache.
type RoomFinder interface {
	FindRoomByID(ctx context.Context, id string) (*domain.Room, error)
}

type UserFinder interface {
	FindUserByName(ctx context.Context, username string) (*domain.User, error)
}

type roomScope struct {
	room  *domain.Room
	users map[string]*domain.User
}

// SessionCache memoizes room and identity lookups for the lifetime of a
// room. Entries live exactly as long as the room is registered; the hub's
// eviction hook purges them. Only successful lookups are cached, so a
// record created after a miss becomes visible on the next attempt.
// Staleness within a room's lifetime is accepted.
type SessionCache struct {
	mu     sync.RWMutex
	scopes map[string]*roomScope

	rooms RoomFinder
	users UserFinder
}

func NewSessionCache(rooms RoomFinder, users UserFinder) *SessionCache {
	return &SessionCache{scopes: make(map[string]*roomScope), rooms: rooms, users: users}
}

func (c *SessionCache) Room(ctx context.Context, roomID string) (*domain.Room, error) {
	c.mu.RLock()
	if s, ok := c.scopes[roomID]; ok && s.room != nil {
		c.mu.RUnlock()
		return s.room, nil
	}
	c.mu.RUnlock()

	room, err := c.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.scope(roomID).room = room
	c.mu.Unlock()
	return room, nil
}

func (c *SessionCache) Identity(ctx context.Context, roomID, username string) (*domain.User, error) {
	c.mu.RLock()
	if s, ok := c.scopes[roomID]; ok {
		if u, ok := s.users[username]; ok {
			c.mu.RUnlock()
			return u, nil
		}
	}
	c.mu.RUnlock()

	user, err := c.users.FindUserByName(ctx, username)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.scope(roomID).users[username] = user
	c.mu.Unlock()
	return user, nil
}

// PurgeRoom drops everything cached for a room. Called by the registry when
// the last participant leaves.
func (c *SessionCache) PurgeRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scopes, roomID)
}

// scope must be called with c.mu held for writing.
func (c *SessionCache) scope(roomID string) *roomScope {
	s, ok := c.scopes[roomID]
	if !ok {
		s = &roomScope{users: make(map[string]*domain.User)}
		c.scopes[roomID] = s
	}
	return s
}
