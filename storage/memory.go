package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sparked-server/game"
	"sparked-server/gameerrors"
)

// MemoryStore keeps games in a map. Used in tests and as the fallback when
// neither DATABASE_URL nor REDIS_URL is configured. Games are stored as JSON
// so Get always returns an independent copy, like the real backends.
type MemoryStore struct {
	mu        sync.RWMutex
	games     map[string][]byte
	createdAt map[string]time.Time
	retention time.Duration
}

// NewMemoryStore creates an in-memory store with the given retention window.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		games:     make(map[string][]byte),
		createdAt: make(map[string]time.Time),
		retention: retention,
	}
}

func (s *MemoryStore) Create(ctx context.Context, g *game.Game) error {
	return s.Save(ctx, g)
}

func (s *MemoryStore) Get(_ context.Context, roomCode string) (*game.Game, error) {
	s.mu.RLock()
	data, ok := s.games[roomCode]
	created := s.createdAt[roomCode]
	s.mu.RUnlock()

	if !ok {
		return nil, gameerrors.ErrRoomNotFound
	}
	if s.retention > 0 && time.Since(created) > s.retention {
		return nil, gameerrors.ErrRoomNotFound
	}

	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *MemoryStore) Save(_ context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.games[g.RoomCode] = data
	s.createdAt[g.RoomCode] = g.CreatedAt
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, roomCode string) error {
	s.mu.Lock()
	delete(s.games, roomCode)
	delete(s.createdAt, roomCode)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for code, created := range s.createdAt {
		if time.Since(created) > s.retention {
			delete(s.games, code)
			delete(s.createdAt, code)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Close() {}
