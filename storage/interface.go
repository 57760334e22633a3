package storage

import (
	"context"

	"sparked-server/game"
)

// GameStore abstracts persistence for game rooms. Implementations must
// return gameerrors.ErrRoomNotFound for missing rooms and for rooms older
// than the retention window. Stores do not serialize access; the rooms
// package holds a per-room lock around every read-modify-write.
type GameStore interface {
	Create(ctx context.Context, g *game.Game) error
	Get(ctx context.Context, roomCode string) (*game.Game, error)
	Save(ctx context.Context, g *game.Game) error
	Delete(ctx context.Context, roomCode string) error

	// DeleteExpired removes rooms past the retention window. Stores with
	// native TTL support may make this a no-op.
	DeleteExpired(ctx context.Context) (int, error)

	Close()
}

// Compile-time interface checks.
var (
	_ GameStore = (*MemoryStore)(nil)
	_ GameStore = (*PostgresStore)(nil)
	_ GameStore = (*RedisStore)(nil)
)
