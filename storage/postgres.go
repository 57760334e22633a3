package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sparked-server/game"
	"sparked-server/gameerrors"
)

const createGamesTableSQL = `
CREATE TABLE IF NOT EXISTS games (
	room_code  TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_games_created_at ON games(created_at);
`

// PostgresStore persists games as JSONB rows. Rows past the retention window
// are treated as absent on read and removed by DeleteExpired.
type PostgresStore struct {
	pool      *pgxpool.Pool
	retention time.Duration
}

// NewPostgresStore connects to Postgres and ensures the games table exists.
func NewPostgresStore(ctx context.Context, databaseURL string, retention time.Duration) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createGamesTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return &PostgresStore{pool: pool, retention: retention}, nil
}

func (s *PostgresStore) Create(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (room_code, state, created_at) VALUES ($1, $2, $3)`,
		g.RoomCode, data, g.CreatedAt)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, roomCode string) (*game.Game, error) {
	var data []byte
	var created time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT state, created_at FROM games WHERE room_code = $1`,
		roomCode).Scan(&data, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gameerrors.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
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

func (s *PostgresStore) Save(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO games (room_code, state, created_at, updated_at) VALUES ($1, $2, $3, now())
		 ON CONFLICT (room_code) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		g.RoomCode, data, g.CreatedAt)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, roomCode string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM games WHERE room_code = $1`, roomCode)
	return err
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM games WHERE created_at < now() - make_interval(secs => $1)`,
		s.retention.Seconds())
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}
