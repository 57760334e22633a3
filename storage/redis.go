package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sparked-server/game"
	"sparked-server/gameerrors"
)

const redisKeyPrefix = "sparked"

func roomKey(roomCode string) string {
	return fmt.Sprintf("%s:game:%s", redisKeyPrefix, roomCode)
}

// RedisStore persists games as JSON values with the retention window as a
// native key TTL, so expiry needs no janitor sweep.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore connects to Redis using a redis:// URL.
func NewRedisStore(ctx context.Context, redisURL string, retention time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	slog.Info("connected to Redis", "tag", "storage")
	return &RedisStore{client: client, retention: retention}, nil
}

// NewRedisStoreWithClient wraps an existing client (for testing).
func NewRedisStoreWithClient(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) Create(ctx context.Context, g *game.Game) error {
	return s.set(ctx, g, s.retention)
}

// Save preserves the key's remaining TTL so updates do not extend the
// retention window.
func (s *RedisStore) Save(ctx context.Context, g *game.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	set := s.client.SetArgs(ctx, roomKey(g.RoomCode), data, redis.SetArgs{KeepTTL: true})
	if err := set.Err(); err != nil {
		return err
	}
	// A Save against a key that never existed (or whose TTL lapsed between
	// read and write) would otherwise persist forever.
	if s.retention > 0 {
		ttl, err := s.client.TTL(ctx, roomKey(g.RoomCode)).Result()
		if err == nil && ttl < 0 {
			return s.set(ctx, g, s.retention)
		}
	}
	return nil
}

func (s *RedisStore) set(ctx context.Context, g *game.Game, ttl time.Duration) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, roomKey(g.RoomCode), data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, roomCode string) (*game.Game, error) {
	data, err := s.client.Get(ctx, roomKey(roomCode)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gameerrors.ErrRoomNotFound
		}
		return nil, err
	}
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *RedisStore) Delete(ctx context.Context, roomCode string) error {
	return s.client.Del(ctx, roomKey(roomCode)).Err()
}

// DeleteExpired is a no-op: retention is enforced by key TTL.
func (s *RedisStore) DeleteExpired(context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Close() {
	_ = s.client.Close()
}
