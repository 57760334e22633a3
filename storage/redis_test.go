package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"sparked-server/game"
	"sparked-server/gameerrors"
)

type RedisStoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *RedisStore
	ctx   context.Context
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.store = NewRedisStoreWithClient(client, time.Hour)
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *RedisStoreSuite) TestCreateAndGet() {
	g := newStoredGame(s.T(), "1234")
	s.Require().NoError(s.store.Create(s.ctx, g))

	got, err := s.store.Get(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal("1234", got.RoomCode)
	s.Equal(g.TotalCards(), got.TotalCards())
}

func (s *RedisStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "0000")
	s.ErrorIs(err, gameerrors.ErrRoomNotFound)
}

func (s *RedisStoreSuite) TestSavePreservesTTL() {
	g := newStoredGame(s.T(), "1234")
	s.Require().NoError(s.store.Create(s.ctx, g))

	// Let some of the TTL elapse, then save; the remaining TTL must not grow.
	s.mini.FastForward(30 * time.Minute)
	s.Require().NoError(g.Join("Bob"))
	s.Require().NoError(s.store.Save(s.ctx, g))

	ttl := s.mini.TTL(roomKey("1234"))
	s.LessOrEqual(ttl, 30*time.Minute, "save must not extend the retention window")

	got, err := s.store.Get(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(game.StatusPlaying, got.Status)
}

func (s *RedisStoreSuite) TestExpiryReadsAsNotFound() {
	g := newStoredGame(s.T(), "1234")
	s.Require().NoError(s.store.Create(s.ctx, g))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.store.Get(s.ctx, "1234")
	s.ErrorIs(err, gameerrors.ErrRoomNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	g := newStoredGame(s.T(), "1234")
	s.Require().NoError(s.store.Create(s.ctx, g))
	s.Require().NoError(s.store.Delete(s.ctx, "1234"))

	_, err := s.store.Get(s.ctx, "1234")
	s.ErrorIs(err, gameerrors.ErrRoomNotFound)
}
