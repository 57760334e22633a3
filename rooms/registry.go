package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"sparked-server/config"
	"sparked-server/game"
	"sparked-server/gameerrors"
	"sparked-server/storage"
)

// Registry owns room lifecycle: code allocation, per-room serialization of
// every read-modify-write, free-tier session timers, and expiry of old
// rooms. All engine transitions go through Update, which holds the room's
// lock from read to save, so two nearly-simultaneous actions can never both
// validate against stale state.
type Registry struct {
	store storage.GameStore
	cfg   *config.Config

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	timers map[string]*time.Timer // roomCode+slot -> free-session timer
}

// New creates a Registry over the given store.
func New(store storage.GameStore, cfg *config.Config) *Registry {
	return &Registry{
		store:  store,
		cfg:    cfg,
		locks:  make(map[string]*sync.Mutex),
		timers: make(map[string]*time.Timer),
	}
}

func (r *Registry) lockFor(roomCode string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[roomCode]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roomCode] = l
	}
	return l
}

// CreateRoom allocates a fresh 4-digit room code by rejection sampling
// against the store and persists a new waiting game.
func (r *Registry) CreateRoom(ctx context.Context, playerName string) (*game.Game, error) {
	code, err := r.newRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	g, err := game.New(code, playerName, r.cfg)
	if err != nil {
		return nil, err
	}

	l := r.lockFor(code)
	l.Lock()
	defer l.Unlock()
	if err := r.store.Create(ctx, g); err != nil {
		return nil, err
	}
	slog.Info("room created", "tag", "rooms", "room", code, "player", playerName)
	return g, nil
}

func (r *Registry) newRoomCode(ctx context.Context) (string, error) {
	attempts := r.cfg.RoomCodeAttempts
	if attempts <= 0 {
		attempts = 32
	}
	for i := 0; i < attempts; i++ {
		code := fmt.Sprintf("%04d", 1000+rand.Intn(9000))
		_, err := r.store.Get(ctx, code)
		if errors.Is(err, gameerrors.ErrRoomNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free room code after %d attempts", attempts)
}

// View returns the current state of a room without mutating it.
func (r *Registry) View(ctx context.Context, roomCode string) (*game.Game, error) {
	return r.store.Get(ctx, roomCode)
}

// Update runs fn against the room's current state under the room lock and
// persists the result. If fn returns an error nothing is saved and the
// error is passed through, so a rejected action leaves the stored state
// untouched.
func (r *Registry) Update(ctx context.Context, roomCode string, fn func(*game.Game) error) (*game.Game, error) {
	l := r.lockFor(roomCode)
	l.Lock()
	defer l.Unlock()

	g, err := r.store.Get(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if err := fn(g); err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DeleteRoom removes a room and its associated lock and timers.
func (r *Registry) DeleteRoom(ctx context.Context, roomCode string) error {
	l := r.lockFor(roomCode)
	l.Lock()
	err := r.store.Delete(ctx, roomCode)
	l.Unlock()

	r.mu.Lock()
	delete(r.locks, roomCode)
	for _, slot := range []game.Slot{game.Player1, game.Player2} {
		key := timerKey(roomCode, slot)
		if t, ok := r.timers[key]; ok {
			t.Stop()
			delete(r.timers, key)
		}
	}
	r.mu.Unlock()

	if err == nil {
		slog.Info("room deleted", "tag", "rooms", "room", roomCode)
	}
	return err
}

func timerKey(roomCode string, slot game.Slot) string {
	return roomCode + ":" + slot.String()
}

// StartFreeSession arms the free-tier countdown for one participant. The
// deadline is persisted in the game record on first start and reused on
// every later call, so disconnect/reconnect cycles resume the countdown
// instead of restarting it. onExpire fires once, on or after the deadline.
// The returned deadline lets the caller surface the remaining time.
func (r *Registry) StartFreeSession(ctx context.Context, roomCode string, slot game.Slot, onExpire func()) (time.Time, error) {
	d := time.Duration(r.cfg.FreeSessionMinutes) * time.Minute
	if d <= 0 {
		return time.Time{}, nil
	}

	var deadline time.Time
	_, err := r.Update(ctx, roomCode, func(g *game.Game) error {
		if g.FreeDeadlines == nil {
			g.FreeDeadlines = make(map[game.Slot]time.Time)
		}
		if existing, ok := g.FreeDeadlines[slot]; ok {
			deadline = existing
			return nil
		}
		deadline = time.Now().UTC().Add(d)
		g.FreeDeadlines[slot] = deadline
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}

	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}

	r.mu.Lock()
	key := timerKey(roomCode, slot)
	if t, ok := r.timers[key]; ok {
		t.Stop()
	}
	r.timers[key] = time.AfterFunc(remaining, onExpire)
	r.mu.Unlock()

	return deadline, nil
}

// CancelFreeSession stops the countdown timer for a participant who left.
// The persisted deadline stays, so rejoining resumes where it stopped.
func (r *Registry) CancelFreeSession(roomCode string, slot game.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := timerKey(roomCode, slot)
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
}

// RunJanitor periodically sweeps expired rooms from stores without native
// TTL. Should be run as a goroutine; returns when ctx is cancelled.
func (r *Registry) RunJanitor(ctx context.Context) {
	interval := time.Duration(r.cfg.JanitorIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.store.DeleteExpired(ctx)
			if err != nil {
				slog.Error("sweeping expired rooms", "tag", "rooms", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("swept expired rooms", "tag", "rooms", "count", n)
			}
		}
	}
}
