package rooms

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"sparked-server/config"
	"sparked-server/game"
	"sparked-server/gameerrors"
	"sparked-server/storage"
)

func testRegistry(t *testing.T) (*Registry, *config.Config) {
	t.Helper()
	cfg := config.Defaults()
	cfg.FreeSessionMinutes = 1
	store := storage.NewMemoryStore(time.Hour)
	return New(store, cfg), cfg
}

func TestCreateRoomAllocatesFourDigitCode(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	codePattern := regexp.MustCompile(`^\d{4}$`)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		g, err := reg.CreateRoom(ctx, "Alice")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !codePattern.MatchString(g.RoomCode) {
			t.Fatalf("room code %q is not 4 digits", g.RoomCode)
		}
		if seen[g.RoomCode] {
			t.Fatalf("room code %q allocated twice", g.RoomCode)
		}
		seen[g.RoomCode] = true
	}
}

func TestUpdateRejectionsDoNotPersist(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = reg.Update(ctx, g.RoomCode, func(g *game.Game) error {
		g.Player1.Name = "Mallory" // partial mutation before the rejection
		return gameerrors.ErrInvalidPlay
	})
	if err == nil {
		t.Fatal("expected the rejection to propagate")
	}

	got, err := reg.View(ctx, g.RoomCode)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if got.Player1.Name != "Alice" {
		t.Error("rejected update must not be persisted")
	}
}

func TestUpdateSerializesConcurrentActions(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := reg.Update(ctx, g.RoomCode, func(g *game.Game) error {
		return g.Join("Bob")
	}); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Hammer the same room with concurrent chat appends; without per-room
	// serialization most of them would overwrite each other.
	const writers = 32
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, _ = reg.Update(ctx, g.RoomCode, func(g *game.Game) error {
				g.AppendChat(game.ChatMessage{Sender: game.Player1, Text: "hi", Type: "text", Timestamp: time.Now()}, 100)
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := reg.View(ctx, g.RoomCode)
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
	if len(got.Chat) != writers {
		t.Errorf("expected %d chat messages after concurrent updates, got %d", writers, len(got.Chat))
	}
	if got.TotalCards() != g.TotalCards() {
		t.Errorf("card conservation broken by concurrent updates: %d != %d", got.TotalCards(), g.TotalCards())
	}
}

func TestDeleteRoom(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := reg.DeleteRoom(ctx, g.RoomCode); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := reg.View(ctx, g.RoomCode); err != gameerrors.ErrRoomNotFound {
		t.Errorf("expected ErrRoomNotFound after delete, got %v", err)
	}
}

func TestFreeSessionDeadlinePersistsAcrossRestarts(t *testing.T) {
	reg, _ := testRegistry(t)
	ctx := context.Background()

	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := reg.StartFreeSession(ctx, g.RoomCode, game.Player1, func() {})
	if err != nil {
		t.Fatalf("starting free session: %v", err)
	}
	if first.IsZero() {
		t.Fatal("expected a deadline")
	}

	// Simulate disconnect + reconnect: the second start must resume the same
	// deadline, not extend it.
	reg.CancelFreeSession(g.RoomCode, game.Player1)
	second, err := reg.StartFreeSession(ctx, g.RoomCode, game.Player1, func() {})
	if err != nil {
		t.Fatalf("restarting free session: %v", err)
	}
	if !second.Equal(first) {
		t.Errorf("reconnect extended the free session: %v != %v", second, first)
	}
}

func TestFreeSessionExpiryFires(t *testing.T) {
	cfg := config.Defaults()
	cfg.FreeSessionMinutes = 1
	store := storage.NewMemoryStore(time.Hour)
	reg := New(store, cfg)
	ctx := context.Background()

	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Persist an already-elapsed deadline, as after a long disconnect.
	if _, err := reg.Update(ctx, g.RoomCode, func(g *game.Game) error {
		g.FreeDeadlines = map[game.Slot]time.Time{game.Player1: time.Now().UTC().Add(-time.Second)}
		return nil
	}); err != nil {
		t.Fatalf("seeding deadline: %v", err)
	}

	fired := make(chan struct{})
	if _, err := reg.StartFreeSession(ctx, g.RoomCode, game.Player1, func() { close(fired) }); err != nil {
		t.Fatalf("starting free session: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expired free session did not fire")
	}
}
