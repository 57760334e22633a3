package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"sparked-server/config"
	"sparked-server/game"
	"sparked-server/rooms"
	"sparked-server/storage"
)

// stubTiers maps known tokens to tiers; unknown tokens resolve to free, the
// same default the JWKS-backed resolver uses for invalid tokens.
type stubTiers struct {
	tiers map[string]string
}

func (s stubTiers) Tier(token string) string {
	if tier, ok := s.tiers[token]; ok {
		return tier
	}
	return "free"
}

func testHub(t *testing.T, tiers TierResolver) (*Hub, *rooms.Registry) {
	t.Helper()
	cfg := config.Defaults()
	reg := rooms.New(storage.NewMemoryStore(time.Hour), cfg)
	hub := NewHub(cfg, reg, tiers)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub, reg
}

func joinPayload(roomCode, token string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"joinRoom","gameId":%q,"playerId":"player1","token":%q}`, roomCode, token))
}

// awaitMessage scans the client's send channel for a message of the given
// type, skipping others.
func awaitMessage(t *testing.T, c *Client, wantType string) map[string]interface{} {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-c.Send:
			var m map[string]interface{}
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("unmarshal outbound message: %v", err)
			}
			if m["type"] == wantType {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q message", wantType)
		}
	}
}

func TestJoinDerivesTierFromToken(t *testing.T) {
	hub, reg := testHub(t, stubTiers{tiers: map[string]string{"paid-token": "premium"}})
	ctx := context.Background()
	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("creating room: %v", err)
	}

	c := &Client{Hub: hub, Send: make(chan []byte, 16)}
	c.handleMessage(joinPayload(g.RoomCode, "paid-token"))

	if c.Role != "premium" {
		t.Errorf("expected premium tier, got %q", c.Role)
	}
	got, err := reg.View(ctx, g.RoomCode)
	if err != nil {
		t.Fatalf("viewing room: %v", err)
	}
	if len(got.FreeDeadlines) != 0 {
		t.Error("premium session must not arm the countdown")
	}
}

func TestJoinIgnoresClientClaimedTier(t *testing.T) {
	hub, reg := testHub(t, stubTiers{})
	ctx := context.Background()
	g, err := reg.CreateRoom(ctx, "Alice")
	if err != nil {
		t.Fatalf("creating room: %v", err)
	}

	// A forged token resolves to free no matter what the client asserts
	// alongside it.
	c := &Client{Hub: hub, Send: make(chan []byte, 16)}
	c.handleMessage([]byte(fmt.Sprintf(
		`{"type":"joinRoom","gameId":%q,"playerId":"player1","token":"forged","role":"premium"}`,
		g.RoomCode)))

	if c.Role != "free" {
		t.Errorf("expected free tier, got %q", c.Role)
	}
	got, err := reg.View(ctx, g.RoomCode)
	if err != nil {
		t.Fatalf("viewing room: %v", err)
	}
	if got.FreeDeadlines[game.Player1].IsZero() {
		t.Error("free session deadline should be persisted")
	}
	awaitMessage(t, c, "freeSessionDeadline")
}

func TestLeaveThenChatOnSameConnection(t *testing.T) {
	hub, reg := testHub(t, stubTiers{tiers: map[string]string{"paid-token": "premium"}})
	g, err := reg.CreateRoom(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("creating room: %v", err)
	}

	c := &Client{Hub: hub, Send: make(chan []byte, 64)}
	c.handleMessage(joinPayload(g.RoomCode, "paid-token"))
	awaitMessage(t, c, "gameState")

	// The hub processes the detach on its own goroutine while this
	// connection keeps sending frames; the later frames must see the
	// cleared membership without the hub touching the client's fields.
	c.handleMessage([]byte(`{"type":"leaveRoom"}`))
	if c.RoomCode != "" {
		t.Error("leave must clear the room immediately on this connection")
	}
	c.handleMessage([]byte(`{"type":"chatMessage","text":"late frame"}`))
	awaitMessage(t, c, "error")

	// Rejoining after a leave works with the same connection.
	c.handleMessage(joinPayload(g.RoomCode, "paid-token"))
	if c.RoomCode != g.RoomCode {
		t.Errorf("rejoin failed, room = %q", c.RoomCode)
	}
}
