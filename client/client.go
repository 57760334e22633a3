package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"sparked-server/game"
)

// Status is the derived UI state. It is computed, never stored: the snapshot
// plus the credential presence fully determine it.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusMenu     Status = "menu"
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Event is delivered on the Events channel whenever the projection changes or
// a room-level notification arrives.
type Event struct {
	Kind     string // state, chat, playerJoined, playerLeft, roomDeleted, typing, freeDeadline, freeExpired, error
	Message  *game.ChatMessage
	PlayerID string
	Deadline time.Time
	Err      string
}

// Client is the local projection of one seat in a room. The HTTP response
// body is the primary sync path: every accepted mutation returns the full
// snapshot, which overwrites local state. The websocket stream is the
// redundant secondary path carrying the same snapshots, so applying either
// in any order converges.
type Client struct {
	baseURL string
	httpc   *http.Client
	creds   CredentialStore

	mu          sync.RWMutex
	snapshot    *game.Snapshot
	pendingDraw *game.Card
	slot        game.Slot
	seated      bool
	started     bool

	events chan Event
	sock   *socket
}

// New creates a client for the given server base URL, e.g. "http://host:8080".
func New(baseURL string, creds CredentialStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		creds:   creds,
		events:  make(chan Event, 64),
	}
}

// Events returns the notification stream. Events are dropped, never blocked
// on, when the consumer falls behind; the snapshot always holds the truth.
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) emit(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

// Snapshot returns the last applied snapshot, or nil before any sync.
func (c *Client) Snapshot() *game.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Slot returns this client's seat. Valid once seated.
func (c *Client) Slot() game.Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slot
}

// PendingDraw returns the drawn card awaiting acceptance, if any.
func (c *Client) PendingDraw() *game.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pendingDraw
}

// Status derives the UI state from the projection.
func (c *Client) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case !c.started:
		return StatusLoading
	case c.snapshot == nil:
		return StatusMenu
	case c.snapshot.Status == game.StatusWaiting:
		return StatusWaiting
	case c.snapshot.Status == game.StatusFinished:
		return StatusFinished
	default:
		return StatusPlaying
	}
}

// apply installs a snapshot, last write wins. Reapplying an identical or
// stale snapshot is harmless.
func (c *Client) apply(snap *game.Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.started = true
	c.mu.Unlock()
	c.emit(Event{Kind: "state"})
}

// dropSeat forgets the room entirely: credentials, snapshot, pending draw.
func (c *Client) dropSeat() {
	c.mu.Lock()
	c.snapshot = nil
	c.pendingDraw = nil
	c.seated = false
	c.started = true
	c.mu.Unlock()
	_ = c.creds.Clear()
}

// Start performs the one-shot reconnect: if credentials exist, fetch the
// snapshot before exposing any state; if the room is gone, clear them and
// land on the menu.
func (c *Client) Start(ctx context.Context) error {
	saved, ok, err := c.creds.Load()
	if err != nil {
		return err
	}
	if !ok {
		c.mu.Lock()
		c.started = true
		c.mu.Unlock()
		return nil
	}

	slot, err := game.ParseSlot(saved.PlayerID)
	if err != nil {
		c.dropSeat()
		return nil
	}

	env, status, err := c.get(ctx, "/api/game/"+saved.RoomCode)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || !env.Success {
		c.dropSeat()
		return nil
	}

	c.mu.Lock()
	c.slot = slot
	c.seated = true
	c.mu.Unlock()
	c.apply(env.Game)
	return nil
}

// CreateRoom creates a room and seats this client as player1.
func (c *Client) CreateRoom(ctx context.Context, playerName string) error {
	env, err := c.post(ctx, "/api/game/create", map[string]string{"playerName": playerName})
	if err != nil {
		return err
	}
	return c.seat(env)
}

// JoinRoom joins an existing room as player2.
func (c *Client) JoinRoom(ctx context.Context, roomCode, playerName string) error {
	env, err := c.post(ctx, "/api/game/join",
		map[string]string{"roomCode": roomCode, "playerName": playerName})
	if err != nil {
		return err
	}
	if env.RoomCode == "" {
		env.RoomCode = roomCode
	}
	return c.seat(env)
}

func (c *Client) seat(env *envelope) error {
	slot, err := game.ParseSlot(env.PlayerID)
	if err != nil {
		return fmt.Errorf("server returned unknown seat %q", env.PlayerID)
	}
	roomCode := env.RoomCode
	if roomCode == "" && env.Game != nil {
		roomCode = env.Game.RoomCode
	}
	if err := c.creds.Save(Credentials{RoomCode: roomCode, PlayerID: env.PlayerID}); err != nil {
		return err
	}
	c.mu.Lock()
	c.slot = slot
	c.seated = true
	c.mu.Unlock()
	c.apply(env.Game)
	return nil
}

func (c *Client) roomCode() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.seated || c.snapshot == nil {
		return "", fmt.Errorf("not in a room")
	}
	return c.snapshot.RoomCode, nil
}

// mutateCall posts to a room action endpoint and applies the returned snapshot.
func (c *Client) mutateCall(ctx context.Context, action string, body map[string]interface{}) error {
	roomCode, err := c.roomCode()
	if err != nil {
		return err
	}
	body["playerId"] = c.Slot().String()
	env, err := c.post(ctx, fmt.Sprintf("/api/game/%s/%s", roomCode, action), body)
	if err != nil {
		return err
	}
	c.apply(env.Game)
	return nil
}

// PlayCard plays the card with the given instance uid from this hand.
func (c *Client) PlayCard(ctx context.Context, cardUID string) error {
	return c.mutateCall(ctx, "play", map[string]interface{}{"cardUid": cardUID})
}

// PickColor resolves a pending wild color choice.
func (c *Client) PickColor(ctx context.Context, color game.Color) error {
	return c.mutateCall(ctx, "color", map[string]interface{}{"color": string(color)})
}

// SubmitProof attaches proof media to the pending task.
func (c *Client) SubmitProof(ctx context.Context, proofURL, proofType string) error {
	return c.mutateCall(ctx, "submit-proof",
		map[string]interface{}{"proofUrl": proofURL, "proofType": proofType})
}

// SkipProof abandons the pending task for the penalty.
func (c *Client) SkipProof(ctx context.Context) error {
	return c.mutateCall(ctx, "skip-proof", map[string]interface{}{})
}

// VerifyTask judges the opponent's submitted proof.
func (c *Client) VerifyTask(ctx context.Context, success bool) error {
	return c.mutateCall(ctx, "verify", map[string]interface{}{"success": success})
}

// Draw takes the top deck card. The card is held locally as the pending draw
// until AcceptDrawnCard confirms it into the hand.
func (c *Client) Draw(ctx context.Context) error {
	roomCode, err := c.roomCode()
	if err != nil {
		return err
	}
	env, err := c.post(ctx, fmt.Sprintf("/api/game/%s/draw", roomCode),
		map[string]interface{}{"playerId": c.Slot().String()})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.pendingDraw = env.Card
	c.mu.Unlock()
	c.apply(env.Game)
	return nil
}

// AcceptDrawnCard moves the pending draw into the hand and passes the turn.
func (c *Client) AcceptDrawnCard(ctx context.Context) error {
	c.mu.RLock()
	pending := c.pendingDraw
	c.mu.RUnlock()
	if pending == nil {
		return fmt.Errorf("no drawn card pending")
	}
	if err := c.mutateCall(ctx, "add-to-hand", map[string]interface{}{"card": pending}); err != nil {
		return err
	}
	c.mu.Lock()
	c.pendingDraw = nil
	c.mu.Unlock()
	return nil
}

// SendChat posts a chat message. The local chat log is updated from the
// response; other clients get it via the newMessage broadcast.
func (c *Client) SendChat(ctx context.Context, text, contentType, url string) error {
	roomCode, err := c.roomCode()
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "text"
	}
	env, err := c.post(ctx, fmt.Sprintf("/api/game/%s/chat", roomCode), map[string]interface{}{
		"playerId": c.Slot().String(),
		"text":     text,
		"type":     contentType,
		"url":      url,
	})
	if err != nil {
		return err
	}
	if env.Message != nil {
		c.appendChat(*env.Message)
	}
	return nil
}

func (c *Client) appendChat(msg game.ChatMessage) {
	c.mu.Lock()
	if c.snapshot != nil {
		c.snapshot.Chat = append(c.snapshot.Chat, msg)
	}
	c.mu.Unlock()
	c.emit(Event{Kind: "chat", Message: &msg})
}

// DeleteRoom deletes the room on the server and drops the seat.
func (c *Client) DeleteRoom(ctx context.Context) error {
	roomCode, err := c.roomCode()
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/game/"+roomCode, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	c.dropSeat()
	return nil
}

// Exit leaves the room locally without touching the server.
func (c *Client) Exit() {
	if c.sock != nil {
		c.sock.close()
		c.sock = nil
	}
	c.dropSeat()
}

type envelope struct {
	Success  bool              `json:"success"`
	Reason   string            `json:"reason"`
	RoomCode string            `json:"roomCode"`
	PlayerID string            `json:"playerId"`
	Card     *game.Card        `json:"card"`
	Game     *game.Snapshot    `json:"game"`
	Message  *game.ChatMessage `json:"message"`
}

func (c *Client) get(ctx context.Context, path string) (*envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, resp.StatusCode, err
	}
	return &env, resp.StatusCode, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, fmt.Errorf("server rejected request: %s", env.Reason)
	}
	return &env, nil
}
