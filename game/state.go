package game

import (
	"fmt"
	"time"

	"sparked-server/config"
	"sparked-server/gameerrors"
)

// Slot is one of the two fixed player positions in a room. Roles are
// assigned at create/join time and never swap.
type Slot int

const (
	Player1 Slot = iota + 1
	Player2
)

// Opponent returns the other slot.
func (s Slot) Opponent() Slot {
	if s == Player1 {
		return Player2
	}
	return Player1
}

// String returns the protocol name of the slot.
func (s Slot) String() string {
	switch s {
	case Player1:
		return "player1"
	case Player2:
		return "player2"
	default:
		return "unknown"
	}
}

// MarshalText encodes the slot as its protocol name. Used for both JSON
// values and map keys.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a protocol slot name.
func (s *Slot) UnmarshalText(text []byte) error {
	parsed, err := ParseSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSlot converts a protocol slot name to a Slot.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "player1":
		return Player1, nil
	case "player2":
		return Player2, nil
	default:
		return 0, fmt.Errorf("unknown player slot %q", name)
	}
}

// Phase is the sub-state of a playing game. Exactly one phase is active at a
// time, so a pending verification and a pending color pick can never coexist.
type Phase int

const (
	// PhaseNormal: the player named by Turn may play or draw.
	PhaseNormal Phase = iota
	// PhaseColorPick: a wild card was played; ColorPicker must pick the spark.
	PhaseColorPick
	// PhaseProof: a task card was played; Verify.From must submit or skip proof.
	PhaseProof
	// PhaseVerify: proof was submitted; Verify.Target must judge it.
	PhaseVerify
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseColorPick:
		return "color_pick"
	case PhaseProof:
		return "awaiting_proof"
	case PhaseVerify:
		return "awaiting_verification"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Player is one seat in a game. Count mirrors len(Hand) and is kept in
// lockstep by setHand on every mutation.
type Player struct {
	Name  string `json:"name"`
	Hand  []Card `json:"hand"`
	Count int    `json:"count"`
}

func (p *Player) setHand(hand []Card) {
	p.Hand = hand
	p.Count = len(hand)
}

// Verification is the pending task-completion judgment: From played the task
// card and must prove it, Target judges. Its progress (waiting for proof vs
// waiting for judgment) is carried by the game's Phase.
type Verification struct {
	Target    Slot   `json:"target"`
	From      Slot   `json:"from"`
	Card      Card   `json:"card"`
	ProofURL  string `json:"proofUrl,omitempty"`
	ProofType string `json:"proofType,omitempty"`
}

// ChatMessage is one entry in a room's chat log.
type ChatMessage struct {
	Sender    Slot      `json:"sender"`
	Text      string    `json:"text"`
	Type      string    `json:"type"` // text, image, video, audio, file
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Game is the authoritative state of one room. All mutation goes through the
// engine methods, which validate fully before touching any field; callers
// must serialize access per room (see the rooms package).
type Game struct {
	RoomCode string  `json:"roomCode"`
	Player1  *Player `json:"player1,omitempty"`
	Player2  *Player `json:"player2,omitempty"`

	// Reserve holds player2's dealt hand until they join.
	Reserve []Card `json:"reserve,omitempty"`

	Deck    []Card `json:"deck"`    // draw pile, top = end
	Discard []Card `json:"discard"` // top = last element

	Turn  Slot  `json:"turn"`
	Spark Color `json:"spark"`

	Phase Phase `json:"phase"`
	// ColorPicker is the slot that must resolve a pending color pick.
	// Valid only while Phase == PhaseColorPick.
	ColorPicker Slot `json:"colorPicker,omitempty"`
	// Verify is non-nil exactly while Phase is PhaseProof or PhaseVerify.
	Verify *Verification `json:"verify,omitempty"`

	Winner *Slot  `json:"winner,omitempty"`
	Status Status `json:"status"`

	Chat      []ChatMessage `json:"chat"`
	CreatedAt time.Time     `json:"createdAt"`

	// FreeDeadlines persists free-tier session deadlines per slot so a
	// reconnect resumes the countdown instead of restarting it.
	FreeDeadlines map[Slot]time.Time `json:"freeDeadlines,omitempty"`
}

// New creates a room in the waiting state: deck built and shuffled, both
// hands dealt (player2's parked in Reserve), discard seeded with a non-wild
// start card, turn and spark set from it.
func New(roomCode, playerName string, cfg *config.Config) (*Game, error) {
	deck := NewDeck(cfg.DeckCopies)
	hand1, hand2, start, rest, err := Deal(deck, cfg.HandSize)
	if err != nil {
		return nil, err
	}

	g := &Game{
		RoomCode:  roomCode,
		Player1:   &Player{Name: playerName},
		Reserve:   hand2,
		Deck:      rest,
		Discard:   []Card{start},
		Turn:      Player1,
		Spark:     start.Color,
		Status:    StatusWaiting,
		Chat:      []ChatMessage{},
		CreatedAt: time.Now().UTC(),
	}
	g.Player1.setHand(hand1)
	return g, nil
}

// Join seats the second player, giving them the hand dealt at creation, and
// starts play.
func (g *Game) Join(playerName string) error {
	if g.Status == StatusFinished {
		return gameerrors.ErrRoomFinished
	}
	if g.Player2 != nil {
		return gameerrors.ErrRoomFull
	}
	g.Player2 = &Player{Name: playerName}
	g.Player2.setHand(g.Reserve)
	g.Reserve = nil
	g.Status = StatusPlaying
	return nil
}

// PlayerAt returns the player seated at the slot, or nil if the seat is
// still empty.
func (g *Game) PlayerAt(s Slot) *Player {
	if s == Player1 {
		return g.Player1
	}
	return g.Player2
}

// TopDiscard returns the top card of the discard pile. The discard is never
// empty once a game exists (seeded at creation).
func (g *Game) TopDiscard() Card {
	return g.Discard[len(g.Discard)-1]
}

// NeedsColorPick reports whether a wild card is awaiting its color choice.
func (g *Game) NeedsColorPick() bool {
	return g.Phase == PhaseColorPick
}

// TotalCards counts every card instance currently tracked by the game.
func (g *Game) TotalCards() int {
	n := len(g.Deck) + len(g.Discard) + len(g.Reserve)
	if g.Player1 != nil {
		n += len(g.Player1.Hand)
	}
	if g.Player2 != nil {
		n += len(g.Player2.Hand)
	}
	return n
}

// AppendChat adds a message to the chat log, keeping only the most recent
// limit messages.
func (g *Game) AppendChat(msg ChatMessage, limit int) {
	g.Chat = append(g.Chat, msg)
	if limit > 0 && len(g.Chat) > limit {
		g.Chat = g.Chat[len(g.Chat)-limit:]
	}
}
