package game

import "time"

// VerifyView is the wire form of a pending verification. Status is derived
// from the game phase: waiting_proof until proof is attached, then pending.
type VerifyView struct {
	Target    Slot   `json:"target"`
	From      Slot   `json:"from"`
	Card      Card   `json:"card"`
	ProofURL  string `json:"proofUrl,omitempty"`
	ProofType string `json:"proofType,omitempty"`
	Status    string `json:"status"`
}

// Snapshot is the full game state sent wholesale to clients. There is no
// delta protocol: applying the same snapshot twice, or applying a stale one
// after a newer one, is a plain overwrite, so broadcasts only need to be
// at-least-once.
type Snapshot struct {
	RoomCode       string             `json:"roomCode"`
	Player1        *Player            `json:"player1,omitempty"`
	Player2        *Player            `json:"player2,omitempty"`
	Deck           []Card             `json:"deck"`
	Discard        []Card             `json:"discard"`
	Turn           Slot               `json:"turn"`
	Spark          Color              `json:"spark"`
	NeedsColorPick bool               `json:"needsColorPick"`
	ColorPicker    Slot               `json:"colorPicker,omitempty"`
	Verify         *VerifyView        `json:"verify,omitempty"`
	Winner         *Slot              `json:"winner,omitempty"`
	Status         Status             `json:"status"`
	Chat           []ChatMessage      `json:"chat"`
	CreatedAt      time.Time          `json:"createdAt"`
	FreeDeadlines  map[Slot]time.Time `json:"freeDeadlines,omitempty"`
}

// Snapshot builds the wire view of the game.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		RoomCode:       g.RoomCode,
		Player1:        g.Player1,
		Player2:        g.Player2,
		Deck:           g.Deck,
		Discard:        g.Discard,
		Turn:           g.Turn,
		Spark:          g.Spark,
		NeedsColorPick: g.Phase == PhaseColorPick,
		Winner:         g.Winner,
		Status:         g.Status,
		Chat:           g.Chat,
		CreatedAt:      g.CreatedAt,
		FreeDeadlines:  g.FreeDeadlines,
	}
	if g.Phase == PhaseColorPick {
		s.ColorPicker = g.ColorPicker
	}
	if g.Verify != nil {
		status := "waiting_proof"
		if g.Phase == PhaseVerify {
			status = "pending"
		}
		s.Verify = &VerifyView{
			Target:    g.Verify.Target,
			From:      g.Verify.From,
			Card:      g.Verify.Card,
			ProofURL:  g.Verify.ProofURL,
			ProofType: g.Verify.ProofType,
			Status:    status,
		}
	}
	return s
}
