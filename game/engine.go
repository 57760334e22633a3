package game

import (
	"math/rand"

	"github.com/google/uuid"

	"sparked-server/gameerrors"
)

// Engine operations. Every method validates all preconditions before
// mutating anything, so a rejected action leaves the game untouched.

// requireActiveTurn checks the common preconditions for turn-taking actions:
// the game is running and the actor holds the turn.
func (g *Game) requireActiveTurn(actor Slot) error {
	switch g.Status {
	case StatusFinished:
		return gameerrors.ErrRoomFinished
	case StatusWaiting:
		return gameerrors.ErrRoomNotStarted
	}
	if actor != g.Turn {
		return gameerrors.ErrNotYourTurn
	}
	return nil
}

// requireNormalPhase rejects actions blocked by a pending sub-state.
func (g *Game) requireNormalPhase() error {
	switch g.Phase {
	case PhaseProof, PhaseVerify:
		return gameerrors.ErrVerifyPending
	case PhaseColorPick:
		return gameerrors.ErrColorPickPending
	}
	return nil
}

// PlayCard plays the card with the given uid from the actor's hand.
// A card is legal when it is wild, matches the spark color, or matches the
// top discard's value exactly.
func (g *Game) PlayCard(actor Slot, cardUID string) error {
	if err := g.requireActiveTurn(actor); err != nil {
		return err
	}
	if err := g.requireNormalPhase(); err != nil {
		return err
	}

	p := g.PlayerAt(actor)
	idx := -1
	for i, c := range p.Hand {
		if c.UID == cardUID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return gameerrors.ErrCardNotFound
	}

	card := p.Hand[idx]
	if card.Color != Wild && card.Color != g.Spark && card.Value != g.TopDiscard().Value {
		return gameerrors.ErrInvalidPlay
	}

	p.setHand(append(p.Hand[:idx], p.Hand[idx+1:]...))
	g.Discard = append(g.Discard, card)

	// Empty hand wins immediately; no effect resolution.
	if len(p.Hand) == 0 {
		winner := actor
		g.Winner = &winner
		g.Status = StatusFinished
		return nil
	}

	opp := actor.Opponent()
	switch card.Type {
	case TypeWild:
		switch card.Effect {
		case EffectSwap1, EffectSwap2:
			swaps := 1
			if card.Effect == EffectSwap2 {
				swaps = 2
			}
			g.swapRandomCards(actor, swaps)
			g.Turn = opp
		case EffectDraw4:
			g.dealTo(opp, 4)
			g.Phase = PhaseColorPick
			g.ColorPicker = actor
		default: // skip, color, or any other wild
			g.Phase = PhaseColorPick
			g.ColorPicker = actor
		}
	case TypeTask:
		g.Verify = &Verification{
			Target: opp,
			From:   actor,
			Card:   card,
		}
		g.Phase = PhaseProof
		g.Spark = card.Color
	default:
		g.Spark = card.Color
		g.Turn = opp
	}
	return nil
}

// PickColor resolves a pending color pick. Only the player who played the
// deciding wild card may choose. A skip wild keeps the turn with that
// player; every other wild passes it.
func (g *Game) PickColor(actor Slot, color Color) error {
	if g.Status == StatusFinished {
		return gameerrors.ErrRoomFinished
	}
	if g.Phase != PhaseColorPick {
		return gameerrors.ErrNoColorPickPending
	}
	if actor != g.ColorPicker {
		return gameerrors.ErrNotColorPicker
	}
	valid := false
	for _, c := range Colors {
		if color == c {
			valid = true
			break
		}
	}
	if !valid {
		return gameerrors.ErrInvalidPlay
	}

	g.Spark = color
	g.Phase = PhaseNormal
	g.ColorPicker = 0

	if g.TopDiscard().Effect == EffectSkip {
		g.Turn = actor
	} else {
		g.Turn = actor.Opponent()
	}
	return nil
}

// SubmitProof attaches proof to the pending verification and hands judgment
// to the target. Only the player who played the task card may submit.
func (g *Game) SubmitProof(actor Slot, proofURL, proofType string) error {
	if g.Status == StatusFinished {
		return gameerrors.ErrRoomFinished
	}
	if g.Verify == nil || g.Verify.From != actor {
		return gameerrors.ErrNoVerifyPending
	}
	g.Verify.ProofURL = proofURL
	g.Verify.ProofType = proofType
	g.Phase = PhaseVerify
	return nil
}

// SkipProof abandons the pending task: the player who owed proof draws 2
// penalty cards (fewer if the deck runs short) and the turn passes to the
// would-be judge.
func (g *Game) SkipProof(actor Slot) error {
	if g.Status == StatusFinished {
		return gameerrors.ErrRoomFinished
	}
	if g.Verify == nil || g.Verify.From != actor {
		return gameerrors.ErrNoVerifyPending
	}
	g.dealTo(actor, 2)
	g.Turn = g.Verify.Target
	g.Verify = nil
	g.Phase = PhaseNormal
	return nil
}

// VerifyChallenge records the target's judgment of the submitted proof.
// On failure the task player draws 2 penalty cards; either way the
// verification clears and the turn passes to the judge.
func (g *Game) VerifyChallenge(actor Slot, success bool) error {
	if g.Status == StatusFinished {
		return gameerrors.ErrRoomFinished
	}
	if g.Verify == nil || g.Verify.Target != actor {
		return gameerrors.ErrNotVerifyTarget
	}
	if !success {
		g.dealTo(g.Verify.From, 2)
	}
	g.Turn = actor
	g.Verify = nil
	g.Phase = PhaseNormal
	return nil
}

// DrawCard removes the top card of the deck and returns it. The card is not
// added to a hand; the client holds it as a pending draw until
// AddDrawnCardToHand. An empty deck is rebuilt from the discard pile (all
// but its top card, reshuffled with fresh uids); if no cards remain even
// then, ErrNoCards is returned.
func (g *Game) DrawCard(actor Slot) (Card, error) {
	if err := g.requireActiveTurn(actor); err != nil {
		return Card{}, err
	}
	if err := g.requireNormalPhase(); err != nil {
		return Card{}, err
	}

	if len(g.Deck) == 0 && len(g.Discard) > 1 {
		g.reshuffleDiscard()
	}
	if len(g.Deck) == 0 {
		return Card{}, gameerrors.ErrNoCards
	}

	card := g.Deck[len(g.Deck)-1]
	g.Deck = g.Deck[:len(g.Deck)-1]
	return card, nil
}

// AddDrawnCardToHand finalizes a draw: the pending card joins the actor's
// hand and the turn passes. Rejected while a color pick or verification is
// open, so it cannot pass the turn out from under a pending sub-state.
func (g *Game) AddDrawnCardToHand(actor Slot, card Card) error {
	if err := g.requireActiveTurn(actor); err != nil {
		return err
	}
	if err := g.requireNormalPhase(); err != nil {
		return err
	}
	p := g.PlayerAt(actor)
	p.setHand(append(p.Hand, card))
	g.Turn = actor.Opponent()
	return nil
}

// dealTo moves up to n cards from the deck to the slot's hand. Fewer move
// if the deck runs short; the deal never blocks or reshuffles.
func (g *Game) dealTo(s Slot, n int) {
	p := g.PlayerAt(s)
	for i := 0; i < n && len(g.Deck) > 0; i++ {
		p.Hand = append(p.Hand, g.Deck[len(g.Deck)-1])
		g.Deck = g.Deck[:len(g.Deck)-1]
	}
	p.setHand(p.Hand)
}

// swapRandomCards performs count mutual single-card exchanges between the
// actor's and opponent's hands, skipping any exchange where either hand is
// empty.
func (g *Game) swapRandomCards(actor Slot, count int) {
	mine := g.PlayerAt(actor)
	theirs := g.PlayerAt(actor.Opponent())
	for i := 0; i < count; i++ {
		if len(mine.Hand) == 0 || len(theirs.Hand) == 0 {
			continue
		}
		mi := rand.Intn(len(mine.Hand))
		oi := rand.Intn(len(theirs.Hand))
		mine.Hand[mi], theirs.Hand[oi] = theirs.Hand[oi], mine.Hand[mi]
	}
	mine.setHand(mine.Hand)
	theirs.setHand(theirs.Hand)
}

// reshuffleDiscard rebuilds the deck from the discard pile, keeping the top
// discard in place. Recycled cards get fresh uids so they can never collide
// with a copy still referenced by a hand or an in-flight draw.
func (g *Game) reshuffleDiscard() {
	top := g.Discard[len(g.Discard)-1]
	recycled := make([]Card, 0, len(g.Discard)-1)
	for _, c := range g.Discard[:len(g.Discard)-1] {
		c.UID = uuid.NewString()
		recycled = append(recycled, c)
	}
	rand.Shuffle(len(recycled), func(i, j int) {
		recycled[i], recycled[j] = recycled[j], recycled[i]
	})
	g.Deck = recycled
	g.Discard = []Card{top}
}
