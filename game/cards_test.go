package game

import (
	"testing"
)

func TestNewDeck(t *testing.T) {
	copies := 3
	deck := NewDeck(copies)

	if len(deck) != copies*len(Catalog) {
		t.Fatalf("expected %d cards, got %d", copies*len(Catalog), len(deck))
	}

	// Fixed multiset of template ids: exactly `copies` instances each
	perTemplate := make(map[string]int)
	for _, c := range deck {
		perTemplate[c.ID]++
	}
	if len(perTemplate) != len(Catalog) {
		t.Errorf("expected %d distinct templates, got %d", len(Catalog), len(perTemplate))
	}
	for id, n := range perTemplate {
		if n != copies {
			t.Errorf("template %s has %d instances, expected %d", id, n, copies)
		}
	}

	// Every instance uid is unique
	uids := make(map[string]bool)
	for _, c := range deck {
		if c.UID == "" {
			t.Fatalf("card %s has empty uid", c.ID)
		}
		if uids[c.UID] {
			t.Errorf("duplicate uid %s", c.UID)
		}
		uids[c.UID] = true
	}
}

func TestDeal(t *testing.T) {
	deck := NewDeck(3)
	total := len(deck)

	hand1, hand2, start, rest, err := Deal(deck, 7)
	if err != nil {
		t.Fatalf("unexpected deal error: %v", err)
	}

	if len(hand1) != 7 {
		t.Errorf("expected hand1 of 7, got %d", len(hand1))
	}
	if len(hand2) != 7 {
		t.Errorf("expected hand2 of 7, got %d", len(hand2))
	}
	if start.IsWild() {
		t.Errorf("start card must not be wild, got %s", start.ID)
	}
	if got := len(hand1) + len(hand2) + 1 + len(rest); got != total {
		t.Errorf("cards not conserved by deal: expected %d, got %d", total, got)
	}
}

func TestDealRequeuesWildStartCandidates(t *testing.T) {
	plain := Card{ID: "g3", UID: "u-plain", Color: Growth, Value: "3", Type: TypePlain}
	wild1 := Card{ID: "w1", UID: "u-w1", Color: Wild, Value: "W", Type: TypeWild, Effect: EffectColor}
	wild2 := Card{ID: "w9", UID: "u-w9", Color: Wild, Value: "⊘", Type: TypeWild, Effect: EffectSkip}

	// Top of the deck is the end: both wilds are popped before the plain card.
	deck := []Card{plain, wild1, wild2}

	_, _, start, rest, err := Deal(deck, 0)
	if err != nil {
		t.Fatalf("unexpected deal error: %v", err)
	}
	if start.UID != plain.UID {
		t.Errorf("expected plain start card, got %s", start.ID)
	}
	if len(rest) != 2 {
		t.Fatalf("expected 2 requeued cards, got %d", len(rest))
	}
	for _, c := range rest {
		if !c.IsWild() {
			t.Errorf("requeued card %s should be wild", c.ID)
		}
	}
}

func TestDealFailsWhenOnlyWildsRemain(t *testing.T) {
	deck := []Card{
		{ID: "w1", UID: "a", Color: Wild, Value: "W", Type: TypeWild},
		{ID: "w3", UID: "b", Color: Wild, Value: "+4", Type: TypeWild},
		{ID: "w9", UID: "c", Color: Wild, Value: "⊘", Type: TypeWild},
	}
	if _, _, _, _, err := Deal(deck, 0); err == nil {
		t.Fatal("expected error when no non-wild start card exists")
	}
}

func TestDealRejectsTinyDeck(t *testing.T) {
	deck := NewDeck(3)[:10]
	if _, _, _, _, err := Deal(deck, 7); err == nil {
		t.Fatal("expected error dealing from a deck smaller than two hands")
	}
}

func TestCatalogHasAllCardKinds(t *testing.T) {
	kinds := make(map[CardType]int)
	effects := make(map[Effect]int)
	for _, c := range Catalog {
		kinds[c.Type]++
		if c.Type == TypeWild {
			effects[c.Effect]++
		}
		if c.Type == TypeWild && c.Color != Wild {
			t.Errorf("wild card %s has color %s", c.ID, c.Color)
		}
		if c.Type != TypeWild && c.Color == Wild {
			t.Errorf("non-wild card %s has wild color", c.ID)
		}
	}
	if kinds[TypeTask] == 0 || kinds[TypeWild] == 0 || kinds[TypePlain] == 0 {
		t.Errorf("catalog missing a card kind: %v", kinds)
	}
	for _, e := range []Effect{EffectColor, EffectDraw4, EffectSkip, EffectSwap1, EffectSwap2} {
		if effects[e] != 1 {
			t.Errorf("expected exactly one wild with effect %q, got %d", e, effects[e])
		}
	}
}
