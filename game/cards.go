package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Color is a card color. Spark matching compares against these.
type Color string

const (
	Joy     Color = "joy"
	Passion Color = "passion"
	Care    Color = "care"
	Growth  Color = "growth"
	Wild    Color = "wild"
)

// Colors lists the four pickable (non-wild) colors.
var Colors = []Color{Joy, Passion, Care, Growth}

// CardType distinguishes how a card resolves when played.
type CardType string

const (
	TypeTask  CardType = "task"
	TypeWild  CardType = "wild"
	TypePlain CardType = "plain"
)

// Effect is a wild card's effect.
type Effect string

const (
	EffectNone  Effect = ""
	EffectColor Effect = "color"
	EffectDraw4 Effect = "draw4"
	EffectSkip  Effect = "skip"
	EffectSwap1 Effect = "swap1"
	EffectSwap2 Effect = "swap2"
)

// Card is a card template; a dealt card additionally carries a UID that
// distinguishes it from the other instances of the same template.
// Values are matched by exact string equality ("+4" and "4" are distinct).
type Card struct {
	ID     string   `json:"id"`
	UID    string   `json:"uid,omitempty"`
	Color  Color    `json:"color"`
	Value  string   `json:"value"`
	Title  string   `json:"title"`
	Text   string   `json:"text,omitempty"`
	Type   CardType `json:"type"`
	Effect Effect   `json:"effect,omitempty"`
}

// IsWild reports whether the card is a wild card.
func (c Card) IsWild() bool { return c.Color == Wild }

// Catalog is the fixed set of card templates. The deck holds DeckCopies
// instances of each.
var Catalog = []Card{
	// Joy
	{ID: "j1", Color: Joy, Value: "1", Title: "DANCE", Text: "DO YOUR BEST DANCE MOVE FOR 10 SECONDS. ASK THEM TO REPEAT. IF THEY GET IT WRONG THEY DRAW 2 CARDS, IF THEY GET IT RIGHT YOU DRAW 2 CARDS.", Type: TypeTask},
	{ID: "j2", Color: Joy, Value: "2", Title: "SING & DANCE", Text: "PLAY YOUR FAVORITE SONG AND SING IT TO ME WHILE STARING INTO MY EYES FOR 20 SECONDS OR DRAW 2 CARDS.", Type: TypeTask},
	{ID: "j4", Color: Joy, Value: "4", Title: "MEMORY", Text: "ASK THEM WHEN THEY STARTED LIKING YOU AND WHAT YOU DID RIGHT OR WRONG.", Type: TypeTask},
	{ID: "j6", Color: Joy, Value: "6", Title: "ACT", Text: "MAKE ME LAUGH IN 10 SECONDS OR DRAW 2 CARDS.", Type: TypeTask},
	{ID: "j3", Color: Joy, Value: "3", Title: "JOY", Type: TypePlain},
	{ID: "j5", Color: Joy, Value: "5", Title: "JOY", Type: TypePlain},
	{ID: "j7", Color: Joy, Value: "7", Title: "JOY", Type: TypePlain},

	// Passion
	{ID: "p2", Color: Passion, Value: "2", Title: "LIPS", Text: "KISS ME FOR 30 SECONDS WITHOUT OPENING YOUR EYES.", Type: TypeTask},
	{ID: "p7", Color: Passion, Value: "7", Title: "INTIMATE", Text: "GIVE ME YOUR FULL ATTENTION FOR 3 MINUTES. IF YOU LOOK AWAY, DRAW 2.", Type: TypeTask},
	{ID: "p1", Color: Passion, Value: "1", Title: "PASSION", Type: TypePlain},
	{ID: "p3", Color: Passion, Value: "3", Title: "PASSION", Type: TypePlain},
	{ID: "p5", Color: Passion, Value: "5", Title: "PASSION", Type: TypePlain},

	// Care
	{ID: "c4", Color: Care, Value: "4", Title: "HEALTH", Text: "PARTNER MUST DO 10 PUSHUPS, 25 CRUNCHES AND 10 DIPS.", Type: TypeTask},
	{ID: "c1", Color: Care, Value: "1", Title: "CARE", Type: TypePlain},
	{ID: "c2", Color: Care, Value: "2", Title: "CARE", Type: TypePlain},
	{ID: "c7", Color: Care, Value: "7", Title: "CARE", Type: TypePlain},

	// Growth
	{ID: "g1", Color: Growth, Value: "1", Title: "GROWTH", Text: "TELL ME 3 THINGS I DO THAT MAKE YOU UNCOMFORTABLE/COMFORTABLE.", Type: TypeTask},
	{ID: "g3", Color: Growth, Value: "3", Title: "GROWTH", Type: TypePlain},
	{ID: "g5", Color: Growth, Value: "5", Title: "GROWTH", Type: TypePlain},
	{ID: "g6", Color: Growth, Value: "6", Title: "GROWTH", Type: TypePlain},

	// Wild
	{ID: "w1", Color: Wild, Value: "W", Title: "WILD", Text: "CHOOSE THE NEXT COLOR.", Type: TypeWild, Effect: EffectColor},
	{ID: "w3", Color: Wild, Value: "+4", Title: "WILD +4", Text: "OPPONENT DRAWS 4 CARDS & YOU CHOOSE NEXT COLOR.", Type: TypeWild, Effect: EffectDraw4},
	{ID: "w9", Color: Wild, Value: "⊘", Title: "SKIP", Text: "SKIP OPPONENT'S TURN. PLAY AGAIN!", Type: TypeWild, Effect: EffectSkip},
	{ID: "w11", Color: Wild, Value: "⇄2", Title: "SWAP 2", Text: "SWAP 2 RANDOM CARDS WITH YOUR PARTNER.", Type: TypeWild, Effect: EffectSwap2},
	{ID: "w12", Color: Wild, Value: "⇄1", Title: "SWAP 1", Text: "SWAP 1 RANDOM CARD WITH YOUR PARTNER.", Type: TypeWild, Effect: EffectSwap1},
}

// instance returns a dealt copy of a template with a fresh UID.
func instance(tpl Card) Card {
	c := tpl
	c.UID = uuid.NewString()
	return c
}

// NewDeck builds a shuffled draw pile containing every catalog template the
// given number of times. The top of the deck is the end of the slice.
func NewDeck(copies int) []Card {
	deck := make([]Card, 0, copies*len(Catalog))
	for i := 0; i < copies; i++ {
		for _, tpl := range Catalog {
			deck = append(deck, instance(tpl))
		}
	}
	rand.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// Deal removes handSize cards off the top of the deck for each of two hands,
// then pops cards until a non-wild start card is found to seed the discard
// pile. Wild cards popped during the search are requeued at the bottom so
// the total card count is conserved. An exhausted deck is a catalog
// misconfiguration and returns an error rather than looping.
func Deal(deck []Card, handSize int) (hand1, hand2 []Card, start Card, rest []Card, err error) {
	if len(deck) < 2*handSize+1 {
		return nil, nil, Card{}, nil, fmt.Errorf("deck too small to deal: %d cards", len(deck))
	}

	hand1 = append([]Card(nil), deck[len(deck)-handSize:]...)
	deck = deck[:len(deck)-handSize]
	hand2 = append([]Card(nil), deck[len(deck)-handSize:]...)
	deck = deck[:len(deck)-handSize]

	for tries := len(deck); tries > 0; tries-- {
		start = deck[len(deck)-1]
		deck = deck[:len(deck)-1]
		if !start.IsWild() {
			return hand1, hand2, start, deck, nil
		}
		deck = append([]Card{start}, deck...)
	}
	return nil, nil, Card{}, nil, fmt.Errorf("no non-wild start card in a deck of %d", len(deck))
}
