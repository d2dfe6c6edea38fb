// Package game implements the Set rule engine: the 81-card attribute space,
// set validation, board replenishment, per-room scoring and the room state
// machine that ties them together.
package game

import (
	"math/rand"
)

const (
	// NumAttributes is the number of independent card attributes
	// (count, color, shape, shading).
	NumAttributes = 4

	// NumValues is the number of values each attribute can take.
	NumValues = 3

	// DeckSize is the full card universe: 3^4 distinct combinations.
	DeckSize = 81
)

// Card identifies one of the 81 cards by index. The four base-3 digits of
// the index are the attribute values, so two cards are equal iff their
// indices are equal and every combination occurs exactly once in a deck.
type Card int

// Valid reports whether c addresses a card in the universe.
func (c Card) Valid() bool {
	return c >= 0 && c < DeckSize
}

// Attr returns the value (0..2) of attribute i.
func (c Card) Attr(i int) int {
	v := int(c)
	for ; i > 0; i-- {
		v /= NumValues
	}
	return v % NumValues
}

// IsSet reports whether the triple forms a valid set: for every attribute
// the three values are either all identical or pairwise distinct.
func IsSet(a, b, c Card) bool {
	if a == b || a == c || b == c {
		return false
	}
	for i := 0; i < NumAttributes; i++ {
		va, vb, vc := a.Attr(i), b.Attr(i), c.Attr(i)
		allSame := va == vb && vb == vc
		allDiff := va != vb && va != vc && vb != vc
		if !allSame && !allDiff {
			return false
		}
	}
	return true
}

// Deck is the draw pile: the card universe minus everything already dealt,
// drawn without replacement in an order randomized once at construction.
type Deck struct {
	cards []Card
}

// NewDeck returns a freshly shuffled 81-card deck.
func NewDeck() *Deck {
	cards := make([]Card, DeckSize)
	for i := range cards {
		cards[i] = Card(i)
	}
	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards}
}

// newDeckFrom builds a deck with a fixed draw order, for tests.
func newDeckFrom(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns up to n cards from the top of the deck.
func (d *Deck) Draw(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	drawn := d.cards[:n]
	d.cards = d.cards[n:]
	return drawn
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Empty reports whether the deck is exhausted.
func (d *Deck) Empty() bool {
	return len(d.cards) == 0
}
