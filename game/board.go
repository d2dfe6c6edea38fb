package game

import (
	"strconv"
	"strings"
)

const (
	// TargetBoardSize is the face-up card count the board refills toward.
	TargetBoardSize = 12

	// DealBatch is how many extra cards are dealt when no set is present.
	DealBatch = 3
)

// SetOutcome classifies a claimed triple against the current board.
type SetOutcome int

const (
	// SetAccepted: all three cards are on the board and form a valid set.
	SetAccepted SetOutcome = iota
	// SetRejected: all three cards are on the board but do not form a set.
	SetRejected
	// SetNotOnBoard: at least one claimed card is not face up. This is a
	// client/server state divergence, not a normal game outcome.
	SetNotOnBoard
)

// Board holds the face-up cards of one running game, backed by its deck.
type Board struct {
	cards []Card
	deck  *Deck
}

// NewBoard wraps a deck; no cards are dealt until DealUntilSetOrTwelve.
func NewBoard(deck *Deck) *Board {
	return &Board{deck: deck}
}

// DealUntilSetOrTwelve refills the board to twelve cards and then keeps
// dealing in batches of three until at least one valid set is present.
// It returns false when the deck is exhausted and no set exists, which
// ends the game.
func (b *Board) DealUntilSetOrTwelve() bool {
	if len(b.cards) < TargetBoardSize {
		b.cards = append(b.cards, b.deck.Draw(TargetBoardSize-len(b.cards))...)
	}
	for !b.HasSet() {
		if b.deck.Empty() {
			return false
		}
		b.cards = append(b.cards, b.deck.Draw(DealBatch)...)
	}
	return true
}

// HasSet scans all C(n,3) triples for a valid set.
func (b *Board) HasSet() bool {
	n := len(b.cards)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if IsSet(b.cards[i], b.cards[j], b.cards[k]) {
					return true
				}
			}
		}
	}
	return false
}

// TestAndRemove classifies the claimed triple. On acceptance the three
// cards are removed; the caller decides when to replenish.
func (b *Board) TestAndRemove(c1, c2, c3 Card) SetOutcome {
	if !b.contains(c1) || !b.contains(c2) || !b.contains(c3) {
		return SetNotOnBoard
	}
	if !IsSet(c1, c2, c3) {
		return SetRejected
	}
	b.remove(c1)
	b.remove(c2)
	b.remove(c3)
	return SetAccepted
}

func (b *Board) contains(c Card) bool {
	for _, card := range b.cards {
		if card == c {
			return true
		}
	}
	return false
}

func (b *Board) remove(c Card) {
	for i, card := range b.cards {
		if card == c {
			b.cards = append(b.cards[:i], b.cards[i+1:]...)
			return
		}
	}
}

// Size returns the number of face-up cards.
func (b *Board) Size() int {
	return len(b.cards)
}

// Cards returns a copy of the face-up cards in board order.
func (b *Board) Cards() []Card {
	out := make([]Card, len(b.cards))
	copy(out, b.cards)
	return out
}

// DeckRemaining returns the number of undealt cards.
func (b *Board) DeckRemaining() int {
	return b.deck.Remaining()
}

// Encode renders the board as comma-separated card indices for the wire.
func (b *Board) Encode() string {
	parts := make([]string, len(b.cards))
	for i, c := range b.cards {
		parts[i] = strconv.Itoa(int(c))
	}
	return strings.Join(parts, ",")
}
