package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedCards returns the universe in index order.
func orderedCards() []Card {
	cards := make([]Card, DeckSize)
	for i := range cards {
		cards[i] = Card(i)
	}
	return cards
}

// capPrefix greedily collects cards that form no set with any pair already
// chosen, producing a deck prefix guaranteed to be set-free.
func capPrefix(limit int) []Card {
	var cap []Card
	for c := Card(0); c < DeckSize && len(cap) < limit; c++ {
		ok := true
		for i := 0; i < len(cap) && ok; i++ {
			for j := i + 1; j < len(cap) && ok; j++ {
				if IsSet(cap[i], cap[j], c) {
					ok = false
				}
			}
		}
		if ok {
			cap = append(cap, c)
		}
	}
	return cap
}

func deckWithout(prefix []Card) []Card {
	used := make(map[Card]bool, len(prefix))
	for _, c := range prefix {
		used[c] = true
	}
	out := append([]Card{}, prefix...)
	for _, c := range orderedCards() {
		if !used[c] {
			out = append(out, c)
		}
	}
	return out
}

func TestDealNeverLeavesSetlessBoardWithCardsRemaining(t *testing.T) {
	for trial := 0; trial < 25; trial++ {
		board := NewBoard(NewDeck())
		playable := board.DealUntilSetOrTwelve()
		require.True(t, playable, "a full deck always holds a set somewhere")
		assert.True(t, board.HasSet())
		assert.GreaterOrEqual(t, board.Size(), TargetBoardSize)
		assert.Equal(t, DeckSize, board.Size()+board.DeckRemaining())
	}
}

func TestDealExtendsPastTwelveWhenNoSetAmongFirstTwelve(t *testing.T) {
	prefix := capPrefix(TargetBoardSize)
	if len(prefix) < TargetBoardSize {
		t.Skipf("greedy cap construction only reached %d cards", len(prefix))
	}
	board := NewBoard(newDeckFrom(deckWithout(prefix)))
	require.True(t, board.DealUntilSetOrTwelve())
	assert.Greater(t, board.Size(), TargetBoardSize)
	assert.True(t, board.HasSet())
}

func TestTestAndRemoveOutcomes(t *testing.T) {
	board := NewBoard(newDeckFrom(orderedCards()))
	require.True(t, board.DealUntilSetOrTwelve())
	require.Equal(t, TargetBoardSize, board.Size()) // 0..11 contain sets

	// 0,1,2 differ only in the first attribute.
	assert.Equal(t, SetAccepted, board.TestAndRemove(0, 1, 2))
	assert.Equal(t, TargetBoardSize-3, board.Size())
	assert.NotContains(t, board.Cards(), Card(0))

	// Replenish back to twelve from the deck.
	require.True(t, board.DealUntilSetOrTwelve())
	assert.Equal(t, TargetBoardSize, board.Size())

	// 3,4,6 are on the board but mix attribute values.
	require.False(t, IsSet(3, 4, 6))
	assert.Equal(t, SetRejected, board.TestAndRemove(3, 4, 6))
	assert.Equal(t, TargetBoardSize, board.Size())

	// Card 0 was removed above; claiming it again is a state divergence.
	assert.Equal(t, SetNotOnBoard, board.TestAndRemove(0, 1, 2))
	assert.Equal(t, TargetBoardSize, board.Size())
}

func TestGameOverWhenDeckExhaustedAndNoSet(t *testing.T) {
	// A three-card deck forming one set: play it out.
	board := NewBoard(newDeckFrom([]Card{0, 1, 2}))
	require.True(t, board.DealUntilSetOrTwelve())
	require.Equal(t, 3, board.Size())

	require.Equal(t, SetAccepted, board.TestAndRemove(0, 1, 2))
	assert.False(t, board.DealUntilSetOrTwelve(), "empty deck and empty board ends the game")
}

func TestEncode(t *testing.T) {
	board := NewBoard(newDeckFrom([]Card{5, 17, 80}))
	board.DealUntilSetOrTwelve()
	enc := board.Encode()
	assert.Equal(t, 3, len(strings.Split(enc, ",")))
	assert.Contains(t, enc, "80")
}
