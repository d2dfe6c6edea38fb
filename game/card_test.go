package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Equal(t, DeckSize, deck.Remaining())

	seen := make(map[Card]bool)
	for _, c := range deck.Draw(DeckSize) {
		require.True(t, c.Valid())
		require.False(t, seen[c], "card %d drawn twice", c)
		seen[c] = true
	}
	assert.Len(t, seen, DeckSize)
	assert.True(t, deck.Empty())
}

func TestDrawWithoutReplacement(t *testing.T) {
	deck := NewDeck()
	first := deck.Draw(12)
	second := deck.Draw(12)
	assert.Equal(t, DeckSize-24, deck.Remaining())
	for _, c := range second {
		assert.NotContains(t, first, c)
	}
}

// naiveIsSet is the reference predicate from the rules, written attribute
// by attribute without shortcuts.
func naiveIsSet(a, b, c Card) bool {
	if a == b || a == c || b == c {
		return false
	}
	for i := 0; i < NumAttributes; i++ {
		vals := []int{a.Attr(i), b.Attr(i), c.Attr(i)}
		same := vals[0] == vals[1] && vals[1] == vals[2]
		distinct := vals[0] != vals[1] && vals[0] != vals[2] && vals[1] != vals[2]
		if !same && !distinct {
			return false
		}
	}
	return true
}

func TestIsSetMatchesReferencePredicate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 5000; i++ {
		a := Card(rng.Intn(DeckSize))
		b := Card(rng.Intn(DeckSize))
		c := Card(rng.Intn(DeckSize))
		assert.Equal(t, naiveIsSet(a, b, c), IsSet(a, b, c), "cards %d %d %d", a, b, c)
	}
}

func TestIsSetExamples(t *testing.T) {
	// 0,1,2 differ only in the first attribute: a set.
	assert.True(t, IsSet(0, 1, 2))
	// 0,3,6 differ only in the second attribute: a set.
	assert.True(t, IsSet(0, 3, 6))
	// 0,1,5: first attribute all-distinct but second is 0,0,1.
	assert.False(t, IsSet(0, 1, 5))
	// Two cards sharing two attributes with the rest mixed.
	assert.False(t, IsSet(0, 1, 3))
	// Duplicates never form a set.
	assert.False(t, IsSet(7, 7, 12))
}

func TestEveryPairHasExactlyOneCompletion(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		a := Card(rng.Intn(DeckSize))
		b := Card(rng.Intn(DeckSize))
		if a == b {
			continue
		}
		completions := 0
		for c := Card(0); c < DeckSize; c++ {
			if c != a && c != b && IsSet(a, b, c) {
				completions++
			}
		}
		assert.Equal(t, 1, completions, "pair %d %d", a, b)
	}
}
