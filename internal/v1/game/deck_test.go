package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRoles(cards []Role) map[Role]int {
	counts := make(map[Role]int)
	for _, c := range cards {
		counts[c]++
	}
	return counts
}

func TestNewDeck_FullCourt(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))

	assert.Equal(t, 15, d.Size())
	counts := countRoles(d.cards)
	for _, role := range Roles {
		assert.Equal(t, 3, counts[role], "expected three copies of %s", role)
	}
}

func TestDeck_DrawReduces(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))

	card, ok := d.Draw()
	require.True(t, ok)
	assert.True(t, ValidRole(string(card)))
	assert.Equal(t, 14, d.Size())
}

func TestDeck_DrawEmpty(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	for i := 0; i < 15; i++ {
		_, ok := d.Draw()
		require.True(t, ok)
	}

	_, ok := d.Draw()
	assert.False(t, ok)
}

func TestDeck_ReturnPreservesMultiset(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(7)))

	card, ok := d.Draw()
	require.True(t, ok)
	d.Return(card)

	assert.Equal(t, 15, d.Size())
	counts := countRoles(d.cards)
	for _, role := range Roles {
		assert.Equal(t, 3, counts[role])
	}
}

func TestDeck_ReturnAll(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(7)))

	var drawn []Role
	for i := 0; i < 4; i++ {
		card, ok := d.Draw()
		require.True(t, ok)
		drawn = append(drawn, card)
	}
	require.Equal(t, 11, d.Size())

	d.ReturnAll(drawn)
	assert.Equal(t, 15, d.Size())

	// No-op return should not reshuffle or grow the deck.
	before := append([]Role(nil), d.cards...)
	d.ReturnAll(nil)
	assert.Equal(t, before, d.cards)
}

func TestDeck_ShufflePreservesMultiset(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(42)))
	before := countRoles(d.cards)

	for i := 0; i < 10; i++ {
		d.Shuffle()
	}

	assert.Equal(t, before, countRoles(d.cards))
}

func TestValidRole(t *testing.T) {
	for _, role := range Roles {
		assert.True(t, ValidRole(string(role)))
	}
	assert.False(t, ValidRole("Jester"))
	assert.False(t, ValidRole(""))
}
