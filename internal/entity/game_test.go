package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGame_TurnHandling(t *testing.T) {
	// Given: a fresh game between two players
	game := NewGame("game-1", []string{"alice", "bob"})

	// Then: the first listed player moves first
	require.Equal(t, "alice", game.CurrentPlayerID)
	assert.True(t, game.IsInitialized())
	assert.True(t, game.IsActive())

	// When: the turn switches twice
	game.SwitchTurn()
	assert.Equal(t, "bob", game.CurrentPlayerID)

	game.SwitchTurn()
	assert.Equal(t, "alice", game.CurrentPlayerID)
}

func TestGame_OpponentOf(t *testing.T) {
	game := NewGame("game-1", []string{"alice", "bob"})

	assert.Equal(t, "bob", game.OpponentOf("alice"))
	assert.Equal(t, "alice", game.OpponentOf("bob"))
	assert.Empty(t, game.OpponentOf("mallory"))

	assert.True(t, game.HasPlayer("alice"))
	assert.False(t, game.HasPlayer("mallory"))
}

func TestPlayer_Hand(t *testing.T) {
	t.Run("RemoveFromHand_PreservesOrder", func(t *testing.T) {
		player := &Player{
			ID:   "alice",
			Hand: []Card{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		}

		card, ok := player.RemoveFromHand("b")

		require.True(t, ok)
		assert.Equal(t, "b", card.ID)
		assert.Equal(t, []Card{{ID: "a"}, {ID: "c"}}, player.Hand)
	})

	t.Run("RemoveFromHand_Missing", func(t *testing.T) {
		player := &Player{ID: "alice", Hand: []Card{{ID: "a"}}}

		_, ok := player.RemoveFromHand("z")

		require.False(t, ok)
		assert.Len(t, player.Hand, 1)
	})
}

func TestPlayer_RecordPlacement(t *testing.T) {
	player := &Player{ID: "alice"}

	// When: two cards are placed
	player.RecordPlacement(Position{X: 2, Y: 4}, Card{ID: "a", Power: 3})
	player.RecordPlacement(Position{X: 2, Y: 3}, Card{ID: "b", Power: 7})

	// Then: the running score is the sum of placed powers
	require.Equal(t, 10, player.Score)
	assert.True(t, player.OwnsPlacedCard("a"))
	assert.True(t, player.OwnsPlacedCard("b"))
	assert.False(t, player.OwnsPlacedCard("c"))
}

func TestPlayer_ResetGameState(t *testing.T) {
	// Given: a player mid-game playing a copied deck
	player := &Player{
		ID:             "alice",
		CurrentDeckID:  "deck-copy",
		OriginalDeckID: "deck-original",
		Hand:           []Card{{ID: "a"}},
		Score:          12,
	}
	player.RecordPlacement(Position{X: 2, Y: 4}, Card{ID: "b", Power: 5})

	// When: the game ends
	player.ResetGameState()

	// Then: the original deck reference is restored and game state cleared
	require.Equal(t, "deck-original", player.CurrentDeckID)
	assert.Empty(t, player.OriginalDeckID)
	assert.Empty(t, player.Hand)
	assert.Empty(t, player.PlacedCards)
	assert.Zero(t, player.Score)
}

func TestDeck_Draw(t *testing.T) {
	deck := &Deck{ID: "deck-1", OwnerID: "alice"}
	for i := 0; i < DeckSize; i++ {
		deck.Cards = append(deck.Cards, Card{ID: string(rune('a' + i)), Power: i + 1})
	}
	require.True(t, deck.IsComplete())

	// When: the opening hand is drawn
	drawn := deck.Draw(HandSize)

	// Then: the top cards leave the deck in order
	require.Len(t, drawn, HandSize)
	assert.Equal(t, "a", drawn[0].ID)
	assert.Equal(t, DeckSize-HandSize, deck.RemainingCards)
	assert.False(t, deck.IsComplete())

	// When: more cards are requested than remain
	rest := deck.Draw(DeckSize)

	// Then: only the remainder is returned
	require.Len(t, rest, DeckSize-HandSize)
	assert.Zero(t, deck.RemainingCards)
}
