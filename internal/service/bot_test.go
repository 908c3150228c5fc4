package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/game"
)

func botTestGame(t *testing.T) (*entity.Game, *entity.Player) {
	t.Helper()

	testGame := entity.NewGame("game-1", []string{"human", "bot-1"})
	testGame.State = entity.StateInProgress

	bot := &entity.Player{
		ID: "bot-1",
		Hand: []entity.Card{
			{ID: "weak", Power: 1},
			{ID: "mid", Power: 4},
			{ID: "strong", Power: 9},
		},
	}

	opening := entity.Card{ID: "b0", Power: 2}
	require.NoError(t, testGame.Board.PlaceCard(game.StartingPositions[1], opening.ID))
	bot.RecordPlacement(game.StartingPositions[1], opening)

	return testGame, bot
}

func TestBotService_NextAction(t *testing.T) {
	botService := NewBotService()

	t.Run("PrefersMiddleColumnAndMidPower", func(t *testing.T) {
		testGame, bot := botTestGame(t)

		action := botService.NextAction(testGame, bot)

		// Then: the bot reaches for the middle column with a mid-power card
		require.Equal(t, entity.ActionPlaceCard, action.Type)
		require.NotNil(t, action.TargetPosition)
		assert.Equal(t, 1, action.TargetPosition.X)
		assert.Equal(t, "mid", action.Card.ID)
		assert.True(t, game.CanPlaceAt(testGame, bot, *action.TargetPosition))
	})

	t.Run("FallsBackToAnyLegalCell", func(t *testing.T) {
		testGame, bot := botTestGame(t)

		// Given: the middle-column cell next to the bot is blocked
		require.NoError(t, testGame.Board.PlaceCard(entity.Position{X: 1, Y: 0}, "blocker"))

		action := botService.NextAction(testGame, bot)

		require.Equal(t, entity.ActionPlaceCard, action.Type)
		assert.True(t, game.CanPlaceAt(testGame, bot, *action.TargetPosition))
	})

	t.Run("PassesWhenNoLegalPlacement", func(t *testing.T) {
		testGame, bot := botTestGame(t)

		// Given: every cell around the bot's lone card is blocked
		require.NoError(t, testGame.Board.PlaceCard(entity.Position{X: 1, Y: 0}, "blocker-1"))
		require.NoError(t, testGame.Board.PlaceCard(entity.Position{X: 2, Y: 1}, "blocker-2"))

		action := botService.NextAction(testGame, bot)

		require.Equal(t, entity.ActionPass, action.Type)
		assert.Nil(t, action.Card)
	})

	t.Run("PassesOnEmptyHand", func(t *testing.T) {
		testGame, bot := botTestGame(t)
		bot.Hand = nil

		action := botService.NextAction(testGame, bot)

		require.Equal(t, entity.ActionPass, action.Type)
	})
}

func TestIsBotID(t *testing.T) {
	assert.True(t, IsBotID("bot-42"))
	assert.False(t, IsBotID("alice"))
	assert.False(t, IsBotID(""))
}
