package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/testing/suite"
)

func TestGameRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	// Given: a fresh game between two players
	game := entity.NewGame("123", []string{"alice", "bob"})

	// When: Save is called
	err := gameRepo.Save(ctx, game)

	// Then: no error should be returned, and game is stored
	require.NoError(t, err)
}

func TestGameRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: a saved game with an occupied board cell
		game := entity.NewGame("123", []string{"alice", "bob"})
		require.NoError(t, game.Board.PlaceCard(entity.Position{X: 2, Y: 4}, "card-1"))

		err := gameRepo.Save(ctx, game)
		require.NoError(t, err)

		// When: GetByID is called with existing ID
		retrievedGame, err := gameRepo.GetByID(ctx, game.ID)

		// Then: the retrieved game should match the saved game
		require.NoError(t, err)
		require.Equal(t, game.ID, retrievedGame.ID)
		require.Equal(t, game.State, retrievedGame.State)
		require.Equal(t, game.PlayerIDs, retrievedGame.PlayerIDs)

		cardID, occupied := retrievedGame.Board.CardIDAt(entity.Position{X: 2, Y: 4})
		assert.True(t, occupied)
		assert.Equal(t, "card-1", cardID)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// When: GetByID is called with non-existent ID
		_, err := gameRepo.GetByID(ctx, "9999999")

		// Then: an ErrGameNotFound error should be returned
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameRepository_ActiveGameIDs(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage)

	// Given: one active game and one completed game
	active := entity.NewGame("active-1", []string{"alice", "bob"})
	require.NoError(t, gameRepo.Save(ctx, active))

	completed := entity.NewGame("done-1", []string{"carol", "dave"})
	require.NoError(t, gameRepo.Save(ctx, completed))
	completed.State = entity.StateCompleted
	require.NoError(t, gameRepo.Save(ctx, completed))

	// When: the active index is listed
	ids, err := gameRepo.ActiveGameIDs(ctx)

	// Then: only the active game appears
	require.NoError(t, err)
	assert.Equal(t, []string{"active-1"}, ids)
}

func TestGameRepository_LatestActiveByPlayer(t *testing.T) {
	t.Run("LatestActiveByPlayer_PicksMostRecent", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		// Given: two active games for alice with different update times
		older := entity.NewGame("older", []string{"alice", "bob"})
		older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
		require.NoError(t, gameRepo.Save(ctx, older))

		newer := entity.NewGame("newer", []string{"alice", "carol"})
		newer.UpdatedAt = time.Now().UTC()
		require.NoError(t, gameRepo.Save(ctx, newer))

		// When: alice's latest active game is requested
		latest, err := gameRepo.LatestActiveByPlayer(ctx, "alice")

		// Then: the most recently updated one is returned
		require.NoError(t, err)
		assert.Equal(t, "newer", latest.ID)
	})

	t.Run("LatestActiveByPlayer_SkipsCompleted", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		game := entity.NewGame("done", []string{"alice", "bob"})
		require.NoError(t, gameRepo.Save(ctx, game))
		game.State = entity.StateCompleted
		require.NoError(t, gameRepo.Save(ctx, game))

		_, err := gameRepo.LatestActiveByPlayer(ctx, "alice")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("LatestActiveByPlayer_NoGames", func(t *testing.T) {
		ctx, st := suite.New(t)

		gameRepo := NewGameRepository(st.Storage)

		_, err := gameRepo.LatestActiveByPlayer(ctx, "nobody")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}
