package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/service"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

type memGameRepo struct {
	games map[string]*entity.Game
}

func (that *memGameRepo) Save(_ context.Context, game *entity.Game) error {
	that.games[game.ID] = game
	return nil
}

func (that *memGameRepo) GetByID(_ context.Context, id string) (*entity.Game, error) {
	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}
	return game, nil
}

func (that *memGameRepo) LatestActiveByPlayer(_ context.Context, playerID string) (*entity.Game, error) {
	for _, game := range that.games {
		if game.IsActive() && game.HasPlayer(playerID) {
			return game, nil
		}
	}
	return nil, apperror.ErrGameNotFound
}

type memPlayerRepo struct {
	players map[string]*entity.Player
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.players[player.ID] = player
	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	player, ok := that.players[id]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}
	return player, nil
}

type memDeckRepo struct {
	decks map[string]*entity.Deck
}

func (that *memDeckRepo) CreateOrUpdate(_ context.Context, deck *entity.Deck) error {
	that.decks[deck.ID] = deck
	return nil
}

func (that *memDeckRepo) GetByID(_ context.Context, id string) (*entity.Deck, error) {
	deck, ok := that.decks[id]
	if !ok {
		return nil, apperror.ErrDeckNotFound
	}
	return deck, nil
}

func (that *memDeckRepo) GetByOwner(_ context.Context, ownerID string) ([]*entity.Deck, error) {
	var out []*entity.Deck
	for _, deck := range that.decks {
		if deck.OwnerID == ownerID {
			out = append(out, deck)
		}
	}
	return out, nil
}

type fixture struct {
	registry      *Registry
	playerService service.PlayerService
	deckService   service.DeckService
	gameService   service.GameService

	host      *entity.Player
	guest     *entity.Player
	hostDeck  *entity.Deck
	guestDeck *entity.Deck
}

func newFixture(t *testing.T, ctx context.Context) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	playerService := service.NewPlayerService(&memPlayerRepo{players: make(map[string]*entity.Player)})
	deckService := service.NewDeckService(&memDeckRepo{decks: make(map[string]*entity.Deck)})
	gameService := service.NewGameService(logger, &memGameRepo{games: make(map[string]*entity.Game)}, playerService, deckService)

	host, err := playerService.CreatePlayer(ctx, "host")
	require.NoError(t, err)
	guest, err := playerService.CreatePlayer(ctx, "guest")
	require.NoError(t, err)

	makeDeck := func(ownerID string) *entity.Deck {
		cards := make([]entity.Card, 0, entity.DeckSize)
		for i := 0; i < entity.DeckSize; i++ {
			cards = append(cards, entity.Card{ID: identifier.New(), Power: i%10 + 1})
		}
		deck, err := deckService.CreateDeck(ctx, ownerID, cards)
		require.NoError(t, err)
		return deck
	}

	return &fixture{
		registry:      New(logger, gameService, deckService),
		playerService: playerService,
		deckService:   deckService,
		gameService:   gameService,
		host:          host,
		guest:         guest,
		hostDeck:      makeDeck(host.ID),
		guestDeck:     makeDeck(guest.ID),
	}
}

// backdate ages a match past the creation guard so cleanup paths apply.
func (that *fixture) backdate(code string) {
	that.registry.mu.Lock()
	defer that.registry.mu.Unlock()

	if match, ok := that.registry.matches[code]; ok {
		match.CreatedAt = time.Now().UTC().Add(-time.Minute)
	}
}

func TestRegistry_CreateMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateMatch_Success", func(t *testing.T) {
		f := newFixture(t, ctx)

		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)

		require.NoError(t, err)
		assert.Equal(t, MatchWaiting, match.State)
		assert.Equal(t, f.host.ID, match.HostID)
		assert.Len(t, match.Code, 6)
		assert.True(t, f.registry.IsMatchWaiting(match.Code))
	})

	t.Run("CreateMatch_EvictsPreviousWaitingMatch", func(t *testing.T) {
		f := newFixture(t, ctx)

		first, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// When: the host opens a second invitation
		second, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// Then: only the newest one survives
		_, err = f.registry.Match(first.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
		assert.True(t, f.registry.IsMatchWaiting(second.Code))
	})

	t.Run("CreateMatch_EvictsFinishedSubscriptions", func(t *testing.T) {
		f := newFixture(t, ctx)
		old, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// Given: the host's previous match ran to completion long ago
		_, oldGame, err := f.registry.JoinMatch(ctx, old.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)
		_, err = f.gameService.ForceComplete(ctx, oldGame.ID, f.guest.ID)
		require.NoError(t, err)
		f.backdate(old.Code)

		// When: the host opens a fresh invitation
		fresh, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// Then: the finished entry no longer lingers in the registry
		_, err = f.registry.Match(old.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
		assert.True(t, f.registry.IsMatchWaiting(fresh.Code))
	})

	t.Run("CreateMatch_FallsBackToOwnDeck", func(t *testing.T) {
		f := newFixture(t, ctx)

		// When: the host passes no deck id at all
		match, err := f.registry.CreateMatch(ctx, f.host.ID, "")

		// Then: the host's own complete deck is used
		require.NoError(t, err)
		assert.Equal(t, f.hostDeck.ID, match.HostDeckID)
	})

	t.Run("CreateMatch_NoUsableDeck", func(t *testing.T) {
		f := newFixture(t, ctx)

		stranger, err := f.playerService.CreatePlayer(ctx, "stranger")
		require.NoError(t, err)

		_, err = f.registry.CreateMatch(ctx, stranger.ID, "")

		require.ErrorIs(t, err, apperror.ErrDeckUnavailable)
	})
}

func TestRegistry_JoinMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("JoinMatch_StartsGame", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// When: the guest joins with their own deck
		joined, newGame, err := f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)

		// Then: the match runs a live game for both players
		require.NoError(t, err)
		assert.Equal(t, MatchInProgress, joined.State)
		assert.Equal(t, newGame.ID, joined.GameID)
		assert.True(t, newGame.IsInProgress())
		assert.True(t, newGame.HasPlayer(f.host.ID))
		assert.True(t, newGame.HasPlayer(f.guest.ID))
	})

	t.Run("JoinMatch_UnknownCode", func(t *testing.T) {
		f := newFixture(t, ctx)

		_, _, err := f.registry.JoinMatch(ctx, "NOCODE", f.guest.ID, f.guestDeck.ID)

		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("JoinMatch_SecondJoinerRejected", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, _, err = f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)

		third, err := f.playerService.CreatePlayer(ctx, "third")
		require.NoError(t, err)

		_, _, err = f.registry.JoinMatch(ctx, match.Code, third.ID, "")

		require.ErrorIs(t, err, apperror.ErrMatchAlreadyStarted)
	})

	t.Run("JoinMatch_OwnMatchRejected", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, _, err = f.registry.JoinMatch(ctx, match.Code, f.host.ID, f.hostDeck.ID)

		require.ErrorIs(t, err, apperror.ErrMatchAlreadyStarted)
	})

	t.Run("JoinMatch_FailedInitRevertsClaim", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// Given: the host's deck vanishes before the game can start
		f.registry.matches[match.Code].HostDeckID = "vanished"

		_, _, err = f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.Error(t, err)

		// Then: the seat opens up again
		assert.True(t, f.registry.IsMatchWaiting(match.Code))
	})
}

func TestRegistry_ClearPlayerMatches(t *testing.T) {
	ctx := context.Background()

	t.Run("ClearPlayerMatches_RespectsCreationGuard", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		// When: a clear arrives right after creation
		f.registry.ClearPlayerMatches(ctx, f.host.ID)

		// Then: the fresh match survives the race window
		assert.True(t, f.registry.IsMatchWaiting(match.Code))

		// When: the match is old enough
		f.backdate(match.Code)

		f.registry.ClearPlayerMatches(ctx, f.host.ID)

		// Then: it is gone
		_, err = f.registry.Match(match.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("ClearPlayerMatches_KeepsRunningMatch", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, newGame, err := f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)
		f.backdate(match.Code)

		// When: the guest clears their matches mid-game
		f.registry.ClearPlayerMatches(ctx, f.guest.ID)

		// Then: the match stays routable and the game is untouched
		kept, err := f.registry.Match(match.Code)
		require.NoError(t, err)
		assert.Equal(t, MatchInProgress, kept.State)

		live, err := f.gameService.GetGameByID(ctx, newGame.ID)
		require.NoError(t, err)
		assert.True(t, live.IsInProgress())
	})

	t.Run("ClearPlayerMatches_DropsFinishedMatch", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, newGame, err := f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)

		// Given: the backing game has already ended
		_, err = f.gameService.ForceComplete(ctx, newGame.ID, f.host.ID)
		require.NoError(t, err)
		f.backdate(match.Code)

		f.registry.ClearPlayerMatches(ctx, f.guest.ID)

		_, err = f.registry.Match(match.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}

func TestRegistry_HandleLeave(t *testing.T) {
	ctx := context.Background()

	t.Run("Leave_ForfeitsRunningGame", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, newGame, err := f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)

		// When: the guest explicitly leaves
		f.registry.HandleLeave(ctx, f.guest.ID)

		// Then: the host wins by forfeit and the match is marked completed
		finished, err := f.gameService.GetGameByID(ctx, newGame.ID)
		require.NoError(t, err)
		assert.True(t, finished.IsCompleted())
		assert.Equal(t, f.host.ID, finished.WinnerID)

		settled, err := f.registry.Match(match.Code)
		require.NoError(t, err)
		assert.Equal(t, MatchCompleted, settled.State)

		// Then: once past the creation guard, a later clear releases the entry
		f.backdate(match.Code)
		f.registry.ClearPlayerMatches(ctx, f.host.ID)

		_, err = f.registry.Match(match.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}

func TestRegistry_HandleDisconnection(t *testing.T) {
	ctx := context.Background()

	t.Run("Disconnection_KeepsRunningGameAlive", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, newGame, err := f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)

		// When: the guest's socket drops
		f.registry.HandleDisconnection(f.guest.ID)

		// Then: the game keeps running, waiting for a reconnect or the sweeper
		live, err := f.gameService.GetGameByID(ctx, newGame.ID)
		require.NoError(t, err)
		assert.True(t, live.IsInProgress())

		kept, err := f.registry.Match(match.Code)
		require.NoError(t, err)
		assert.Equal(t, MatchInProgress, kept.State)
		assert.Contains(t, kept.Disconnected, f.guest.ID)
	})

	t.Run("Disconnection_ReconnectClearsTheRecord", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		_, _, err = f.registry.JoinMatch(ctx, match.Code, f.guest.ID, f.guestDeck.ID)
		require.NoError(t, err)

		f.registry.HandleDisconnection(f.guest.ID)
		f.registry.MarkReconnected(match.Code, f.guest.ID)

		kept, err := f.registry.Match(match.Code)
		require.NoError(t, err)
		assert.NotContains(t, kept.Disconnected, f.guest.ID)
	})

	t.Run("Disconnection_DropsWaitingMatch", func(t *testing.T) {
		f := newFixture(t, ctx)
		match, err := f.registry.CreateMatch(ctx, f.host.ID, f.hostDeck.ID)
		require.NoError(t, err)

		f.registry.HandleDisconnection(f.host.ID)

		_, err = f.registry.Match(match.Code)
		require.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}
