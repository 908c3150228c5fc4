package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridduel/gridduel-backend/internal/config"
	"github.com/gridduel/gridduel-backend/internal/entity"
)

type gameService interface {
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	ForceComplete(ctx context.Context, gameID, winnerID string) (*entity.Game, error)
}

type gameIndex interface {
	ActiveGameIDs(ctx context.Context) ([]string, error)
}

type matchRegistry interface {
	ClearPlayerMatches(ctx context.Context, playerID string)
}

// Sweeper closes abandoned games on two cadences: a stale cycle keyed off
// the time since the last move, and a hard cycle that caps a game's total
// lifetime regardless of activity.
type Sweeper struct {
	logger *slog.Logger
	cfg    config.Sweeper

	games    gameService
	index    gameIndex
	registry matchRegistry

	now func() time.Time
}

func New(logger *slog.Logger, cfg config.Sweeper, games gameService, index gameIndex, registry matchRegistry) *Sweeper {
	return &Sweeper{
		logger:   logger,
		cfg:      cfg,
		games:    games,
		index:    index,
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is cancelled, firing the two sweep cycles on their
// configured intervals.
func (that *Sweeper) Run(ctx context.Context) {
	staleTicker := time.NewTicker(that.cfg.StaleInterval)
	defer staleTicker.Stop()

	hardTicker := time.NewTicker(that.cfg.HardInterval)
	defer hardTicker.Stop()

	that.logger.Info("sweeper started",
		"staleAfter", that.cfg.StaleAfter, "hardAfter", that.cfg.HardAfter)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("sweeper stopped")
			return
		case <-staleTicker.C:
			that.SweepStale(ctx)
		case <-hardTicker.C:
			that.SweepHard(ctx)
		}
	}
}

// SweepStale forfeits games whose current player has sat on the turn past
// StaleAfter: the waiting opponent wins.
func (that *Sweeper) SweepStale(ctx context.Context) {
	that.sweep(ctx, that.cfg.StaleAfter, func(game *entity.Game) time.Time {
		return game.UpdatedAt
	})
}

// SweepHard closes games older than HardAfter outright, measured from the
// last move or, failing a usable timestamp, from creation.
func (that *Sweeper) SweepHard(ctx context.Context) {
	that.sweep(ctx, that.cfg.HardAfter, func(game *entity.Game) time.Time {
		if game.UpdatedAt.IsZero() {
			return game.CreatedAt
		}
		return game.UpdatedAt
	})
}

func (that *Sweeper) sweep(ctx context.Context, cutoff time.Duration, lastSeen func(*entity.Game) time.Time) {
	ids, err := that.index.ActiveGameIDs(ctx)
	if err != nil {
		that.logger.Error("failed to list active games", "error", err)
		return
	}

	now := that.now()

	for _, id := range ids {
		targetGame, err := that.games.GetGameByID(ctx, id)
		if err != nil {
			that.logger.Error("failed to load game", "gameID", id, "error", err)
			continue
		}

		if !targetGame.IsActive() || now.Sub(lastSeen(targetGame)) < cutoff {
			continue
		}

		// the player who let the clock run out forfeits
		winnerID := targetGame.OpponentOf(targetGame.CurrentPlayerID)

		if _, err = that.games.ForceComplete(ctx, id, winnerID); err != nil {
			that.logger.Error("failed to complete abandoned game", "gameID", id, "error", err)
			continue
		}

		for _, playerID := range targetGame.PlayerIDs {
			that.registry.ClearPlayerMatches(ctx, playerID)
		}

		that.logger.Info("abandoned game swept", "gameID", id, "winnerID", winnerID)
	}
}
