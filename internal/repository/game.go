package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
)

const (
	gameKeyPrefix     = "game:"
	activeGamesKey    = "games:active"
	playerGamesPrefix = "games:active:player:"
)

type GameRepository interface {
	Save(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	ActiveGameIDs(ctx context.Context) ([]string, error)
	LatestActiveByPlayer(ctx context.Context, playerID string) (*entity.Game, error)
}

type dbGame struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &dbGame{
		client: client,
	}
}

// Save stores the game and keeps the active-game indexes in step: while the
// game is active it is a member of the global active set and of each
// participant's recency-ordered set; once completed it leaves both.
func (that *dbGame) Save(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	gameKey := gameKeyPrefix + game.ID
	if err = that.client.Set(ctx, gameKey, gameJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if game.IsActive() {
		member := redis.Z{Score: float64(game.UpdatedAt.Unix()), Member: game.ID}

		if err = that.client.ZAdd(ctx, activeGamesKey, member).Err(); err != nil {
			return fmt.Errorf("failed to index active game: %w", err)
		}

		for _, playerID := range game.PlayerIDs {
			if err = that.client.ZAdd(ctx, playerGamesPrefix+playerID, member).Err(); err != nil {
				return fmt.Errorf("failed to index active game for player: %w", err)
			}
		}

		return nil
	}

	if err = that.client.ZRem(ctx, activeGamesKey, game.ID).Err(); err != nil {
		return fmt.Errorf("failed to drop game from active index: %w", err)
	}

	for _, playerID := range game.PlayerIDs {
		if err = that.client.ZRem(ctx, playerGamesPrefix+playerID, game.ID).Err(); err != nil {
			return fmt.Errorf("failed to drop game from player index: %w", err)
		}
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

// ActiveGameIDs returns the ids of all games still accepting moves; the
// sweeper walks this instead of scanning every game key.
func (that *dbGame) ActiveGameIDs(ctx context.Context) ([]string, error) {
	ids, err := that.client.ZRange(ctx, activeGamesKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active games: %w", err)
	}

	return ids, nil
}

// LatestActiveByPlayer returns the player's most recently updated active
// game, or ErrGameNotFound when there is none.
func (that *dbGame) LatestActiveByPlayer(ctx context.Context, playerID string) (*entity.Game, error) {
	ids, err := that.client.ZRevRange(ctx, playerGamesPrefix+playerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list player games: %w", err)
	}

	for _, id := range ids {
		game, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if game.IsActive() {
			return game, nil
		}
	}

	return nil, apperror.ErrGameNotFound
}
