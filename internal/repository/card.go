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

const cardKeyPrefix = "card:"

type CardRepository interface {
	CreateOrUpdate(ctx context.Context, card *entity.Card) error
	GetByID(ctx context.Context, id string) (*entity.Card, error)
}

type dbCard struct {
	client *redis.Client
}

func NewCardRepository(client *redis.Client) CardRepository {
	return &dbCard{
		client: client,
	}
}

func (that *dbCard) CreateOrUpdate(ctx context.Context, card *entity.Card) error {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("failed to marshal card: %w", err)
	}

	if err = that.client.Set(ctx, cardKeyPrefix+card.ID, cardJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set card: %w", err)
	}

	return nil
}

func (that *dbCard) GetByID(ctx context.Context, id string) (*entity.Card, error) {
	response, err := that.client.Get(ctx, cardKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrCardNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}

	var existingCard entity.Card
	if err = json.Unmarshal([]byte(response), &existingCard); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card: %w", err)
	}

	return &existingCard, nil
}
