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
	deckKeyPrefix    = "deck:"
	ownerDecksPrefix = "decks:owner:"
)

type DeckRepository interface {
	CreateOrUpdate(ctx context.Context, deck *entity.Deck) error
	GetByID(ctx context.Context, id string) (*entity.Deck, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*entity.Deck, error)
}

type dbDeck struct {
	client *redis.Client
}

func NewDeckRepository(client *redis.Client) DeckRepository {
	return &dbDeck{
		client: client,
	}
}

func (that *dbDeck) CreateOrUpdate(ctx context.Context, deck *entity.Deck) error {
	deckJSON, err := json.Marshal(deck)
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}

	if err = that.client.Set(ctx, deckKeyPrefix+deck.ID, deckJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set deck: %w", err)
	}

	if err = that.client.SAdd(ctx, ownerDecksPrefix+deck.OwnerID, deck.ID).Err(); err != nil {
		return fmt.Errorf("failed to index deck for owner: %w", err)
	}

	return nil
}

func (that *dbDeck) GetByID(ctx context.Context, id string) (*entity.Deck, error) {
	response, err := that.client.Get(ctx, deckKeyPrefix+id).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrDeckNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}

	var existingDeck entity.Deck
	if err = json.Unmarshal([]byte(response), &existingDeck); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck: %w", err)
	}

	return &existingDeck, nil
}

func (that *dbDeck) GetByOwner(ctx context.Context, ownerID string) ([]*entity.Deck, error) {
	ids, err := that.client.SMembers(ctx, ownerDecksPrefix+ownerID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list decks for owner: %w", err)
	}

	decks := make([]*entity.Deck, 0, len(ids))
	for _, id := range ids {
		deck, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrDeckNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}

	return decks, nil
}
