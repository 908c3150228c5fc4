package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

var ErrInvalidDeckSize = errors.New("deck must contain exactly 15 cards")

type DeckService interface {
	CreateDeck(ctx context.Context, ownerID string, cards []entity.Card) (*entity.Deck, error)
	GetDeck(ctx context.Context, id string) (*entity.Deck, error)
	GetPlayerDecks(ctx context.Context, ownerID string) ([]*entity.Deck, error)
}

type deckRepo interface {
	CreateOrUpdate(ctx context.Context, deck *entity.Deck) error
	GetByID(ctx context.Context, id string) (*entity.Deck, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*entity.Deck, error)
}

type deckService struct {
	deckRepo deckRepo
}

func NewDeckService(deckRepo deckRepo) DeckService {
	return &deckService{
		deckRepo: deckRepo,
	}
}

func (that *deckService) CreateDeck(ctx context.Context, ownerID string, cards []entity.Card) (*entity.Deck, error) {
	if len(cards) != entity.DeckSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDeckSize, len(cards))
	}

	deck := &entity.Deck{
		ID:             identifier.New(),
		OwnerID:        ownerID,
		Cards:          append([]entity.Card(nil), cards...),
		RemainingCards: len(cards),
	}

	if err := that.deckRepo.CreateOrUpdate(ctx, deck); err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}

	return deck, nil
}

func (that *deckService) GetDeck(ctx context.Context, id string) (*entity.Deck, error) {
	deck, err := that.deckRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}

	return deck, nil
}

func (that *deckService) GetPlayerDecks(ctx context.Context, ownerID string) ([]*entity.Deck, error) {
	decks, err := that.deckRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get decks for owner: %w", err)
	}

	return decks, nil
}
