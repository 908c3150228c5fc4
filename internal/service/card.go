package service

import (
	"context"
	"fmt"

	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

type CardService interface {
	CreateCard(ctx context.Context, power int, name, imageURL string) (*entity.Card, error)
	GetCardByID(ctx context.Context, id string) (*entity.Card, error)
}

type cardRepo interface {
	CreateOrUpdate(ctx context.Context, card *entity.Card) error
	GetByID(ctx context.Context, id string) (*entity.Card, error)
}

type cardService struct {
	cardRepo cardRepo
}

func NewCardService(cardRepo cardRepo) CardService {
	return &cardService{cardRepo: cardRepo}
}

func (that *cardService) CreateCard(ctx context.Context, power int, name, imageURL string) (*entity.Card, error) {
	card := &entity.Card{
		ID:       identifier.New(),
		Power:    power,
		Name:     name,
		ImageURL: imageURL,
	}

	if err := that.cardRepo.CreateOrUpdate(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	return card, nil
}

func (that *cardService) GetCardByID(ctx context.Context, id string) (*entity.Card, error) {
	card, err := that.cardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}

	return card, nil
}
