package service

import (
	"time"

	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/game"
)

const (
	botPreferredColumn  = 1
	botPreferredPowerLo = 3
	botPreferredPowerHi = 6
)

// BotService proposes moves for the tutorial opponent. The bot is
// intentionally predictable: it crowds the middle column with mid-power
// cards so a new player can read its plan.
type BotService interface {
	NextAction(targetGame *entity.Game, bot *entity.Player) *entity.PlayerAction
}

type botService struct{}

func NewBotService() BotService {
	return &botService{}
}

// NextAction picks a placement the rule engine is guaranteed to accept, or
// a pass when no cell is reachable.
func (that *botService) NextAction(targetGame *entity.Game, bot *entity.Player) *entity.PlayerAction {
	pos, ok := that.pickPosition(targetGame, bot)
	if !ok || len(bot.Hand) == 0 {
		return &entity.PlayerAction{
			Type:      entity.ActionPass,
			PlayerID:  bot.ID,
			Timestamp: time.Now().UnixMilli(),
		}
	}

	card := that.pickCard(bot.Hand)

	return &entity.PlayerAction{
		Type:           entity.ActionPlaceCard,
		PlayerID:       bot.ID,
		Card:           &card,
		TargetPosition: &pos,
		Timestamp:      time.Now().UnixMilli(),
	}
}

func (that *botService) pickPosition(targetGame *entity.Game, bot *entity.Player) (entity.Position, bool) {
	var fallback entity.Position
	found := false

	for _, pos := range targetGame.Board.EmptyPositions() {
		if !game.CanPlaceAt(targetGame, bot, pos) {
			continue
		}

		if pos.X == botPreferredColumn {
			return pos, true
		}

		if !found {
			fallback = pos
			found = true
		}
	}

	return fallback, found
}

func (that *botService) pickCard(hand []entity.Card) entity.Card {
	for _, card := range hand {
		if card.Power >= botPreferredPowerLo && card.Power <= botPreferredPowerHi {
			return card
		}
	}

	return hand[0]
}
