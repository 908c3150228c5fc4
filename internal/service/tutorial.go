package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

const (
	botIDPrefix = "bot-"
	botName     = "Tutor"

	// safety cap on consecutive bot turns in one exchange
	maxBotTurns = entity.HandSize + 1
)

// IsBotID reports whether a player id belongs to a tutorial opponent.
func IsBotID(playerID string) bool {
	return strings.HasPrefix(playerID, botIDPrefix)
}

// TutorialService runs practice games against a scripted opponent. Each
// tutorial spins up a throwaway bot player with a fixed-curve deck.
type TutorialService interface {
	StartTutorial(ctx context.Context, playerID, deckID string) (*entity.Game, error)
	PlayBotTurns(ctx context.Context, gameID string) (*entity.Game, error)
}

type tutorialService struct {
	logger *slog.Logger

	playerService PlayerService
	deckService   DeckService
	gameService   GameService
	botService    BotService
}

func NewTutorialService(logger *slog.Logger, playerService PlayerService, deckService DeckService, gameService GameService, botService BotService) TutorialService {
	return &tutorialService{
		logger:        logger,
		playerService: playerService,
		deckService:   deckService,
		gameService:   gameService,
		botService:    botService,
	}
}

// StartTutorial creates the bot opponent and starts a regular game against
// it. The human moves first.
func (that *tutorialService) StartTutorial(ctx context.Context, playerID, deckID string) (*entity.Game, error) {
	bot := &entity.Player{
		ID:   botIDPrefix + identifier.New(),
		Name: botName,
	}

	if err := that.playerService.UpdatePlayer(ctx, bot); err != nil {
		return nil, fmt.Errorf("failed to create bot player: %w", err)
	}

	botDeck, err := that.deckService.CreateDeck(ctx, bot.ID, botDeckCards())
	if err != nil {
		return nil, fmt.Errorf("failed to create bot deck: %w", err)
	}

	newGame, err := that.gameService.InitializeGame(ctx, playerID, bot.ID, deckID, botDeck.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tutorial game: %w", err)
	}

	that.logger.Info("tutorial started", "gameID", newGame.ID, "playerID", playerID, "botID", bot.ID)

	return newGame, nil
}

// PlayBotTurns advances the game as long as the bot holds the turn. It is a
// no-op when the game is over or a human is to move.
func (that *tutorialService) PlayBotTurns(ctx context.Context, gameID string) (*entity.Game, error) {
	targetGame, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	for turn := 0; turn < maxBotTurns; turn++ {
		if !targetGame.IsInProgress() || !IsBotID(targetGame.CurrentPlayerID) {
			return targetGame, nil
		}

		action, err := that.nextBotAction(ctx, targetGame)
		if err != nil {
			return nil, err
		}

		targetGame, err = that.gameService.ProcessAction(ctx, gameID, action)
		if err != nil {
			return nil, fmt.Errorf("failed to process bot action: %w", err)
		}
	}

	return targetGame, nil
}

func (that *tutorialService) nextBotAction(ctx context.Context, targetGame *entity.Game) (*entity.PlayerAction, error) {
	botID := targetGame.CurrentPlayerID

	// the bot always concedes to a win-calculation request
	if targetGame.HasPendingWinRequest && targetGame.PendingWinRequestPlayerID != botID {
		accepted := true
		return &entity.PlayerAction{
			Type:      entity.ActionRespondWin,
			PlayerID:  botID,
			Accepted:  &accepted,
			Timestamp: time.Now().UnixMilli(),
		}, nil
	}

	bot, err := that.playerService.GetPlayerByID(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot player: %w", err)
	}

	return that.botService.NextAction(targetGame, bot), nil
}

// botDeckCards builds the tutorial deck: a flat, readable power curve.
func botDeckCards() []entity.Card {
	cards := make([]entity.Card, 0, entity.DeckSize)
	for i := 0; i < entity.DeckSize; i++ {
		cards = append(cards, entity.Card{
			ID:    identifier.New(),
			Power: i%10 + 1,
			Name:  fmt.Sprintf("Drill %d", i+1),
		})
	}

	return cards
}
