package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/game"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

const victoryBonus = 10

var ErrDeckOwnership = errors.New("deck ownership mismatch")

type GameService interface {
	InitializeGame(ctx context.Context, player1ID, player2ID, deck1ID, deck2ID string) (*entity.Game, error)
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	LatestActiveGame(ctx context.Context, playerID string) (*entity.Game, error)

	ProcessAction(ctx context.Context, gameID string, action *entity.PlayerAction) (*entity.Game, error)
	ForceComplete(ctx context.Context, gameID, winnerID string) (*entity.Game, error)

	GameView(ctx context.Context, targetGame *entity.Game, forPlayerID string) (*entity.GameView, error)
}

type gameRepo interface {
	Save(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	LatestActiveByPlayer(ctx context.Context, playerID string) (*entity.Game, error)
}

type gameService struct {
	logger *slog.Logger

	gameRepo      gameRepo
	playerService PlayerService
	deckService   DeckService

	// one mutex per live game id; the sweeper takes the same lock as
	// interactive moves, there is no separate maintenance path.
	locks sync.Map
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, playerService PlayerService, deckService DeckService) GameService {
	return &gameService{
		logger:        logger,
		gameRepo:      gameRepo,
		playerService: playerService,
		deckService:   deckService,
	}
}

// InitializeGame validates both players and decks, deals the opening hands
// and places each player's mandatory first card, leaving the game
// IN_PROGRESS with two occupied cells.
func (that *gameService) InitializeGame(ctx context.Context, player1ID, player2ID, deck1ID, deck2ID string) (*entity.Game, error) {
	players := [2]*entity.Player{}
	deckIDs := [2]string{deck1ID, deck2ID}

	for i, playerID := range [2]string{player1ID, player2ID} {
		player, deck, err := that.validatePlayerAndDeck(ctx, playerID, deckIDs[i])
		if err != nil {
			return nil, err
		}

		dealOpeningHand(player, deck)
		players[i] = player
	}

	newGame := entity.NewGame(identifier.New(), []string{player1ID, player2ID})

	for i, player := range players {
		if err := placeOpeningCard(newGame, player, game.StartingPositions[i]); err != nil {
			return nil, err
		}
	}

	newGame.State = entity.StateInProgress

	for _, player := range players {
		if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}
	}

	if err := that.gameRepo.Save(ctx, newGame); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("game initialized", "gameID", newGame.ID, "players", newGame.PlayerIDs)

	return newGame, nil
}

func (that *gameService) validatePlayerAndDeck(ctx context.Context, playerID, deckID string) (*entity.Player, *entity.Deck, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player: %w", err)
	}

	deck, err := that.deckService.GetDeck(ctx, deckID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get deck: %w", err)
	}

	if deck.OwnerID != playerID {
		return nil, nil, fmt.Errorf("%w: deck %s", ErrDeckOwnership, deckID)
	}

	if !deck.IsComplete() {
		return nil, nil, fmt.Errorf("%w: deck %s has %d cards", ErrInvalidDeckSize, deckID, len(deck.Cards))
	}

	return player, deck, nil
}

// dealOpeningHand draws from an in-memory copy of the deck; the stored deck
// itself is untouched and restored as the player's current deck after the
// game.
func dealOpeningHand(player *entity.Player, deck *entity.Deck) {
	gameDeck := entity.Deck{
		ID:      identifier.New(),
		OwnerID: player.ID,
		Cards:   append([]entity.Card(nil), deck.Cards...),
	}

	player.OriginalDeckID = deck.ID
	player.CurrentDeckID = gameDeck.ID
	player.Hand = gameDeck.Draw(entity.HandSize)
	player.Score = 0
	player.PlacedCards = make(map[string]entity.Card)
}

func placeOpeningCard(targetGame *entity.Game, player *entity.Player, pos entity.Position) error {
	card := player.Hand[rand.Intn(len(player.Hand))] //nolint: gosec // it's ok
	if _, ok := player.RemoveFromHand(card.ID); !ok {
		return fmt.Errorf("%w: %s", apperror.ErrCardNotInHand, card.ID)
	}

	if err := targetGame.Board.PlaceCard(pos, card.ID); err != nil {
		return fmt.Errorf("failed to place opening card: %w", err)
	}

	player.RecordPlacement(pos, card)

	return nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return existingGame, nil
}

func (that *gameService) LatestActiveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	activeGame, err := that.gameRepo.LatestActiveByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active game: %w", err)
	}

	return activeGame, nil
}

// ProcessAction runs one action through the rule engine under the game's
// lock and persists the outcome. Validation failures leave everything
// untouched.
func (that *gameService) ProcessAction(ctx context.Context, gameID string, action *entity.PlayerAction) (*entity.Game, error) {
	unlock := that.lockGame(gameID)
	defer unlock()

	targetGame, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	players, err := that.playersOf(ctx, targetGame)
	if err != nil {
		return nil, err
	}

	if err = game.Apply(targetGame, players, action); err != nil {
		return nil, err
	}

	if targetGame.IsCompleted() {
		that.settlePlayers(targetGame, players)
	}

	for _, player := range players {
		if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}
	}

	if err = that.gameRepo.Save(ctx, targetGame); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	return targetGame, nil
}

// ForceComplete marks an abandoned game COMPLETED on behalf of the sweeper.
// The abandoning side forfeits: winnerID overrides the column result when
// set. Completing an already-terminal game is a no-op.
func (that *gameService) ForceComplete(ctx context.Context, gameID, winnerID string) (*entity.Game, error) {
	unlock := that.lockGame(gameID)
	defer unlock()

	targetGame, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if !targetGame.IsActive() {
		return targetGame, nil
	}

	players, err := that.playersOf(ctx, targetGame)
	if err != nil {
		return nil, err
	}

	game.Finalize(targetGame, players)

	if winnerID != "" && targetGame.HasPlayer(winnerID) {
		targetGame.WinnerID = winnerID
		targetGame.Tie = false
	}

	targetGame.Touch()
	that.settlePlayers(targetGame, players)

	for _, player := range players {
		if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}
	}

	if err = that.gameRepo.Save(ctx, targetGame); err != nil {
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	that.logger.Info("game force-completed", "gameID", gameID, "winnerID", targetGame.WinnerID)

	return targetGame, nil
}

// settlePlayers folds the finished game into each player's lifetime score
// and restores their pre-game deck state.
func (that *gameService) settlePlayers(targetGame *entity.Game, players map[string]*entity.Player) {
	for _, player := range players {
		player.LifetimeScore += player.Score

		if targetGame.WinnerID == player.ID && !targetGame.Tie {
			player.LifetimeScore += victoryBonus
		}

		player.ResetGameState()
	}
}

func (that *gameService) playersOf(ctx context.Context, targetGame *entity.Game) (map[string]*entity.Player, error) {
	players := make(map[string]*entity.Player, len(targetGame.PlayerIDs))

	for _, playerID := range targetGame.PlayerIDs {
		player, err := that.playerService.GetPlayerByID(ctx, playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get player: %w", err)
		}
		players[playerID] = player
	}

	return players, nil
}

// GameView builds the projection for one recipient: the board, ownership
// and scores are shared, the hand is the recipient's own.
func (that *gameService) GameView(ctx context.Context, targetGame *entity.Game, forPlayerID string) (*entity.GameView, error) {
	players, err := that.playersOf(ctx, targetGame)
	if err != nil {
		return nil, err
	}

	cardOwnership := make(map[string]string)
	placedCards := make(map[string]entity.Card)
	for playerID, player := range players {
		for posKey, card := range player.PlacedCards {
			cardOwnership[posKey] = playerID
			placedCards[card.ID] = card
		}
	}

	view := &entity.GameView{
		ID:              targetGame.ID,
		State:           targetGame.State,
		Board:           targetGame.Board,
		PlayerIDs:       targetGame.PlayerIDs,
		CurrentPlayerID: targetGame.CurrentPlayerID,
		CardOwnership:   cardOwnership,
		PlacedCards:     placedCards,
		ColumnScores:    game.CalculateColumnScores(targetGame, players),

		HasPendingWinRequest:      targetGame.HasPendingWinRequest,
		PendingWinRequestPlayerID: targetGame.PendingWinRequestPlayerID,

		CreatedAt: targetGame.CreatedAt,
		UpdatedAt: targetGame.UpdatedAt,
	}

	if viewer, ok := players[forPlayerID]; ok {
		view.Hand = viewer.Hand
	}

	if targetGame.IsCompleted() {
		view.Scores = targetGame.Scores
		view.WinnerID = targetGame.WinnerID
		view.Tie = targetGame.Tie
	}

	return view, nil
}

func (that *gameService) lockGame(gameID string) func() {
	value, _ := that.locks.LoadOrStore(gameID, &sync.Mutex{})
	mu, _ := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}
