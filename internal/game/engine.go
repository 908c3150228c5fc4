package game

import (
	"fmt"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
)

// Apply validates and executes a single action against the in-memory game
// and its two players. On error the game and players are unchanged; the
// caller is responsible for persisting them on success.
func Apply(game *entity.Game, players map[string]*entity.Player, action *entity.PlayerAction) error {
	if err := action.Validate(); err != nil {
		return fmt.Errorf("invalid action: %w", err)
	}

	player, ok := players[action.PlayerID]
	if !ok || !game.HasPlayer(action.PlayerID) {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, action.PlayerID)
	}

	// Responding to a win request is the one action allowed while a request
	// is pending; everything else waits for the response.
	if action.Type == entity.ActionRespondWin {
		return applyWinResponse(game, players, action)
	}

	if err := ValidateTurn(game, action.PlayerID); err != nil {
		return err
	}

	if game.HasPendingWinRequest {
		return apperror.ErrPendingWinRequest
	}

	switch action.Type {
	case entity.ActionPlaceCard:
		if err := ValidatePlacement(game, player, action); err != nil {
			return err
		}
		executePlaceCard(game, player, action)

	case entity.ActionPass:
		// no board mutation; the turn just moves on

	case entity.ActionRequestWin:
		game.HasPendingWinRequest = true
		game.PendingWinRequestPlayerID = action.PlayerID
		game.SwitchTurn()
		game.Touch()
		return nil

	case entity.ActionRespondWin:
		// handled above; unreachable
	}

	if isGameOver(game, players) {
		Finalize(game, players)
	} else {
		advanceTurn(game, players)
	}

	game.Touch()

	return nil
}

func executePlaceCard(game *entity.Game, player *entity.Player, action *entity.PlayerAction) {
	target := *action.TargetPosition

	card, _ := player.RemoveFromHand(action.Card.ID)
	_ = game.Board.PlaceCard(target, card.ID) // validated above
	player.RecordPlacement(target, card)
}

func applyWinResponse(game *entity.Game, players map[string]*entity.Player, action *entity.PlayerAction) error {
	if !game.HasPendingWinRequest {
		return apperror.ErrNoPendingWinRequest
	}

	if err := ValidateTurn(game, action.PlayerID); err != nil {
		return err
	}

	if *action.Accepted {
		Finalize(game, players)
		game.Touch()
		return nil
	}

	// Rejected: clear the request and hand the turn back to the requester.
	requesterID := game.PendingWinRequestPlayerID
	game.HasPendingWinRequest = false
	game.PendingWinRequestPlayerID = ""
	game.CurrentPlayerID = requesterID
	game.Touch()

	return nil
}

// advanceTurn toggles the turn, but never hands control to a player with no
// legal action: in that case the player who just moved keeps the turn as
// long as they can still act. Both players being stuck ends the game on the
// next isGameOver check.
func advanceTurn(game *entity.Game, players map[string]*entity.Player) {
	mover := game.CurrentPlayerID
	game.SwitchTurn()

	next := players[game.CurrentPlayerID]
	if next != nil && hasValidMoves(game, next) {
		return
	}

	if current := players[mover]; current != nil && hasValidMoves(game, current) {
		game.CurrentPlayerID = mover
	}
}

// hasValidMoves reports whether the player holds a card and a legal cell for
// it exists. Turn order is deliberately not part of this check.
func hasValidMoves(game *entity.Game, player *entity.Player) bool {
	if len(player.Hand) == 0 {
		return false
	}

	for _, pos := range game.Board.EmptyPositions() {
		if err := validateCardPlacement(game, player, pos); err == nil {
			return true
		}
	}

	return false
}

func isGameOver(game *entity.Game, players map[string]*entity.Player) bool {
	if game.Board.IsFull() {
		return true
	}

	for _, playerID := range game.PlayerIDs {
		if player, ok := players[playerID]; ok && hasValidMoves(game, player) {
			return false
		}
	}

	return true
}

// Finalize completes the game: persists the per-column breakdown, counts
// columns won as each player's final score, and records the winner or the
// tie. Player-level bookkeeping (lifetime scores, deck restoration) is the
// service layer's job.
func Finalize(game *entity.Game, players map[string]*entity.Player) {
	game.State = entity.StateCompleted
	game.HasPendingWinRequest = false
	game.PendingWinRequestPlayerID = ""

	game.ColumnScores = CalculateColumnScores(game, players)

	winnerID, columnsWon := DetermineWinner(game, players)
	game.Scores = columnsWon
	game.WinnerID = winnerID
	game.Tie = winnerID == ""
}
