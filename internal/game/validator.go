package game

import (
	"fmt"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
)

// StartingPositions are the mandatory opening cells, indexed by the player's
// position in Game.PlayerIDs: the first player opens on the bottom-right
// corner, the second on the top-right.
var StartingPositions = [2]entity.Position{
	{X: 2, Y: 4},
	{X: 2, Y: 0},
}

// StartingPositionFor returns the fixed opening cell for a participant.
func StartingPositionFor(game *entity.Game, playerID string) (entity.Position, bool) {
	for i, id := range game.PlayerIDs {
		if id == playerID && i < len(StartingPositions) {
			return StartingPositions[i], true
		}
	}
	return entity.Position{}, false
}

// ValidateTurn checks the game accepts moves and that it is the acting
// player's turn.
func ValidateTurn(game *entity.Game, playerID string) error {
	if !game.IsInProgress() {
		return apperror.ErrGameNotInProgress
	}

	if game.CurrentPlayerID != playerID {
		return apperror.ErrNotYourTurn
	}

	return nil
}

// ValidatePlacement checks a PLACE_CARD action against the board and the
// acting player's hand and placements. It never mutates state.
func ValidatePlacement(game *entity.Game, player *entity.Player, action *entity.PlayerAction) error {
	target := *action.TargetPosition

	if !game.Board.IsPositionValid(target) {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidPosition, target.Key())
	}

	if !player.HasCardInHand(action.Card.ID) {
		return fmt.Errorf("%w: %s", apperror.ErrCardNotInHand, action.Card.ID)
	}

	return validateCardPlacement(game, player, target)
}

func validateCardPlacement(game *entity.Game, player *entity.Player, target entity.Position) error {
	// A player with nothing on the board yet must open on their fixed cell.
	if !player.HasPlacedCards() {
		start, ok := StartingPositionFor(game, player.ID)
		if !ok || start != target {
			return fmt.Errorf("%w: %s", apperror.ErrInvalidStartingPosition, target.Key())
		}
		return nil
	}

	return validateAdjacentPlacement(game, player, target)
}

// CanPlaceAt reports whether pos is a legal target for the player,
// ignoring turn order. The tutorial bot uses it to propose only moves the
// validator would accept.
func CanPlaceAt(game *entity.Game, player *entity.Player, pos entity.Position) bool {
	if !game.Board.IsPositionValid(pos) {
		return false
	}

	return validateCardPlacement(game, player, pos) == nil
}

// validateAdjacentPlacement requires an orthogonal neighbor holding one of
// the acting player's OWN cards; a neighbor occupied by the opponent does
// not count.
func validateAdjacentPlacement(game *entity.Game, player *entity.Player, target entity.Position) error {
	for _, neighbor := range game.Board.AdjacentPositions(target) {
		cardID, occupied := game.Board.CardIDAt(neighbor)
		if occupied && player.OwnsPlacedCard(cardID) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", apperror.ErrNotAdjacent, target.Key())
}
