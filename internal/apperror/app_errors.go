package apperror

import "errors"

var (
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrGameCompleted     = errors.New("game is already completed")
	ErrNotYourTurn       = errors.New("it's not your turn")

	ErrInvalidPosition         = errors.New("invalid or occupied position")
	ErrCardNotInHand           = errors.New("card not in player's hand")
	ErrInvalidStartingPosition = errors.New("first card must go on the starting cell")
	ErrNotAdjacent             = errors.New("must place card adjacent to your existing cards")

	ErrNoPendingWinRequest = errors.New("there is no pending win request to respond to")
	ErrPendingWinRequest   = errors.New("a win request is already pending")

	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrDeckNotFound   = errors.New("deck not found")
	ErrCardNotFound   = errors.New("card not found")

	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchAlreadyStarted = errors.New("match already started")
	ErrDeckUnavailable     = errors.New("player has no deck available")
)
