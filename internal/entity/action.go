package entity

import "errors"

type ActionType string

const (
	ActionPlaceCard  ActionType = "PLACE_CARD"
	ActionPass       ActionType = "PASS"
	ActionRequestWin ActionType = "REQUEST_WIN_CALCULATION"
	ActionRespondWin ActionType = "RESPOND_TO_WIN_REQUEST"
)

var (
	ErrUnknownActionType = errors.New("unknown action type")
	ErrMissingPlayerID   = errors.New("player id is required")
	ErrMissingCard       = errors.New("card is required for place card action")
	ErrMissingPosition   = errors.New("target position is required for place card action")
	ErrMissingAccepted   = errors.New("accepted flag is required for win request response")
)

// PlayerAction is the tagged move variant; Type selects which optional
// fields are meaningful. The rule engine dispatches on it with a single
// exhaustive switch.
type PlayerAction struct {
	Type           ActionType `json:"type"`
	PlayerID       string     `json:"playerId"`
	Card           *Card      `json:"card,omitempty"`
	TargetPosition *Position  `json:"targetPosition,omitempty"`
	Accepted       *bool      `json:"accepted,omitempty"`
	Timestamp      int64      `json:"timestamp"`
}

// Validate checks the shape of the action: required fields per type.
func (that *PlayerAction) Validate() error {
	if that.PlayerID == "" {
		return ErrMissingPlayerID
	}

	switch that.Type {
	case ActionPlaceCard:
		if that.Card == nil {
			return ErrMissingCard
		}
		if that.TargetPosition == nil {
			return ErrMissingPosition
		}
	case ActionPass, ActionRequestWin:
		// no payload beyond the player id
	case ActionRespondWin:
		if that.Accepted == nil {
			return ErrMissingAccepted
		}
	default:
		return ErrUnknownActionType
	}

	return nil
}
