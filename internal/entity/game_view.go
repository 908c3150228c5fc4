package entity

import "time"

// GameView is the per-player projection of a game sent over the wire. Hand
// holds only the requesting player's cards; the opponent's hand is never
// exposed.
type GameView struct {
	ID    string    `json:"id"`
	State GameState `json:"state"`
	Board *Board    `json:"board"`

	PlayerIDs       []string `json:"playerIds"`
	CurrentPlayerID string   `json:"currentPlayerId"`
	Hand            []Card   `json:"currentPlayerHand"`

	CardOwnership map[string]string `json:"cardOwnership"` // position key -> player id
	PlacedCards   map[string]Card   `json:"placedCards"`   // card id -> card

	ColumnScores map[int]*ColumnScore `json:"columnScores"`
	Scores       map[string]int       `json:"scores,omitempty"`
	WinnerID     string               `json:"winnerId,omitempty"`
	Tie          bool                 `json:"isTie"`

	HasPendingWinRequest      bool   `json:"hasPendingWinRequest"`
	PendingWinRequestPlayerID string `json:"pendingWinRequestPlayerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
