package entity

import (
	"time"
)

type GameState string

const (
	StateInitialized GameState = "INITIALIZED"
	StateInProgress  GameState = "IN_PROGRESS"
	StateCompleted   GameState = "COMPLETED"
)

// ColumnScore is the per-column breakdown: each player's summed power in the
// column and the column winner, if any. An equal sum (including 0-0) is a
// column tie with no winner.
type ColumnScore struct {
	PlayerScores map[string]int `json:"playerScores"`
	WinnerID     string         `json:"winnerId,omitempty"`
	Tie          bool           `json:"isTie"`
}

type Game struct {
	ID    string    `json:"id"`
	State GameState `json:"state"`
	Board *Board    `json:"board"`

	PlayerIDs       []string `json:"playerIds"`
	CurrentPlayerID string   `json:"currentPlayerId"`

	Scores       map[string]int       `json:"scores"`
	ColumnScores map[int]*ColumnScore `json:"columnScores,omitempty"`
	WinnerID     string               `json:"winnerId,omitempty"`
	Tie          bool                 `json:"isTie"`

	HasPendingWinRequest      bool   `json:"hasPendingWinRequest"`
	PendingWinRequestPlayerID string `json:"pendingWinRequestPlayerId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGame builds a fresh game for exactly two players; the first listed
// player moves first.
func NewGame(id string, playerIDs []string) *Game {
	now := time.Now().UTC()

	return &Game{
		ID:              id,
		State:           StateInitialized,
		Board:           NewBoard(),
		PlayerIDs:       playerIDs,
		CurrentPlayerID: playerIDs[0],
		Scores:          make(map[string]int),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (that *Game) IsInitialized() bool {
	return that.State == StateInitialized
}

func (that *Game) IsInProgress() bool {
	return that.State == StateInProgress
}

func (that *Game) IsCompleted() bool {
	return that.State == StateCompleted
}

// IsActive reports whether the game still accepts moves or the sweeper's
// attention.
func (that *Game) IsActive() bool {
	return that.State == StateInitialized || that.State == StateInProgress
}

// OpponentOf returns the other participant's id, or "" if playerID is not a
// participant.
func (that *Game) OpponentOf(playerID string) string {
	for _, id := range that.PlayerIDs {
		if id != playerID {
			return id
		}
	}
	return ""
}

func (that *Game) HasPlayer(playerID string) bool {
	for _, id := range that.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// SwitchTurn hands the turn to the other participant.
func (that *Game) SwitchTurn() {
	that.CurrentPlayerID = that.OpponentOf(that.CurrentPlayerID)
}

// Touch bumps the update timestamp; the sweeper keys its stale check off it.
func (that *Game) Touch() {
	that.UpdatedAt = time.Now().UTC()
}
