package websocket

import (
	"encoding/json"
	"time"

	"github.com/gridduel/gridduel-backend/internal/entity"
)

type MessageType string

const (
	TypeConnectionSuccess  MessageType = "CONNECTION_SUCCESS"
	TypeJoinMatch          MessageType = "JOIN_MATCH"
	TypeJoinSuccess        MessageType = "JOIN_SUCCESS"
	TypeLeaveMatch         MessageType = "LEAVE_MATCH"
	TypeLeaveSuccess       MessageType = "LEAVE_SUCCESS"
	TypeGameAction         MessageType = "GAME_ACTION"
	TypeGameStateRequest   MessageType = "GAME_STATE_REQUEST"
	TypeGameStateUpdate    MessageType = "GAME_STATE_UPDATE"
	TypeMatchWaiting       MessageType = "MATCH_WAITING"
	TypePlayerJoined       MessageType = "PLAYER_JOINED"
	TypeGameEnd            MessageType = "GAME_END"
	TypePlayerDisconnected MessageType = "PLAYER_DISCONNECTED"
	TypeError              MessageType = "ERROR"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func newMessage(msgType MessageType, data any) *Message {
	return &Message{
		Type:      msgType,
		Data:      mustMarshal(data),
		Timestamp: time.Now().UTC(),
	}
}

func mustMarshal(v any) json.RawMessage {
	if v == nil {
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}

	return b
}

type JoinMatchPayload struct {
	MatchCode string `json:"matchCode"`
	DeckID    string `json:"deckId,omitempty"`
}

type GameActionPayload struct {
	MatchCode string        `json:"matchCode"`
	Action    ActionPayload `json:"action"`
}

type ActionPayload struct {
	Type           entity.ActionType `json:"type"`
	Card           *entity.Card      `json:"card,omitempty"`
	TargetPosition *entity.Position  `json:"targetPosition,omitempty"`
	Accepted       *bool             `json:"accepted,omitempty"`
}

type ConnectionSuccessData struct {
	PlayerID string `json:"playerId"`
}

type JoinSuccessData struct {
	MatchCode string `json:"matchCode"`
	GameID    string `json:"gameId,omitempty"`
}

type PlayerJoinedData struct {
	MatchCode string `json:"matchCode"`
	PlayerID  string `json:"playerId"`
}

type MatchWaitingData struct {
	MatchCode string `json:"matchCode"`
	HostID    string `json:"hostId"`
}

type GameEndData struct {
	GameID   string         `json:"gameId"`
	WinnerID string         `json:"winnerId,omitempty"`
	Tie      bool           `json:"isTie"`
	Scores   map[string]int `json:"scores"`
}

type PlayerDisconnectedData struct {
	PlayerID string `json:"playerId"`
}

type ErrorData struct {
	Message string `json:"message"`
}
