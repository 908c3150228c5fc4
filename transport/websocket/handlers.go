package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/registry"
	"github.com/gridduel/gridduel-backend/internal/service"
)

// handleJoinMatch attaches the session to a match. The host joining their
// own WAITING match just subscribes; anyone else claims the open seat,
// which starts the game and pushes the opening state to both players.
func (that *Server) handleJoinMatch(ctx context.Context, sess *session, msg *Message) error {
	var payload JoinMatchPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal join payload: %w", err)
	}

	match, err := that.registry.Match(payload.MatchCode)
	if err != nil {
		return fmt.Errorf("failed to find match: %w", err)
	}

	if match.HostID == sess.playerID || match.GuestID == sess.playerID {
		that.attach(sess, match.Code)
		that.registry.MarkReconnected(match.Code, sess.playerID)

		if match.State == registry.MatchWaiting {
			return sess.send(newMessage(TypeMatchWaiting, MatchWaitingData{MatchCode: match.Code, HostID: match.HostID}))
		}

		return that.sendGameState(ctx, sess, match.GameID)
	}

	match, newGame, err := that.registry.JoinMatch(ctx, payload.MatchCode, sess.playerID, payload.DeckID)
	if err != nil {
		return fmt.Errorf("failed to join match: %w", err)
	}

	that.attach(sess, match.Code)

	if err = sess.send(newMessage(TypeJoinSuccess, JoinSuccessData{MatchCode: match.Code, GameID: newGame.ID})); err != nil {
		that.logger.Error("failed to ack join", "playerID", sess.playerID, "error", err)
	}

	that.broadcastToMatch(match.Code, sess.playerID,
		newMessage(TypePlayerJoined, PlayerJoinedData{MatchCode: match.Code, PlayerID: sess.playerID}))

	that.broadcastGameState(ctx, match.Code, newGame.ID)

	that.logger.Info("match started", "matchCode", match.Code, "gameID", newGame.ID)

	return nil
}

// handleLeaveMatch is a deliberate exit, not a dropped socket: the leaver's
// running game is settled in the opponent's favor before the match metadata
// is released.
func (that *Server) handleLeaveMatch(ctx context.Context, sess *session, _ *Message) error {
	that.mu.Lock()
	matchCode := sess.matchCode
	sess.matchCode = ""
	that.mu.Unlock()

	var opponentID, gameID string
	if matchCode != "" {
		if match, err := that.registry.Match(matchCode); err == nil {
			gameID = match.GameID
			opponentID = match.HostID
			if opponentID == sess.playerID {
				opponentID = match.GuestID
			}
		}

		that.broadcastToMatch(matchCode, sess.playerID,
			newMessage(TypePlayerDisconnected, PlayerDisconnectedData{PlayerID: sess.playerID}))
	}

	that.registry.HandleLeave(ctx, sess.playerID)

	// the forfeit closes the game, so the opponent gets the usual terminal
	// broadcast even though the match record may already be released
	if gameID != "" && opponentID != "" {
		if finished, err := that.gameService.GetGameByID(ctx, gameID); err == nil && finished.IsCompleted() {
			if opponent, ok := that.sessionOf(opponentID); ok {
				if err = opponent.send(newMessage(TypeGameEnd, GameEndData{
					GameID:   finished.ID,
					WinnerID: finished.WinnerID,
					Tie:      finished.Tie,
					Scores:   finished.Scores,
				})); err != nil {
					that.logger.Error("failed to send game end", "playerID", opponentID, "error", err)
				}
			}
		}
	}

	return sess.send(newMessage(TypeLeaveSuccess, nil))
}

// handleGameAction runs one move through the game service and fans the
// resulting state out to both players, all under the match lock.
func (that *Server) handleGameAction(ctx context.Context, sess *session, msg *Message) error {
	var payload GameActionPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal action payload: %w", err)
	}

	match, err := that.registry.Match(payload.MatchCode)
	if err != nil {
		return fmt.Errorf("failed to find match: %w", err)
	}

	if match.State == registry.MatchCompleted {
		return fmt.Errorf("%w: match %s", apperror.ErrGameCompleted, match.Code)
	}

	if match.GameID == "" {
		return fmt.Errorf("match %s has no running game", match.Code)
	}

	unlock := that.lockMatch(match.Code)
	defer unlock()

	action := &entity.PlayerAction{
		Type:           payload.Action.Type,
		PlayerID:       sess.playerID,
		Card:           payload.Action.Card,
		TargetPosition: payload.Action.TargetPosition,
		Accepted:       payload.Action.Accepted,
		Timestamp:      time.Now().UnixMilli(),
	}

	updatedGame, err := that.gameService.ProcessAction(ctx, match.GameID, action)
	if err != nil {
		return fmt.Errorf("failed to process action: %w", err)
	}

	that.broadcastGameState(ctx, match.Code, updatedGame.ID)

	if service.IsBotID(updatedGame.CurrentPlayerID) {
		updatedGame, err = that.tutorialService.PlayBotTurns(ctx, match.GameID)
		if err != nil {
			return fmt.Errorf("failed to play bot turns: %w", err)
		}

		that.broadcastGameState(ctx, match.Code, updatedGame.ID)
	}

	if updatedGame.IsCompleted() {
		that.registry.MarkCompleted(match.Code)
		that.broadcastToMatch(match.Code, "", newMessage(TypeGameEnd, GameEndData{
			GameID:   updatedGame.ID,
			WinnerID: updatedGame.WinnerID,
			Tie:      updatedGame.Tie,
			Scores:   updatedGame.Scores,
		}))
	}

	return nil
}

func (that *Server) handleGameStateRequest(ctx context.Context, sess *session, msg *Message) error {
	var payload JoinMatchPayload
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal state request: %w", err)
	}

	match, err := that.registry.Match(payload.MatchCode)
	if err != nil {
		return fmt.Errorf("failed to find match: %w", err)
	}

	if match.State == registry.MatchWaiting {
		return sess.send(newMessage(TypeMatchWaiting, MatchWaitingData{MatchCode: match.Code, HostID: match.HostID}))
	}

	return that.sendGameState(ctx, sess, match.GameID)
}

func (that *Server) sendGameState(ctx context.Context, sess *session, gameID string) error {
	targetGame, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	view, err := that.gameService.GameView(ctx, targetGame, sess.playerID)
	if err != nil {
		return fmt.Errorf("failed to build game view: %w", err)
	}

	return sess.send(newMessage(TypeGameStateUpdate, view))
}

// broadcastGameState sends each participant their own projection; hands are
// never shared between views.
func (that *Server) broadcastGameState(ctx context.Context, matchCode, gameID string) {
	match, err := that.registry.Match(matchCode)
	if err != nil {
		return
	}

	for _, playerID := range []string{match.HostID, match.GuestID} {
		if playerID == "" {
			continue
		}

		sess, ok := that.sessionOf(playerID)
		if !ok {
			continue
		}

		if err = that.sendGameState(ctx, sess, gameID); err != nil {
			that.logger.Error("failed to push game state", "playerID", playerID, "error", err)
		}
	}
}

func (that *Server) attach(sess *session, matchCode string) {
	that.mu.Lock()
	sess.matchCode = matchCode
	that.mu.Unlock()
}
