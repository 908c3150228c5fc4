package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/service"
	"github.com/gridduel/gridduel-backend/pkg/identifier"
)

type MatchState string

const (
	MatchWaiting    MatchState = "WAITING"
	MatchInProgress MatchState = "IN_PROGRESS"
	MatchCompleted  MatchState = "COMPLETED"
)

// clearGuard protects a match that was created an instant before its owner
// asked to clear everything; without it a create/clear race from two tabs
// deletes a match the player still expects to share.
const clearGuard = 5 * time.Second

// Match is the lobby-side record of a pairing. It exists before any game
// does and outlives the WAITING phase only as a pointer to the game.
type Match struct {
	Code string `json:"code"`

	HostID      string `json:"hostId"`
	HostDeckID  string `json:"hostDeckId"`
	GuestID     string `json:"guestId,omitempty"`
	GuestDeckID string `json:"guestDeckId,omitempty"`

	GameID string     `json:"gameId,omitempty"`
	State  MatchState `json:"state"`

	CreatedAt time.Time `json:"createdAt"`

	// Disconnected tracks participants whose socket dropped mid-game, keyed
	// by player id; an entry clears when that player attaches again.
	Disconnected map[string]time.Time `json:"disconnected,omitempty"`
}

func (that *Match) HasPlayer(playerID string) bool {
	return that.HostID == playerID || that.GuestID == playerID
}

// Registry holds open and running matches in memory, keyed by the short
// join code. Games themselves live in the game store; the registry only
// brokers the pairing.
type Registry struct {
	logger      *slog.Logger
	gameService service.GameService
	deckService service.DeckService

	mu      sync.RWMutex
	matches map[string]*Match
}

func New(logger *slog.Logger, gameService service.GameService, deckService service.DeckService) *Registry {
	return &Registry{
		logger:      logger,
		gameService: gameService,
		deckService: deckService,
		matches:     make(map[string]*Match),
	}
}

// CreateMatch opens a new WAITING match for the host. Stale entries the host
// still appears in are evicted first, and any WAITING match they already own
// is replaced, so a player holds at most one open invitation.
func (that *Registry) CreateMatch(ctx context.Context, hostID, deckID string) (*Match, error) {
	resolvedDeckID, err := that.resolveDeck(ctx, hostID, deckID)
	if err != nil {
		return nil, err
	}

	that.ClearPlayerMatches(ctx, hostID)

	that.mu.Lock()
	defer that.mu.Unlock()

	for code, match := range that.matches {
		if match.HostID == hostID && match.State == MatchWaiting {
			delete(that.matches, code)
		}
	}

	match := &Match{
		Code:       identifier.NewMatchCode(),
		HostID:     hostID,
		HostDeckID: resolvedDeckID,
		State:      MatchWaiting,
		CreatedAt:  time.Now().UTC(),
	}
	that.matches[match.Code] = match

	that.logger.Info("match created", "code", match.Code, "hostID", hostID)

	return match, nil
}

// JoinMatch claims a WAITING match for the guest and starts the game. The
// claim flips the match to IN_PROGRESS under the lock so a second joiner
// sees ErrMatchAlreadyStarted; game initialization itself runs unlocked and
// reverts the claim on failure.
func (that *Registry) JoinMatch(ctx context.Context, code, guestID, deckID string) (*Match, *entity.Game, error) {
	resolvedDeckID, err := that.resolveDeck(ctx, guestID, deckID)
	if err != nil {
		return nil, nil, err
	}

	match, err := that.claim(code, guestID, resolvedDeckID)
	if err != nil {
		return nil, nil, err
	}

	newGame, err := that.gameService.InitializeGame(ctx, match.HostID, guestID, match.HostDeckID, resolvedDeckID)
	if err != nil {
		that.revertClaim(code)
		return nil, nil, fmt.Errorf("failed to initialize game: %w", err)
	}

	that.mu.Lock()
	match.GameID = newGame.ID
	that.mu.Unlock()

	that.logger.Info("match joined", "code", code, "guestID", guestID, "gameID", newGame.ID)

	return match, newGame, nil
}

func (that *Registry) claim(code, guestID, deckID string) (*Match, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	match, ok := that.matches[code]
	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	if match.State != MatchWaiting {
		return nil, apperror.ErrMatchAlreadyStarted
	}

	// a player joining their own invitation would be playing themselves
	if match.HostID == guestID {
		return nil, apperror.ErrMatchAlreadyStarted
	}

	match.State = MatchInProgress
	match.GuestID = guestID
	match.GuestDeckID = deckID

	// the guest's stale WAITING invitations are dead once they join elsewhere
	for otherCode, other := range that.matches {
		if other.HostID == guestID && other.State == MatchWaiting {
			delete(that.matches, otherCode)
		}
	}

	return match, nil
}

func (that *Registry) revertClaim(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if match, ok := that.matches[code]; ok {
		match.State = MatchWaiting
		match.GuestID = ""
		match.GuestDeckID = ""
	}
}

// resolveDeck checks the requested deck belongs to the player and falls back
// to the player's original deck when it does not resolve; a player with no
// usable deck cannot enter a match.
func (that *Registry) resolveDeck(ctx context.Context, playerID, deckID string) (string, error) {
	if deckID != "" {
		deck, err := that.deckService.GetDeck(ctx, deckID)
		if err == nil && deck.OwnerID == playerID && deck.IsComplete() {
			return deck.ID, nil
		}
	}

	decks, err := that.deckService.GetPlayerDecks(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrDeckUnavailable, err)
	}

	for _, deck := range decks {
		if deck.IsComplete() {
			return deck.ID, nil
		}
	}

	return "", apperror.ErrDeckUnavailable
}

// RegisterStartedMatch records a match that skipped the WAITING phase, such
// as a tutorial game where both seats are filled at creation.
func (that *Registry) RegisterStartedMatch(hostID, guestID, gameID string) *Match {
	that.mu.Lock()
	defer that.mu.Unlock()

	match := &Match{
		Code:      identifier.NewMatchCode(),
		HostID:    hostID,
		GuestID:   guestID,
		GameID:    gameID,
		State:     MatchInProgress,
		CreatedAt: time.Now().UTC(),
	}
	that.matches[match.Code] = match

	return match
}

// Match returns the metadata for a join code.
func (that *Registry) Match(code string) (*Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	match, ok := that.matches[code]
	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	return match, nil
}

func (that *Registry) IsMatchWaiting(code string) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	match, ok := that.matches[code]

	return ok && match.State == MatchWaiting
}

// MatchesOf lists the matches a player currently appears in.
func (that *Registry) MatchesOf(playerID string) []*Match {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var out []*Match
	for _, match := range that.matches {
		if match.HasPlayer(playerID) {
			out = append(out, match)
		}
	}

	return out
}

// ClearPlayerMatches drops the registry entries the player no longer needs:
// WAITING invitations they created and matches whose backing game has
// finished. A match with a live game survives so the opponent can keep
// playing and the player can come back to it. Matches created within the
// last clearGuard window are kept; see clearGuard.
func (that *Registry) ClearPlayerMatches(ctx context.Context, playerID string) {
	now := time.Now().UTC()

	that.mu.RLock()
	var candidates []*Match
	for _, match := range that.matches {
		if match.HasPlayer(playerID) && now.Sub(match.CreatedAt) >= clearGuard {
			candidates = append(candidates, match)
		}
	}
	that.mu.RUnlock()

	for _, match := range candidates {
		switch {
		case match.State == MatchWaiting && match.HostID == playerID:
			that.remove(match.Code)
		case match.State == MatchCompleted:
			that.remove(match.Code)
		case match.State == MatchInProgress && match.GameID != "":
			targetGame, err := that.gameService.GetGameByID(ctx, match.GameID)
			if err != nil {
				that.logger.Error("failed to load game during cleanup", "gameID", match.GameID, "error", err)
				continue
			}
			if !targetGame.IsActive() {
				that.remove(match.Code)
			}
		}
	}
}

func (that *Registry) remove(code string) {
	that.mu.Lock()
	delete(that.matches, code)
	that.mu.Unlock()
}

// HandleLeave settles everything for a player who explicitly walked away:
// a game they are still playing is forfeited to the opponent, then their
// registry entries are cleared.
func (that *Registry) HandleLeave(ctx context.Context, playerID string) {
	that.mu.RLock()
	var running []*Match
	for _, match := range that.matches {
		if match.HasPlayer(playerID) && match.State == MatchInProgress {
			running = append(running, match)
		}
	}
	that.mu.RUnlock()

	for _, match := range running {
		if match.GameID == "" {
			continue
		}

		targetGame, err := that.gameService.GetGameByID(ctx, match.GameID)
		if err != nil {
			that.logger.Error("failed to load game on leave", "gameID", match.GameID, "error", err)
			continue
		}
		if !targetGame.IsActive() {
			that.MarkCompleted(match.Code)
			continue
		}

		winnerID := targetGame.OpponentOf(playerID)
		if _, err = that.gameService.ForceComplete(ctx, match.GameID, winnerID); err != nil {
			that.logger.Error("failed to complete game on leave", "gameID", match.GameID, "error", err)
			continue
		}

		that.MarkCompleted(match.Code)
		that.logger.Info("game forfeited on leave", "gameID", match.GameID, "winnerID", winnerID)
	}

	that.ClearPlayerMatches(ctx, playerID)
}

// MarkCompleted flips a match to COMPLETED once its game is terminal; the
// record stays until a ClearPlayerMatches sweep removes it.
func (that *Registry) MarkCompleted(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if match, ok := that.matches[code]; ok {
		match.State = MatchCompleted
	}
}

// HandleDisconnection records that the player's socket dropped. Open
// invitations vanish; a running match stays registered with the drop noted,
// so the player can reconnect and a game nobody returns to falls to the
// sweeper's abandonment thresholds.
func (that *Registry) HandleDisconnection(playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for code, match := range that.matches {
		if !match.HasPlayer(playerID) {
			continue
		}

		switch match.State {
		case MatchWaiting:
			delete(that.matches, code)
		case MatchInProgress:
			if match.Disconnected == nil {
				match.Disconnected = make(map[string]time.Time)
			}
			match.Disconnected[playerID] = time.Now().UTC()

			that.logger.Info("player disconnected from running match", "code", code, "playerID", playerID)
		case MatchCompleted:
		}
	}
}

// MarkReconnected clears a recorded disconnect once the player attaches again.
func (that *Registry) MarkReconnected(code, playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if match, ok := that.matches[code]; ok {
		delete(match.Disconnected, playerID)
	}
}
