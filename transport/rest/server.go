package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gorillahandlers "github.com/gorilla/handlers"

	"github.com/gridduel/gridduel-backend/internal/apperror"
	"github.com/gridduel/gridduel-backend/internal/entity"
	"github.com/gridduel/gridduel-backend/internal/registry"
	"github.com/gridduel/gridduel-backend/internal/service"
)

// Server is the thin HTTP side of the backend: account and deck management
// plus match creation. Gameplay itself happens over the socket.
type Server struct {
	logger *slog.Logger

	playerService   service.PlayerService
	deckService     service.DeckService
	cardService     service.CardService
	gameService     service.GameService
	tutorialService service.TutorialService
	registry        *registry.Registry
}

func New(logger *slog.Logger, playerService service.PlayerService, deckService service.DeckService, cardService service.CardService, gameService service.GameService, tutorialService service.TutorialService, matchRegistry *registry.Registry) *Server {
	return &Server{
		logger:          logger,
		playerService:   playerService,
		deckService:     deckService,
		cardService:     cardService,
		gameService:     gameService,
		tutorialService: tutorialService,
		registry:        matchRegistry,
	}
}

func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("POST /players", that.handleCreatePlayer)
	mux.HandleFunc("GET /players/{id}", that.handleGetPlayer)
	mux.HandleFunc("POST /decks", that.handleCreateDeck)
	mux.HandleFunc("GET /decks/{id}", that.handleGetDeck)
	mux.HandleFunc("GET /players/{id}/decks", that.handleGetPlayerDecks)
	mux.HandleFunc("POST /cards", that.handleCreateCard)
	mux.HandleFunc("GET /cards/{id}", that.handleGetCard)
	mux.HandleFunc("POST /matches", that.handleCreateMatch)
	mux.HandleFunc("POST /matches/tutorial", that.handleCreateTutorial)
	mux.HandleFunc("POST /matches/{code}/join", that.handleJoinMatch)
	mux.HandleFunc("GET /matches/{code}", that.handleGetMatch)
	mux.HandleFunc("DELETE /players/{id}/matches", that.handleClearMatches)
	mux.HandleFunc("GET /players/{id}/games/active", that.handleActiveGame)

	handler := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)(gorillahandlers.LoggingHandler(os.Stdout, mux))

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type createPlayerRequest struct {
	Name string `json:"name"`
}

func (that *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		that.writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	player, err := that.playerService.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, player)
}

func (that *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := that.playerService.GetPlayerByID(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, player)
}

type createDeckRequest struct {
	OwnerID string        `json:"ownerId"`
	Cards   []entity.Card `json:"cards"`
}

func (that *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	deck, err := that.deckService.CreateDeck(r.Context(), req.OwnerID, req.Cards)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDeckSize) {
			that.writeError(w, http.StatusBadRequest, err)
			return
		}
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusCreated, deck)
}

func (that *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := that.deckService.GetDeck(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, deck)
}

func (that *Server) handleGetPlayerDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := that.deckService.GetPlayerDecks(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, decks)
}

type createCardRequest struct {
	Power    int    `json:"power"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func (that *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		that.writeError(w, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	card, err := that.cardService.CreateCard(r.Context(), req.Power, req.Name, req.ImageURL)
	if err != nil {
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, card)
}

func (that *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := that.cardService.GetCardByID(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, card)
}

type createMatchRequest struct {
	PlayerID string `json:"playerId"`
	DeckID   string `json:"deckId,omitempty"`
}

func (that *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		that.writeError(w, http.StatusBadRequest, errors.New("playerId is required"))
		return
	}

	match, err := that.registry.CreateMatch(r.Context(), req.PlayerID, req.DeckID)
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusCreated, match)
}

func (that *Server) handleJoinMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		that.writeError(w, http.StatusBadRequest, errors.New("playerId is required"))
		return
	}

	match, _, err := that.registry.JoinMatch(r.Context(), r.PathValue("code"), req.PlayerID, req.DeckID)
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, match)
}

// handleCreateTutorial starts a practice game against the scripted opponent
// and registers it as an already-running match.
func (that *Server) handleCreateTutorial(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		that.writeError(w, http.StatusBadRequest, errors.New("playerId is required"))
		return
	}

	newGame, err := that.tutorialService.StartTutorial(r.Context(), req.PlayerID, req.DeckID)
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	match := that.registry.RegisterStartedMatch(req.PlayerID, newGame.OpponentOf(req.PlayerID), newGame.ID)

	that.writeJSON(w, http.StatusCreated, match)
}

func (that *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := that.registry.Match(r.PathValue("code"))
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	that.writeJSON(w, http.StatusOK, match)
}

func (that *Server) handleClearMatches(w http.ResponseWriter, r *http.Request) {
	that.registry.HandleLeave(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (that *Server) handleActiveGame(w http.ResponseWriter, r *http.Request) {
	playerID := r.PathValue("id")

	activeGame, err := that.gameService.LatestActiveGame(r.Context(), playerID)
	if err != nil {
		that.writeError(w, statusOf(err), err)
		return
	}

	view, err := that.gameService.GameView(r.Context(), activeGame, playerID)
	if err != nil {
		that.writeError(w, http.StatusInternalServerError, err)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) writeError(w http.ResponseWriter, status int, err error) {
	that.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrPlayerNotFound),
		errors.Is(err, apperror.ErrDeckNotFound),
		errors.Is(err, apperror.ErrCardNotFound),
		errors.Is(err, apperror.ErrGameNotFound),
		errors.Is(err, apperror.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrMatchAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrDeckUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
