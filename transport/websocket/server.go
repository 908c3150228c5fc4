package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridduel/gridduel-backend/internal/registry"
	"github.com/gridduel/gridduel-backend/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// session is one player's live connection. writeMu serializes frames on the
// shared conn; gorilla forbids concurrent writers.
type session struct {
	playerID  string
	matchCode string

	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (that *session) send(msg *Message) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger *slog.Logger

	registry        *registry.Registry
	gameService     service.GameService
	tutorialService service.TutorialService

	handlers map[MessageType]func(ctx context.Context, sess *session, msg *Message) error

	mu       sync.RWMutex
	sessions map[string]*session

	// one mutex per match code keeps action processing and the resulting
	// broadcast atomic, so both players observe states in the same order
	matchLocks sync.Map
}

func New(logger *slog.Logger, matchRegistry *registry.Registry, gameService service.GameService, tutorialService service.TutorialService) *Server {
	server := &Server{
		logger:          logger,
		registry:        matchRegistry,
		gameService:     gameService,
		tutorialService: tutorialService,
		sessions:        make(map[string]*session),
	}

	server.handlers = map[MessageType]func(context.Context, *session, *Message) error{
		TypeJoinMatch:        server.handleJoinMatch,
		TypeLeaveMatch:       server.handleLeaveMatch,
		TypeGameAction:       server.handleGameAction,
		TypeGameStateRequest: server.handleGameStateRequest,
	}

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  0, // connections are long-lived
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  0,
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

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "playerId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sess := &session{playerID: playerID, conn: conn}
	that.register(sess)

	log.Info("player connected", "playerID", playerID)

	if err = sess.send(newMessage(TypeConnectionSuccess, ConnectionSuccessData{PlayerID: playerID})); err != nil {
		log.Error("failed to send connection ack", "error", err)
	}

	that.readLoop(ctx, sess)
	that.disconnect(sess)
}

func (that *Server) readLoop(ctx context.Context, sess *session) {
	log := that.logger.With("method", "readLoop", "playerID", sess.playerID)

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("connection closed unexpectedly", "error", err)
			}
			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			that.sendError(sess, "malformed message")
			continue
		}

		handler, ok := that.handlers[msg.Type]
		if !ok {
			that.sendError(sess, fmt.Sprintf("unknown message type %q", msg.Type))
			continue
		}

		if err = handler(ctx, sess, &msg); err != nil {
			log.Error("failed to handle message", "type", msg.Type, "error", err)
			that.sendError(sess, err.Error())
		}
	}
}

func (that *Server) register(sess *session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	// a reconnect replaces the previous session for the same player
	if old, ok := that.sessions[sess.playerID]; ok {
		_ = old.conn.Close()
	}
	that.sessions[sess.playerID] = sess
}

func (that *Server) disconnect(sess *session) {
	log := that.logger.With("method", "disconnect", "playerID", sess.playerID)

	that.mu.Lock()
	replaced := true
	if current, ok := that.sessions[sess.playerID]; ok && current == sess {
		delete(that.sessions, sess.playerID)
		replaced = false
	}
	matchCode := sess.matchCode
	that.mu.Unlock()

	_ = sess.conn.Close()

	// a session superseded by a reconnect must not report the player as gone
	if replaced || matchCode == "" {
		log.Info("player disconnected")
		return
	}

	that.registry.HandleDisconnection(sess.playerID)
	that.broadcastToMatch(matchCode, sess.playerID,
		newMessage(TypePlayerDisconnected, PlayerDisconnectedData{PlayerID: sess.playerID}))

	log.Info("player disconnected", "matchCode", matchCode)
}

// broadcastToMatch delivers a message to every connected participant of the
// match except skipPlayerID.
func (that *Server) broadcastToMatch(matchCode, skipPlayerID string, msg *Message) {
	match, err := that.registry.Match(matchCode)
	if err != nil {
		return
	}

	for _, playerID := range []string{match.HostID, match.GuestID} {
		if playerID == "" || playerID == skipPlayerID {
			continue
		}

		that.mu.RLock()
		sess, ok := that.sessions[playerID]
		that.mu.RUnlock()
		if !ok {
			continue
		}

		if err = sess.send(msg); err != nil {
			that.logger.Error("failed to broadcast", "playerID", playerID, "error", err)
		}
	}
}

func (that *Server) sendError(sess *session, message string) {
	if err := sess.send(newMessage(TypeError, ErrorData{Message: message})); err != nil {
		that.logger.Error("failed to send error message", "error", err)
	}
}

func (that *Server) lockMatch(matchCode string) func() {
	value, _ := that.matchLocks.LoadOrStore(matchCode, &sync.Mutex{})
	mu, _ := value.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

func (that *Server) sessionOf(playerID string) (*session, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.sessions[playerID]

	return sess, ok
}
