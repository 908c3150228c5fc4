package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridduel/gridduel-backend/internal/config"
	"github.com/gridduel/gridduel-backend/internal/registry"
	"github.com/gridduel/gridduel-backend/internal/repository"
	"github.com/gridduel/gridduel-backend/internal/repository/storage"
	"github.com/gridduel/gridduel-backend/internal/scheduler"
	"github.com/gridduel/gridduel-backend/internal/service"
	"github.com/gridduel/gridduel-backend/transport/rest"
	"github.com/gridduel/gridduel-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	deckRepo := repository.NewDeckRepository(redisStorage.Connection)
	cardRepo := repository.NewCardRepository(redisStorage.Connection)
	gameRepo := repository.NewGameRepository(redisStorage.Connection)

	playerService := service.NewPlayerService(playerRepo)
	deckService := service.NewDeckService(deckRepo)
	cardService := service.NewCardService(cardRepo)
	gameService := service.NewGameService(logger, gameRepo, playerService, deckService)
	botService := service.NewBotService()
	tutorialService := service.NewTutorialService(logger, playerService, deckService, gameService, botService)

	matchRegistry := registry.New(logger, gameService, deckService)

	sweeper := scheduler.New(logger, conf.Sweeper, gameService, gameRepo, matchRegistry)
	go sweeper.Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, playerService, deckService, cardService, gameService, tutorialService, matchRegistry)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, matchRegistry, gameService, tutorialService)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
