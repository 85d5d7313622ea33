package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sudoSubh/Collaborative-whiteboard/api/ws"
	"github.com/sudoSubh/Collaborative-whiteboard/config"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/bus"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/presence"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/room"
	"github.com/sudoSubh/Collaborative-whiteboard/internal/websocket"
	"github.com/sudoSubh/Collaborative-whiteboard/pkg/logger"
	"github.com/sudoSubh/Collaborative-whiteboard/service"
)

// App represents the main application structure holding all dependencies
type App struct {
	cfg            config.Config
	logger         logger.Logger
	busClient      *bus.Client
	presenceClient *presence.Client
	registry       *room.Registry
	relay          service.RelayService
	hub            *websocket.Hub
	httpServer     *http.Server
	rootCtx        context.Context
	cancel         context.CancelFunc
}

// NewApp initializes and connects all application dependencies
func NewApp(cfg config.Config) (*App, error) {
	// Create application root context
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	// Get scoped logger for app
	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	var busClient *bus.Client
	if cfg.NATSURL != "" {
		var err error
		busClient, err = bus.NewClient(cfg.NATSURL)
		if err != nil {
			rootCancel()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
	}

	var presenceClient *presence.Client
	if cfg.RedisURL != "" {
		var err error
		presenceClient, err = presence.NewClient(rootCtx, cfg.RedisURL)
		if err != nil {
			rootCancel()
			if busClient != nil {
				busClient.Close()
			}
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	registry := room.NewRegistry(cfg.RoomCapacity, baseLogger)
	reaper := room.NewReaper(registry, cfg.ReapGrace, baseLogger)
	relay := service.NewRelayService(rootCtx, registry, reaper, busClient, presenceClient)
	hub := websocket.NewHub()

	httpServer := createHTTPServer(rootCtx, cfg.Port, relay, hub)

	app := &App{
		cfg:            cfg,
		logger:         log,
		busClient:      busClient,
		presenceClient: presenceClient,
		registry:       registry,
		relay:          relay,
		hub:            hub,
		httpServer:     httpServer,
		rootCtx:        rootCtx,
		cancel:         rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

func createHTTPServer(ctx context.Context, port int, relay service.RelayService, hub *websocket.Hub) *http.Server {
	wsConfig := ws.WSConfig{
		Relay:   relay,
		Hub:     hub,
		RootCtx: ctx,
	}

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: ws.SetupRoutes(wsConfig),
	}
}

// Start runs the application and handles graceful shutdown on signal
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})

	log.Infof("Starting application server")

	go a.hub.Run()

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatalf("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})

	log.Infof("Initiating graceful shutdown")

	// Cancel root context first
	a.cancel()

	// Create shutdown timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("HTTP server shutdown error")
	}

	log.Infof("Closing websocket sessions")
	a.hub.Close()

	if a.busClient != nil {
		log.Infof("Closing NATS connection")
		a.busClient.Close()
	}

	if a.presenceClient != nil {
		log.Infof("Closing Redis connection")
		a.presenceClient.Close()
	}

	log.Infof("Shutdown completed successfully")
	return nil
}
