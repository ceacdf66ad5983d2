package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/SherClockHolmes/webpush-go"

	"pallet-board-backend/config"
	"pallet-board-backend/internal/api"
	"pallet-board-backend/internal/board"
	"pallet-board-backend/internal/classify"
	"pallet-board-backend/internal/coordinator"
	"pallet-board-backend/internal/db"
	"pallet-board-backend/internal/notification"
	"pallet-board-backend/internal/remote"
	"pallet-board-backend/internal/store"
	"pallet-board-backend/internal/ws"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "palletd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local database: push subscriptions always, board buckets unless badger is selected.
	localDB, err := db.InitLocal(&cfg.Local)
	if err != nil {
		logger.Fatalf("failed to initialize local database: %v", err)
	}

	var local store.LocalStore
	switch cfg.Local.Driver {
	case config.DriverBadger:
		local, err = store.OpenBadgerLocalStore(cfg.Local.BadgerDir)
		if err != nil {
			logger.Fatalf("failed to open badger store: %v", err)
		}
	case config.DriverSQLite:
		local = store.NewGormLocalStore(localDB)
	default:
		logger.Fatalf("unknown local driver %q", cfg.Local.Driver)
	}
	defer local.Close()
	logger.Printf("local store initialized (%s)", cfg.Local.Driver)

	// Optional remote mirror
	var remoteStore store.RemoteStore
	if cfg.Remote.Enabled {
		remoteDB, err := db.InitRemote(&cfg.Remote)
		if err != nil {
			logger.Fatalf("failed to initialize remote database: %v", err)
		}
		remoteStore = store.NewGormRemoteStore(remoteDB)
		logger.Println("remote mirror enabled")
	} else {
		logger.Println("remote mirror disabled; saving locally only")
	}

	b := board.New(board.WithLocation(cfg.Board.Location))
	coord := coordinator.New(b, local, remoteStore)
	if err := coord.Load(ctx); err != nil {
		logger.Fatalf("failed to load board: %v", err)
	}

	if remoteStore != nil {
		watcher := remote.NewWatcher(remoteStore, coord, cfg.Remote.PollInterval)
		go watcher.Run(ctx)
	}

	// Live updates for connected boards
	hub := ws.NewHub()
	go hub.Run(ctx)
	coord.Subscribe(hub.Listener())

	// Web push
	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, localDB, webpushOptions)
		workerPool.Start(ctx)
		coord.Subscribe(workerPool.Listener())
	} else {
		logger.Println("VAPID keys are not configured; push notifications disabled")
	}

	// Document scanning
	var classifier classify.Classifier
	if cfg.Classifier.Enabled {
		gemini, err := classify.NewGeminiClassifier(ctx, cfg.Classifier.APIKey, cfg.Classifier.Model)
		if err != nil {
			logger.Fatalf("failed to initialize classifier: %v", err)
		}
		defer gemini.Close()
		classifier = gemini
	}

	router := api.NewRouter(api.Deps{
		Server:        cfg.Server,
		Coordinator:   coord,
		Subscriptions: store.NewGormSubscriptionStore(localDB),
		WebPush:       webpushOptions,
		Classifier:    classifier,
		Hub:           hub,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}
	cancel()

	if coord.Status().Dirty {
		logger.Printf("exiting with unsaved changes (revision %d)", coord.Status().Revision)
	}
	logger.Println("Server gracefully stopped")
}
