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

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/Dakshesh-max/society-man/config"
	"github.com/Dakshesh-max/society-man/internal/api"
	"github.com/Dakshesh-max/society-man/internal/changefeed"
	"github.com/Dakshesh-max/society-man/internal/db"
	"github.com/Dakshesh-max/society-man/internal/notification"
	"github.com/Dakshesh-max/society-man/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "society ", log.LstdFlags)

	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

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

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker, closeBroker, err := newBroker(cfg.Realtime)
	if err != nil {
		logger.Fatalf("failed to initialize %s change channel: %v", cfg.Realtime.Backend, err)
	}
	defer closeBroker()
	logger.Printf("change channel initialized (%s)", cfg.Realtime.Backend)

	appStore := store.NewGormStore(gormDB, broker)
	logger.Println("data store initialized")

	var webpushOptions *webpush.Options
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}

		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		workerPool.Start(ctx)
		go func() {
			if err := workerPool.Watch(ctx, broker); err != nil {
				logger.Printf("announcement watcher stopped: %v", err)
			}
		}()
	} else {
		logger.Println("VAPID keys are not configured; push notifications are disabled")
	}

	// Initialize router
	router := api.NewRouter(ctx, appStore, broker, webpushOptions, api.Options{
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		Burst:     cfg.Server.RateLimitBurst,
		CacheTTL:  cfg.Server.CacheTTL,
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
	cancel()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

// newBroker builds the change channel selected by cfg.Backend.
func newBroker(cfg config.RealtimeConfig) (changefeed.Broker, func(), error) {
	switch cfg.Backend {
	case "memory":
		return changefeed.NewHub(), func() {}, nil
	case "redis":
		b, err := changefeed.NewRedisBroker(cfg.Redis, cfg.ChannelPrefix)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown realtime backend %q", cfg.Backend)
	}
}
