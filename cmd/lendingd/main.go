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

	"device-lending-backend/config"
	"device-lending-backend/internal/api"
	"device-lending-backend/internal/db"
	"device-lending-backend/internal/lifecycle"
	"device-lending-backend/internal/model"
	"device-lending-backend/internal/notify"
	"device-lending-backend/internal/session"
	"device-lending-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "lending-backend ", log.LstdFlags)

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	engine := lifecycle.NewEngine(cfg.Reservation, appStore)
	sessions := session.NewRedisStore(cfg.Redis)
	logger.Println("data store initialized")

	// Staff push alerts are optional; without VAPID keys the sweep still
	// runs, it just notifies nobody.
	var onExpired func([]model.Reservation)
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions := webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notify.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
		pool.Start(ctx)
		onExpired = pool.DispatchExpired
	} else {
		logger.Println("VAPID keys not configured; staff push alerts disabled")
	}

	sweeper := lifecycle.NewSweeper(cfg.Sweep, engine, onExpired)
	go sweeper.Run(ctx)

	router := api.NewRouter(cfg, appStore, engine, sessions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
