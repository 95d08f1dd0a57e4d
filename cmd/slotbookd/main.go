package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"slot-booking-backend/config"
	"slot-booking-backend/internal/api"
	"slot-booking-backend/internal/booking"
	"slot-booking-backend/internal/db"
	"slot-booking-backend/internal/logger"
	"slot-booking-backend/internal/notification"
	"slot-booking-backend/internal/payment"
	"slot-booking-backend/internal/store"
	"slot-booking-backend/internal/sweeper"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.File)
	logger.Log.Infof("configuration loaded from %s", configPath)

	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		logger.Log.Fatal("payment gateway credentials must be configured")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Log.Fatalf("failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	gateway := payment.NewRazorpayGateway(&cfg.Gateway)

	var notifier booking.Notifier
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		pool.Start(ctx)
		notifier = pool
		logger.Log.Infof("notification worker pool started (size %d)", cfg.WorkerPool.Size)
	} else {
		logger.Log.Warn("VAPID keys not configured, confirmation notifications disabled")
	}

	service := booking.NewService(appStore, gateway, cfg.Grid)
	reconciler := booking.NewReconciler(appStore, gateway, notifier)

	sweepSvc := sweeper.NewService(cfg.Sweeper, appStore)
	go sweepSvc.Run(ctx)

	handler := api.NewHandler(service, reconciler, appStore, webpushOptions)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Log.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Log.Info("shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Log.Info("server gracefully stopped")
}
