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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgkngk/uav-rental-app/internal/app"
	"github.com/dgkngk/uav-rental-app/internal/config"
	"github.com/dgkngk/uav-rental-app/internal/database"
	"github.com/dgkngk/uav-rental-app/internal/events"
	"github.com/dgkngk/uav-rental-app/internal/metrics"
	"github.com/dgkngk/uav-rental-app/internal/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New("uav-rental", cfg.LogLevel)
	if err := run(cfg, zl); err != nil {
		zl.Error("api stopped", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

func run(cfg *config.Config, zl *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		return fmt.Errorf("database connect: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("database migrate: %w", err)
	}

	var publisher *events.Publisher
	if cfg.RabbitMQURL != "" {
		publisher, err = events.NewPublisher(cfg.RabbitMQURL, zl.Named("events"))
		if err != nil {
			zl.Warn("rabbitmq unavailable, rental events disabled", zap.Error(err))
		} else {
			defer func() { _ = publisher.Close() }()
		}
	}

	router := app.NewRouter(app.Deps{
		Config:  cfg,
		DB:      db,
		Log:     zl,
		Metrics: metrics.New(),
		Events:  publisher,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-quit:
	}

	zl.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
