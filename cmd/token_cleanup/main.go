package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgkngk/uav-rental-app/internal/config"
	"github.com/dgkngk/uav-rental-app/internal/database"
	"github.com/dgkngk/uav-rental-app/internal/pkg/logger"
	"github.com/dgkngk/uav-rental-app/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New("uav-rental-token-cleanup", cfg.LogLevel)
	if err := run(cfg, zl); err != nil {
		zl.Error("token cleanup failed", zap.Error(err))
		_ = zl.Sync()
		os.Exit(1)
	}
	_ = zl.Sync()
}

func run(cfg *config.Config, zl *zap.Logger) error {
	db, err := database.Connect(cfg.DatabaseURL, zl)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := repository.NewAPITokenRepository(db).DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cleanup api_tokens: %w", err)
	}

	zl.Info("token cleanup completed", zap.Int64("api_tokens", deleted))
	return nil
}
