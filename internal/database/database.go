package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

// Connect opens PostgreSQL for postgres:// DSNs and SQLite (pure Go driver) for anything else.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Info("connecting to PostgreSQL")
		db, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		return db, nil
	}

	log.Info("using SQLite", zap.String("dsn", dsn))

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        withSQLitePragmas(dsn),
		}),
		cfg,
	)
}

// withSQLitePragmas turns on foreign keys (cascades) and a busy timeout for every pooled connection.
func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Migrate creates the schema and the one-active-rental-per-equipment index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.APIToken{},
		&domain.Equipment{},
		&domain.Rental{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_rentals_one_active
ON rentals (equipment_id) WHERE active`).Error
	if err != nil {
		return fmt.Errorf("create active rental index: %w", err)
	}
	return nil
}

// Ping checks the underlying connection with a short timeout.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
