package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dgkngk/uav-rental-app/internal/config"
	"github.com/dgkngk/uav-rental-app/internal/database"
	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/logger"
)

var sampleUAVs = []domain.Equipment{
	{Brand: "DJI", Model: "Phantom 4 Pro", Category: "camera", Weight: 1.375},
	{Brand: "DJI", Model: "Mavic 3", Category: "camera", Weight: 0.895},
	{Brand: "DJI", Model: "Matrice 300 RTK", Category: "industrial", Weight: 6.3},
	{Brand: "DJI", Model: "Agras T30", Category: "agriculture", Weight: 26.4},
	{Brand: "Autel", Model: "EVO II Pro", Category: "camera", Weight: 1.191},
	{Brand: "Parrot", Model: "Anafi USA", Category: "inspection", Weight: 0.5},
	{Brand: "Skydio", Model: "X2", Category: "inspection", Weight: 1.3},
	{Brand: "Freefly", Model: "Alta X", Category: "cinema", Weight: 10.4},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl := logger.New("uav-rental-seed", cfg.LogLevel)
	if err := run(cfg, zl); err != nil {
		zl.Error("seed failed", zap.Error(err))
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

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if err := seedUser(db, "admin", "admin12345", domain.RoleAdmin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	zl.Info("admin ready", zap.String("username", "admin"), zap.String("password", "admin12345"))

	if err := seedUser(db, "pilot", "pilot12345", domain.RoleUser); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}
	zl.Info("user ready", zap.String("username", "pilot"), zap.String("password", "pilot12345"))

	created := 0
	for _, uav := range sampleUAVs {
		var count int64
		if err := db.Model(&domain.Equipment{}).
			Where("brand = ? AND model = ?", uav.Brand, uav.Model).
			Count(&count).Error; err != nil {
			return fmt.Errorf("lookup equipment: %w", err)
		}
		if count > 0 {
			continue
		}

		e := uav
		if err := db.Create(&e).Error; err != nil {
			return fmt.Errorf("create equipment %s %s: %w", uav.Brand, uav.Model, err)
		}
		created++
	}

	zl.Info("seed completed", zap.Int("equipment_created", created))
	return nil
}

// seedUser creates the user unless the username is already taken.
func seedUser(db *gorm.DB, username, password string, role domain.UserRole) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}).Error
}
