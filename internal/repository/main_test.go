package repository

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dgkngk/uav-rental-app/internal/database"
	"github.com/dgkngk/uav-rental-app/internal/domain"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", name), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// setupFileDB opens a SQLite file so concurrent connections take real file locks.
func setupFileDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "rentals.db"), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedEquipment(t *testing.T, db *gorm.DB, brand, model, category string, weight float64) *domain.Equipment {
	t.Helper()
	e := &domain.Equipment{Brand: brand, Model: model, Category: category, Weight: weight}
	require.NoError(t, db.Create(e).Error)
	return e
}
