package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrEquipmentRented is returned when a rental is started on equipment that is already out.
	ErrEquipmentRented = errors.New("equipment already rented")
	// ErrDuplicate wraps unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// modernc sqlite errors are not translated by the gorm dialector
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// likePattern builds a case-insensitive containment pattern with LIKE wildcards escaped.
func likePattern(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(v)) + "%"
}
