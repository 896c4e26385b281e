package catalog

import (
	"errors"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

var (
	ErrNotFound        = errors.New("equipment not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrValidation      = errors.New("validation error")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Unwrap() error { return ErrValidation }
