package auth

import (
	"errors"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUnauthorized       = domain.ErrUnauthenticated
	ErrValidation         = errors.New("validation error")
)

// ValidationError carries per-field messages and matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Unwrap() error { return ErrValidation }
