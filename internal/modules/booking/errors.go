package booking

import (
	"errors"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyRented   = errors.New("equipment already rented")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrValidation      = errors.New("validation error")
)

const (
	MsgStartRequired = "Please enter a start date."
	MsgEndRequired   = "Please enter an end date."
	MsgInvalidDate   = "Enter a valid date."
)

// ValidationError carries a user-facing message plus per-field codes and matches ErrValidation.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalidField(field, code, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string]string{field: code}}
}
