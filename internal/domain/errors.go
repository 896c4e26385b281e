package domain

import "errors"

// ErrUnauthenticated means the caller presented no valid credentials.
var ErrUnauthenticated = errors.New("unauthenticated")
