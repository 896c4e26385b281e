package auth

import (
	"context"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/jwt"
)

// UserRepository is the part of the user store the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// APITokenRepository stores hashed API keys.
type APITokenRepository interface {
	Create(ctx context.Context, t *domain.APIToken) error
	GetByHash(ctx context.Context, hash string) (*domain.APIToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	Touch(ctx context.Context, id int64, at time.Time) error
}

type sessionTokens interface {
	GenerateToken(userID int64, username, role string) (string, error)
	ValidateToken(token string) (*jwt.Claims, error)
}
