package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/validator"
	"github.com/dgkngk/uav-rental-app/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service contains credential checks, browser sessions and API keys.
type Service struct {
	users       UserRepository
	tokens      APITokenRepository
	sessions    sessionTokens
	tokenPepper string
	tokenTTL    time.Duration
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	users UserRepository,
	tokens APITokenRepository,
	sessions sessionTokens,
	tokenPepper string,
	tokenTTL time.Duration,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		sessions:    sessions,
		tokenPepper: tokenPepper,
		tokenTTL:    tokenTTL,
		log:         log,
		now:         time.Now,
	}
}

func (s *Service) Register(ctx context.Context, req SignupRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if fields := validator.Validate(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// RegisterForm validates the browser form (matching passwords) and registers the user.
func (s *Service) RegisterForm(ctx context.Context, form SignupForm) (*domain.User, error) {
	if form.Password1 != form.Password2 {
		return nil, &ValidationError{Fields: map[string]string{"password2": "mismatch"}}
	}
	return s.Register(ctx, SignupRequest{Username: form.Username, Password: form.Password1})
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueAPIToken creates a new API key for the user and returns the raw key.
func (s *Service) IssueAPIToken(ctx context.Context, user *domain.User) (string, error) {
	raw, hash, err := generateOpaqueToken(s.tokenPepper)
	if err != nil {
		return "", err
	}

	t := &domain.APIToken{
		UserID:    user.ID,
		TokenHash: hash,
	}
	if s.tokenTTL > 0 {
		exp := s.now().Add(s.tokenTTL)
		t.ExpiresAt = &exp
	}

	if err := s.tokens.Create(ctx, t); err != nil {
		return "", err
	}
	return raw, nil
}

// RevokeAPIToken deletes the key if it exists.
func (s *Service) RevokeAPIToken(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return s.tokens.DeleteByHash(ctx, hashTokenWithPepper(raw, s.tokenPepper))
}

func (s *Service) ResolveAPIToken(ctx context.Context, raw string) (domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Identity{}, ErrUnauthorized
	}

	t, err := s.tokens.GetByHash(ctx, hashTokenWithPepper(raw, s.tokenPepper))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, ErrUnauthorized
		}
		return domain.Identity{}, err
	}

	now := s.now()
	if t.IsExpired(now) || t.User == nil {
		return domain.Identity{}, ErrUnauthorized
	}
	if err := s.tokens.Touch(ctx, t.ID, now); err != nil {
		s.log.Debug("api token touch failed", zap.Int64("token_id", t.ID), zap.Error(err))
	}

	return identityOf(t.User), nil
}

// StartSession signs a browser session token for the user.
func (s *Service) StartSession(user *domain.User) (string, error) {
	return s.sessions.GenerateToken(user.ID, user.Username, string(user.Role))
}

// ResolveSession validates a session token and reloads the user it names.
func (s *Service) ResolveSession(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := s.sessions.ValidateToken(token)
	if err != nil {
		return domain.Identity{}, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Identity{}, ErrUnauthorized
		}
		return domain.Identity{}, err
	}
	return identityOf(user), nil
}

func identityOf(u *domain.User) domain.Identity {
	return domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateOpaqueToken(pepper string) (raw string, hash string, err error) {
	buf := make([]byte, 20)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	hash = hashTokenWithPepper(raw, pepper)
	return raw, hash, nil
}

func hashTokenWithPepper(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
