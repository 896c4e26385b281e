package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/jwt"
	"github.com/dgkngk/uav-rental-app/internal/repository"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil && u.ID == 0 {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

type MockAPITokenRepository struct {
	mock.Mock
}

func (m *MockAPITokenRepository) Create(ctx context.Context, t *domain.APIToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockAPITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIToken), args.Error(1)
}

func (m *MockAPITokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func (m *MockAPITokenRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

const testPepper = "pepper"

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(users *MockUserRepository, tokens *MockAPITokenRepository, ttl time.Duration) *Service {
	s := NewService(users, tokens, jwt.New("test-secret", time.Hour), testPepper, ttl, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_Success(t *testing.T) {
	users := new(MockUserRepository)
	users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Username == "alice" &&
			u.Role == domain.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("alice-password")) == nil
	})).Return(nil)

	user, err := newTestService(users, nil, 0).Register(context.Background(), SignupRequest{Username: " alice ", Password: "alice-password"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)
	users.AssertExpectations(t)
}

func TestRegister_Validation(t *testing.T) {
	users := new(MockUserRepository)
	s := newTestService(users, nil, 0)

	_, err := s.Register(context.Background(), SignupRequest{Username: "al ice", Password: "short"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "username", verr.Fields["username"])
	assert.Equal(t, "min", verr.Fields["password"])

	_, err = s.Register(context.Background(), SignupRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["username"])
	assert.Equal(t, "required", verr.Fields["password"])

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UsernameTaken(t *testing.T) {
	users := new(MockUserRepository)
	users.On("ExistsByUsername", mock.Anything, "alice").Return(true, nil)

	_, err := newTestService(users, nil, 0).Register(context.Background(), SignupRequest{Username: "alice", Password: "alice-password"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UniqueViolationRace(t *testing.T) {
	users := new(MockUserRepository)
	users.On("ExistsByUsername", mock.Anything, "alice").Return(false, nil)
	users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := newTestService(users, nil, 0).Register(context.Background(), SignupRequest{Username: "alice", Password: "alice-password"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterForm_PasswordMismatch(t *testing.T) {
	users := new(MockUserRepository)

	_, err := newTestService(users, nil, 0).RegisterForm(context.Background(), SignupForm{
		Username: "alice", Password1: "alice-password", Password2: "other-password",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string]string{"password2": "mismatch"}, verr.Fields)
	users.AssertNotCalled(t, "ExistsByUsername", mock.Anything, mock.Anything)
}

func TestAuthenticate(t *testing.T) {
	users := new(MockUserRepository)
	alice := &domain.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "alice-password"), Role: domain.RoleUser}
	users.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, gorm.ErrRecordNotFound)
	users.On("GetByUsername", mock.Anything, "broken").Return(nil, errors.New("db down"))
	s := newTestService(users, nil, 0)

	user, err := s.Authenticate(context.Background(), "alice", "alice-password")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)

	_, err = s.Authenticate(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(context.Background(), "broken", "whatever")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueAPIToken_StoresPepperedHash(t *testing.T) {
	tokens := new(MockAPITokenRepository)
	var stored *domain.APIToken
	tokens.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.APIToken)
	}).Return(nil)

	raw, err := newTestService(nil, tokens, 24*time.Hour).IssueAPIToken(context.Background(), &domain.User{ID: 7})
	require.NoError(t, err)

	assert.Len(t, raw, 40)
	require.NotNil(t, stored)
	assert.Equal(t, int64(7), stored.UserID)
	assert.Equal(t, hashTokenWithPepper(raw, testPepper), stored.TokenHash)
	assert.NotEqual(t, raw, stored.TokenHash)
	require.NotNil(t, stored.ExpiresAt)
	assert.Equal(t, fixedNow.Add(24*time.Hour), *stored.ExpiresAt)
}

func TestIssueAPIToken_ZeroTTLNeverExpires(t *testing.T) {
	tokens := new(MockAPITokenRepository)
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(tok *domain.APIToken) bool {
		return tok.ExpiresAt == nil
	})).Return(nil)

	_, err := newTestService(nil, tokens, 0).IssueAPIToken(context.Background(), &domain.User{ID: 7})
	require.NoError(t, err)
	tokens.AssertExpectations(t)
}

func TestIssueAPIToken_Unique(t *testing.T) {
	tokens := new(MockAPITokenRepository)
	tokens.On("Create", mock.Anything, mock.Anything).Return(nil)
	s := newTestService(nil, tokens, 0)

	a, err := s.IssueAPIToken(context.Background(), &domain.User{ID: 7})
	require.NoError(t, err)
	b, err := s.IssueAPIToken(context.Background(), &domain.User{ID: 7})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestResolveAPIToken(t *testing.T) {
	alice := &domain.User{ID: 7, Username: "alice", Role: domain.RoleAdmin}
	past := fixedNow.Add(-time.Minute)

	tokens := new(MockAPITokenRepository)
	tokens.On("GetByHash", mock.Anything, hashTokenWithPepper("good", testPepper)).
		Return(&domain.APIToken{ID: 3, UserID: 7, User: alice}, nil)
	tokens.On("GetByHash", mock.Anything, hashTokenWithPepper("expired", testPepper)).
		Return(&domain.APIToken{ID: 4, UserID: 7, User: alice, ExpiresAt: &past}, nil)
	tokens.On("GetByHash", mock.Anything, hashTokenWithPepper("unknown", testPepper)).
		Return(nil, gorm.ErrRecordNotFound)
	tokens.On("Touch", mock.Anything, int64(3), fixedNow).Return(nil)
	s := newTestService(nil, tokens, 0)

	id, err := s.ResolveAPIToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: 7, Username: "alice", Role: domain.RoleAdmin}, id)
	tokens.AssertCalled(t, "Touch", mock.Anything, int64(3), fixedNow)

	_, err = s.ResolveAPIToken(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.ResolveAPIToken(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = s.ResolveAPIToken(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrUnauthorized)
	tokens.AssertNumberOfCalls(t, "GetByHash", 3)
}

func TestResolveAPIToken_TouchFailureIsLogged(t *testing.T) {
	alice := &domain.User{ID: 7, Username: "alice", Role: domain.RoleUser}
	tokens := new(MockAPITokenRepository)
	tokens.On("GetByHash", mock.Anything, hashTokenWithPepper("good", testPepper)).
		Return(&domain.APIToken{ID: 3, UserID: 7, User: alice}, nil)
	tokens.On("Touch", mock.Anything, int64(3), fixedNow).Return(errors.New("database is locked"))

	core, logs := observer.New(zapcore.DebugLevel)
	s := NewService(nil, tokens, jwt.New("test-secret", time.Hour), testPepper, 0, zap.New(core))
	s.now = func() time.Time { return fixedNow }

	id, err := s.ResolveAPIToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)

	entries := logs.FilterMessage("api token touch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(3), entries[0].ContextMap()["token_id"])
}

func TestRevokeAPIToken(t *testing.T) {
	tokens := new(MockAPITokenRepository)
	tokens.On("DeleteByHash", mock.Anything, hashTokenWithPepper("key", testPepper)).Return(nil)
	s := newTestService(nil, tokens, 0)

	require.NoError(t, s.RevokeAPIToken(context.Background(), " key "))
	require.NoError(t, s.RevokeAPIToken(context.Background(), ""))
	tokens.AssertNumberOfCalls(t, "DeleteByHash", 1)
}

func TestSession_RoundTrip(t *testing.T) {
	users := new(MockUserRepository)
	alice := &domain.User{ID: 7, Username: "alice", Role: domain.RoleUser}
	users.On("GetByID", mock.Anything, int64(7)).Return(alice, nil).Once()
	users.On("GetByID", mock.Anything, int64(7)).Return(nil, gorm.ErrRecordNotFound)
	s := newTestService(users, nil, 0)

	token, err := s.StartSession(alice)
	require.NoError(t, err)

	id, err := s.ResolveSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "alice", id.Username)

	_, err = s.ResolveSession(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthorized, "deleted user")

	_, err = s.ResolveSession(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
