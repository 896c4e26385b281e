package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/repository"
)

// Mock repositories
type MockRentalRepository struct {
	mock.Mock
}

func (m *MockRentalRepository) Start(ctx context.Context, r *domain.Rental) error {
	args := m.Called(ctx, r)
	if args.Error(0) == nil {
		r.ID = 999 // simulate DB insert
		r.Active = true
	}
	return args.Error(0)
}

func (m *MockRentalRepository) Close(ctx context.Context, r *domain.Rental, at time.Time) error {
	args := m.Called(ctx, r, at)
	if args.Error(0) == nil {
		r.Active = false
		r.ReturnedAt = &at
		if r.Equipment != nil {
			r.Equipment.Rented = false
		}
	}
	return args.Error(0)
}

func (m *MockRentalRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.Rental, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) UpdateDates(ctx context.Context, id int64, start, end *time.Time) error {
	return m.Called(ctx, id, start, end).Error(0)
}

func (m *MockRentalRepository) ListActiveByUser(ctx context.Context, userID int64, f domain.RentalFilter) ([]domain.Rental, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalRepository) List(ctx context.Context, f domain.RentalListFilter) ([]domain.Rental, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rental), args.Error(1)
}

type MockEquipmentReader struct {
	mock.Mock
}

func (m *MockEquipmentReader) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) RentalStarted(ctx context.Context, r *domain.Rental) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockEventPublisher) RentalReturned(ctx context.Context, r *domain.Rental) error {
	return m.Called(ctx, r).Error(0)
}

type countingRecorder struct {
	started, returned, conflicts int
}

func (r *countingRecorder) RentalStarted()  { r.started++ }
func (r *countingRecorder) RentalReturned() { r.returned++ }
func (r *countingRecorder) RentalConflict() { r.conflicts++ }

var (
	userA = domain.Identity{UserID: 1, Username: "alice", Role: domain.RoleUser}
	userB = domain.Identity{UserID: 2, Username: "bob", Role: domain.RoleUser}
	boss  = domain.Identity{UserID: 3, Username: "boss", Role: domain.RoleAdmin}
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestService_Rent_Success(t *testing.T) {
	rentals := new(MockRentalRepository)
	equipment := new(MockEquipmentReader)
	events := new(MockEventPublisher)
	rec := &countingRecorder{}

	e1 := &domain.Equipment{ID: 10, Brand: "DJI", Model: "Phantom", Weight: 2.5}
	equipment.On("GetByID", mock.Anything, int64(10)).Return(e1, nil)
	rentals.On("Start", mock.Anything, mock.MatchedBy(func(r *domain.Rental) bool {
		return r.UserID == 1 && r.EquipmentID == 10 &&
			r.RentalStart != nil && r.RentalStart.Equal(day(2023, 1, 1)) &&
			r.RentalEnd != nil && r.RentalEnd.Equal(day(2023, 1, 10))
	})).Return(nil)
	events.On("RentalStarted", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(rentals, equipment, events, rec, nil)
	rental, err := svc.Rent(context.Background(), userA, 10, RentRequest{StartDate: "2023-01-01", EndDate: "2023-01-10"})

	require.NoError(t, err)
	assert.Equal(t, int64(999), rental.ID)
	assert.True(t, rental.Active)
	require.NotNil(t, rental.Equipment)
	assert.True(t, rental.Equipment.Rented)
	assert.Equal(t, 1, rec.started)
	rentals.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestService_Rent_EmptyDatesAreNull(t *testing.T) {
	rentals := new(MockRentalRepository)
	equipment := new(MockEquipmentReader)

	equipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10}, nil)
	rentals.On("Start", mock.Anything, mock.MatchedBy(func(r *domain.Rental) bool {
		return r.RentalStart == nil && r.RentalEnd == nil
	})).Return(nil)

	svc := NewService(rentals, equipment, nil, nil, nil)
	_, err := svc.Rent(context.Background(), userA, 10, RentRequest{})
	require.NoError(t, err)
	rentals.AssertExpectations(t)
}

func TestService_Rent_EquipmentNotFound(t *testing.T) {
	rentals := new(MockRentalRepository)
	equipment := new(MockEquipmentReader)
	equipment.On("GetByID", mock.Anything, int64(77)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(rentals, equipment, nil, nil, nil)
	_, err := svc.Rent(context.Background(), userA, 77, RentRequest{})

	assert.ErrorIs(t, err, ErrNotFound)
	rentals.AssertNotCalled(t, "Start", mock.Anything, mock.Anything)
}

func TestService_Rent_AlreadyRented(t *testing.T) {
	rentals := new(MockRentalRepository)
	equipment := new(MockEquipmentReader)
	events := new(MockEventPublisher)
	rec := &countingRecorder{}

	equipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10, Rented: true}, nil)
	rentals.On("Start", mock.Anything, mock.Anything).Return(repository.ErrEquipmentRented)

	svc := NewService(rentals, equipment, events, rec, nil)
	_, err := svc.Rent(context.Background(), userB, 10, RentRequest{})

	assert.ErrorIs(t, err, ErrAlreadyRented)
	assert.Equal(t, 1, rec.conflicts)
	assert.Equal(t, 0, rec.started)
	events.AssertNotCalled(t, "RentalStarted", mock.Anything, mock.Anything)
}

func TestService_Rent_InvalidDate(t *testing.T) {
	svc := NewService(new(MockRentalRepository), new(MockEquipmentReader), nil, nil, nil)

	_, err := svc.Rent(context.Background(), userA, 10, RentRequest{StartDate: "next tuesday"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid", verr.Fields["start_date"])
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_Rent_Anonymous(t *testing.T) {
	svc := NewService(new(MockRentalRepository), new(MockEquipmentReader), nil, nil, nil)
	_, err := svc.Rent(context.Background(), domain.Identity{}, 10, RentRequest{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestService_Rent_PublishFailureDoesNotFail(t *testing.T) {
	rentals := new(MockRentalRepository)
	equipment := new(MockEquipmentReader)
	events := new(MockEventPublisher)

	equipment.On("GetByID", mock.Anything, int64(10)).Return(&domain.Equipment{ID: 10}, nil)
	rentals.On("Start", mock.Anything, mock.Anything).Return(nil)
	events.On("RentalStarted", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := NewService(rentals, equipment, events, nil, nil)
	rental, err := svc.Rent(context.Background(), userA, 10, RentRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(999), rental.ID)
}

func TestService_Return_Success(t *testing.T) {
	rentals := new(MockRentalRepository)
	events := new(MockEventPublisher)
	rec := &countingRecorder{}

	start, end := day(2023, 1, 1), day(2023, 1, 10)
	owned := &domain.Rental{
		ID: 5, UserID: 1, EquipmentID: 10, RentalStart: &start, RentalEnd: &end, Active: true,
		Equipment: &domain.Equipment{ID: 10, Brand: "DJI", Model: "Phantom", Rented: true},
	}
	now := day(2023, 1, 5)

	rentals.On("GetOwned", mock.Anything, int64(5), int64(1)).Return(owned, nil)
	rentals.On("Close", mock.Anything, owned, now).Return(nil)
	events.On("RentalReturned", mock.Anything, owned).Return(nil)

	svc := NewService(rentals, new(MockEquipmentReader), events, rec, nil)
	svc.now = func() time.Time { return now }

	rental, err := svc.Return(context.Background(), userA, 5)
	require.NoError(t, err)
	assert.False(t, rental.Active)
	require.NotNil(t, rental.ReturnedAt)
	assert.True(t, rental.ReturnedAt.Equal(now))
	assert.False(t, rental.Equipment.Rented)
	assert.Equal(t, 1, rec.returned)
	rentals.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestService_Return_OtherUsersRental(t *testing.T) {
	rentals := new(MockRentalRepository)
	rentals.On("GetOwned", mock.Anything, int64(5), int64(2)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)
	_, err := svc.Return(context.Background(), userB, 5)

	assert.ErrorIs(t, err, ErrNotFound)
	rentals.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateRental_Success(t *testing.T) {
	rentals := new(MockRentalRepository)
	owned := &domain.Rental{ID: 5, UserID: 1, EquipmentID: 10, Active: true}
	rentals.On("GetOwned", mock.Anything, int64(5), int64(1)).Return(owned, nil)
	rentals.On("UpdateDates", mock.Anything, int64(5),
		mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(day(2023, 2, 1)) }),
		mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(time.Date(2023, 2, 3, 12, 30, 0, 0, time.UTC)) }),
	).Return(nil)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)
	rental, err := svc.UpdateRental(context.Background(), userA, 5, RentRequest{StartDate: "2023-02-01", EndDate: "2023-02-03T12:30"})

	require.NoError(t, err)
	assert.True(t, rental.RentalStart.Equal(day(2023, 2, 1)))
	rentals.AssertExpectations(t)
}

func TestService_UpdateRental_MissingDates(t *testing.T) {
	rentals := new(MockRentalRepository)
	start, end := day(2023, 1, 1), day(2023, 1, 10)
	owned := &domain.Rental{ID: 5, UserID: 1, RentalStart: &start, RentalEnd: &end}
	rentals.On("GetOwned", mock.Anything, int64(5), int64(1)).Return(owned, nil)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)

	_, err := svc.UpdateRental(context.Background(), userA, 5, RentRequest{EndDate: "2023-01-20"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgStartRequired, verr.Message)

	_, err = svc.UpdateRental(context.Background(), userA, 5, RentRequest{StartDate: "2023-01-02", EndDate: "  "})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, MsgEndRequired, verr.Message)

	rentals.AssertNotCalled(t, "UpdateDates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.True(t, owned.RentalStart.Equal(start))
	assert.True(t, owned.RentalEnd.Equal(end))
}

func TestService_UpdateRental_NotFoundWinsOverValidation(t *testing.T) {
	rentals := new(MockRentalRepository)
	rentals.On("GetOwned", mock.Anything, int64(5), int64(2)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)
	_, err := svc.UpdateRental(context.Background(), userB, 5, RentRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Profile_Filters(t *testing.T) {
	rentals := new(MockRentalRepository)
	want := []domain.Rental{{ID: 1, UserID: 1, Active: true}}
	rentals.On("ListActiveByUser", mock.Anything, int64(1), mock.MatchedBy(func(f domain.RentalFilter) bool {
		return f.StartAfter != nil && f.StartAfter.Equal(day(2023, 1, 1)) && f.EndBefore == nil
	})).Return(want, nil)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)
	got, err := svc.Profile(context.Background(), userA, ProfileQuery{RentalStartDate: "2023-01-01"})

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_Profile_InvalidFilter(t *testing.T) {
	svc := NewService(new(MockRentalRepository), new(MockEquipmentReader), nil, nil, nil)
	_, err := svc.Profile(context.Background(), userA, ProfileQuery{RentalEndDate: "31/01/2023"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_ListAll_AdminOnly(t *testing.T) {
	rentals := new(MockRentalRepository)
	active := true
	rentals.On("List", mock.Anything, domain.RentalListFilter{UserID: 1, Active: &active}).Return([]domain.Rental{}, nil)

	svc := NewService(rentals, new(MockEquipmentReader), nil, nil, nil)

	_, err := svc.ListAll(context.Background(), userA, AdminListQuery{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListAll(context.Background(), domain.Identity{}, AdminListQuery{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	got, err := svc.ListAll(context.Background(), boss, AdminListQuery{UserID: 1, Active: &active})
	require.NoError(t, err)
	assert.Empty(t, got)
	rentals.AssertExpectations(t)
}
