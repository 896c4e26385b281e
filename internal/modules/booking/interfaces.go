package booking

import (
	"context"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

// RentalRepository is the transactional rental store.
type RentalRepository interface {
	Start(ctx context.Context, r *domain.Rental) error
	Close(ctx context.Context, r *domain.Rental, at time.Time) error
	GetOwned(ctx context.Context, id, userID int64) (*domain.Rental, error)
	UpdateDates(ctx context.Context, id int64, start, end *time.Time) error
	ListActiveByUser(ctx context.Context, userID int64, f domain.RentalFilter) ([]domain.Rental, error)
	List(ctx context.Context, f domain.RentalListFilter) ([]domain.Rental, error)
}

type EquipmentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
}

// EventPublisher announces rental lifecycle changes. Failures never undo a rental.
type EventPublisher interface {
	RentalStarted(ctx context.Context, r *domain.Rental) error
	RentalReturned(ctx context.Context, r *domain.Rental) error
}

// Recorder counts rental outcomes.
type Recorder interface {
	RentalStarted()
	RentalReturned()
	RentalConflict()
}
