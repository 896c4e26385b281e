package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	rentals   RentalRepository
	equipment EquipmentReader
	events    EventPublisher
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time
}

// NewService wires the booking core. events and recorder may be nil.
func NewService(
	rentals RentalRepository,
	equipment EquipmentReader,
	events EventPublisher,
	recorder Recorder,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		rentals:   rentals,
		equipment: equipment,
		events:    events,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

// Rent creates an active rental for the caller and marks the equipment rented.
func (s *Service) Rent(ctx context.Context, identity domain.Identity, equipmentID int64, req RentRequest) (*domain.Rental, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, invalidField("start_date", "invalid", MsgInvalidDate)
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, invalidField("end_date", "invalid", MsgInvalidDate)
	}

	eq, err := s.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	rental := &domain.Rental{
		UserID:      identity.UserID,
		EquipmentID: eq.ID,
		RentalStart: start,
		RentalEnd:   end,
	}
	if err := s.rentals.Start(ctx, rental); err != nil {
		if errors.Is(err, repository.ErrEquipmentRented) {
			if s.recorder != nil {
				s.recorder.RentalConflict()
			}
			return nil, ErrAlreadyRented
		}
		return nil, mapNotFound(err)
	}

	eq.Rented = true
	rental.Equipment = eq

	s.log.Info("rental started",
		zap.Int64("rental_id", rental.ID),
		zap.Int64("equipment_id", eq.ID),
		zap.Int64("user_id", identity.UserID),
	)
	if s.recorder != nil {
		s.recorder.RentalStarted()
	}
	if s.events != nil {
		if err := s.events.RentalStarted(ctx, rental); err != nil {
			s.log.Warn("rental.started not published", zap.Int64("rental_id", rental.ID), zap.Error(err))
		}
	}

	return rental, nil
}

// Return closes one of the caller's rentals and releases its equipment.
func (s *Service) Return(ctx context.Context, identity domain.Identity, rentalID int64) (*domain.Rental, error) {
	rental, err := s.owned(ctx, identity, rentalID)
	if err != nil {
		return nil, err
	}

	if err := s.rentals.Close(ctx, rental, s.now().UTC()); err != nil {
		return nil, mapNotFound(err)
	}

	s.log.Info("rental returned",
		zap.Int64("rental_id", rental.ID),
		zap.Int64("equipment_id", rental.EquipmentID),
		zap.Int64("user_id", identity.UserID),
	)
	if s.recorder != nil {
		s.recorder.RentalReturned()
	}
	if s.events != nil {
		if err := s.events.RentalReturned(ctx, rental); err != nil {
			s.log.Warn("rental.returned not published", zap.Int64("rental_id", rental.ID), zap.Error(err))
		}
	}

	return rental, nil
}

// UpdateRental overwrites the rental period. Both dates are required.
func (s *Service) UpdateRental(ctx context.Context, identity domain.Identity, rentalID int64, req RentRequest) (*domain.Rental, error) {
	rental, err := s.owned(ctx, identity, rentalID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.StartDate) == "" {
		return nil, invalidField("start_date", "required", MsgStartRequired)
	}
	if strings.TrimSpace(req.EndDate) == "" {
		return nil, invalidField("end_date", "required", MsgEndRequired)
	}
	start, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, invalidField("start_date", "invalid", MsgInvalidDate)
	}
	end, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, invalidField("end_date", "invalid", MsgInvalidDate)
	}

	if err := s.rentals.UpdateDates(ctx, rental.ID, start, end); err != nil {
		return nil, err
	}
	rental.RentalStart = start
	rental.RentalEnd = end
	return rental, nil
}

// Profile lists the caller's active rentals, optionally narrowed by period.
func (s *Service) Profile(ctx context.Context, identity domain.Identity, q ProfileQuery) ([]domain.Rental, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}

	var f domain.RentalFilter
	var err error
	if f.StartAfter, err = ParseDate(q.RentalStartDate); err != nil {
		return nil, invalidField("rental_start_date", "invalid", MsgInvalidDate)
	}
	if f.EndBefore, err = ParseDate(q.RentalEndDate); err != nil {
		return nil, invalidField("rental_end_date", "invalid", MsgInvalidDate)
	}

	return s.rentals.ListActiveByUser(ctx, identity.UserID, f)
}

// ListAll is the administrator's view over every rental.
func (s *Service) ListAll(ctx context.Context, identity domain.Identity, q AdminListQuery) ([]domain.Rental, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return nil, ErrForbidden
	}

	return s.rentals.List(ctx, domain.RentalListFilter{
		UserID:      q.UserID,
		EquipmentID: q.EquipmentID,
		Active:      q.Active,
	})
}

// owned loads a rental that belongs to the caller; anything else is not found.
func (s *Service) owned(ctx context.Context, identity domain.Identity, rentalID int64) (*domain.Rental, error) {
	if !identity.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	rental, err := s.rentals.GetOwned(ctx, rentalID, identity.UserID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return rental, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
