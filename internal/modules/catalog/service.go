package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/dgkngk/uav-rental-app/internal/domain"
	"github.com/dgkngk/uav-rental-app/internal/pkg/validator"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	equipment EquipmentRepository
	log       *zap.Logger
}

func NewService(equipment EquipmentRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{equipment: equipment, log: log}
}

// Available lists equipment that is not rented and matches every filter.
func (s *Service) Available(ctx context.Context, f domain.EquipmentFilter) ([]domain.Equipment, error) {
	notRented := false
	f.Rented = &notRented
	return s.equipment.List(ctx, f)
}

func (s *Service) List(ctx context.Context, f domain.EquipmentFilter) ([]domain.Equipment, error) {
	return s.equipment.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Equipment, error) {
	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return e, nil
}

func (s *Service) Create(ctx context.Context, identity domain.Identity, req EquipmentRequest) (*domain.Equipment, error) {
	if err := checkWrite(identity); err != nil {
		return nil, err
	}
	if err := validateRequest(req, true); err != nil {
		return nil, err
	}

	e := &domain.Equipment{}
	applyRequest(e, req, true)
	if err := s.equipment.Create(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("equipment created", zap.Int64("equipment_id", e.ID), zap.Int64("by", identity.UserID))
	return e, nil
}

// Update replaces the descriptive fields (full) or only the supplied ones (partial).
func (s *Service) Update(ctx context.Context, identity domain.Identity, id int64, req EquipmentRequest, partial bool) (*domain.Equipment, error) {
	if err := checkWrite(identity); err != nil {
		return nil, err
	}
	if err := validateRequest(req, !partial); err != nil {
		return nil, err
	}

	e, err := s.equipment.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	applyRequest(e, req, !partial)
	if err := s.equipment.Update(ctx, e); err != nil {
		return nil, mapNotFound(err)
	}
	return e, nil
}

// Delete removes the equipment and, through the store, its rentals.
func (s *Service) Delete(ctx context.Context, identity domain.Identity, id int64) error {
	if err := checkWrite(identity); err != nil {
		return err
	}
	if err := s.equipment.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}

	s.log.Info("equipment deleted", zap.Int64("equipment_id", id), zap.Int64("by", identity.UserID))
	return nil
}

func validateRequest(req EquipmentRequest, full bool) error {
	fields := validator.Validate(req)
	if full && req.Weight == nil {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["weight"] = "required"
	}
	if fields != nil {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// applyRequest copies the request onto e. In full mode missing text fields reset to "".
func applyRequest(e *domain.Equipment, req EquipmentRequest, full bool) {
	set := func(dst *string, v *string) {
		switch {
		case v != nil:
			*dst = strings.TrimSpace(*v)
		case full:
			*dst = ""
		}
	}
	set(&e.Brand, req.Brand)
	set(&e.Model, req.Model)
	set(&e.Category, req.Category)
	if req.Weight != nil {
		e.Weight = *req.Weight
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
