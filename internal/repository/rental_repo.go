package repository

import (
	"context"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RentalRepository struct {
	db *gorm.DB
}

func NewRentalRepository(db *gorm.DB) *RentalRepository {
	return &RentalRepository{db: db}
}

// Start flips the equipment to rented and inserts the rental in one transaction.
// Only one of several concurrent starts on the same equipment can pass the
// conditional update; the rest get ErrEquipmentRented.
func (r *RentalRepository) Start(ctx context.Context, rental *domain.Rental) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Equipment{}).
			Where("id = ? AND rented = ?", rental.EquipmentID, false).
			Update("rented", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var cnt int64
			if err := tx.Model(&domain.Equipment{}).Where("id = ?", rental.EquipmentID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrEquipmentRented
		}

		rental.Active = true
		if err := tx.Omit(clause.Associations).Create(rental).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrEquipmentRented
			}
			return err
		}
		return nil
	})
}

// Close marks the rental inactive and releases the equipment unless another
// active rental still holds it.
func (r *RentalRepository) Close(ctx context.Context, rental *domain.Rental, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"active": false}
		if rental.Active || rental.ReturnedAt == nil {
			updates["returned_at"] = at
		}
		if err := tx.Model(&domain.Rental{}).Where("id = ?", rental.ID).Updates(updates).Error; err != nil {
			return err
		}

		var others int64
		if err := tx.Model(&domain.Rental{}).
			Where("equipment_id = ? AND active = ? AND id <> ?", rental.EquipmentID, true, rental.ID).
			Count(&others).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Equipment{}).
			Where("id = ?", rental.EquipmentID).
			Update("rented", others > 0).Error; err != nil {
			return err
		}

		return tx.Preload("Equipment").First(rental, rental.ID).Error
	})
}

// GetOwned finds a rental by id that belongs to userID.
func (r *RentalRepository) GetOwned(ctx context.Context, id, userID int64) (*domain.Rental, error) {
	var rental domain.Rental
	err := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("id = ? AND user_id = ?", id, userID).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *RentalRepository) UpdateDates(ctx context.Context, id int64, start, end *time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Rental{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rental_start": start,
			"rental_end":   end,
		}).Error
}

// ListActiveByUser returns the user's active rentals with equipment preloaded.
func (r *RentalRepository) ListActiveByUser(ctx context.Context, userID int64, f domain.RentalFilter) ([]domain.Rental, error) {
	q := r.db.WithContext(ctx).
		Preload("Equipment").
		Where("user_id = ? AND active = ?", userID, true)
	if f.StartAfter != nil {
		q = q.Where("rental_start >= ?", *f.StartAfter)
	}
	if f.EndBefore != nil {
		q = q.Where("rental_end <= ?", *f.EndBefore)
	}

	out := make([]domain.Rental, 0)
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RentalRepository) List(ctx context.Context, f domain.RentalListFilter) ([]domain.Rental, error) {
	q := r.db.WithContext(ctx).Preload("Equipment").Preload("User")
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.EquipmentID > 0 {
		q = q.Where("equipment_id = ?", f.EquipmentID)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}

	out := make([]domain.Rental, 0)
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
