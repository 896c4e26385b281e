package repository

import (
	"context"
	"strings"

	"github.com/dgkngk/uav-rental-app/internal/domain"

	"gorm.io/gorm"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// List returns equipment matching every non-empty filter field, ordered by id.
func (r *EquipmentRepository) List(ctx context.Context, f domain.EquipmentFilter) ([]domain.Equipment, error) {
	q := r.db.WithContext(ctx).Model(&domain.Equipment{})

	if v := strings.TrimSpace(f.Brand); v != "" {
		q = q.Where(`LOWER(brand) LIKE ? ESCAPE '\'`, likePattern(v))
	}
	if v := strings.TrimSpace(f.Model); v != "" {
		q = q.Where(`LOWER(model) LIKE ? ESCAPE '\'`, likePattern(v))
	}
	if v := strings.TrimSpace(f.Category); v != "" {
		q = q.Where(`LOWER(category) LIKE ? ESCAPE '\'`, likePattern(v))
	}
	if v := strings.TrimSpace(f.Weight); v != "" {
		q = q.Where(`LOWER(CAST(weight AS TEXT)) LIKE ? ESCAPE '\'`, likePattern(v))
	}
	if f.Rented != nil {
		q = q.Where("rented = ?", *f.Rented)
	}

	out := make([]domain.Equipment, 0)
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*domain.Equipment, error) {
	var e domain.Equipment
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update writes the descriptive fields only; the rented flag belongs to the rental flow.
func (r *EquipmentRepository) Update(ctx context.Context, e *domain.Equipment) error {
	tx := r.db.WithContext(ctx).Model(&domain.Equipment{}).
		Where("id = ?", e.ID).
		Select("brand", "model", "category", "weight").
		Updates(map[string]any{
			"brand":    e.Brand,
			"model":    e.Model,
			"category": e.Category,
			"weight":   e.Weight,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).First(e, e.ID).Error
}

// Delete removes the equipment and every rental that references it.
func (r *EquipmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("equipment_id = ?", id).Delete(&domain.Rental{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Equipment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
