package catalog

import (
	"context"

	"github.com/dgkngk/uav-rental-app/internal/domain"
)

type EquipmentRepository interface {
	List(ctx context.Context, f domain.EquipmentFilter) ([]domain.Equipment, error)
	GetByID(ctx context.Context, id int64) (*domain.Equipment, error)
	Create(ctx context.Context, e *domain.Equipment) error
	Update(ctx context.Context, e *domain.Equipment) error
	Delete(ctx context.Context, id int64) error
}
