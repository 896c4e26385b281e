package repository

import (
	"context"
	"time"

	"github.com/dgkngk/uav-rental-app/internal/domain"

	"gorm.io/gorm"
)

// APITokenRepository provides DB access for API tokens.
type APITokenRepository struct {
	db *gorm.DB
}

func NewAPITokenRepository(db *gorm.DB) *APITokenRepository {
	return &APITokenRepository{db: db}
}

func (r *APITokenRepository) Create(ctx context.Context, t *domain.APIToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// GetByHash loads the token together with its owner.
func (r *APITokenRepository) GetByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	var t domain.APIToken
	err := r.db.WithContext(ctx).Preload("User").Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByHash removes a token; a missing token is not an error.
func (r *APITokenRepository) DeleteByHash(ctx context.Context, hash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", hash).Delete(&domain.APIToken{}).Error
}

func (r *APITokenRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.APIToken{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *APITokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&domain.APIToken{})
	return tx.RowsAffected, tx.Error
}
