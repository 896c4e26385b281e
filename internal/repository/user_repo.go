package repository

import (
	"context"
	"strings"

	"github.com/dgkngk/uav-rental-app/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	err := r.db.WithContext(ctx).Create(u).Error
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	tx := r.db.WithContext(ctx).
		Where("username = ?", strings.TrimSpace(username)).
		First(&u)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	tx := r.db.WithContext(ctx).First(&u, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &u, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&cnt).Error
	return cnt > 0, err
}
