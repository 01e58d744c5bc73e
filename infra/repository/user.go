package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository on db.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	var m User
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return &user.User{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}, nil
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	m := User{Name: u.Name, CreatedAt: u.CreatedAt}
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	return nil
}
