package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on db.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id int64) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAccountModelToDomain(&m), nil
}

// GetByNumber reads the account with FOR UPDATE, so the row stays locked
// until the surrounding unit of work ends.
func (r *accountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("account_number = ?", number).First(&m).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapAccountModelToDomain(&m), nil
}

func (r *accountRepository) ListByUser(ctx context.Context, userID int64) ([]*account.Account, error) {
	var rows []Account
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	result := make([]*account.Account, 0, len(rows))
	for i := range rows {
		result = append(result, mapAccountModelToDomain(&rows[i]))
	}
	return result, nil
}

func (r *accountRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Account{}).Where("user_id = ?", userID).Count(&n).Error
	return n, MapGormErrorToDomain(err)
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Account{}).Where("account_number = ?", number).Count(&n).Error
	return n > 0, MapGormErrorToDomain(err)
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountDomainToModel(a)
	if err := WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	}); err != nil {
		return err
	}
	a.ID = m.ID
	return nil
}

// Update persists the mutable fields: balance and lifecycle status.
func (r *accountRepository) Update(ctx context.Context, a *account.Account) error {
	res := r.db.WithContext(ctx).Model(&Account{}).Where("id = ?", a.ID).Updates(map[string]any{
		"balance":         a.Balance,
		"status":          string(a.Status),
		"unregistered_at": a.UnregisteredAt,
	})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %d: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

func mapAccountDomainToModel(a *account.Account) Account {
	return Account{
		ID:             a.ID,
		UserID:         a.UserID,
		AccountNumber:  a.Number,
		Type:           string(a.Type),
		Status:         string(a.Status),
		Balance:        a.Balance,
		RegisteredAt:   a.RegisteredAt,
		UnregisteredAt: a.UnregisteredAt,
	}
}

func mapAccountModelToDomain(m *Account) *account.Account {
	return &account.Account{
		ID:             m.ID,
		UserID:         m.UserID,
		Number:         m.AccountNumber,
		Type:           account.Type(m.Type),
		Status:         account.Status(m.Status),
		Balance:        m.Balance,
		RegisteredAt:   m.RegisteredAt,
		UnregisteredAt: m.UnregisteredAt,
	}
}
