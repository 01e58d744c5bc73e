package dto

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
)

// AccountView is the read model for account queries and lifecycle results.
type AccountView struct {
	UserID         int64
	AccountNumber  string
	Type           account.Type
	Status         account.Status
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
}

// NewAccountView maps an account to its view.
func NewAccountView(a *account.Account) *AccountView {
	return &AccountView{
		UserID:         a.UserID,
		AccountNumber:  a.Number,
		Type:           a.Type,
		Status:         a.Status,
		Balance:        a.Balance,
		RegisteredAt:   a.RegisteredAt,
		UnregisteredAt: a.UnregisteredAt,
	}
}
