package repository

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/domain/user"
)

// AccountRepository defines the interface for account data access operations.
// Lookups of absent rows return domain.ErrNotFound.
type AccountRepository interface {
	Get(ctx context.Context, id int64) (*account.Account, error)
	GetByNumber(ctx context.Context, number string) (*account.Account, error)
	ListByUser(ctx context.Context, userID int64) ([]*account.Account, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	// Create inserts the account and assigns its ID.
	Create(ctx context.Context, a *account.Account) error
	Update(ctx context.Context, a *account.Account) error
}

// TransactionRepository defines the interface for the append-only ledger.
type TransactionRepository interface {
	// Create appends the record, assigning ID and TransactedAt when unset.
	Create(ctx context.Context, tx *transaction.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*transaction.Transaction, error)
	ListByAccount(ctx context.Context, accountID int64) ([]*transaction.Transaction, error)
	// ExistsCancelFor reports whether a successful cancel already reverses
	// the given transaction.
	ExistsCancelFor(ctx context.Context, originalTransactionID string) (bool, error)
}

// UserRepository defines the interface for user data access operations.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
}
