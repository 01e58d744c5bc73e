package transaction

import (
	"context"

	"github.com/amirasaad/ledger/pkg/decorator"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/lock"
)

// Locked serializes balance mutations per account number. Queries and the
// audit helpers pass through to the embedded Service unlocked.
type Locked struct {
	*Service
	locker    lock.Locker
	keyPrefix string
}

// NewLocked wraps svc so that UseBalance and CancelBalance hold the lock
// keyed by keyPrefix plus the account number for their whole duration.
func NewLocked(svc *Service, locker lock.Locker, keyPrefix string) *Locked {
	return &Locked{Service: svc, locker: locker, keyPrefix: keyPrefix}
}

func (l *Locked) key(accountNumber string) string {
	return l.keyPrefix + accountNumber
}

// UseBalance runs Service.UseBalance under the account lock.
func (l *Locked) UseBalance(
	ctx context.Context,
	userID int64,
	accountNumber string,
	amount int64,
) (*dto.TransactionView, error) {
	return decorator.WithLock(ctx, l.locker, l.key(accountNumber), l.logger,
		func(ctx context.Context) (*dto.TransactionView, error) {
			return l.Service.UseBalance(ctx, userID, accountNumber, amount)
		})
}

// CancelBalance runs Service.CancelBalance under the account lock.
func (l *Locked) CancelBalance(
	ctx context.Context,
	transactionID string,
	accountNumber string,
	amount int64,
) (*dto.TransactionView, error) {
	return decorator.WithLock(ctx, l.locker, l.key(accountNumber), l.logger,
		func(ctx context.Context) (*dto.TransactionView, error) {
			return l.Service.CancelBalance(ctx, transactionID, accountNumber, amount)
		})
}
