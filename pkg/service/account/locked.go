package account

import (
	"context"
	"strconv"

	"github.com/amirasaad/ledger/pkg/decorator"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/lock"
)

// Locked serializes account closure with balance mutations of the same
// account, and account creation per user so the per-user limit holds.
type Locked struct {
	*Service
	locker        lock.Locker
	accountPrefix string
	userPrefix    string
}

// NewLocked wraps svc. accountPrefix must match the prefix used by the
// transaction engine so closures and mutations share one lock.
func NewLocked(svc *Service, locker lock.Locker, accountPrefix, userPrefix string) *Locked {
	return &Locked{Service: svc, locker: locker, accountPrefix: accountPrefix, userPrefix: userPrefix}
}

// CreateAccount runs Service.CreateAccount under the user lock.
func (l *Locked) CreateAccount(
	ctx context.Context,
	userID int64,
	initialBalance int64,
	t account.Type,
) (*dto.AccountView, error) {
	key := l.userPrefix + strconv.FormatInt(userID, 10)
	return decorator.WithLock(ctx, l.locker, key, l.logger,
		func(ctx context.Context) (*dto.AccountView, error) {
			return l.Service.CreateAccount(ctx, userID, initialBalance, t)
		})
}

// DeleteAccount runs Service.DeleteAccount under the account lock.
func (l *Locked) DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*dto.AccountView, error) {
	return decorator.WithLock(ctx, l.locker, l.accountPrefix+accountNumber, l.logger,
		func(ctx context.Context) (*dto.AccountView, error) {
			return l.Service.DeleteAccount(ctx, userID, accountNumber)
		})
}
