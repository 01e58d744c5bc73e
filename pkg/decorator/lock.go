// Package decorator provides decorators for cross-cutting concerns around
// business operations.
package decorator

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/lock"
)

// WithLock runs fn while holding key on locker.
//
// Lifecycle:
//  1. Acquire key. A failure is returned as ACCOUNT_TRANSACTION_LOCK and fn
//     is not called.
//  2. Run fn with the caller's context.
//  3. Release key on every exit path, including an error result or a panic
//     in fn. Release failures are logged and never replace fn's result.
//
// Example:
//
//	view, err := decorator.WithLock(ctx, locker, "lock:account:1000123456", logger,
//	    func(ctx context.Context) (*dto.TransactionView, error) {
//	        return engine.UseBalance(ctx, userID, "1000123456", 3000)
//	    })
func WithLock[T any](
	ctx context.Context,
	locker lock.Locker,
	key string,
	logger *slog.Logger,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	logger = logger.With("lock_key", key)

	token, err := locker.Acquire(ctx, key)
	if err != nil {
		logger.Warn("Failed to acquire lock", "error", err)
		return zero, domain.Wrap(domain.AccountTransactionLock, err)
	}
	logger.Debug("Lock acquired")

	defer func() {
		// Release must outlive a cancelled request context.
		if err := locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			logger.Error("Failed to release lock", "error", err)
			return
		}
		logger.Debug("Lock released")
	}()

	return fn(ctx)
}
