package cache

import (
	"context"
	"time"

	"github.com/amirasaad/ledger/pkg/dto"
)

// TransactionCache caches ledger record views by transaction-id. Records
// are immutable once written, so entries never need invalidation.
// A miss returns (nil, nil).
type TransactionCache interface {
	Get(ctx context.Context, transactionID string) (*dto.TransactionView, error)
	Set(ctx context.Context, view *dto.TransactionView, ttl time.Duration) error
}
