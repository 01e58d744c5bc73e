package transaction

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
)

// Type is the kind of balance mutation a ledger record describes.
type Type string

const (
	Use    Type = "USE"
	Cancel Type = "CANCEL"
)

// Result tells whether the attempt was applied.
type Result string

const (
	Success Result = "SUCCESS"
	Fail    Result = "FAIL"
)

// Transaction is an immutable ledger record of a use or cancel attempt.
// BalanceSnapshot is the account balance right after the attempt; for
// failed attempts it equals the unchanged balance.
type Transaction struct {
	ID                    int64
	TransactionID         string
	Type                  Type
	Result                Result
	AccountID             int64
	Amount                int64
	BalanceSnapshot       int64
	OriginalTransactionID *string
	TransactedAt          time.Time
}

// CancelWindow is how far back a successful use may still be cancelled.
func CancelWindow(now time.Time) time.Time {
	return now.AddDate(-1, 0, 0)
}

// ValidateCancel checks that the record may be reversed by a cancel of
// amount against accountID at time now. Checks run in order and the first
// failure wins.
func (t *Transaction) ValidateCancel(accountID, amount int64, now time.Time) error {
	if t.AccountID != accountID {
		return domain.NewError(domain.TransactionAccountUnmatched)
	}
	if t.Amount != amount {
		return domain.NewError(domain.CancelMustFully)
	}
	if t.TransactedAt.Before(CancelWindow(now)) {
		return domain.NewError(domain.TooOldOrderToCancel)
	}
	if t.Type != Use || t.Result != Success {
		return domain.Errorf(domain.InvalidRequest, "only a successful use can be cancelled")
	}
	return nil
}
