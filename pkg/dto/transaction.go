package dto

import (
	"time"

	"github.com/amirasaad/ledger/pkg/domain/transaction"
)

// TransactionView is the read model returned by the transaction engine.
type TransactionView struct {
	AccountNumber   string             // Account the record belongs to
	Type            transaction.Type   // USE or CANCEL
	Result          transaction.Result // SUCCESS or FAIL
	TransactionID   string             // Public transaction identifier
	Amount          int64              // Amount in minor units
	BalanceSnapshot int64              // Balance right after the attempt
	TransactedAt    time.Time
}

// NewTransactionView derives the view of tx for the given account number.
func NewTransactionView(accountNumber string, tx *transaction.Transaction) *TransactionView {
	return &TransactionView{
		AccountNumber:   accountNumber,
		Type:            tx.Type,
		Result:          tx.Result,
		TransactionID:   tx.TransactionID,
		Amount:          tx.Amount,
		BalanceSnapshot: tx.BalanceSnapshot,
		TransactedAt:    tx.TransactedAt,
	}
}
