package transaction

import (
	"time"

	"github.com/amirasaad/ledger/pkg/dto"
)

//revive:disable

// UseRequest represents the request body for drawing from an account balance.
type UseRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"required,min=10,max=1000000000"`
}

// CancelRequest represents the request body for reversing a use.
type CancelRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"required,min=10,max=1000000000"`
}

// BalanceResponse is returned by use and cancel.
type BalanceResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
	BalanceSnapshot   int64     `json:"balanceSnapshot"`
}

// QueryResponse is returned by the transaction lookup.
type QueryResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionType   string    `json:"transactionType"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	TransactedAt      time.Time `json:"transactedAt"`
}

//revive:enable

func toBalanceResponse(v *dto.TransactionView) BalanceResponse {
	return BalanceResponse{
		AccountNumber:     v.AccountNumber,
		TransactionResult: string(v.Result),
		TransactionID:     v.TransactionID,
		Amount:            v.Amount,
		TransactedAt:      v.TransactedAt,
		BalanceSnapshot:   v.BalanceSnapshot,
	}
}

func toQueryResponse(v *dto.TransactionView) QueryResponse {
	return QueryResponse{
		AccountNumber:     v.AccountNumber,
		TransactionType:   string(v.Type),
		TransactionResult: string(v.Result),
		TransactionID:     v.TransactionID,
		Amount:            v.Amount,
		TransactedAt:      v.TransactedAt,
	}
}
