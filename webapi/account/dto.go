package account

import (
	"time"

	"github.com/amirasaad/ledger/pkg/dto"
)

//revive:disable

// CreateAccountRequest represents the request body for opening an account.
type CreateAccountRequest struct {
	UserID         int64  `json:"userId" validate:"required,min=1"`
	InitialBalance int64  `json:"initialBalance" validate:"min=0"`
	AccountType    string `json:"accountType" validate:"omitempty,oneof=CHECKING SAVING MONEY_MARKET CERTIFICATE_OF_DEPOSIT"`
}

// DeleteAccountRequest represents the request body for unregistering an account.
type DeleteAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
}

// CreateAccountResponse is returned after an account is opened.
type CreateAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	AccountType   string    `json:"accountType"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

// DeleteAccountResponse is returned after an account is unregistered.
type DeleteAccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	UnregisteredAt *time.Time `json:"unregisteredAt"`
}

// AccountSummary is one row of the account listing.
type AccountSummary struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
	AccountType   string `json:"accountType"`
	Status        string `json:"status"`
}

//revive:enable

func toCreateResponse(v *dto.AccountView) CreateAccountResponse {
	return CreateAccountResponse{
		UserID:        v.UserID,
		AccountNumber: v.AccountNumber,
		AccountType:   string(v.Type),
		RegisteredAt:  v.RegisteredAt,
	}
}

func toDeleteResponse(v *dto.AccountView) DeleteAccountResponse {
	return DeleteAccountResponse{
		UserID:         v.UserID,
		AccountNumber:  v.AccountNumber,
		UnregisteredAt: v.UnregisteredAt,
	}
}

func toSummaries(views []*dto.AccountView) []AccountSummary {
	out := make([]AccountSummary, 0, len(views))
	for _, v := range views {
		out = append(out, AccountSummary{
			AccountNumber: v.AccountNumber,
			Balance:       v.Balance,
			AccountType:   string(v.Type),
			Status:        string(v.Status),
		})
	}
	return out
}
