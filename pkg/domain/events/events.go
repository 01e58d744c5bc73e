package events

import "time"

// Event is anything published on the event bus.
type Event interface {
	Type() string
}

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypeTransactionRecorded EventType = "Transaction.Recorded"
	EventTypeAccountOpened       EventType = "Account.Opened"
	EventTypeAccountClosed       EventType = "Account.Closed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// TransactionRecorded is emitted after a ledger record has been committed,
// whether the attempt succeeded or failed.
type TransactionRecorded struct {
	TransactionID   string    `json:"transaction_id"`
	AccountNumber   string    `json:"account_number"`
	TransactionType string    `json:"transaction_type"`
	Result          string    `json:"transaction_result"`
	Amount          int64     `json:"amount"`
	BalanceSnapshot int64     `json:"balance_snapshot"`
	ErrorCode       string    `json:"error_code,omitempty"`
	TransactedAt    time.Time `json:"transacted_at"`
}

func (TransactionRecorded) Type() string { return EventTypeTransactionRecorded.String() }

// AccountOpened is emitted after a new account has been persisted.
type AccountOpened struct {
	UserID         int64     `json:"user_id"`
	AccountNumber  string    `json:"account_number"`
	AccountType    string    `json:"account_type"`
	InitialBalance int64     `json:"initial_balance"`
	RegisteredAt   time.Time `json:"registered_at"`
}

func (AccountOpened) Type() string { return EventTypeAccountOpened.String() }

// AccountClosed is emitted after an account has been unregistered.
type AccountClosed struct {
	UserID         int64     `json:"user_id"`
	AccountNumber  string    `json:"account_number"`
	UnregisteredAt time.Time `json:"unregistered_at"`
}

func (AccountClosed) Type() string { return EventTypeAccountClosed.String() }

// EventTypes maps each event type to a constructor used when decoding
// events read back from a broker.
var EventTypes = map[string]func() Event{
	EventTypeTransactionRecorded.String(): func() Event { return &TransactionRecorded{} },
	EventTypeAccountOpened.String():       func() Event { return &AccountOpened{} },
	EventTypeAccountClosed.String():       func() Event { return &AccountClosed{} },
}
