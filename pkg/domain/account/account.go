package account

import (
	"math"
	"regexp"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
)

// Type is the product kind of an account. It decides the account number prefix.
type Type string

const (
	Checking             Type = "CHECKING"
	Saving               Type = "SAVING"
	MoneyMarket          Type = "MONEY_MARKET"
	CertificateOfDeposit Type = "CERTIFICATE_OF_DEPOSIT"
)

var typePrefixes = map[Type]string{
	Checking:             "1000",
	Saving:               "2000",
	MoneyMarket:          "3000",
	CertificateOfDeposit: "4000",
}

// Prefix returns the four digit number prefix of the type.
func (t Type) Prefix() string { return typePrefixes[t] }

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Status is the lifecycle state of an account.
type Status string

const (
	InUse        Status = "IN_USE"
	Unregistered Status = "UNREGISTERED"
)

var numberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidNumber reports whether s is a well-formed ten digit account number.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}

// Account is a monetary account owned by a single user.
//
// Invariants:
//   - Number is ten ASCII digits and unique across all accounts.
//   - Balance is never negative after a committed mutation.
//   - An Unregistered account accepts no further mutations.
type Account struct {
	ID             int64
	UserID         int64
	Number         string
	Type           Type
	Status         Status
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
}

// Builder constructs Account values and checks their invariants.
type Builder struct {
	id           int64
	userID       int64
	number       string
	accountType  Type
	status       Status
	balance      int64
	registeredAt time.Time
}

// New returns a Builder for an in-use checking account registered now.
func New() *Builder {
	return &Builder{
		accountType:  Checking,
		status:       InUse,
		registeredAt: time.Now().UTC(),
	}
}

func (b *Builder) WithID(id int64) *Builder {
	b.id = id
	return b
}

func (b *Builder) WithUserID(userID int64) *Builder {
	b.userID = userID
	return b
}

func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

func (b *Builder) WithType(t Type) *Builder {
	b.accountType = t
	return b
}

func (b *Builder) WithStatus(s Status) *Builder {
	b.status = s
	return b
}

// WithBalance sets the opening balance.
func (b *Builder) WithBalance(balance int64) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithRegisteredAt(t time.Time) *Builder {
	b.registeredAt = t
	return b
}

// Build validates the collected fields and returns the account.
func (b *Builder) Build() (*Account, error) {
	if b.userID <= 0 {
		return nil, domain.Errorf(domain.InvalidRequest, "account owner is required")
	}
	if !ValidNumber(b.number) {
		return nil, domain.Errorf(domain.InvalidRequest, "account number must be 10 digits")
	}
	if !b.accountType.Valid() {
		return nil, domain.Errorf(domain.InvalidRequest, "unknown account type %q", b.accountType)
	}
	if b.balance < 0 {
		return nil, domain.Errorf(domain.InvalidRequest, "initial balance must not be negative")
	}
	return &Account{
		ID:           b.id,
		UserID:       b.userID,
		Number:       b.number,
		Type:         b.accountType,
		Status:       b.status,
		Balance:      b.balance,
		RegisteredAt: b.registeredAt,
	}, nil
}

// IsUnregistered reports whether the account has been closed.
func (a *Account) IsUnregistered() bool {
	return a.Status == Unregistered
}

// ValidateUse checks that userID may draw amount from the account.
// The checks run in a fixed order and the first failure wins.
func (a *Account) ValidateUse(userID, amount int64) error {
	if a.UserID != userID {
		return domain.NewError(domain.UserAccountUnmatched)
	}
	if a.IsUnregistered() {
		return domain.NewError(domain.AccountAlreadyUnregistered)
	}
	if amount > a.Balance {
		return domain.NewError(domain.AmountExceedBalance)
	}
	return nil
}

// ValidateClose checks that userID may unregister the account.
func (a *Account) ValidateClose(userID int64) error {
	if a.UserID != userID {
		return domain.NewError(domain.UserAccountUnmatched)
	}
	if a.IsUnregistered() {
		return domain.NewError(domain.AccountAlreadyUnregistered)
	}
	if a.Balance != 0 {
		return domain.NewError(domain.BalanceNotEmpty)
	}
	return nil
}

// Use draws amount from the balance.
func (a *Account) Use(amount int64) error {
	if a.IsUnregistered() {
		return domain.NewError(domain.AccountAlreadyUnregistered)
	}
	if amount <= 0 {
		return domain.Errorf(domain.InvalidRequest, "amount must be positive")
	}
	if amount > a.Balance {
		return domain.NewError(domain.AmountExceedBalance)
	}
	a.Balance -= amount
	return nil
}

// Cancel credits amount back to the balance.
func (a *Account) Cancel(amount int64) error {
	if a.IsUnregistered() {
		return domain.NewError(domain.AccountAlreadyUnregistered)
	}
	if amount < 0 {
		return domain.Errorf(domain.InvalidRequest, "cancel amount must not be negative")
	}
	if a.Balance > math.MaxInt64-amount {
		return domain.Errorf(domain.InvalidRequest, "balance would overflow")
	}
	a.Balance += amount
	return nil
}

// Close marks the account unregistered at the given time.
func (a *Account) Close(at time.Time) {
	a.Status = Unregistered
	a.UnregisteredAt = &at
}
