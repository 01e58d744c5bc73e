package repository

import "time"

// User represents a user record in the database.
type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string { return "users" }

// Account represents an account record in the database.
type Account struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	UserID         int64  `gorm:"not null;index"`
	AccountNumber  string `gorm:"type:char(10);not null;uniqueIndex"`
	Type           string `gorm:"type:varchar(32);not null"`
	Status         string `gorm:"type:varchar(16);not null"`
	Balance        int64  `gorm:"not null"`
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string { return "accounts" }

// Transaction represents an immutable ledger record in the database.
type Transaction struct {
	ID                    int64   `gorm:"primaryKey;autoIncrement"`
	TransactionID         string  `gorm:"type:varchar(32);not null;uniqueIndex"`
	Type                  string  `gorm:"type:varchar(8);not null"`
	Result                string  `gorm:"type:varchar(8);not null"`
	AccountID             int64   `gorm:"not null;index"`
	Amount                int64   `gorm:"not null"`
	BalanceSnapshot       int64   `gorm:"not null"`
	OriginalTransactionID *string `gorm:"type:varchar(32);index"`
	TransactedAt          time.Time
	CreatedAt             time.Time
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string { return "transactions" }
