package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
)

// ErrorCode is the closed set of failure kinds surfaced to callers.
type ErrorCode string

const (
	UserNotFound                ErrorCode = "USER_NOT_FOUND"
	AccountNotFound             ErrorCode = "ACCOUNT_NOT_FOUND"
	UserAccountUnmatched        ErrorCode = "USER_ACCOUNT_UNMATCHED"
	AccountAlreadyUnregistered  ErrorCode = "ACCOUNT_ALREADY_UNREGISTERED"
	AmountExceedBalance         ErrorCode = "AMOUNT_EXCEED_BALANCE"
	InvalidRequest              ErrorCode = "INVALID_REQUEST"
	TransactionNotFound         ErrorCode = "TRANSACTION_NOT_FOUND"
	TransactionAccountUnmatched ErrorCode = "TRANSACTION_ACCOUNT_UNMATCHED"
	CancelMustFully             ErrorCode = "CANCEL_MUST_FULLY"
	TooOldOrderToCancel         ErrorCode = "TOO_OLD_ORDER_TO_CANCEL"
	AccountTransactionLock      ErrorCode = "ACCOUNT_TRANSACTION_LOCK"
	BalanceNotEmpty             ErrorCode = "BALANCE_NOT_EMPTY"
	MaxAccountPerUser           ErrorCode = "MAX_ACCOUNT_PER_USER_10"
	InternalServerError         ErrorCode = "INTERNAL_SERVER_ERROR"
)

var messages = map[ErrorCode]string{
	UserNotFound:                "user does not exist",
	AccountNotFound:             "account does not exist",
	UserAccountUnmatched:        "user and account owner do not match",
	AccountAlreadyUnregistered:  "account is already unregistered",
	AmountExceedBalance:         "transaction amount exceeds account balance",
	InvalidRequest:              "invalid request",
	TransactionNotFound:         "transaction does not exist",
	TransactionAccountUnmatched: "transaction does not belong to this account",
	CancelMustFully:             "partial cancellation is not allowed",
	TooOldOrderToCancel:         "transactions older than one year cannot be cancelled",
	AccountTransactionLock:      "account is in use by another transaction",
	BalanceNotEmpty:             "account balance must be zero to unregister",
	MaxAccountPerUser:           "a user can hold at most 10 accounts",
	InternalServerError:         "internal server error",
}

// Codes lists every ErrorCode.
func Codes() []ErrorCode {
	return []ErrorCode{
		UserNotFound, AccountNotFound, UserAccountUnmatched, AccountAlreadyUnregistered,
		AmountExceedBalance, InvalidRequest, TransactionNotFound, TransactionAccountUnmatched,
		CancelMustFully, TooOldOrderToCancel, AccountTransactionLock, BalanceNotEmpty,
		MaxAccountPerUser, InternalServerError,
	}
}

// Message returns the default human readable description of the code.
func (c ErrorCode) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[InternalServerError]
}

// Retryable reports whether the caller may retry the same request unchanged.
func (c ErrorCode) Retryable() bool {
	return c == AccountTransactionLock
}

func (c ErrorCode) String() string { return string(c) }

// Error is a classified failure carrying an ErrorCode.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewError returns an Error with the code's default message.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code, Message: code.Message()}
}

// Errorf returns an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under code, keeping it as the cause.
func Wrap(code ErrorCode, err error) *Error {
	return &Error{Code: code, Message: code.Message(), Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// CodeOf returns the code carried by err, or InternalServerError for
// unclassified errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalServerError
}

// AsError returns err as an *Error, classifying anything else as
// InternalServerError with err kept as the cause.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(InternalServerError, err)
}
