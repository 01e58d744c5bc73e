package app

import (
	"context"
	"log/slog"

	"github.com/amirasaad/ledger/pkg/domain/events"
)

// setupEventBus registers the audit handlers for every ledger event.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger.With("component", "audit")

	bus.Register(events.EventTypeTransactionRecorded.String(), HandleTransactionRecorded(logger))
	bus.Register(events.EventTypeAccountOpened.String(), HandleAccountOpened(logger))
	bus.Register(events.EventTypeAccountClosed.String(), HandleAccountClosed(logger))
}

// HandleTransactionRecorded logs every committed ledger record. Failed
// attempts are logged at warn level with their error code.
func HandleTransactionRecorded(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		var evt events.TransactionRecorded
		switch v := e.(type) {
		case events.TransactionRecorded:
			evt = v
		case *events.TransactionRecorded:
			evt = *v
		default:
			logger.Warn("unexpected event", "type", e.Type())
			return nil
		}
		level := slog.LevelInfo
		if evt.ErrorCode != "" {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "transaction recorded",
			"transactionID", evt.TransactionID,
			"accountNumber", evt.AccountNumber,
			"type", evt.TransactionType,
			"result", evt.Result,
			"amount", evt.Amount,
			"balanceSnapshot", evt.BalanceSnapshot,
			"code", evt.ErrorCode,
		)
		return nil
	}
}

// HandleAccountOpened logs account openings.
func HandleAccountOpened(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		switch v := e.(type) {
		case events.AccountOpened:
			logger.InfoContext(ctx, "account opened", "userID", v.UserID, "accountNumber", v.AccountNumber, "type", v.AccountType)
		case *events.AccountOpened:
			logger.InfoContext(ctx, "account opened", "userID", v.UserID, "accountNumber", v.AccountNumber, "type", v.AccountType)
		}
		return nil
	}
}

// HandleAccountClosed logs account closures.
func HandleAccountClosed(logger *slog.Logger) func(context.Context, events.Event) error {
	return func(ctx context.Context, e events.Event) error {
		switch v := e.(type) {
		case events.AccountClosed:
			logger.InfoContext(ctx, "account closed", "userID", v.UserID, "accountNumber", v.AccountNumber)
		case *events.AccountClosed:
			logger.InfoContext(ctx, "account closed", "userID", v.UserID, "accountNumber", v.AccountNumber)
		}
		return nil
	}
}
