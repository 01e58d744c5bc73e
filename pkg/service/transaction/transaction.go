// Package transaction is the balance-transaction engine. It validates use
// and cancel requests against an account, applies the balance change, and
// appends a ledger record for every attempt that reached an account,
// including rejected ones.
//
// Service itself does not serialize callers; wrap it with Locked so that
// mutations of one account never interleave.
package transaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/ledger/pkg/cache"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service provides the use, cancel and query operations of the ledger.
type Service struct {
	uow      repository.UnitOfWork
	logger   *slog.Logger
	bus      eventbus.Bus
	cache    cache.TransactionCache
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
	loads    singleflight.Group
}

// Option customizes a Service.
type Option func(*Service)

// WithEventBus publishes a TransactionRecorded event after every committed record.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithCache serves QueryTransaction from c and fills it on misses.
func WithCache(c cache.TransactionCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithClock replaces the wall clock used for timestamps and the cancel window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the transaction-id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewTransactionID returns a 32 character hex identifier.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// New creates a new Service.
func New(uow repository.UnitOfWork, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  NewTransactionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rejections after the account has been resolved leave a FAIL record.
var (
	auditedUseCodes = map[domain.ErrorCode]bool{
		domain.UserAccountUnmatched:       true,
		domain.AccountAlreadyUnregistered: true,
		domain.AmountExceedBalance:        true,
		domain.InvalidRequest:             true,
	}
	auditedCancelCodes = map[domain.ErrorCode]bool{
		domain.TransactionAccountUnmatched: true,
		domain.CancelMustFully:             true,
		domain.TooOldOrderToCancel:         true,
		domain.AccountAlreadyUnregistered:  true,
		domain.InvalidRequest:              true,
	}
)

// UseBalance draws amount from the account owned by userID.
//
// Checks, in order: the user exists, the account exists, the user owns it,
// it is still registered, and the balance covers amount. On success the
// balance update and the SUCCESS record commit together.
func (s *Service) UseBalance(
	ctx context.Context,
	userID int64,
	accountNumber string,
	amount int64,
) (*dto.TransactionView, error) {
	logger := s.logger.With("userID", userID, "accountNumber", accountNumber, "amount", amount)
	logger.Info("UseBalance started")

	var view *dto.TransactionView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, accounts, txs, err := repositories(uow)
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, userID); err != nil {
			return notFound(err, domain.UserNotFound)
		}
		acc, err := accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			return notFound(err, domain.AccountNotFound)
		}
		if err := acc.ValidateUse(userID, amount); err != nil {
			return err
		}
		if err := acc.Use(amount); err != nil {
			return err
		}
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		tx := &transaction.Transaction{
			TransactionID:   s.newID(),
			Type:            transaction.Use,
			Result:          transaction.Success,
			AccountID:       acc.ID,
			Amount:          amount,
			BalanceSnapshot: acc.Balance,
			TransactedAt:    s.now(),
		}
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}
		view = dto.NewTransactionView(acc.Number, tx)
		return nil
	})
	if err != nil {
		derr := domain.AsError(err)
		logger.Error("UseBalance failed", "code", derr.Code, "error", err)
		if auditedUseCodes[derr.Code] {
			s.saveFailed(ctx, transaction.Use, accountNumber, amount, derr.Code)
		}
		return nil, derr
	}

	s.publish(ctx, view, "")
	logger.Info("UseBalance successful", "transactionID", view.TransactionID, "balance", view.BalanceSnapshot)
	return view, nil
}

// CancelBalance reverses the successful use identified by transactionID,
// crediting amount back to accountNumber.
//
// Checks, in order: the transaction exists, the account exists, the
// transaction belongs to the account, amount equals the original amount,
// and the original is not older than one year. The original must also be
// a successful use that has not been cancelled already.
func (s *Service) CancelBalance(
	ctx context.Context,
	transactionID string,
	accountNumber string,
	amount int64,
) (*dto.TransactionView, error) {
	logger := s.logger.With("transactionID", transactionID, "accountNumber", accountNumber, "amount", amount)
	logger.Info("CancelBalance started")

	var view *dto.TransactionView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		_, accounts, txs, err := repositories(uow)
		if err != nil {
			return err
		}
		original, err := txs.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return notFound(err, domain.TransactionNotFound)
		}
		acc, err := accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			return notFound(err, domain.AccountNotFound)
		}
		now := s.now()
		if err := original.ValidateCancel(acc.ID, amount, now); err != nil {
			return err
		}
		cancelled, err := txs.ExistsCancelFor(ctx, original.TransactionID)
		if err != nil {
			return err
		}
		if cancelled {
			return domain.Errorf(domain.InvalidRequest, "transaction %s is already cancelled", original.TransactionID)
		}
		if err := acc.Cancel(amount); err != nil {
			return err
		}
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		originalID := original.TransactionID
		tx := &transaction.Transaction{
			TransactionID:         s.newID(),
			Type:                  transaction.Cancel,
			Result:                transaction.Success,
			AccountID:             acc.ID,
			Amount:                amount,
			BalanceSnapshot:       acc.Balance,
			OriginalTransactionID: &originalID,
			TransactedAt:          now,
		}
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}
		view = dto.NewTransactionView(acc.Number, tx)
		return nil
	})
	if err != nil {
		derr := domain.AsError(err)
		logger.Error("CancelBalance failed", "code", derr.Code, "error", err)
		if auditedCancelCodes[derr.Code] {
			s.saveFailed(ctx, transaction.Cancel, accountNumber, amount, derr.Code)
		}
		return nil, derr
	}

	s.publish(ctx, view, "")
	logger.Info("CancelBalance successful", "transactionID", view.TransactionID, "balance", view.BalanceSnapshot)
	return view, nil
}

// QueryTransaction returns the ledger record identified by transactionID.
func (s *Service) QueryTransaction(ctx context.Context, transactionID string) (*dto.TransactionView, error) {
	logger := s.logger.With("transactionID", transactionID)

	if s.cache != nil {
		view, err := s.cache.Get(ctx, transactionID)
		if err != nil {
			logger.Warn("QueryTransaction cache lookup failed", "error", err)
		} else if view != nil {
			return view, nil
		}
	}

	// Concurrent misses for the same id share one store read. The read runs
	// detached from any single caller's ctx; each caller still stops waiting
	// when its own ctx ends.
	ch := s.loads.DoChan(transactionID, func() (any, error) {
		return s.loadTransaction(context.WithoutCancel(ctx), transactionID)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		logger.Warn("QueryTransaction abandoned", "error", ctx.Err())
		return nil, domain.AsError(ctx.Err())
	}
	v, err := res.Val, res.Err
	if err != nil {
		derr := domain.AsError(err)
		logger.Error("QueryTransaction failed", "code", derr.Code, "error", err)
		return nil, derr
	}
	view := *v.(*dto.TransactionView)

	if s.cache != nil {
		if err := s.cache.Set(ctx, &view, s.cacheTTL); err != nil {
			logger.Warn("QueryTransaction cache fill failed", "error", err)
		}
	}
	return &view, nil
}

func (s *Service) loadTransaction(ctx context.Context, transactionID string) (*dto.TransactionView, error) {
	var view *dto.TransactionView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		_, accounts, txs, err := repositories(uow)
		if err != nil {
			return err
		}
		tx, err := txs.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return notFound(err, domain.TransactionNotFound)
		}
		acc, err := accounts.Get(ctx, tx.AccountID)
		if err != nil {
			return err
		}
		view = dto.NewTransactionView(acc.Number, tx)
		return nil
	})
	return view, err
}

// SaveFailedUseTransaction records a rejected use of amount against
// accountNumber. The balance is left untouched and becomes the snapshot.
func (s *Service) SaveFailedUseTransaction(ctx context.Context, accountNumber string, amount int64) (*dto.TransactionView, error) {
	return s.recordFailure(ctx, transaction.Use, accountNumber, amount, "")
}

// SaveFailedCancelTransaction records a rejected cancel of amount against
// accountNumber.
func (s *Service) SaveFailedCancelTransaction(ctx context.Context, accountNumber string, amount int64) (*dto.TransactionView, error) {
	return s.recordFailure(ctx, transaction.Cancel, accountNumber, amount, "")
}

// saveFailed writes the audit record for a rejection. Its own failure is
// logged and never replaces the rejection the caller is about to return.
func (s *Service) saveFailed(ctx context.Context, t transaction.Type, accountNumber string, amount int64, code domain.ErrorCode) {
	if _, err := s.recordFailure(context.WithoutCancel(ctx), t, accountNumber, amount, code); err != nil {
		s.logger.Error("Failed to record failed transaction",
			"type", t, "accountNumber", accountNumber, "amount", amount, "code", code, "error", err)
	}
}

func (s *Service) recordFailure(
	ctx context.Context,
	t transaction.Type,
	accountNumber string,
	amount int64,
	code domain.ErrorCode,
) (*dto.TransactionView, error) {
	var view *dto.TransactionView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		_, accounts, txs, err := repositories(uow)
		if err != nil {
			return err
		}
		acc, err := accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			return notFound(err, domain.AccountNotFound)
		}
		tx := &transaction.Transaction{
			TransactionID:   s.newID(),
			Type:            t,
			Result:          transaction.Fail,
			AccountID:       acc.ID,
			Amount:          amount,
			BalanceSnapshot: acc.Balance,
			TransactedAt:    s.now(),
		}
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}
		view = dto.NewTransactionView(acc.Number, tx)
		return nil
	})
	if err != nil {
		return nil, domain.AsError(err)
	}
	s.publish(ctx, view, code)
	return view, nil
}

func (s *Service) publish(ctx context.Context, view *dto.TransactionView, code domain.ErrorCode) {
	if s.bus == nil {
		return
	}
	evt := events.TransactionRecorded{
		TransactionID:   view.TransactionID,
		AccountNumber:   view.AccountNumber,
		TransactionType: string(view.Type),
		Result:          string(view.Result),
		Amount:          view.Amount,
		BalanceSnapshot: view.BalanceSnapshot,
		ErrorCode:       string(code),
		TransactedAt:    view.TransactedAt,
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish event", "type", evt.Type(), "transactionID", view.TransactionID, "error", err)
	}
}

func repositories(uow repository.UnitOfWork) (
	repository.UserRepository,
	repository.AccountRepository,
	repository.TransactionRepository,
	error,
) {
	users, err := uow.UserRepository()
	if err != nil {
		return nil, nil, nil, err
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, nil, err
	}
	txs, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, nil, err
	}
	return users, accounts, txs, nil
}

// notFound classifies a store miss under code and passes other errors through.
func notFound(err error, code domain.ErrorCode) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(code)
	}
	return err
}
