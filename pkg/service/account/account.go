// Package account provides the account lifecycle: opening accounts with a
// freshly allocated number, closing them, and listing a user's accounts.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
)

// DefaultMaxAccountsPerUser is the number of accounts a user may hold.
const DefaultMaxAccountsPerUser = 10

// Service provides account lifecycle operations.
type Service struct {
	uow        repository.UnitOfWork
	logger     *slog.Logger
	bus        eventbus.Bus
	allocator  NumberAllocator
	maxPerUser int64
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithEventBus publishes AccountOpened and AccountClosed events.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithAllocator replaces the account number allocator.
func WithAllocator(a NumberAllocator) Option {
	return func(s *Service) { s.allocator = a }
}

// WithMaxAccountsPerUser sets how many accounts, open or closed, one user may hold.
func WithMaxAccountsPerUser(n int) Option {
	return func(s *Service) { s.maxPerUser = int64(n) }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new Service.
func New(uow repository.UnitOfWork, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		uow:        uow,
		logger:     logger,
		allocator:  NewRandomAllocator(DefaultMaxAttempts),
		maxPerUser: DefaultMaxAccountsPerUser,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens a new account of type t for userID with the given
// opening balance.
func (s *Service) CreateAccount(
	ctx context.Context,
	userID int64,
	initialBalance int64,
	t account.Type,
) (*dto.AccountView, error) {
	logger := s.logger.With("userID", userID, "type", t, "initialBalance", initialBalance)
	logger.Info("CreateAccount started")

	var view *dto.AccountView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, accounts, err := repositories(uow)
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, userID); err != nil {
			return notFound(err, domain.UserNotFound)
		}
		count, err := accounts.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count >= s.maxPerUser {
			return domain.NewError(domain.MaxAccountPerUser)
		}
		if initialBalance < 0 {
			return domain.Errorf(domain.InvalidRequest, "initial balance must not be negative")
		}
		number, err := s.allocator.Allocate(ctx, t, accounts.ExistsByNumber)
		if err != nil {
			return err
		}
		acc, err := account.New().
			WithUserID(userID).
			WithNumber(number).
			WithType(t).
			WithBalance(initialBalance).
			WithRegisteredAt(s.now()).
			Build()
		if err != nil {
			return err
		}
		if err := accounts.Create(ctx, acc); err != nil {
			return err
		}
		view = dto.NewAccountView(acc)
		return nil
	})
	if err != nil {
		derr := domain.AsError(err)
		logger.Error("CreateAccount failed", "code", derr.Code, "error", err)
		return nil, derr
	}

	s.emit(ctx, events.AccountOpened{
		UserID:         view.UserID,
		AccountNumber:  view.AccountNumber,
		AccountType:    string(view.Type),
		InitialBalance: view.Balance,
		RegisteredAt:   view.RegisteredAt,
	})
	logger.Info("CreateAccount successful", "accountNumber", view.AccountNumber)
	return view, nil
}

// DeleteAccount unregisters accountNumber on behalf of userID. The account
// must belong to the user, still be in use, and hold no balance.
func (s *Service) DeleteAccount(
	ctx context.Context,
	userID int64,
	accountNumber string,
) (*dto.AccountView, error) {
	logger := s.logger.With("userID", userID, "accountNumber", accountNumber)
	logger.Info("DeleteAccount started")

	var view *dto.AccountView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, accounts, err := repositories(uow)
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
		if err := acc.ValidateClose(userID); err != nil {
			return err
		}
		acc.Close(s.now())
		if err := accounts.Update(ctx, acc); err != nil {
			return err
		}
		view = dto.NewAccountView(acc)
		return nil
	})
	if err != nil {
		derr := domain.AsError(err)
		logger.Error("DeleteAccount failed", "code", derr.Code, "error", err)
		return nil, derr
	}

	s.emit(ctx, events.AccountClosed{
		UserID:         view.UserID,
		AccountNumber:  view.AccountNumber,
		UnregisteredAt: *view.UnregisteredAt,
	})
	logger.Info("DeleteAccount successful")
	return view, nil
}

// GetAccountsByUserID lists every account of userID, closed ones included.
func (s *Service) GetAccountsByUserID(ctx context.Context, userID int64) ([]*dto.AccountView, error) {
	var views []*dto.AccountView
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, accounts, err := repositories(uow)
		if err != nil {
			return err
		}
		if _, err := users.Get(ctx, userID); err != nil {
			return notFound(err, domain.UserNotFound)
		}
		list, err := accounts.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		views = make([]*dto.AccountView, 0, len(list))
		for _, acc := range list {
			views = append(views, dto.NewAccountView(acc))
		}
		return nil
	})
	if err != nil {
		derr := domain.AsError(err)
		s.logger.Error("GetAccountsByUserID failed", "userID", userID, "code", derr.Code, "error", err)
		return nil, derr
	}
	return views, nil
}

func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish event", "type", evt.Type(), "error", err)
	}
}

func repositories(uow repository.UnitOfWork) (repository.UserRepository, repository.AccountRepository, error) {
	users, err := uow.UserRepository()
	if err != nil {
		return nil, nil, err
	}
	accounts, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}
	return users, accounts, nil
}

func notFound(err error, code domain.ErrorCode) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewError(code)
	}
	return err
}
