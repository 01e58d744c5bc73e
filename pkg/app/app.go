// Package app assembles the ledger services from their dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/ledger/pkg/cache"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/amirasaad/ledger/pkg/service/account"
	"github.com/amirasaad/ledger/pkg/service/transaction"
	"github.com/amirasaad/ledger/pkg/service/user"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	Locker   lock.Locker
	Cache    cache.TransactionCache
	EventBus eventbus.Bus
	Logger   *slog.Logger
	// Closers release connections in reverse order on shutdown.
	Closers []func() error
}

// Close runs every closer, returning the first error.
func (d *Deps) Close() error {
	var first error
	for i := len(d.Closers) - 1; i >= 0; i-- {
		if err := d.Closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type App struct {
	Deps               *Deps
	Config             *config.App
	UserService        *user.Service
	AccountService     *account.Locked
	TransactionService *transaction.Locked
}

func New(deps *Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}
	a.setupEventBus()

	a.UserService = user.New(deps.Uow, deps.Logger)

	accountOpts := []account.Option{
		account.WithEventBus(deps.EventBus),
		account.WithMaxAccountsPerUser(cfg.Ledger.MaxAccountsPerUser),
		account.WithAllocator(account.NewRandomAllocator(cfg.Ledger.AllocatorAttempts)),
	}
	a.AccountService = account.NewLocked(
		account.New(deps.Uow, deps.Logger, accountOpts...),
		deps.Locker,
		cfg.Lock.KeyPrefix,
		cfg.Lock.UserPrefix,
	)

	txOpts := []transaction.Option{transaction.WithEventBus(deps.EventBus)}
	if deps.Cache != nil {
		txOpts = append(txOpts, transaction.WithCache(deps.Cache, cfg.Cache.TTL))
	}
	a.TransactionService = transaction.NewLocked(
		transaction.New(deps.Uow, deps.Logger, txOpts...),
		deps.Locker,
		cfg.Lock.KeyPrefix,
	)
	return a
}
