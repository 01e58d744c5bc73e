// Package memory is an in-process ledger store. Units of work are
// serialized and rolled back through an undo journal, which gives the same
// all-or-nothing behavior as the gorm store without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/amirasaad/ledger/pkg/repository"
)

// Store holds all rows. The zero value is not usable; call NewStore.
type Store struct {
	mu sync.Mutex

	users            map[int64]user.User
	accounts         map[int64]account.Account
	accountsByNumber map[string]int64
	txs              map[int64]transaction.Transaction
	txsByID          map[string]int64

	nextUserID    int64
	nextAccountID int64
	nextTxID      int64

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:            make(map[int64]user.User),
		accounts:         make(map[int64]account.Account),
		accountsByNumber: make(map[string]int64),
		txs:              make(map[int64]transaction.Transaction),
		txsByID:          make(map[string]int64),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// UoW implements repository.UnitOfWork over a Store.
type UoW struct {
	store *Store
	// journal is non-nil inside Do; the store lock is then already held.
	journal *[]func()
}

// NewUoW creates a UnitOfWork over store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn with exclusive access to the store and undoes every write made
// through fn's repositories when fn returns an error or panics.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) (err error) {
	if u.journal != nil {
		return fn(u)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	var journal []func()
	txUoW := &UoW{store: u.store, journal: &journal}
	rollback := func() {
		for i := len(journal) - 1; i >= 0; i-- {
			journal[i]()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	if err = fn(txUoW); err != nil {
		rollback()
	}
	return err
}

// run executes op under the store lock unless a unit of work already holds it.
func (u *UoW) run(op func(record func(undo func()))) {
	if u.journal != nil {
		op(func(undo func()) { *u.journal = append(*u.journal, undo) })
		return
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	op(func(func()) {})
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{uow: u}, nil
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{uow: u}, nil
}

func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return &userRepository{uow: u}, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
