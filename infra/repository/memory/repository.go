package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/domain/user"
)

type userRepository struct {
	uow *UoW
}

func (r *userRepository) Get(_ context.Context, id int64) (u *user.User, err error) {
	r.uow.run(func(func(func())) {
		row, ok := r.uow.store.users[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		u = &row
	})
	return u, err
}

func (r *userRepository) Create(_ context.Context, u *user.User) error {
	r.uow.run(func(record func(func())) {
		s := r.uow.store
		s.nextUserID++
		u.ID = s.nextUserID
		if u.CreatedAt.IsZero() {
			u.CreatedAt = s.now()
		}
		s.users[u.ID] = *u
		id := u.ID
		record(func() { delete(s.users, id) })
	})
	return nil
}

type accountRepository struct {
	uow *UoW
}

func (r *accountRepository) Get(_ context.Context, id int64) (a *account.Account, err error) {
	r.uow.run(func(func(func())) {
		row, ok := r.uow.store.accounts[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		a = cloneAccount(row)
	})
	return a, err
}

func (r *accountRepository) GetByNumber(_ context.Context, number string) (a *account.Account, err error) {
	r.uow.run(func(func(func())) {
		id, ok := r.uow.store.accountsByNumber[number]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		a = cloneAccount(r.uow.store.accounts[id])
	})
	return a, err
}

func (r *accountRepository) ListByUser(_ context.Context, userID int64) (list []*account.Account, err error) {
	r.uow.run(func(func(func())) {
		for _, row := range r.uow.store.accounts {
			if row.UserID == userID {
				list = append(list, cloneAccount(row))
			}
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *accountRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	list, err := r.ListByUser(ctx, userID)
	return int64(len(list)), err
}

func (r *accountRepository) ExistsByNumber(_ context.Context, number string) (exists bool, err error) {
	r.uow.run(func(func(func())) {
		_, exists = r.uow.store.accountsByNumber[number]
	})
	return exists, nil
}

func (r *accountRepository) Create(_ context.Context, a *account.Account) (err error) {
	r.uow.run(func(record func(func())) {
		s := r.uow.store
		if _, taken := s.accountsByNumber[a.Number]; taken {
			err = fmt.Errorf("account number %s: %w", a.Number, domain.ErrAlreadyExists)
			return
		}
		s.nextAccountID++
		a.ID = s.nextAccountID
		s.accounts[a.ID] = *cloneAccount(*a)
		s.accountsByNumber[a.Number] = a.ID
		id, number := a.ID, a.Number
		record(func() {
			delete(s.accounts, id)
			delete(s.accountsByNumber, number)
		})
	})
	return err
}

func (r *accountRepository) Update(_ context.Context, a *account.Account) (err error) {
	r.uow.run(func(record func(func())) {
		s := r.uow.store
		prev, ok := s.accounts[a.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		s.accounts[a.ID] = *cloneAccount(*a)
		record(func() { s.accounts[prev.ID] = prev })
	})
	return err
}

func cloneAccount(a account.Account) *account.Account {
	if a.UnregisteredAt != nil {
		at := *a.UnregisteredAt
		a.UnregisteredAt = &at
	}
	return &a
}

type transactionRepository struct {
	uow *UoW
}

func (r *transactionRepository) Create(_ context.Context, tx *transaction.Transaction) (err error) {
	r.uow.run(func(record func(func())) {
		s := r.uow.store
		if _, taken := s.txsByID[tx.TransactionID]; taken {
			err = fmt.Errorf("transaction %s: %w", tx.TransactionID, domain.ErrAlreadyExists)
			return
		}
		if _, ok := s.accounts[tx.AccountID]; !ok {
			err = fmt.Errorf("transaction %s references unknown account %d", tx.TransactionID, tx.AccountID)
			return
		}
		s.nextTxID++
		tx.ID = s.nextTxID
		if tx.TransactedAt.IsZero() {
			tx.TransactedAt = s.now()
		}
		s.txs[tx.ID] = *cloneTransaction(*tx)
		s.txsByID[tx.TransactionID] = tx.ID
		id, txID := tx.ID, tx.TransactionID
		record(func() {
			delete(s.txs, id)
			delete(s.txsByID, txID)
		})
	})
	return err
}

func (r *transactionRepository) GetByTransactionID(_ context.Context, transactionID string) (tx *transaction.Transaction, err error) {
	r.uow.run(func(func(func())) {
		id, ok := r.uow.store.txsByID[transactionID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		tx = cloneTransaction(r.uow.store.txs[id])
	})
	return tx, err
}

func (r *transactionRepository) ListByAccount(_ context.Context, accountID int64) (list []*transaction.Transaction, err error) {
	r.uow.run(func(func(func())) {
		for _, row := range r.uow.store.txs {
			if row.AccountID == accountID {
				list = append(list, cloneTransaction(row))
			}
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *transactionRepository) ExistsCancelFor(_ context.Context, originalTransactionID string) (exists bool, err error) {
	r.uow.run(func(func(func())) {
		for _, row := range r.uow.store.txs {
			if row.Type == transaction.Cancel && row.Result == transaction.Success &&
				row.OriginalTransactionID != nil && *row.OriginalTransactionID == originalTransactionID {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

func cloneTransaction(tx transaction.Transaction) *transaction.Transaction {
	if tx.OriginalTransactionID != nil {
		id := *tx.OriginalTransactionID
		tx.OriginalTransactionID = &id
	}
	return &tx
}
