// Package mocks holds testify mocks of the repository contracts.
package mocks

import (
	"context"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock of repository.UnitOfWork. Do runs fn against the
// mock itself unless an expectation for Do is set.
type MockUnitOfWork struct {
	mock.Mock
	Users        repository.UserRepository
	Accounts     repository.AccountRepository
	Transactions repository.TransactionRepository
}

// NewMockUnitOfWork creates a MockUnitOfWork and registers cleanup assertions.
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	for _, c := range m.ExpectedCalls {
		if c.Method == "Do" {
			return m.Called(ctx, fn).Error(0)
		}
	}
	return fn(m)
}

func (m *MockUnitOfWork) AccountRepository() (repository.AccountRepository, error) {
	return m.Accounts, nil
}

func (m *MockUnitOfWork) TransactionRepository() (repository.TransactionRepository, error) {
	return m.Transactions, nil
}

func (m *MockUnitOfWork) UserRepository() (repository.UserRepository, error) {
	return m.Users, nil
}

// MockUserRepository is a mock of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Get(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

// MockAccountRepository is a mock of repository.AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Get(ctx context.Context, id int64) (*account.Account, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	args := m.Called(ctx, number)
	a, _ := args.Get(0).(*account.Account)
	return a, args.Error(1)
}

func (m *MockAccountRepository) ListByUser(ctx context.Context, userID int64) ([]*account.Account, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]*account.Account)
	return list, args.Error(1)
}

func (m *MockAccountRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAccountRepository) Update(ctx context.Context, a *account.Account) error {
	return m.Called(ctx, a).Error(0)
}

// MockTransactionRepository is a mock of repository.TransactionRepository.
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *transaction.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) GetByTransactionID(ctx context.Context, id string) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*transaction.Transaction)
	return tx, args.Error(1)
}

func (m *MockTransactionRepository) ListByAccount(ctx context.Context, accountID int64) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID)
	list, _ := args.Get(0).([]*transaction.Transaction)
	return list, args.Error(1)
}

func (m *MockTransactionRepository) ExistsCancelFor(ctx context.Context, originalTransactionID string) (bool, error) {
	args := m.Called(ctx, originalTransactionID)
	return args.Bool(0), args.Error(1)
}

var (
	_ repository.UnitOfWork            = (*MockUnitOfWork)(nil)
	_ repository.UserRepository        = (*MockUserRepository)(nil)
	_ repository.AccountRepository     = (*MockAccountRepository)(nil)
	_ repository.TransactionRepository = (*MockTransactionRepository)(nil)
)
