package transaction_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/cache"
	"github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/domain/events"
	"github.com/amirasaad/ledger/pkg/domain/transaction"
	"github.com/amirasaad/ledger/pkg/domain/user"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/amirasaad/ledger/pkg/repository"
	txservice "github.com/amirasaad/ledger/pkg/service/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type EngineTestSuite struct {
	suite.Suite
	ctx   context.Context
	uow   *memory.UoW
	bus   *eventbus.MemoryEventBus
	clock *clock
	svc   *txservice.Service

	owner *user.User
	other *user.User
	acc   *account.Account
}

func (s *EngineTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.uow = memory.NewUoW(memory.NewStore())
	s.bus = eventbus.NewWithMemory(slog.Default())
	s.clock = &clock{t: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)}
	s.svc = txservice.New(s.uow, slog.Default(),
		txservice.WithEventBus(s.bus),
		txservice.WithClock(s.clock.Now),
	)
	s.owner = s.createUser("alice")
	s.other = s.createUser("bob")
	s.acc = s.createAccount(s.owner.ID, "1000000001", 10000)
}

func (s *EngineTestSuite) createUser(name string) *user.User {
	u, err := user.NewUser(name)
	s.Require().NoError(err)
	err = s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return repo.Create(s.ctx, u)
	})
	s.Require().NoError(err)
	return u
}

func (s *EngineTestSuite) createAccount(userID int64, number string, balance int64) *account.Account {
	acc, err := account.New().WithUserID(userID).WithNumber(number).WithBalance(balance).Build()
	s.Require().NoError(err)
	err = s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		return repo.Create(s.ctx, acc)
	})
	s.Require().NoError(err)
	return acc
}

func (s *EngineTestSuite) closeAccount(acc *account.Account) {
	err := s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		stored, err := repo.Get(s.ctx, acc.ID)
		if err != nil {
			return err
		}
		stored.Close(s.clock.Now())
		return repo.Update(s.ctx, stored)
	})
	s.Require().NoError(err)
}

func (s *EngineTestSuite) balance(acc *account.Account) int64 {
	var balance int64
	err := s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		stored, err := repo.Get(s.ctx, acc.ID)
		if err != nil {
			return err
		}
		balance = stored.Balance
		return nil
	})
	s.Require().NoError(err)
	return balance
}

func (s *EngineTestSuite) records(acc *account.Account) []*transaction.Transaction {
	var list []*transaction.Transaction
	err := s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		list, err = repo.ListByAccount(s.ctx, acc.ID)
		return err
	})
	s.Require().NoError(err)
	return list
}

func (s *EngineTestSuite) requireCode(err error, code domain.ErrorCode) {
	s.T().Helper()
	s.Require().Error(err)
	s.Equal(code, domain.CodeOf(err))
}

func (s *EngineTestSuite) TestUseBalance_Success() {
	view, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)

	s.Equal(s.acc.Number, view.AccountNumber)
	s.Equal(transaction.Use, view.Type)
	s.Equal(transaction.Success, view.Result)
	s.Equal(int64(3000), view.Amount)
	s.Equal(int64(7000), view.BalanceSnapshot)
	s.Len(view.TransactionID, 32)
	s.Equal(s.clock.Now(), view.TransactedAt)
	s.Equal(int64(7000), s.balance(s.acc))

	recs := s.records(s.acc)
	s.Require().Len(recs, 1)
	s.Equal(transaction.Success, recs[0].Result)

	published := s.bus.Published()
	s.Require().Len(published, 1)
	evt, ok := published[0].(events.TransactionRecorded)
	s.Require().True(ok)
	s.Equal(view.TransactionID, evt.TransactionID)
	s.Equal("SUCCESS", evt.Result)
	s.Empty(evt.ErrorCode)
}

func (s *EngineTestSuite) TestUseBalance_ExceedWritesFailRecord() {
	small := s.createAccount(s.owner.ID, "1000000002", 100)

	_, err := s.svc.UseBalance(s.ctx, s.owner.ID, small.Number, 400)
	s.requireCode(err, domain.AmountExceedBalance)
	s.Equal(int64(100), s.balance(small))

	recs := s.records(small)
	s.Require().Len(recs, 1)
	s.Equal(transaction.Use, recs[0].Type)
	s.Equal(transaction.Fail, recs[0].Result)
	s.Equal(int64(400), recs[0].Amount)
	s.Equal(int64(100), recs[0].BalanceSnapshot)

	published := s.bus.Published()
	s.Require().Len(published, 1)
	s.Equal(string(domain.AmountExceedBalance), published[0].(events.TransactionRecorded).ErrorCode)
}

func (s *EngineTestSuite) TestUseBalance_Rejections() {
	closed := s.createAccount(s.owner.ID, "1000000003", 500)
	s.closeAccount(closed)

	tests := []struct {
		name       string
		userID     int64
		number     string
		amount     int64
		code       domain.ErrorCode
		failRecord *account.Account
	}{
		{"unknown user", 9999, s.acc.Number, 100, domain.UserNotFound, nil},
		{"unknown account", s.owner.ID, "1999999999", 100, domain.AccountNotFound, nil},
		{"other owner", s.other.ID, s.acc.Number, 100, domain.UserAccountUnmatched, s.acc},
		{"unregistered", s.owner.ID, closed.Number, 100, domain.AccountAlreadyUnregistered, closed},
		{"non-positive amount", s.owner.ID, s.acc.Number, 0, domain.InvalidRequest, s.acc},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			before := len(s.records(s.acc)) + len(s.records(closed))
			_, err := s.svc.UseBalance(s.ctx, tt.userID, tt.number, tt.amount)
			s.requireCode(err, tt.code)

			after := len(s.records(s.acc)) + len(s.records(closed))
			if tt.failRecord == nil {
				s.Equal(before, after)
				return
			}
			s.Equal(before+1, after)
			recs := s.records(tt.failRecord)
			s.Equal(transaction.Fail, recs[len(recs)-1].Result)
		})
	}
	s.Equal(int64(10000), s.balance(s.acc))
	s.Equal(int64(500), s.balance(closed))
}

func (s *EngineTestSuite) TestCancelBalance_Success() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)

	view, err := s.svc.CancelBalance(s.ctx, used.TransactionID, s.acc.Number, 3000)
	s.Require().NoError(err)
	s.Equal(transaction.Cancel, view.Type)
	s.Equal(transaction.Success, view.Result)
	s.Equal(int64(10000), view.BalanceSnapshot)
	s.NotEqual(used.TransactionID, view.TransactionID)
	s.Equal(int64(10000), s.balance(s.acc))

	recs := s.records(s.acc)
	s.Require().Len(recs, 2)
	s.Require().NotNil(recs[1].OriginalTransactionID)
	s.Equal(used.TransactionID, *recs[1].OriginalTransactionID)
}

func (s *EngineTestSuite) TestCancelBalance_CreditsOnTopOfCurrentBalance() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)
	s.setBalance(s.acc, 10000)

	view, err := s.svc.CancelBalance(s.ctx, used.TransactionID, s.acc.Number, 3000)
	s.Require().NoError(err)
	s.Equal(int64(13000), view.BalanceSnapshot)
}

func (s *EngineTestSuite) setBalance(acc *account.Account, balance int64) {
	err := s.uow.Do(s.ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		stored, err := repo.Get(s.ctx, acc.ID)
		if err != nil {
			return err
		}
		stored.Balance = balance
		return repo.Update(s.ctx, stored)
	})
	s.Require().NoError(err)
}

func (s *EngineTestSuite) TestCancelBalance_PartialAmount() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)

	_, err = s.svc.CancelBalance(s.ctx, used.TransactionID, s.acc.Number, 3001)
	s.requireCode(err, domain.CancelMustFully)
	s.Equal(int64(7000), s.balance(s.acc))

	recs := s.records(s.acc)
	s.Require().Len(recs, 2)
	s.Equal(transaction.Cancel, recs[1].Type)
	s.Equal(transaction.Fail, recs[1].Result)
	s.Equal(int64(7000), recs[1].BalanceSnapshot)
}

func (s *EngineTestSuite) TestCancelBalance_Rejections() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)
	otherAcc := s.createAccount(s.other.ID, "1000000004", 1000)

	_, err = s.svc.CancelBalance(s.ctx, "missing", s.acc.Number, 3000)
	s.requireCode(err, domain.TransactionNotFound)

	_, err = s.svc.CancelBalance(s.ctx, used.TransactionID, "1999999999", 3000)
	s.requireCode(err, domain.AccountNotFound)

	_, err = s.svc.CancelBalance(s.ctx, used.TransactionID, otherAcc.Number, 3000)
	s.requireCode(err, domain.TransactionAccountUnmatched)

	s.Len(s.records(s.acc), 1)
	s.Len(s.records(otherAcc), 1)
	s.Equal(int64(1000), s.balance(otherAcc))
}

func (s *EngineTestSuite) TestCancelBalance_CancelWindow() {
	early, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)
	late, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 2000)
	s.Require().NoError(err)
	usedAt := s.clock.Now()

	s.clock.Set(usedAt.AddDate(1, 0, 1))
	_, err = s.svc.CancelBalance(s.ctx, early.TransactionID, s.acc.Number, 3000)
	s.requireCode(err, domain.TooOldOrderToCancel)

	s.clock.Set(usedAt.AddDate(1, 0, -1))
	_, err = s.svc.CancelBalance(s.ctx, early.TransactionID, s.acc.Number, 3000)
	s.Require().NoError(err)

	s.clock.Set(usedAt.AddDate(1, 0, 0))
	_, err = s.svc.CancelBalance(s.ctx, late.TransactionID, s.acc.Number, 2000)
	s.Require().NoError(err)
	s.Equal(int64(10000), s.balance(s.acc))
}

func (s *EngineTestSuite) TestCancelBalance_Twice() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)
	_, err = s.svc.CancelBalance(s.ctx, used.TransactionID, s.acc.Number, 3000)
	s.Require().NoError(err)

	_, err = s.svc.CancelBalance(s.ctx, used.TransactionID, s.acc.Number, 3000)
	s.requireCode(err, domain.InvalidRequest)
	s.Equal(int64(10000), s.balance(s.acc))
}

func (s *EngineTestSuite) TestCancelBalance_FailedUseIsNotCancellable() {
	_, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 20000)
	s.requireCode(err, domain.AmountExceedBalance)
	failed := s.records(s.acc)[0]

	_, err = s.svc.CancelBalance(s.ctx, failed.TransactionID, s.acc.Number, 20000)
	s.requireCode(err, domain.InvalidRequest)
	s.Equal(int64(10000), s.balance(s.acc))
}

func (s *EngineTestSuite) TestQueryTransaction() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)

	view, err := s.svc.QueryTransaction(s.ctx, used.TransactionID)
	s.Require().NoError(err)
	s.Equal(used, view)

	_, err = s.svc.QueryTransaction(s.ctx, "missing")
	s.requireCode(err, domain.TransactionNotFound)
}

func (s *EngineTestSuite) TestQueryTransaction_FillsCache() {
	c := cache.NewMemoryCache()
	svc := txservice.New(s.uow, slog.Default(),
		txservice.WithClock(s.clock.Now),
		txservice.WithCache(c, time.Minute),
	)
	used, err := svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)

	cached, err := c.Get(s.ctx, used.TransactionID)
	s.Require().NoError(err)
	s.Nil(cached)

	_, err = svc.QueryTransaction(s.ctx, used.TransactionID)
	s.Require().NoError(err)

	cached, err = c.Get(s.ctx, used.TransactionID)
	s.Require().NoError(err)
	s.Require().NotNil(cached)
	s.Equal(used.BalanceSnapshot, cached.BalanceSnapshot)
}

// slowUoW delays every unit of work before running it.
type slowUoW struct {
	*memory.UoW
	delay time.Duration
}

func (u *slowUoW) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	time.Sleep(u.delay)
	return u.UoW.Do(ctx, fn)
}

func (s *EngineTestSuite) TestQueryTransaction_SharedLoadOutlivesCancelledCaller() {
	used, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 3000)
	s.Require().NoError(err)
	svc := txservice.New(&slowUoW{UoW: s.uow, delay: 50 * time.Millisecond}, slog.Default())

	type result struct {
		view *dto.TransactionView
		err  error
	}
	first, cancel := context.WithCancel(s.ctx)
	defer cancel()
	firstDone := make(chan result, 1)
	go func() {
		view, err := svc.QueryTransaction(first, used.TransactionID)
		firstDone <- result{view, err}
	}()

	time.Sleep(5 * time.Millisecond)
	secondDone := make(chan result, 1)
	go func() {
		view, err := svc.QueryTransaction(s.ctx, used.TransactionID)
		secondDone <- result{view, err}
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	got := <-firstDone
	s.ErrorIs(got.err, context.Canceled)

	got = <-secondDone
	s.Require().NoError(got.err)
	s.Equal(used, got.view)
}

func (s *EngineTestSuite) TestSaveFailedUseTransaction() {
	view, err := s.svc.SaveFailedUseTransaction(s.ctx, s.acc.Number, 123)
	s.Require().NoError(err)
	s.Equal(transaction.Fail, view.Result)
	s.Equal(transaction.Use, view.Type)
	s.Equal(int64(10000), view.BalanceSnapshot)

	view, err = s.svc.SaveFailedCancelTransaction(s.ctx, s.acc.Number, 123)
	s.Require().NoError(err)
	s.Equal(transaction.Cancel, view.Type)

	_, err = s.svc.SaveFailedUseTransaction(s.ctx, "1999999999", 123)
	s.requireCode(err, domain.AccountNotFound)
	s.Len(s.records(s.acc), 2)
}

// interleavingUoW runs units of work without isolation: every repository
// call commits on its own and account reads pause, so callers that are not
// serialized by a lock race on the same balance.
type interleavingUoW struct {
	base  *memory.UoW
	pause time.Duration
}

func (u *interleavingUoW) Do(_ context.Context, fn func(repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *interleavingUoW) AccountRepository() (repository.AccountRepository, error) {
	repo, err := u.base.AccountRepository()
	if err != nil {
		return nil, err
	}
	return &pausingAccounts{AccountRepository: repo, pause: u.pause}, nil
}

func (u *interleavingUoW) TransactionRepository() (repository.TransactionRepository, error) {
	return u.base.TransactionRepository()
}

func (u *interleavingUoW) UserRepository() (repository.UserRepository, error) {
	return u.base.UserRepository()
}

type pausingAccounts struct {
	repository.AccountRepository
	pause time.Duration
}

func (r *pausingAccounts) GetByNumber(ctx context.Context, number string) (*account.Account, error) {
	acc, err := r.AccountRepository.GetByNumber(ctx, number)
	time.Sleep(r.pause)
	return acc, err
}

// runConcurrently starts workers goroutines together and counts successes
// and AMOUNT_EXCEED_BALANCE rejections.
func runConcurrently(workers int, op func(i int) error) (succeeded, exceeded int) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := op(i)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.CodeOf(err) == domain.AmountExceedBalance:
				exceeded++
			}
		}()
	}
	close(start)
	wg.Wait()
	return succeeded, exceeded
}

func (s *EngineTestSuite) racyService() *txservice.Service {
	return txservice.New(&interleavingUoW{base: s.uow, pause: 10 * time.Millisecond}, slog.Default(),
		txservice.WithClock(s.clock.Now),
	)
}

func (s *EngineTestSuite) TestConcurrentUses_WithoutLockOverdraw() {
	svc := s.racyService()

	succeeded, _ := runConcurrently(20, func(int) error {
		_, err := svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
		return err
	})

	s.Greater(succeeded, 10, "uses reading the same balance all pass the check")
	s.NotEqual(int64(10000-1000*succeeded), s.balance(s.acc), "updates are lost")
}

func (s *EngineTestSuite) TestLocked_ConcurrentUsesNeverOverdraw() {
	locked := txservice.NewLocked(s.racyService(), infralock.NewMemoryLocker(10*time.Second), "lock:account:")

	const workers = 20
	succeeded, exceeded := runConcurrently(workers, func(int) error {
		_, err := locked.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
		return err
	})

	s.Equal(10, succeeded)
	s.Equal(10, exceeded)
	s.Equal(int64(0), s.balance(s.acc))
	s.Len(s.records(s.acc), workers)
}

func (s *EngineTestSuite) TestLocked_UsesAndCancelsDoNotInterleave() {
	var used []string
	for range 5 {
		view, err := s.svc.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
		s.Require().NoError(err)
		used = append(used, view.TransactionID)
	}
	s.Require().Equal(int64(5000), s.balance(s.acc))
	locked := txservice.NewLocked(s.racyService(), infralock.NewMemoryLocker(10*time.Second), "lock:account:")

	succeeded, _ := runConcurrently(2*len(used), func(i int) error {
		if i < len(used) {
			_, err := locked.CancelBalance(s.ctx, used[i], s.acc.Number, 1000)
			return err
		}
		_, err := locked.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
		return err
	})

	s.Equal(2*len(used), succeeded)
	s.Equal(int64(5000), s.balance(s.acc))
	s.Len(s.records(s.acc), 3*len(used))
}

func (s *EngineTestSuite) TestLocked_BusyAccount() {
	locker := infralock.NewMemoryLocker(20 * time.Millisecond)
	locked := txservice.NewLocked(s.svc, locker, "lock:account:")
	token, err := locker.Acquire(s.ctx, "lock:account:"+s.acc.Number)
	s.Require().NoError(err)

	_, err = locked.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
	s.requireCode(err, domain.AccountTransactionLock)
	s.True(domain.CodeOf(err).Retryable())
	s.Empty(s.records(s.acc))

	_, err = locked.CancelBalance(s.ctx, "missing", s.acc.Number, 1000)
	s.requireCode(err, domain.AccountTransactionLock)

	s.Require().NoError(locker.Release(s.ctx, "lock:account:"+s.acc.Number, token))
	_, err = locked.UseBalance(s.ctx, s.owner.ID, s.acc.Number, 1000)
	s.NoError(err)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestNewTransactionID(t *testing.T) {
	a, b := txservice.NewTransactionID(), txservice.NewTransactionID()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestService_CancelledContext(t *testing.T) {
	uow := memory.NewUoW(memory.NewStore())
	svc := txservice.New(uow, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.UseBalance(ctx, 1, "1000000001", 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, domain.InternalServerError, domain.CodeOf(err))
}
