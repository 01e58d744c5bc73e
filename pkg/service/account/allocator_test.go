package account

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(values ...int) func(int) int {
	i := 0
	return func(int) int {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestRandomAllocator_SkipsTakenNumbers(t *testing.T) {
	a := NewRandomAllocator(5)
	a.intN = sequence(42, 42, 7)
	taken := map[string]bool{"1000000042": true}

	var tried []string
	number, err := a.Allocate(context.Background(), account.Checking, func(_ context.Context, n string) (bool, error) {
		tried = append(tried, n)
		return taken[n], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000007", number)
	assert.Equal(t, []string{"1000000042", "1000000042", "1000000007"}, tried)
}

func TestRandomAllocator_UsesTypePrefix(t *testing.T) {
	a := NewRandomAllocator(1)
	a.intN = sequence(123456)
	free := func(context.Context, string) (bool, error) { return false, nil }

	for typ, want := range map[account.Type]string{
		account.Checking:             "1000123456",
		account.Saving:               "2000123456",
		account.MoneyMarket:          "3000123456",
		account.CertificateOfDeposit: "4000123456",
	} {
		got, err := a.Allocate(context.Background(), typ, free)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, account.ValidNumber(got))
	}
}

func TestRandomAllocator_Exhausted(t *testing.T) {
	a := NewRandomAllocator(3)
	calls := 0
	_, err := a.Allocate(context.Background(), account.Saving, func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.Equal(t, domain.InternalServerError, domain.CodeOf(err))
	assert.Equal(t, 3, calls)
}

func TestRandomAllocator_Errors(t *testing.T) {
	a := NewRandomAllocator(0)
	assert.Equal(t, DefaultMaxAttempts, a.MaxAttempts)

	_, err := a.Allocate(context.Background(), account.Type("BROKERAGE"), nil)
	assert.Equal(t, domain.InvalidRequest, domain.CodeOf(err))

	boom := errors.New("db down")
	_, err = a.Allocate(context.Background(), account.Checking, func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
