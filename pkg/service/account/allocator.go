package account

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/amirasaad/ledger/pkg/domain/account"
)

// NumberAllocator hands out unused account numbers. exists reports whether
// a candidate number is already taken.
type NumberAllocator interface {
	Allocate(ctx context.Context, t account.Type, exists func(ctx context.Context, number string) (bool, error)) (string, error)
}

// DefaultMaxAttempts bounds how many candidates RandomAllocator tries.
const DefaultMaxAttempts = 20

// RandomAllocator builds numbers from the type prefix and six random digits.
type RandomAllocator struct {
	MaxAttempts int
	intN        func(n int) int
}

// NewRandomAllocator returns an allocator trying up to maxAttempts candidates.
func NewRandomAllocator(maxAttempts int) *RandomAllocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RandomAllocator{MaxAttempts: maxAttempts, intN: rand.IntN}
}

// Allocate returns the first candidate for which exists reports false.
func (a *RandomAllocator) Allocate(
	ctx context.Context,
	t account.Type,
	exists func(ctx context.Context, number string) (bool, error),
) (string, error) {
	if !t.Valid() {
		return "", domain.Errorf(domain.InvalidRequest, "unknown account type %q", t)
	}
	for range a.MaxAttempts {
		candidate := fmt.Sprintf("%s%06d", t.Prefix(), a.intN(1_000_000))
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", domain.Errorf(domain.InternalServerError,
		"no free %s account number after %d attempts", t, a.MaxAttempts)
}

var _ NumberAllocator = (*RandomAllocator)(nil)
