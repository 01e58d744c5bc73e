// Package lock defines the keyed mutual exclusion primitive used to
// serialize balance mutations per account.
package lock

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when a key could not be acquired within the
	// wait budget, the context ended first, or the backing store failed.
	ErrUnavailable = errors.New("lock unavailable")
	// ErrNotHeld is returned when releasing a key this process does not hold,
	// including one whose lease already expired or whose token is stale.
	ErrNotHeld = errors.New("lock not held")
)

// Locker grants exclusive ownership of a string key to one holder at a time.
//
// Acquire blocks until the key is free, the backend's wait budget runs out,
// or ctx is done. Failures wrap ErrUnavailable. On success it returns a
// token naming this acquisition.
//
// Release gives the key back. Only the holder presenting the token from its
// own Acquire can release; any other token gets ErrNotHeld, so a holder
// whose lease ran out cannot free a key someone else acquired since.
// Callers must release every key they acquired regardless of what happened
// while holding it.
type Locker interface {
	Acquire(ctx context.Context, key string) (token string, err error)
	Release(ctx context.Context, key, token string) error
}
