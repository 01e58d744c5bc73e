package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/google/uuid"
)

type memoryEntry struct {
	sem  chan struct{}
	refs int
	// token of the current holder; guarded by MemoryLocker.mu.
	token string
}

// MemoryLocker is an in-process Locker. It serializes goroutines of a single
// process and suits the memory store and tests; use RedisLocker when more
// than one process mutates the same accounts.
type MemoryLocker struct {
	mu          sync.Mutex
	entries     map[string]*memoryEntry
	waitTimeout time.Duration
}

// NewMemoryLocker creates a MemoryLocker. Acquire gives up after waitTimeout.
func NewMemoryLocker(waitTimeout time.Duration) *MemoryLocker {
	return &MemoryLocker{
		entries:     make(map[string]*memoryEntry),
		waitTimeout: waitTimeout,
	}
}

func (l *MemoryLocker) ref(key string) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

// unref drops one reference and forgets the key once nobody holds or waits on it.
func (l *MemoryLocker) unref(key string, e *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Acquire implements lock.Locker. A done ctx never acquires, even when the
// key is free.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", lock.ErrUnavailable, key, err)
	}
	e := l.ref(key)

	select {
	case e.sem <- struct{}{}:
		return l.grant(e), nil
	default:
	}

	timer := time.NewTimer(l.waitTimeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return l.grant(e), nil
	case <-timer.C:
		l.unref(key, e)
		return "", fmt.Errorf("%w: %s: wait timeout %s exceeded", lock.ErrUnavailable, key, l.waitTimeout)
	case <-ctx.Done():
		l.unref(key, e)
		return "", fmt.Errorf("%w: %s: %w", lock.ErrUnavailable, key, ctx.Err())
	}
}

func (l *MemoryLocker) grant(e *memoryEntry) string {
	token := uuid.NewString()
	l.mu.Lock()
	e.token = token
	l.mu.Unlock()
	return token
}

// Release implements lock.Locker.
func (l *MemoryLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok || token == "" || e.token != token {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", lock.ErrNotHeld, key)
	}
	e.token = ""
	l.mu.Unlock()

	<-e.sem
	l.unref(key, e)
	return nil
}

var _ lock.Locker = (*MemoryLocker)(nil)
