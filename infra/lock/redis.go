package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes RedisLocker.
type RedisOptions struct {
	// Expiry is the lease after which Redis drops a lock whose holder died.
	Expiry time.Duration
	// WaitTimeout bounds how long Acquire waits for a busy key.
	WaitTimeout time.Duration
	// RetryDelay is the pause between acquisition attempts.
	RetryDelay time.Duration
}

// RedisLocker is a distributed Locker built on the RedLock algorithm.
type RedisLocker struct {
	rs     *redsync.Redsync
	opts   RedisOptions
	logger *slog.Logger

	mu sync.Mutex
	// held maps an acquisition token to its mutex.
	held map[string]*redsync.Mutex
}

// NewRedisLocker creates a RedisLocker over client.
func NewRedisLocker(client redis.UniversalClient, opts RedisOptions, logger *slog.Logger) *RedisLocker {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 50 * time.Millisecond
	}
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		opts:   opts,
		logger: logger.With("component", "redis-locker"),
		held:   make(map[string]*redsync.Mutex),
	}
}

func (l *RedisLocker) tries() int {
	n := int(l.opts.WaitTimeout / l.opts.RetryDelay)
	if n < 1 {
		return 1
	}
	return n
}

// Acquire implements lock.Locker. The token is the random value redsync
// stores under key, so it names this acquisition alone.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.WaitTimeout)
	defer cancel()

	m := l.rs.NewMutex(
		key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.tries()),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := m.LockContext(ctx); err != nil {
		l.logger.Debug("lock not acquired", "key", key, "error", err)
		return "", fmt.Errorf("%w: %s: %w", lock.ErrUnavailable, key, err)
	}

	token := m.Value()
	l.mu.Lock()
	l.held[token] = m
	l.mu.Unlock()
	return token, nil
}

// Release implements lock.Locker.
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	m, ok := l.held[token]
	if ok && m.Name() == key {
		delete(l.held, token)
	}
	l.mu.Unlock()
	if !ok || m.Name() != key {
		return fmt.Errorf("%w: %s", lock.ErrNotHeld, key)
	}

	if until := m.Until(); time.Now().After(until) {
		l.logger.Warn("lock lease overrun", "key", key, "expired_at", until)
	}
	// Unlock only deletes key while it still holds this token's value, so
	// an expired lease never frees a later holder.
	if released, err := m.UnlockContext(ctx); !released {
		l.logger.Warn("lock released after lease expired", "key", key, "error", err)
		return fmt.Errorf("%w: %s: %v", lock.ErrNotHeld, key, err)
	}
	return nil
}

var _ lock.Locker = (*RedisLocker)(nil)
