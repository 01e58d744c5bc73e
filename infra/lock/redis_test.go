package lock

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLocker(t *testing.T, opts RedisOptions) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisLocker(client, opts, logger), mr
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	l, mr := setupRedisLocker(t, RedisOptions{
		Expiry:      5 * time.Second,
		WaitTimeout: 200 * time.Millisecond,
		RetryDelay:  20 * time.Millisecond,
	})
	ctx := context.Background()

	token := mustAcquire(t, l, "lock:account:1000123456")
	assert.True(t, mr.Exists("lock:account:1000123456"))

	require.NoError(t, l.Release(ctx, "lock:account:1000123456", token))
	assert.False(t, mr.Exists("lock:account:1000123456"))
	assert.Empty(t, l.held)
}

func TestRedisLocker_BusyKey(t *testing.T) {
	l, _ := setupRedisLocker(t, RedisOptions{
		Expiry:      5 * time.Second,
		WaitTimeout: 100 * time.Millisecond,
		RetryDelay:  20 * time.Millisecond,
	})
	ctx := context.Background()

	token := mustAcquire(t, l, "k")

	_, err := l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, lock.ErrUnavailable)

	require.NoError(t, l.Release(ctx, "k", token))
	token = mustAcquire(t, l, "k")
	require.NoError(t, l.Release(ctx, "k", token))
}

func TestRedisLocker_ReleaseNotHeld(t *testing.T) {
	l, _ := setupRedisLocker(t, RedisOptions{Expiry: time.Second, WaitTimeout: 50 * time.Millisecond})
	assert.ErrorIs(t, l.Release(context.Background(), "k", "token"), lock.ErrNotHeld)
}

func TestRedisLocker_ReleaseWrongKey(t *testing.T) {
	l, mr := setupRedisLocker(t, RedisOptions{Expiry: 5 * time.Second, WaitTimeout: 50 * time.Millisecond})
	token := mustAcquire(t, l, "k")

	assert.ErrorIs(t, l.Release(context.Background(), "other", token), lock.ErrNotHeld)
	assert.True(t, mr.Exists("k"))
	require.NoError(t, l.Release(context.Background(), "k", token))
}

func TestRedisLocker_ExpiredLease(t *testing.T) {
	l, mr := setupRedisLocker(t, RedisOptions{
		Expiry:      time.Second,
		WaitTimeout: 50 * time.Millisecond,
		RetryDelay:  10 * time.Millisecond,
	})
	ctx := context.Background()

	token := mustAcquire(t, l, "k")
	mr.FastForward(2 * time.Second)

	assert.ErrorIs(t, l.Release(ctx, "k", token), lock.ErrNotHeld)
}

func TestRedisLocker_OverrunHolderKeepsLaterHolder(t *testing.T) {
	l, mr := setupRedisLocker(t, RedisOptions{
		Expiry:      time.Second,
		WaitTimeout: 50 * time.Millisecond,
		RetryDelay:  10 * time.Millisecond,
	})
	ctx := context.Background()

	first := mustAcquire(t, l, "k")
	mr.FastForward(2 * time.Second)
	second := mustAcquire(t, l, "k")
	require.NotEqual(t, first, second)

	assert.ErrorIs(t, l.Release(ctx, "k", first), lock.ErrNotHeld)
	assert.True(t, mr.Exists("k"), "the later holder still owns the key")
	_, err := l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, lock.ErrUnavailable)

	require.NoError(t, l.Release(ctx, "k", second))
	assert.False(t, mr.Exists("k"))
}

func TestRedisLocker_ContextCancelled(t *testing.T) {
	l, _ := setupRedisLocker(t, RedisOptions{
		Expiry:      5 * time.Second,
		WaitTimeout: time.Second,
		RetryDelay:  10 * time.Millisecond,
	})
	mustAcquire(t, l, "k")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, lock.ErrUnavailable)
}

func TestRedisLocker_MutualExclusion(t *testing.T) {
	l, _ := setupRedisLocker(t, RedisOptions{
		Expiry:      5 * time.Second,
		WaitTimeout: 10 * time.Second,
		RetryDelay:  5 * time.Millisecond,
	})
	ctx := context.Background()

	const workers = 8
	var current, maxSeen int32
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := l.Acquire(ctx, "shared")
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&current, 1)
			if n > atomic.LoadInt32(&maxSeen) {
				atomic.StoreInt32(&maxSeen, n)
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&current, -1)
			if err := l.Release(ctx, "shared", token); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}
