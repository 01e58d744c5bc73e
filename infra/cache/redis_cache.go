package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/ledger/pkg/cache"
	"github.com/amirasaad/ledger/pkg/dto"
	"github.com/redis/go-redis/v9"
)

// RedisTransactionCache implements TransactionCache using Redis.
type RedisTransactionCache struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisTransactionCache creates a new RedisTransactionCache.
func NewRedisTransactionCache(
	client redis.UniversalClient,
	prefix string,
	logger *slog.Logger,
) *RedisTransactionCache {
	return &RedisTransactionCache{client: client, prefix: prefix, logger: logger}
}

func (r *RedisTransactionCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisTransactionCache) Get(ctx context.Context, transactionID string) (*dto.TransactionView, error) {
	val, err := r.client.Get(ctx, r.key(transactionID)).Result()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "transaction_id", transactionID)
		return nil, nil // cache miss
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	var view dto.TransactionView
	if err := json.Unmarshal([]byte(val), &view); err != nil {
		r.logger.Error("Redis cache unmarshal error", "transaction_id", transactionID, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "transaction_id", transactionID)
	return &view, nil
}

func (r *RedisTransactionCache) Set(
	ctx context.Context,
	view *dto.TransactionView,
	ttl time.Duration,
) error {
	data, err := json.Marshal(view)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "transaction_id", view.TransactionID, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(view.TransactionID), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "transaction_id", view.TransactionID, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "transaction_id", view.TransactionID, "ttl", ttl)
	return nil
}

var _ cache.TransactionCache = (*RedisTransactionCache)(nil)
