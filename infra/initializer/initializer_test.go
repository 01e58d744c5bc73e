package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	infracache "github.com/amirasaad/ledger/infra/cache"
	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.App {
	return &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "text"},
		DB:       &config.DB{Driver: "memory"},
		Redis:    &config.Redis{},
		Lock:     &config.Lock{Driver: "memory", WaitTimeout: time.Second, Expiry: time.Second, RetryDelay: 10 * time.Millisecond},
		Cache:    &config.Cache{Driver: "memory", TTL: time.Minute, Prefix: "ledger:tx:"},
		EventBus: &config.EventBus{Driver: "memory", RedisStream: "ledger:events", Kafka: &config.Kafka{}},
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeDependencies_Memory(t *testing.T) {
	deps, err := InitializeDependencies(memoryConfig())
	require.NoError(t, err)
	defer deps.Close()

	assert.IsType(t, &memory.UoW{}, deps.Uow)
	assert.IsType(t, &infralock.MemoryLocker{}, deps.Locker)
	assert.IsType(t, &infracache.MemoryCache{}, deps.Cache)
	assert.IsType(t, &infraeventbus.MemoryEventBus{}, deps.EventBus)
}

func TestInitializeDependencies_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"
	cfg.Lock.Driver = "redis"
	cfg.Cache.Driver = "redis"
	cfg.EventBus.Driver = "redis"

	deps, err := InitializeDependencies(cfg)
	require.NoError(t, err)

	assert.IsType(t, &infralock.RedisLocker{}, deps.Locker)
	assert.IsType(t, &infracache.RedisTransactionCache{}, deps.Cache)
	assert.IsType(t, &infraeventbus.RedisEventBus{}, deps.EventBus)
	assert.NoError(t, deps.Close())
}

func TestInitializeDependencies_RedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.Redis.URL = "redis://127.0.0.1:1/0"
	cfg.Redis.DialTimeout = 100 * time.Millisecond
	cfg.Lock.Driver = "redis"

	_, err := InitializeDependencies(cfg)
	assert.Error(t, err)
}

func TestInitializeDependencies_PostgresWithoutURL(t *testing.T) {
	cfg := memoryConfig()
	cfg.DB.Driver = "postgres"

	_, err := InitializeDependencies(cfg)
	assert.Error(t, err)
}

func TestInitCache_None(t *testing.T) {
	cfg := memoryConfig()
	cfg.Cache.Driver = "none"
	assert.Nil(t, initCache(cfg, nil, discard()))
}

func TestInitEventBus_Kafka(t *testing.T) {
	cfg := memoryConfig()
	cfg.EventBus.Driver = "kafka"
	deps := &app.Deps{}

	cfg.EventBus.Kafka = &config.Kafka{Brokers: nil, Topic: "ledger.events"}
	_, err := initEventBus(cfg, nil, deps, discard())
	require.Error(t, err)

	cfg.EventBus.Kafka = &config.Kafka{Brokers: []string{"127.0.0.1:9092"}, Topic: "ledger.events"}
	bus, err := initEventBus(cfg, nil, deps, discard())
	require.NoError(t, err)
	assert.IsType(t, &infraeventbus.KafkaEventBus{}, bus)
	assert.Len(t, deps.Closers, 1)
}

func TestInitEventBus_RedisRequiresStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cfg := memoryConfig()
	cfg.EventBus.Driver = "redis"
	cfg.EventBus.RedisStream = ""
	_, err := initEventBus(cfg, client, &app.Deps{}, discard())
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Log{Format: "json", Prefix: "[ledger]"}, &buf)
	logger.Info("hello", "accountNumber", "1000000001")
	assert.Contains(t, buf.String(), `"accountNumber":"1000000001"`)
	assert.Contains(t, buf.String(), "[ledger]")
}
