// Package initializer builds the application dependencies from configuration.
package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/amirasaad/ledger/infra"
	infracache "github.com/amirasaad/ledger/infra/cache"
	infraeventbus "github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	infrarepo "github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/cache"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/lock"
	"github.com/amirasaad/ledger/pkg/repository"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (deps *app.Deps, err error) {
	logger := setupLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	deps = &app.Deps{Logger: logger}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	deps.Uow, err = initUnitOfWork(cfg, deps, logger)
	if err != nil {
		return deps, err
	}

	var client redis.UniversalClient
	if usesRedis(cfg) {
		c, err := infra.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			return deps, err
		}
		deps.Closers = append(deps.Closers, c.Close)
		client = c
	}

	deps.Locker = initLocker(cfg, client, logger)
	deps.Cache = initCache(cfg, client, logger)
	deps.EventBus, err = initEventBus(cfg, client, deps, logger)
	if err != nil {
		return deps, err
	}

	logger.Info("Dependencies initialized",
		"db", cfg.DB.Driver,
		"lock", cfg.Lock.Driver,
		"cache", cfg.Cache.Driver,
		"event_bus", cfg.EventBus.Driver,
	)
	return deps, nil
}

func usesRedis(cfg *config.App) bool {
	return cfg.Lock.Driver == "redis" || cfg.Cache.Driver == "redis" || cfg.EventBus.Driver == "redis"
}

func initUnitOfWork(cfg *config.App, deps *app.Deps, logger *slog.Logger) (repository.UnitOfWork, error) {
	if cfg.DB.Driver == "memory" {
		logger.Warn("Using in-memory ledger store; data is lost on exit")
		return memory.NewUoW(memory.NewStore()), nil
	}

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	deps.Closers = append(deps.Closers, sqlDB.Close)

	if cfg.DB.AutoMigrate {
		if err := infra.RunMigrations(db, cfg.DB.MigrationsPath); err != nil {
			logger.Error("Failed to run migrations", "path", cfg.DB.MigrationsPath, "error", err)
			return nil, err
		}
	}
	return infrarepo.NewUoW(db), nil
}

func initLocker(cfg *config.App, client redis.UniversalClient, logger *slog.Logger) lock.Locker {
	if cfg.Lock.Driver == "redis" {
		return infralock.NewRedisLocker(client, infralock.RedisOptions{
			Expiry:      cfg.Lock.Expiry,
			WaitTimeout: cfg.Lock.WaitTimeout,
			RetryDelay:  cfg.Lock.RetryDelay,
		}, logger)
	}
	return infralock.NewMemoryLocker(cfg.Lock.WaitTimeout)
}

func initCache(cfg *config.App, client redis.UniversalClient, logger *slog.Logger) cache.TransactionCache {
	switch cfg.Cache.Driver {
	case "redis":
		return infracache.NewRedisTransactionCache(client, cfg.Cache.Prefix, logger)
	case "none":
		return nil
	default:
		return infracache.NewMemoryCache()
	}
}

func initEventBus(
	cfg *config.App,
	client redis.UniversalClient,
	deps *app.Deps,
	logger *slog.Logger,
) (eventbus.Bus, error) {
	switch cfg.EventBus.Driver {
	case "redis":
		bus, err := infraeventbus.NewWithRedis(client, cfg.EventBus.RedisStream, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		deps.Closers = append(deps.Closers, bus.Close)
		return bus, nil
	case "kafka":
		if cfg.EventBus.Kafka == nil {
			return nil, fmt.Errorf("kafka event bus: missing configuration")
		}
		kc := cfg.EventBus.Kafka
		bus, err := infraeventbus.NewWithKafka(kc.Brokers, kc.Topic, logger,
			infraeventbus.WithSASLPlain(kc.SASLUsername, kc.SASLPassword))
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		deps.Closers = append(deps.Closers, bus.Close)
		return bus, nil
	default:
		return infraeventbus.NewWithMemory(logger), nil
	}
}
