package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the configuration from the environment. Each envFiles entry
// is searched for in the working directory and its parents; the first one
// found is loaded into the environment before envconfig runs.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		path, err := findUp(name)
		if err != nil {
			logger.Debug("Environment file not found", "name", name)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("Failed to load environment file", "path", path, "error", err)
			continue
		}
		logger.Info("Environment loaded from file", "path", path)
		break
	}
	return loadFromEnv()
}

// findUp returns the nearest file called name, starting at the working
// directory and walking towards the root.
func findUp(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

func loadFromEnv() (*App, error) {
	var cfg App
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	// Set default values if not set
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"lock_driver", cfg.Lock.Driver,
		"lock_expiry", cfg.Lock.Expiry,
		"lock_wait_timeout", cfg.Lock.WaitTimeout,
		"cache_driver", cfg.Cache.Driver,
		"cache_ttl", cfg.Cache.TTL,
		"event_bus_driver", cfg.EventBus.Driver,
		"max_accounts_per_user", cfg.Ledger.MaxAccountsPerUser,
	)
	return &cfg, nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}

// Validate rejects driver names the initializer cannot build.
func (a *App) Validate() error {
	if !slices.Contains([]string{"postgres", "memory"}, a.DB.Driver) {
		return fmt.Errorf("unsupported database driver %q", a.DB.Driver)
	}
	if a.DB.Driver == "postgres" && a.DB.Url == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}
	if !slices.Contains([]string{"redis", "memory"}, a.Lock.Driver) {
		return fmt.Errorf("unsupported lock driver %q", a.Lock.Driver)
	}
	if !slices.Contains([]string{"memory", "redis", "none"}, a.Cache.Driver) {
		return fmt.Errorf("unsupported cache driver %q", a.Cache.Driver)
	}
	if !slices.Contains([]string{"memory", "redis", "kafka"}, a.EventBus.Driver) {
		return fmt.Errorf("unsupported event bus driver %q", a.EventBus.Driver)
	}
	if a.Lock.WaitTimeout <= 0 || a.Lock.Expiry <= 0 {
		return fmt.Errorf("lock wait timeout and expiry must be positive")
	}
	if a.Ledger.MaxAccountsPerUser < 1 {
		return fmt.Errorf("LEDGER_MAX_ACCOUNTS_PER_USER must be at least 1")
	}
	return nil
}
