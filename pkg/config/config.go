package config

import (
	"time"
)

type DB struct {
	Driver          string        `envconfig:"DRIVER" default:"postgres"`
	Url             string        `envconfig:"URL"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
	MigrationsPath  string        `envconfig:"MIGRATIONS_PATH" default:"internal/migrations"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"50"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Lock configures the per-account lock coordinator.
type Lock struct {
	Driver      string        `envconfig:"DRIVER" default:"memory"`
	Expiry      time.Duration `envconfig:"EXPIRY" default:"15s"`
	WaitTimeout time.Duration `envconfig:"WAIT_TIMEOUT" default:"1s"`
	RetryDelay  time.Duration `envconfig:"RETRY_DELAY" default:"50ms"`
	KeyPrefix   string        `envconfig:"KEY_PREFIX" default:"lock:account:"`
	UserPrefix  string        `envconfig:"USER_PREFIX" default:"lock:user:"`
}

// Cache configures the read-through cache for ledger record lookups.
type Cache struct {
	Driver string        `envconfig:"DRIVER" default:"memory"`
	TTL    time.Duration `envconfig:"TTL" default:"10m"`
	Prefix string        `envconfig:"PREFIX" default:"ledger:tx:"`
}

type Kafka struct {
	Brokers []string `envconfig:"BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"TOPIC" default:"ledger.events"`

	SASLUsername string `envconfig:"SASL_USERNAME"`
	SASLPassword string `envconfig:"SASL_PASSWORD"`
}

type EventBus struct {
	Driver      string `envconfig:"DRIVER" default:"memory"`
	RedisStream string `envconfig:"REDIS_STREAM" default:"ledger:events"`
	Kafka       *Kafka `envconfig:"KAFKA"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Ledger struct {
	MaxAccountsPerUser int `envconfig:"MAX_ACCOUNTS_PER_USER" default:"10"`
	AllocatorAttempts  int `envconfig:"ALLOCATOR_ATTEMPTS" default:"20"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[ledger]"`
}

type Server struct {
	Scheme          string        `envconfig:"SCHEME" default:"http"`
	Host            string        `envconfig:"HOST" default:"localhost"`
	Port            int           `envconfig:"PORT" default:"3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Redis     *Redis     `envconfig:"REDIS"`
	Lock      *Lock      `envconfig:"LOCK"`
	Cache     *Cache     `envconfig:"CACHE"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Ledger    *Ledger    `envconfig:"LEDGER"`
}
