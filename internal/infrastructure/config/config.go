package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port            string        `env:"PORT,             default=8000"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
}

type AuthConfig struct {
	JWTSecret        string `env:"JWT_SECRET,         required"`
	JWTExpire        string `env:"JWT_EXPIRE,         default=1h"`
	JWTRefreshExpire string `env:"JWT_REFRESH_EXPIRE, default=30d"`
	JWTIssuer        string `env:"JWT_ISSUER,         default=task-management-api"`
	JWTAudience      string `env:"JWT_AUDIENCE,       default=task-management-users"`
	BcryptRounds     int    `env:"BCRYPT_ROUNDS,      default=12"`
}

type MongoConfig struct {
	URI      string `env:"MONGODB_URI, required"`
	Database string `env:"MONGO_DB,    default=task_management"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"RATE_LIMIT_ENABLED, default=true"`
	General int64         `env:"RATE_LIMIT_GENERAL, default=1000"`
	Auth    int64         `env:"RATE_LIMIT_AUTH,    default=5"`
	Window  time.Duration `env:"RATE_LIMIT_WINDOW,  default=15m"`
}

type AuditConfig struct {
	Workers   int `env:"AUDIT_WORKERS,    default=2"`
	QueueSize int `env:"AUDIT_QUEUE_SIZE, default=256"`
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Load reads configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %q is not a valid port", c.Port))
	}
	if c.Auth.BcryptRounds < 4 || c.Auth.BcryptRounds > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_ROUNDS: %d outside [4, 31]", c.Auth.BcryptRounds))
	}
	if c.RateLimit.General <= 0 || c.RateLimit.Auth <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_GENERAL and RATE_LIMIT_AUTH must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.Audit.Workers <= 0 || c.Audit.QueueSize <= 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS and AUDIT_QUEUE_SIZE must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
