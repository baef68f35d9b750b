package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/platinummonkey/lexicon/pkg/cache"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// DefaultEnvFile is loaded when present and LEXICON_ENV_FILE is unset
const DefaultEnvFile = ".env"

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `envPrefix:"LEXICON_"`
	Database      DatabaseConfig      `envPrefix:"LEXICON_DB_"`
	Cache         CacheConfig         `envPrefix:"LEXICON_CACHE_"`
	Observability ObservabilityConfig `envPrefix:"LEXICON_"`
	Stats         StatsConfig         `envPrefix:"LEXICON_STATS_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            string        `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `env:"HEALTH_PORT" envDefault:"9090"`
}

// DatabaseConfig holds catalog database settings
type DatabaseConfig struct {
	Driver         string        `env:"DRIVER" envDefault:"postgres"`
	DSN            string        `env:"DSN"`
	ReplicaDSNs    []string      `env:"REPLICA_DSNS" envSeparator:","`
	MaxConns       int           `env:"MAX_CONNS" envDefault:"20"`
	MinConns       int           `env:"MIN_CONNS" envDefault:"2"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
	MaxLifetime    time.Duration `env:"MAX_LIFETIME" envDefault:"1h"`
	MaxIdleTime    time.Duration `env:"MAX_IDLE_TIME" envDefault:"10m"`

	// FullText enables native full-text search where the engine has it.
	// Disable when the full-text indexes were not migrated.
	FullText bool `env:"FULLTEXT" envDefault:"true"`

	MigrateOnStart bool `env:"MIGRATE_ON_START" envDefault:"false"`
}

// CacheConfig holds cache store settings
type CacheConfig struct {
	// Backends are tried in order at startup, the first reachable one is used
	Backends []string `env:"BACKENDS" envSeparator:"," envDefault:"redis,memory"`

	RedisURL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize   int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMaxRetries int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	KeyPrefix       string `env:"KEY_PREFIX" envDefault:"lexicon:"`

	MemoryEntries int `env:"MEMORY_ENTRIES" envDefault:"1024"`

	// ExportTTL bounds how long an export document stays cached
	ExportTTL time.Duration `env:"EXPORT_TTL" envDefault:"10m"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`

	OTelEnabled        bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint       string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4317"`
	OTelServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"lexicon"`
	OTelServiceVersion string  `env:"OTEL_SERVICE_VERSION" envDefault:"1.0.0"`
	OTelInsecure       bool    `env:"OTEL_INSECURE" envDefault:"true"`
	OTelSampleRatio    float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// StatsConfig holds the catalog statistics job settings
type StatsConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Schedule string `env:"SCHEDULE" envDefault:"@every 1m"`
}

// Load reads the optional env file and then the environment
func Load() (*Config, error) {
	path := os.Getenv("LEXICON_ENV_FILE")
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	} else if _, err := os.Stat(DefaultEnvFile); err == nil {
		if err := godotenv.Load(DefaultEnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", DefaultEnvFile, err)
		}
	}

	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port is required")
	}
	if c.Server.HealthPort == "" {
		return errors.New("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return errors.New("server port and health port must be different")
	}

	if _, err := storage.DialectFor(c.Database.Driver); err != nil {
		return fmt.Errorf("invalid database driver: %s (must be postgres, mysql, or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database DSN is required")
	}

	if len(c.Cache.Backends) == 0 {
		return errors.New("at least one cache backend is required")
	}
	for _, backend := range c.Cache.Backends {
		switch backend {
		case cache.BackendRedis:
			if c.Cache.RedisURL == "" {
				return errors.New("redis URL is required when the redis cache backend is listed")
			}
		case cache.BackendMemory:
		default:
			return fmt.Errorf("invalid cache backend: %s (must be redis or memory)", backend)
		}
	}
	if c.Cache.ExportTTL <= 0 {
		return errors.New("export cache TTL must be positive")
	}

	if _, err := observability.ParseLevel(c.Observability.LogLevel); err != nil {
		return err
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return errors.New("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return errors.New("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// LogLevel returns the parsed log level
func (c *Config) LogLevel() observability.LogLevel {
	level, _ := observability.ParseLevel(c.Observability.LogLevel)
	return level
}

// StorageConfig converts the database settings into a storage.Config
func (c *Config) StorageConfig() storage.Config {
	cfg := storage.DefaultConfig()
	cfg.Driver = c.Database.Driver
	cfg.DSN = c.Database.DSN
	cfg.ReplicaDSNs = c.Database.ReplicaDSNs
	cfg.MaxConns = c.Database.MaxConns
	cfg.MinConns = c.Database.MinConns
	cfg.Timeout = c.Database.ConnectTimeout
	cfg.MaxLifetime = c.Database.MaxLifetime
	cfg.MaxIdleTime = c.Database.MaxIdleTime
	cfg.FullText = c.Database.FullText
	return cfg
}

// CacheBackends returns the configured cache backends in preference order
func (c *Config) CacheBackends() []cache.Backend {
	backends := make([]cache.Backend, 0, len(c.Cache.Backends))
	for _, name := range c.Cache.Backends {
		switch name {
		case cache.BackendRedis:
			backends = append(backends, cache.Redis(cache.RedisConfig{
				URL:        c.Cache.RedisURL,
				Password:   c.Cache.RedisPassword,
				DB:         c.Cache.RedisDB,
				PoolSize:   c.Cache.RedisPoolSize,
				MaxRetries: c.Cache.RedisMaxRetries,
				KeyPrefix:  c.Cache.KeyPrefix,
			}))
		case cache.BackendMemory:
			backends = append(backends, cache.Memory(c.Cache.MemoryEntries, c.Cache.ExportTTL))
		}
	}
	return backends
}

// OTelConfig converts the observability settings into an OTelConfig
func (c *Config) OTelConfig() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        c.Observability.OTelEnabled,
		Endpoint:       c.Observability.OTelEndpoint,
		ServiceName:    c.Observability.OTelServiceName,
		ServiceVersion: c.Observability.OTelServiceVersion,
		Insecure:       c.Observability.OTelInsecure,
		SampleRatio:    c.Observability.OTelSampleRatio,
	}
}
