package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/platinummonkey/lexicon/pkg/observability"
)

// Config holds database connection configuration
type Config struct {
	Driver      string
	DSN         string
	ReplicaDSNs []string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration

	// FullText enables native full-text search on engines that support it
	FullText bool
}

// DefaultConfig returns sensible connection defaults
func DefaultConfig() Config {
	return Config{
		Driver:      DriverPostgres,
		MaxConns:    20,
		MinConns:    2,
		Timeout:     10 * time.Second,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
		FullText:    true,
	}
}

// ConnectionManager manages the primary connection and optional read replicas
type ConnectionManager struct {
	primary  *sql.DB
	replicas []*sql.DB
	current  uint32 // Atomic counter for round-robin selection
	mu       sync.RWMutex
	dialect  Dialect
	config   Config
	logger   *observability.Logger
}

// Open connects to the primary and every reachable replica
func Open(ctx context.Context, config Config, logger *observability.Logger) (*ConnectionManager, error) {
	dialect, err := DialectFor(config.Driver)
	if err != nil {
		return nil, err
	}
	if !config.FullText {
		dialect = WithoutFullText(dialect)
	}

	cm := &ConnectionManager{
		dialect: dialect,
		config:  config,
		logger:  logger,
	}

	primary, err := cm.connect(ctx, config.DSN, config.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary: %w", err)
	}
	cm.primary = primary

	for i, dsn := range config.ReplicaDSNs {
		replicaMaxConns := config.MaxConns / 2
		if replicaMaxConns < 2 {
			replicaMaxConns = 2
		}
		replica, err := cm.connect(ctx, dsn, replicaMaxConns)
		if err != nil {
			// Replicas are optional
			logger.WithError(err).Warnf("Skipping replica %d", i)
			continue
		}
		cm.replicas = append(cm.replicas, replica)
	}

	logger.WithFields(map[string]interface{}{
		"driver":   dialect.Name(),
		"replicas": len(cm.replicas),
		"fulltext": dialect.SupportsFullText(),
	}).Info("Database connections initialized")

	return cm, nil
}

// NewConnectionManager wraps an existing handle, mainly for tests
func NewConnectionManager(db *sql.DB, dialect Dialect, logger *observability.Logger) *ConnectionManager {
	return &ConnectionManager{
		primary: db,
		dialect: dialect,
		logger:  logger,
	}
}

func (cm *ConnectionManager) connect(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	dsn, err := NormalizeDSN(cm.config.Driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cm.config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	if cm.config.Driver == DriverSQLite {
		// One connection keeps in-memory databases alive and serializes writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(cm.config.MinConns)
		db.SetConnMaxLifetime(cm.config.MaxLifetime)
		db.SetConnMaxIdleTime(cm.config.MaxIdleTime)
	}

	timeout := cm.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NormalizeDSN applies the driver options the catalog relies on: parsed
// timestamps in UTC for MySQL and enforced foreign keys for SQLite.
func NormalizeDSN(driver, dsn string) (string, error) {
	switch driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql DSN: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		return cfg.FormatDSN(), nil
	case DriverSQLite:
		if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
			return dsn, nil
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "_foreign_keys=on", nil
	default:
		return dsn, nil
	}
}

// Dialect returns the SQL dialect of the primary
func (cm *ConnectionManager) Dialect() Dialect {
	return cm.dialect
}

// Primary returns the primary database connection (for writes)
func (cm *ConnectionManager) Primary() *sql.DB {
	return cm.primary
}

// Replica returns a read replica using round-robin selection.
// Falls back to primary if no replicas are available.
func (cm *ConnectionManager) Replica() *sql.DB {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if len(cm.replicas) == 0 {
		return cm.primary
	}

	index := atomic.AddUint32(&cm.current, 1)
	return cm.replicas[int(index%uint32(len(cm.replicas)))]
}

// RemoveUnhealthyReplicas drops replicas that fail a ping
func (cm *ConnectionManager) RemoveUnhealthyReplicas(ctx context.Context) int {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	healthy := make([]*sql.DB, 0, len(cm.replicas))
	removed := 0
	for _, replica := range cm.replicas {
		if err := replica.PingContext(ctx); err != nil {
			replica.Close()
			removed++
			continue
		}
		healthy = append(healthy, replica)
	}
	cm.replicas = healthy
	return removed
}

// Close closes all database connections
func (cm *ConnectionManager) Close() error {
	var errs []error

	if err := cm.primary.Close(); err != nil {
		errs = append(errs, fmt.Errorf("primary close error: %w", err))
	}

	cm.mu.Lock()
	replicas := cm.replicas
	cm.replicas = nil
	cm.mu.Unlock()

	for i, replica := range replicas {
		if err := replica.Close(); err != nil {
			errs = append(errs, fmt.Errorf("replica-%d close error: %w", i, err))
		}
	}

	return errors.Join(errs...)
}
