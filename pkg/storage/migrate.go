package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/platinummonkey/lexicon/pkg/observability"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded schema migrations for the primary's dialect
func (cm *ConnectionManager) Migrate(ctx context.Context) error {
	dialect, err := gooseDialect(cm.dialect.Name())
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrations, "migrations/"+cm.dialect.Name())
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, cm.primary, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logMigrations(cm.logger, results)
	return nil
}

func logMigrations(logger *observability.Logger, results []*goose.MigrationResult) {
	if logger == nil {
		return
	}
	for _, r := range results {
		logger.WithFields(map[string]interface{}{
			"version":  r.Source.Version,
			"duration": r.Duration.String(),
		}).Info("Applied migration")
	}
}

func gooseDialect(driver string) (goose.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return goose.DialectPostgres, nil
	case DriverMySQL:
		return goose.DialectMySQL, nil
	case DriverSQLite:
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("no migrations for driver: %s", driver)
	}
}
