// Package storagetest provides an in-memory catalog database for tests.
package storagetest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// New opens a migrated in-memory SQLite catalog that is closed when the test ends
func New(t testing.TB) *storage.ConnectionManager {
	t.Helper()

	cfg := storage.DefaultConfig()
	cfg.Driver = storage.DriverSQLite
	cfg.DSN = ":memory:"

	ctx := context.Background()
	cm, err := storage.Open(ctx, cfg, Logger())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { cm.Close() })

	if err := cm.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return cm
}

// Logger returns a logger that discards output
func Logger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// Seeder inserts catalog rows directly, bypassing services. It works on any
// dialect.
type Seeder struct {
	t  testing.TB
	cm *storage.ConnectionManager
}

// NewSeeder creates a seeder bound to cm
func NewSeeder(t testing.TB, cm *storage.ConnectionManager) *Seeder {
	return &Seeder{t: t, cm: cm}
}

// Locale inserts a locale and returns its id
func (s *Seeder) Locale(code, name string) int64 {
	s.t.Helper()
	return s.insert("INSERT INTO locales (code, name) VALUES (?, ?)", code, name)
}

// Tag inserts a tag and returns its id
func (s *Seeder) Tag(name string) int64 {
	s.t.Helper()
	return s.insert("INSERT INTO tags (name) VALUES (?)", name)
}

// Key inserts a translation key and returns its id
func (s *Seeder) Key(key string) int64 {
	s.t.Helper()
	return s.insert("INSERT INTO translation_keys ("+s.cm.Dialect().Quote("key")+") VALUES (?)", key)
}

// Translation inserts a translation with the given update time and returns its id
func (s *Seeder) Translation(keyID, localeID int64, value string, updatedAt time.Time) int64 {
	s.t.Helper()
	return s.insert(
		"INSERT INTO translations (translation_key_id, locale_id, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		keyID, localeID, value, updatedAt.UTC(), updatedAt.UTC(),
	)
}

// TagTranslation attaches a tag to a translation
func (s *Seeder) TagTranslation(translationID, tagID int64) {
	s.t.Helper()
	s.insert("INSERT INTO translation_tag (translation_id, tag_id) VALUES (?, ?)", translationID, tagID)
}

func (s *Seeder) insert(query string, args ...any) int64 {
	s.t.Helper()
	id, err := s.cm.Dialect().Insert(context.Background(), s.cm.Primary(), query, args...)
	if err != nil {
		s.t.Fatalf("Seed failed (%s): %v", query, err)
	}
	return id
}
