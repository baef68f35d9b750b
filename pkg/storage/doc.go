// Package storage provides the SQL persistence layer for the lexicon
// translation catalog.
//
// # Overview
//
// Three engines are supported: PostgreSQL (lib/pq), MySQL
// (go-sql-driver/mysql) and SQLite (mattn/go-sqlite3). Engine differences
// live behind the Dialect interface so services write one query with '?'
// placeholders:
//
//   - Rebind rewrites placeholders for PostgreSQL ($1, $2, ...)
//   - Quote quotes identifiers such as the reserved word "key"
//   - FullTextMatch builds a boolean-mode MATCH (MySQL) or a tsquery match
//     (PostgreSQL); SQLite has no full-text support and search falls back to
//     escaped LIKE
//   - UpsertTranslation and EnsureKey hide ON CONFLICT versus
//     ON DUPLICATE KEY
//   - Insert returns the new row id with RETURNING or LastInsertId
//   - IsUniqueViolation recognizes each driver's duplicate-key error
//
// # Connections
//
// Open returns a ConnectionManager holding the primary and any read
// replicas:
//
//	cm, err := storage.Open(ctx, storage.Config{
//		Driver:      storage.DriverPostgres,
//		DSN:         "postgres://localhost/lexicon?sslmode=disable",
//		ReplicaDSNs: []string{"postgres://replica1/lexicon?sslmode=disable"},
//		FullText:    true,
//	}, logger)
//	if err != nil {
//		return err
//	}
//	defer cm.Close()
//
// Writes go to Primary. Replica round-robins over healthy replicas and falls
// back to the primary when none are configured or reachable. Replicas that
// fail to connect at startup are skipped; RemoveUnhealthyReplicas drops the
// ones that stop answering later.
//
// SQLite connections are limited to one open connection with foreign keys
// enabled, which matters for in-memory databases: callers must close a
// result set before issuing the next query.
//
// # Migrations
//
// Migrate applies the goose migrations embedded under migrations/<driver>.
// The PostgreSQL and MySQL sets include the full-text indexes; when they are
// not applied, set Config.FullText to false so search uses LIKE.
package storage
