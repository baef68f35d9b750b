package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Driver names accepted by Open
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect describes the SQL differences between supported engines. Callers
// decide between native full-text search and pattern matching through
// SupportsFullText rather than by inspecting the driver name.
type Dialect interface {
	// Name returns the database/sql driver name
	Name() string

	// SupportsFullText reports whether FullTextMatch can be used
	SupportsFullText() bool

	// Rebind rewrites '?' placeholders into the engine's bind syntax
	Rebind(query string) string

	// Quote quotes an identifier that may collide with a reserved word
	Quote(ident string) string

	// LikeEscape returns the ESCAPE clause matching EscapeLike
	LikeEscape() string

	// FullTextMatch returns a predicate requiring every whitespace-delimited
	// term as a prefix match on column. ok is false when terms holds no
	// searchable token.
	FullTextMatch(column, terms string) (clause string, arg string, ok bool)

	// UpsertTranslation inserts or overwrites the translation for the
	// (keyID, localeID) pair and returns its id.
	UpsertTranslation(ctx context.Context, q Querier, keyID, localeID int64, value string, now time.Time) (int64, error)

	// EnsureKey returns the id of key, creating the row if needed.
	EnsureKey(ctx context.Context, q Querier, key string, now time.Time) (int64, error)

	// Insert runs an INSERT written with '?' placeholders and returns the
	// id of the new row.
	Insert(ctx context.Context, q Querier, query string, args ...any) (int64, error)

	// IsUniqueViolation reports whether err is a unique constraint failure
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect for a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return postgresDialect{}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	case DriverSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// WithoutFullText wraps d so that SupportsFullText reports false. Used when
// the full-text indexes have not been created.
func WithoutFullText(d Dialect) Dialect {
	return noFullText{Dialect: d}
}

type noFullText struct {
	Dialect
}

func (noFullText) SupportsFullText() bool { return false }

func (noFullText) FullTextMatch(string, string) (string, string, bool) { return "", "", false }

// EscapeLike escapes the LIKE wildcards in value so it matches literally
func EscapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

// Placeholders returns n comma-separated '?' placeholders
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// searchTokens splits terms into word tokens, dropping punctuation so that
// engine-specific query operators cannot be injected.
func searchTokens(terms string) []string {
	return strings.FieldsFunc(terms, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// --- PostgreSQL ---

type postgresDialect struct{}

func (postgresDialect) Name() string           { return DriverPostgres }
func (postgresDialect) SupportsFullText() bool { return true }
func (postgresDialect) LikeEscape() string     { return `ESCAPE '\'` }

func (postgresDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PostgresSearchVector is the indexed expression used for full-text search.
// Dots and underscores are treated as word separators so "auth.login"
// matches both "auth" and "login". The migrations index this exact expression.
func PostgresSearchVector(column string) string {
	return fmt.Sprintf(`to_tsvector('simple', regexp_replace(%s, '[._]', ' ', 'g'))`, column)
}

func (postgresDialect) FullTextMatch(column, terms string) (string, string, bool) {
	tokens := searchTokens(terms)
	if len(tokens) == 0 {
		return "", "", false
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok + ":*"
	}
	clause := PostgresSearchVector(column) + ` @@ to_tsquery('simple', ?)`
	return clause, strings.Join(parts, " & "), true
}

func (d postgresDialect) UpsertTranslation(ctx context.Context, q Querier, keyID, localeID int64, value string, now time.Time) (int64, error) {
	return upsertReturning(ctx, q, d, keyID, localeID, value, now)
}

func (d postgresDialect) EnsureKey(ctx context.Context, q Querier, key string, now time.Time) (int64, error) {
	insert := `INSERT INTO translation_keys (` + d.Quote("key") + `, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (` + d.Quote("key") + `) DO NOTHING`
	return ensureKey(ctx, q, d, insert, key, now)
}

func (d postgresDialect) Insert(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	return insertReturning(ctx, q, d, query, args...)
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// --- MySQL ---

type mysqlDialect struct{}

func (mysqlDialect) Name() string               { return DriverMySQL }
func (mysqlDialect) SupportsFullText() bool     { return true }
func (mysqlDialect) Rebind(query string) string { return query }
func (mysqlDialect) LikeEscape() string         { return `ESCAPE '\\'` }

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (mysqlDialect) FullTextMatch(column, terms string) (string, string, bool) {
	tokens := searchTokens(terms)
	if len(tokens) == 0 {
		return "", "", false
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = "+" + tok + "*"
	}
	return fmt.Sprintf("MATCH(%s) AGAINST(? IN BOOLEAN MODE)", column), strings.Join(parts, " "), true
}

func (mysqlDialect) UpsertTranslation(ctx context.Context, q Querier, keyID, localeID int64, value string, now time.Time) (int64, error) {
	// LAST_INSERT_ID(id) makes LastInsertId report the existing row on update
	res, err := q.ExecContext(ctx, `
		INSERT INTO translations (translation_key_id, locale_id, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id), value = VALUES(value), updated_at = VALUES(updated_at)`,
		keyID, localeID, value, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert translation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read translation id: %w", err)
	}
	return id, nil
}

func (d mysqlDialect) EnsureKey(ctx context.Context, q Querier, key string, now time.Time) (int64, error) {
	insert := "INSERT IGNORE INTO translation_keys (" + d.Quote("key") + ", created_at, updated_at) VALUES (?, ?, ?)"
	return ensureKey(ctx, q, d, insert, key, now)
}

func (mysqlDialect) Insert(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (mysqlDialect) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}

// --- SQLite ---

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return DriverSQLite }
func (sqliteDialect) SupportsFullText() bool     { return false }
func (sqliteDialect) Rebind(query string) string { return query }
func (sqliteDialect) LikeEscape() string         { return `ESCAPE '\'` }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (sqliteDialect) FullTextMatch(string, string) (string, string, bool) {
	return "", "", false
}

func (d sqliteDialect) UpsertTranslation(ctx context.Context, q Querier, keyID, localeID int64, value string, now time.Time) (int64, error) {
	return upsertReturning(ctx, q, d, keyID, localeID, value, now)
}

func (d sqliteDialect) EnsureKey(ctx context.Context, q Querier, key string, now time.Time) (int64, error) {
	insert := `INSERT INTO translation_keys (` + d.Quote("key") + `, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (` + d.Quote("key") + `) DO NOTHING`
	return ensureKey(ctx, q, d, insert, key, now)
}

func (d sqliteDialect) Insert(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	return insertReturning(ctx, q, d, query, args...)
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	return errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func insertReturning(ctx context.Context, q Querier, d Dialect, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// upsertReturning implements UpsertTranslation for engines with
// INSERT ... ON CONFLICT ... RETURNING.
func upsertReturning(ctx context.Context, q Querier, d Dialect, keyID, localeID int64, value string, now time.Time) (int64, error) {
	query := d.Rebind(`
		INSERT INTO translations (translation_key_id, locale_id, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (translation_key_id, locale_id)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		RETURNING id`)

	var id int64
	if err := q.QueryRowContext(ctx, query, keyID, localeID, value, now, now).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert translation: %w", err)
	}
	return id, nil
}

func ensureKey(ctx context.Context, q Querier, d Dialect, insert, key string, now time.Time) (int64, error) {
	if _, err := q.ExecContext(ctx, d.Rebind(insert), key, now, now); err != nil {
		return 0, fmt.Errorf("failed to create translation key: %w", err)
	}

	var id int64
	query := d.Rebind("SELECT id FROM translation_keys WHERE " + d.Quote("key") + " = ?")
	if err := q.QueryRowContext(ctx, query, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to load translation key: %w", err)
	}
	return id, nil
}
