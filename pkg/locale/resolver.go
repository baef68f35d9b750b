package locale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

const columns = "id, code, name, created_at, updated_at"

// Resolver maps locale tokens to locale records. Export and search share it.
type Resolver struct {
	db *storage.ConnectionManager
}

// NewResolver creates a resolver reading from the replicas of db
func NewResolver(db *storage.ConnectionManager) *Resolver {
	return &Resolver{db: db}
}

// Resolve looks a token up by id when it is numeric and by normalized code
// otherwise. It returns nil, nil when the token is empty or matches nothing.
func (r *Resolver) Resolve(ctx context.Context, token string) (*catalog.Locale, error) {
	code := catalog.NormalizeCode(token)
	if code == "" {
		return nil, nil
	}

	if id, ok := catalog.ParseID(code); ok {
		return r.find(ctx, "id = ?", id)
	}
	return r.find(ctx, "code = ?", code)
}

// All returns every locale ordered by code
func (r *Resolver) All(ctx context.Context) ([]*catalog.Locale, error) {
	d := r.db.Dialect()
	rows, err := r.db.Replica().QueryContext(ctx, d.Rebind("SELECT "+columns+" FROM locales ORDER BY code"))
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}
	defer rows.Close()

	var locales []*catalog.Locale
	for rows.Next() {
		l, err := scanLocale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locale: %w", err)
		}
		locales = append(locales, l)
	}
	return locales, rows.Err()
}

func (r *Resolver) find(ctx context.Context, where string, arg any) (*catalog.Locale, error) {
	query := r.db.Dialect().Rebind("SELECT " + columns + " FROM locales WHERE " + where)

	l, err := scanLocale(r.db.Replica().QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve locale: %w", err)
	}
	return l, nil
}

func scanLocale(row catalog.Scanner) (*catalog.Locale, error) {
	l := &catalog.Locale{}
	var created, updated storage.NullTime
	if err := row.Scan(&l.ID, &l.Code, &l.Name, &created, &updated); err != nil {
		return nil, err
	}
	l.CreatedAt, l.UpdatedAt = created.Time, updated.Time
	return l, nil
}
