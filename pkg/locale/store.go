package locale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// Field limits
const (
	MaxCodeLength = 10
	MaxNameLength = 100
)

// CreateRequest is the body of a locale create
type CreateRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// UpdateRequest is the body of a locale update. Absent fields are unchanged.
type UpdateRequest struct {
	Code *string `json:"code,omitempty"`
	Name *string `json:"name,omitempty"`
}

// Store manages locale records
type Store struct {
	db          *storage.ConnectionManager
	invalidator catalog.Invalidator
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewStore creates a locale store. invalidator and metrics may be nil.
func NewStore(db *storage.ConnectionManager, invalidator catalog.Invalidator, metrics *observability.Metrics) *Store {
	return &Store{
		db:          db,
		invalidator: invalidator,
		metrics:     metrics,
		now:         time.Now,
	}
}

// List returns one page of locales ordered by code
func (s *Store) List(ctx context.Context, page, perPage int) (catalog.Page[*catalog.Locale], error) {
	db := s.db.Replica()
	d := s.db.Dialect()

	var total int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locales").Scan(&total); err != nil {
		return catalog.Page[*catalog.Locale]{}, fmt.Errorf("failed to count locales: %w", err)
	}

	meta := catalog.NewPageMeta(page, perPage, total)
	rows, err := db.QueryContext(ctx,
		d.Rebind("SELECT "+columns+" FROM locales ORDER BY code, id LIMIT ? OFFSET ?"),
		meta.PerPage, meta.Offset(),
	)
	if err != nil {
		return catalog.Page[*catalog.Locale]{}, fmt.Errorf("failed to list locales: %w", err)
	}
	defer rows.Close()

	var locales []*catalog.Locale
	for rows.Next() {
		l, err := scanLocale(rows)
		if err != nil {
			return catalog.Page[*catalog.Locale]{}, fmt.Errorf("failed to scan locale: %w", err)
		}
		locales = append(locales, l)
	}
	if err := rows.Err(); err != nil {
		return catalog.Page[*catalog.Locale]{}, err
	}
	return catalog.NewPage(locales, meta), nil
}

// Get returns a locale by id, catalog.ErrNotFound if it does not exist
func (s *Store) Get(ctx context.Context, id int64) (*catalog.Locale, error) {
	return s.get(ctx, s.db.Replica(), id)
}

func (s *Store) get(ctx context.Context, q storage.Querier, id int64) (*catalog.Locale, error) {
	query := s.db.Dialect().Rebind("SELECT " + columns + " FROM locales WHERE id = ?")
	l, err := scanLocale(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get locale %d: %w", id, err)
	}
	return l, nil
}

// Create inserts a locale and bumps the export cache version. The code is
// lowercased before validation.
func (s *Store) Create(ctx context.Context, req CreateRequest) (l *catalog.Locale, err error) {
	defer func() { s.metrics.RecordMutation("locale_create", err) }()

	code := catalog.NormalizeCode(req.Code)
	verr := &catalog.ValidationError{}
	s.validateCode(ctx, verr, code, 0)
	validateName(verr, req.Name)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := s.db.Dialect()
	id, err := d.Insert(ctx, s.db.Primary(),
		"INSERT INTO locales (code, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		code, req.Name, now, now,
	)
	if err != nil {
		if d.IsUniqueViolation(err) {
			return nil, catalog.NewValidationError("code", "The code has already been taken.")
		}
		return nil, fmt.Errorf("failed to create locale: %w", err)
	}

	s.invalidate(ctx, "locale created")
	return s.get(ctx, s.db.Primary(), id)
}

// Update changes the fields present in req. A code change bumps the export
// cache version.
func (s *Store) Update(ctx context.Context, id int64, req UpdateRequest) (l *catalog.Locale, err error) {
	defer func() { s.metrics.RecordMutation("locale_update", err) }()

	current, err := s.get(ctx, s.db.Primary(), id)
	if err != nil {
		return nil, err
	}

	code, name := current.Code, current.Name
	verr := &catalog.ValidationError{}
	if req.Code != nil {
		code = catalog.NormalizeCode(*req.Code)
		s.validateCode(ctx, verr, code, id)
	}
	if req.Name != nil {
		name = *req.Name
		validateName(verr, name)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if code == current.Code && name == current.Name {
		return current, nil
	}

	d := s.db.Dialect()
	_, err = s.db.Primary().ExecContext(ctx,
		d.Rebind("UPDATE locales SET code = ?, name = ?, updated_at = ? WHERE id = ?"),
		code, name, s.now().UTC(), id,
	)
	if err != nil {
		if d.IsUniqueViolation(err) {
			return nil, catalog.NewValidationError("code", "The code has already been taken.")
		}
		return nil, fmt.Errorf("failed to update locale %d: %w", id, err)
	}

	if code != current.Code {
		s.invalidate(ctx, "locale renamed")
	}
	return s.get(ctx, s.db.Primary(), id)
}

// Delete removes a locale and, through the schema, its translations
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.RecordMutation("locale_delete", err) }()

	res, err := s.db.Primary().ExecContext(ctx, s.db.Dialect().Rebind("DELETE FROM locales WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete locale %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}

	s.invalidate(ctx, "locale deleted")
	return nil
}

func (s *Store) invalidate(ctx context.Context, reason string) {
	if s.invalidator == nil {
		return
	}
	if _, err := s.invalidator.Bump(ctx); err != nil {
		observability.FromContext(ctx).
			WithError(err).
			WithField("reason", reason).
			Warn("Failed to bump export cache version")
	}
}

func (s *Store) validateCode(ctx context.Context, verr *catalog.ValidationError, code string, exceptID int64) {
	switch {
	case code == "":
		verr.Add("code", "The code field is required.")
		return
	case utf8.RuneCountInString(code) > MaxCodeLength:
		verr.Add("code", fmt.Sprintf("The code must not be greater than %d characters.", MaxCodeLength))
		return
	}

	var n int64
	query := s.db.Dialect().Rebind("SELECT COUNT(*) FROM locales WHERE code = ? AND id <> ?")
	if err := s.db.Primary().QueryRowContext(ctx, query, code, exceptID).Scan(&n); err != nil {
		// The insert still enforces uniqueness
		observability.FromContext(ctx).WithError(err).Warn("Locale code uniqueness check failed")
		return
	}
	if n > 0 {
		verr.Add("code", "The code has already been taken.")
	}
}

func validateName(verr *catalog.ValidationError, name string) {
	switch {
	case name == "":
		verr.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > MaxNameLength:
		verr.Add("name", fmt.Sprintf("The name must not be greater than %d characters.", MaxNameLength))
	}
}
