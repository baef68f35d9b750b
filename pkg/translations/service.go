package translations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

var tracer = otel.Tracer("lexicon/translations")

// Service creates, updates and deletes translations
type Service struct {
	db          *storage.ConnectionManager
	invalidator catalog.Invalidator
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewService creates a translation service. invalidator and metrics may be nil.
func NewService(db *storage.ConnectionManager, invalidator catalog.Invalidator, metrics *observability.Metrics) *Service {
	return &Service{
		db:          db,
		invalidator: invalidator,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Get returns a translation with its key, locale and tags
func (s *Service) Get(ctx context.Context, id int64) (*catalog.Translation, error) {
	return s.load(ctx, s.db.Replica(), id)
}

// Create upserts the translation of a key in a locale. Creating an existing
// (key, locale) pair overwrites its value instead of adding a row.
func (s *Service) Create(ctx context.Context, req CreateRequest) (t *catalog.Translation, err error) {
	ctx, span := tracer.Start(ctx, "translations.create")
	defer span.End()
	defer func() { s.metrics.RecordMutation("create", err) }()

	d := s.db.Dialect()
	key := newKeyInput(req.TranslationKeyID, req.Key)

	v := newValidator(s.db.Primary(), d)
	if err := v.key(ctx, key); err != nil {
		return nil, err
	}
	if err := v.locale(ctx, req.LocaleID); err != nil {
		return nil, err
	}
	v.value(req.Value)
	if err := v.tags(ctx, req.TagIDs); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		keyID, err := s.resolveKey(ctx, tx, key, now)
		if err != nil {
			return err
		}
		id, err = d.UpsertTranslation(ctx, tx, keyID, *req.LocaleID, *req.Value, now)
		if err != nil {
			return err
		}
		if req.TagIDs != nil {
			return s.syncTags(ctx, tx, id, *req.TagIDs, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("translation_id", id), attribute.Int64("locale_id", *req.LocaleID))
	s.invalidate(ctx, *req.LocaleID)
	return s.load(ctx, s.db.Primary(), id)
}

// Update applies the fields present in req to an existing translation. When
// the locale changes both the old and the new locale are invalidated.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (t *catalog.Translation, err error) {
	ctx, span := tracer.Start(ctx, "translations.update")
	defer span.End()
	defer func() { s.metrics.RecordMutation("update", err) }()

	if req.empty() {
		return nil, catalog.NewValidationError("base", MsgFieldsRequired)
	}

	d := s.db.Dialect()
	current, err := s.load(ctx, s.db.Primary(), id)
	if err != nil {
		return nil, err
	}

	key := newKeyInput(req.TranslationKeyID, req.Key)
	v := newValidator(s.db.Primary(), d)
	if req.rekeys() {
		if err := v.key(ctx, key); err != nil {
			return nil, err
		}
	}
	if req.LocaleID != nil {
		if err := v.locale(ctx, req.LocaleID); err != nil {
			return nil, err
		}
	}
	if req.Value != nil {
		v.value(req.Value)
	}
	if err := v.tags(ctx, req.TagIDs); err != nil {
		return nil, err
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	oldLocale := current.LocaleID
	localeID, value := current.LocaleID, current.Value
	if req.LocaleID != nil {
		localeID = *req.LocaleID
	}
	if req.Value != nil {
		value = *req.Value
	}

	now := s.now().UTC()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		keyID := current.TranslationKeyID
		if req.rekeys() {
			var err error
			if keyID, err = s.resolveKey(ctx, tx, key, now); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, d.Rebind(
			"UPDATE translations SET translation_key_id = ?, locale_id = ?, value = ?, updated_at = ? WHERE id = ?"),
			keyID, localeID, value, now, id,
		)
		if err != nil {
			if d.IsUniqueViolation(err) {
				return catalog.NewValidationError("key", MsgDuplicatePair)
			}
			return fmt.Errorf("failed to update translation %d: %w", id, err)
		}
		if req.TagIDs != nil {
			return s.syncTags(ctx, tx, id, *req.TagIDs, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("translation_id", id), attribute.Bool("locale_changed", oldLocale != localeID))
	s.invalidate(ctx, oldLocale, localeID)
	return s.load(ctx, s.db.Primary(), id)
}

// Delete removes a translation; its tag associations go with it
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "translations.delete")
	defer span.End()
	defer func() { s.metrics.RecordMutation("delete", err) }()

	d := s.db.Dialect()
	var localeID int64
	err = s.db.Primary().QueryRowContext(ctx, d.Rebind("SELECT locale_id FROM translations WHERE id = ?"), id).Scan(&localeID)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load translation %d: %w", id, err)
	}

	res, err := s.db.Primary().ExecContext(ctx, d.Rebind("DELETE FROM translations WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete translation %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}

	s.invalidate(ctx, localeID)
	return nil
}

// resolveKey returns the id of an existing key or creates the key string
func (s *Service) resolveKey(ctx context.Context, tx *sql.Tx, in keyInput, now time.Time) (int64, error) {
	if in.id != 0 {
		return in.id, nil
	}
	if in.key == "" {
		return 0, catalog.NewValidationError("key", MsgKeyRequired)
	}
	return s.db.Dialect().EnsureKey(ctx, tx, in.key, now)
}

// syncTags makes the tag set of a translation exactly ids
func (s *Service) syncTags(ctx context.Context, tx *sql.Tx, translationID int64, ids []int64, now time.Time) error {
	d := s.db.Dialect()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	rows, err := tx.QueryContext(ctx, d.Rebind("SELECT tag_id FROM translation_tag WHERE translation_id = ?"), translationID)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	have := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		have[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id := range have {
		if want[id] {
			continue
		}
		_, err := tx.ExecContext(ctx, d.Rebind("DELETE FROM translation_tag WHERE translation_id = ? AND tag_id = ?"), translationID, id)
		if err != nil {
			return fmt.Errorf("failed to detach tag %d: %w", id, err)
		}
	}

	attach := make([]int64, 0, len(want))
	for id := range want {
		if !have[id] {
			attach = append(attach, id)
		}
	}
	sort.Slice(attach, func(i, j int) bool { return attach[i] < attach[j] })
	for _, id := range attach {
		_, err := tx.ExecContext(ctx, d.Rebind("INSERT INTO translation_tag (translation_id, tag_id, created_at) VALUES (?, ?, ?)"), translationID, id, now)
		if err != nil {
			return fmt.Errorf("failed to attach tag %d: %w", id, err)
		}
	}
	return nil
}

func (s *Service) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Primary().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			observability.FromContext(ctx).WithError(rbErr).Error("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// invalidate bumps the export version once per distinct affected locale.
// It runs after commit; failures are logged only.
func (s *Service) invalidate(ctx context.Context, localeIDs ...int64) {
	if s.invalidator == nil {
		return
	}
	seen := make(map[int64]bool, len(localeIDs))
	for _, id := range localeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.invalidator.Bump(ctx); err != nil {
			observability.FromContext(ctx).
				WithError(err).
				WithField("locale_id", id).
				Warn("Failed to bump export cache version")
		}
	}
}

func (s *Service) load(ctx context.Context, q storage.Querier, id int64) (*catalog.Translation, error) {
	d := s.db.Dialect()
	t, err := catalog.ScanTranslation(q.QueryRowContext(ctx, d.Rebind(catalog.TranslationSelect(d)+" WHERE t.id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load translation %d: %w", id, err)
	}
	if err := catalog.LoadTags(ctx, q, d, []*catalog.Translation{t}); err != nil {
		return nil, err
	}
	return t, nil
}
