package tags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// MaxNameLength bounds a tag name
const MaxNameLength = 50

// Request is the body of a tag create or update
type Request struct {
	Name *string `json:"name"`
}

// Store manages tag records
type Store struct {
	db      *storage.ConnectionManager
	metrics *observability.Metrics
}

// NewStore creates a tag store. metrics may be nil.
func NewStore(db *storage.ConnectionManager, metrics *observability.Metrics) *Store {
	return &Store{db: db, metrics: metrics}
}

// ResolveID turns a tag filter token into a tag id. Numeric tokens are used
// as ids without a lookup and names are matched after normalization. ok is
// false when the token is empty, zero or names no tag; search then applies
// no tag constraint at all.
func (s *Store) ResolveID(ctx context.Context, token string) (id int64, ok bool, err error) {
	name := catalog.NormalizeTagName(token)
	if name == "" {
		return 0, false, nil
	}
	if id, isID := catalog.ParseID(name); isID {
		return id, id != 0, nil
	}

	query := s.db.Dialect().Rebind("SELECT id FROM tags WHERE name = ?")
	err = s.db.Replica().QueryRowContext(ctx, query, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve tag: %w", err)
	}
	return id, true, nil
}

// List returns one page of tags ordered by name
func (s *Store) List(ctx context.Context, page, perPage int) (catalog.Page[*catalog.Tag], error) {
	db := s.db.Replica()

	var total int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tags").Scan(&total); err != nil {
		return catalog.Page[*catalog.Tag]{}, fmt.Errorf("failed to count tags: %w", err)
	}

	meta := catalog.NewPageMeta(page, perPage, total)
	rows, err := db.QueryContext(ctx,
		s.db.Dialect().Rebind("SELECT id, name FROM tags ORDER BY name, id LIMIT ? OFFSET ?"),
		meta.PerPage, meta.Offset(),
	)
	if err != nil {
		return catalog.Page[*catalog.Tag]{}, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*catalog.Tag
	for rows.Next() {
		tag := &catalog.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return catalog.Page[*catalog.Tag]{}, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return catalog.Page[*catalog.Tag]{}, err
	}
	return catalog.NewPage(tags, meta), nil
}

// Get returns a tag by id, catalog.ErrNotFound if it does not exist
func (s *Store) Get(ctx context.Context, id int64) (*catalog.Tag, error) {
	return s.get(ctx, s.db.Replica(), id)
}

func (s *Store) get(ctx context.Context, q storage.Querier, id int64) (*catalog.Tag, error) {
	tag := &catalog.Tag{}
	err := q.QueryRowContext(ctx, s.db.Dialect().Rebind("SELECT id, name FROM tags WHERE id = ?"), id).
		Scan(&tag.ID, &tag.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tag %d: %w", id, err)
	}
	return tag, nil
}

// Create inserts a tag. The name is trimmed and lowercased.
func (s *Store) Create(ctx context.Context, req Request) (tag *catalog.Tag, err error) {
	defer func() { s.metrics.RecordMutation("tag_create", err) }()

	var name string
	if req.Name != nil {
		name = catalog.NormalizeTagName(*req.Name)
	}
	if err := s.validateName(ctx, name, 0); err != nil {
		return nil, err
	}

	d := s.db.Dialect()
	id, err := d.Insert(ctx, s.db.Primary(), "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		if d.IsUniqueViolation(err) {
			return nil, catalog.NewValidationError("name", "The name has already been taken.")
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return &catalog.Tag{ID: id, Name: name}, nil
}

// Update renames a tag. An absent name leaves the tag unchanged.
func (s *Store) Update(ctx context.Context, id int64, req Request) (tag *catalog.Tag, err error) {
	defer func() { s.metrics.RecordMutation("tag_update", err) }()

	current, err := s.get(ctx, s.db.Primary(), id)
	if err != nil {
		return nil, err
	}
	if req.Name == nil {
		return current, nil
	}

	name := catalog.NormalizeTagName(*req.Name)
	if name == current.Name {
		return current, nil
	}
	if err := s.validateName(ctx, name, id); err != nil {
		return nil, err
	}

	d := s.db.Dialect()
	if _, err := s.db.Primary().ExecContext(ctx, d.Rebind("UPDATE tags SET name = ? WHERE id = ?"), name, id); err != nil {
		if d.IsUniqueViolation(err) {
			return nil, catalog.NewValidationError("name", "The name has already been taken.")
		}
		return nil, fmt.Errorf("failed to update tag %d: %w", id, err)
	}
	return &catalog.Tag{ID: id, Name: name}, nil
}

// Delete removes a tag and its translation associations
func (s *Store) Delete(ctx context.Context, id int64) (err error) {
	defer func() { s.metrics.RecordMutation("tag_delete", err) }()

	res, err := s.db.Primary().ExecContext(ctx, s.db.Dialect().Rebind("DELETE FROM tags WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete tag %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) validateName(ctx context.Context, name string, exceptID int64) error {
	switch {
	case name == "":
		return catalog.NewValidationError("name", "The name field is required.")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return catalog.NewValidationError("name", fmt.Sprintf("The name must not be greater than %d characters.", MaxNameLength))
	}

	var n int64
	query := s.db.Dialect().Rebind("SELECT COUNT(*) FROM tags WHERE name = ? AND id <> ?")
	if err := s.db.Primary().QueryRowContext(ctx, query, name, exceptID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check tag name: %w", err)
	}
	if n > 0 {
		return catalog.NewValidationError("name", "The name has already been taken.")
	}
	return nil
}
