package catalog

import (
	"context"
	"fmt"

	"github.com/platinummonkey/lexicon/pkg/storage"
)

// TranslationSelect returns the SELECT list and FROM clause loading a
// translation with its key and locale. Tables are aliased t, k and l.
func TranslationSelect(d storage.Dialect) string {
	return `SELECT t.id, t.translation_key_id, t.locale_id, t.value, t.created_at, t.updated_at,
		k.id, k.` + d.Quote("key") + `,
		l.id, l.code, l.name, l.created_at, l.updated_at
	FROM translations t
	JOIN translation_keys k ON k.id = t.translation_key_id
	JOIN locales l ON l.id = t.locale_id`
}

// Scanner is satisfied by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// ScanTranslation scans a row produced by TranslationSelect
func ScanTranslation(row Scanner) (*Translation, error) {
	t := &Translation{
		TranslationKey: &TranslationKey{},
		Locale:         &Locale{},
		Tags:           []*Tag{},
	}
	var created, updated, localeCreated, localeUpdated storage.NullTime

	err := row.Scan(
		&t.ID, &t.TranslationKeyID, &t.LocaleID, &t.Value, &created, &updated,
		&t.TranslationKey.ID, &t.TranslationKey.Key,
		&t.Locale.ID, &t.Locale.Code, &t.Locale.Name, &localeCreated, &localeUpdated,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, t.UpdatedAt = created.Time, updated.Time
	t.Locale.CreatedAt, t.Locale.UpdatedAt = localeCreated.Time, localeUpdated.Time
	return t, nil
}

// LoadTags fills the Tags of every translation with one query, ordered by
// tag name
func LoadTags(ctx context.Context, q storage.Querier, d storage.Dialect, translations []*Translation) error {
	if len(translations) == 0 {
		return nil
	}

	byID := make(map[int64]*Translation, len(translations))
	args := make([]any, 0, len(translations))
	for _, t := range translations {
		t.Tags = []*Tag{}
		if _, seen := byID[t.ID]; !seen {
			args = append(args, t.ID)
		}
		byID[t.ID] = t
	}

	query := d.Rebind(`SELECT tt.translation_id, g.id, g.name
		FROM translation_tag tt
		JOIN tags g ON g.id = tt.tag_id
		WHERE tt.translation_id IN (` + storage.Placeholders(len(args)) + `)
		ORDER BY g.name, g.id`)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var translationID int64
		tag := &Tag{}
		if err := rows.Scan(&translationID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		if t, ok := byID[translationID]; ok {
			t.Tags = append(t.Tags, tag)
		}
	}
	return rows.Err()
}
