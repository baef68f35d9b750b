package export

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/keytree"
	"github.com/platinummonkey/lexicon/pkg/locale"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

var tracer = otel.Tracer("lexicon/export")

// Document is an export body: key to value, key to subtree, or locale code
// to either of those
type Document map[string]any

// Engine builds export documents
type Engine struct {
	db       *storage.ConnectionManager
	resolver *locale.Resolver
	metrics  *observability.Metrics
}

// NewEngine creates an export engine. metrics may be nil.
func NewEngine(db *storage.ConnectionManager, resolver *locale.Resolver, metrics *observability.Metrics) *Engine {
	return &Engine{db: db, resolver: resolver, metrics: metrics}
}

// Export builds the document for token. An empty token exports every locale
// as {code: document}; a token that resolves to no locale yields an empty
// document.
func (e *Engine) Export(ctx context.Context, token string, nested bool) (Document, error) {
	if catalog.NormalizeCode(token) == "" {
		return e.ExportAll(ctx, nested)
	}

	l, err := e.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return Document{}, nil
	}
	return e.ExportLocale(ctx, l, nested)
}

// ExportLocale builds the document of one locale
func (e *Engine) ExportLocale(ctx context.Context, l *catalog.Locale, nested bool) (Document, error) {
	ctx, span := tracer.Start(ctx, "export.locale")
	defer span.End()
	span.SetAttributes(attribute.String("locale", l.Code), attribute.Bool("nested", nested))

	start := time.Now()
	flat, err := e.Flat(ctx, l.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	e.metrics.ObserveExportBuild("locale", time.Since(start))
	span.SetAttributes(attribute.Int("keys", len(flat)))

	return shape(flat, nested), nil
}

// ExportAll builds {code: document} for every locale ordered by code.
// Locales without translations map to an empty document.
func (e *Engine) ExportAll(ctx context.Context, nested bool) (Document, error) {
	ctx, span := tracer.Start(ctx, "export.all")
	defer span.End()
	span.SetAttributes(attribute.Bool("nested", nested))

	start := time.Now()
	locales, err := e.resolver.All(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc := make(Document, len(locales))
	for _, l := range locales {
		flat, err := e.Flat(ctx, l.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		doc[l.Code] = shape(flat, nested)
	}
	e.metrics.ObserveExportBuild("all", time.Since(start))
	span.SetAttributes(attribute.Int("locales", len(locales)))
	return doc, nil
}

// Flat streams the key/value pairs of one locale ordered by key
func (e *Engine) Flat(ctx context.Context, localeID int64) (map[string]string, error) {
	d := e.db.Dialect()
	query := d.Rebind(`SELECT k.` + d.Quote("key") + `, t.value
		FROM translations t
		JOIN translation_keys k ON k.id = t.translation_key_id
		WHERE t.locale_id = ?
		ORDER BY k.` + d.Quote("key"))

	rows, err := e.db.Replica().QueryContext(ctx, query, localeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations for locale %d: %w", localeID, err)
	}
	defer rows.Close()

	flat := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}
		flat[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read translations for locale %d: %w", localeID, err)
	}
	return flat, nil
}

// Freshness returns the latest updated_at of the translations of a locale,
// or of every translation when localeID is nil. ok is false when the scope
// has no translations.
func (e *Engine) Freshness(ctx context.Context, localeID *int64) (time.Time, bool, error) {
	query := "SELECT MAX(updated_at) FROM translations"
	var args []any
	if localeID != nil {
		query += " WHERE locale_id = ?"
		args = append(args, *localeID)
	}

	var latest storage.NullTime
	if err := e.db.Replica().QueryRowContext(ctx, e.db.Dialect().Rebind(query), args...).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read export freshness: %w", err)
	}
	return latest.Time, latest.Valid, nil
}

func shape(flat map[string]string, nested bool) Document {
	if nested {
		return keytree.Nest(flat)
	}
	doc := make(Document, len(flat))
	for k, v := range flat {
		doc[k] = v
	}
	return doc
}
