package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/locale"
	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

var tracer = otel.Tracer("lexicon/search")

// Match strategies
const (
	StrategyFullText = "fulltext"
	StrategyLike     = "like"
)

// Filters narrow a search. Empty values are no-ops.
type Filters struct {
	Locale  string
	Tag     string
	Key     string
	Content string
}

// TagResolver maps a tag token to an id. *tags.Store satisfies it.
type TagResolver interface {
	ResolveID(ctx context.Context, token string) (int64, bool, error)
}

// Service runs translation searches
type Service struct {
	db       *storage.ConnectionManager
	locales  *locale.Resolver
	tags     TagResolver
	metrics  *observability.Metrics
	strategy string
}

// NewService creates a search service. metrics may be nil.
func NewService(db *storage.ConnectionManager, locales *locale.Resolver, tags TagResolver, metrics *observability.Metrics) *Service {
	strategy := StrategyLike
	if db.Dialect().SupportsFullText() {
		strategy = StrategyFullText
	}
	return &Service{
		db:       db,
		locales:  locales,
		tags:     tags,
		metrics:  metrics,
		strategy: strategy,
	}
}

// Strategy reports how text filters are matched
func (s *Service) Strategy() string {
	return s.strategy
}

// Search returns one page of matching translations, most recently updated
// first, with key, locale and tags loaded
func (s *Service) Search(ctx context.Context, f Filters, page, perPage int) (result catalog.Page[*catalog.Translation], err error) {
	ctx, span := tracer.Start(ctx, "search.translations",
		trace.WithAttributes(
			attribute.String("strategy", s.strategy),
			attribute.Int("page", page),
			attribute.Int("per_page", perPage),
		),
	)
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "search failed")
		}
	}()

	start := time.Now()
	meta := catalog.NewPageMeta(page, perPage, 0)

	where, args, matchable, err := s.predicates(ctx, f)
	if err != nil {
		return result, err
	}
	if !matchable {
		span.SetAttributes(attribute.Bool("unknown_locale", true))
		return catalog.NewPage[*catalog.Translation](nil, meta), nil
	}

	d := s.db.Dialect()
	db := s.db.Replica()

	countQuery := d.Rebind(`SELECT COUNT(*)
		FROM translations t
		JOIN translation_keys k ON k.id = t.translation_key_id` + where)
	var total int64
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return result, fmt.Errorf("failed to count translations: %w", err)
	}
	meta = catalog.NewPageMeta(meta.CurrentPage, meta.PerPage, total)
	if total == 0 || meta.Offset() >= int(total) {
		s.metrics.ObserveSearch(s.strategy, time.Since(start), total)
		return catalog.NewPage[*catalog.Translation](nil, meta), nil
	}

	query := d.Rebind(catalog.TranslationSelect(d) + where +
		" ORDER BY t.updated_at DESC, t.id DESC LIMIT ? OFFSET ?")
	rows, err := db.QueryContext(ctx, query, append(args, meta.PerPage, meta.Offset())...)
	if err != nil {
		return result, fmt.Errorf("failed to search translations: %w", err)
	}

	translations := make([]*catalog.Translation, 0, meta.PerPage)
	for rows.Next() {
		t, err := catalog.ScanTranslation(rows)
		if err != nil {
			rows.Close()
			return result, fmt.Errorf("failed to scan translation: %w", err)
		}
		translations = append(translations, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to read translations: %w", err)
	}

	if err := catalog.LoadTags(ctx, db, d, translations); err != nil {
		return result, err
	}

	s.metrics.ObserveSearch(s.strategy, time.Since(start), total)
	span.SetAttributes(attribute.Int64("total", total), attribute.Int("results", len(translations)))
	return catalog.NewPage(translations, meta), nil
}

// predicates builds the WHERE clause. matchable is false when the locale
// filter names a locale that does not exist.
func (s *Service) predicates(ctx context.Context, f Filters) (where string, args []any, matchable bool, err error) {
	var clauses []string

	if token := strings.TrimSpace(f.Locale); token != "" {
		l, err := s.locales.Resolve(ctx, token)
		if err != nil {
			return "", nil, false, err
		}
		if l == nil {
			return "", nil, false, nil
		}
		clauses = append(clauses, "t.locale_id = ?")
		args = append(args, l.ID)
	}

	if token := strings.TrimSpace(f.Tag); token != "" {
		tagID, ok, err := s.tags.ResolveID(ctx, token)
		if err != nil {
			return "", nil, false, err
		}
		if ok {
			clauses = append(clauses,
				"EXISTS (SELECT 1 FROM translation_tag tt WHERE tt.translation_id = t.id AND tt.tag_id = ?)")
			args = append(args, tagID)
		}
	}

	d := s.db.Dialect()
	for _, text := range []struct {
		column, terms string
	}{
		{"k." + d.Quote("key"), f.Key},
		{"t.value", f.Content},
	} {
		if clause, arg, ok := s.textMatch(text.column, text.terms); ok {
			clauses = append(clauses, clause)
			args = append(args, arg)
		}
	}

	if len(clauses) == 0 {
		return "", nil, true, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, true, nil
}

// textMatch matches column against terms with the full-text index when the
// dialect has one and the terms hold usable tokens, and with an escaped
// substring LIKE otherwise
func (s *Service) textMatch(column, terms string) (string, any, bool) {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return "", nil, false
	}

	d := s.db.Dialect()
	if d.SupportsFullText() {
		if clause, arg, ok := d.FullTextMatch(column, terms); ok {
			return clause, arg, true
		}
	}
	return column + " LIKE ? " + d.LikeEscape(), "%" + storage.EscapeLike(terms) + "%", true
}
