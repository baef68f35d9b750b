package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/platinummonkey/lexicon/pkg/cache"
	"github.com/platinummonkey/lexicon/pkg/catalog"
	"github.com/platinummonkey/lexicon/pkg/observability"
)

// CacheControl is sent with every export response
const CacheControl = "public, max-age=0, must-revalidate"

// DefaultTTL bounds how long an export document stays in the cache
const DefaultTTL = 10 * time.Minute

// Request is a conditional export request
type Request struct {
	// Locale is a locale id or code, empty for all locales
	Locale string
	Nested bool

	IfNoneMatch     string
	IfModifiedSince string
}

// Response is the outcome of a negotiation. Body is nil when NotModified.
type Response struct {
	NotModified  bool
	ETag         string
	LastModified time.Time // zero when the scope has no translations
	Body         []byte
	Outcome      string
}

// Negotiator answers export requests from the cache where it can
type Negotiator struct {
	engine    *Engine
	store     cache.Store
	versioner *cache.Versioner
	ttl       time.Duration
	metrics   *observability.Metrics
	group     singleflight.Group
}

// NewNegotiator creates a negotiator. A ttl of zero uses DefaultTTL and
// metrics may be nil.
func NewNegotiator(
	engine *Engine,
	store cache.Store,
	versioner *cache.Versioner,
	ttl time.Duration,
	metrics *observability.Metrics,
) *Negotiator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Negotiator{
		engine:    engine,
		store:     store,
		versioner: versioner,
		ttl:       ttl,
		metrics:   metrics,
	}
}

// Negotiate resolves the scope, checks the validators presented by the
// client and returns either a not-modified response or the document.
func (n *Negotiator) Negotiate(ctx context.Context, req Request) (*Response, error) {
	ctx, span := tracer.Start(ctx, "export.negotiate")
	defer span.End()

	token := catalog.NormalizeCode(req.Locale)
	l, err := n.engine.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	// Unknown locales keep their token as scope and have no freshness
	scope := Scope(token)
	var freshness time.Time
	var fresh bool
	switch {
	case l != nil:
		scope = Scope(l.Code)
		freshness, fresh, err = n.engine.Freshness(ctx, &l.ID)
	case token == "":
		freshness, fresh, err = n.engine.Freshness(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	shape := cache.ShapeFlat
	if req.Nested {
		shape = cache.ShapeNested
	}
	var ts int64
	if fresh {
		freshness = freshness.UTC().Truncate(time.Second)
		ts = freshness.Unix()
	}

	resp := &Response{ETag: ETag(scope, shape, ts)}
	if fresh {
		resp.LastModified = freshness
	}
	span.SetAttributes(
		attribute.String("scope", scope),
		attribute.String("shape", shape),
		attribute.Int64("freshness", ts),
	)

	if notModified(req, resp.ETag, freshness, fresh) {
		resp.NotModified = true
		resp.Outcome = observability.ExportNotModified
		n.metrics.RecordExport(resp.Outcome)
		span.SetAttributes(attribute.String("outcome", resp.Outcome))
		return resp, nil
	}

	compute := func(ctx context.Context) ([]byte, error) {
		var doc Document
		var err error
		switch {
		case l != nil:
			doc, err = n.engine.ExportLocale(ctx, l, req.Nested)
		case token == "":
			doc, err = n.engine.ExportAll(ctx, req.Nested)
		default:
			doc = Document{}
		}
		if err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	}

	key, err := n.versioner.Key(ctx, scope, shape, ts)
	if err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Export cache unavailable, computing live")
		resp.Body, err = compute(ctx)
		if err != nil {
			return nil, err
		}
		resp.Outcome = observability.ExportUncached
	} else {
		v, err, _ := n.group.Do(key, func() (any, error) {
			body, hit, err := cache.Remember(context.WithoutCancel(ctx), n.store, key, n.ttl, n.metrics, compute)
			if err != nil {
				return nil, err
			}
			return remembered{body: body, hit: hit}, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build export: %w", err)
		}
		r := v.(remembered)
		resp.Body = r.body
		resp.Outcome = observability.ExportMiss
		if r.hit {
			resp.Outcome = observability.ExportHit
		}
	}

	n.metrics.RecordExport(resp.Outcome)
	span.SetAttributes(attribute.String("outcome", resp.Outcome))
	return resp, nil
}

type remembered struct {
	body []byte
	hit  bool
}

// Scope names the cache scope of a normalized locale token: "all" or
// "locale:<code>"
func Scope(code string) string {
	if code == "" {
		return "all"
	}
	return "locale:" + code
}

// ETag builds the weak validator W/"<scope>:<shape>:<timestamp>". The scope
// is spelled "all" or "locale=<code>".
func ETag(scope, shape string, freshness int64) string {
	scope = strings.Replace(scope, "locale:", "locale=", 1)
	return `W/"` + scope + ":" + shape + ":" + strconv.FormatInt(freshness, 10) + `"`
}

// notModified applies If-None-Match (exact match) and If-Modified-Since
// (presented time at or after freshness). A scope without freshness never
// matches If-Modified-Since.
func notModified(req Request, etag string, freshness time.Time, fresh bool) bool {
	if req.IfNoneMatch != "" && req.IfNoneMatch == etag {
		return true
	}
	if req.IfModifiedSince == "" || !fresh {
		return false
	}
	since, err := http.ParseTime(req.IfModifiedSince)
	if err != nil {
		return false
	}
	return !since.Before(freshness)
}
