package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/platinummonkey/lexicon/pkg/observability"
)

// VersionKey holds the global export cache version
const VersionKey = "export.version.all"

// Export document shapes
const (
	ShapeFlat   = "flat"
	ShapeNested = "nested"
)

// Versioner owns the export cache version. Bumping it orphans every cached
// export document without deleting anything.
type Versioner struct {
	store   Store
	metrics *observability.Metrics
}

// NewVersioner creates a versioner over store. metrics may be nil.
func NewVersioner(store Store, metrics *observability.Metrics) *Versioner {
	return &Versioner{store: store, metrics: metrics}
}

// CurrentVersion returns the current version, 1 when it was never bumped
func (v *Versioner) CurrentVersion(ctx context.Context) (int64, error) {
	n, ok, err := v.store.Counter(ctx, VersionKey)
	v.metrics.RecordCacheOp(v.store.Name(), "version", err)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache version: %w", err)
	}
	if !ok {
		return 1, nil
	}
	return n, nil
}

// Bump increments the version. An unset version is seeded at 1 first, so
// the first bump moves readers from 1 to 2.
func (v *Versioner) Bump(ctx context.Context) (int64, error) {
	n, err := v.store.Incr(ctx, VersionKey, 1)
	v.metrics.RecordCacheOp(v.store.Name(), "bump", err)
	if err != nil {
		return 0, fmt.Errorf("failed to bump cache version: %w", err)
	}
	v.metrics.RecordVersionBump()
	return n, nil
}

// Key returns the cache key for an export at the current version
func (v *Versioner) Key(ctx context.Context, scope, shape string, freshness int64) (string, error) {
	version, err := v.CurrentVersion(ctx)
	if err != nil {
		return "", err
	}
	return ExportKey(version, scope, shape, freshness), nil
}

// ExportKey composes export.v{version}.{scope}.{shape}.{freshness}. scope is
// "all" or "locale:<code>" and freshness is a Unix timestamp, 0 if unknown.
func ExportKey(version int64, scope, shape string, freshness int64) string {
	return "export.v" + strconv.FormatInt(version, 10) + "." + scope + "." + shape + "." + strconv.FormatInt(freshness, 10)
}
