package cache

import (
	"context"
	"time"

	"github.com/platinummonkey/lexicon/pkg/observability"
)

// Remember returns the value cached under key or computes, stores, and
// returns it. Cache failures are logged and counted but never returned, the
// value is computed live instead. hit reports whether the value came from
// the store.
func Remember(
	ctx context.Context,
	store Store,
	key string,
	ttl time.Duration,
	metrics *observability.Metrics,
	compute func(ctx context.Context) ([]byte, error),
) (value []byte, hit bool, err error) {
	logger := observability.FromContext(ctx).WithFields(map[string]interface{}{
		"cache_key": key,
		"backend":   store.Name(),
	})

	cached, ok, getErr := store.Get(ctx, key)
	metrics.RecordCacheOp(store.Name(), "get", getErr)
	if getErr != nil {
		logger.WithError(getErr).Warn("Cache read failed, computing live")
	} else if ok {
		return cached, true, nil
	}

	value, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if getErr == nil {
		setErr := store.Set(ctx, key, value, ttl)
		metrics.RecordCacheOp(store.Name(), "set", setErr)
		if setErr != nil {
			logger.WithError(setErr).Warn("Cache write failed")
		}
	}
	return value, false, nil
}
