package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/lexicon/pkg/observability"
)

// Backend opens one candidate store
type Backend struct {
	Name string
	Open func(ctx context.Context) (Store, error)
}

// Redis returns a Backend connecting with config
func Redis(config RedisConfig) Backend {
	return Backend{
		Name: BackendRedis,
		Open: func(ctx context.Context) (Store, error) {
			return NewRedisStore(ctx, config)
		},
	}
}

// Memory returns a Backend creating a MemoryStore
func Memory(maxEntries int, ttl time.Duration) Backend {
	return Backend{
		Name: BackendMemory,
		Open: func(ctx context.Context) (Store, error) {
			return NewMemoryStore(maxEntries, ttl), nil
		},
	}
}

// Resolve opens backends in order and returns the first one that answers a
// ping. The choice is made once, callers hold the result for the process
// lifetime.
func Resolve(ctx context.Context, logger *observability.Logger, backends ...Backend) (Store, error) {
	if len(backends) == 0 {
		return nil, errors.New("no cache backends configured")
	}

	var errs []error
	for _, backend := range backends {
		store, err := backend.Open(ctx)
		if err == nil {
			err = store.Ping(ctx)
			if err != nil {
				store.Close()
			}
		}
		if err != nil {
			logger.WithError(err).WithField("backend", backend.Name).Warn("Cache backend unavailable, trying next")
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name, err))
			continue
		}

		logger.WithField("backend", store.Name()).Info("Cache backend resolved")
		return store, nil
	}

	return nil, fmt.Errorf("no cache backend available: %w", errors.Join(errs...))
}
