package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/lexicon/pkg/observability"
	"github.com/platinummonkey/lexicon/pkg/storage"
)

// refreshTimeout bounds a single scheduled refresh
const refreshTimeout = 30 * time.Second

const countsQuery = `
	SELECT
		(SELECT COUNT(*) FROM locales),
		(SELECT COUNT(*) FROM translation_keys),
		(SELECT COUNT(*) FROM translations),
		(SELECT COUNT(*) FROM tags)`

// Counts is the size of the catalog
type Counts struct {
	Locales      int64
	Keys         int64
	Translations int64
	Tags         int64
}

// Collector periodically publishes catalog statistics
type Collector struct {
	db      *storage.ConnectionManager
	metrics *observability.Metrics
	logger  *observability.Logger
	cron    *cron.Cron
}

// NewCollector creates a collector
func NewCollector(db *storage.ConnectionManager, metrics *observability.Metrics, logger *observability.Logger) *Collector {
	return &Collector{
		db:      db,
		metrics: metrics,
		logger:  logger,
	}
}

// Collect counts the catalog rows
func (c *Collector) Collect(ctx context.Context) (Counts, error) {
	var counts Counts
	err := c.db.Replica().QueryRowContext(ctx, countsQuery).
		Scan(&counts.Locales, &counts.Keys, &counts.Translations, &counts.Tags)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count catalog: %w", err)
	}
	return counts, nil
}

// Refresh drops replicas that stopped answering, then updates the catalog
// and pool gauges
func (c *Collector) Refresh(ctx context.Context) error {
	if removed := c.db.RemoveUnhealthyReplicas(ctx); removed > 0 {
		c.logger.WithField("removed", removed).Warn("Removed unhealthy read replicas")
	}

	c.metrics.UpdateDBStats(c.db.Primary().Stats())

	counts, err := c.Collect(ctx)
	if err != nil {
		return err
	}
	c.metrics.SetCatalogCounts(counts.Locales, counts.Keys, counts.Translations, counts.Tags)
	return nil
}

// Start runs Refresh once and then on schedule, a standard cron expression or a
// descriptor such as "@every 1m"
func (c *Collector) Start(schedule string) error {
	c.cron = cron.New()
	if _, err := c.cron.AddFunc(schedule, c.run); err != nil {
		return fmt.Errorf("invalid stats schedule %q: %w", schedule, err)
	}

	c.run()
	c.cron.Start()
	c.logger.WithField("schedule", schedule).Info("Catalog stats collector started")
	return nil
}

// Stop stops the schedule and waits for a running refresh to finish
func (c *Collector) Stop(ctx context.Context) error {
	if c.cron == nil {
		return nil
	}
	select {
	case <-c.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collector) run() {
	defer observability.RecoverPanic(c.logger, "catalog stats refresh")

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := c.Refresh(ctx); err != nil {
		c.logger.WithError(err).Warn("Catalog stats refresh failed")
	}
}
