// Package stats refreshes the catalog size gauges and connection pool
// metrics on a cron schedule.
//
//	collector := stats.NewCollector(cm, metrics, logger)
//	if err := collector.Start("@every 1m"); err != nil {
//	    return err
//	}
//	defer collector.Stop(ctx)
package stats
