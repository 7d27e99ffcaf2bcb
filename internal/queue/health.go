package queue

import (
	"context"
	"database/sql"
	"time"

	"github.com/adverant/nexus/landrecord-worker/internal/logging"
)

type consumerStats interface {
	GetStatistics() map[string]interface{}
}

type resultStats interface {
	GetStats(ctx context.Context) (map[string]int64, error)
}

type databaseHealth interface {
	Ping(ctx context.Context) error
	GetStats() sql.DBStats
}

// HealthReporter periodically logs one line describing the worker's state.
// Results and Database are optional.
type HealthReporter struct {
	Consumer consumerStats
	Results  resultStats
	Database databaseHealth
	Logger   *logging.Logger
}

// Report logs the current health line. Failing checks are logged as fields
// and never stop the reporter.
func (r *HealthReporter) Report(ctx context.Context) {
	fields := []interface{}{}
	for k, v := range r.Consumer.GetStatistics() {
		fields = append(fields, k, v)
	}

	if r.Results != nil {
		counts, err := r.Results.GetStats(ctx)
		if err != nil {
			fields = append(fields, "results_error", err.Error())
		} else {
			fields = append(fields, "processing", counts[JobStatusProcessing],
				"completed", counts[JobStatusCompleted], "failed", counts[JobStatusFailed])
		}
	}

	healthy := true
	if r.Database != nil {
		if err := r.Database.Ping(ctx); err != nil {
			healthy = false
			fields = append(fields, "db_error", err.Error())
		}
		stats := r.Database.GetStats()
		fields = append(fields, "db_open", stats.OpenConnections, "db_in_use", stats.InUse, "db_idle", stats.Idle)
	}

	if healthy {
		r.Logger.Info("Worker health", fields...)
	} else {
		r.Logger.Warn("Worker health degraded", fields...)
	}
}

// Run reports every interval until ctx is done
func (r *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			r.Report(checkCtx)
			cancel()
		}
	}
}
