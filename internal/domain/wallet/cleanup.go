package wallet

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// TraceCleanupJob purges reward traces older than the retention window.
type TraceCleanupJob struct {
	traces    TraceStore
	retention time.Duration
	now       func() time.Time
}

func NewTraceCleanupJob(traces TraceStore, retention time.Duration) *TraceCleanupJob {
	if retention <= 0 {
		retention = DefaultTraceRetention
	}
	return &TraceCleanupJob{traces: traces, retention: retention, now: time.Now}
}

// Start runs the job every interval until ctx is cancelled.
func (j *TraceCleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Trace cleanup job stopped")
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *TraceCleanupJob) run(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to purge expired reward traces")
	}
}

// RunOnce purges once and returns the number of removed traces.
func (j *TraceCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	rows, err := j.traces.Purge(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		tracesPurgedTotal.Add(float64(rows))
		log.Info().
			Int64("deleted", rows).
			Time("cutoff", cutoff).
			Msg("Purged expired reward traces")
	}
	return rows, nil
}
