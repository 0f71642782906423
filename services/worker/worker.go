// Package worker runs the periodic refresh schedule.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"alumnihub/jobingest/internal/ingest"
	"alumnihub/jobingest/logger"
)

// RefreshWorker re-checks stale postings on a fixed interval across all
// configured sources.
type RefreshWorker struct {
	manager  *ingest.Manager
	sources  []string
	daysOld  int
	limit    int
	interval time.Duration
	cron     *cron.Cron
	log      *logger.Logger
}

// NewRefreshWorker builds a worker. interval must be positive.
func NewRefreshWorker(manager *ingest.Manager, sources []string, daysOld, limit int, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		manager:  manager,
		sources:  sources,
		daysOld:  daysOld,
		limit:    limit,
		interval: interval,
		cron:     cron.New(),
		log:      logger.ForWorker(),
	}
}

// Start runs one refresh pass immediately, then schedules the interval.
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.runOnce(ctx)

	spec := fmt.Sprintf("@every %s", w.interval)
	if _, err := w.cron.AddFunc(spec, func() { w.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	w.cron.Start()

	w.log.Info().
		Str("event", "worker_started").
		Str("interval", w.interval.String()).
		Int("days_old", w.daysOld).
		Msg("Refresh worker started")
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (w *RefreshWorker) Stop() {
	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	w.log.Info().Str("event", "worker_stopped").Msg("Refresh worker stopped")
}

func (w *RefreshWorker) runOnce(ctx context.Context) {
	for _, source := range w.sources {
		if ctx.Err() != nil {
			return
		}
		summary, err := w.manager.Refresh(ctx, source, w.daysOld, w.limit)
		if err != nil {
			w.log.Error().
				Str("event", "refresh_pass_failed").
				Str("source", source).
				Err(err).
				Msg("Refresh pass failed")
			continue
		}
		w.log.Info().
			Str("event", "refresh_pass_done").
			Str("source", source).
			Int("checked", summary.Checked).
			Int("refreshed", summary.Refreshed).
			Int("failed", summary.Failed).
			Msg("Refresh pass done")
	}
}
