// Package ingestor runs the two background flows: the schedule pipeline
// (fetch feed, derive, persist) and the live location poller.
package ingestor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ctarail/internal/schedule"
	"ctarail/internal/store"
	"ctarail/pkg/gtfs"
)

// ScheduleIngestor drives the expected-schedule pipeline: when the feed has a
// new publish, it loads the five relations, derives the joined schedule and
// persists one artifact per effective date.
type ScheduleIngestor struct {
	fetcher       *gtfs.Fetcher
	store         store.ObjectStore
	service       *schedule.Service
	checkInterval time.Duration
	logger        *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

func NewScheduleIngestor(fetcher *gtfs.Fetcher, st store.ObjectStore, svc *schedule.Service, checkInterval time.Duration, logger *slog.Logger) *ScheduleIngestor {
	return &ScheduleIngestor{
		fetcher:       fetcher,
		store:         st,
		service:       svc,
		checkInterval: checkInterval,
		logger:        logger.With("component", "schedule_ingestor"),
	}
}

func (i *ScheduleIngestor) Run(ctx context.Context) {
	i.update(ctx)

	ticker := time.NewTicker(i.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.update(ctx)
		}
	}
}

func (i *ScheduleIngestor) update(ctx context.Context) {
	start := time.Now()

	updated, err := i.fetcher.FetchIfModified(ctx)
	if err != nil {
		i.logger.Error("feed fetch failed", "error", err)
		return
	}
	if !updated && i.service.RowCount() > 0 {
		i.setReady(true)
		return
	}

	tables, err := gtfs.LoadTables(ctx, i.store)
	if err != nil {
		i.logger.Error("failed to load GTFS tables", "error", err)
		return
	}

	derived, err := schedule.Derive(tables)
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrMissingSource):
			i.logger.Error("feed is missing source data", "error", err)
		case errors.Is(err, schedule.ErrNoEffectiveDate):
			i.logger.Error("feed is malformed, no effective date", "error", err)
		default:
			i.logger.Error("schedule derivation failed", "error", err)
		}
		return
	}

	key, err := schedule.WriteArtifact(ctx, i.store, derived)
	if err != nil {
		i.logger.Error("failed to persist schedule", "error", err)
		return
	}

	if err := i.service.Reload(ctx); err != nil {
		i.logger.Error("failed to reload schedule service", "error", err)
		return
	}
	i.service.Warm(ctx)

	i.setReady(true)
	i.logger.Info("schedule derived",
		"artifact", key,
		"rows", len(derived.Rows),
		"effective_date", derived.EffectiveDate,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (i *ScheduleIngestor) IsReady() bool {
	i.readyMu.RLock()
	defer i.readyMu.RUnlock()
	return i.ready
}

func (i *ScheduleIngestor) setReady(ready bool) {
	i.readyMu.Lock()
	defer i.readyMu.Unlock()
	i.ready = ready
}
