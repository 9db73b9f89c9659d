package ingestor

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ctarail/internal/domain"
	"ctarail/internal/store"
	"ctarail/pkg/ctaapi"
)

// Broadcaster delivers a parsed snapshot to live subscribers.
type Broadcaster interface {
	BroadcastPositions(positions []*domain.TrainPosition)
}

// LocationPoller fans one request per rail route out to the Train Tracker
// API each tick, appends the aggregated snapshot to the raw store partition
// for the day, and pushes parsed positions to the live store and hub.
type LocationPoller struct {
	client      *ctaapi.Client
	trains      *store.TrainStore
	objects     store.ObjectStore
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

func NewLocationPoller(client *ctaapi.Client, trains *store.TrainStore, objects store.ObjectStore, b Broadcaster, interval time.Duration, logger *slog.Logger) *LocationPoller {
	return &LocationPoller{
		client:      client,
		trains:      trains,
		objects:     objects,
		broadcaster: b,
		interval:    interval,
		logger:      logger.With("component", "location_poller"),
	}
}

func (p *LocationPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	pruneTicker := time.NewTicker(p.interval * 3)
	defer pruneTicker.Stop()

	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-pruneTicker.C:
			if removed := p.trains.PruneStale(); removed > 0 {
				p.logger.Info("pruned stale trains", "count", removed)
			}
		}
	}
}

// snapshotRecord is one newline-delimited JSON line in the raw partition:
// every route response of a single poll, bundled under one timestamp.
type snapshotRecord struct {
	SnapshotID string            `json:"snapshot_id"`
	Timestamp  string            `json:"timestamp"`
	Data       []json.RawMessage `json:"data"`
}

func (p *LocationPoller) poll(ctx context.Context) {
	start := time.Now()

	var mu sync.Mutex
	var wg sync.WaitGroup
	raw := make([]json.RawMessage, 0, len(domain.TrackerRoutes))
	var positions []*domain.TrainPosition
	failures := 0

	for _, route := range domain.TrackerRoutes {
		wg.Add(1)
		go func(route string) {
			defer wg.Done()
			result, err := p.client.Fetch(ctx, route)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Error("route poll failed", "route", route, "error", err)
				failures++
				return
			}
			raw = append(raw, result.Raw)
			positions = append(positions, result.Positions()...)
		}(route)
	}
	wg.Wait()

	if len(raw) == 0 {
		p.logger.Error("poll produced no data", "failures", failures)
		return
	}

	record := snapshotRecord{
		SnapshotID: uuid.New().String(),
		Timestamp:  start.UTC().Format(time.RFC3339),
		Data:       raw,
	}
	if err := p.persist(ctx, record, start.UTC()); err != nil {
		p.logger.Error("failed to persist snapshot", "error", err)
	}

	p.trains.Update(positions)
	if p.broadcaster != nil {
		p.broadcaster.BroadcastPositions(positions)
	}

	if !p.IsReady() && failures < len(domain.TrackerRoutes) {
		p.setReady(true)
		p.logger.Info("location poller ready", "trains", len(positions))
	}

	p.logger.Debug("poll completed",
		"routes", len(raw),
		"failures", failures,
		"trains", len(positions),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (p *LocationPoller) persist(ctx context.Context, record snapshotRecord, at time.Time) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	line = append(line, '\n')

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(line); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	key := PartitionKey(at) + record.SnapshotID + ".json.gz"
	return p.objects.Put(ctx, key, buf.Bytes())
}

// PartitionKey returns the raw store prefix for one UTC day.
func PartitionKey(t time.Time) string {
	return fmt.Sprintf("%syear=%04d/month=%02d/day=%02d/", store.RawLocationsBase, t.Year(), int(t.Month()), t.Day())
}

func (p *LocationPoller) IsReady() bool {
	p.readyMu.RLock()
	defer p.readyMu.RUnlock()
	return p.ready
}

func (p *LocationPoller) setReady(ready bool) {
	p.readyMu.Lock()
	defer p.readyMu.Unlock()
	p.ready = ready
}
