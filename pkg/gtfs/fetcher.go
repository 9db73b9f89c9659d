// Package gtfs fetches the CTA static feed and decodes its tables into typed
// relations.
package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ctarail/internal/store"
)

// watermarkName is the checkpoint holding the feed's Last-Modified time.
const watermarkName = "gtfs_last_modified_time"

const watermarkLayout = time.RFC3339

// Fetcher downloads the schedule zip and unpacks its members into the raw
// feed area of the store. The feed's Last-Modified header is checkpointed so
// an unchanged publish is not re-ingested.
type Fetcher struct {
	url       string
	client    *http.Client
	store     store.ObjectStore
	watermark *store.Checkpoint
	logger    *slog.Logger
}

func NewFetcher(url string, st store.ObjectStore, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		url: url,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
		store:     st,
		watermark: store.NewCheckpoint(st, watermarkName),
		logger:    logger.With("component", "gtfs_fetcher"),
	}
}

// FetchIfModified downloads the feed and, when it is newer than the stored
// watermark, replaces the raw tables and advances the watermark. It reports
// whether new data was ingested.
func (f *Fetcher) FetchIfModified(ctx context.Context) (bool, error) {
	start := time.Now()
	f.logger.Info("fetching GTFS feed", "url", f.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "ctarail/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download gtfs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		return false, fmt.Errorf("Last-Modified header not found in the response")
	}
	publishedAt, err := http.ParseTime(lastModified)
	if err != nil {
		return false, fmt.Errorf("parse Last-Modified %q: %w", lastModified, err)
	}

	stored, err := f.watermark.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("read watermark: %w", err)
	}
	if stored != "" {
		storedAt, err := time.Parse(watermarkLayout, stored)
		if err != nil {
			return false, fmt.Errorf("parse stored watermark %q: %w", stored, err)
		}
		if !publishedAt.After(storedAt) {
			f.logger.Info("feed unchanged since last fetch", "published_at", publishedAt)
			return false, nil
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read body: %w", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false, fmt.Errorf("open zip: %w", err)
	}

	var count int
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return false, fmt.Errorf("open %s: %w", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return false, fmt.Errorf("read %s: %w", file.Name, err)
		}
		if err := f.store.Put(ctx, store.GTFSPrefix+file.Name, content); err != nil {
			return false, err
		}
		count++
	}

	if err := f.watermark.Set(ctx, publishedAt.UTC().Format(watermarkLayout)); err != nil {
		return false, fmt.Errorf("update watermark: %w", err)
	}

	f.logger.Info("GTFS feed ingested",
		"files", count,
		"size_mb", fmt.Sprintf("%.2f", float64(len(data))/(1024*1024)),
		"published_at", publishedAt,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return true, nil
}
