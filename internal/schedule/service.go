package schedule

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"ctarail/internal/cache"
	"ctarail/internal/domain"
	"ctarail/internal/store"
)

// LineInfo is one rail line present in the schedule data.
type LineInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Service answers the three schedule queries over the union of all
// historical effective-date artifacts. The union is held in memory and
// swapped wholesale on Reload; results are optionally cached in redis.
type Service struct {
	store  store.ObjectStore
	cache  *cache.RedisCache // nil disables caching
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	rows   []domain.ScheduleRow
	loaded bool
}

func NewService(st store.ObjectStore, c *cache.RedisCache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		cache:  c,
		ttl:    ttl,
		logger: logger.With("component", "schedule_service"),
	}
}

// Reload re-reads every schedule artifact and invalidates cached results.
// An empty store is not an error; queries then return empty results.
func (s *Service) Reload(ctx context.Context) error {
	start := time.Now()
	rows, err := ReadAllArtifacts(ctx, s.store)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.rows = rows
	s.loaded = true
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, cache.KeySchedulePattern); err != nil {
			s.logger.Warn("failed to invalidate cached results", "error", err)
		}
	}

	s.logger.Info("schedule reloaded",
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Ready reports whether an initial load has completed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// RowCount returns the size of the loaded union.
func (s *Service) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *Service) snapshot() []domain.ScheduleRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows
}

// Lines lists the distinct rail lines present in the data, sorted by name.
func (s *Service) Lines() []LineInfo {
	seen := make(map[string]string)
	for _, r := range s.snapshot() {
		seen[r.RouteLongName] = r.RouteColor
	}

	lines := make([]LineInfo, 0, len(seen))
	for name, color := range seen {
		lines = append(lines, LineInfo{Name: name, Color: "#" + color})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

// TripsPerHour answers query A for one line and schedule type.
func (s *Service) TripsPerHour(ctx context.Context, line string, class ServiceClass) ([]HourlyTrips, error) {
	var cached []HourlyTrips
	if s.cacheGet(ctx, cache.KeyTripsPerHour(line, string(class)), &cached) {
		return cached, nil
	}

	result, err := TripsPerHour(FilterByService(s.snapshot(), line, class))
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, cache.KeyTripsPerHour(line, string(class)), result)
	return result, nil
}

// Headways answers query B for one line and schedule type.
func (s *Service) Headways(ctx context.Context, line string, class ServiceClass) ([]HourlyHeadway, error) {
	var cached []HourlyHeadway
	if s.cacheGet(ctx, cache.KeyHeadways(line, string(class)), &cached) {
		return cached, nil
	}

	result, err := HourlyHeadways(FilterByService(s.snapshot(), line, class))
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, cache.KeyHeadways(line, string(class)), result)
	return result, nil
}

// Runs answers query C; an empty line selects all lines.
func (s *Service) Runs(ctx context.Context, line string) ([]LineRuns, error) {
	var cached []LineRuns
	if s.cacheGet(ctx, cache.KeyRuns(line), &cached) {
		return cached, nil
	}

	result, err := ScheduledRuns(s.snapshot(), line)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, cache.KeyRuns(line), result)
	return result, nil
}

// Warm precomputes and caches every (line, schedule type) combination plus
// the aggregate runs, so the first page view after a feed update is served
// from cache.
func (s *Service) Warm(ctx context.Context) {
	if s.cache == nil {
		return
	}
	start := time.Now()

	for _, line := range domain.RailLines {
		for _, class := range []ServiceClass{Weekday, Saturday, Sunday} {
			if _, err := s.TripsPerHour(ctx, line, class); err != nil {
				s.logger.Warn("warm trips-per-hour failed", "line", line, "error", err)
			}
			if _, err := s.Headways(ctx, line, class); err != nil {
				s.logger.Warn("warm headways failed", "line", line, "error", err)
			}
		}
		if _, err := s.Runs(ctx, line); err != nil {
			s.logger.Warn("warm runs failed", "line", line, "error", err)
		}
	}
	if _, err := s.Runs(ctx, ""); err != nil {
		s.logger.Warn("warm aggregate runs failed", "error", err)
	}

	s.logger.Info("analytics cache warmed", "duration_ms", time.Since(start).Milliseconds())
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.GetJSON(ctx, key, dest)
	if err != nil {
		// Redis being down degrades to uncached compute.
		return false
	}
	return ok
}

func (s *Service) cachePut(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("failed to cache result", "key", key, "error", err)
	}
}
