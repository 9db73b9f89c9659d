package store

import (
	"sync"
	"time"

	"ctarail/internal/domain"
)

// TrainStore keeps the latest known position per train run. It is refreshed
// by the location poller and read by the HTTP layer.
type TrainStore struct {
	mu      sync.RWMutex
	trains  map[string]*domain.TrainPosition
	byRoute map[string]map[string]struct{}

	staleAfter time.Duration
}

func NewTrainStore(staleAfter time.Duration) *TrainStore {
	return &TrainStore{
		trains:     make(map[string]*domain.TrainPosition),
		byRoute:    make(map[string]map[string]struct{}),
		staleAfter: staleAfter,
	}
}

// Update replaces the stored position for each train in the snapshot.
func (s *TrainStore) Update(positions []*domain.TrainPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, p := range positions {
		p.UpdatedAt = now
		if old, ok := s.trains[p.Key]; ok && old.Route != p.Route {
			s.removeFromRoute(old.Key, old.Route)
		}
		s.trains[p.Key] = p
		if s.byRoute[p.Route] == nil {
			s.byRoute[p.Route] = make(map[string]struct{})
		}
		s.byRoute[p.Route][p.Key] = struct{}{}
	}
}

// PruneStale drops trains not seen within the stale window and reports how
// many were removed.
func (s *TrainStore) PruneStale() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.staleAfter)
	removed := 0
	for key, p := range s.trains {
		if p.UpdatedAt.Before(cutoff) {
			s.removeFromRoute(key, p.Route)
			delete(s.trains, key)
			removed++
		}
	}
	return removed
}

// List returns current positions, optionally restricted to one route slug.
func (s *TrainStore) List(route string) []*domain.TrainPosition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys map[string]struct{}
	if route != "" {
		keys = s.byRoute[route]
	}

	result := make([]*domain.TrainPosition, 0, len(s.trains))
	for key, p := range s.trains {
		if route != "" {
			if _, ok := keys[key]; !ok {
				continue
			}
		}
		cp := *p
		result = append(result, &cp)
	}
	return result
}

func (s *TrainStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trains)
}

func (s *TrainStore) removeFromRoute(key, route string) {
	if s.byRoute[route] != nil {
		delete(s.byRoute[route], key)
		if len(s.byRoute[route]) == 0 {
			delete(s.byRoute, route)
		}
	}
}
