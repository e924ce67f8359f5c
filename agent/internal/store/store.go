package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
)

// Entry is a chart together with the time it was last stored.
type Entry struct {
	Chart     *chart.Chart
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory chart cache, keyed by chart ID.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL. A TTL of zero disables expiry.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores or replaces the chart for c.ID.
// Callers must not modify c after calling Put.
func (s *Store) Put(c *chart.Chart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.ID] = &Entry{
		Chart:     c,
		UpdatedAt: s.now(),
	}
}

// Get returns the Entry for the given chart ID and a boolean indicating
// whether an entry was found. The entry may be stale if TTL has elapsed.
func (s *Store) Get(id string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	return e, ok
}

// Delete removes the chart for id, e.g. after a config reload drops it.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Charts returns the live charts ordered by ID. Stale entries that have not
// yet been evicted are excluded.
func (s *Store) Charts() []*chart.Chart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]*chart.Chart, 0, len(s.data))
	for _, e := range s.data {
		if s.live(e, now) {
			out = append(out, e.Chart)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.data {
		if !s.live(e, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

func (s *Store) live(e *Entry, now time.Time) bool {
	if s.ttl <= 0 {
		return true
	}
	return e.UpdatedAt.After(now.Add(-s.ttl))
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second) so entries are evicted promptly. Run blocks until ctx is
// cancelled, and returns immediately when expiry is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale charts", "count", n)
			}
		}
	}
}
