package chart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/flowpulse/flowpulse/pkg/xmr"
)

// Engine builds charts and remembers the previous result per chart ID so it
// can report what changed between refreshes.
//
// All exported methods are safe for concurrent use.
type Engine struct {
	mu   sync.Mutex
	prev map[string]*Chart

	sem *semaphore.Weighted
}

// NewEngine returns an Engine that runs at most maxConcurrent builds at once
// in BuildAll. Values below 1 are treated as 1.
func NewEngine(maxConcurrent int) *Engine {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Engine{
		prev: make(map[string]*Chart),
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Process builds the chart for req and compares it with the previous build
// of the same ID.
func (e *Engine) Process(req Request, now time.Time) *Chart {
	c := Build(req, now)

	e.mu.Lock()
	prev := e.prev[c.ID]
	e.prev[c.ID] = c
	e.mu.Unlock()

	logTransition(prev, c)
	return c
}

// BuildAll processes every request, running up to maxConcurrent builds in
// parallel. Results are returned in request order. If ctx is cancelled before
// every build has started, the charts built so far are returned (unstarted
// slots are nil) along with the context error.
func (e *Engine) BuildAll(ctx context.Context, reqs []Request, now time.Time) ([]*Chart, error) {
	out := make([]*Chart, len(reqs))
	var wg sync.WaitGroup

	var err error
	for i := range reqs {
		if err = ctx.Err(); err == nil {
			err = e.sem.Acquire(ctx, 1)
		}
		if err != nil {
			err = fmt.Errorf("chart: build all: %w", err)
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer e.sem.Release(1)
			out[i] = e.Process(reqs[i], now)
		}(i)
	}
	wg.Wait()
	return out, err
}

// Previous returns the last chart built for id.
func (e *Engine) Previous(id string) (*Chart, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.prev[id]
	return c, ok
}

// Retain forgets every chart whose ID is not in ids. Call it after a config
// reload removes charts.
func (e *Engine) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.prev {
		if !keep[id] {
			delete(e.prev, id)
		}
	}
}

// logTransition reports status changes and causes that were not present on
// the previous build.
func logTransition(prev, cur *Chart) {
	if prev == nil || prev.Status != cur.Status {
		from := Status("")
		if prev != nil {
			from = prev.Status
		}
		if cur.Ready() {
			slog.Info("chart: status changed", "chart", cur.ID, "from", from, "to", cur.Status)
		} else {
			slog.Warn("chart: status changed", "chart", cur.ID, "from", from, "to", cur.Status,
				"reason", cur.StatusReason)
		}
	}
	if !cur.Ready() {
		return
	}
	for _, cause := range xmr.AllCauses {
		n := cur.Count(cause)
		if n == 0 {
			continue
		}
		if prev != nil && prev.Ready() && prev.Count(cause) >= n {
			continue
		}
		slog.Info("chart: special cause detected", "chart", cur.ID,
			"cause", cause.String(), "points", n)
	}
}
