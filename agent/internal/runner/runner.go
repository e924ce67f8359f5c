package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowpulse/flowpulse/agent/internal/alerts"
	"github.com/flowpulse/flowpulse/agent/internal/chart"
	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/agent/internal/export"
	"github.com/flowpulse/flowpulse/agent/internal/scraper"
	"github.com/flowpulse/flowpulse/agent/internal/store"
	"github.com/flowpulse/flowpulse/pkg/types"
)

// source pairs a chart's config with its scraper.
type source struct {
	cfg     config.ChartConfig
	scraper scraper.Scraper
}

// Runner owns the agent's long-lived state.
//
// All exported methods are safe for concurrent use.
type Runner struct {
	mu      sync.Mutex
	agent   config.AgentConfig
	sources []source
	reload  chan time.Duration

	engine *chart.Engine
	store  *store.Store
	alerts *alerts.Engine
	now    func() time.Time
}

// New builds a Runner for cfg. Charts whose scraper cannot be built are
// skipped with an error log.
func New(cfg *config.Config) *Runner {
	r := &Runner{
		agent:  cfg.Agent,
		reload: make(chan time.Duration, 1),
		engine: chart.NewEngine(cfg.Agent.MaxConcurrent),
		store:  store.New(cfg.Agent.CacheTTL),
		alerts: alerts.New(cfg.Agent.Alerts),
		now:    time.Now,
	}
	r.sources = buildSources(cfg.Agent.Charts)
	return r
}

func buildSources(charts []config.ChartConfig) []source {
	out := make([]source, 0, len(charts))
	for _, c := range charts {
		s, err := scraper.New(c.ID, c.Source)
		if err != nil {
			slog.Error("runner: skipping chart, could not build scraper", "chart", c.ID, "err", err)
			continue
		}
		out = append(out, source{cfg: c, scraper: s})
		slog.Info("runner: registered chart", "chart", c.ID, "metric", c.Metric, "source", c.Source.Type)
	}
	return out
}

// Reload replaces the chart list, alert rules and output settings.
// Charts that disappeared are dropped from the cache and their firing alerts
// are resolved.
func (r *Runner) Reload(cfg *config.Config) {
	sources := buildSources(cfg.Agent.Charts)
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.cfg.ID
	}

	r.mu.Lock()
	old := r.sources
	interval := r.agent.RefreshInterval
	r.agent = cfg.Agent
	r.sources = sources

	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for _, s := range old {
		if !keep[s.cfg.ID] {
			r.store.Delete(s.cfg.ID)
		}
	}
	r.engine.Retain(ids)
	r.alerts.Reload(cfg.Agent.Alerts)
	r.alerts.Retain(ids)
	r.mu.Unlock()

	if cfg.Agent.RefreshInterval != interval {
		select {
		case r.reload <- cfg.Agent.RefreshInterval:
		default:
		}
	}
	slog.Info("runner: config applied", "charts", len(sources))
}

// Refresh scrapes every source, rebuilds every chart and writes the output
// file if one is configured. It returns the charts currently cached.
//
// A failing source is logged and skipped; its previous chart stays cached
// until the cache TTL expires.
func (r *Runner) Refresh(ctx context.Context) ([]*chart.Chart, error) {
	r.mu.Lock()
	sources := r.sources
	agent := r.agent
	r.mu.Unlock()

	now := r.now()
	points := make([][]types.Point, len(sources))
	ok := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(agent.MaxConcurrent, 1))
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			pts, err := s.scraper.Scrape(gctx)
			if err != nil {
				slog.Warn("runner: scrape failed", "chart", s.cfg.ID, "err", err)
				return nil
			}
			points[i], ok[i] = pts, true
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("runner: refresh: %w", err)
	}

	reqs := make([]chart.Request, 0, len(sources))
	for i, s := range sources {
		if ok[i] {
			reqs = append(reqs, request(s.cfg, points[i]))
		}
	}
	built, err := r.engine.BuildAll(ctx, reqs, now)
	if err != nil {
		return nil, fmt.Errorf("runner: refresh: %w", err)
	}
	r.publish(built)

	charts := r.store.Charts()
	slog.Info("runner: refreshed", "built", len(built), "cached", len(charts), "sources", len(sources))

	if agent.Output.Path != "" {
		if err := export.WriteFile(agent.Output.Path, agent.Output.Format, charts, now); err != nil {
			return charts, fmt.Errorf("runner: %w", err)
		}
	}
	return charts, nil
}

// publish caches and evaluates the built charts that are still configured.
// A Reload that ran while the charts were being built may have removed some.
func (r *Runner) publish(built []*chart.Chart) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make(map[string]bool, len(r.sources))
	for _, s := range r.sources {
		live[s.cfg.ID] = true
	}
	for _, c := range built {
		if !live[c.ID] {
			slog.Debug("runner: discarding chart removed during refresh", "chart", c.ID)
			continue
		}
		r.store.Put(c)
		r.alerts.Evaluate(c)
	}
}

// Run refreshes immediately and then every refresh interval until ctx is
// cancelled. The cache eviction loop runs alongside.
func (r *Runner) Run(ctx context.Context) {
	go r.store.Run(ctx)

	r.mu.Lock()
	interval := r.agent.RefreshInterval
	r.mu.Unlock()

	r.refreshAndLog(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.alerts.Wait()
			return
		case d := <-r.reload:
			ticker.Reset(d)
			slog.Info("runner: refresh interval changed", "interval", d)
		case <-ticker.C:
			r.refreshAndLog(ctx)
		}
	}
}

// Alerts returns the firing and recently resolved alerts.
func (r *Runner) Alerts() []*alerts.Alert { return r.alerts.Active() }

// Wait blocks until pending webhook deliveries finish.
func (r *Runner) Wait() { r.alerts.Wait() }

func (r *Runner) refreshAndLog(ctx context.Context) {
	if _, err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
		slog.Error("runner: refresh failed", "err", err)
	}
}

// request converts a chart's config and scraped points into a build request.
func request(c config.ChartConfig, points []types.Point) chart.Request {
	start, end := c.Baseline.Range()
	return chart.Request{
		ID:               c.ID,
		Metric:           types.Metric(c.Metric),
		Points:           points,
		DisplayDays:      c.DisplayDays,
		CutoffDays:       c.CutoffDays,
		BaselineStart:    start,
		BaselineEnd:      end,
		ImplicitBaseline: c.Baseline.Implicit,
	}
}
