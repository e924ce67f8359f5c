package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
	"github.com/flowpulse/flowpulse/agent/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID       string `json:"id"`
	RuleName string `json:"rule_name"`
	ChartID  string `json:"chart_id"`
	// ChartStatus is the chart's status when the alert last changed state.
	ChartStatus string     `json:"chart_status"`
	Severity    string     `json:"severity"`
	Message     string     `json:"message"`
	Value       float64    `json:"value"`
	FiredAt     time.Time  `json:"fired_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	State       string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against built charts and delivers webhook
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	rules    []config.AlertRule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: "ruleName:chartID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts

	client     *http.Client
	deliveries sync.WaitGroup
	now        func() time.Time
}

// New creates an Engine from the alert configuration.
// An Engine with empty rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Reload swaps in new rules and webhooks. Firing alerts whose rule no longer
// exists are dropped without a resolve notification.
func (e *Engine) Reload(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = cfg.Rules
	e.webhooks = cfg.Webhooks

	names := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		names[r.Name] = true
	}
	for key, a := range e.active {
		if !names[a.RuleName] {
			delete(e.active, key)
		}
	}
}

// Evaluate tests all configured rules against c.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(c *chart.Chart) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for _, rule := range e.rules {
		if !rule.AppliesTo(c.ID) {
			continue
		}
		key := rule.Name + ":" + c.ID
		fires, value := evalCondition(rule.Condition, c)

		if fires {
			if _, firing := e.active[key]; firing {
				continue
			}
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			if last, ok := e.lastFire[key]; ok && now.Sub(last) <= cooldown {
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				ID:          fmt.Sprintf("%s:%s:%d", rule.Name, c.ID, now.UnixNano()),
				RuleName:    rule.Name,
				ChartID:     c.ID,
				ChartStatus: string(c.Status),
				Severity:    sev,
				Value:       value,
				Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)",
					sev, rule.Name, c.ID, rule.Condition, value),
				FiredAt: now,
				State:   StateFiring,
			}
			e.active[key] = a
			e.lastFire[key] = now

			slog.Warn("alerts: alert fired",
				"rule", rule.Name,
				"chart", c.ID,
				"value", value,
				"severity", sev,
			)
			e.dispatch(*a)
			continue
		}

		a, ok := e.active[key]
		if !ok {
			continue
		}
		a.ChartStatus = string(c.Status)
		e.resolve(key, a, now)
		slog.Info("alerts: alert resolved", "rule", rule.Name, "chart", c.ID)
	}
}

// Retain resolves every firing alert raised on a chart not listed in ids.
func (e *Engine) Retain(ids []string) {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for key, a := range e.active {
		if keep[a.ChartID] {
			continue
		}
		delete(e.lastFire, key)
		e.resolve(key, a, now)
		slog.Info("alerts: chart removed, alert resolved", "rule", a.RuleName, "chart", a.ChartID)
	}
}

// resolve moves a from the active set into history and notifies webhooks.
// Caller holds e.mu.
func (e *Engine) resolve(key string, a *Alert, at time.Time) {
	a.State = StateResolved
	a.ResolvedAt = &at
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	e.dispatch(*a)
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return latest(out[i]).After(latest(out[j])) })
	return out
}

// Wait blocks until every webhook delivery started so far has finished.
func (e *Engine) Wait() { e.deliveries.Wait() }

// dispatch delivers a copy of a in the background. Caller holds e.mu.
func (e *Engine) dispatch(a Alert) {
	if len(e.webhooks) == 0 {
		return
	}
	hooks := append([]config.WebhookConfig(nil), e.webhooks...)
	e.deliveries.Add(1)
	go func() {
		defer e.deliveries.Done()
		e.deliver(hooks, &a)
	}()
}

func latest(a *Alert) time.Time {
	if a.ResolvedAt != nil {
		return *a.ResolvedAt
	}
	return a.FiredAt
}
