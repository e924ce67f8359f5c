package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	yaml := `
agent:
  refresh_interval: 1m
  max_concurrent: 2
  output:
    path: /tmp/charts.prom
    format: prometheus
  charts:
    - id: team-a-throughput
      metric: throughput
      display_days: 60
      cutoff_days: 90
      baseline:
        start: 2026-01-01
        end: 2026-01-31
      source:
        type: prometheus
        endpoint: "http://localhost:9100/metrics"
        family: flow_throughput_items
        labels:
          team: a
        auth:
          mode: bearer
          token_env: FLOW_TOKEN
`
	cfg := loadFromString(t, yaml)

	if cfg.Agent.RefreshInterval != time.Minute {
		t.Errorf("refresh_interval: got %v", cfg.Agent.RefreshInterval)
	}
	if cfg.Agent.MaxConcurrent != 2 {
		t.Errorf("max_concurrent: got %d", cfg.Agent.MaxConcurrent)
	}
	if len(cfg.Agent.Charts) != 1 {
		t.Fatalf("charts: got %d, want 1", len(cfg.Agent.Charts))
	}
	c := cfg.Agent.Charts[0]
	if c.ID != "team-a-throughput" || c.Metric != "throughput" {
		t.Errorf("chart: got id=%q metric=%q", c.ID, c.Metric)
	}
	if c.DisplayDays != 60 || c.CutoffDays != 90 {
		t.Errorf("windows: got display=%d cutoff=%d", c.DisplayDays, c.CutoffDays)
	}
	if c.Source.Labels["team"] != "a" {
		t.Errorf("labels: got %v", c.Source.Labels)
	}

	start, end := c.Baseline.Range()
	if start == nil || end == nil {
		t.Fatal("baseline range: got nil dates")
	}
	if !start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("baseline start: got %v", start)
	}
	if !end.Equal(time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("baseline end: got %v", end)
	}
}

func TestLoad_Defaults(t *testing.T) {
	yaml := `
agent:
  charts:
    - id: wip
      metric: wip
      source:
        type: file
        path: ./wip.prom
        family: flow_wip_items
`
	cfg := loadFromString(t, yaml)

	if cfg.Agent.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("default refresh_interval: got %v, want %v", cfg.Agent.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.Agent.MaxConcurrent != DefaultMaxConcurrent {
		t.Errorf("default max_concurrent: got %d, want %d", cfg.Agent.MaxConcurrent, DefaultMaxConcurrent)
	}
	if cfg.Agent.Output.Format != DefaultOutputFormat {
		t.Errorf("default output format: got %q", cfg.Agent.Output.Format)
	}
	c := cfg.Agent.Charts[0]
	if c.DisplayDays != DefaultDisplayDays {
		t.Errorf("default display_days: got %d, want %d", c.DisplayDays, DefaultDisplayDays)
	}
	if c.CutoffDays != DefaultCutoffDays {
		t.Errorf("default cutoff_days: got %d, want %d", c.CutoffDays, DefaultCutoffDays)
	}
	if start, end := c.Baseline.Range(); start != nil || end != nil {
		t.Errorf("baseline range: got (%v, %v), want unset", start, end)
	}
}

func TestLoad_StaticPoints(t *testing.T) {
	yaml := `
agent:
  charts:
    - id: sizes
      metric: feature_size
      baseline:
        implicit: true
      source:
        type: static
        points:
          - at: 2026-02-01T12:00:00Z
            value: 8
            items: [F-1]
          - at: 2026-02-03
            value: 13
`
	cfg := loadFromString(t, yaml)
	pts := cfg.Agent.Charts[0].Source.Points
	if len(pts) != 2 {
		t.Fatalf("points: got %d, want 2", len(pts))
	}
	if pts[0].At.Hour() != 12 || pts[0].Value != 8 || pts[0].Items[0] != "F-1" {
		t.Errorf("points[0]: got %+v", pts[0])
	}
	if !cfg.Agent.Charts[0].Baseline.Implicit {
		t.Error("baseline.implicit: got false")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing chart id", `
agent:
  charts:
    - metric: wip
      source: {type: file, path: a.prom, family: f}
`},
		{"duplicate chart id", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: file, path: a.prom, family: f}}
    - {id: a, metric: wip, source: {type: file, path: a.prom, family: f}}
`},
		{"unknown metric", `
agent:
  charts:
    - {id: a, metric: velocity, source: {type: file, path: a.prom, family: f}}
`},
		{"unknown source type", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: jira}}
`},
		{"prometheus without endpoint", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: prometheus, family: f}}
`},
		{"file without family", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: file, path: a.prom}}
`},
		{"static without points", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: static}}
`},
		{"unknown auth mode", `
agent:
  charts:
    - {id: a, metric: wip, source: {type: file, path: a.prom, family: f, auth: {mode: magictoken}}}
`},
		{"bad baseline date", `
agent:
  charts:
    - id: a
      metric: wip
      baseline: {start: "last tuesday", end: 2026-01-31}
      source: {type: file, path: a.prom, family: f}
`},
		{"unknown output format", `
agent:
  output: {format: csv}
`},
		{"negative refresh", `
agent:
  refresh_interval: -1s
`},
		{"malformed alert condition", `
agent:
  alerts:
    rules:
      - {name: shift, condition: "small_shift"}
`},
		{"unknown webhook type", `
agent:
  alerts:
    webhooks:
      - {type: pager, url_env: X}
`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadStringErr(t, tc.yaml); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestAuthConfig_Secrets(t *testing.T) {
	t.Setenv("TEST_API_KEY", "supersecret")
	t.Setenv("TEST_BEARER_TOKEN", "mytoken")
	t.Setenv("TEST_PASSWORD", "hunter2")

	a := AuthConfig{KeyEnv: "TEST_API_KEY", TokenEnv: "TEST_BEARER_TOKEN", PasswordEnv: "TEST_PASSWORD"}
	if got := a.Key(); got != "supersecret" {
		t.Errorf("Key(): got %q", got)
	}
	if got := a.Token(); got != "mytoken" {
		t.Errorf("Token(): got %q", got)
	}
	if got := a.Password(); got != "hunter2" {
		t.Errorf("Password(): got %q", got)
	}
	if got := (AuthConfig{}).Key(); got != "" {
		t.Errorf("Key() with no KeyEnv: got %q, want empty", got)
	}
}

func TestWebhookConfig_URL(t *testing.T) {
	t.Setenv("TEAMS_URL", "https://teams.example.com/webhook")
	w := WebhookConfig{Type: "teams", URLEnv: "TEAMS_URL"}
	if got := w.URL(); got != "https://teams.example.com/webhook" {
		t.Errorf("URL(): got %q", got)
	}
}

func TestAlertRule_AppliesTo(t *testing.T) {
	all := AlertRule{Name: "any"}
	if !all.AppliesTo("x") {
		t.Error("rule without charts should apply to every chart")
	}
	some := AlertRule{Name: "some", Charts: []string{"a", "b"}}
	if !some.AppliesTo("b") || some.AppliesTo("c") {
		t.Error("rule with charts should apply only to listed charts")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "agent:\n  max_concurrent: 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	go Watch(ctx, path, func(c *Config) {
		select {
		case got <- c:
		default:
		}
	})

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, path, "agent:\n  max_concurrent: 7\n")

	select {
	case cfg := <-got:
		if cfg.Agent.MaxConcurrent != 7 {
			t.Errorf("reloaded max_concurrent: got %d, want 7", cfg.Agent.MaxConcurrent)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("onChange not called within 3s")
	}
}

// loadFromString writes yaml to a temp file and calls Load, failing on error.
func loadFromString(t *testing.T, content string) *Config {
	t.Helper()
	cfg, err := loadStringErr(t, content)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	return cfg
}

// loadStringErr writes yaml to a temp file and calls Load, returning any error.
func loadStringErr(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, content)
	return Load(path)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
}
