package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flowpulse/flowpulse/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRefreshInterval = 5 * time.Minute
	DefaultMaxConcurrent   = 4
	DefaultCacheTTL        = 30 * time.Minute
	DefaultDisplayDays     = 30
	DefaultCutoffDays      = 180
	DefaultOutputFormat    = "prometheus"
)

// Config is the top-level configuration file.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent settings.
type AgentConfig struct {
	// RefreshInterval controls how often every chart is rebuilt.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// MaxConcurrent bounds how many charts are built in parallel.
	MaxConcurrent int `yaml:"max_concurrent"`

	// CacheTTL is how long a built chart is served after its last refresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// Output controls where refreshed charts are written.
	Output OutputConfig `yaml:"output"`

	// Charts is the list of process behaviour charts to maintain.
	Charts []ChartConfig `yaml:"charts"`

	// Alerts holds special-cause notification rules and webhook targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// OutputConfig selects the export format and destination.
type OutputConfig struct {
	// Path is the file charts are written to after each refresh.
	// Empty disables file output.
	Path string `yaml:"path"`

	// Format is one of: prometheus | json.
	Format string `yaml:"format"`
}

// ChartConfig describes one process behaviour chart.
type ChartConfig struct {
	// ID is a unique, human-readable identifier, e.g. "team-a-throughput".
	ID string `yaml:"id"`

	// Metric is one of: throughput | cycle_time | wip | work_item_age | feature_size.
	Metric string `yaml:"metric"`

	// Source is where the chart's series is read from.
	Source Source `yaml:"source"`

	// DisplayDays is the length of the display window, ending now.
	DisplayDays int `yaml:"display_days"`

	// CutoffDays is how far back history is kept; a baseline must start
	// within CutoffDays-1 days of now.
	CutoffDays int `yaml:"cutoff_days"`

	// Baseline is the optional explicit reference period.
	Baseline BaselineConfig `yaml:"baseline"`
}

// BaselineConfig holds the explicit baseline window.
type BaselineConfig struct {
	Start *Date `yaml:"start"`
	End   *Date `yaml:"end"`

	// Implicit uses the display window as baseline when no dates are set.
	// Without it a chart with no baseline reports baseline_missing.
	Implicit bool `yaml:"implicit"`
}

// Range returns the configured dates as time pointers (nil when unset).
func (b BaselineConfig) Range() (start, end *time.Time) {
	if b.Start != nil {
		t := b.Start.Time
		start = &t
	}
	if b.End != nil {
		t := b.End.Time
		end = &t
	}
	return start, end
}

// Source describes where a chart's series comes from.
type Source struct {
	// Type is one of: prometheus | file | static.
	Type string `yaml:"type"`

	// Endpoint is the URL of a Prometheus text exposition (type prometheus).
	Endpoint string `yaml:"endpoint"`

	// Path is a file holding a Prometheus text exposition (type file).
	Path string `yaml:"path"`

	// Family is the metric family name to read samples from.
	Family string `yaml:"family"`

	// Labels selects samples whose labels match every key/value given.
	Labels map[string]string `yaml:"labels"`

	// ItemLabel, when set, copies that label's value into the point's item IDs.
	ItemLabel string `yaml:"item_label"`

	// Points holds inline observations (type static).
	Points []StaticPoint `yaml:"points"`

	// Auth configures how the agent authenticates to an HTTP source.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// StaticPoint is one inline observation.
type StaticPoint struct {
	At    Date     `yaml:"at"`
	Value float64  `yaml:"value"`
	Items []string `yaml:"items"`
}

// AuthConfig specifies the authentication mode for an HTTP source.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header name the API key is sent in.
	Header string `yaml:"header"`
	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	Username string `yaml:"username"`
	// PasswordEnv is the name of the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string { return fromEnv(a.KeyEnv) }

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string { return fromEnv(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return fromEnv(a.PasswordEnv) }

// TLSConfig holds per-source TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// AlertsConfig holds alert rules and webhook targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one condition evaluated against every built chart.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Charts limits the rule to these chart IDs. Empty means every chart.
	Charts []string `yaml:"charts"`

	// Condition is a simple expression: "latest_causes > 0",
	// "large_change >= 1", "status == baseline_invalid".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// AppliesTo reports whether the rule covers chartID.
func (r AlertRule) AppliesTo(chartID string) bool {
	if len(r.Charts) == 0 {
		return true
	}
	for _, id := range r.Charts {
		if id == chartID {
			return true
		}
	}
	return false
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string { return fromEnv(w.URLEnv) }

// Date is a calendar date or timestamp in YAML: "2026-01-31" or RFC 3339.
type Date struct {
	time.Time
}

// UnmarshalYAML parses a date scalar.
func (d *Date) UnmarshalYAML(n *yaml.Node) error {
	t, err := ParseDate(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	d.Time = t
	return nil
}

// ParseDate accepts "2006-01-02" (UTC midnight) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	applyChartDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			RefreshInterval: DefaultRefreshInterval,
			MaxConcurrent:   DefaultMaxConcurrent,
			CacheTTL:        DefaultCacheTTL,
			Output:          OutputConfig{Format: DefaultOutputFormat},
		},
	}
}

// applyChartDefaults fills per-chart fields that YAML left at zero.
func applyChartDefaults(cfg *Config) {
	for i := range cfg.Agent.Charts {
		c := &cfg.Agent.Charts[i]
		if c.DisplayDays == 0 {
			c.DisplayDays = DefaultDisplayDays
		}
		if c.CutoffDays == 0 {
			c.CutoffDays = DefaultCutoffDays
		}
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.RefreshInterval <= 0 {
		return fmt.Errorf("agent.refresh_interval must be positive")
	}
	if a.MaxConcurrent <= 0 {
		return fmt.Errorf("agent.max_concurrent must be positive")
	}
	if a.CacheTTL < 0 {
		return fmt.Errorf("agent.cache_ttl must not be negative")
	}
	switch a.Output.Format {
	case "prometheus", "json":
	default:
		return fmt.Errorf("agent.output.format %q unknown: want prometheus|json", a.Output.Format)
	}

	seen := make(map[string]bool, len(a.Charts))
	for i, c := range a.Charts {
		if c.ID == "" {
			return fmt.Errorf("charts[%d]: id is required", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("charts[%d]: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true

		if _, err := types.ParseMetric(c.Metric); err != nil {
			return fmt.Errorf("charts[%d] %q: unknown metric %q", i, c.ID, c.Metric)
		}
		if c.DisplayDays < 0 {
			return fmt.Errorf("charts[%d] %q: display_days must be positive", i, c.ID)
		}
		if c.CutoffDays < 0 {
			return fmt.Errorf("charts[%d] %q: cutoff_days must be positive", i, c.ID)
		}
		if err := validateSource(c.Source); err != nil {
			return fmt.Errorf("charts[%d] %q: %w", i, c.ID, err)
		}
	}

	for i, r := range a.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("alerts.rules[%d] %q: condition %q must be \"field op value\"", i, r.Name, r.Condition)
		}
	}
	for i, w := range a.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}

func validateSource(src Source) error {
	switch src.Type {
	case "prometheus":
		if src.Endpoint == "" {
			return fmt.Errorf("source.endpoint is required for type prometheus")
		}
	case "file":
		if src.Path == "" {
			return fmt.Errorf("source.path is required for type file")
		}
	case "static":
		if len(src.Points) == 0 {
			return fmt.Errorf("source.points is required for type static")
		}
		return nil
	default:
		return fmt.Errorf("unknown source type %q", src.Type)
	}

	if src.Family == "" {
		return fmt.Errorf("source.family is required for type %s", src.Type)
	}
	switch src.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("unknown auth mode %q", src.Auth.Mode)
	}
	return nil
}

func fromEnv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
