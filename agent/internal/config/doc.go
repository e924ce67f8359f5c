// Package config loads and watches the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - AgentConfig: refresh_interval, max_concurrent, cache_ttl, output, charts [], alerts
//   - ChartConfig: id, metric, source, display_days, cutoff_days, baseline
//   - Source: type (prometheus|file|static), endpoint, path, family, labels,
//     item_label, points, auth, tls
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none); Key(), Token() and
//     Password() resolve secrets from environment variables
//   - AlertsConfig: special-cause notification rules and webhook targets
//
// Load(path) reads the YAML file, applies defaults (5m refresh, 4 concurrent
// builds, 30 display days, 180 cutoff days, prometheus output), then validates
// required fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. Bursts of events are coalesced into
// one reload, and the watch is re-added before each reload to survive the
// rename/create pattern of atomic-save editors.
package config
