// Package scraper reads the series behind each chart.
//
// Three source types are supported: "prometheus" fetches a Prometheus text
// exposition over HTTP (prometheus.go), "file" reads the same format from disk
// (file.go), and "static" serves points written inline in the config. For the
// first two, samples of the configured metric family whose labels match the
// selector become points; the sample timestamp is the point's time.
//
// Authentication (mTLS, API key, bearer token, basic) is handled by the shared
// authRoundTripper in base.go. Factory: New(chartID, config.Source).
package scraper
