package scraper

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/pkg/types"
)

const defaultScrapeTimeout = 10 * time.Second

// Scraper reads the observations of one chart's series.
type Scraper interface {
	Scrape(ctx context.Context) ([]types.Point, error)
}

// New returns the appropriate Scraper for the given source configuration.
// chartID is used only to label log lines and errors.
// HTTP sources build their client once and reuse it across scrape calls.
func New(chartID string, src config.Source) (Scraper, error) {
	switch src.Type {
	case "prometheus":
		client, err := buildHTTPClient(src)
		if err != nil {
			return nil, fmt.Errorf("scraper %q: build http client: %w", chartID, err)
		}
		return &promScraper{chartID: chartID, src: src, client: client}, nil
	case "file":
		return &fileScraper{chartID: chartID, src: src}, nil
	case "static":
		return &staticScraper{src: src}, nil
	default:
		return nil, fmt.Errorf("scraper %q: unsupported type %q", chartID, src.Type)
	}
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.Header, t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildHTTPClient constructs an http.Client for the source's auth and TLS settings.
func buildHTTPClient(src config.Source) (*http.Client, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: src.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if src.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(src.Auth.CertFile, src.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if src.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(src.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", src.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}

	return &http.Client{
		Transport: &authRoundTripper{
			base: &http.Transport{TLSClientConfig: tlsCfg},
			auth: src.Auth,
		},
		Timeout: defaultScrapeTimeout,
	}, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric families.
// A partial result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// extractPoints turns the samples of the configured family into points.
// Samples must carry every selector label and a timestamp; the rest are
// skipped. The result is sorted by time.
func extractPoints(chartID string, mfs map[string]*dto.MetricFamily, src config.Source) []types.Point {
	mf := mfs[src.Family]
	if mf == nil {
		slog.Warn("scraper: metric family not found", "chart", chartID, "family", src.Family)
		return nil
	}

	var (
		points    []types.Point
		untimed   int
		unmatched int
	)
	for _, m := range mf.GetMetric() {
		labels := labelMap(m)
		if !matches(labels, src.Labels) {
			unmatched++
			continue
		}
		if m.TimestampMs == nil {
			untimed++
			continue
		}
		v, ok := sampleValue(m)
		if !ok {
			continue
		}
		p := types.Point{
			At:    time.UnixMilli(m.GetTimestampMs()).UTC(),
			Value: v,
		}
		if src.ItemLabel != "" {
			if id := labels[src.ItemLabel]; id != "" {
				p.ItemIDs = []string{id}
			}
		}
		points = append(points, p)
	}

	if untimed > 0 {
		slog.Warn("scraper: dropped samples without timestamp",
			"chart", chartID, "family", src.Family, "count", untimed)
	}
	slog.Debug("scraper: extracted points", "chart", chartID,
		"family", src.Family, "points", len(points), "unmatched", unmatched)

	s := types.Series{Points: points}
	s.Sort()
	return s.Points
}

// sampleValue reads a counter, gauge, or untyped value.
// Summaries and histograms have no single value and are skipped.
func sampleValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue(), true
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	default:
		return 0, false
	}
}

func labelMap(m *dto.Metric) map[string]string {
	out := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

// matches reports whether labels carries every key/value in selector.
func matches(labels, selector map[string]string) bool {
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}
