package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/pkg/types"
)

type promScraper struct {
	chartID string
	src     config.Source
	client  *http.Client
}

// Scrape fetches the source's text exposition over HTTP and extracts the
// samples of the configured family.
func (s *promScraper) Scrape(ctx context.Context) ([]types.Point, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.src.Endpoint)
	if err != nil {
		slog.Warn("scraper: prometheus fetch failed", "chart", s.chartID, "err", err)
		return nil, fmt.Errorf("prometheus scrape %q: %w", s.chartID, err)
	}
	return extractPoints(s.chartID, mfs, s.src), nil
}
