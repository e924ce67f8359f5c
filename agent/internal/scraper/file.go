package scraper

import (
	"context"
	"fmt"
	"os"

	"github.com/flowpulse/flowpulse/agent/internal/config"
	"github.com/flowpulse/flowpulse/pkg/types"
)

// fileScraper reads a text exposition from disk, e.g. one written by a
// tracker export job or a node_exporter textfile collector.
type fileScraper struct {
	chartID string
	src     config.Source
}

func (s *fileScraper) Scrape(ctx context.Context) ([]types.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.src.Path)
	if err != nil {
		return nil, fmt.Errorf("file scrape %q: %w", s.chartID, err)
	}
	defer f.Close()

	mfs, err := parseMetrics(f)
	if err != nil {
		return nil, fmt.Errorf("file scrape %q: %w", s.chartID, err)
	}
	return extractPoints(s.chartID, mfs, s.src), nil
}

// staticScraper serves the points written inline in the config.
type staticScraper struct {
	src config.Source
}

func (s *staticScraper) Scrape(_ context.Context) ([]types.Point, error) {
	series := types.Series{Points: make([]types.Point, 0, len(s.src.Points))}
	for _, p := range s.src.Points {
		pt := types.Point{At: p.At.UTC(), Value: p.Value}
		if len(p.Items) > 0 {
			pt.ItemIDs = append([]string(nil), p.Items...)
		}
		series.Points = append(series.Points, pt)
	}
	series.Sort()
	return series.Points, nil
}
