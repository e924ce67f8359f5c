package types

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Metric names the flow metric a series measures.
type Metric string

const (
	MetricThroughput  Metric = "throughput"
	MetricCycleTime   Metric = "cycle_time"
	MetricWIP         Metric = "wip"
	MetricWorkItemAge Metric = "work_item_age"
	MetricFeatureSize Metric = "feature_size"
)

// XAxisKind tells a renderer how to format point timestamps.
type XAxisKind string

const (
	XAxisDate     XAxisKind = "date"     // one point per day
	XAxisDateTime XAxisKind = "datetime" // one point per closed item
)

// ParseMetric validates s as a known Metric.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricThroughput, MetricCycleTime, MetricWIP, MetricWorkItemAge, MetricFeatureSize:
		return m, nil
	default:
		return "", fmt.Errorf("types: unknown metric %q", s)
	}
}

// XAxis returns the axis kind for m. Daily aggregates use dates; per-item
// metrics (cycle time, feature size) use the item's close timestamp.
func (m Metric) XAxis() XAxisKind {
	switch m {
	case MetricCycleTime, MetricFeatureSize:
		return XAxisDateTime
	default:
		return XAxisDate
	}
}

// Point is one observation in a series.
type Point struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
	// ItemIDs are the work items that contributed to Value, if known.
	ItemIDs []string `json:"item_ids,omitempty"`
}

// Series is an ordered set of observations for one chart.
type Series struct {
	ID     string  `json:"id"`
	Metric Metric  `json:"metric"`
	Points []Point `json:"points"`
}

// Sort orders points by time, breaking ties on the first item ID.
// Numeric IDs compare by value and sort before any non-numeric ID.
func (s *Series) Sort() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		a, b := s.Points[i], s.Points[j]
		if !a.At.Equal(b.At) {
			return a.At.Before(b.At)
		}
		return lessID(firstID(a), firstID(b))
	})
}

func lessID(a, b string) bool {
	na, aErr := strconv.ParseInt(a, 10, 64)
	nb, bErr := strconv.ParseInt(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return na < nb
	case aErr == nil || bErr == nil:
		return aErr == nil
	default:
		return a < b
	}
}

// Window returns the points with start <= At <= end in series order.
// The returned slice is a copy; s is not modified.
func (s Series) Window(start, end time.Time) []Point {
	out := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.At.Before(start) || p.At.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Values extracts the numeric values of points in order.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func firstID(p Point) string {
	if len(p.ItemIDs) == 0 {
		return ""
	}
	return p.ItemIDs[0]
}
