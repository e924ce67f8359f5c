package chart

import (
	"time"

	"github.com/flowpulse/flowpulse/pkg/baseline"
	"github.com/flowpulse/flowpulse/pkg/types"
	"github.com/flowpulse/flowpulse/pkg/xmr"
)

// Status explains whether a chart could be drawn.
type Status string

const (
	StatusReady            Status = "ready"
	StatusBaselineMissing  Status = "baseline_missing"
	StatusBaselineInvalid  Status = "baseline_invalid"
	StatusInsufficientData Status = "insufficient_data"
)

// Reasons reported for charts that are not ready.
const (
	ReasonBaselineMissing = "No baseline is configured."
	ReasonNoDisplayData   = "No data points in the display window."
	ReasonNoBaselineData  = "Not enough data points in the baseline window."
)

// Request holds everything Build needs for one chart.
type Request struct {
	ID     string
	Metric types.Metric
	Points []types.Point

	// DisplayDays is the length of the display window ending at now.
	DisplayDays int
	// CutoffDays bounds how far back a baseline may start.
	CutoffDays int

	BaselineStart *time.Time
	BaselineEnd   *time.Time
	// ImplicitBaseline uses the display window as baseline when neither
	// baseline date is set.
	ImplicitBaseline bool
}

// Chart is a built process behaviour chart.
type Chart struct {
	ID                       string          `json:"id"`
	Metric                   types.Metric    `json:"metric"`
	Status                   Status          `json:"status"`
	StatusReason             string          `json:"status_reason,omitempty"`
	XAxisKind                types.XAxisKind `json:"x_axis_kind"`
	Average                  float64         `json:"average"`
	UpperNaturalProcessLimit float64         `json:"upper_natural_process_limit"`
	LowerNaturalProcessLimit float64         `json:"lower_natural_process_limit"`
	BaselineConfigured       bool            `json:"baseline_configured"`
	DataPoints               []DataPoint     `json:"data_points"`
	BuiltAt                  time.Time       `json:"built_at"`
}

// DataPoint is one display point with the causes it triggered.
type DataPoint struct {
	// X is At formatted for the chart's axis kind.
	X             string             `json:"x"`
	At            time.Time          `json:"at"`
	Value         float64            `json:"value"`
	SpecialCauses xmr.Classification `json:"special_causes"`
	ItemIDs       []string           `json:"item_ids,omitempty"`
}

// Ready reports whether the chart has limits and data points.
func (c *Chart) Ready() bool { return c.Status == StatusReady }

// Count returns how many data points carry cause.
func (c *Chart) Count(cause xmr.SpecialCauseType) int {
	n := 0
	for _, dp := range c.DataPoints {
		if dp.SpecialCauses.Has(cause) {
			n++
		}
	}
	return n
}

// SpecialCausePoints returns how many data points carry any cause.
func (c *Chart) SpecialCausePoints() int {
	n := 0
	for _, dp := range c.DataPoints {
		if len(dp.SpecialCauses) > 0 {
			n++
		}
	}
	return n
}

// Latest returns the last data point, or false when there is none.
func (c *Chart) Latest() (DataPoint, bool) {
	if len(c.DataPoints) == 0 {
		return DataPoint{}, false
	}
	return c.DataPoints[len(c.DataPoints)-1], true
}

// Build resolves the baseline for req, validates it and classifies the
// display window. It never fails: problems are reported through Status.
//
// now is passed explicitly so callers (and tests) control the clock.
func Build(req Request, now time.Time) *Chart {
	out := &Chart{
		ID:         req.ID,
		Metric:     req.Metric,
		XAxisKind:  req.Metric.XAxis(),
		DataPoints: []DataPoint{},
		BuiltAt:    now,
	}

	displayStart := now.AddDate(0, 0, -req.DisplayDays)
	displayEnd := now

	start, end := req.BaselineStart, req.BaselineEnd
	out.BaselineConfigured = start != nil || end != nil
	if !out.BaselineConfigured {
		if !req.ImplicitBaseline {
			return notReady(out, StatusBaselineMissing, ReasonBaselineMissing)
		}
		start, end = &displayStart, &displayEnd
	}

	if v := baseline.ValidateAt(start, end, req.CutoffDays, now); !v.IsValid {
		return notReady(out, StatusBaselineInvalid, v.ErrorMessage)
	}

	series := types.Series{ID: req.ID, Metric: req.Metric, Points: usablePoints(req)}
	series.Sort()

	display := series.Window(displayStart, displayEnd)
	if len(display) == 0 {
		return notReady(out, StatusInsufficientData, ReasonNoDisplayData)
	}
	base := series.Window(*start, endOfDay(*end))
	if len(base) == 0 {
		return notReady(out, StatusInsufficientData, ReasonNoBaselineData)
	}

	res := xmr.Calculate(types.Values(base), types.Values(display))

	out.Status = StatusReady
	out.Average = res.Average
	out.UpperNaturalProcessLimit = res.UpperNaturalProcessLimit
	out.LowerNaturalProcessLimit = res.LowerNaturalProcessLimit
	out.DataPoints = make([]DataPoint, len(display))
	for i, p := range display {
		out.DataPoints[i] = DataPoint{
			X:             formatX(p.At, out.XAxisKind),
			At:            p.At,
			Value:         p.Value,
			SpecialCauses: res.Classifications[i],
			ItemIDs:       p.ItemIDs,
		}
	}
	return out
}

func notReady(c *Chart, status Status, reason string) *Chart {
	c.Status = status
	c.StatusReason = reason
	return c
}

// usablePoints drops observations that cannot be charted for the metric.
// Feature sizes of zero mean "not estimated" and are ignored.
func usablePoints(req Request) []types.Point {
	out := make([]types.Point, 0, len(req.Points))
	for _, p := range req.Points {
		if req.Metric == types.MetricFeatureSize && p.Value <= 0 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// endOfDay extends a date-only bound to cover the whole day.
func endOfDay(t time.Time) time.Time {
	if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
		return t
	}
	return t.Add(24*time.Hour - time.Nanosecond)
}

func formatX(t time.Time, kind types.XAxisKind) string {
	if kind == types.XAxisDateTime {
		return t.UTC().Format("2006-01-02T15:04:05")
	}
	return t.UTC().Format(time.DateOnly)
}
