package export

import (
	"fmt"
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
	"github.com/flowpulse/flowpulse/pkg/xmr"
)

// Exported metric family names.
const (
	MetricAverage            = "flowpulse_chart_average"
	MetricUpperLimit         = "flowpulse_chart_upper_natural_process_limit"
	MetricLowerLimit         = "flowpulse_chart_lower_natural_process_limit"
	MetricReady              = "flowpulse_chart_ready"
	MetricSpecialCausePoints = "flowpulse_chart_special_cause_points"
)

// Families converts charts into gauge metric families. Limits and cause
// counts are only emitted for ready charts; readiness is emitted for all.
func Families(charts []*chart.Chart) []*dto.MetricFamily {
	var (
		average = family(MetricAverage, "Average of the chart's baseline.")
		upper   = family(MetricUpperLimit, "Upper natural process limit.")
		lower   = family(MetricLowerLimit, "Lower natural process limit, zero-bounded.")
		ready   = family(MetricReady, "1 if the chart has limits, 0 otherwise.")
		causes  = family(MetricSpecialCausePoints, "Display points carrying each special cause.")
	)

	for _, c := range charts {
		labels := chartLabels(c)

		readyValue := 0.0
		if c.Ready() {
			readyValue = 1
		}
		ready.Metric = append(ready.Metric, gauge(labels, readyValue))

		if !c.Ready() {
			continue
		}
		average.Metric = append(average.Metric, gauge(labels, c.Average))
		upper.Metric = append(upper.Metric, gauge(labels, c.UpperNaturalProcessLimit))
		lower.Metric = append(lower.Metric, gauge(labels, c.LowerNaturalProcessLimit))
		for _, cause := range xmr.AllCauses {
			causeLabels := append([]*dto.LabelPair{label("cause", cause.String())}, labels...)
			causes.Metric = append(causes.Metric, gauge(causeLabels, float64(c.Count(cause))))
		}
	}

	out := make([]*dto.MetricFamily, 0, 5)
	for _, mf := range []*dto.MetricFamily{average, upper, lower, ready, causes} {
		if len(mf.Metric) > 0 {
			out = append(out, mf)
		}
	}
	return out
}

// WritePrometheus encodes charts in the Prometheus text exposition format.
func WritePrometheus(w io.Writer, charts []*chart.Chart) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range Families(charts) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("export: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func family(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

// chartLabels returns the chart's labels sorted by name.
func chartLabels(c *chart.Chart) []*dto.LabelPair {
	return []*dto.LabelPair{
		label("chart", c.ID),
		label("metric", string(c.Metric)),
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
