package alerts

import (
	"strconv"
	"strings"

	"github.com/flowpulse/flowpulse/agent/internal/chart"
	"github.com/flowpulse/flowpulse/pkg/xmr"
)

// evalCondition evaluates a rule condition string against a chart.
//
// Supported expressions (field operator value):
//
//	large_change >= 1
//	moderate_change >= 2
//	moderate_shift > 0
//	small_shift >= 8
//	special_causes > 3
//	latest_causes > 0
//	average < 5
//	unpl > 40
//	lnpl == 0
//	status == baseline_invalid
//
// Cause and limit fields only fire on ready charts.
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, c *chart.Chart) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "status" {
		if op == "==" {
			return string(c.Status) == rhs, 0
		}
		if op == "!=" {
			return string(c.Status) != rhs, 0
		}
		return false, 0
	}

	if !c.Ready() {
		return false, 0
	}
	v, ok := numericField(field, c)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// causeFields maps condition fields to the cause whose points they count.
var causeFields = map[string]xmr.SpecialCauseType{
	"large_change":    xmr.LargeChange,
	"moderate_change": xmr.ModerateChange,
	"moderate_shift":  xmr.ModerateShift,
	"small_shift":     xmr.SmallShift,
}

// numericField maps a field name to its value in the chart.
func numericField(field string, c *chart.Chart) (float64, bool) {
	if cause, ok := causeFields[field]; ok {
		return float64(c.Count(cause)), true
	}

	switch field {
	case "special_causes":
		return float64(c.SpecialCausePoints()), true
	case "latest_causes":
		dp, ok := c.Latest()
		if !ok {
			return 0, true
		}
		return float64(len(dp.SpecialCauses)), true
	case "average":
		return c.Average, true
	case "unpl":
		return c.UpperNaturalProcessLimit, true
	case "lnpl":
		return c.LowerNaturalProcessLimit, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
