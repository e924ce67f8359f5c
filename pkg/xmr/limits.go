package xmr

import "math"

// Individuals-chart constants. MovingRangeConstant is d2 for subgroups of
// two; LimitMultiplier is 3/d2 rounded as published in the XmR literature.
const (
	MovingRangeConstant = 1.128
	LimitMultiplier     = 2.66
)

// LowerRuleValidity records, per rule, whether the lower-side threshold is
// drawn. A threshold below zero is not drawn and its rule is skipped on the
// lower side. Rule 4 compares against the average only and is never gated.
type LowerRuleValidity struct {
	Rule1 bool // 3σ lower (the raw LNPL)
	Rule2 bool // 2σ lower
	Rule3 bool // 1σ lower
}

// Limits holds the statistics derived from a baseline series.
type Limits struct {
	Average                  float64
	UpperNaturalProcessLimit float64
	// LowerNaturalProcessLimit is zero-bounded; it is never negative.
	LowerNaturalProcessLimit float64

	// MovingRangeAverage is the mean absolute difference between
	// consecutive baseline values. Sigma = MovingRangeAverage / 1.128.
	MovingRangeAverage float64
	Sigma              float64

	LowerRuleValidity LowerRuleValidity

	// BaselineSize is the number of baseline values the limits came from.
	// Zero means no baseline; classification is skipped entirely.
	BaselineSize int
}

// ComputeLimits derives the average and natural process limits from baseline.
//
// An empty baseline yields all-zero limits with every lower rule disabled.
// A single value yields UNPL = LNPL = average since there is no moving range.
func ComputeLimits(baseline []float64) Limits {
	if len(baseline) == 0 {
		return Limits{}
	}

	average := mean(baseline)

	var mrBar float64
	if len(baseline) > 1 {
		var total float64
		for i := 1; i < len(baseline); i++ {
			total += math.Abs(baseline[i] - baseline[i-1])
		}
		mrBar = total / float64(len(baseline)-1)
	}

	sigma := mrBar / MovingRangeConstant
	rawUNPL := average + LimitMultiplier*mrBar
	rawLNPL := average - LimitMultiplier*mrBar

	lnpl := rawLNPL
	if lnpl < 0 {
		lnpl = 0
	}

	return Limits{
		Average:                  average,
		UpperNaturalProcessLimit: rawUNPL,
		LowerNaturalProcessLimit: lnpl,
		MovingRangeAverage:       mrBar,
		Sigma:                    sigma,
		LowerRuleValidity: LowerRuleValidity{
			Rule1: rawLNPL >= 0,
			Rule2: average-2*sigma >= 0,
			Rule3: average-sigma >= 0,
		},
		BaselineSize: len(baseline),
	}
}

// thresholds are the sigma lines used by rules 2 and 3.
type thresholds struct {
	oneSigmaUpper, oneSigmaLower float64
	twoSigmaUpper, twoSigmaLower float64
}

func (l Limits) thresholds() thresholds {
	return thresholds{
		oneSigmaUpper: l.Average + l.Sigma,
		oneSigmaLower: l.Average - l.Sigma,
		twoSigmaUpper: l.Average + 2*l.Sigma,
		twoSigmaLower: l.Average - 2*l.Sigma,
	}
}

func mean(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
