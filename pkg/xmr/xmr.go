package xmr

// Result is the output of Calculate. Average and limits come from the
// baseline only; Classifications has one entry per display point.
type Result struct {
	Average                  float64          `json:"average"`
	UpperNaturalProcessLimit float64          `json:"upper_natural_process_limit"`
	LowerNaturalProcessLimit float64          `json:"lower_natural_process_limit"`
	Classifications          []Classification `json:"classifications"`
}

// Calculate derives limits from baseline and classifies display against them.
//
// An empty baseline short-circuits to zero limits and one empty
// classification per display point. Neither input slice is modified.
func Calculate(baseline, display []float64) Result {
	if len(baseline) == 0 {
		return Result{Classifications: emptyClassifications(len(display))}
	}

	limits := ComputeLimits(baseline)
	return Result{
		Average:                  limits.Average,
		UpperNaturalProcessLimit: limits.UpperNaturalProcessLimit,
		LowerNaturalProcessLimit: limits.LowerNaturalProcessLimit,
		Classifications:          Classify(display, limits),
	}
}

// Count returns how many display points carry cause c.
func (r Result) Count(c SpecialCauseType) int {
	n := 0
	for _, cl := range r.Classifications {
		if cl.Has(c) {
			n++
		}
	}
	return n
}

func emptyClassifications(n int) []Classification {
	out := make([]Classification, n)
	for i := range out {
		out[i] = Classification{}
	}
	return out
}
