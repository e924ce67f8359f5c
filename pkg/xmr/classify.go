package xmr

// Window sizes and hit counts for the run rules.
const (
	moderateChangeWindow = 3
	moderateChangeHits   = 2

	moderateShiftWindow = 5
	moderateShiftHits   = 4

	smallShiftWindow = 8
)

// runRule describes a "k of n beyond a threshold" rule. When a window
// qualifies on one side, every point in the window strictly on that side of
// the average is tagged.
type runRule struct {
	cause      SpecialCauseType
	window     int
	hits       int
	upper      float64
	lower      float64
	lowerValid bool
}

// Classify evaluates the special-cause rules for every point in display
// against limits. The result has exactly one Classification per display
// point, in display order; a point without causes gets an empty, non-nil
// Classification.
//
// If limits came from an empty baseline no rule runs.
func Classify(display []float64, limits Limits) []Classification {
	out := make([]Classification, len(display))
	if limits.BaselineSize == 0 {
		for i := range out {
			out[i] = Classification{}
		}
		return out
	}

	sets := make([]causeSet, len(display))
	th := limits.thresholds()

	applyLargeChange(display, limits, sets)
	applyRunRule(display, limits.Average, sets, runRule{
		cause:      ModerateChange,
		window:     moderateChangeWindow,
		hits:       moderateChangeHits,
		upper:      th.twoSigmaUpper,
		lower:      th.twoSigmaLower,
		lowerValid: limits.LowerRuleValidity.Rule2,
	})
	applyRunRule(display, limits.Average, sets, runRule{
		cause:      ModerateShift,
		window:     moderateShiftWindow,
		hits:       moderateShiftHits,
		upper:      th.oneSigmaUpper,
		lower:      th.oneSigmaLower,
		lowerValid: limits.LowerRuleValidity.Rule3,
	})
	applySmallShift(display, limits.Average, sets)

	for i, s := range sets {
		out[i] = s.sorted()
	}
	return out
}

// applyLargeChange tags single points outside the natural process limits.
func applyLargeChange(values []float64, limits Limits, sets []causeSet) {
	for i, v := range values {
		above := v > limits.UpperNaturalProcessLimit
		below := limits.LowerRuleValidity.Rule1 && v < limits.LowerNaturalProcessLimit
		if above || below {
			sets[i].add(LargeChange)
		}
	}
}

// applyRunRule slides a window of r.window points across values. Above and
// below are counted separately; hits on opposite sides never combine.
func applyRunRule(values []float64, average float64, sets []causeSet, r runRule) {
	for start := 0; start+r.window <= len(values); start++ {
		end := start + r.window

		if countAbove(values[start:end], r.upper) >= r.hits {
			markAbove(values, start, end, average, sets, r.cause)
		}
		if r.lowerValid && countBelow(values[start:end], r.lower) >= r.hits {
			markBelow(values, start, end, average, sets, r.cause)
		}
	}
}

// applySmallShift tags runs of eight points strictly on one side of the
// average. A point equal to the average breaks every window containing it.
func applySmallShift(values []float64, average float64, sets []causeSet) {
	for start := 0; start+smallShiftWindow <= len(values); start++ {
		end := start + smallShiftWindow
		if !sameSide(values[start:end], average) {
			continue
		}
		for j := start; j < end; j++ {
			sets[j].add(SmallShift)
		}
	}
}

func sameSide(window []float64, average float64) bool {
	allAbove, allBelow := true, true
	for _, v := range window {
		if v <= average {
			allAbove = false
		}
		if v >= average {
			allBelow = false
		}
	}
	return allAbove || allBelow
}

func countAbove(window []float64, threshold float64) int {
	n := 0
	for _, v := range window {
		if v > threshold {
			n++
		}
	}
	return n
}

func countBelow(window []float64, threshold float64) int {
	n := 0
	for _, v := range window {
		if v < threshold {
			n++
		}
	}
	return n
}

func markAbove(values []float64, start, end int, average float64, sets []causeSet, c SpecialCauseType) {
	for j := start; j < end; j++ {
		if values[j] > average {
			sets[j].add(c)
		}
	}
}

func markBelow(values []float64, start, end int, average float64, sets []causeSet, c SpecialCauseType) {
	for j := start; j < end; j++ {
		if values[j] < average {
			sets[j].add(c)
		}
	}
}
