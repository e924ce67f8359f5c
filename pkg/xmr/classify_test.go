package xmr

import (
	"reflect"
	"testing"
)

// repeat returns a slice holding v n times.
func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// cl is shorthand for building an expected Classification.
func cl(causes ...SpecialCauseType) Classification {
	if causes == nil {
		return Classification{}
	}
	return Classification(causes)
}

// alternating has average 105, moving range 10, σ ≈ 8.865:
//
//	UNPL 131.6   2σ upper ≈ 122.73   1σ upper ≈ 113.87
//	LNPL  78.4   2σ lower ≈  87.27   1σ lower ≈  96.13
var alternating = []float64{100, 110, 100, 110}

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name     string
		baseline []float64
		display  []float64
		want     []Classification
	}{
		{
			name:     "within limits, no causes",
			baseline: alternating,
			display:  []float64{104, 106, 103},
			want:     []Classification{cl(), cl(), cl()},
		},
		{
			name:     "large change above zero-range UNPL",
			baseline: []float64{10, 10, 10, 10},
			display:  []float64{50},
			want:     []Classification{cl(LargeChange)},
		},
		{
			name:     "large change below LNPL",
			baseline: alternating,
			display:  []float64{70},
			want:     []Classification{cl(LargeChange)},
		},
		{
			name:     "moderate change tags the qualifying side only",
			baseline: alternating,
			display:  []float64{125, 125, 104},
			want:     []Classification{cl(ModerateChange), cl(ModerateChange), cl()},
		},
		{
			name:     "moderate change tags non-adjacent hits",
			baseline: alternating,
			display:  []float64{125, 104, 125},
			want:     []Classification{cl(ModerateChange), cl(), cl(ModerateChange)},
		},
		{
			name:     "moderate change tags side points that did not reach 2σ",
			baseline: alternating,
			display:  []float64{125, 110, 125},
			want:     []Classification{cl(ModerateChange), cl(ModerateChange), cl(ModerateChange)},
		},
		{
			name:     "moderate change below",
			baseline: alternating,
			display:  []float64{86, 86, 106},
			want:     []Classification{cl(ModerateChange), cl(ModerateChange), cl()},
		},
		{
			name:     "opposite sides never combine",
			baseline: alternating,
			display:  []float64{125, 85, 104},
			want:     []Classification{cl(), cl(), cl()},
		},
		{
			name:     "moderate shift above",
			baseline: alternating,
			display:  []float64{115, 115, 115, 115, 100},
			want: []Classification{
				cl(ModerateShift), cl(ModerateShift), cl(ModerateShift), cl(ModerateShift), cl(),
			},
		},
		{
			name:     "moderate shift below",
			baseline: alternating,
			display:  []float64{95, 95, 110, 95, 95},
			want: []Classification{
				cl(ModerateShift), cl(ModerateShift), cl(), cl(ModerateShift), cl(ModerateShift),
			},
		},
		{
			name:     "three of five is not a shift",
			baseline: alternating,
			display:  []float64{115, 115, 115, 100, 100},
			want:     []Classification{cl(), cl(), cl(), cl(), cl()},
		},
		{
			name:     "large and moderate change reported in rank order",
			baseline: []float64{10, 10, 10, 10},
			display:  []float64{50, 50, 50},
			want: []Classification{
				cl(LargeChange, ModerateChange),
				cl(LargeChange, ModerateChange),
				cl(LargeChange, ModerateChange),
			},
		},
		{
			name:     "overlapping windows accumulate causes",
			baseline: alternating,
			display:  repeat(115, 8),
			want: []Classification{
				cl(ModerateShift, SmallShift), cl(ModerateShift, SmallShift),
				cl(ModerateShift, SmallShift), cl(ModerateShift, SmallShift),
				cl(ModerateShift, SmallShift), cl(ModerateShift, SmallShift),
				cl(ModerateShift, SmallShift), cl(ModerateShift, SmallShift),
			},
		},
		{
			name:     "display shorter than every window",
			baseline: alternating,
			display:  []float64{125, 125},
			want:     []Classification{cl(), cl()},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.display, ComputeLimits(tc.baseline))
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Classify() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassify_SmallShift(t *testing.T) {
	// average 50, UNPL 103.2, 1σ upper ≈ 67.7: 55 only trips the run rule.
	baseline := []float64{40, 60, 40, 60, 40, 60, 40, 60}

	t.Run("eight above average", func(t *testing.T) {
		got := Classify(repeat(55, 8), ComputeLimits(baseline))
		for i, c := range got {
			if !reflect.DeepEqual(c, cl(SmallShift)) {
				t.Errorf("[%d] = %v, want [SmallShift]", i, c)
			}
		}
	})

	t.Run("eight below average", func(t *testing.T) {
		got := Classify(repeat(45, 8), ComputeLimits(baseline))
		for i, c := range got {
			if !reflect.DeepEqual(c, cl(SmallShift)) {
				t.Errorf("[%d] = %v, want [SmallShift]", i, c)
			}
		}
	})

	t.Run("seven is not enough", func(t *testing.T) {
		got := Classify(repeat(55, 7), ComputeLimits(baseline))
		for i, c := range got {
			if len(c) != 0 {
				t.Errorf("[%d] = %v, want empty", i, c)
			}
		}
	})

	t.Run("point on the average breaks the run", func(t *testing.T) {
		display := []float64{55, 55, 55, 55, 50, 55, 55, 55, 55}
		got := Classify(display, ComputeLimits(baseline))
		for i, c := range got {
			if c.Has(SmallShift) {
				t.Errorf("[%d] = %v, want no SmallShift", i, c)
			}
		}
	})

	t.Run("only points inside a qualifying window", func(t *testing.T) {
		display := append([]float64{45}, repeat(55, 8)...)
		got := Classify(display, ComputeLimits(baseline))
		if got[0].Has(SmallShift) {
			t.Errorf("[0] = %v, want no SmallShift", got[0])
		}
		for i := 1; i < len(display); i++ {
			if !got[i].Has(SmallShift) {
				t.Errorf("[%d] = %v, want SmallShift", i, got[i])
			}
		}
	})
}

func TestClassify_ZeroBounding(t *testing.T) {
	// average 5, σ ≈ 8.87: every lower sigma line is negative.
	baseline := []float64{0, 10, 0, 10}

	t.Run("lower rules 1 to 3 disabled", func(t *testing.T) {
		got := Classify([]float64{0, 0, 0, 0, 0}, ComputeLimits(baseline))
		for i, c := range got {
			if len(c) != 0 {
				t.Errorf("[%d] = %v, want empty", i, c)
			}
		}
	})

	t.Run("small shift still fires below", func(t *testing.T) {
		got := Classify(repeat(1, 8), ComputeLimits(baseline))
		for i, c := range got {
			if !reflect.DeepEqual(c, cl(SmallShift)) {
				t.Errorf("[%d] = %v, want [SmallShift]", i, c)
			}
		}
	})

	t.Run("rule 3 below survives when only 3σ and 2σ are negative", func(t *testing.T) {
		// average 15, 1σ lower ≈ 6.13; 2σ lower and LNPL are negative.
		got := Classify([]float64{5, 5, 5, 5, 20}, ComputeLimits([]float64{10, 20, 10, 20}))
		want := []Classification{
			cl(ModerateShift), cl(ModerateShift), cl(ModerateShift), cl(ModerateShift), cl(),
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Classify() = %v, want %v", got, want)
		}
	})
}

func TestClassify_StrictComparisons(t *testing.T) {
	limits := ComputeLimits(alternating)

	got := Classify([]float64{limits.UpperNaturalProcessLimit, limits.LowerNaturalProcessLimit}, limits)
	for i, c := range got {
		if c.Has(LargeChange) {
			t.Errorf("[%d] on the limit = %v, want no LargeChange", i, c)
		}
	}

	twoSigma := limits.Average + 2*limits.Sigma
	got = Classify([]float64{twoSigma, twoSigma, twoSigma}, limits)
	for i, c := range got {
		if c.Has(ModerateChange) {
			t.Errorf("[%d] on the 2σ line = %v, want no ModerateChange", i, c)
		}
	}
}

func TestClassify_EmptyBaselineSkipsRules(t *testing.T) {
	got := Classify([]float64{1, 1000, 1}, Limits{})
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, c := range got {
		if c == nil || len(c) != 0 {
			t.Errorf("[%d] = %#v, want empty non-nil", i, c)
		}
	}
}
