package baseline

import (
	"strings"
	"testing"
	"time"
)

// now is a fixed reference point so all test dates are deterministic.
var now = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

// daysAgo returns a pointer to now shifted back by n days.
func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func at(t time.Time) *time.Time { return &t }

func TestValidateAt(t *testing.T) {
	tests := []struct {
		name      string
		start     *time.Time
		end       *time.Time
		cutoff    int
		wantValid bool
		wantMsg   string // substring; ignored when valid
	}{
		{"both absent", nil, nil, 180, true, ""},
		{"only start", daysAgo(30), nil, 180, false, "both"},
		{"only end", nil, daysAgo(1), 180, false, "both"},
		{"end before start", daysAgo(10), daysAgo(30), 180, false, "after the start"},
		{"span of 13 days", daysAgo(20), daysAgo(7), 180, false, "14 days"},
		{"span of exactly 14 days", daysAgo(21), daysAgo(7), 180, true, ""},
		{"same day", daysAgo(5), daysAgo(5), 180, false, "14 days"},
		{"end in the future", daysAgo(20), daysAgo(-1), 180, false, "future"},
		{"end exactly now", daysAgo(20), daysAgo(0), 180, true, ""},
		{"end later today", daysAgo(20), at(now.Add(time.Hour)), 180, false, "future"},
		{"end at today's midnight", daysAgo(20), at(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)), 180, true, ""},
		{"start at cutoff boundary", daysAgo(179), daysAgo(1), 180, true, ""},
		{"start one day past cutoff", daysAgo(180), daysAgo(1), 180, false, "cutoff"},
		{"start far past cutoff", daysAgo(200), daysAgo(180), 180, false, "cutoff"},
		{"short cutoff", daysAgo(30), daysAgo(16), 30, true, ""},
		{"short cutoff exceeded", daysAgo(30), daysAgo(16), 20, false, "cutoff"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ValidateAt(tc.start, tc.end, tc.cutoff, now)

			if got.IsValid != tc.wantValid {
				t.Fatalf("IsValid = %v, want %v (msg=%q)", got.IsValid, tc.wantValid, got.ErrorMessage)
			}
			if tc.wantValid {
				if got.ErrorMessage != "" {
					t.Errorf("ErrorMessage = %q, want empty", got.ErrorMessage)
				}
				return
			}
			if !strings.Contains(got.ErrorMessage, tc.wantMsg) {
				t.Errorf("ErrorMessage = %q, want it to mention %q", got.ErrorMessage, tc.wantMsg)
			}
		})
	}
}

func TestValidateAt_FirstRuleWins(t *testing.T) {
	// End before start and in the future: the ordering rule reports first.
	got := ValidateAt(daysAgo(-40), daysAgo(-30), 180, now)
	if !strings.Contains(got.ErrorMessage, "after the start") {
		t.Errorf("ErrorMessage = %q, want end-before-start message", got.ErrorMessage)
	}

	// Too short and past the cutoff: the length rule reports first.
	got = ValidateAt(daysAgo(400), daysAgo(395), 180, now)
	if !strings.Contains(got.ErrorMessage, "14 days") {
		t.Errorf("ErrorMessage = %q, want minimum-length message", got.ErrorMessage)
	}
}

func TestValidateAt_CutoffUsesCalendarDates(t *testing.T) {
	// Start late on the boundary day still counts as 179 calendar days back.
	start := time.Date(2025, 9, 17, 23, 59, 0, 0, time.UTC)
	end := now.AddDate(0, 0, -1)
	if got := ValidateAt(&start, &end, 180, now); !got.IsValid {
		t.Errorf("IsValid = false (%q), want true", got.ErrorMessage)
	}

	early := time.Date(2025, 9, 16, 23, 59, 0, 0, time.UTC)
	if got := ValidateAt(&early, &end, 180, now); got.IsValid {
		t.Error("IsValid = true, want false one calendar day past the cutoff")
	}
}

func TestValidate_UsesWallClock(t *testing.T) {
	start := time.Now().UTC().AddDate(0, 0, -179)
	end := time.Now().UTC().AddDate(0, 0, -1)
	if got := Validate(&start, &end, 180); !got.IsValid {
		t.Errorf("Validate() = %+v, want valid", got)
	}

	start = time.Now().UTC().AddDate(0, 0, -200)
	end = time.Now().UTC().AddDate(0, 0, -180)
	got := Validate(&start, &end, 180)
	if got.IsValid || !strings.Contains(got.ErrorMessage, "cutoff") {
		t.Errorf("Validate() = %+v, want cutoff failure", got)
	}
}
