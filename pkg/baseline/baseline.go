package baseline

import (
	"fmt"
	"time"
)

// MinimumDays is the shortest span a baseline may cover.
const MinimumDays = 14

const day = 24 * time.Hour

// Result is the verdict of a baseline validation.
// ErrorMessage is empty when IsValid is true.
type Result struct {
	IsValid      bool   `json:"is_valid"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Validate checks the baseline range against the current time.
func Validate(start, end *time.Time, cutoffDays int) Result {
	return ValidateAt(start, end, cutoffDays, time.Now())
}

// ValidateAt checks the baseline range [start, end] as of now.
//
// cutoffDays is the history window the caller keeps data for; the start date
// must lie within cutoffDays-1 calendar days of now.
//
// The future check compares instants, not dates: an end later today is in
// the future even though the cutoff check counts today as day zero. Callers
// holding date-only bounds pass midnight, which is never ahead of today.
func ValidateAt(start, end *time.Time, cutoffDays int, now time.Time) Result {
	switch {
	case start == nil && end == nil:
		return valid()
	case start == nil || end == nil:
		return invalid("Baseline start and end dates must both be provided together.")
	case end.Before(*start):
		return invalid("Baseline end date must be after the start date.")
	case end.Sub(*start) < MinimumDays*day:
		return invalid(fmt.Sprintf("Baseline must span at least %d days.", MinimumDays))
	case end.After(now):
		return invalid("Baseline end date is in the future.")
	case daysBetween(*start, now) > cutoffDays-1:
		return invalid(fmt.Sprintf(
			"Baseline start date is outside the %d-day data cutoff; choose a start within the last %d days.",
			cutoffDays, cutoffDays-1))
	}
	return valid()
}

func valid() Result { return Result{IsValid: true} }

func invalid(msg string) Result { return Result{ErrorMessage: msg} }

// daysBetween counts whole calendar days from a to b, comparing UTC dates.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)) / day)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
