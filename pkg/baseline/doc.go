// Package baseline validates the date range chosen as a process behaviour
// chart's reference period.
//
// Validate checks, in order: both dates absent (valid, caller falls back to
// an implicit baseline), only one date present, end before start, span
// shorter than MinimumDays, end in the future, and start older than the
// cutoff window. The first failing rule determines the message. Validation
// never errors; the verdict is always returned as a Result value.
package baseline
