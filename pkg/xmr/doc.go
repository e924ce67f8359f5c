// Package xmr implements the XmR (individuals and moving range) process
// behaviour chart engine.
//
// limits.go derives the average and natural process limits from a baseline
// series: average ± 2.66 × average moving range, with the lower limit
// zero-bounded because flow metrics are counts and cannot go negative.
//
// classify.go scans a display series for the four special-cause rules:
//
//	LargeChange    one point outside the natural process limits
//	ModerateChange 2 of 3 consecutive points beyond 2σ on the same side
//	ModerateShift  4 of 5 consecutive points beyond 1σ on the same side
//	SmallShift     8 consecutive points on the same side of the average
//
// Each lower-side rule is disabled on its own when its threshold would fall
// below zero. Comparisons are strict: a point sitting exactly on a limit,
// sigma line or the average never triggers.
//
// Calculate (xmr.go) wires both together. Every function here is pure; calls
// may run concurrently without coordination.
package xmr
