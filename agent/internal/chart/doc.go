// Package chart turns a chart's series and baseline settings into a process
// behaviour chart.
//
// chart.go provides the pure Build(Request, now) function. It resolves the
// baseline window (explicit, implicit, or missing), validates it, slices the
// baseline and display points out of the series and runs the XmR engine.
// Charts that cannot be drawn carry a Status explaining why:
// ready, baseline_missing, baseline_invalid or insufficient_data.
//
// engine.go provides the stateful Engine that remembers the previous chart per
// ID, logs status transitions and newly detected special causes, and fans out
// builds across a bounded number of goroutines.
package chart
