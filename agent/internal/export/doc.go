// Package export renders built charts for consumers outside the agent.
//
// Two formats are supported. "prometheus" emits one gauge family per chart
// figure (average, limits, readiness, special cause counts) in the text
// exposition format, so a textfile collector or any scraper can pick them up.
// "json" emits a snapshot with every chart and its data points.
//
// WriteFile replaces the output file atomically.
package export
