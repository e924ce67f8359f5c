// Package runner wires the agent together: it scrapes every chart's source,
// builds the charts, caches them, evaluates alerts and writes the output
// file. Run repeats that every refresh interval; Reload swaps in a new
// config without restarting.
package runner
