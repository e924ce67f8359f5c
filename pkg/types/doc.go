// Package types defines shared Go types used by the engine's callers: the
// series ingested by the agent and the metric kinds charts are built for.
// They are plain in-memory values, separate from any wire format.
package types
