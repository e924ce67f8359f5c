// Package store keeps the latest built chart per chart ID in memory. It is a
// thread-safe cache with TTL eviction, so charts whose source stops
// answering drop out of the output instead of being served forever.
package store
