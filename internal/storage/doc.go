// Package storage persists reminder records.
//
// It currently supports:
//   - sqlite: single-writer database file (the default)
//   - memory: process-local map, for tests and ephemeral runs
//
// Due and creation times are stored as sortable local wall-clock strings so
// due-time scans are plain string comparisons.
package storage
