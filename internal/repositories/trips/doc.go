// Package trips owns the canonical trip table and its dirty-state flags.
//
// # Data Model
//
// One row per (internal user, trip date). A row is inserted with is_new=1 the
// first time the pair is staged. A later import with a different kilometer
// value updates the row and sets is_modified=1 without touching is_new. Both
// flags are cleared only by Settle, after the portal accepted the entry.
// Kilometer comparison is exact.
//
// Key Types
//
//   - type Repository       : interface used by the merge engine and the orchestrator
//   - type SQLiteRepository : SQLite implementation over dbx.DBTX
package trips
