// Package repositories implements SQLite persistence for the import-run journal.
//
// [RunRepository] stores one row per importer invocation plus the row-level
// problems recorded during it, so past runs stay reviewable after the
// process exits.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42)
// independent of UUIDs and creation timestamps. The [NextSequence] function
// atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
