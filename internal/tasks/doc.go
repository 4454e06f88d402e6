// Package tasks orchestrates the batch operations that keep the directory's
// content store consistent, with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] exposes four operations:
//
//  1. [Engine.Import] : CSV rows into member documents
//     - Resolves free-text countries against canonical records
//     - Accumulates row-level problems without aborting the run
//     - Commits documents in fixed-size atomic batches
//     - Dry-run mode performs every step except the commit
//
//  2. [Engine.WipeMembers] / [Engine.WipeMemberships] : bulk removal
//     - Optionally restricted to never-published submissions
//     - Inbound references are unset or filtered before deletion
//
//  3. [Engine.NormalizeRegions] : collapse regions onto the canonical six
//     - Upserts canonical documents by stable ID
//     - Rewrites references from synonym regions, preserving array keys
//
//  4. [Engine.TagGroup] : append action-group references by member name
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default
// to prevent blocking.
//
// # Failure Model
//
// Row-level data problems are accumulated and reported; they never stop a
// run. A failed transaction commit is terminal: nothing is retried, and
// already-committed batches stay committed.
package tasks
