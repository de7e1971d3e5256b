// Package repositories implements SQLite persistence for the scan history journal.
//
// Key Implementations:
//   - [ScanRepository] : append-only journal of finished pipeline runs with soft deletes
//
// The journal is written after a run ends and is only read by history commands; the lookup path never consults it.
//
// Sequence numbers provide stable, human-readable ordering (e.g., scan #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
