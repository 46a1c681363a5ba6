// Package store provides the SQLite-backed run archive.
//
// The archive holds two things:
//   - Snapshots: bound survey datasets keyed by run label, the source of
//     historical and series comparison charts
//   - Runs: one record per successful run, in completion order
//
// Writes happen once per run, after every pass has succeeded, inside a single
// transaction (Archive). A failed run therefore never leaves a partial
// snapshot behind.
//
// # Determinism
//
// Snapshot rows keep their original order (idx) and every listing has an
// explicit ORDER BY. Lists of strings are stored as canonical JSON produced
// by ir.MarshalCanonical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity (row cascade)
package store
