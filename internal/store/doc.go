// Package store provides SQLite-backed persistence for batch runs.
//
// A run is saved once, in a single transaction:
//   - batches: one row per batch id, ordered by insertion seq
//   - synapses: the run's Surface log, keyed by (batch_id, seq)
//   - reconciliation_reports, investigations, resolution_patterns and
//     analyses: engine outputs stored as JSON documents
//
// Density records outlive runs. They are keyed by (tenant_id, signature)
// and upserted after every run so the next run for the tenant starts from
// what earlier runs learned.
//
// # Ordering
//
// All ordering uses logical sequence numbers, never wall time. Synapses
// are read back ORDER BY seq ASC; batches ORDER BY their insertion seq.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability and performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: rows are removed with their batch
package store
