// Package surface implements the shared, append-indexed event store that the
// reconciliation, resolution and insight engines coordinate through.
//
// ARCHITECTURE:
//
// One Surface per calculation run. The batch orchestrator creates it, hands it
// by reference to each engine in turn, and discards it when the run ends.
// Surfaces are never shared across runs or tenants; there is no package-level
// instance.
//
// Writes are O(1): the synapse is appended to the log, its index is appended
// to the per-type and per-(type, entity) index slices, and Stats counters are
// bumped in place. Stats are never recomputed by scanning.
//
// Reads by type and scope are O(k) in the number of matching synapses.
//
// CONCURRENCY:
//
// A Surface is not safe for unsynchronized concurrent writers. The design
// presumes a single writer at a time; the orchestrator serializes engine
// invocations so that earlier writes are visible to later readers.
//
// DENSITY MAP:
//
// The density map is keyed by an opaque pattern signature (see
// synapse.Signature) and records an exponentially weighted confidence for that
// pattern. It can be seeded from a previous run and snapshotted at the end of
// this one, which is how learning carries across runs.
package surface
