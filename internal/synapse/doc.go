// Package synapse defines the immutable event record shared by every engine
// through the Surface.
//
// A Synapse is written once and never mutated or deleted. Engines cooperate
// only by writing synapses and reading the synapses other engines wrote; they
// never call each other.
//
// # Detail Grammar
//
// The free-text Detail field carries two structured payloads whose rendering
// other systems depend on byte-for-byte:
//
//   - Correction:     "<classification>:delta=<n>"
//   - ResolutionHint: "<classification>:<action>"
//
// Use the Correction and Hint types to build and parse these strings rather
// than formatting them by hand. No other grammar is defined; readers must treat
// any other detail text as opaque.
//
// # Ordering
//
// Timestamps are logical sequence numbers assigned by the Surface on write,
// never wall-clock time.
package synapse
