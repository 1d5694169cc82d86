// Package resolve implements the Resolution Engine.
//
// An investigation reads the Surface for the disputed entity and walks a
// fixed root-cause state machine. The data it needs was written earlier by
// the calculation emitter and the reconciliation engine; this package never
// calls either of them.
//
// When the root cause is anything other than no_error_found, the engine
// writes a resolution_hint synapse whose detail is
// "<classification>:<action>". Investigations sharing a classification form
// a Pattern once they reach the configured minimum size.
package resolve
