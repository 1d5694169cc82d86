// Package reconcile implements the Reconciliation Engine.
//
// The engine compares calculated results against a benchmark dataset, one
// finding per (external id, component) pair, and classifies every
// discrepancy through a fixed priority chain:
//
//  1. present on one side only     -> scope_mismatch   (0.9)
//  2. |delta| <= tolerance         -> match            (1.0)
//  3. |delta| < 1.0                -> rounding         (0.9)
//  4. data_quality synapse         -> data_divergence  (0.75)
//  5. anomaly mentioning boundary  -> logic_divergence (0.7)
//  6. traces exist and delta > 5%  -> data_divergence  (0.6)
//  7. otherwise                    -> unclassified     (0.3)
//
// Steps 4-6 consult the Surface for the entity. Every finding that is not a
// match or rounding difference becomes a correction synapse whose detail is
// "<classification>:delta=<delta>"; the resolution engine reads those later
// without this package ever calling it.
//
// Missing or unmatched inputs are findings, not errors. Reconcile never fails.
package reconcile
