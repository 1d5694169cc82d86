// Package batch orchestrates one calculation batch through the engines.
//
// The Runner owns a fresh Surface per run and hands it to each engine in
// turn: reconciliation (emitting each entity's trace synapses as it is
// reached, with inline insight checks at checkpoints), one investigation
// per dispute, pattern detection and the full analysis. The engines never call each other; the Runner is the only
// code that knows all of them.
package batch
