// Package harness runs batch scenarios end to end and checks their outcomes.
//
// A scenario is a YAML file holding one batch (benchmark, calculated results,
// execution traces, disputes, optional pre-known signals and summary), any
// threshold overrides, and a set of expectations. Run executes the batch
// through batch.Runner against a fresh in-memory store with sequential ids,
// reads each persona view back from the store, and evaluates the
// expectations. Identical scenarios therefore produce identical outcomes,
// which is what makes golden snapshots possible.
//
// # Scenario Format
//
//	name: five_entity_batch
//	description: One entity per reconciliation path.
//	config:                      # optional threshold overrides
//	  resolution:
//	    pattern_min_members: 2
//	batch:
//	  tenant_id: T1
//	  benchmark:
//	    - { external_id: X1, expected: 100 }
//	  calculated:
//	    - { entity_id: E1, external_id: X1, value: 100 }
//	  traces:
//	    - entity_id: E1
//	      inputs: { attainment: 100 }
//	      outcome: 100
//	      confidence: 0.95
//	  disputes:
//	    - { dispute_id: D1, entity_id: E1, disputed_amount: 5 }
//	expect:
//	  classifications: { match: 1 }
//	  root_causes: { D1: no_error_found }
//	  synapses: { confidence: 1 }
//	  personas:
//	    rep: { insights: 1, summary: false }
//
// Unknown keys are rejected, as are class, type and persona names outside
// their closed sets. Expectations that are not set are not checked.
//
// # Golden Snapshots
//
// Snapshot renders the behaviour-bearing parts of a result as text.
// RunWithGolden compares it with testdata/golden/{name}.golden; regenerate
// with:
//
//	go test ./internal/harness -update
package harness
