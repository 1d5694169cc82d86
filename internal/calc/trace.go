// Package calc holds the contracts of the calculation collaborators the
// engines consume: execution traces, calculated results and the run summary.
//
// Nothing here performs a calculation. The types describe what an upstream
// calculator hands to the coordination layer, plus the helpers a batch
// orchestrator uses to turn that output into Surface synapses and a summary.
package calc

// Result is one calculated outcome for an entity component.
type Result struct {
	EntityID       string  `json:"entity_id" yaml:"entity_id"`
	ExternalID     string  `json:"external_id" yaml:"external_id"`
	ComponentIndex int     `json:"component_index" yaml:"component_index"`
	Value          float64 `json:"value" yaml:"value"`
}

// Boundary is the band a lookup resolved into along one axis.
type Boundary struct {
	Min          float64 `json:"min" yaml:"min"`
	Max          float64 `json:"max" yaml:"max"`
	MatchedIndex int     `json:"matched_index" yaml:"matched_index"`

	// Value is the lookup key that was resolved, when the calculator
	// recorded it.
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// OnEdge reports whether the resolved value sits exactly on the band's
// minimum or maximum.
func (b *Boundary) OnEdge() bool {
	if b == nil || b.Value == nil {
		return false
	}
	return *b.Value == b.Min || *b.Value == b.Max
}

// LookupResolution records how a tiered lookup was resolved.
type LookupResolution struct {
	Row    *Boundary `json:"row,omitempty" yaml:"row,omitempty"`
	Column *Boundary `json:"column,omitempty" yaml:"column,omitempty"`
}

// BoundaryMatch reports whether a row or column boundary was recorded.
func (l *LookupResolution) BoundaryMatch() bool {
	return l != nil && (l.Row != nil || l.Column != nil)
}

// OnEdge reports whether either axis resolved exactly on a band edge.
func (l *LookupResolution) OnEdge() bool {
	return l != nil && (l.Row.OnEdge() || l.Column.OnEdge())
}

// ExecutionTrace is the calculator's record of how one component outcome
// was produced for one entity.
type ExecutionTrace struct {
	EntityID       string            `json:"entity_id" yaml:"entity_id"`
	ComponentIndex int               `json:"component_index" yaml:"component_index"`
	ComponentName  string            `json:"component_name,omitempty" yaml:"component_name,omitempty"`
	Inputs         Inputs            `json:"inputs" yaml:"inputs"`
	Outcome        float64           `json:"outcome" yaml:"outcome"`
	Confidence     float64           `json:"confidence" yaml:"confidence"`
	Lookup         *LookupResolution `json:"lookup,omitempty" yaml:"lookup,omitempty"`
}

// TraceIndex maps an internal entity id to its execution traces.
type TraceIndex map[string][]ExecutionTrace

// IndexTraces groups traces by entity id in a single pass, keeping input
// order within each entity.
func IndexTraces(traces []ExecutionTrace) TraceIndex {
	ix := make(TraceIndex)
	for _, tr := range traces {
		ix[tr.EntityID] = append(ix[tr.EntityID], tr)
	}
	return ix
}

// For returns the traces recorded for entityID.
func (ix TraceIndex) For(entityID string) []ExecutionTrace {
	return ix[entityID]
}

// Has reports whether any trace exists for entityID.
func (ix TraceIndex) Has(entityID string) bool {
	return len(ix[entityID]) > 0
}
