package synapse

import "fmt"

// Type is the closed set of synapse kinds.
type Type string

const (
	TypeAnomaly        Type = "anomaly"
	TypeCorrection     Type = "correction"
	TypeConfidence     Type = "confidence"
	TypeDataQuality    Type = "data_quality"
	TypeResolutionHint Type = "resolution_hint"
	TypePattern        Type = "pattern"
)

// Types lists every valid Type in declaration order.
var Types = []Type{
	TypeAnomaly,
	TypeCorrection,
	TypeConfidence,
	TypeDataQuality,
	TypeResolutionHint,
	TypePattern,
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool {
	switch t {
	case TypeAnomaly, TypeCorrection, TypeConfidence, TypeDataQuality, TypeResolutionHint, TypePattern:
		return true
	}
	return false
}

// ParseType converts a string into a Type, rejecting unknown values.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown synapse type %q", s)
	}
	return t, nil
}

// RunLevel is the component index of a synapse that describes the whole run
// rather than one sub-component.
const RunLevel = -1

// Synapse is one immutable event on the Surface.
type Synapse struct {
	Type           Type    `json:"type" yaml:"type"`
	ComponentIndex int     `json:"component_index" yaml:"component_index"`
	EntityID       string  `json:"entity_id,omitempty" yaml:"entity_id,omitempty"`
	Value          float64 `json:"value" yaml:"value"`
	Detail         string  `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Timestamp is the logical sequence number assigned on write.
	// Zero means the synapse has not been written yet.
	Timestamp int64 `json:"timestamp" yaml:"-"`
}

// IsRunLevel reports whether the synapse is not tied to a sub-component.
func (s Synapse) IsRunLevel() bool {
	return s.ComponentIndex == RunLevel
}

// ScopeKind selects which synapses a read returns.
type ScopeKind int

const (
	// ScopeRun reads every synapse of the requested type in the run.
	ScopeRun ScopeKind = iota
	// ScopeEntity reads only synapses written for one entity id.
	ScopeEntity
)

// Scope filters Surface reads.
type Scope struct {
	Kind     ScopeKind
	EntityID string
}

// RunScope returns the run-wide scope.
func RunScope() Scope {
	return Scope{Kind: ScopeRun}
}

// EntityScope returns a scope restricted to one entity.
func EntityScope(entityID string) Scope {
	return Scope{Kind: ScopeEntity, EntityID: entityID}
}

func (s Scope) String() string {
	if s.Kind == ScopeEntity {
		return "entity:" + s.EntityID
	}
	return "run"
}
