package resolve

import (
	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// RootCauseClass is the closed set of root-cause classifications.
type RootCauseClass string

const (
	CauseDataError               RootCauseClass = "data_error"
	CauseBoundaryEdge            RootCauseClass = "boundary_edge"
	CauseLogicError              RootCauseClass = "logic_error"
	CauseInterpretationAmbiguity RootCauseClass = "interpretation_ambiguity"
	CauseNoErrorFound            RootCauseClass = "no_error_found"
)

// RootCauseClasses lists every class in state-machine order.
var RootCauseClasses = []RootCauseClass{
	CauseDataError,
	CauseBoundaryEdge,
	CauseLogicError,
	CauseInterpretationAmbiguity,
	CauseNoErrorFound,
}

// Valid reports whether c is a declared class.
func (c RootCauseClass) Valid() bool {
	switch c {
	case CauseDataError, CauseBoundaryEdge, CauseLogicError, CauseInterpretationAmbiguity, CauseNoErrorFound:
		return true
	}
	return false
}

// Action is the closed set of recommended dispute actions.
type Action string

const (
	ActionApproveAdjustment  Action = "approve_adjustment"
	ActionRequestData        Action = "request_data"
	ActionEscalateToHuman    Action = "escalate_to_human"
	ActionRejectWithEvidence Action = "reject_with_evidence"
)

// Root-cause confidences, one per state-machine branch.
const (
	ConfidenceDataQuality       = 0.8
	ConfidenceCorrection        = 0.85
	ConfidenceBoundaryEdge      = 0.75
	ConfidenceLogicError        = 0.6
	ConfidenceAmbiguity         = 0.6
	ConfidenceTracesOnly        = 0.5
	ConfidenceNoEvidence        = 0.3
	lowConfidenceSynapseCeiling = 0.7
)

// Evidence sources cited by investigations.
const (
	SourceDataQuality    = "surface.data_quality"
	SourceCorrection     = "surface.correction"
	SourceAnomaly        = "surface.anomaly"
	SourceConfidence     = "surface.confidence"
	SourceExecutionTrace = "execution_trace"
	SourceDispute        = "dispute_context"
)

// DefaultPatternMinMembers is how many investigations must share a root
// cause before they form a pattern.
const DefaultPatternMinMembers = 3

// DisputeContext identifies one contested outcome.
type DisputeContext struct {
	DisputeID      string  `json:"dispute_id" yaml:"dispute_id"`
	TenantID       string  `json:"tenant_id,omitempty" yaml:"tenant_id,omitempty"`
	BatchID        string  `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	EntityID       string  `json:"entity_id" yaml:"entity_id"`
	ExternalID     string  `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Category       string  `json:"category,omitempty" yaml:"category,omitempty"`
	DisputedAmount float64 `json:"disputed_amount" yaml:"disputed_amount"`
}

// Evidence is one observation supporting a root cause.
type Evidence struct {
	Source         string `json:"source"`
	Description    string `json:"description"`
	ComponentIndex int    `json:"component_index"`
}

// RootCause is the outcome of the root-cause state machine.
type RootCause struct {
	Classification      RootCauseClass `json:"classification"`
	Confidence          float64        `json:"confidence"`
	Evidence            []Evidence     `json:"evidence"`
	AffectedComponents  []int          `json:"affected_components"`
	SuggestedAdjustment *float64       `json:"suggested_adjustment,omitempty"`
}

// Recommendation is what the investigation suggests doing about the dispute.
type Recommendation struct {
	Action          Action   `json:"action"`
	Reasoning       string   `json:"reasoning"`
	EvidenceSummary string   `json:"evidence_summary"`
	Confidence      float64  `json:"confidence"`
	DataSources     []string `json:"data_sources"`
}

// Readings are the synapses read for the disputed entity.
type Readings struct {
	DataQuality []synapse.Synapse `json:"data_quality"`
	Corrections []synapse.Synapse `json:"corrections"`
	Anomalies   []synapse.Synapse `json:"anomalies"`
	Confidence  []synapse.Synapse `json:"confidence"`
}

// Investigation is the full record of one dispute investigation.
type Investigation struct {
	Dispute                  DisputeContext        `json:"dispute"`
	Traces                   []calc.ExecutionTrace `json:"traces"`
	Readings                 Readings              `json:"readings"`
	RootCause                RootCause             `json:"root_cause"`
	Recommendation           Recommendation        `json:"recommendation"`
	ResolutionSynapseWritten bool                  `json:"resolution_synapse_written"`
}

// Pattern is a root cause shared by several investigations.
type Pattern struct {
	Classification   RootCauseClass `json:"classification"`
	Count            int            `json:"count"`
	DisputeIDs       []string       `json:"dispute_ids"`
	CommonComponents []int          `json:"common_components"`
	Recommendation   string         `json:"recommendation"`
}

// Surface is the part of the shared store resolution reads and writes.
type Surface interface {
	Write(syn synapse.Synapse) synapse.Synapse
	Read(t synapse.Type, scope synapse.Scope) []synapse.Synapse
	Observe(signature string, confidence float64) surface.DensityRecord
}
