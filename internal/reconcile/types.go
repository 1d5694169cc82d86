package reconcile

import (
	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Classification is the closed set of discrepancy classes.
type Classification string

const (
	ClassMatch           Classification = "match"
	ClassRounding        Classification = "rounding"
	ClassDataDivergence  Classification = "data_divergence"
	ClassLogicDivergence Classification = "logic_divergence"
	ClassScopeMismatch   Classification = "scope_mismatch"
	ClassUnclassified    Classification = "unclassified"
)

// Classifications lists every class in priority-chain order.
var Classifications = []Classification{
	ClassScopeMismatch,
	ClassMatch,
	ClassRounding,
	ClassDataDivergence,
	ClassLogicDivergence,
	ClassUnclassified,
}

// Valid reports whether c is a declared class.
func (c Classification) Valid() bool {
	switch c {
	case ClassMatch, ClassRounding, ClassDataDivergence, ClassLogicDivergence, ClassScopeMismatch, ClassUnclassified:
		return true
	}
	return false
}

// NeedsCorrection reports whether findings of this class produce a
// correction synapse. Matches and rounding differences do not.
func (c Classification) NeedsCorrection() bool {
	return c != ClassMatch && c != ClassRounding
}

// Confidence of each branch of the classification chain.
const (
	ConfidenceScopeMismatch   = 0.9
	ConfidenceMatch           = 1.0
	ConfidenceRounding        = 0.9
	ConfidenceDataQuality     = 0.75
	ConfidenceBoundaryLogic   = 0.7
	ConfidenceTraceDivergence = 0.6
	ConfidenceUnclassified    = 0.3
)

// Trace evidence reasons.
const (
	ReasonMissingFromBenchmark  = "missing_from_benchmark"
	ReasonMissingFromCalculated = "missing_from_calculated"
	ReasonWithinTolerance       = "within_tolerance"
	ReasonRounding              = "rounding_difference"
	ReasonDataQualitySignal     = "data_quality_signal"
	ReasonBoundaryAnomaly       = "boundary_anomaly"
	ReasonTraceDivergence       = "trace_divergence"
	ReasonNoSupportingSignal    = "no_supporting_signal"
)

// DefaultTolerance is the absolute delta under which two values match.
const DefaultTolerance = 0.01

// roundingLimit is the absolute delta below which a non-matching pair is a
// rounding difference.
const roundingLimit = 1.0

// tracePercentLimit is the percentage delta above which an entity with
// traces is treated as diverging on data.
const tracePercentLimit = 5.0

// BenchmarkRecord is one expected value from the benchmark dataset.
type BenchmarkRecord struct {
	ExternalID     string  `json:"external_id" yaml:"external_id"`
	ComponentIndex int     `json:"component_index" yaml:"component_index"`
	Expected       float64 `json:"expected" yaml:"expected"`
}

// Surface is the part of the shared store reconciliation reads and writes.
type Surface interface {
	Write(syn synapse.Synapse) synapse.Synapse
	Read(t synapse.Type, scope synapse.Scope) []synapse.Synapse
	Count(t synapse.Type, scope synapse.Scope) int
	Observe(signature string, confidence float64) surface.DensityRecord
}

// Input is everything one reconciliation pass needs.
type Input struct {
	TenantID   string
	BatchID    string
	Benchmark  []BenchmarkRecord
	Calculated []calc.Result
	Traces     calc.TraceIndex
	Surface    Surface

	// Tolerance is the match threshold; zero or negative means
	// DefaultTolerance.
	Tolerance float64

	// BeforeEntity, when set, is called once per internal entity id just
	// before that entity's first finding is classified. Callers use it to
	// put the entity's trace signals on the Surface as the pass reaches it.
	BeforeEntity func(entityID string)

	// Checkpoint, when set, is called every CheckpointEvery distinct
	// entities with the number of entities classified so far.
	Checkpoint      func(entitiesProcessed int)
	CheckpointEvery int
}

// TraceEvidence explains a classification.
type TraceEvidence struct {
	Reason string            `json:"reason"`
	Detail map[string]string `json:"detail,omitempty"`
}

// SynapticContext is what the Surface already knew about an entity when its
// finding was classified.
type SynapticContext struct {
	ConfidenceSynapses  int     `json:"confidence_synapses"`
	AnomalySynapses     int     `json:"anomaly_synapses"`
	DataQualitySynapses int     `json:"data_quality_synapses"`
	AverageConfidence   float64 `json:"average_confidence"`
}

// Finding is the comparison of one (entity, component) pair.
type Finding struct {
	EntityID        string          `json:"entity_id,omitempty"`
	ExternalID      string          `json:"external_id"`
	ComponentIndex  int             `json:"component_index"`
	Calculated      float64         `json:"calculated"`
	Expected        float64         `json:"expected"`
	Delta           float64         `json:"delta"`
	AbsDelta        float64         `json:"abs_delta"`
	PercentDelta    float64         `json:"percent_delta"`
	Classification  Classification  `json:"classification"`
	Confidence      float64         `json:"confidence"`
	TraceEvidence   TraceEvidence   `json:"trace_evidence"`
	SynapticContext SynapticContext `json:"synaptic_context"`
}

// surfaceKey returns the id the Surface knows this entity by: the internal
// id when a calculated result exists, else the external id.
func (f Finding) surfaceKey() string {
	if f.EntityID != "" {
		return f.EntityID
	}
	return f.ExternalID
}

// FalseGreen is an entity whose component errors cancel in the total.
type FalseGreen struct {
	ExternalID        string  `json:"external_id"`
	Components        int     `json:"components"`
	TotalDelta        float64 `json:"total_delta"`
	ComponentAbsDelta float64 `json:"component_abs_delta"`
}

// Report bundles the outcome of one reconciliation pass.
type Report struct {
	TenantID             string                 `json:"tenant_id"`
	BatchID              string                 `json:"batch_id"`
	EntityCount          int                    `json:"entity_count"`
	BenchmarkTotal       float64                `json:"benchmark_total"`
	CalculatedTotal      float64                `json:"calculated_total"`
	TotalDelta           float64                `json:"total_delta"`
	MatchRate            float64                `json:"match_rate"`
	Findings             []Finding              `json:"findings"`
	ClassificationCounts map[Classification]int `json:"classification_counts"`
	FalseGreen           bool                   `json:"false_green"`
	FalseGreens          []FalseGreen           `json:"false_greens,omitempty"`
	CorrectionsWritten   int                    `json:"corrections_written"`
}

// ConcordanceRate returns MatchRate as a percentage.
func (r Report) ConcordanceRate() float64 {
	return r.MatchRate * 100
}
