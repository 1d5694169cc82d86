package insight

import (
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Category groups insights by the part of the business they concern.
type Category string

const (
	CategoryPerformance Category = "performance"
	CategoryProcess     Category = "process"
	CategoryRisk        Category = "risk"
	CategoryDataQuality Category = "data_quality"
)

// Severity ranks how urgently an item needs attention.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Inline check names.
const (
	CheckAnomalyRate    = "anomaly_rate"
	CheckConfidenceDrop = "confidence_drop"
	CheckCorrectionRate = "correction_rate"
)

// Data sources cited by insights.
const (
	SourceAnomalyCount      = "surface.stats.anomaly_count"
	SourceCorrectionCount   = "surface.stats.correction_count"
	SourceConfidence        = "surface.stats.confidence"
	SourceEntityCount       = "calculation_summary.entity_count"
	SourceZeroOutcomeCount  = "calculation_summary.zero_outcome_count"
	SourceTopEntities       = "calculation_summary.top_entities"
	SourceBottomEntities    = "calculation_summary.bottom_entities"
	SourceTotalOutcome      = "calculation_summary.total_outcome"
	SourceAverageOutcome    = "calculation_summary.average_outcome"
	SourceMedianOutcome     = "calculation_summary.median_outcome"
	SourceConcordanceRate   = "calculation_summary.concordance_rate"
	SourceEntitiesProcessed = "reconciliation.entities_processed"
)

// InlineInsight is a mid-run finding from CheckInline.
type InlineInsight struct {
	Check             string   `json:"check"`
	Severity          float64  `json:"severity"`
	Message           string   `json:"message"`
	CurrentValue      float64  `json:"current_value"`
	Threshold         float64  `json:"threshold"`
	EntitiesProcessed int      `json:"entities_processed"`
	DataSource        []string `json:"data_source"`
}

// Insight is a prescriptive observation about the run.
type Insight struct {
	ID             string   `json:"id"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation,omitempty"`
	Metric         string   `json:"metric"`
	CurrentValue   float64  `json:"current_value"`
	Threshold      float64  `json:"threshold"`
	DataSource     []string `json:"data_source"`
}

// Alert is an item that needs an administrator's attention now.
type Alert struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	Title        string   `json:"title"`
	Message      string   `json:"message"`
	Metric       string   `json:"metric"`
	CurrentValue float64  `json:"current_value"`
	Threshold    float64  `json:"threshold"`
	DataSource   []string `json:"data_source"`
}

// CoachingAction suggests where a manager should spend coaching time.
type CoachingAction struct {
	ID         string   `json:"id"`
	EntityIDs  []string `json:"entity_ids"`
	Action     string   `json:"action"`
	Rationale  string   `json:"rationale"`
	DataSource []string `json:"data_source"`
}

// GovernanceFlag marks a run-level condition that warrants review before
// results are approved.
type GovernanceFlag struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Rule        string   `json:"rule"`
	Description string   `json:"description"`
	DataSource  []string `json:"data_source"`
}

// GrowthSignal is a forward-looking target for payees.
type GrowthSignal struct {
	ID           string   `json:"id"`
	Metric       string   `json:"metric"`
	CurrentValue float64  `json:"current_value"`
	TargetValue  float64  `json:"target_value"`
	Description  string   `json:"description"`
	DataSource   []string `json:"data_source"`
}

// RunSummary combines the calculation summary with Surface stats.
type RunSummary struct {
	EntityCount         int     `json:"entity_count"`
	ComponentCount      int     `json:"component_count"`
	TotalOutcome        float64 `json:"total_outcome"`
	AverageOutcome      float64 `json:"average_outcome"`
	MedianOutcome       float64 `json:"median_outcome"`
	ZeroOutcomeCount    int     `json:"zero_outcome_count"`
	ZeroOutcomeRate     float64 `json:"zero_outcome_rate"`
	ConcordanceRate     float64 `json:"concordance_rate"`
	SynapsesWritten     int     `json:"synapses_written"`
	AnomalyCount        int     `json:"anomaly_count"`
	CorrectionCount     int     `json:"correction_count"`
	ResolutionHintCount int     `json:"resolution_hint_count"`
	AnomalyRate         float64 `json:"anomaly_rate"`
	CorrectionRate      float64 `json:"correction_rate"`

	// AverageConfidence is nil when no confidence synapse was written.
	AverageConfidence *float64 `json:"average_confidence,omitempty"`
}

// FullAnalysis is the post-run report.
type FullAnalysis struct {
	BatchID         string           `json:"batch_id"`
	Summary         RunSummary       `json:"summary"`
	Insights        []Insight        `json:"insights"`
	Alerts          []Alert          `json:"alerts"`
	CoachingActions []CoachingAction `json:"coaching_actions"`
	GovernanceFlags []GovernanceFlag `json:"governance_flags"`
	GrowthSignals   []GrowthSignal   `json:"growth_signals"`
	InlineInsights  []InlineInsight  `json:"inline_insights"`
}

// Surface is the part of the shared store insight reads and writes. Only
// aggregate Stats are read.
type Surface interface {
	Stats() surface.Stats
	Write(syn synapse.Synapse) synapse.Synapse
}
