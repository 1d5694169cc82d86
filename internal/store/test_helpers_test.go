package store

import (
	"path/filepath"
	"testing"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a small run with one of everything.
func createTestRun(batchID, tenantID string) Run {
	return Run{
		BatchID:  batchID,
		TenantID: tenantID,
		Synapses: []synapse.Synapse{
			{Type: synapse.TypeConfidence, ComponentIndex: 0, EntityID: "E1", Value: 0.9, Detail: "outcome=100", Timestamp: 1},
			{Type: synapse.TypeCorrection, ComponentIndex: 0, EntityID: "E1", Value: 0.7, Detail: "logic_divergence:delta=-20", Timestamp: 2},
			{Type: synapse.TypeResolutionHint, ComponentIndex: 0, EntityID: "E1", Value: 0.85, Detail: "data_error:approve_adjustment", Timestamp: 3},
		},
		Reconciliation: reconcile.Report{
			TenantID:    tenantID,
			BatchID:     batchID,
			EntityCount: 1,
			MatchRate:   0,
			Findings: []reconcile.Finding{{
				EntityID: "E1", ExternalID: "X1", Calculated: 80, Expected: 100, Delta: -20, AbsDelta: 20, PercentDelta: 20,
				Classification: reconcile.ClassLogicDivergence, Confidence: 0.7,
				TraceEvidence: reconcile.TraceEvidence{Reason: reconcile.ReasonBoundaryAnomaly},
			}},
			ClassificationCounts: map[reconcile.Classification]int{reconcile.ClassLogicDivergence: 1},
			CorrectionsWritten:   1,
		},
		Investigations: []resolve.Investigation{{
			Dispute:   resolve.DisputeContext{DisputeID: "D1", EntityID: "E1", DisputedAmount: 20},
			RootCause: resolve.RootCause{Classification: resolve.CauseDataError, Confidence: 0.85, AffectedComponents: []int{0}},
			Recommendation: resolve.Recommendation{
				Action: resolve.ActionApproveAdjustment, DataSources: []string{resolve.SourceCorrection},
			},
			ResolutionSynapseWritten: true,
		}},
		Patterns: []resolve.Pattern{{
			Classification: resolve.CauseDataError, Count: 3, DisputeIDs: []string{"D1", "D2", "D3"}, CommonComponents: []int{0},
		}},
		Analysis: insight.FullAnalysis{
			BatchID: batchID,
			Insights: []insight.Insight{
				{ID: "i1", Category: insight.CategoryRisk, Severity: insight.SeverityWarning, Title: "risk", DataSource: []string{"s"}},
				{ID: "i2", Category: insight.CategoryPerformance, Severity: insight.SeverityInfo, Title: "perf", DataSource: []string{"s"}},
			},
			Alerts:          []insight.Alert{{ID: "a1", Severity: insight.SeverityWarning, DataSource: []string{"s"}}},
			CoachingActions: []insight.CoachingAction{},
			GovernanceFlags: []insight.GovernanceFlag{},
			GrowthSignals:   []insight.GrowthSignal{{ID: "g1", TargetValue: 110, DataSource: []string{"s"}}},
			InlineInsights:  []insight.InlineInsight{},
		},
	}
}
