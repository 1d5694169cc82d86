package insight

import (
	"fmt"

	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// GenerateFullAnalysis runs the post-run analysis with an Engine built from
// cfg.
func GenerateFullAnalysis(batchID string, s Surface, summary calc.CalculationSummary, cfg Config, inline []InlineInsight) FullAnalysis {
	return New(WithConfig(cfg)).Analyze(batchID, s, summary, inline)
}

// Analyze produces the post-run report from Surface stats and the
// calculation summary. Each check is independent. Items that cite no data
// source are dropped before returning.
func (e *Engine) Analyze(batchID string, s Surface, summary calc.CalculationSummary, inline []InlineInsight) FullAnalysis {
	a := FullAnalysis{
		BatchID:         batchID,
		Summary:         e.runSummary(s, summary),
		Insights:        []Insight{},
		Alerts:          []Alert{},
		CoachingActions: []CoachingAction{},
		GovernanceFlags: []GovernanceFlag{},
		GrowthSignals:   []GrowthSignal{},
		InlineInsights:  append([]InlineInsight{}, inline...),
	}
	rs := a.Summary
	cfg := e.cfg

	if rs.EntityCount > 0 && rs.ZeroOutcomeRate > cfg.ZeroOutcomeThreshold {
		sev := SeverityWarning
		if rs.ZeroOutcomeRate > criticalZeroOutcomeRate {
			sev = SeverityCritical
		}
		sources := []string{SourceZeroOutcomeCount, SourceEntityCount}
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryProcess,
			Severity: sev,
			Title:    "Zero-outcome cluster",
			Description: fmt.Sprintf("%d of %d entities (%s) produced a zero outcome.",
				rs.ZeroOutcomeCount, rs.EntityCount, percent(rs.ZeroOutcomeRate)),
			Recommendation: "Check eligibility rules and input coverage for the zero-outcome entities before approval.",
			Metric:         "zero_outcome_rate",
			CurrentValue:   rs.ZeroOutcomeRate,
			Threshold:      cfg.ZeroOutcomeThreshold,
			DataSource:     sources,
		})
		a.GovernanceFlags = append(a.GovernanceFlags, GovernanceFlag{
			ID:       e.ids.Generate(),
			Severity: sev,
			Rule:     "zero_outcome_cluster",
			Description: fmt.Sprintf("Zero-outcome rate %s exceeds %s; hold approval pending review.",
				percent(rs.ZeroOutcomeRate), percent(cfg.ZeroOutcomeThreshold)),
			DataSource: sources,
		})
	}

	if rs.EntityCount > 0 && rs.AnomalyRate > cfg.AnomalyRateThreshold {
		sev := SeverityWarning
		if rs.AnomalyRate > criticalAnomalyRate {
			sev = SeverityCritical
		}
		sources := []string{SourceAnomalyCount, SourceEntityCount}
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryRisk,
			Severity: sev,
			Title:    "High anomaly rate",
			Description: fmt.Sprintf("%d anomalies across %d entities (%s).",
				rs.AnomalyCount, rs.EntityCount, percent(rs.AnomalyRate)),
			Recommendation: "Review boundary and outlier anomalies before publishing results.",
			Metric:         "anomaly_rate",
			CurrentValue:   rs.AnomalyRate,
			Threshold:      cfg.AnomalyRateThreshold,
			DataSource:     sources,
		})
		a.Alerts = append(a.Alerts, Alert{
			ID:           e.ids.Generate(),
			Severity:     sev,
			Title:        "Anomaly rate above threshold",
			Message:      fmt.Sprintf("Anomaly rate %s exceeds %s.", percent(rs.AnomalyRate), percent(cfg.AnomalyRateThreshold)),
			Metric:       "anomaly_rate",
			CurrentValue: rs.AnomalyRate,
			Threshold:    cfg.AnomalyRateThreshold,
			DataSource:   sources,
		})
	}

	if rs.AverageConfidence != nil && *rs.AverageConfidence < cfg.confidenceFloor() {
		avg := *rs.AverageConfidence
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryDataQuality,
			Severity: SeverityWarning,
			Title:    "Low calculation confidence",
			Description: fmt.Sprintf("Average confidence %s is below %s.",
				synapse.FormatNumber(round(avg, 4)), synapse.FormatNumber(round(cfg.confidenceFloor(), 4))),
			Recommendation: "Review input mappings for the low-confidence components.",
			Metric:         "average_confidence",
			CurrentValue:   avg,
			Threshold:      cfg.confidenceFloor(),
			DataSource:     []string{SourceConfidence},
		})
	}

	if rs.TotalOutcome > 0 && len(summary.TopEntities) > 0 {
		var top float64
		for _, eo := range summary.TopEntities {
			top += eo.Outcome
		}
		if share := top / rs.TotalOutcome; share > cfg.ConcentrationThreshold {
			a.Insights = append(a.Insights, Insight{
				ID:       e.ids.Generate(),
				Category: CategoryRisk,
				Severity: SeverityWarning,
				Title:    "Outcome concentration",
				Description: fmt.Sprintf("The top %d entities hold %s of the total outcome.",
					len(summary.TopEntities), percent(share)),
				Recommendation: "Confirm the top outcomes are expected before approval.",
				Metric:         "top_entity_share",
				CurrentValue:   share,
				Threshold:      cfg.ConcentrationThreshold,
				DataSource:     []string{SourceTopEntities, SourceTotalOutcome},
			})
		}
	}

	if rs.ConcordanceRate < 100 {
		sev := SeverityInfo
		if rs.ConcordanceRate < criticalConcordance {
			sev = SeverityCritical
		}
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryDataQuality,
			Severity: sev,
			Title:    "Concordance gap",
			Description: fmt.Sprintf("Concordance with the benchmark is %s%%.",
				synapse.FormatNumber(round(rs.ConcordanceRate, 2))),
			Recommendation: "Work through the reconciliation findings that are not matches.",
			Metric:         "concordance_rate",
			CurrentValue:   rs.ConcordanceRate,
			Threshold:      100,
			DataSource:     []string{SourceConcordanceRate},
		})
	}

	if rs.EntityCount > 0 && rs.CorrectionRate > cfg.AnomalyRateThreshold {
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryProcess,
			Severity: SeverityWarning,
			Title:    "Frequent corrections",
			Description: fmt.Sprintf("%d corrections across %d entities (%s).",
				rs.CorrectionCount, rs.EntityCount, percent(rs.CorrectionRate)),
			Recommendation: "Fix the upstream source of recurring corrections instead of adjusting each run.",
			Metric:         "correction_rate",
			CurrentValue:   rs.CorrectionRate,
			Threshold:      cfg.AnomalyRateThreshold,
			DataSource:     []string{SourceCorrectionCount, SourceEntityCount},
		})
	}

	if rs.AverageOutcome > 0 {
		a.Insights = append(a.Insights, Insight{
			ID:       e.ids.Generate(),
			Category: CategoryPerformance,
			Severity: SeverityInfo,
			Title:    "Outcome distribution",
			Description: fmt.Sprintf("Average outcome %s against a median of %s.",
				synapse.FormatNumber(round(rs.AverageOutcome, 2)), synapse.FormatNumber(round(rs.MedianOutcome, 2))),
			Metric:       "average_outcome",
			CurrentValue: rs.AverageOutcome,
			DataSource:   []string{SourceAverageOutcome, SourceMedianOutcome},
		})
	}

	if len(summary.BottomEntities) > 0 {
		ids := make([]string, len(summary.BottomEntities))
		for i, eo := range summary.BottomEntities {
			ids[i] = eo.EntityID
		}
		a.CoachingActions = append(a.CoachingActions, CoachingAction{
			ID:        e.ids.Generate(),
			EntityIDs: ids,
			Action:    "Schedule a coaching review with the lowest-outcome entities.",
			Rationale: fmt.Sprintf("%d entities sit at the bottom of the outcome ranking.", len(ids)),
			DataSource: []string{SourceBottomEntities},
		})
	}

	if rs.AverageOutcome > 0 {
		target := round(rs.AverageOutcome*growthFactor, 2)
		a.GrowthSignals = append(a.GrowthSignals, GrowthSignal{
			ID:           e.ids.Generate(),
			Metric:       "average_outcome",
			CurrentValue: rs.AverageOutcome,
			TargetValue:  target,
			Description:  fmt.Sprintf("Reaching %s lifts the average outcome by 10%%.", synapse.FormatNumber(target)),
			DataSource:   []string{SourceAverageOutcome},
		})
	}

	a = EnforceDataSources(a)
	e.logger.Info("analysis generated",
		"batch_id", batchID,
		"insights", len(a.Insights),
		"alerts", len(a.Alerts),
		"governance_flags", len(a.GovernanceFlags),
	)
	return a
}

// EnforceDataSources drops every insight, alert, coaching action, governance
// flag, growth signal and inline insight that cites no data source.
func EnforceDataSources(a FullAnalysis) FullAnalysis {
	a.Insights = cited(a.Insights, func(i Insight) []string { return i.DataSource })
	a.Alerts = cited(a.Alerts, func(i Alert) []string { return i.DataSource })
	a.CoachingActions = cited(a.CoachingActions, func(i CoachingAction) []string { return i.DataSource })
	a.GovernanceFlags = cited(a.GovernanceFlags, func(i GovernanceFlag) []string { return i.DataSource })
	a.GrowthSignals = cited(a.GrowthSignals, func(i GrowthSignal) []string { return i.DataSource })
	a.InlineInsights = cited(a.InlineInsights, func(i InlineInsight) []string { return i.DataSource })
	return a
}

func (e *Engine) runSummary(s Surface, summary calc.CalculationSummary) RunSummary {
	rs := RunSummary{
		EntityCount:      summary.EntityCount,
		ComponentCount:   summary.ComponentCount,
		TotalOutcome:     summary.TotalOutcome,
		AverageOutcome:   summary.AverageOutcome,
		MedianOutcome:    summary.MedianOutcome,
		ZeroOutcomeCount: summary.ZeroOutcomeCount,
		ConcordanceRate:  summary.ConcordanceRate,
	}
	if s != nil {
		st := s.Stats()
		rs.SynapsesWritten = st.TotalSynapsesWritten
		rs.AnomalyCount = st.AnomalyCount
		rs.CorrectionCount = st.CorrectionCount
		rs.ResolutionHintCount = st.ResolutionHintCount
		if avg, ok := st.AverageConfidence(); ok {
			rs.AverageConfidence = &avg
		}
	}
	if n := float64(rs.EntityCount); n > 0 {
		rs.ZeroOutcomeRate = float64(rs.ZeroOutcomeCount) / n
		rs.AnomalyRate = float64(rs.AnomalyCount) / n
		rs.CorrectionRate = float64(rs.CorrectionCount) / n
	}
	return rs
}
