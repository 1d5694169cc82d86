package resolve

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Engine investigates contested outcomes using what the Surface already
// knows about the disputed entity.
type Engine struct {
	logger            *slog.Logger
	patternMinMembers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPatternMinMembers sets how many investigations must share a root
// cause to form a pattern.
//
// Default: 3 (DefaultPatternMinMembers). Values below 1 are ignored.
func WithPatternMinMembers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.patternMinMembers = n
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		patternMinMembers: DefaultPatternMinMembers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Investigate runs one investigation with a default Engine.
func Investigate(dispute DisputeContext, traces []calc.ExecutionTrace, s Surface) Investigation {
	return New().Investigate(dispute, traces, s)
}

// Investigate determines the root cause of one dispute and, unless no error
// was found, writes a resolution_hint synapse for the entity.
func (e *Engine) Investigate(dispute DisputeContext, traces []calc.ExecutionTrace, s Surface) Investigation {
	inv := Investigation{Dispute: dispute, Traces: traces}
	if s != nil {
		scope := synapse.EntityScope(dispute.EntityID)
		inv.Readings = Readings{
			DataQuality: s.Read(synapse.TypeDataQuality, scope),
			Corrections: s.Read(synapse.TypeCorrection, scope),
			Anomalies:   s.Read(synapse.TypeAnomaly, scope),
			Confidence:  s.Read(synapse.TypeConfidence, scope),
		}
	}

	inv.RootCause = DetermineRootCause(inv.Readings, traces)
	inv.Recommendation = Recommend(inv.RootCause)

	rc := inv.RootCause
	if rc.Classification != CauseNoErrorFound && s != nil {
		component := 0
		if len(rc.AffectedComponents) > 0 {
			component = rc.AffectedComponents[0]
		}
		s.Write(synapse.Synapse{
			Type:           synapse.TypeResolutionHint,
			ComponentIndex: component,
			EntityID:       dispute.EntityID,
			Value:          rc.Confidence,
			Detail:         synapse.Hint{Classification: string(rc.Classification), Action: string(inv.Recommendation.Action)}.Detail(),
		})
		s.Observe(synapse.Signature("resolution", string(rc.Classification)), rc.Confidence)
		inv.ResolutionSynapseWritten = true
	}

	e.logger.Info("dispute investigated",
		"dispute_id", dispute.DisputeID,
		"entity_id", dispute.EntityID,
		"root_cause", rc.Classification,
		"confidence", rc.Confidence,
		"action", inv.Recommendation.Action,
		"hint_written", inv.ResolutionSynapseWritten,
	)
	return inv
}

// DetermineRootCause runs the root-cause state machine. The first matching
// branch wins:
//
//  1. data_quality synapse                 -> data_error (0.8)
//  2. correction synapse                   -> data_error (0.85), with adjustment
//  3. anomaly synapse + boundary in traces -> boundary_edge (0.75)
//     anomaly synapse otherwise            -> logic_error (0.6)
//  4. confidence synapse below 0.7         -> interpretation_ambiguity (0.6)
//  5. traces only                          -> no_error_found (0.5)
//  6. nothing                              -> no_error_found (0.3)
func DetermineRootCause(r Readings, traces []calc.ExecutionTrace) RootCause {
	switch {
	case len(r.DataQuality) > 0:
		return RootCause{
			Classification:     CauseDataError,
			Confidence:         ConfidenceDataQuality,
			Evidence:           synapseEvidence(SourceDataQuality, r.DataQuality),
			AffectedComponents: components(r.DataQuality),
		}

	case len(r.Corrections) > 0:
		rc := RootCause{
			Classification:     CauseDataError,
			Confidence:         ConfidenceCorrection,
			Evidence:           synapseEvidence(SourceCorrection, r.Corrections),
			AffectedComponents: components(r.Corrections),
		}
		var sum float64
		parsed := false
		for _, c := range r.Corrections {
			if d, ok := synapse.ParseDelta(c.Detail); ok {
				sum += d
				parsed = true
			}
		}
		if parsed {
			adj := 0 - sum
			rc.SuggestedAdjustment = &adj
		}
		return rc

	case len(r.Anomalies) > 0:
		if edges := boundaryTraces(traces); len(edges) > 0 {
			evidence := synapseEvidence(SourceAnomaly, r.Anomalies)
			affected := components(r.Anomalies)
			for _, tr := range edges {
				evidence = append(evidence, Evidence{
					Source:         SourceExecutionTrace,
					Description:    fmt.Sprintf("component %d lookup resolved on a band boundary", tr.ComponentIndex),
					ComponentIndex: tr.ComponentIndex,
				})
				affected = appendUnique(affected, tr.ComponentIndex)
			}
			return RootCause{
				Classification:     CauseBoundaryEdge,
				Confidence:         ConfidenceBoundaryEdge,
				Evidence:           evidence,
				AffectedComponents: affected,
			}
		}
		return RootCause{
			Classification:     CauseLogicError,
			Confidence:         ConfidenceLogicError,
			Evidence:           synapseEvidence(SourceAnomaly, r.Anomalies),
			AffectedComponents: components(r.Anomalies),
		}
	}

	var low []synapse.Synapse
	for _, c := range r.Confidence {
		if c.Value < lowConfidenceSynapseCeiling {
			low = append(low, c)
		}
	}
	if len(low) > 0 {
		return RootCause{
			Classification:     CauseInterpretationAmbiguity,
			Confidence:         ConfidenceAmbiguity,
			Evidence:           synapseEvidence(SourceConfidence, low),
			AffectedComponents: components(low),
		}
	}

	if len(traces) > 0 {
		rc := RootCause{
			Classification: CauseNoErrorFound,
			Confidence:     ConfidenceTracesOnly,
			Evidence:       make([]Evidence, 0, len(traces)),
		}
		for _, tr := range traces {
			rc.Evidence = append(rc.Evidence, Evidence{
				Source: SourceExecutionTrace,
				Description: fmt.Sprintf("component %d resolved to %s with confidence %s",
					tr.ComponentIndex, synapse.FormatNumber(tr.Outcome), synapse.FormatNumber(tr.Confidence)),
				ComponentIndex: tr.ComponentIndex,
			})
			rc.AffectedComponents = appendUnique(rc.AffectedComponents, tr.ComponentIndex)
		}
		return rc
	}

	return RootCause{
		Classification:     CauseNoErrorFound,
		Confidence:         ConfidenceNoEvidence,
		Evidence:           []Evidence{},
		AffectedComponents: []int{},
	}
}

// Recommend maps a root cause to an action. It depends only on the root
// cause.
func Recommend(rc RootCause) Recommendation {
	rec := Recommendation{
		EvidenceSummary: summarize(rc.Evidence),
		Confidence:      rc.Confidence,
		DataSources:     dataSources(rc.Evidence),
	}
	switch rc.Classification {
	case CauseDataError:
		if rc.SuggestedAdjustment != nil {
			rec.Action = ActionApproveAdjustment
			rec.Reasoning = fmt.Sprintf("Reconciliation corrections account for the discrepancy; adjust the outcome by %s.",
				synapse.FormatNumber(*rc.SuggestedAdjustment))
		} else {
			rec.Action = ActionRequestData
			rec.Reasoning = "Source data for the entity is incomplete or inconsistent; request corrected inputs before deciding."
		}
	case CauseBoundaryEdge:
		rec.Action = ActionEscalateToHuman
		rec.Reasoning = "The outcome sits on a tier boundary; a reviewer must confirm which band applies."
	case CauseLogicError:
		rec.Action = ActionEscalateToHuman
		rec.Reasoning = "Anomalies indicate the rule logic diverged from the benchmark; escalate for rule review."
	case CauseInterpretationAmbiguity:
		rec.Action = ActionEscalateToHuman
		rec.Reasoning = "Inputs were interpreted with low confidence; escalate for a human reading of the plan terms."
	default:
		rec.Action = ActionRejectWithEvidence
		rec.Reasoning = "No error was found in the available evidence; reject the dispute and share the supporting trace."
	}
	return rec
}

func synapseEvidence(source string, syns []synapse.Synapse) []Evidence {
	out := make([]Evidence, 0, len(syns))
	for _, s := range syns {
		out = append(out, Evidence{
			Source:         source,
			Description:    describe(source, s),
			ComponentIndex: s.ComponentIndex,
		})
	}
	return out
}

func describe(source string, s synapse.Synapse) string {
	detail := s.Detail
	if detail == "" {
		detail = "no detail"
	}
	switch source {
	case SourceDataQuality:
		return fmt.Sprintf("data quality signal on component %d (%s)", s.ComponentIndex, detail)
	case SourceCorrection:
		return fmt.Sprintf("reconciliation correction on component %d (%s)", s.ComponentIndex, detail)
	case SourceAnomaly:
		return fmt.Sprintf("anomaly on component %d (%s)", s.ComponentIndex, detail)
	case SourceConfidence:
		return fmt.Sprintf("low confidence %s on component %d", synapse.FormatNumber(s.Value), s.ComponentIndex)
	}
	return detail
}

// boundaryTraces returns the traces whose lookup recorded a row or column
// boundary.
func boundaryTraces(traces []calc.ExecutionTrace) []calc.ExecutionTrace {
	var out []calc.ExecutionTrace
	for _, tr := range traces {
		if tr.Lookup.BoundaryMatch() {
			out = append(out, tr)
		}
	}
	return out
}

// components returns the distinct component indices of syns in first-seen
// order. Run-level synapses are skipped.
func components(syns []synapse.Synapse) []int {
	out := []int{}
	for _, s := range syns {
		if s.IsRunLevel() {
			continue
		}
		out = appendUnique(out, s.ComponentIndex)
	}
	return out
}

func appendUnique(xs []int, x int) []int {
	for _, v := range xs {
		if v == x {
			return xs
		}
	}
	return append(xs, x)
}

func summarize(evidence []Evidence) string {
	if len(evidence) == 0 {
		return "no supporting evidence found"
	}
	parts := make([]string, len(evidence))
	for i, ev := range evidence {
		parts[i] = ev.Description
	}
	return strings.Join(parts, "; ")
}

func dataSources(evidence []Evidence) []string {
	var out []string
	seen := make(map[string]bool)
	for _, ev := range evidence {
		if ev.Source == "" || seen[ev.Source] {
			continue
		}
		seen[ev.Source] = true
		out = append(out, ev.Source)
	}
	if len(out) == 0 {
		out = []string{SourceDispute}
	}
	return out
}
