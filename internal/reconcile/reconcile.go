package reconcile

import (
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Engine compares calculated results against a benchmark and records what it
// could not reconcile on the Surface.
//
// Engine holds no state between calls; one Engine may reconcile many runs.
type Engine struct {
	logger *slog.Logger
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

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile runs one pass with a default Engine.
func Reconcile(in Input) Report {
	return New().Reconcile(in)
}

type pairKey struct {
	externalID string
	component  int
}

// Reconcile classifies every (external id, component) pair present on either
// side and writes a correction synapse for each finding that is neither a
// match nor a rounding difference.
//
// Both sides are indexed in one pass each and the union of their keys is
// enumerated once: benchmark keys in input order, then calculated-only keys
// in input order. When a side repeats a key, the last record wins.
func (e *Engine) Reconcile(in Input) Report {
	tol := in.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	keys := make([]pairKey, 0, len(in.Benchmark)+len(in.Calculated))
	bench := make(map[pairKey]BenchmarkRecord, len(in.Benchmark))
	for _, b := range in.Benchmark {
		k := pairKey{externalID: b.ExternalID, component: b.ComponentIndex}
		if _, dup := bench[k]; !dup {
			keys = append(keys, k)
		}
		bench[k] = b
	}
	calculated := make(map[pairKey]calc.Result, len(in.Calculated))
	for _, c := range in.Calculated {
		k := pairKey{externalID: c.ExternalID, component: c.ComponentIndex}
		_, inBench := bench[k]
		_, dup := calculated[k]
		if !inBench && !dup {
			keys = append(keys, k)
		}
		calculated[k] = c
	}

	report := Report{
		TenantID:             in.TenantID,
		BatchID:              in.BatchID,
		Findings:             make([]Finding, 0, len(keys)),
		ClassificationCounts: make(map[Classification]int, len(Classifications)),
	}

	entities := make(map[string]struct{})
	reached := make(map[string]struct{})
	for _, k := range keys {
		b, hasB := bench[k]
		c, hasC := calculated[k]
		if hasC && c.EntityID != "" && in.BeforeEntity != nil {
			if _, ok := reached[c.EntityID]; !ok {
				reached[c.EntityID] = struct{}{}
				in.BeforeEntity(c.EntityID)
			}
		}
		if hasB {
			report.BenchmarkTotal += b.Expected
		}
		if hasC {
			report.CalculatedTotal += c.Value
		}

		f := classify(in, tol, k, b, hasB, c, hasC)
		report.Findings = append(report.Findings, f)
		report.ClassificationCounts[f.Classification]++
		if in.Surface != nil && writeCorrection(in.Surface, f) {
			report.CorrectionsWritten++
		}

		if _, seen := entities[k.externalID]; !seen {
			entities[k.externalID] = struct{}{}
			if in.Checkpoint != nil && in.CheckpointEvery > 0 && len(entities)%in.CheckpointEvery == 0 {
				in.Checkpoint(len(entities))
			}
		}
	}

	report.EntityCount = len(entities)
	report.TotalDelta = report.CalculatedTotal - report.BenchmarkTotal
	if n := len(report.Findings); n > 0 {
		agreed := report.ClassificationCounts[ClassMatch] + report.ClassificationCounts[ClassRounding]
		report.MatchRate = float64(agreed) / float64(n)
	}
	report.FalseGreens = FindFalseGreens(report.Findings)
	report.FalseGreen = len(report.FalseGreens) > 0

	e.logger.Info("reconciliation complete",
		"tenant_id", in.TenantID,
		"batch_id", in.BatchID,
		"entities", report.EntityCount,
		"findings", len(report.Findings),
		"match_rate", report.MatchRate,
		"corrections", report.CorrectionsWritten,
		"false_green", report.FalseGreen,
	)
	for _, fg := range report.FalseGreens {
		e.logger.Warn("false green detected",
			"batch_id", in.BatchID,
			"external_id", fg.ExternalID,
			"total_delta", fg.TotalDelta,
			"component_abs_delta", fg.ComponentAbsDelta,
		)
	}
	return report
}

// classify runs the fixed priority chain for one pair. Earlier checks
// pre-empt later ones.
func classify(in Input, tol float64, k pairKey, b BenchmarkRecord, hasB bool, c calc.Result, hasC bool) Finding {
	f := Finding{ExternalID: k.externalID, ComponentIndex: k.component}
	if hasC {
		f.EntityID = c.EntityID
		f.Calculated = c.Value
	}
	if hasB {
		f.Expected = b.Expected
	}
	f.Delta = f.Calculated - f.Expected
	f.AbsDelta = math.Abs(f.Delta)
	f.PercentDelta = percentDelta(f.AbsDelta, f.Expected)
	f.SynapticContext = synapticContext(in.Surface, f.surfaceKey())

	switch {
	case !hasB:
		return f.classified(ClassScopeMismatch, ConfidenceScopeMismatch, ReasonMissingFromBenchmark, nil)
	case !hasC:
		return f.classified(ClassScopeMismatch, ConfidenceScopeMismatch, ReasonMissingFromCalculated, nil)
	case f.AbsDelta <= tol:
		return f.classified(ClassMatch, ConfidenceMatch, ReasonWithinTolerance, nil)
	case f.AbsDelta < roundingLimit:
		return f.classified(ClassRounding, ConfidenceRounding, ReasonRounding, nil)
	}
	return classifyDivergence(in, f)
}

func classifyDivergence(in Input, f Finding) Finding {
	key := f.surfaceKey()

	if n := f.SynapticContext.DataQualitySynapses; n > 0 {
		return f.classified(ClassDataDivergence, ConfidenceDataQuality, ReasonDataQualitySignal, map[string]string{
			"data_quality_synapses": strconv.Itoa(n),
		})
	}

	if in.Surface != nil && f.SynapticContext.AnomalySynapses > 0 {
		for _, a := range in.Surface.Read(synapse.TypeAnomaly, synapse.EntityScope(key)) {
			if mentionsBoundary(a.Detail) {
				return f.classified(ClassLogicDivergence, ConfidenceBoundaryLogic, ReasonBoundaryAnomaly, map[string]string{
					"anomaly_detail":    a.Detail,
					"anomaly_component": strconv.Itoa(a.ComponentIndex),
				})
			}
		}
	}

	if traces := in.Traces.For(f.EntityID); len(traces) > 0 && f.PercentDelta > tracePercentLimit {
		return f.classified(ClassDataDivergence, ConfidenceTraceDivergence, ReasonTraceDivergence, map[string]string{
			"traces":        strconv.Itoa(len(traces)),
			"percent_delta": synapse.FormatNumber(f.PercentDelta),
		})
	}

	return f.classified(ClassUnclassified, ConfidenceUnclassified, ReasonNoSupportingSignal, nil)
}

func (f Finding) classified(c Classification, confidence float64, reason string, detail map[string]string) Finding {
	f.Classification = c
	f.Confidence = confidence
	f.TraceEvidence = TraceEvidence{Reason: reason, Detail: detail}
	return f
}

func synapticContext(s Surface, entityID string) SynapticContext {
	if s == nil || entityID == "" {
		return SynapticContext{}
	}
	scope := synapse.EntityScope(entityID)
	sc := SynapticContext{
		AnomalySynapses:     s.Count(synapse.TypeAnomaly, scope),
		DataQualitySynapses: s.Count(synapse.TypeDataQuality, scope),
	}
	if n := s.Count(synapse.TypeConfidence, scope); n > 0 {
		var sum float64
		for _, c := range s.Read(synapse.TypeConfidence, scope) {
			sum += c.Value
		}
		sc.ConfidenceSynapses = n
		sc.AverageConfidence = sum / float64(n)
	}
	return sc
}

// writeCorrection appends a correction synapse for f if its class needs one
// and feeds the classification into the density map. Corrections are
// written as findings are classified so checkpoints see the running count.
func writeCorrection(s Surface, f Finding) bool {
	if !f.Classification.NeedsCorrection() {
		return false
	}
	s.Write(synapse.Synapse{
		Type:           synapse.TypeCorrection,
		ComponentIndex: f.ComponentIndex,
		EntityID:       f.surfaceKey(),
		Value:          1 - f.Confidence,
		Detail:         synapse.Correction{Classification: string(f.Classification), Delta: f.Delta}.Detail(),
	})
	s.Observe(synapse.Signature("reconciliation", string(f.Classification), strconv.Itoa(f.ComponentIndex)), f.Confidence)
	return true
}

func percentDelta(absDelta, expected float64) float64 {
	if expected != 0 {
		return absDelta / math.Abs(expected) * 100
	}
	if absDelta == 0 {
		return 0
	}
	return 100
}

func mentionsBoundary(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "boundary")
}
