package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// pair builds a one-component benchmark/calculated pair for entity n.
func pair(n int, expected, calculated float64) (BenchmarkRecord, calc.Result) {
	ext := fmt.Sprintf("X%d", n)
	return BenchmarkRecord{ExternalID: ext, ComponentIndex: 0, Expected: expected},
		calc.Result{EntityID: fmt.Sprintf("E%d", n), ExternalID: ext, ComponentIndex: 0, Value: calculated}
}

func reconcileOne(t *testing.T, s *surface.Surface, traces calc.TraceIndex, expected, calculated float64) Finding {
	t.Helper()
	b, c := pair(1, expected, calculated)
	report := Reconcile(Input{
		Benchmark:  []BenchmarkRecord{b},
		Calculated: []calc.Result{c},
		Traces:     traces,
		Surface:    s,
	})
	require.Len(t, report.Findings, 1)
	return report.Findings[0]
}

func TestReconcile_Match(t *testing.T) {
	for _, delta := range []float64{0, 0.005, -0.009} {
		f := reconcileOne(t, surface.New(), nil, 100, 100+delta)
		assert.Equal(t, ClassMatch, f.Classification, "delta %v", delta)
		assert.Equal(t, 1.0, f.Confidence)
		assert.Equal(t, ReasonWithinTolerance, f.TraceEvidence.Reason)
	}
}

func TestReconcile_Rounding(t *testing.T) {
	for _, delta := range []float64{0.02, 0.5, -0.99} {
		f := reconcileOne(t, surface.New(), nil, 100, 100+delta)
		assert.Equal(t, ClassRounding, f.Classification, "delta %v", delta)
		assert.Equal(t, 0.9, f.Confidence)
	}
}

func TestReconcile_CustomTolerance(t *testing.T) {
	b, c := pair(1, 100, 100.4)
	report := Reconcile(Input{
		Benchmark:  []BenchmarkRecord{b},
		Calculated: []calc.Result{c},
		Surface:    surface.New(),
		Tolerance:  0.5,
	})
	assert.Equal(t, ClassMatch, report.Findings[0].Classification)
}

func TestReconcile_ScopeMismatch(t *testing.T) {
	s := surface.New()
	report := Reconcile(Input{
		Benchmark: []BenchmarkRecord{
			{ExternalID: "X1", ComponentIndex: 0, Expected: 100},
		},
		Calculated: []calc.Result{
			{EntityID: "E2", ExternalID: "X2", ComponentIndex: 0, Value: 50},
		},
		Surface: s,
	})

	require.Len(t, report.Findings, 2)

	missingCalc := report.Findings[0]
	assert.Equal(t, "X1", missingCalc.ExternalID)
	assert.Equal(t, ClassScopeMismatch, missingCalc.Classification)
	assert.Equal(t, 0.9, missingCalc.Confidence)
	assert.Equal(t, ReasonMissingFromCalculated, missingCalc.TraceEvidence.Reason)

	missingBench := report.Findings[1]
	assert.Equal(t, "X2", missingBench.ExternalID)
	assert.Equal(t, "E2", missingBench.EntityID)
	assert.Equal(t, ClassScopeMismatch, missingBench.Classification)
	assert.Equal(t, ReasonMissingFromBenchmark, missingBench.TraceEvidence.Reason)

	assert.Equal(t, 2, report.ClassificationCounts[ClassScopeMismatch])
	assert.Equal(t, 2, report.CorrectionsWritten)

	// The benchmark-only side is known to the surface by its external id.
	assert.Len(t, s.ReadEntity(synapse.TypeCorrection, "X1"), 1)
	assert.Len(t, s.ReadEntity(synapse.TypeCorrection, "E2"), 1)
}

func TestReconcile_DataQualityDivergence(t *testing.T) {
	s := surface.New()
	s.Write(synapse.Synapse{Type: synapse.TypeDataQuality, EntityID: "E1", Value: 1, Detail: "missing_inputs:quota"})

	f := reconcileOne(t, s, nil, 1000, 800)
	assert.Equal(t, ClassDataDivergence, f.Classification)
	assert.Equal(t, 0.75, f.Confidence)
	assert.Equal(t, ReasonDataQualitySignal, f.TraceEvidence.Reason)
	assert.Equal(t, 1, f.SynapticContext.DataQualitySynapses)
}

func TestReconcile_BoundaryAnomalyIsLogicDivergence(t *testing.T) {
	s := surface.New()
	s.Write(synapse.Synapse{Type: synapse.TypeAnomaly, EntityID: "E1", ComponentIndex: 2, Value: 0.4, Detail: "boundary:row=3"})

	f := reconcileOne(t, s, nil, 1000, 800)
	assert.Equal(t, ClassLogicDivergence, f.Classification)
	assert.Equal(t, 0.7, f.Confidence)
	assert.Equal(t, "boundary:row=3", f.TraceEvidence.Detail["anomaly_detail"])
}

func TestReconcile_NonBoundaryAnomalyFallsThrough(t *testing.T) {
	s := surface.New()
	s.Write(synapse.Synapse{Type: synapse.TypeAnomaly, EntityID: "E1", Value: 0.4, Detail: "outlier"})

	f := reconcileOne(t, s, nil, 1000, 800)
	assert.Equal(t, ClassUnclassified, f.Classification)
	assert.Equal(t, 0.3, f.Confidence)
	assert.Equal(t, 1, f.SynapticContext.AnomalySynapses)
}

func TestReconcile_DataQualityOutranksAnomaly(t *testing.T) {
	s := surface.New()
	s.Write(synapse.Synapse{Type: synapse.TypeAnomaly, EntityID: "E1", Value: 0.4, Detail: "boundary:row=1"})
	s.Write(synapse.Synapse{Type: synapse.TypeDataQuality, EntityID: "E1", Value: 1})

	f := reconcileOne(t, s, nil, 1000, 800)
	assert.Equal(t, ClassDataDivergence, f.Classification)
	assert.Equal(t, 0.75, f.Confidence)
}

func TestReconcile_TraceDivergence(t *testing.T) {
	traces := calc.IndexTraces([]calc.ExecutionTrace{{EntityID: "E1", Outcome: 800, Confidence: 0.9}})

	f := reconcileOne(t, surface.New(), traces, 1000, 800)
	assert.Equal(t, ClassDataDivergence, f.Classification)
	assert.Equal(t, 0.6, f.Confidence)
	assert.Equal(t, ReasonTraceDivergence, f.TraceEvidence.Reason)
	assert.InDelta(t, 20.0, f.PercentDelta, 1e-9)
}

func TestReconcile_TraceWithSmallPercentIsUnclassified(t *testing.T) {
	traces := calc.IndexTraces([]calc.ExecutionTrace{{EntityID: "E1", Outcome: 98000}})

	// 2000 on 100000 is 2%, under the 5% trace threshold.
	f := reconcileOne(t, surface.New(), traces, 100000, 98000)
	assert.Equal(t, ClassUnclassified, f.Classification)
}

func TestReconcile_SynapticContext(t *testing.T) {
	s := surface.New()
	s.Write(synapse.Synapse{Type: synapse.TypeConfidence, EntityID: "E1", Value: 0.8})
	s.Write(synapse.Synapse{Type: synapse.TypeConfidence, EntityID: "E1", Value: 0.6})
	s.Write(synapse.Synapse{Type: synapse.TypeConfidence, EntityID: "E2", Value: 0.1})

	f := reconcileOne(t, s, nil, 100, 100)
	assert.Equal(t, 2, f.SynapticContext.ConfidenceSynapses)
	assert.InDelta(t, 0.7, f.SynapticContext.AverageConfidence, 1e-9)
}

func TestReconcile_CorrectionsOnlyForNonMatches(t *testing.T) {
	s := surface.New()
	benchmark := []BenchmarkRecord{
		{ExternalID: "X1", ComponentIndex: 0, Expected: 100},
		{ExternalID: "X2", ComponentIndex: 0, Expected: 100},
		{ExternalID: "X3", ComponentIndex: 0, Expected: 100},
		{ExternalID: "X4", ComponentIndex: 0, Expected: 100},
	}
	calculated := []calc.Result{
		{EntityID: "E1", ExternalID: "X1", ComponentIndex: 0, Value: 100},
		{EntityID: "E2", ExternalID: "X2", ComponentIndex: 0, Value: 100.5},
		{EntityID: "E3", ExternalID: "X3", ComponentIndex: 0, Value: 250},
	}

	report := Reconcile(Input{Benchmark: benchmark, Calculated: calculated, Surface: s})

	assert.Equal(t, 2, report.CorrectionsWritten)
	corrections := s.Read(synapse.TypeCorrection, synapse.RunScope())
	require.Len(t, corrections, 2)
	for _, c := range corrections {
		assert.Contains(t, c.Detail, "delta=")
	}

	assert.Equal(t, "unclassified:delta=150", corrections[0].Detail)
	assert.Equal(t, "E3", corrections[0].EntityID)
	assert.InDelta(t, 0.7, corrections[0].Value, 1e-9)

	assert.Equal(t, "scope_mismatch:delta=-100", corrections[1].Detail)
	assert.InDelta(t, 0.1, corrections[1].Value, 1e-9)

	assert.Empty(t, s.ReadEntity(synapse.TypeCorrection, "E1"))
	assert.Empty(t, s.ReadEntity(synapse.TypeCorrection, "E2"))
}

func TestReconcile_Totals(t *testing.T) {
	b1, c1 := pair(1, 100, 110)
	b2, c2 := pair(2, 200, 200)
	report := Reconcile(Input{
		TenantID:   "t1",
		BatchID:    "b1",
		Benchmark:  []BenchmarkRecord{b1, b2},
		Calculated: []calc.Result{c1, c2},
		Surface:    surface.New(),
	})

	assert.Equal(t, "t1", report.TenantID)
	assert.Equal(t, "b1", report.BatchID)
	assert.Equal(t, 2, report.EntityCount)
	assert.Equal(t, 300.0, report.BenchmarkTotal)
	assert.Equal(t, 310.0, report.CalculatedTotal)
	assert.Equal(t, 10.0, report.TotalDelta)
	assert.Equal(t, 0.5, report.MatchRate)
	assert.Equal(t, 50.0, report.ConcordanceRate())
}

func TestReconcile_FeedsDensityMap(t *testing.T) {
	s := surface.New()
	b, c := pair(1, 100, 300)
	Reconcile(Input{Benchmark: []BenchmarkRecord{b}, Calculated: []calc.Result{c}, Surface: s})

	rec, ok := s.Density(synapse.Signature("reconciliation", string(ClassUnclassified), "0"))
	require.True(t, ok)
	assert.Equal(t, 0.3, rec.Confidence)
	assert.Equal(t, 1, rec.Observations)
}

func TestReconcile_Checkpoints(t *testing.T) {
	var benchmark []BenchmarkRecord
	var calculated []calc.Result
	for i := 0; i < 10; i++ {
		b, c := pair(i, 100, 100)
		benchmark = append(benchmark, b, BenchmarkRecord{ExternalID: b.ExternalID, ComponentIndex: 1, Expected: 5})
		calculated = append(calculated, c, calc.Result{EntityID: c.EntityID, ExternalID: c.ExternalID, ComponentIndex: 1, Value: 5})
	}

	var calls []int
	Reconcile(Input{
		Benchmark:       benchmark,
		Calculated:      calculated,
		Surface:         surface.New(),
		CheckpointEvery: 4,
		Checkpoint:      func(n int) { calls = append(calls, n) },
	})

	assert.Equal(t, []int{4, 8}, calls)
}

func TestReconcile_CheckpointSeesRunningCorrections(t *testing.T) {
	var benchmark []BenchmarkRecord
	var calculated []calc.Result
	for i := 0; i < 4; i++ {
		b, c := pair(i, 100, 300)
		benchmark = append(benchmark, b)
		calculated = append(calculated, c)
	}

	s := surface.New()
	var seen []int
	Reconcile(Input{
		Benchmark:       benchmark,
		Calculated:      calculated,
		Surface:         s,
		CheckpointEvery: 2,
		Checkpoint:      func(int) { seen = append(seen, s.Stats().CorrectionCount) },
	})

	assert.Equal(t, []int{2, 4}, seen)
}

func TestReconcile_NilSurfaceDegrades(t *testing.T) {
	b, c := pair(1, 100, 300)
	report := Reconcile(Input{Benchmark: []BenchmarkRecord{b}, Calculated: []calc.Result{c}})

	assert.Equal(t, ClassUnclassified, report.Findings[0].Classification)
	assert.Equal(t, 0, report.CorrectionsWritten)
}

func TestDetectFalseGreens(t *testing.T) {
	offsetting := []Finding{
		{ExternalID: "X1", ComponentIndex: 0, Delta: 500, AbsDelta: 500, Classification: ClassUnclassified},
		{ExternalID: "X1", ComponentIndex: 1, Delta: -500, AbsDelta: 500, Classification: ClassUnclassified},
	}
	assert.True(t, DetectFalseGreens(offsetting))

	greens := FindFalseGreens(offsetting)
	require.Len(t, greens, 1)
	assert.Equal(t, FalseGreen{ExternalID: "X1", Components: 2, TotalDelta: 0, ComponentAbsDelta: 1000}, greens[0])

	exact := []Finding{{ExternalID: "X1", Classification: ClassMatch}}
	assert.False(t, DetectFalseGreens(exact))

	small := []Finding{
		{ExternalID: "X1", Delta: 40, AbsDelta: 40, Classification: ClassUnclassified},
		{ExternalID: "X1", Delta: -40, AbsDelta: 40, Classification: ClassUnclassified},
	}
	assert.False(t, DetectFalseGreens(small))

	notCancelling := []Finding{
		{ExternalID: "X1", Delta: 500, AbsDelta: 500, Classification: ClassUnclassified},
		{ExternalID: "X1", Delta: -400, AbsDelta: 400, Classification: ClassUnclassified},
	}
	assert.False(t, DetectFalseGreens(notCancelling))
}

func TestReconcile_ReportsFalseGreen(t *testing.T) {
	report := Reconcile(Input{
		Benchmark: []BenchmarkRecord{
			{ExternalID: "X1", ComponentIndex: 0, Expected: 1000},
			{ExternalID: "X1", ComponentIndex: 1, Expected: 1000},
		},
		Calculated: []calc.Result{
			{EntityID: "E1", ExternalID: "X1", ComponentIndex: 0, Value: 1500},
			{EntityID: "E1", ExternalID: "X1", ComponentIndex: 1, Value: 500},
		},
		Surface: surface.New(),
	})

	assert.True(t, report.FalseGreen)
	require.Len(t, report.FalseGreens, 1)
	assert.Equal(t, "X1", report.FalseGreens[0].ExternalID)
}

func TestReconcile_Scale(t *testing.T) {
	const n = 1000
	benchmark := make([]BenchmarkRecord, 0, n)
	calculated := make([]calc.Result, 0, n)
	traces := make([]calc.ExecutionTrace, 0, n)
	for i := 0; i < n; i++ {
		value := 1000.0
		if i%2 == 1 {
			value = 1500
		}
		b, c := pair(i, 1000, value)
		benchmark = append(benchmark, b)
		calculated = append(calculated, c)
		traces = append(traces, calc.ExecutionTrace{EntityID: c.EntityID, Outcome: value, Confidence: 0.9})
	}

	s := surface.New()
	calc.EmitTraceSynapses(s, traces)

	start := time.Now()
	report := Reconcile(Input{
		Benchmark:  benchmark,
		Calculated: calculated,
		Traces:     calc.IndexTraces(traces),
		Surface:    s,
	})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Len(t, report.Findings, n)
	assert.Equal(t, n/2, report.ClassificationCounts[ClassMatch])
	assert.Equal(t, n/2, report.ClassificationCounts[ClassDataDivergence])
	assert.Equal(t, n/2, report.CorrectionsWritten)
}

func TestClassification_Valid(t *testing.T) {
	for _, c := range Classifications {
		assert.True(t, c.Valid())
	}
	assert.False(t, Classification("drift").Valid())
	assert.False(t, ClassMatch.NeedsCorrection())
	assert.False(t, ClassRounding.NeedsCorrection())
	assert.True(t, ClassScopeMismatch.NeedsCorrection())
}

func TestMentionsBoundary(t *testing.T) {
	assert.True(t, mentionsBoundary("Boundary edge on tier 2"))
	assert.False(t, mentionsBoundary("outlier"))
}

func TestReconcile_BeforeEntityOncePerEntity(t *testing.T) {
	b1, c1 := pair(1, 100, 100)
	b2, c2 := pair(2, 100, 100)
	benchmark := []BenchmarkRecord{b1, {ExternalID: "X1", ComponentIndex: 1, Expected: 5}, b2, {ExternalID: "X9", Expected: 1}}
	calculated := []calc.Result{c1, {EntityID: "E1", ExternalID: "X1", ComponentIndex: 1, Value: 5}, c2}

	var calls []string
	Reconcile(Input{
		Benchmark:    benchmark,
		Calculated:   calculated,
		Surface:      surface.New(),
		BeforeEntity: func(id string) { calls = append(calls, id) },
	})

	assert.Equal(t, []string{"E1", "E2"}, calls)
}

func TestReconcile_BeforeEntitySignalsAreClassified(t *testing.T) {
	b, c := pair(1, 150, 200)
	s := surface.New()
	report := Reconcile(Input{
		Benchmark:  []BenchmarkRecord{b},
		Calculated: []calc.Result{c},
		Surface:    s,
		BeforeEntity: func(id string) {
			s.Write(synapse.Synapse{Type: synapse.TypeAnomaly, EntityID: id, Value: 0.4, Detail: "boundary:row=2"})
		},
	})

	require.Len(t, report.Findings, 1)
	assert.Equal(t, ClassLogicDivergence, report.Findings[0].Classification)
}
