package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

func write(s *Surface, typ synapse.Type, entity string, comp int, value float64, detail string) synapse.Synapse {
	return s.Write(synapse.Synapse{
		Type:           typ,
		EntityID:       entity,
		ComponentIndex: comp,
		Value:          value,
		Detail:         detail,
	})
}

func TestNew_Empty(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, Stats{}, s.Stats())
	assert.Empty(t, s.ReadRun(synapse.TypeAnomaly))
	assert.Empty(t, s.All())
}

func TestWrite_StampsMonotonicTimestamps(t *testing.T) {
	s := New()
	a := write(s, synapse.TypeAnomaly, "E1", 0, 0.5, "")
	b := write(s, synapse.TypeConfidence, "E1", 0, 0.9, "")

	assert.Equal(t, int64(1), a.Timestamp)
	assert.Equal(t, int64(2), b.Timestamp)
}

func TestWrite_OverwritesCallerTimestamp(t *testing.T) {
	s := New()
	got := s.Write(synapse.Synapse{Type: synapse.TypePattern, ComponentIndex: synapse.RunLevel, Timestamp: 99})
	assert.Equal(t, int64(1), got.Timestamp)
}

func TestWrite_UnknownTypePanics(t *testing.T) {
	s := New()
	assert.Panics(t, func() {
		s.Write(synapse.Synapse{Type: "insight"})
	})
}

func TestWrite_UpdatesStatsIncrementally(t *testing.T) {
	s := New()
	write(s, synapse.TypeAnomaly, "E1", 0, 0.5, "")
	write(s, synapse.TypeAnomaly, "E2", 1, 0.5, "")
	write(s, synapse.TypeCorrection, "E1", 0, 0.25, "data_divergence:delta=10")
	write(s, synapse.TypeConfidence, "E1", 0, 0.8, "")
	write(s, synapse.TypeConfidence, "E2", 0, 0.6, "")
	write(s, synapse.TypeDataQuality, "E3", 0, 1, "")
	write(s, synapse.TypeResolutionHint, "E1", 0, 0.85, "data_error:approve_adjustment")
	write(s, synapse.TypePattern, "", synapse.RunLevel, 1, "anomaly_rate:0.1")

	st := s.Stats()
	assert.Equal(t, 8, st.TotalSynapsesWritten)
	assert.Equal(t, 2, st.AnomalyCount)
	assert.Equal(t, 1, st.CorrectionCount)
	assert.Equal(t, 2, st.ConfidenceCount)
	assert.Equal(t, 1, st.DataQualityCount)
	assert.Equal(t, 1, st.ResolutionHintCount)
	assert.Equal(t, 1, st.PatternCount)
	assert.Equal(t, 3, st.EntitiesTouched)

	avg, ok := st.AverageConfidence()
	require.True(t, ok)
	assert.InDelta(t, 0.7, avg, 1e-9)

	for _, typ := range synapse.Types {
		assert.Equal(t, st.Count(typ), s.Count(typ, synapse.RunScope()), "type %s", typ)
	}
}

func TestRead_ByScope(t *testing.T) {
	s := New()
	write(s, synapse.TypeAnomaly, "E1", 0, 0.5, "first")
	write(s, synapse.TypeAnomaly, "E2", 0, 0.5, "other")
	write(s, synapse.TypeCorrection, "E1", 0, 0.5, "")
	write(s, synapse.TypeAnomaly, "E1", 2, 0.5, "second")

	run := s.ReadRun(synapse.TypeAnomaly)
	require.Len(t, run, 3)

	e1 := s.ReadEntity(synapse.TypeAnomaly, "E1")
	require.Len(t, e1, 2)
	assert.Equal(t, "first", e1[0].Detail)
	assert.Equal(t, "second", e1[1].Detail)

	assert.Empty(t, s.ReadEntity(synapse.TypeAnomaly, "E9"))
	assert.Equal(t, 1, s.Count(synapse.TypeCorrection, synapse.EntityScope("E1")))
}

func TestRead_ReturnsCopies(t *testing.T) {
	s := New()
	write(s, synapse.TypeAnomaly, "E1", 0, 0.5, "original")

	got := s.ReadRun(synapse.TypeAnomaly)
	got[0].Detail = "mutated"

	assert.Equal(t, "original", s.ReadRun(synapse.TypeAnomaly)[0].Detail)
	assert.Equal(t, "original", s.All()[0].Detail)
}

func TestSince(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		write(s, synapse.TypeConfidence, "E1", i, 0.9, "")
	}

	after := s.Since(3)
	require.Len(t, after, 2)
	assert.Equal(t, int64(4), after[0].Timestamp)
	assert.Len(t, s.Since(0), 5)
	assert.Empty(t, s.Since(5))
}

func TestWithClock_ResumesSequence(t *testing.T) {
	s := New(WithClock(NewClockAt(100)))
	got := write(s, synapse.TypeAnomaly, "E1", 0, 1, "")
	assert.Equal(t, int64(101), got.Timestamp)
}

func TestSurfaces_AreIndependent(t *testing.T) {
	a := New()
	b := New()
	write(a, synapse.TypeAnomaly, "E1", 0, 1, "")

	assert.Equal(t, 1, a.Stats().AnomalyCount)
	assert.Equal(t, 0, b.Stats().AnomalyCount)
	assert.Empty(t, b.ReadRun(synapse.TypeAnomaly))
}

func TestObserve_WeightsNewObservations(t *testing.T) {
	s := New(WithLearningRate(0.5))
	sig := synapse.Signature("reconciliation", "data_divergence", "0")

	first := s.Observe(sig, 0.8)
	assert.Equal(t, 0.8, first.Confidence)
	assert.Equal(t, 1, first.Observations)

	second := s.Observe(sig, 0.4)
	assert.InDelta(t, 0.6, second.Confidence, 1e-9)
	assert.Equal(t, 2, second.Observations)

	got, ok := s.Density(sig)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestSeedDensity_AndSnapshot(t *testing.T) {
	s := New()
	s.SeedDensity([]DensityRecord{
		{Signature: "b", Confidence: 0.5, Observations: 3},
		{Signature: "a", Confidence: 0.9, Observations: 1},
		{Signature: "", Confidence: 1},
	})

	snap := s.DensitySnapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Signature)
	assert.Equal(t, "b", snap[1].Signature)

	rec := s.Observe("b", 1.0)
	assert.Equal(t, 4, rec.Observations)
	assert.InDelta(t, 0.6, rec.Confidence, 1e-9)
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func BenchmarkWrite(b *testing.B) {
	s := New(WithCapacity(b.N))
	syn := synapse.Synapse{Type: synapse.TypeConfidence, EntityID: "E1", Value: 0.9}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Write(syn)
	}
}
