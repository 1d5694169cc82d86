package surface

import (
	"fmt"
	"sort"

	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Stats is the running aggregate over every synapse written to a Surface.
// It is updated inside Write and never recomputed.
type Stats struct {
	TotalSynapsesWritten int     `json:"total_synapses_written"`
	AnomalyCount         int     `json:"anomaly_count"`
	CorrectionCount      int     `json:"correction_count"`
	ConfidenceCount      int     `json:"confidence_count"`
	DataQualityCount     int     `json:"data_quality_count"`
	ResolutionHintCount  int     `json:"resolution_hint_count"`
	PatternCount         int     `json:"pattern_count"`
	ConfidenceSum        float64 `json:"confidence_sum"`
	EntitiesTouched      int     `json:"entities_touched"`
}

// Count returns the number of synapses of type t written so far.
func (s Stats) Count(t synapse.Type) int {
	switch t {
	case synapse.TypeAnomaly:
		return s.AnomalyCount
	case synapse.TypeCorrection:
		return s.CorrectionCount
	case synapse.TypeConfidence:
		return s.ConfidenceCount
	case synapse.TypeDataQuality:
		return s.DataQualityCount
	case synapse.TypeResolutionHint:
		return s.ResolutionHintCount
	case synapse.TypePattern:
		return s.PatternCount
	}
	return 0
}

// AverageConfidence returns the mean value of all confidence synapses.
// ok is false when none have been written.
func (s Stats) AverageConfidence() (avg float64, ok bool) {
	if s.ConfidenceCount == 0 {
		return 0, false
	}
	return s.ConfidenceSum / float64(s.ConfidenceCount), true
}

func (s *Stats) record(syn synapse.Synapse) {
	s.TotalSynapsesWritten++
	switch syn.Type {
	case synapse.TypeAnomaly:
		s.AnomalyCount++
	case synapse.TypeCorrection:
		s.CorrectionCount++
	case synapse.TypeConfidence:
		s.ConfidenceCount++
		s.ConfidenceSum += syn.Value
	case synapse.TypeDataQuality:
		s.DataQualityCount++
	case synapse.TypeResolutionHint:
		s.ResolutionHintCount++
	case synapse.TypePattern:
		s.PatternCount++
	}
}

type entityKey struct {
	typ synapse.Type
	id  string
}

// Surface is the per-run shared event store.
type Surface struct {
	clock    *Clock
	log      []synapse.Synapse
	byType   map[synapse.Type][]int
	byEntity map[entityKey][]int
	entities map[string]struct{}
	stats    Stats

	density      map[string]DensityRecord
	learningRate float64
}

// Option configures a Surface.
type Option func(*Surface)

// WithClock stamps synapses from c instead of a fresh clock.
func WithClock(c *Clock) Option {
	return func(s *Surface) {
		s.clock = c
	}
}

// WithLearningRate sets the weight given to each new density observation.
//
// Default: 0.2 (DefaultLearningRate). Values outside (0, 1] are ignored.
func WithLearningRate(rate float64) Option {
	return func(s *Surface) {
		if rate > 0 && rate <= 1 {
			s.learningRate = rate
		}
	}
}

// WithCapacity preallocates room for n synapses.
func WithCapacity(n int) Option {
	return func(s *Surface) {
		if n > 0 {
			s.log = make([]synapse.Synapse, 0, n)
		}
	}
}

// New creates an empty Surface.
func New(opts ...Option) *Surface {
	s := &Surface{
		clock:        NewClock(),
		byType:       make(map[synapse.Type][]int, len(synapse.Types)),
		byEntity:     make(map[entityKey][]int),
		entities:     make(map[string]struct{}),
		density:      make(map[string]DensityRecord),
		learningRate: DefaultLearningRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write appends one synapse, stamping its timestamp, and returns the stored
// copy. Any caller-supplied timestamp is overwritten.
//
// Panics if the synapse type is not one of synapse.Types; writers are code in
// this module and an unknown type is a programming error.
func (s *Surface) Write(syn synapse.Synapse) synapse.Synapse {
	if !syn.Type.Valid() {
		panic(fmt.Sprintf("surface: write of unknown synapse type %q", syn.Type))
	}
	syn.Timestamp = s.clock.Next()

	idx := len(s.log)
	s.log = append(s.log, syn)
	s.byType[syn.Type] = append(s.byType[syn.Type], idx)
	if syn.EntityID != "" {
		key := entityKey{typ: syn.Type, id: syn.EntityID}
		s.byEntity[key] = append(s.byEntity[key], idx)
		if _, seen := s.entities[syn.EntityID]; !seen {
			s.entities[syn.EntityID] = struct{}{}
			s.stats.EntitiesTouched++
		}
	}
	s.stats.record(syn)
	return syn
}

// Read returns the synapses of type t within scope, in write order.
func (s *Surface) Read(t synapse.Type, scope synapse.Scope) []synapse.Synapse {
	return s.collect(s.indexFor(t, scope))
}

// ReadRun returns every synapse of type t in the run.
func (s *Surface) ReadRun(t synapse.Type) []synapse.Synapse {
	return s.Read(t, synapse.RunScope())
}

// ReadEntity returns the synapses of type t written for entityID.
func (s *Surface) ReadEntity(t synapse.Type, entityID string) []synapse.Synapse {
	return s.Read(t, synapse.EntityScope(entityID))
}

// Count returns how many synapses Read(t, scope) would return without
// copying them.
func (s *Surface) Count(t synapse.Type, scope synapse.Scope) int {
	return len(s.indexFor(t, scope))
}

// All returns the complete log in write order.
func (s *Surface) All() []synapse.Synapse {
	out := make([]synapse.Synapse, len(s.log))
	copy(out, s.log)
	return out
}

// Since returns the synapses written after the logical timestamp seq.
func (s *Surface) Since(seq int64) []synapse.Synapse {
	i := sort.Search(len(s.log), func(i int) bool {
		return s.log[i].Timestamp > seq
	})
	out := make([]synapse.Synapse, len(s.log)-i)
	copy(out, s.log[i:])
	return out
}

// Len returns the number of synapses written.
func (s *Surface) Len() int {
	return len(s.log)
}

// Stats returns a copy of the running aggregate.
func (s *Surface) Stats() Stats {
	return s.stats
}

func (s *Surface) indexFor(t synapse.Type, scope synapse.Scope) []int {
	if scope.Kind == synapse.ScopeEntity {
		return s.byEntity[entityKey{typ: t, id: scope.EntityID}]
	}
	return s.byType[t]
}

func (s *Surface) collect(idx []int) []synapse.Synapse {
	if len(idx) == 0 {
		return nil
	}
	out := make([]synapse.Synapse, len(idx))
	for i, j := range idx {
		out[i] = s.log[j]
	}
	return out
}
