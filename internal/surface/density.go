package surface

import "sort"

// DefaultLearningRate is the weight of a new observation in a density record.
const DefaultLearningRate = 0.2

// DensityRecord is the learned confidence for one pattern signature.
type DensityRecord struct {
	Signature    string  `json:"signature"`
	Confidence   float64 `json:"confidence"`
	Observations int     `json:"observations"`

	// LastSeen is the surface timestamp current when the record was last
	// observed. Seeded records keep the value they were persisted with.
	LastSeen int64 `json:"last_seen"`
}

// Observe folds one confidence observation into the record for signature and
// returns the updated record. The first observation sets the confidence
// directly; later ones move it by the learning rate.
func (s *Surface) Observe(signature string, confidence float64) DensityRecord {
	rec, ok := s.density[signature]
	if !ok {
		rec = DensityRecord{Signature: signature, Confidence: clamp01(confidence)}
	} else {
		rec.Confidence = clamp01(rec.Confidence + s.learningRate*(confidence-rec.Confidence))
	}
	rec.Observations++
	rec.LastSeen = s.clock.Current()
	s.density[signature] = rec
	return rec
}

// Density returns the record for signature.
func (s *Surface) Density(signature string) (DensityRecord, bool) {
	rec, ok := s.density[signature]
	return rec, ok
}

// SeedDensity loads records learned by earlier runs. Existing records with the
// same signature are replaced.
func (s *Surface) SeedDensity(records []DensityRecord) {
	for _, rec := range records {
		if rec.Signature == "" {
			continue
		}
		s.density[rec.Signature] = rec
	}
}

// DensitySnapshot returns every density record sorted by signature.
func (s *Surface) DensitySnapshot() []DensityRecord {
	out := make([]DensityRecord, 0, len(s.density))
	for _, rec := range s.density {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Signature < out[j].Signature
	})
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
