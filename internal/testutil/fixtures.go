package testutil

import "github.com/CCAFRICA/spm-platform-sub001/internal/calc"

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// EdgeLookup returns a row lookup whose resolved value sits on the band's
// maximum.
func EdgeLookup(lo, hi float64, matched int) *calc.LookupResolution {
	return &calc.LookupResolution{
		Row: &calc.Boundary{Min: lo, Max: hi, MatchedIndex: matched, Value: Float(hi)},
	}
}

// InteriorLookup returns a row lookup whose resolved value sits strictly
// inside the band.
func InteriorLookup(lo, hi float64, matched int) *calc.LookupResolution {
	return &calc.LookupResolution{
		Row: &calc.Boundary{Min: lo, Max: hi, MatchedIndex: matched, Value: Float((lo + hi) / 2)},
	}
}

// Trace builds a single-component trace.
func Trace(entityID string, component int, outcome, confidence float64) calc.ExecutionTrace {
	return calc.ExecutionTrace{
		EntityID:       entityID,
		ComponentIndex: component,
		Inputs:         calc.NewInputs("attainment", outcome),
		Outcome:        outcome,
		Confidence:     confidence,
	}
}
