package reconcile

import "math"

const (
	// falseGreenTotalLimit is the absolute entity-level delta under which the
	// total looks reconciled.
	falseGreenTotalLimit = 1.0
	// falseGreenComponentFloor is the sum of absolute component deltas above
	// which the component errors are real.
	falseGreenComponentFloor = 100.0
)

// FindFalseGreens returns the entities whose component deltas offset each
// other: the signed total is near zero while the non-match components carry
// substantial absolute error. Only entities with at least two findings are
// considered. Results follow first-appearance order of the entity.
func FindFalseGreens(findings []Finding) []FalseGreen {
	type agg struct {
		count int
		total float64
		abs   float64
	}
	byEntity := make(map[string]*agg)
	var order []string
	for _, f := range findings {
		a, ok := byEntity[f.ExternalID]
		if !ok {
			a = &agg{}
			byEntity[f.ExternalID] = a
			order = append(order, f.ExternalID)
		}
		a.count++
		a.total += f.Delta
		if f.Classification != ClassMatch {
			a.abs += f.AbsDelta
		}
	}

	var out []FalseGreen
	for _, id := range order {
		a := byEntity[id]
		if a.count < 2 {
			continue
		}
		if math.Abs(a.total) < falseGreenTotalLimit && a.abs > falseGreenComponentFloor {
			out = append(out, FalseGreen{
				ExternalID:        id,
				Components:        a.count,
				TotalDelta:        a.total,
				ComponentAbsDelta: a.abs,
			})
		}
	}
	return out
}

// DetectFalseGreens reports whether any entity in findings is a false green.
func DetectFalseGreens(findings []Finding) bool {
	return len(FindFalseGreens(findings)) > 0
}
