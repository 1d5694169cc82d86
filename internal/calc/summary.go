package calc

import "sort"

// EntityOutcome is an entity's total outcome across its components.
type EntityOutcome struct {
	EntityID   string  `json:"entity_id" yaml:"entity_id"`
	ExternalID string  `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Outcome    float64 `json:"outcome" yaml:"outcome"`
}

// CalculationSummary is the caller-supplied overview of a calculation run.
type CalculationSummary struct {
	EntityCount      int     `json:"entity_count" yaml:"entity_count"`
	ComponentCount   int     `json:"component_count" yaml:"component_count"`
	TotalOutcome     float64 `json:"total_outcome" yaml:"total_outcome"`
	AverageOutcome   float64 `json:"average_outcome" yaml:"average_outcome"`
	MedianOutcome    float64 `json:"median_outcome" yaml:"median_outcome"`
	ZeroOutcomeCount int     `json:"zero_outcome_count" yaml:"zero_outcome_count"`

	// ConcordanceRate is the percentage (0-100) of outcomes that agree with
	// the benchmark.
	ConcordanceRate float64 `json:"concordance_rate" yaml:"concordance_rate"`

	// TopEntities is ranked by descending outcome, BottomEntities by
	// ascending outcome.
	TopEntities    []EntityOutcome `json:"top_entities,omitempty" yaml:"top_entities,omitempty"`
	BottomEntities []EntityOutcome `json:"bottom_entities,omitempty" yaml:"bottom_entities,omitempty"`
}

// DefaultTopN is the length of the ranked lists BuildSummary produces when
// topN is not positive.
const DefaultTopN = 5

// BuildSummary aggregates calculated results into a CalculationSummary.
// Results are summed per entity id; ties in the ranked lists are broken by
// entity id so the output is deterministic.
func BuildSummary(results []Result, concordanceRate float64, topN int) CalculationSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}

	totals := make(map[string]*EntityOutcome)
	var order []string
	components := make(map[int]struct{})
	for _, r := range results {
		components[r.ComponentIndex] = struct{}{}
		eo, ok := totals[r.EntityID]
		if !ok {
			eo = &EntityOutcome{EntityID: r.EntityID, ExternalID: r.ExternalID}
			totals[r.EntityID] = eo
			order = append(order, r.EntityID)
		}
		eo.Outcome += r.Value
	}

	sum := CalculationSummary{
		EntityCount:     len(order),
		ComponentCount:  len(components),
		ConcordanceRate: concordanceRate,
	}
	if len(order) == 0 {
		return sum
	}

	ranked := make([]EntityOutcome, 0, len(order))
	for _, id := range order {
		eo := *totals[id]
		ranked = append(ranked, eo)
		sum.TotalOutcome += eo.Outcome
		if eo.Outcome == 0 {
			sum.ZeroOutcomeCount++
		}
	}
	sum.AverageOutcome = sum.TotalOutcome / float64(len(ranked))

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Outcome != ranked[j].Outcome {
			return ranked[i].Outcome > ranked[j].Outcome
		}
		return ranked[i].EntityID < ranked[j].EntityID
	})

	n := len(ranked)
	if n%2 == 1 {
		sum.MedianOutcome = ranked[n/2].Outcome
	} else {
		sum.MedianOutcome = (ranked[n/2-1].Outcome + ranked[n/2].Outcome) / 2
	}

	k := min(topN, n)
	sum.TopEntities = append([]EntityOutcome(nil), ranked[:k]...)
	sum.BottomEntities = make([]EntityOutcome, 0, k)
	for i := n - 1; i >= n-k; i-- {
		sum.BottomEntities = append(sum.BottomEntities, ranked[i])
	}
	return sum
}
