package resolve

import "sort"

// topComponentCount is how many of the most frequent affected components a
// pattern reports.
const topComponentCount = 3

var patternRecommendations = map[RootCauseClass]string{
	CauseDataError:               "Recurring data errors: audit the upstream import for the affected components before the next run.",
	CauseBoundaryEdge:            "Recurring boundary edges: clarify whether tier boundaries are inclusive and restate the lookup tables.",
	CauseLogicError:              "Recurring logic errors: review the rule configuration for the affected components.",
	CauseInterpretationAmbiguity: "Recurring ambiguity: tighten the plan language or the input mapping for the affected components.",
	CauseNoErrorFound:            "Recurring disputes without errors: publish calculation statements so payees can self-verify.",
}

// DetectResolutionPatterns groups investigations with a default Engine.
func DetectResolutionPatterns(investigations []Investigation) []Pattern {
	return New().DetectPatterns(investigations)
}

// DetectPatterns groups investigations by root-cause classification. Each
// group with at least the configured minimum members becomes a Pattern.
// Patterns are ordered by descending count, then by first appearance.
func (e *Engine) DetectPatterns(investigations []Investigation) []Pattern {
	groups := make(map[RootCauseClass][]Investigation)
	var order []RootCauseClass
	for _, inv := range investigations {
		class := inv.RootCause.Classification
		if _, ok := groups[class]; !ok {
			order = append(order, class)
		}
		groups[class] = append(groups[class], inv)
	}

	var patterns []Pattern
	for _, class := range order {
		members := groups[class]
		if len(members) < e.patternMinMembers {
			continue
		}
		freq := make(map[int]int)
		ids := make([]string, 0, len(members))
		for _, inv := range members {
			ids = append(ids, inv.Dispute.DisputeID)
			for _, c := range inv.RootCause.AffectedComponents {
				freq[c]++
			}
		}
		patterns = append(patterns, Pattern{
			Classification:   class,
			Count:            len(members),
			DisputeIDs:       ids,
			CommonComponents: topComponents(freq, topComponentCount),
			Recommendation:   patternRecommendations[class],
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})

	for _, p := range patterns {
		e.logger.Info("resolution pattern detected",
			"root_cause", p.Classification,
			"count", p.Count,
			"components", p.CommonComponents,
		)
	}
	return patterns
}

// topComponents returns up to n component indices by descending frequency,
// ties broken by ascending index.
func topComponents(freq map[int]int, n int) []int {
	out := make([]int, 0, len(freq))
	for c := range freq {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if freq[out[i]] != freq[out[j]] {
			return freq[out[i]] > freq[out[j]]
		}
		return out[i] < out[j]
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
