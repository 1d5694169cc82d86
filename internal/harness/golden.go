package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Snapshot renders the parts of a result that describe engine behaviour as
// stable text: classifications, root causes, Surface counts and which
// insights fired. Generated ids and free-text messages are left out so the
// snapshot only changes when behaviour does.
func Snapshot(r *Result) []byte {
	out := r.Outcome
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(&b, "batch: %s tenant: %s\n", out.BatchID, out.TenantID)
	fmt.Fprintf(&b, "emitted: confidence=%d data_quality=%d anomaly=%d\n",
		out.Emitted.Confidence, out.Emitted.DataQuality, out.Emitted.Anomaly)

	b.WriteString("findings:\n")
	for _, f := range out.Reconciliation.Findings {
		fmt.Fprintf(&b, "  %s/%d %s delta=%s\n",
			f.ExternalID, f.ComponentIndex, f.Classification, synapse.FormatNumber(f.Delta))
	}
	fmt.Fprintf(&b, "false_green: %t\n", out.Reconciliation.FalseGreen)
	fmt.Fprintf(&b, "corrections: %d\n", out.Reconciliation.CorrectionsWritten)

	b.WriteString("investigations:\n")
	for _, inv := range out.Investigations {
		fmt.Fprintf(&b, "  %s %s %s %s confidence=%s\n",
			inv.Dispute.DisputeID, inv.Dispute.EntityID,
			inv.RootCause.Classification, inv.Recommendation.Action,
			synapse.FormatNumber(inv.RootCause.Confidence))
	}

	b.WriteString("patterns:\n")
	for _, p := range out.Patterns {
		fmt.Fprintf(&b, "  %s count=%d\n", p.Classification, p.Count)
	}

	b.WriteString("synapses:")
	for _, t := range synapse.Types {
		fmt.Fprintf(&b, " %s=%d", t, out.Stats.Count(t))
	}
	fmt.Fprintf(&b, " total=%d\n", out.Stats.TotalSynapsesWritten)

	b.WriteString("insights:\n")
	for _, i := range out.Analysis.Insights {
		fmt.Fprintf(&b, "  %s %s %s\n", i.Category, i.Severity, i.Metric)
	}
	a := out.Analysis
	fmt.Fprintf(&b, "alerts: %d coaching_actions: %d governance_flags: %d growth_signals: %d inline: %d\n",
		len(a.Alerts), len(a.CoachingActions), len(a.GovernanceFlags), len(a.GrowthSignals), len(a.InlineInsights))

	b.WriteString("personas:")
	for _, p := range insight.Personas {
		fmt.Fprintf(&b, " %s=%d", p, len(r.Views[p].Insights))
	}
	b.WriteString("\n")

	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a
// golden file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
