package harness

import (
	"fmt"
	"sort"

	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Check    string // Expectation name, e.g. "classifications.match"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Check, e.Expected, e.Actual)
}

// EvaluateExpectations checks every set expectation against out and the
// persona views. Returns one message per failure, in a stable order.
func EvaluateExpectations(exp Expectations, out batch.Outcome, views map[insight.Persona]insight.PersonaView) []string {
	var errs []error
	errs = append(errs, checkClassifications(exp, out.Reconciliation)...)

	if exp.FalseGreen != nil && *exp.FalseGreen != out.Reconciliation.FalseGreen {
		errs = append(errs, mismatch("false_green", *exp.FalseGreen, out.Reconciliation.FalseGreen))
	}
	if exp.CorrectionsWritten != nil && *exp.CorrectionsWritten != out.Reconciliation.CorrectionsWritten {
		errs = append(errs, mismatch("corrections_written", *exp.CorrectionsWritten, out.Reconciliation.CorrectionsWritten))
	}

	errs = append(errs, checkInvestigations(exp, out)...)
	errs = append(errs, checkPatterns(exp, out)...)

	for _, t := range sortedKeys(exp.Synapses) {
		want := exp.Synapses[t]
		got := out.Stats.Count(synapse.Type(t))
		if want != got {
			errs = append(errs, mismatch("synapses."+t, want, got))
		}
	}

	errs = append(errs, checkInsights(exp, out.Analysis)...)
	errs = append(errs, checkPersonas(exp, views)...)

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}

func checkClassifications(exp Expectations, rep reconcile.Report) []error {
	var errs []error
	for _, class := range sortedKeys(exp.Classifications) {
		want := exp.Classifications[class]
		got := rep.ClassificationCounts[reconcile.Classification(class)]
		if want != got {
			errs = append(errs, mismatch("classifications."+class, want, got))
		}
	}
	return errs
}

func checkInvestigations(exp Expectations, out batch.Outcome) []error {
	if len(exp.RootCauses) == 0 && len(exp.Actions) == 0 {
		return nil
	}
	causes := make(map[string]string, len(out.Investigations))
	actions := make(map[string]string, len(out.Investigations))
	for _, inv := range out.Investigations {
		causes[inv.Dispute.DisputeID] = string(inv.RootCause.Classification)
		actions[inv.Dispute.DisputeID] = string(inv.Recommendation.Action)
	}

	var errs []error
	for _, id := range sortedKeys(exp.RootCauses) {
		got, ok := causes[id]
		if !ok {
			got = "no investigation"
		}
		if want := exp.RootCauses[id]; want != got {
			errs = append(errs, mismatch("root_causes."+id, want, got))
		}
	}
	for _, id := range sortedKeys(exp.Actions) {
		got, ok := actions[id]
		if !ok {
			got = "no investigation"
		}
		if want := exp.Actions[id]; want != got {
			errs = append(errs, mismatch("actions."+id, want, got))
		}
	}
	return errs
}

func checkPatterns(exp Expectations, out batch.Outcome) []error {
	if exp.Patterns == nil {
		return nil
	}
	got := make([]string, len(out.Patterns))
	for i, p := range out.Patterns {
		got[i] = string(p.Classification)
	}
	if fmt.Sprint(got) != fmt.Sprint(exp.Patterns) {
		return []error{mismatch("patterns", exp.Patterns, got)}
	}
	return nil
}

func checkInsights(exp Expectations, a insight.FullAnalysis) []error {
	var errs []error
	present := make(map[string]bool, len(a.Insights))
	for _, i := range a.Insights {
		present[i.Metric] = true
	}
	for _, metric := range exp.Insights {
		if !present[metric] {
			errs = append(errs, &AssertionError{
				Check:    "insights",
				Expected: fmt.Sprintf("an insight on %s", metric),
				Actual:   "none",
			})
		}
	}
	if exp.Alerts != nil && *exp.Alerts != len(a.Alerts) {
		errs = append(errs, mismatch("alerts", *exp.Alerts, len(a.Alerts)))
	}
	return errs
}

func checkPersonas(exp Expectations, views map[insight.Persona]insight.PersonaView) []error {
	var errs []error
	for _, name := range sortedKeys(exp.Personas) {
		want := exp.Personas[name]
		view, ok := views[insight.Persona(name)]
		if !ok {
			errs = append(errs, &AssertionError{Check: "personas." + name, Expected: "a view", Actual: "none"})
			continue
		}
		prefix := "personas." + name + "."
		errs = appendCount(errs, prefix+"insights", want.Insights, len(view.Insights))
		errs = appendCount(errs, prefix+"alerts", want.Alerts, len(view.Alerts))
		errs = appendCount(errs, prefix+"coaching_actions", want.CoachingActions, len(view.CoachingActions))
		errs = appendCount(errs, prefix+"governance_flags", want.GovernanceFlags, len(view.GovernanceFlags))
		errs = appendCount(errs, prefix+"growth_signals", want.GrowthSignals, len(view.GrowthSignals))
		if want.Summary != nil && *want.Summary != (view.Summary != nil) {
			errs = append(errs, mismatch(prefix+"summary", *want.Summary, view.Summary != nil))
		}
	}
	return errs
}

func appendCount(errs []error, check string, want *int, got int) []error {
	if want != nil && *want != got {
		return append(errs, mismatch(check, *want, got))
	}
	return errs
}

func mismatch(check string, want, got any) error {
	return &AssertionError{
		Check:    check,
		Expected: fmt.Sprint(want),
		Actual:   fmt.Sprint(got),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
