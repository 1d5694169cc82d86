package insight

import "fmt"

// Persona is an audience for a FullAnalysis.
type Persona string

const (
	PersonaAdmin   Persona = "admin"
	PersonaManager Persona = "manager"
	PersonaRep     Persona = "rep"
)

// Personas lists every audience.
var Personas = []Persona{PersonaAdmin, PersonaManager, PersonaRep}

// ParsePersona converts s to a Persona.
func ParsePersona(s string) (Persona, error) {
	switch p := Persona(s); p {
	case PersonaAdmin, PersonaManager, PersonaRep:
		return p, nil
	}
	return "", fmt.Errorf("unknown persona %q (want admin, manager or rep)", s)
}

// PersonaView is the part of a FullAnalysis one audience sees. Collections
// the audience does not receive are empty.
type PersonaView struct {
	Persona         Persona          `json:"persona"`
	BatchID         string           `json:"batch_id"`
	Summary         *RunSummary      `json:"summary,omitempty"`
	Insights        []Insight        `json:"insights"`
	Alerts          []Alert          `json:"alerts"`
	CoachingActions []CoachingAction `json:"coaching_actions"`
	GovernanceFlags []GovernanceFlag `json:"governance_flags"`
	GrowthSignals   []GrowthSignal   `json:"growth_signals"`
}

// RouteToPersona filters a for persona p:
//
//   - admin: process and risk insights, alerts, governance flags
//   - manager: performance and data_quality insights, coaching actions
//   - rep: performance insights at info severity, growth signals
//
// Only admin and manager receive the run summary. An unknown persona gets
// an empty view.
func RouteToPersona(a FullAnalysis, p Persona) PersonaView {
	v := PersonaView{
		Persona:         p,
		BatchID:         a.BatchID,
		Insights:        []Insight{},
		Alerts:          []Alert{},
		CoachingActions: []CoachingAction{},
		GovernanceFlags: []GovernanceFlag{},
		GrowthSignals:   []GrowthSignal{},
	}
	switch p {
	case PersonaAdmin:
		summary := a.Summary
		v.Summary = &summary
		v.Insights = filterInsights(a.Insights, func(i Insight) bool {
			return i.Category == CategoryProcess || i.Category == CategoryRisk
		})
		v.Alerts = append(v.Alerts, a.Alerts...)
		v.GovernanceFlags = append(v.GovernanceFlags, a.GovernanceFlags...)
	case PersonaManager:
		summary := a.Summary
		v.Summary = &summary
		v.Insights = filterInsights(a.Insights, func(i Insight) bool {
			return i.Category == CategoryPerformance || i.Category == CategoryDataQuality
		})
		v.CoachingActions = append(v.CoachingActions, a.CoachingActions...)
	case PersonaRep:
		v.Insights = filterInsights(a.Insights, func(i Insight) bool {
			return i.Category == CategoryPerformance && i.Severity == SeverityInfo
		})
		v.GrowthSignals = append(v.GrowthSignals, a.GrowthSignals...)
	}
	return v
}

func filterInsights(in []Insight, keep func(Insight) bool) []Insight {
	out := []Insight{}
	for _, i := range in {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}
