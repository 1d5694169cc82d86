package harness

import (
	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass indicates overall success.
	// True if every expectation holds.
	Pass bool `json:"pass"`

	// Errors contains failed expectation messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Outcome is what the batch run produced.
	Outcome batch.Outcome `json:"outcome"`

	// Views holds each persona view as read back from the store.
	Views map[insight.Persona]insight.PersonaView `json:"views"`
}

// NewResult creates a new passing result.
func NewResult(name string) *Result {
	return &Result{
		Scenario: name,
		Pass:     true,
		Errors:   []string{},
		Views:    make(map[insight.Persona]insight.PersonaView),
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
