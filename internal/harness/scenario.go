package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/config"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// Scenario represents a batch scenario loaded from YAML.
type Scenario struct {
	// Name is the scenario identifier. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario covers.
	Description string `yaml:"description"`

	// Config overrides engine thresholds. Keys follow the thresholds file;
	// anything omitted keeps its default.
	Config map[string]any `yaml:"config,omitempty"`

	// Batch is the run input.
	Batch batch.Batch `yaml:"batch"`

	// Expect lists the checks applied to the outcome.
	Expect Expectations `yaml:"expect"`
}

// Expectations are checks against a batch outcome. Unset fields are not
// checked.
type Expectations struct {
	// Classifications maps a reconciliation class to its finding count.
	// Classes not listed are not checked.
	Classifications map[string]int `yaml:"classifications,omitempty"`

	// FalseGreen is the expected false-green flag.
	FalseGreen *bool `yaml:"false_green,omitempty"`

	// CorrectionsWritten is the expected number of correction synapses.
	CorrectionsWritten *int `yaml:"corrections_written,omitempty"`

	// RootCauses maps a dispute id to its root-cause class.
	RootCauses map[string]string `yaml:"root_causes,omitempty"`

	// Actions maps a dispute id to its recommended action.
	Actions map[string]string `yaml:"actions,omitempty"`

	// Patterns lists the pattern classes in output order.
	Patterns []string `yaml:"patterns,omitempty"`

	// Synapses maps a synapse type to its count on the Surface.
	Synapses map[string]int `yaml:"synapses,omitempty"`

	// Insights lists metrics that must appear among the insights.
	Insights []string `yaml:"insights,omitempty"`

	// Alerts is the expected alert count.
	Alerts *int `yaml:"alerts,omitempty"`

	// Personas maps a persona to the item counts its view must hold.
	Personas map[string]PersonaCounts `yaml:"personas,omitempty"`
}

// PersonaCounts are expected collection sizes in a persona view.
type PersonaCounts struct {
	Insights        *int  `yaml:"insights,omitempty"`
	Alerts          *int  `yaml:"alerts,omitempty"`
	CoachingActions *int  `yaml:"coaching_actions,omitempty"`
	GovernanceFlags *int  `yaml:"governance_flags,omitempty"`
	GrowthSignals   *int  `yaml:"growth_signals,omitempty"`
	Summary         *bool `yaml:"summary,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		sc, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, sc)
	}
	return out, nil
}

// EngineConfig returns the thresholds the scenario runs with: the defaults
// with Config applied, validated against the config schema.
func (s *Scenario) EngineConfig() (config.Config, error) {
	if len(s.Config) == 0 {
		return config.Default(), nil
	}
	data, err := yaml.Marshal(s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("encode config overrides: %w", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return config.Config{}, fmt.Errorf("config overrides: %w", err)
	}
	return cfg, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\ `) {
		return fmt.Errorf("name %q must not contain spaces or path separators", s.Name)
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Batch.Benchmark) == 0 && len(s.Batch.Calculated) == 0 {
		return fmt.Errorf("batch needs benchmark or calculated records")
	}

	for i, d := range s.Batch.Disputes {
		if d.DisputeID == "" {
			return fmt.Errorf("batch.disputes[%d]: dispute_id is required", i)
		}
		if d.EntityID == "" {
			return fmt.Errorf("batch.disputes[%d]: entity_id is required", i)
		}
	}
	for i, sig := range s.Batch.Signals {
		if !sig.Type.Valid() {
			return fmt.Errorf("batch.signals[%d]: unknown synapse type %q", i, sig.Type)
		}
	}

	return validateExpectations(&s.Expect)
}

// validateExpectations rejects names outside the closed enums so a typo
// fails loudly instead of checking nothing.
func validateExpectations(e *Expectations) error {
	for class := range e.Classifications {
		if !reconcile.Classification(class).Valid() {
			return fmt.Errorf("expect.classifications: unknown class %q", class)
		}
	}
	for id, class := range e.RootCauses {
		if !resolve.RootCauseClass(class).Valid() {
			return fmt.Errorf("expect.root_causes[%s]: unknown root cause %q", id, class)
		}
	}
	for i, class := range e.Patterns {
		if !resolve.RootCauseClass(class).Valid() {
			return fmt.Errorf("expect.patterns[%d]: unknown root cause %q", i, class)
		}
	}
	for t := range e.Synapses {
		if _, err := synapse.ParseType(t); err != nil {
			return fmt.Errorf("expect.synapses: %w", err)
		}
	}
	for p := range e.Personas {
		if _, err := insight.ParsePersona(p); err != nil {
			return fmt.Errorf("expect.personas: %w", err)
		}
	}
	return nil
}
