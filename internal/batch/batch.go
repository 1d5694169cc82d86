package batch

import (
	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// DefaultTenant is used when a batch names no tenant.
const DefaultTenant = "default"

// Batch is the input to one run.
type Batch struct {
	ID         string                      `json:"id" yaml:"id"`
	TenantID   string                      `json:"tenant_id" yaml:"tenant_id"`
	Benchmark  []reconcile.BenchmarkRecord `json:"benchmark" yaml:"benchmark"`
	Calculated []calc.Result               `json:"calculated" yaml:"calculated"`
	Traces     []calc.ExecutionTrace       `json:"traces" yaml:"traces"`
	Disputes   []resolve.DisputeContext    `json:"disputes" yaml:"disputes"`

	// Signals are synapses written before trace emission, for signals a
	// caller already knows about.
	Signals []synapse.Synapse `json:"signals,omitempty" yaml:"signals,omitempty"`

	// Summary overrides the summary built from Calculated.
	Summary *calc.CalculationSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Outcome is everything one run produced.
type Outcome struct {
	BatchID        string                  `json:"batch_id"`
	TenantID       string                  `json:"tenant_id"`
	Emitted        calc.EmitCounts         `json:"emitted"`
	Reconciliation reconcile.Report        `json:"reconciliation"`
	InlineInsights []insight.InlineInsight `json:"inline_insights"`
	Investigations []resolve.Investigation `json:"investigations"`
	Patterns       []resolve.Pattern       `json:"patterns"`
	Summary        calc.CalculationSummary `json:"summary"`
	Analysis       insight.FullAnalysis    `json:"analysis"`
	Stats          surface.Stats           `json:"stats"`
	Synapses       []synapse.Synapse       `json:"-"`
	Density        []surface.DensityRecord `json:"density"`
	Persisted      bool                    `json:"persisted"`
}
