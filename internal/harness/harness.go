package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/store"
	"github.com/CCAFRICA/spm-platform-sub001/internal/testutil"
)

// Harness runs scenarios. Each scenario gets a fresh in-memory store and a
// fresh ID sequence, so repeated runs produce identical outcomes.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger passed to the batch runner. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run executes a scenario and evaluates its expectations.
//
// Execution flow:
//  1. Resolve thresholds from the scenario's config overrides
//  2. Open a fresh in-memory store
//  3. Run the batch through batch.Runner with sequential IDs
//  4. Read every persona view back from the store
//  5. Evaluate expectations
//
// An error means the scenario could not run. Failed expectations are
// reported in Result.Errors.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := scenario.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runner := batch.NewRunner(
		batch.WithStore(st),
		batch.WithConfig(cfg),
		batch.WithIDGenerator(testutil.NewSequenceIDs("id")),
		batch.WithLogger(h.logger),
	)
	out, err := runner.Run(ctx, scenario.Batch)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	result.Outcome = out
	for _, p := range insight.Personas {
		view, err := st.LoadPersonaView(ctx, out.BatchID, p)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		result.Views[p] = view
	}

	for _, msg := range EvaluateExpectations(scenario.Expect, out, result.Views) {
		result.AddError(msg)
	}

	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"batch_id", out.BatchID,
		"pass", result.Pass,
		"failures", len(result.Errors),
	)
	return result, nil
}
