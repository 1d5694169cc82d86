package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/CCAFRICA/spm-platform-sub001/internal/calc"
	"github.com/CCAFRICA/spm-platform-sub001/internal/config"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/store"
	"github.com/CCAFRICA/spm-platform-sub001/internal/surface"
)

// Store is the persistence the Runner needs.
type Store interface {
	SaveRun(ctx context.Context, run store.Run) error
	LoadDensity(ctx context.Context, tenantID string) ([]surface.DensityRecord, error)
	SaveDensity(ctx context.Context, tenantID string, records []surface.DensityRecord) error
}

// Runner executes batches.
type Runner struct {
	store  Store
	cfg    config.Config
	ids    insight.IDGenerator
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithStore persists each run and its density. Default: nothing is
// persisted and every run starts with an empty density map.
func WithStore(s Store) Option {
	return func(r *Runner) {
		r.store = s
	}
}

// WithConfig sets engine thresholds. Default: config.Default().
func WithConfig(cfg config.Config) Option {
	return func(r *Runner) {
		r.cfg = cfg
	}
}

// WithIDGenerator sets the generator for batch ids and analysis item ids.
//
// Default: insight.UUIDv7Generator.
func WithIDGenerator(g insight.IDGenerator) Option {
	return func(r *Runner) {
		if g != nil {
			r.ids = g
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		cfg:    config.Default(),
		ids:    insight.UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one batch. Engine calls are serialized on a Surface owned by
// this call; the Surface is discarded when Run returns.
//
// Errors come only from the context and the store. The engines themselves
// never fail.
func (r *Runner) Run(ctx context.Context, b Batch) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("run batch: %w", err)
	}
	if b.ID == "" {
		b.ID = r.ids.Generate()
	}
	if b.TenantID == "" {
		b.TenantID = DefaultTenant
	}
	log := r.logger.With("batch_id", b.ID, "tenant_id", b.TenantID)

	s := surface.New(
		surface.WithLearningRate(r.cfg.Density.LearningRate),
		surface.WithCapacity(2*len(b.Traces)+len(b.Benchmark)+len(b.Disputes)),
	)

	if r.store != nil {
		seed, err := r.store.LoadDensity(ctx, b.TenantID)
		if err != nil {
			return Outcome{}, fmt.Errorf("run batch %s: %w", b.ID, err)
		}
		s.SeedDensity(seed)
		log.Debug("density seeded", "records", len(seed))
	}

	for i, sig := range b.Signals {
		if !sig.Type.Valid() {
			return Outcome{}, fmt.Errorf("run batch %s: signals[%d]: unknown synapse type %q", b.ID, i, sig.Type)
		}
	}
	for _, sig := range b.Signals {
		s.Write(sig)
	}

	// Trace synapses for an entity are written when reconciliation reaches
	// it, so checkpoint rates divide counts and entities over the same set.
	traces := calc.IndexTraces(b.Traces)
	var emitted calc.EmitCounts
	emittedFor := make(map[string]bool, len(traces))
	emit := func(entityID string) {
		if emittedFor[entityID] {
			return
		}
		emittedFor[entityID] = true
		emitted.Add(calc.EmitTraceSynapses(s, traces.For(entityID)))
	}

	ie := insight.New(
		insight.WithConfig(r.cfg.Insight),
		insight.WithIDGenerator(r.ids),
		insight.WithLogger(r.logger),
	)
	inline := []insight.InlineInsight{}

	report := reconcile.New(reconcile.WithLogger(r.logger)).Reconcile(reconcile.Input{
		TenantID:     b.TenantID,
		BatchID:      b.ID,
		Benchmark:    b.Benchmark,
		Calculated:   b.Calculated,
		Traces:       traces,
		Surface:      s,
		Tolerance:    r.cfg.Reconciliation.Tolerance,
		BeforeEntity: emit,
		Checkpoint: func(processed int) {
			inline = append(inline, ie.CheckInline(s, processed)...)
		},
		CheckpointEvery: r.cfg.Reconciliation.CheckpointEvery,
	})

	// Traces of entities without a calculated result are still evidence for
	// Resolution.
	for _, tr := range b.Traces {
		emit(tr.EntityID)
	}

	resolver := resolve.New(
		resolve.WithLogger(r.logger),
		resolve.WithPatternMinMembers(r.cfg.Resolution.PatternMinMembers),
	)
	investigations := make([]resolve.Investigation, 0, len(b.Disputes))
	for _, d := range b.Disputes {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("run batch %s: %w", b.ID, err)
		}
		if d.TenantID == "" {
			d.TenantID = b.TenantID
		}
		if d.BatchID == "" {
			d.BatchID = b.ID
		}
		investigations = append(investigations, resolver.Investigate(d, traces.For(d.EntityID), s))
	}
	patterns := resolver.DetectPatterns(investigations)
	if patterns == nil {
		patterns = []resolve.Pattern{}
	}

	var summary calc.CalculationSummary
	if b.Summary != nil {
		summary = *b.Summary
	} else {
		summary = calc.BuildSummary(b.Calculated, concordance(report), calc.DefaultTopN)
	}

	analysis := ie.Analyze(b.ID, s, summary, inline)

	out := Outcome{
		BatchID:        b.ID,
		TenantID:       b.TenantID,
		Emitted:        emitted,
		Reconciliation: report,
		InlineInsights: inline,
		Investigations: investigations,
		Patterns:       patterns,
		Summary:        summary,
		Analysis:       analysis,
		Stats:          s.Stats(),
		Synapses:       s.All(),
		Density:        s.DensitySnapshot(),
	}

	if r.store != nil {
		if err := r.persist(ctx, out); err != nil {
			return Outcome{}, err
		}
		out.Persisted = true
	}

	log.Info("batch complete",
		"findings", len(report.Findings),
		"corrections", report.CorrectionsWritten,
		"investigations", len(investigations),
		"patterns", len(patterns),
		"insights", len(analysis.Insights),
		"synapses", out.Stats.TotalSynapsesWritten,
	)
	return out, nil
}

func (r *Runner) persist(ctx context.Context, out Outcome) error {
	err := r.store.SaveRun(ctx, store.Run{
		BatchID:        out.BatchID,
		TenantID:       out.TenantID,
		Synapses:       out.Synapses,
		Reconciliation: out.Reconciliation,
		Investigations: out.Investigations,
		Patterns:       out.Patterns,
		Analysis:       out.Analysis,
	})
	if err != nil {
		return fmt.Errorf("persist batch %s: %w", out.BatchID, err)
	}
	if err := r.store.SaveDensity(ctx, out.TenantID, out.Density); err != nil {
		return fmt.Errorf("persist batch %s: %w", out.BatchID, err)
	}
	return nil
}

// concordance is the percentage of findings that match the benchmark. With
// nothing to compare, concordance is complete.
func concordance(report reconcile.Report) float64 {
	if len(report.Findings) == 0 {
		return 100
	}
	return report.ConcordanceRate()
}
