package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CCAFRICA/spm-platform-sub001/internal/batch"
	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/store"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Config   string
	Tenant   string
	BatchID  string

	// IDGenerator allows overriding batch and analysis ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator insight.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <batch-file>",
		Short: "Run one batch through the engines",
		Long: `Run one batch through reconciliation, dispute resolution and analysis.

The batch file holds the benchmark, calculated results, execution traces and
disputes for one run, as YAML or JSON. With --db the outcome is persisted and
density learned by earlier runs of the same tenant seeds this one.

Examples:
  synaptic run ./batch.yaml
  synaptic run ./batch.yaml --db ./synaptic.db --config ./thresholds.yaml
  synaptic run ./batch.json --tenant acme --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (optional; results are not persisted without it)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to thresholds file (defaults apply when omitted)")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "tenant id (overrides the batch file)")
	cmd.Flags().StringVar(&opts.BatchID, "batch-id", "", "batch id (overrides the batch file)")

	return cmd
}

func runBatch(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	b, err := LoadBatch(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load batch", err)
	}
	if opts.Tenant != "" {
		b.TenantID = opts.Tenant
	}
	if opts.BatchID != "" {
		b.ID = opts.BatchID
	}

	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load config", err)
	}

	runnerOpts := []batch.Option{
		batch.WithConfig(cfg),
		batch.WithLogger(logger),
	}
	if opts.IDGenerator != nil {
		runnerOpts = append(runnerOpts, batch.WithIDGenerator(opts.IDGenerator))
	}
	if opts.Database != "" {
		logger.Debug("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		runnerOpts = append(runnerOpts, batch.WithStore(st))
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := batch.NewRunner(runnerOpts...).Run(ctx, b)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRunFailed, "batch run failed", err)
	}

	return formatter.Success(out, func(w io.Writer) { writeOutcomeText(w, out) })
}

// writeOutcomeText prints a human-readable summary of a run.
func writeOutcomeText(w io.Writer, out batch.Outcome) {
	rep := out.Reconciliation
	fmt.Fprintf(w, "Batch %s (tenant %s)\n", out.BatchID, out.TenantID)
	fmt.Fprintf(w, "  Entities: %d  Findings: %d  Match rate: %s%%\n",
		rep.EntityCount, len(rep.Findings), synapse.FormatNumber(roundTo(rep.MatchRate*100, 2)))
	for _, class := range reconcile.Classifications {
		if n := rep.ClassificationCounts[class]; n > 0 {
			fmt.Fprintf(w, "    %-17s %d\n", class, n)
		}
	}
	fmt.Fprintf(w, "  Corrections written: %d\n", rep.CorrectionsWritten)
	if rep.FalseGreen {
		for _, fg := range rep.FalseGreens {
			fmt.Fprintf(w, "  ! False green: %s (%d components, component error %s)\n",
				fg.ExternalID, fg.Components, synapse.FormatNumber(fg.ComponentAbsDelta))
		}
	}

	if len(out.Investigations) > 0 {
		fmt.Fprintln(w, "\nDisputes:")
		for _, inv := range out.Investigations {
			fmt.Fprintf(w, "  %s  %s -> %s (confidence %s)\n",
				inv.Dispute.DisputeID, inv.RootCause.Classification, inv.Recommendation.Action,
				synapse.FormatNumber(inv.RootCause.Confidence))
		}
	}
	for _, p := range out.Patterns {
		fmt.Fprintf(w, "  Pattern: %s x%d %v\n", p.Classification, p.Count, p.DisputeIDs)
	}

	writeAnalysisText(w, out.Analysis.Insights, out.Analysis.Alerts)

	st := out.Stats
	fmt.Fprintf(w, "\nSurface: %d synapses (anomaly %d, correction %d, confidence %d, data_quality %d, resolution_hint %d, pattern %d)\n",
		st.TotalSynapsesWritten, st.AnomalyCount, st.CorrectionCount, st.ConfidenceCount,
		st.DataQualityCount, st.ResolutionHintCount, st.PatternCount)
	if out.Persisted {
		fmt.Fprintln(w, "Persisted.")
	}
}

func writeAnalysisText(w io.Writer, insights []insight.Insight, alerts []insight.Alert) {
	if len(insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, i := range insights {
			fmt.Fprintf(w, "  [%s] %s: %s\n", i.Severity, i.Title, i.Description)
		}
	}
	if len(alerts) > 0 {
		fmt.Fprintln(w, "\nAlerts:")
		for _, a := range alerts {
			fmt.Fprintf(w, "  [%s] %s\n", a.Severity, a.Message)
		}
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
