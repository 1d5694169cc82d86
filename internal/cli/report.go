package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CCAFRICA/spm-platform-sub001/internal/insight"
	"github.com/CCAFRICA/spm-platform-sub001/internal/reconcile"
	"github.com/CCAFRICA/spm-platform-sub001/internal/resolve"
	"github.com/CCAFRICA/spm-platform-sub001/internal/store"
	"github.com/CCAFRICA/spm-platform-sub001/internal/synapse"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Persona  string
	Tenant   string
}

// BatchReport is everything stored for one batch.
type BatchReport struct {
	Batch          store.BatchInfo         `json:"batch"`
	Reconciliation reconcile.Report        `json:"reconciliation"`
	Investigations []resolve.Investigation `json:"investigations"`
	Patterns       []resolve.Pattern       `json:"patterns"`
	Analysis       insight.FullAnalysis    `json:"analysis"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [batch-id]",
		Short: "Show stored results",
		Long: `Show results persisted by earlier runs.

Without a batch id, lists stored batches (optionally for one tenant).
With a batch id, shows the reconciliation, investigations, patterns and
analysis for that batch. With --persona, shows only what that audience
receives: admin, manager or rep.

Examples:
  synaptic report --db ./synaptic.db
  synaptic report --db ./synaptic.db --tenant acme
  synaptic report --db ./synaptic.db 0192f0c4-7a1e-7c3d-9a4b-2f1e8d6c5b4a
  synaptic report --db ./synaptic.db <batch-id> --persona rep --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID := ""
			if len(args) == 1 {
				batchID = args[0]
			}
			return runReport(opts, batchID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Persona, "persona", "", "audience view (admin|manager|rep)")
	cmd.Flags().StringVar(&opts.Tenant, "tenant", "", "list only this tenant's batches")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReport(opts *ReportOptions, batchID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var persona insight.Persona
	if opts.Persona != "" {
		p, err := insight.ParsePersona(opts.Persona)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid persona", err)
		}
		if batchID == "" {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--persona requires a batch id", nil)
		}
		persona = p
	}

	// Open would create a missing database; a report needs an existing one.
	if _, err := os.Stat(opts.Database); errors.Is(err, os.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if batchID == "" {
		batches, err := st.ListBatches(ctx, opts.Tenant)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list batches", err)
		}
		return formatter.Success(batches, func(w io.Writer) { writeBatchList(w, batches) })
	}

	if persona != "" {
		view, err := st.LoadPersonaView(ctx, batchID, persona)
		if err != nil {
			return failLoad(formatter, batchID, err)
		}
		return formatter.Success(view, func(w io.Writer) { writePersonaView(w, view) })
	}

	report, err := loadBatchReport(cmd, st, batchID)
	if err != nil {
		return failLoad(formatter, batchID, err)
	}
	return formatter.Success(report, func(w io.Writer) { writeBatchReport(w, report) })
}

func loadBatchReport(cmd *cobra.Command, st *store.Store, batchID string) (BatchReport, error) {
	ctx := cmd.Context()
	var r BatchReport
	var err error
	if r.Batch, err = st.GetBatch(ctx, batchID); err != nil {
		return BatchReport{}, err
	}
	if r.Reconciliation, err = st.LoadReconciliation(ctx, batchID); err != nil {
		return BatchReport{}, err
	}
	if r.Investigations, err = st.LoadInvestigations(ctx, batchID); err != nil {
		return BatchReport{}, err
	}
	if r.Patterns, err = st.LoadPatterns(ctx, batchID); err != nil {
		return BatchReport{}, err
	}
	if r.Analysis, err = st.LoadAnalysis(ctx, batchID); err != nil {
		return BatchReport{}, err
	}
	return r, nil
}

func failLoad(formatter *OutputFormatter, batchID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("batch not found: %s", batchID), err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to load batch", err)
}

func writeBatchList(w io.Writer, batches []store.BatchInfo) {
	if len(batches) == 0 {
		fmt.Fprintln(w, "No batches stored.")
		return
	}
	for _, b := range batches {
		flag := ""
		if b.FalseGreen {
			flag = "  FALSE GREEN"
		}
		fmt.Fprintf(w, "%s  tenant=%s  entities=%d  findings=%d  corrections=%d  disputes=%d  match=%s%%%s\n",
			b.BatchID, b.TenantID, b.EntityCount, b.FindingCount, b.CorrectionCount,
			b.InvestigationCount, synapse.FormatNumber(roundTo(b.MatchRate*100, 2)), flag)
	}
}

func writeBatchReport(w io.Writer, r BatchReport) {
	b := r.Batch
	fmt.Fprintf(w, "Batch %s (tenant %s)\n", b.BatchID, b.TenantID)
	fmt.Fprintf(w, "  Entities: %d  Findings: %d  Match rate: %s%%\n",
		b.EntityCount, b.FindingCount, synapse.FormatNumber(roundTo(b.MatchRate*100, 2)))

	fmt.Fprintln(w, "\nFindings:")
	for _, f := range r.Reconciliation.Findings {
		if !f.Classification.NeedsCorrection() {
			continue
		}
		fmt.Fprintf(w, "  %s/%d  %s  delta %s\n",
			f.ExternalID, f.ComponentIndex, f.Classification, synapse.FormatNumber(f.Delta))
	}
	for _, fg := range r.Reconciliation.FalseGreens {
		fmt.Fprintf(w, "  ! False green: %s\n", fg.ExternalID)
	}

	if len(r.Investigations) > 0 {
		fmt.Fprintln(w, "\nDisputes:")
		for _, inv := range r.Investigations {
			fmt.Fprintf(w, "  %s  %s -> %s\n    %s\n",
				inv.Dispute.DisputeID, inv.RootCause.Classification, inv.Recommendation.Action,
				inv.Recommendation.Reasoning)
		}
	}
	for _, p := range r.Patterns {
		fmt.Fprintf(w, "  Pattern: %s x%d  %s\n", p.Classification, p.Count, p.Recommendation)
	}

	writeAnalysisText(w, r.Analysis.Insights, r.Analysis.Alerts)
}

func writePersonaView(w io.Writer, v insight.PersonaView) {
	fmt.Fprintf(w, "Batch %s, %s view\n", v.BatchID, v.Persona)
	if v.Summary != nil {
		fmt.Fprintf(w, "  Entities: %d  Total outcome: %s  Concordance: %s%%\n",
			v.Summary.EntityCount, synapse.FormatNumber(roundTo(v.Summary.TotalOutcome, 2)),
			synapse.FormatNumber(roundTo(v.Summary.ConcordanceRate, 2)))
	}
	writeAnalysisText(w, v.Insights, v.Alerts)
	for _, c := range v.CoachingActions {
		fmt.Fprintf(w, "  Coaching: %s %v\n", c.Action, c.EntityIDs)
	}
	for _, g := range v.GovernanceFlags {
		fmt.Fprintf(w, "  Governance [%s] %s: %s\n", g.Severity, g.Rule, g.Description)
	}
	for _, g := range v.GrowthSignals {
		fmt.Fprintf(w, "  Growth: %s\n", g.Description)
	}
}
