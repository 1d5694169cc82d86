package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/CCAFRICA/spm-platform-sub001/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                      `json:"valid"`
	Config *config.Config            `json:"config,omitempty"`
	Errors []*config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a thresholds file",
		Long: `Validate a thresholds file against the config schema.

Unknown keys are rejected. Thresholds must lie in (0, 1] and the tolerance
must be positive. The checkpoint interval must not be negative (0 disables
checkpoints) and the pattern minimum must be at least 1. With --verbose the
effective config is printed.

Exit codes:
  0 - Valid
  1 - Schema violation
  2 - File missing or not parseable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(path)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return outputValidationError(formatter, verr)
		}
		return formatter.Fail(ExitCommandError, loadErrorCode(err), "failed to load config", err)
	}

	formatter.VerboseLog("Config %s is valid", path)
	result := ValidationResult{Valid: true}
	if opts.Verbose {
		result.Config = &cfg
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s is valid\n", path)
		if opts.Verbose {
			writeConfigText(w, cfg)
		}
	})
}

func outputValidationError(formatter *OutputFormatter, verr *config.ValidationError) error {
	if formatter.Format == "json" {
		err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: []*config.ValidationError{verr}},
			Error: &CLIError{
				Code:    ErrCodeInvalid,
				Message: verr.Error(),
			},
		})
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", verr.Error())
	}
	return reportedExitError(ExitFailure, "invalid config", verr)
}

func writeConfigText(w io.Writer, cfg config.Config) {
	fmt.Fprintf(w, "  reconciliation.tolerance:          %v\n", cfg.Reconciliation.Tolerance)
	fmt.Fprintf(w, "  reconciliation.checkpoint_every:   %d\n", cfg.Reconciliation.CheckpointEvery)
	fmt.Fprintf(w, "  insight.anomaly_rate_threshold:    %v\n", cfg.Insight.AnomalyRateThreshold)
	fmt.Fprintf(w, "  insight.confidence_drop_alert:     %v\n", cfg.Insight.ConfidenceDropAlert)
	fmt.Fprintf(w, "  insight.zero_outcome_threshold:    %v\n", cfg.Insight.ZeroOutcomeThreshold)
	fmt.Fprintf(w, "  insight.concentration_threshold:   %v\n", cfg.Insight.ConcentrationThreshold)
	fmt.Fprintf(w, "  resolution.pattern_min_members:    %d\n", cfg.Resolution.PatternMinMembers)
	fmt.Fprintf(w, "  density.learning_rate:             %v\n", cfg.Density.LearningRate)
}
