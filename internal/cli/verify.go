package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decstore/internal/engine"
)

// VerifyResult holds the verification reports of every checked collection.
type VerifyResult struct {
	Reports []engine.VerifyReport `json:"reports"`
	OK      bool                  `json:"ok"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [collection...]",
		Short: "Verify stored decimals",
		Long: `Re-derive the order key of every stored decimal from its raw text and
report documents whose stored pair disagrees, or whose raw text no longer
decodes. Without arguments every registered collection is checked.

Exit codes:
  0 - Every stored decimal verified
  1 - One or more problems found
  2 - Command error (unknown collection, database error)

Examples:
  decstore verify
  decstore verify Product --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd)
		},
	}
}

func runVerify(opts *RootOptions, collections []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	sess, err := openSession(ctx, opts, cmd)
	if err != nil {
		return reportSessionError(formatter, err)
	}
	defer sess.Close()

	if len(collections) == 0 {
		for _, spec := range sess.engine.Collections() {
			collections = append(collections, spec.Name)
		}
	}

	result := VerifyResult{Reports: make([]engine.VerifyReport, 0, len(collections)), OK: true}
	for _, name := range collections {
		formatter.VerboseLog("Verifying %s", name)
		report, err := sess.engine.Verify(ctx, name)
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("failed to verify %s", name), err)
		}
		result.Reports = append(result.Reports, report)
		if !report.OK() {
			result.OK = false
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputVerifyText(formatter, result)
	}

	if !result.OK {
		return NewExitError(ExitFailure, "verification found problems")
	}
	return nil
}

func outputVerifyText(formatter *OutputFormatter, result VerifyResult) {
	w := formatter.Writer
	if len(result.Reports) == 0 {
		fmt.Fprintln(w, "No collections registered.")
		return
	}
	for _, r := range result.Reports {
		mark := "✓"
		if !r.OK() {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s: %d document(s), %d decimal(s), %d problem(s)\n",
			mark, r.Collection, r.Documents, r.Decimals, len(r.Problems))
		for _, p := range r.Problems {
			fmt.Fprintf(w, "  %s.%s: %s\n", p.ID, p.Field, p.Message)
		}
	}
}
