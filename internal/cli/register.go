package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decstore/internal/compiler"
)

// RegisterResult lists the collections registered in the database.
type RegisterResult struct {
	Collections []string `json:"collections"`
	DB          string   `json:"db"`
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <schemas-dir>",
		Short: "Register compiled collections in the database",
		Long: `Compile CUE collection declarations and record them in the database.

Registering an unchanged collection again is a no-op. A collection whose
declaration changed since it was registered is rejected with SCHEMA_CONFLICT.

Example:
  decstore register ./schemas --db ./decstore.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(rootOpts, args[0], cmd)
		},
	}
}

func runRegister(opts *RootOptions, schemasDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	loadResult, loadErrors := compiler.LoadSchemas(schemasDir, compiler.LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return outputCompileError(formatter, code, message)
	}

	sess, err := openSession(ctx, opts, cmd)
	if err != nil {
		return reportSessionError(formatter, err)
	}
	defer sess.Close()

	result := RegisterResult{Collections: make([]string, 0, len(loadResult.Collections))}
	for _, spec := range loadResult.Collections {
		if err := sess.engine.Register(ctx, spec); err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("failed to register %s", spec.Name), err)
		}
		result.Collections = append(result.Collections, spec.Name)
	}
	result.DB = sess.path

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Registered %d collection(s) in %s\n", len(result.Collections), result.DB)
	for _, name := range result.Collections {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}

// reportSessionError prints a failure to open the database.
func reportSessionError(formatter *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return exitErr
	}
	return formatter.Fail(ExitCommandError, "failed to open database", err)
}
