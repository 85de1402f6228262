package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/output"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// writerFor returns an output writer for the command's stdout in the
// configured format.
func (a *app) writerFor(cmd *cobra.Command) *output.Writer {
	return output.NewWriter(cmd.OutOrStdout(), a.cfg.OutputFormat())
}
