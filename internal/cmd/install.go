package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/install"
	"github.com/adamancini/hmm/internal/output"
	"github.com/adamancini/hmm/internal/reconcile"
)

func newInstallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install dependencies that are missing or outdated",
		Long: `Install downloads registry dependencies and clones or updates git dependencies
until the library folder matches the manifest.

Entries already installed are skipped. Git working copies with uncommitted
changes are never touched and are reported instead. Exits non-zero if any
install fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.service.LoadManifest()
			if err != nil {
				return err
			}

			report, after := a.service.Install(cmd.Context(), m.Dependencies)
			return a.writeReport(cmd, report, after)
		},
	}

	addInstallFlags(cmd)

	return cmd
}

func newHaxelibCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "haxelib <name> <version>",
		Short: "Pin a registry dependency and install it",
		Long: `Add (or re-pin) a lib.haxe.org dependency in the manifest, then install it.

Examples:
  hmm haxelib lime 8.1.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, after, err := a.service.AddRegistry(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return a.writeReport(cmd, report, after)
		},
	}

	addInstallFlags(cmd)

	return cmd
}

func addInstallFlags(cmd *cobra.Command) {
	cmd.Flags().Int("install-concurrency", 0, "Maximum simultaneous installs (default 4)")
	cmd.Flags().Duration("install-timeout", 0, "Time limit for one dependency's install (default 10m)")
}

// writeReport renders an install report and turns failures into a non-zero exit.
func (a *app) writeReport(cmd *cobra.Command, report *install.Report, after *reconcile.Result) error {
	view := output.ReportView{Report: *report, Summary: after.Summary()}
	if err := a.writerFor(cmd).Write(view); err != nil {
		return err
	}

	for _, msg := range report.Attention {
		a.logger.Warn("needs attention", "detail", msg)
	}

	if report.HasFailures() {
		return &ExitError{
			Code: 1,
			Err:  fmt.Errorf("%d dependencies failed to install: %w", report.Failed, errors.Join(report.Errors...)),
		}
	}
	return nil
}
