package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/hxml"
)

func newToHxmlCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "to-hxml",
		Short: "Dump the dependencies as hxml -lib flags",
		Long: `Print one -lib line per dependency, ready to be included in a build.hxml.

Examples:
  hmm to-hxml                  # Print to stdout
  hmm to-hxml --out libs.hxml  # Write to a file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.service.LoadManifest()
			if err != nil {
				return err
			}

			if out == "" {
				return hxml.Write(cmd.OutOrStdout(), m.Dependencies)
			}

			if err := os.WriteFile(out, []byte(hxml.Render(m.Dependencies)), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			a.logger.Info("wrote hxml", "path", out, "libraries", len(m.Dependencies))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write to this file instead of stdout")

	return cmd
}
