package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/output"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether dependencies are installed at their pinned versions",
		Long: `Check compares every manifest entry against the library folder without changing anything.

Each dependency is reported as one of:
  installed           matches its pin
  missing             not installed at all
  missing-repository  record exists but the git working copy does not
  outdated            a different version or ref is installed
  conflict            the git working copy has uncommitted changes
  unsupported         the source type cannot be installed (hg)
  error               the installation could not be inspected`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.service.LoadManifest()
			if err != nil {
				return err
			}

			result := a.service.Check(cmd.Context(), m.Dependencies)
			return a.writerFor(cmd).Write(output.NewCheckView(result))
		},
	}
}
