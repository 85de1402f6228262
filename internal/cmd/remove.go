package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd(a *app) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:     "remove <name>...",
		Aliases: []string{"rm"},
		Short:   "Remove dependencies from the manifest",
		Long: `Remove one or more dependencies from the manifest.

With --purge the installed copies are deleted from the library folder too.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Remove(cmd.Context(), args, purge); err != nil {
				return err
			}

			w := a.writerFor(cmd)
			for _, name := range args {
				if err := w.Text(fmt.Sprintf("Removed %s", name)); err != nil {
					return err
				}
			}
			return nil
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if a.service == nil {
				if err := a.setup(cmd); err != nil {
					return nil, cobra.ShellCompDirectiveNoFileComp
				}
			}
			m, err := a.service.LoadManifest()
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			names := make([]string, 0, len(m.Dependencies))
			for _, dep := range m.Dependencies {
				names = append(names, dep.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also delete installed copies")

	return cmd
}
