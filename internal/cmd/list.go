package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/output"
)

func newListCmd(a *app) *cobra.Command {
	var lib string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the dependencies in the manifest",
		Long: `List the dependencies in hmm.json (or the manifest given with --path).

Use 'hmm check' to see whether they are installed at the correct versions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.service.LoadManifest()
			if err != nil {
				return err
			}

			deps := m.Dependencies
			if lib != "" {
				dep := m.Find(lib)
				if dep == nil {
					return fmt.Errorf("dependency %q is not in %s", lib, a.service.ManifestPath())
				}
				deps = []manifest.Dependency{*dep}
			}

			return a.writerFor(cmd).Write(output.DependencyList{
				Dependencies: deps,
				RegistryURL:  a.service.RegistryURL(),
			})
		},
	}

	cmd.Flags().StringVarP(&lib, "lib", "l", "", "Only show this dependency")

	return cmd
}
