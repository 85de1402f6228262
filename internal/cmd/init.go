package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty library folder and manifest",
		Long: `Create an empty .haxelib/ folder and an empty hmm.json manifest.

Fails if the library folder already exists. An existing manifest is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.service.Init()
			if err != nil {
				return err
			}

			w := a.writerFor(cmd)
			if err := w.Text(fmt.Sprintf("Created %s/", a.service.Layout().Root)); err != nil {
				return err
			}
			if created {
				return w.Text(fmt.Sprintf("Created %s", a.service.ManifestPath()))
			}
			return w.Text(fmt.Sprintf("%s already exists, leaving it untouched", a.service.ManifestPath()))
		},
	}
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the library folder",
		Long:  `Remove the local .haxelib/ folder, useful for full clean reinstalls.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.service.Clean(); err != nil {
				return err
			}
			return a.writerFor(cmd).Text(fmt.Sprintf("Removed %s/", a.service.Layout().Root))
		},
	}
}
