package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := a.writerFor(cmd)
			if w.IsText() {
				return w.Text(fmt.Sprintf("hmm version %s", a.info))
			}
			return w.Write(a.info)
		},
	}
}
