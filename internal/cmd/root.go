package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/hmm/internal/config"
	"github.com/adamancini/hmm/internal/logging"
	"github.com/adamancini/hmm/internal/manifest"
	"github.com/adamancini/hmm/internal/state"
	"github.com/adamancini/hmm/internal/types"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// String returns a formatted version string for display.
func (b BuildInfo) String() string {
	if b.Version == "" || b.Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", b.Version, b.Commit, b.Date)
}

// app is the per-invocation state shared by subcommands once settings are
// resolved.
type app struct {
	info         BuildInfo
	deps         Deps
	settingsFile string

	cfg     *config.Config
	logger  *log.Logger
	service *Service
}

// Execute runs the root command through fang.
func Execute(ctx context.Context, info BuildInfo) error {
	return fang.Execute(
		ctx,
		NewRootCmd(info, Deps{}),
		fang.WithVersion(info.String()),
		fang.WithNotifySignal(os.Interrupt),
	)
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo, deps Deps) *cobra.Command {
	a := &app{info: info, deps: deps}

	rootCmd := &cobra.Command{
		Use:   "hmm",
		Short: "Haxe dependency manager",
		Long: `hmm installs the Haxe libraries pinned in hmm.json into a project-local .haxelib folder.

Registry dependencies are downloaded from lib.haxe.org, git dependencies are
cloned and checked out at their pinned ref.`,
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("path", "p", manifest.DefaultFileName, "Path to the manifest")
	flags.String("root", state.DefaultRoot, "Library folder")
	flags.StringP("output", "o", "text", "Output format: text, json, yaml")
	flags.Int("concurrency", 0, "Maximum simultaneous inspections (default: number of CPUs)")
	flags.String("registry-url", "", "Haxelib registry base URL")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.BoolP("quiet", "q", false, "Quiet mode (errors only)")
	flags.StringVar(&a.settingsFile, "config", "", "Settings file (default is $XDG_CONFIG_HOME/hmm/hmm.{yaml,toml,json})")

	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newInitCmd(a))
	rootCmd.AddCommand(newCleanCmd(a))
	rootCmd.AddCommand(newToHxmlCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newInstallCmd(a))
	rootCmd.AddCommand(newHaxelibCmd(a))
	rootCmd.AddCommand(newRemoveCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var formats []string
		for _, f := range types.AllOutputFormats() {
			formats = append(formats, string(f))
		}
		return formats, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

// setup resolves settings and builds the service for the running command.
func (a *app) setup(cmd *cobra.Command) error {
	// Only flags the user set override settings and env.
	cfg, used, err := config.Load(config.LoadOptions{
		SettingsFile: a.settingsFile,
		Flags:        cmd.Flags(),
	})
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Quiet:   cfg.Quiet,
		Writer:  cmd.ErrOrStderr(),
	})
	if used != "" {
		a.logger.Debug("loaded settings", "path", used)
	}
	a.service = NewService(cfg, a.logger, a.deps)
	return nil
}
