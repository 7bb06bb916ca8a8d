package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/uconfig/pkg/config"
)

// rootOptions holds the global flags.
type rootOptions struct {
	version string

	configPath string
	input      string
	output     string
	state      string
	logLevel   string
	logFormat  string
}

// apply overlays the flags that were set on the command line.
func (o *rootOptions) apply(cmd *cobra.Command, s *config.Settings) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		s.Input = o.input
	}
	if flags.Changed("output") {
		s.Output = o.output
	}
	if flags.Changed("state") {
		s.State = o.state
	}
	if flags.Changed("log-level") {
		s.Logging.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		s.Logging.Format = o.logFormat
	}
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{version: version}
	var (
		defaults bool
		menu     bool
	)

	rootCmd := &cobra.Command{
		Use:   "uconfig",
		Short: "uconfig - build-time configuration database",
		Long: `uconfig reads a tree of configs.in descriptions, applies the persisted
configuration state and generates a C header of #define lines.

Without a subcommand it behaves like the classic tool:
  uconfig        read the state file and write the header
  uconfig -C     create the state file from the declared defaults
  uconfig -u     browse and edit the configuration interactively`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case defaults && menu:
				return fmt.Errorf("-C and -u cannot be combined")
			case defaults:
				return runDefaults(cmd, opts)
			case menu:
				return runMenu(cmd, opts)
			default:
				return runGenerate(cmd, opts)
			}
		},
	}

	// Persistent flags available to all commands
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "settings file (default ./"+config.DefaultFile+" when present)")
	flags.StringVarP(&opts.input, "input", "i", "", "primary configuration description (default configs.in)")
	flags.StringVarP(&opts.output, "output", "o", "", "generated header (default sys.config.h)")
	flags.StringVar(&opts.state, "state", "", "persisted state file (default .old.config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	rootCmd.Flags().BoolVarP(&defaults, "defaults", "C", false, "create the state file from the declared defaults")
	rootCmd.Flags().BoolVarP(&menu, "menu", "u", false, "open the interactive menu")

	// Add subcommands
	rootCmd.AddCommand(newGenerateCommand(opts))
	rootCmd.AddCommand(newDefaultsCommand(opts))
	rootCmd.AddCommand(newMenuCommand(opts))
	rootCmd.AddCommand(newSetCommand(opts))
	rootCmd.AddCommand(newShowCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))

	return rootCmd
}
