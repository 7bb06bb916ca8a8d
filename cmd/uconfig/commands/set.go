package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfroyo/uconfig/pkg/engine"
)

func newSetCommand(opts *rootOptions) *cobra.Command {
	var (
		dryRun   bool
		noHeader bool
	)

	cmd := &cobra.Command{
		Use:   "set SYMBOL=VALUE...",
		Short: "Change configuration values from the command line",
		Long: `Assign values to configuration entries and save the state. Booleans take
true/false or y/n, choices take an option label and other entries are parsed
per their declared type. Selects are propagated as in the interactive menu.`,
		Example: `  # Enable the serial console and pick a tick rate
  uconfig set SERIAL=y TICK_HZ=1000

  # Preview the resulting state without saving
  uconfig set --dry-run BAUD=115200`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments, err := parseAssignments(args)
			if err != nil {
				return err
			}

			return run(cmd, opts, "set", func(a *app) error {
				db, _, err := a.load()
				if err != nil {
					return err
				}
				if err := a.readState(db, false); err != nil {
					return err
				}

				for _, as := range assignments {
					it, err := lookupItem(db, as.symbol)
					if err != nil {
						return err
					}
					if err := db.Set(it, as.value); err != nil {
						return err
					}
					a.logger.Debug().
						Str("symbol", as.symbol).
						Str("value", it.Value().Format()).
						Msg("Value set")
				}

				if dryRun {
					return db.Write(a.out, engine.MaskLive)
				}
				if err := a.writeState(db); err != nil {
					return err
				}
				if noHeader {
					return nil
				}
				return a.renderHeader(db)
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the resulting state instead of saving it")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "save the state without regenerating the header")

	return cmd
}

type assignment struct {
	symbol string
	value  string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		symbol, value, ok := strings.Cut(arg, "=")
		symbol = strings.TrimSpace(symbol)
		if !ok || symbol == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected SYMBOL=VALUE", arg)
		}
		out = append(out, assignment{symbol: symbol, value: value})
	}
	return out, nil
}
