package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/uconfig/pkg/tui"
)

func runMenu(cmd *cobra.Command, opts *rootOptions) error {
	return run(cmd, opts, "menu", func(a *app) error {
		db, _, err := a.load()
		if err != nil {
			return err
		}
		if err := a.readState(db, false); err != nil {
			return err
		}

		m, err := tui.Run(a.ctx, db, tui.Options{
			Save:   func() error { return a.writeState(db) },
			Logger: a.logger,
		})
		if err != nil {
			return err
		}

		if !m.Saved() {
			fmt.Fprintln(a.out, "Exiting without saving")
			return nil
		}
		return a.renderHeader(db)
	})
}

func newMenuCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Browse and edit the configuration interactively",
		Long: `Open a full-screen menu browser over the configuration. Saving writes the
state file; the header is regenerated when the browser exits after a save.

Keys:
  up/down, k/j   move
  enter, space   toggle, edit or open
  backspace, esc parent menu
  h, ?           help for the entry
  s              save
  q              quit`,
		Example: `  uconfig menu
  uconfig -u`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}
}
