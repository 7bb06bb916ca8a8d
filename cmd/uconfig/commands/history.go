package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/uconfig/pkg/stores"
	"github.com/openfroyo/uconfig/pkg/telemetry"
)

var errHistoryDisabled = errors.New("history is disabled; set history.path or pass --history")

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var historyPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved snapshots of the state file",
		Long: `With history enabled every saved state is recorded as a snapshot in a
SQLite database. Snapshots can be listed, inspected, restored and pruned.`,
	}

	cmd.PersistentFlags().StringVar(&historyPath, "history", "", "snapshot database (overrides history.path)")

	// withHistory runs fn with the snapshot database open.
	withHistory := func(c *cobra.Command, name string, fn func(a *app, store stores.Store) error) error {
		return run(c, opts, "history."+name, func(a *app) error {
			if c.Flags().Changed("history") {
				p, err := filepath.Abs(historyPath)
				if err != nil {
					return err
				}
				a.settings.History.Path = p
			}
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(a, store)
		})
	}

	cmd.AddCommand(newHistoryListCommand(withHistory))
	cmd.AddCommand(newHistorySaveCommand(withHistory))
	cmd.AddCommand(newHistoryShowCommand(withHistory))
	cmd.AddCommand(newHistoryRestoreCommand(withHistory))
	cmd.AddCommand(newHistoryPruneCommand(withHistory))

	return cmd
}

type historyRunner func(c *cobra.Command, name string, fn func(a *app, store stores.Store) error) error

func newHistoryListCommand(withHistory historyRunner) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, "list", func(a *app, store stores.Store) error {
				snaps, err := store.ListSnapshots(a.ctx, a.settings.Input, limit, 0)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(snaps)
				}
				if len(snaps) == 0 {
					fmt.Fprintln(a.out, "No snapshots")
					return nil
				}

				tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCREATED\tITEMS\tNOTE")
				for _, s := range snaps {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ShortID(), s.CreatedAt.Local().Format(time.DateTime), s.Items, s.Note)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n snapshots")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")

	return cmd
}

func newHistorySaveCommand(withHistory historyRunner) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Record the current state file as a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, "save", func(a *app, store stores.Store) error {
				snap, saved, err := a.saveSnapshot(store, note)
				if err != nil {
					return err
				}
				if !saved {
					fmt.Fprintf(a.out, "State unchanged since snapshot %s\n", snap.ShortID())
					return nil
				}
				fmt.Fprintf(a.out, "Saved snapshot %s (%d items)\n", snap.ShortID(), snap.Items)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&note, "note", "m", "", "note stored with the snapshot")

	return cmd
}

func newHistoryShowCommand(withHistory historyRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print the state file recorded in a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, "show", func(a *app, store stores.Store) error {
				snap, err := store.GetSnapshot(a.ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(a.out, snap.Content)
				return err
			})
		},
	}
}

func newHistoryRestoreCommand(withHistory historyRunner) *cobra.Command {
	var noHeader bool

	cmd := &cobra.Command{
		Use:   "restore ID",
		Short: "Replace the state file with a snapshot and regenerate the header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, "restore", func(a *app, store stores.Store) error {
				snap, err := store.GetSnapshot(a.ctx, args[0])
				if err != nil {
					return err
				}
				if stores.Checksum(snap.Content) != snap.Checksum {
					return fmt.Errorf("snapshot %s is corrupt: checksum mismatch", snap.ShortID())
				}

				if err := os.WriteFile(a.settings.State, []byte(snap.Content), 0o600); err != nil {
					return fmt.Errorf("failed to restore state: %w", err)
				}
				if err := store.RecordRestore(a.ctx, snap.ID, a.settings.State); err != nil {
					return err
				}
				a.tel.Metrics.RecordSnapshot("restore")
				a.logger.Info().Str("snapshot_id", snap.ID).Str("state", a.settings.State).Msg("Snapshot restored")
				fmt.Fprintf(a.out, "Restored snapshot %s to %s\n", snap.ShortID(), a.settings.State)

				if noHeader {
					return nil
				}
				db, _, err := a.load()
				if err != nil {
					return err
				}
				if err := a.readState(db, false); err != nil {
					return err
				}
				return a.renderHeader(db)
			})
		},
	}

	cmd.Flags().BoolVar(&noHeader, "no-header", false, "restore the state without regenerating the header")

	return cmd
}

func newHistoryPruneCommand(withHistory historyRunner) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, "prune", func(a *app, store stores.Store) error {
				if !cmd.Flags().Changed("keep") {
					keep = a.settings.History.Keep
				}
				n, err := store.Prune(a.ctx, a.settings.Input, keep)
				if err != nil {
					return err
				}
				a.tel.Metrics.RecordSnapshot("prune")
				fmt.Fprintf(a.out, "Pruned %d snapshot(s), kept at most %d\n", n, keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "snapshots to keep (default history.keep)")

	return cmd
}

// openHistory opens the snapshot database, creating and migrating it when
// needed.
func (a *app) openHistory() (stores.Store, error) {
	if a.settings.History.Path == "" {
		return nil, errHistoryDisabled
	}
	phase := telemetry.StartPhase(a.ctx, "history")
	store, err := stores.Open(phase.Ctx, a.settings.History.Path)
	phase.End(err)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// saveSnapshot records the state file unless it matches the latest
// snapshot. It reports whether a snapshot was written.
func (a *app) saveSnapshot(store stores.Store, note string) (*stores.Snapshot, bool, error) {
	data, err := os.ReadFile(a.settings.State)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read state: %w", err)
	}
	content := string(data)

	latest, err := store.LatestSnapshot(a.ctx, a.settings.Input)
	switch {
	case err == nil && latest.Checksum == stores.Checksum(content):
		return latest, false, nil
	case err != nil && !errors.Is(err, stores.ErrNotFound):
		return nil, false, err
	}

	snap := stores.NewSnapshot(a.settings.Input, content, note)
	if err := store.SaveSnapshot(a.ctx, snap); err != nil {
		return nil, false, err
	}
	a.tel.Metrics.RecordSnapshot("save")
	a.logger.Info().Str("snapshot_id", snap.ID).Int("items", snap.Items).Msg("Snapshot saved")
	return snap, true, nil
}

// snapshot records the state file in the history database and prunes it
// to the configured size.
func (a *app) snapshot(note string) (*stores.Snapshot, bool, error) {
	store, err := a.openHistory()
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	snap, saved, err := a.saveSnapshot(store, note)
	if err != nil || !saved {
		return snap, saved, err
	}
	if n, err := store.Prune(a.ctx, a.settings.Input, a.settings.History.Keep); err != nil {
		return nil, false, err
	} else if n > 0 {
		a.tel.Metrics.RecordSnapshot("prune")
	}
	return snap, saved, nil
}
