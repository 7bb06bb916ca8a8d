package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/openfroyo/uconfig/pkg/policy"
)

// regenerateDelay debounces bursts of file events into one regeneration.
const regenerateDelay = 500 * time.Millisecond

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var (
		lint          bool
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the header whenever a description or the state changes",
		Long: `Generate the header, then watch every parsed configuration description
and the state file and regenerate on change until interrupted. With
metrics.listen or --metrics-listen set, metrics are served over HTTP while
watching. With --lint the policies are evaluated after every regeneration
and user policy files are reloaded when they change.`,
		Example: `  uconfig watch
  uconfig watch --lint --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "watch", func(a *app) error {
				if metricsListen != "" || a.settings.Metrics.Listen != "" {
					if _, err := a.tel.Metrics.StartMetricsServer(a.ctx, metricsListen, a.logger); err != nil {
						return fmt.Errorf("failed to start metrics server: %w", err)
					}
				}

				var pe *policy.Engine
				if lint {
					var err error
					if pe, err = a.policyEngine(); err != nil {
						return err
					}
					if paths := a.policyDirs(); len(paths) > 0 {
						if err := pe.Watch(a.ctx, paths); err != nil {
							return err
						}
					}
				}

				return a.watch(pe)
			})
		},
	}

	cmd.Flags().BoolVar(&lint, "lint", false, "evaluate policies after every regeneration")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve metrics on this address while watching (overrides metrics.listen)")

	return cmd
}

// watch regenerates until the context is cancelled. Failed regenerations
// are logged and the previous watch set is kept.
func (a *app) watch(pe *policy.Engine) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	files := map[string]bool{}
	regenerate := func() {
		db, res, err := a.generate()
		if err != nil {
			a.logger.Error().Err(err).Msg("Regeneration failed")
			return
		}
		files = watchSet(res.Files, a.settings.State)
		for _, dir := range watchDirs(files) {
			if err := watcher.Add(dir); err != nil {
				a.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to watch directory")
			}
		}
		if pe != nil {
			lres, err := a.lint(pe, db)
			if err != nil {
				a.logger.Error().Err(err).Msg("Lint failed")
				return
			}
			a.logger.Info().Str("summary", summarize(lres)).Msg("Lint complete")
		}
	}

	regenerate()
	if len(files) == 0 {
		// Nothing was parsed yet; watch the input and state directories.
		files = watchSet([]string{a.settings.Input}, a.settings.State)
		for _, dir := range watchDirs(files) {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
	}
	a.logger.Info().Int("files", len(files)).Msg("Watching for changes")

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-a.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 || !files[filepath.Clean(event.Name)] {
				continue
			}
			a.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("File changed")

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(regenerateDelay)
			fire = timer.C

		case <-fire:
			fire = nil
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

// watchSet is the set of files whose changes trigger a regeneration.
func watchSet(descriptions []string, state string) map[string]bool {
	set := make(map[string]bool, len(descriptions)+1)
	for _, f := range descriptions {
		set[filepath.Clean(f)] = true
	}
	set[filepath.Clean(state)] = true
	return set
}

// watchDirs returns the sorted directories holding the files of set.
func watchDirs(set map[string]bool) []string {
	seen := map[string]bool{}
	var dirs []string
	for f := range set {
		d := filepath.Dir(f)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)
	return dirs
}
