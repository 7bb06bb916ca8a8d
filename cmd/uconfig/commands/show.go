package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/uconfig/pkg/engine"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		format string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "show [SYMBOL...]",
		Short: "Print the resolved configuration",
		Long: `Print every entry with its current value. Entries whose dependencies are
not met are hidden unless --all is given. Without a saved state the declared
defaults are shown.`,
		Example: `  uconfig show
  uconfig show SERIAL BAUD
  uconfig show --all --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unsupported format %q (table, json, yaml)", format)
			}

			return run(cmd, opts, "show", func(a *app) error {
				db, _, err := a.load()
				if err != nil {
					return err
				}
				if err := a.readState(db, true); err != nil {
					return err
				}

				items, err := selectItems(db, args, all)
				if err != nil {
					return err
				}

				switch format {
				case "json":
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(items)
				case "yaml":
					enc := yaml.NewEncoder(a.out)
					defer enc.Close()
					return enc.Encode(items)
				default:
					return printItems(a.out, items)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include entries whose dependencies are not met")

	return cmd
}

// selectItems filters the resolved items by the requested symbols. Named
// symbols are always shown, active or not.
func selectItems(db *engine.Database, symbols []string, all bool) ([]engine.ResolvedItem, error) {
	resolved := db.Resolve()
	if len(symbols) == 0 {
		out := make([]engine.ResolvedItem, 0, len(resolved))
		for _, r := range resolved {
			if all || r.Active {
				out = append(out, r)
			}
		}
		return out, nil
	}

	bySymbol := make(map[string]engine.ResolvedItem, len(resolved))
	for _, r := range resolved {
		bySymbol[r.Symbol] = r
	}
	out := make([]engine.ResolvedItem, 0, len(symbols))
	for _, s := range symbols {
		r, ok := bySymbol[s]
		if !ok {
			_, err := lookupItem(db, s)
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func printItems(w io.Writer, items []engine.ResolvedItem) error {
	on := color.New(color.FgGreen).SprintFunc()
	off := color.New(color.Faint).SprintFunc()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tKIND\tVALUE\tMENU\tPROMPT")
	for _, r := range items {
		value := r.Value
		switch {
		case !r.Active:
			value = off(value)
		case r.Kind == "bool" && r.Enabled:
			value = on(value)
		}
		if r.Pending {
			value += " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Symbol, r.Kind, value, menuLabel(r.Menu), r.Prompt)
	}
	return tw.Flush()
}

func menuLabel(path string) string {
	if strings.TrimSpace(path) == "" {
		return "-"
	}
	return path
}
