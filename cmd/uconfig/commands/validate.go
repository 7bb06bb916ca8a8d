package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/uconfig/pkg/engine"
	"github.com/openfroyo/uconfig/pkg/policy"
	"github.com/openfroyo/uconfig/pkg/telemetry"
)

func newValidateCommand(opts *rootOptions) *cobra.Command {
	var (
		policyPaths []string
		failOn      string
		format      string
		disable     []string
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lint the configuration with the built-in and user policies",
		Long: `Load the configuration, apply the saved state when there is one and
evaluate the lint policies. Built-in policies report broken selects, selected
entries whose dependencies are not met, empty strings and entries missing from
the saved state. User policies are Rego modules defining a deny set.

The command fails when a violation reaches --fail-on (error, warning, never).`,
		Example: `  uconfig validate
  uconfig validate --policy policies/ --fail-on warning
  uconfig validate --disable new-entry --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, "validate", func(a *app) error {
				if cmd.Flags().Changed("policy") {
					a.settings.Policy.Paths = policyPaths
				}
				if cmd.Flags().Changed("fail-on") {
					a.settings.Policy.FailOn = failOn
				}
				if err := a.settings.Validate(); err != nil {
					return err
				}

				db, _, err := a.load()
				if err != nil {
					return err
				}
				if err := a.readState(db, true); err != nil {
					return err
				}

				pe, err := a.policyEngine()
				if err != nil {
					return err
				}
				for _, name := range disable {
					if err := pe.DisablePolicy(name); err != nil {
						return err
					}
				}
				if list {
					printPolicies(a.out, pe.ListPolicies())
					return nil
				}

				res, err := a.lint(pe, db)
				if err != nil {
					return err
				}

				switch format {
				case "json":
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(res); err != nil {
						return err
					}
				case "yaml":
					if err := yaml.NewEncoder(a.out).Encode(res); err != nil {
						return err
					}
				default:
					printViolations(a.out, res)
				}

				if res.Failed(a.settings.Policy.FailOn) {
					return fmt.Errorf("%w: %s", errValidationFailed, summarize(res))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&policyPaths, "policy", nil, "user policy file or directory (repeatable)")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "lowest severity that fails (error, warning, never)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json, yaml)")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "policy to skip (repeatable)")
	cmd.Flags().BoolVar(&list, "list", false, "list the loaded policies instead of evaluating them")

	return cmd
}

// policyDirs resolves the user policy paths against the input directory.
func (a *app) policyDirs() []string {
	paths := make([]string, 0, len(a.settings.Policy.Paths))
	for _, p := range a.settings.Policy.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(a.settings.InputDir(), p)
		}
		paths = append(paths, p)
	}
	return paths
}

// policyEngine creates an engine with the built-ins and the user policies.
func (a *app) policyEngine() (*policy.Engine, error) {
	pe, err := policy.NewEngine(a.logger)
	if err != nil {
		return nil, err
	}
	if paths := a.policyDirs(); len(paths) > 0 {
		if err := pe.LoadPolicies(a.ctx, paths); err != nil {
			return nil, err
		}
	}
	return pe, nil
}

// lint evaluates the policies in a "lint" phase and records the violations.
func (a *app) lint(pe *policy.Engine, db *engine.Database) (*policy.Result, error) {
	phase := telemetry.StartPhase(a.ctx, "lint")
	res, err := pe.Evaluate(phase.Ctx, policy.NewInput(a.settings.Input, db))
	phase.End(err)
	if err != nil {
		return nil, err
	}
	for _, v := range res.Violations {
		a.tel.Metrics.RecordPolicyViolation(string(v.Severity))
	}
	for _, e := range res.Errors {
		a.logger.Error().Str("error", e).Msg("Policy evaluation failed")
	}
	return res, nil
}

func printViolations(w io.Writer, res *policy.Result) {
	if len(res.Violations) == 0 {
		fmt.Fprintf(w, "%s %d policies passed\n", color.GreenString("OK"), len(res.EvaluatedPolicies))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tPOLICY\tSYMBOL\tMESSAGE")
	for _, v := range res.Violations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", severityLabel(v.Severity), v.Policy, v.Symbol, v.Message)
	}
	_ = tw.Flush()
	fmt.Fprintln(w, summarize(res))
}

func printPolicies(w io.Writer, policies []policy.Policy) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tSEVERITY\tENABLED\tSOURCE\tDESCRIPTION")
	for _, p := range policies {
		source := p.Source
		if source == "" {
			source = "built-in"
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", p.Name, severityLabel(p.Severity), p.Enabled, source, p.Description)
	}
	_ = tw.Flush()
}

func severityLabel(s policy.Severity) string {
	switch s {
	case policy.SeverityError:
		return color.RedString(string(s))
	case policy.SeverityWarning:
		return color.YellowString(string(s))
	default:
		return color.CyanString(string(s))
	}
}

func summarize(res *policy.Result) string {
	counts := res.Counts()
	return fmt.Sprintf("%d error(s), %d warning(s), %d info",
		counts[policy.SeverityError], counts[policy.SeverityWarning], counts[policy.SeverityInfo])
}
