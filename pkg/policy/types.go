package policy

import (
	"time"

	"github.com/openfroyo/uconfig/pkg/engine"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should fail validation.
	SeverityError Severity = "error"
)

// rank orders severities; unknown severities rank as warnings.
func (s Severity) rank() int {
	switch s {
	case SeverityInfo:
		return 0
	case SeverityError:
		return 2
	default:
		return 1
	}
}

// AtLeast reports whether s is as severe as threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.rank() >= threshold.rank()
}

// Policy represents a lint rule with its Rego code. The module must define
// a "deny" set in its package.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Source is the file the policy was loaded from; empty for built-ins.
	Source string `json:"source,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy" yaml:"policy"`

	// Symbol is the configuration symbol concerned, if any.
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message" yaml:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity" yaml:"severity"`
}

// Input is the document policies are evaluated against, available in Rego
// as input.
type Input struct {
	// Source is the primary configuration description.
	Source string `json:"source"`

	// Items is every configuration item in symbol table order.
	Items []engine.ResolvedItem `json:"items"`

	// Diagnostics is every diagnostic recorded while loading and reading.
	Diagnostics []engine.Diagnostic `json:"diagnostics"`
}

// NewInput snapshots a database for evaluation. Items are resolved first so
// diagnostics raised while evaluating dependencies are included.
func NewInput(source string, db *engine.Database) *Input {
	items := db.Resolve()
	diags := db.Diagnostics()
	if diags == nil {
		diags = []engine.Diagnostic{}
	}
	return &Input{
		Source:      source,
		Items:       items,
		Diagnostics: diags,
	}
}

// Result represents the result of policy evaluation.
type Result struct {
	// Violations lists all policy violations, most severe first.
	Violations []Violation `json:"violations" yaml:"violations"`

	// Errors lists policies that failed to evaluate.
	Errors []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies" yaml:"evaluated_policies"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Failed reports whether any violation reaches threshold, or any policy
// failed to evaluate. A threshold of "never" never fails.
func (r *Result) Failed(threshold string) bool {
	if threshold == "never" {
		return false
	}
	if len(r.Errors) > 0 {
		return true
	}
	for _, v := range r.Violations {
		if v.Severity.AtLeast(Severity(threshold)) {
			return true
		}
	}
	return false
}

// Counts returns the number of violations per severity.
func (r *Result) Counts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, v := range r.Violations {
		counts[v.Severity]++
	}
	return counts
}
