package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
	"github.com/openfroyo/uconfig/pkg/parser"
)

const lintConfig = `
config NET bool true select SOCKETS
config SOCKETS bool false depends on HAS_MMU
config HAS_MMU bool false
config HOSTNAME string ""
config GHOST bool true select NOPE
`

const lintState = `NET true
SOCKETS false
HAS_MMU false
GHOST true
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(zerolog.New(nil).Level(zerolog.Disabled))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return eng
}

func lintDatabase(t *testing.T) *engine.Database {
	t.Helper()
	db := engine.New(engine.WithLogger(zerolog.New(nil).Level(zerolog.Disabled)))
	if err := parser.Parse("configs.in", lintConfig, engine.NewBuilder(db)); err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if err := db.Read(strings.NewReader(lintState)); err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}
	return db
}

func TestNewEngine_Builtins(t *testing.T) {
	eng := newTestEngine(t)

	var names []string
	for _, p := range eng.ListPolicies() {
		names = append(names, p.Name)
	}
	want := []string{"broken-reference", "empty-string", "new-entry", "unmet-dependency"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Built-in policies mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluate_Builtins(t *testing.T) {
	eng := newTestEngine(t)
	db := lintDatabase(t)

	result, err := eng.Evaluate(context.Background(), NewInput("configs.in", db))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("Expected no evaluation errors, got: %v", result.Errors)
	}

	want := []Violation{
		{Policy: "broken-reference", Symbol: "NOPE", Message: "GHOST selects undefined symbol NOPE", Severity: SeverityError},
		{Policy: "broken-reference", Symbol: "NOPE", Message: "undefined select: NOPE", Severity: SeverityError},
		{Policy: "empty-string", Symbol: "HOSTNAME", Message: "HOSTNAME is empty", Severity: SeverityWarning},
		{Policy: "unmet-dependency", Symbol: "SOCKETS", Message: "SOCKETS is selected by NET but its dependencies are not met", Severity: SeverityWarning},
		{Policy: "new-entry", Symbol: "HOSTNAME", Message: "HOSTNAME is not in the saved state; using default ", Severity: SeverityInfo},
	}
	if diff := cmp.Diff(want, result.Violations); diff != "" {
		t.Errorf("Violations mismatch (-want +got):\n%s", diff)
	}

	if !result.Failed("error") || !result.Failed("warning") || result.Failed("never") {
		t.Error("Expected an error-level result that only fails for error and warning thresholds")
	}
	counts := result.Counts()
	if counts[SeverityError] != 2 || counts[SeverityWarning] != 2 || counts[SeverityInfo] != 1 {
		t.Errorf("Unexpected counts %v", counts)
	}
}

func TestEvaluate_CleanConfiguration(t *testing.T) {
	eng := newTestEngine(t)
	db := engine.New()
	if err := parser.Parse("configs.in", `config A bool true select B
config B bool false
config NAME string "board"`, engine.NewBuilder(db)); err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if err := db.Read(strings.NewReader("A true\nB true\nNAME board\n")); err != nil {
		t.Fatalf("Failed to read state: %v", err)
	}

	result, err := eng.Evaluate(context.Background(), NewInput("configs.in", db))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(result.Violations) != 0 {
		t.Errorf("Expected no violations, got %v", result.Violations)
	}
	if result.Failed("warning") {
		t.Error("Expected a clean result not to fail")
	}
}

func TestDisablePolicy(t *testing.T) {
	eng := newTestEngine(t)
	if err := eng.DisablePolicy("new-entry"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := eng.DisablePolicy("nope"); err == nil {
		t.Error("Expected an error for an unknown policy")
	}

	result, err := eng.Evaluate(context.Background(), NewInput("configs.in", lintDatabase(t)))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, v := range result.Violations {
		if v.Policy == "new-entry" {
			t.Errorf("Expected disabled policy to be skipped, got %v", v)
		}
	}
	for _, name := range result.EvaluatedPolicies {
		if name == "new-entry" {
			t.Error("Expected disabled policy not to be evaluated")
		}
	}

	if err := eng.EnablePolicy("new-entry"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	p, err := eng.GetPolicy("new-entry")
	if err != nil || !p.Enabled {
		t.Errorf("Expected new-entry enabled again, got %v, %v", p, err)
	}
}

const boardPolicy = `# Release checks for the board.
# severity: error
package uconfig.lint.board

import rego.v1

deny contains msg if {
	some item in input.items
	item.symbol == "NET"
	item.enabled
	msg := "NET must be off in release builds"
}
`

func TestLoadPolicies(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"board.rego":      boardPolicy,
		"board_test.rego": "this is not rego",
		"README.md":       "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	eng := newTestEngine(t)
	if err := eng.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	p, err := eng.GetPolicy("board")
	if err != nil {
		t.Fatalf("Expected board policy, got: %v", err)
	}
	if p.Severity != SeverityError || p.Description != "Release checks for the board." {
		t.Errorf("Unexpected header parse: %q %q", p.Severity, p.Description)
	}

	result, err := eng.Evaluate(context.Background(), NewInput("configs.in", lintDatabase(t)))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	found := false
	for _, v := range result.Violations {
		if v.Policy == "board" {
			found = true
			if v.Severity != SeverityError || v.Message != "NET must be off in release builds" {
				t.Errorf("Unexpected board violation %+v", v)
			}
		}
	}
	if !found {
		t.Error("Expected a violation from the board policy")
	}

	// Reloading replaces user policies but keeps the built-ins.
	if err := eng.SetUserPolicies(context.Background(), nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := eng.GetPolicy("board"); err == nil {
		t.Error("Expected board policy to be removed")
	}
	if _, err := eng.GetPolicy("empty-string"); err != nil {
		t.Error("Expected built-in policies to survive a reload")
	}
}

func TestLoadPolicies_Errors(t *testing.T) {
	eng := newTestEngine(t)

	if err := eng.LoadPolicies(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected an error for a missing path")
	}

	bad := filepath.Join(t.TempDir(), "bad.rego")
	if err := os.WriteFile(bad, []byte("package broken\n\ndeny contains if {"), 0o644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}
	if err := eng.LoadPolicies(context.Background(), []string{bad}); err == nil {
		t.Error("Expected a compile error")
	}
	if len(eng.ListPolicies()) != len(GetBuiltinPolicies()) {
		t.Error("Expected a failed load to leave the policy set unchanged")
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	tests := []struct {
		s, threshold Severity
		want         bool
	}{
		{SeverityError, SeverityWarning, true},
		{SeverityWarning, SeverityWarning, true},
		{SeverityInfo, SeverityWarning, false},
		{SeverityWarning, SeverityError, false},
		{Severity("custom"), SeverityWarning, true},
	}
	for _, tt := range tests {
		if got := tt.s.AtLeast(tt.threshold); got != tt.want {
			t.Errorf("%s.AtLeast(%s): Expected %v, got %v", tt.s, tt.threshold, tt.want, got)
		}
	}
}

func TestWatch_ReloadsPolicies(t *testing.T) {
	dir := t.TempDir()
	eng := newTestEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Watch(ctx, []string{dir}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "board.rego"), []byte(boardPolicy), 0o644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := eng.GetPolicy("board"); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("Expected the board policy to be loaded after the file was written")
}
