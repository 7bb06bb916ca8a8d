package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
)

func TestMetrics_ObservesEngine(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	db := engine.New(engine.WithObserver(m))
	b := engine.NewBuilder(db)

	a, err := b.AddConfigEntry("A", "A", engine.BoolToken(false), []string{"B", "MISSING"}, nil, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	bItem, err := b.AddConfigEntry("B", "B", engine.BoolToken(false), nil, nil, "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Settle B so that turning A on changes it instead of referencing it.
	if err := db.SetBool(bItem, false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := db.SetBool(a, true); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if got := testutil.ToFloat64(m.propagations.WithLabelValues("on")); got != 1 {
		t.Errorf("Expected 1 propagation on, got %v", got)
	}
	if got := testutil.ToFloat64(m.toggles.WithLabelValues("bool")); got != 1 {
		t.Errorf("Expected 1 bool toggle, got %v", got)
	}
	if got := testutil.ToFloat64(m.diagnostics.WithLabelValues(string(engine.DiagUndefinedSelect))); got != 1 {
		t.Errorf("Expected 1 undefined select diagnostic, got %v", got)
	}

	if err := db.SetBool(a, false); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := testutil.ToFloat64(m.propagations.WithLabelValues("off")); got != 1 {
		t.Errorf("Expected 1 propagation off, got %v", got)
	}
	// The same diagnostic is recorded once.
	if got := testutil.ToFloat64(m.diagnostics.WithLabelValues(string(engine.DiagUndefinedSelect))); got != 1 {
		t.Errorf("Expected diagnostics to stay deduplicated, got %v", got)
	}
}

func TestMetrics_RecordDatabase(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	db := engine.New()
	b := engine.NewBuilder(db)
	b.PushMenu("Sub", nil)
	if _, err := b.AddConfigEntry("", "X", engine.BoolToken(true), nil, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := b.AddConfigEntry("", "N", engine.IntToken(3, 10), nil, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	opts := []*engine.ExtendedToken{engine.NewOption(engine.StringToken("a"), false, nil)}
	if _, err := b.AddChoiceEntry("", "C", opts, nil, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	m.RecordDatabase(db)

	for kind, want := range map[string]float64{"bool": 1, "int": 1, "string": 0, "choice": 1} {
		if got := testutil.ToFloat64(m.items.WithLabelValues(kind)); got != want {
			t.Errorf("Expected %v %s items, got %v", want, kind, got)
		}
	}
	if got := testutil.ToFloat64(m.menus); got != 2 {
		t.Errorf("Expected 2 menus, got %v", got)
	}
}

func TestMetrics_RecordRun(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())

	m.RecordRun("generate", nil)
	m.RecordRun("generate", fmt.Errorf("loading: %w", engine.NewConstructionError("dup", nil).WithCode(engine.ErrCodeDuplicateSymbol)))
	m.RecordRun("set", errors.New("plain"))

	if got := testutil.ToFloat64(m.runsCompleted.WithLabelValues("generate", "success")); got != 1 {
		t.Errorf("Expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runsCompleted.WithLabelValues("generate", "failure")); got != 1 {
		t.Errorf("Expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(m.errorsByClass.WithLabelValues("construction")); got != 1 {
		t.Errorf("Expected 1 construction error, got %v", got)
	}
	if got := testutil.ToFloat64(m.errorsByCode.WithLabelValues(engine.ErrCodeDuplicateSymbol)); got != 1 {
		t.Errorf("Expected 1 duplicate symbol error, got %v", got)
	}
	if got := testutil.ToFloat64(m.errorsByClass.WithLabelValues("other")); got != 1 {
		t.Errorf("Expected 1 other error, got %v", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	m.RecordPhase("render", 2*time.Millisecond)
	m.RecordPolicyViolation("warning")

	path := filepath.Join(t.TempDir(), "uconfig.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	for _, name := range []string{
		`uconfig_phase_duration_seconds_count{phase="render"} 1`,
		`uconfig_policy_violations_total{severity="warning"} 1`,
	} {
		if !strings.Contains(string(data), name) {
			t.Errorf("Expected textfile to contain %q", name)
		}
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(DefaultMetricsConfig())
	m.RecordSnapshot("save")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "uconfig_snapshot_operations_total") {
		t.Errorf("Expected snapshot counter in output, got:\n%s", rec.Body.String())
	}
}

func TestMetrics_StartMetricsServer(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.Listen = "127.0.0.1:0"
	m := NewMetrics(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := m.StartMetricsServer(ctx, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("Expected metrics to be served, got: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "uconfig_runs_completed_total") && !strings.Contains(string(body), "uconfig_menus") {
		t.Errorf("Expected uconfig metrics, got:\n%s", body)
	}
}
