package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
)

// Metrics provides Prometheus metrics for uconfig runs. It implements
// engine.Observer, so it can be attached to a Database with
// engine.WithObserver.
type Metrics struct {
	config MetricsConfig

	// Run metrics
	runsCompleted *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec

	// Engine metrics
	diagnostics  *prometheus.CounterVec
	propagations *prometheus.CounterVec
	toggles      *prometheus.CounterVec
	items        *prometheus.GaugeVec
	menus        prometheus.Gauge

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	// Lint and history metrics
	policyViolations *prometheus.CounterVec
	snapshots        *prometheus.CounterVec

	registry *prometheus.Registry
}

var _ engine.Observer = (*Metrics)(nil)

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of completed command runs",
			},
			[]string{"command", "status"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of run phases (load, read, write, render) in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"phase"},
		),

		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Total number of distinct engine diagnostics",
			},
			[]string{"kind"},
		),
		propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "propagations_total",
				Help:      "Total number of values changed by select propagation",
			},
			[]string{"direction"},
		),
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "toggles_total",
				Help:      "Total number of user mutations by item kind",
			},
			[]string{"kind"},
		),
		items: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "items",
				Help:      "Number of configuration items by kind",
			},
			[]string{"kind"},
		),
		menus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "menus",
				Help:      "Number of menus, including the main menu",
			},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations by severity",
			},
			[]string{"severity"},
		),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_operations_total",
				Help:      "Total number of history snapshot operations",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.runsCompleted,
		m.phaseDuration,
		m.diagnostics,
		m.propagations,
		m.toggles,
		m.items,
		m.menus,
		m.errorsByClass,
		m.errorsByCode,
		m.policyViolations,
		m.snapshots,
	)

	return m
}

// Engine observer

// Diagnostic implements engine.Observer.
func (m *Metrics) Diagnostic(kind engine.DiagnosticKind) {
	m.diagnostics.WithLabelValues(string(kind)).Inc()
}

// Propagated implements engine.Observer.
func (m *Metrics) Propagated(on bool) {
	direction := "off"
	if on {
		direction = "on"
	}
	m.propagations.WithLabelValues(direction).Inc()
}

// Toggled implements engine.Observer.
func (m *Metrics) Toggled(kind engine.ItemKind) {
	m.toggles.WithLabelValues(kind.String()).Inc()
}

// RecordDatabase sets the item and menu gauges from a loaded database.
func (m *Metrics) RecordDatabase(db *engine.Database) {
	counts := map[engine.ItemKind]int{
		engine.KindBool:   0,
		engine.KindInt:    0,
		engine.KindString: 0,
		engine.KindChoice: 0,
	}
	for _, it := range db.Items() {
		counts[it.Kind()]++
	}
	for kind, n := range counts {
		m.items.WithLabelValues(kind.String()).Set(float64(n))
	}
	m.menus.Set(float64(db.MenuCount()))
}

// Run Metrics

// RecordRun records a completed command run.
func (m *Metrics) RecordRun(command string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		m.RecordError(err)
	}
	m.runsCompleted.WithLabelValues(command, status).Inc()
}

// RecordPhase records how long a run phase took.
func (m *Metrics) RecordPhase(phase string, duration time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// Error Metrics

// RecordError records an error by class and code. Errors that are not
// engine errors are counted under class "other".
func (m *Metrics) RecordError(err error) {
	var ee *engine.EngineError
	if !errors.As(err, &ee) {
		m.errorsByClass.WithLabelValues("other").Inc()
		return
	}
	m.errorsByClass.WithLabelValues(string(ee.Class)).Inc()
	if ee.Code != "" {
		m.errorsByCode.WithLabelValues(ee.Code).Inc()
	}
}

// RecordPolicyViolation records one policy violation.
func (m *Metrics) RecordPolicyViolation(severity string) {
	m.policyViolations.WithLabelValues(severity).Inc()
}

// RecordSnapshot records a history operation (save, restore, prune).
func (m *Metrics) RecordSnapshot(operation string) {
	m.snapshots.WithLabelValues(operation).Inc()
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObservePhase records the elapsed time as the duration of phase.
func (t *Timer) ObservePhase(m *Metrics, phase string) {
	m.RecordPhase(phase, t.Duration())
}

// Registry returns the registry holding every uconfig metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format,
// for collection by the node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer serves metrics on addr, or on the configured listen
// address when addr is empty, until ctx is cancelled. Binding errors are
// returned; later serve errors are logged.
func (m *Metrics) StartMetricsServer(ctx context.Context, addr string, logger zerolog.Logger) (net.Addr, error) {
	if addr == "" {
		addr = m.config.Listen
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	logger.Info().Str("addr", ln.Addr().String()).Str("path", m.config.Path).Msg("Serving metrics")
	return ln.Addr(), nil
}
