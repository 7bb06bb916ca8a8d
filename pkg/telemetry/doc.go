// Package telemetry provides observability instrumentation for uconfig.
//
// It integrates structured logging (zerolog), tracing (OpenTelemetry) and
// metrics (Prometheus) for the phases of a run: loading the configuration
// description, reading persisted state, writing it back and rendering the
// header.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Engine metrics
//
// Metrics implements engine.Observer. Attach it to a database to count
// diagnostics, propagation steps and user toggles:
//
//	db := engine.New(
//	    engine.WithLogger(tel.Logger.Zerolog()),
//	    engine.WithObserver(tel.Metrics),
//	)
//
// Metrics are exported either by writing a Prometheus textfile at the end
// of a run (metrics.file) or by serving them over HTTP in watch mode
// (metrics.listen).
//
// # Phases
//
// StartPhase opens a span, derives a phase logger and starts a timer; End
// records the outcome on the span and the duration in the
// phase_duration_seconds histogram:
//
//	ic := telemetry.StartPhase(ctx, "render")
//	err := db.WriteHeaderFile(output, opts)
//	ic.End(err)
//
// Supported trace exporters: otlp (gRPC), stdout (stderr, pretty printed)
// and none.
package telemetry
