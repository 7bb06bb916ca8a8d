package telemetry_test

import (
	"context"
	"fmt"

	"github.com/openfroyo/uconfig/pkg/engine"
	"github.com/openfroyo/uconfig/pkg/telemetry"
)

// Example_phases demonstrates instrumenting run phases.
func Example_phases() {
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	ic := telemetry.StartPhase(ctx, "load")
	db := engine.New(engine.WithObserver(tel.Metrics))
	ic.End(nil)

	tel.Metrics.RecordDatabase(db)
	fmt.Println("menus:", db.MenuCount())
	// Output: menus: 1
}
