package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/uconfig/pkg/config"
	"github.com/openfroyo/uconfig/pkg/engine"
	"github.com/openfroyo/uconfig/pkg/parser"
	"github.com/openfroyo/uconfig/pkg/telemetry"
)

// app is the state of one command run: resolved settings, telemetry and the
// root span.
type app struct {
	command  string
	settings *config.Settings
	tel      *telemetry.Telemetry
	logger   zerolog.Logger
	ctx      context.Context
	span     trace.Span
	out      io.Writer
}

// run loads the settings, starts telemetry and calls fn inside the command
// span. The run outcome is recorded and telemetry is flushed afterwards.
func run(cmd *cobra.Command, opts *rootOptions, command string, fn func(a *app) error) error {
	a, err := newApp(cmd, opts, command)
	if err != nil {
		return err
	}
	return a.finish(fn(a))
}

func newApp(cmd *cobra.Command, opts *rootOptions, command string) (*app, error) {
	path := opts.configPath
	if path == "" {
		path = config.Discover(".")
	}

	s, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	opts.apply(cmd, s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := s.ResolvePaths(); err != nil {
		return nil, err
	}

	tel, err := telemetry.NewTelemetry(s.Telemetry(opts.version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	ctx := tel.WithContext(cmd.Context())
	ctx, span := tel.Tracer.StartCommandSpan(ctx, command, s.Input)

	a := &app{
		command:  command,
		settings: s,
		tel:      tel,
		logger:   tel.Logger.ForCommand(command).WithInput(s.Input).Zerolog(),
		ctx:      ctx,
		span:     span,
		out:      cmd.OutOrStdout(),
	}
	if path != "" {
		a.logger.Debug().Str("settings", path).Msg("Settings loaded")
	}
	return a, nil
}

func (a *app) finish(err error) error {
	a.tel.Metrics.RecordRun(a.command, err)
	if err != nil {
		a.tel.Metrics.RecordError(err)
		telemetry.RecordError(a.span, err)
	} else {
		telemetry.RecordSuccess(a.span)
	}
	a.span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := a.tel.Shutdown(ctx); serr != nil && err == nil {
		return fmt.Errorf("failed to flush telemetry: %w", serr)
	}
	return err
}

// load parses the configuration description tree into a new database.
func (a *app) load() (*engine.Database, *parser.LoadResult, error) {
	phase := telemetry.StartPhase(a.ctx, "load")
	db := engine.New(engine.WithLogger(a.logger), engine.WithObserver(a.tel.Metrics))

	res, err := parser.NewLoader(a.logger).Load(phase.Ctx, a.settings.Input, db)
	if err == nil {
		a.tel.Metrics.RecordDatabase(db)
		phase.Span.SetAttributes(telemetry.AttrItems.Int(db.Len()))
	}
	phase.End(err)
	if err != nil {
		return nil, nil, err
	}
	return db, res, nil
}

// readState applies the persisted state. A missing state file is an error
// unless optional is set.
func (a *app) readState(db *engine.Database, optional bool) error {
	phase := telemetry.StartPhase(a.ctx, "read")
	err := db.ReadFile(a.settings.State)
	if err != nil && engine.IsNotExist(err) {
		if optional {
			a.logger.Warn().Str("state", a.settings.State).Msg("No saved state; using declared defaults")
			err = nil
		} else {
			err = fmt.Errorf("%s does not exist, run 'uconfig defaults' first: %w", a.settings.State, err)
		}
	}
	telemetry.AddDiagnosticEvents(phase.Span, db.Diagnostics())
	phase.End(err)
	return err
}

// writeState persists the live values and, with history enabled, records a
// snapshot of the result.
func (a *app) writeState(db *engine.Database) error {
	phase := telemetry.StartPhase(a.ctx, "write")
	err := db.WriteFile(a.settings.State, engine.MaskLive)
	phase.End(err)
	if err != nil {
		return err
	}
	a.logger.Info().Str("state", a.settings.State).Msg("State saved")

	if a.settings.History.Path != "" {
		if _, _, err := a.snapshot("auto"); err != nil {
			return err
		}
	}
	return nil
}

// renderHeader writes the generated header.
func (a *app) renderHeader(db *engine.Database) error {
	phase := telemetry.StartPhase(a.ctx, "render")
	err := db.WriteHeaderFile(a.settings.Output, a.settings.HeaderOptions())
	phase.End(err)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Writing %s: Success\n", a.settings.Output)
	return nil
}

// generate is the default pipeline: load, read the state, render.
func (a *app) generate() (*engine.Database, *parser.LoadResult, error) {
	db, res, err := a.load()
	if err != nil {
		return nil, nil, err
	}
	if err := a.readState(db, false); err != nil {
		return nil, nil, err
	}
	if err := a.renderHeader(db); err != nil {
		return nil, nil, err
	}
	return db, res, nil
}

func runGenerate(cmd *cobra.Command, opts *rootOptions) error {
	return run(cmd, opts, "generate", func(a *app) error {
		_, _, err := a.generate()
		return err
	})
}

func newGenerateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Read the saved state and write the header",
		Long: `Parse the configuration description, apply the saved state and write the
generated header. This is what uconfig does without a subcommand.`,
		Example: `  # Generate sys.config.h next to configs.in
  uconfig generate

  # Choose input and output
  uconfig generate -i board/configs.in -o include/board.h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}
}

func runDefaults(cmd *cobra.Command, opts *rootOptions) error {
	return run(cmd, opts, "defaults", func(a *app) error {
		db, _, err := a.load()
		if err != nil {
			return err
		}

		phase := telemetry.StartPhase(a.ctx, "write")
		err = db.WriteFile(a.settings.State, engine.MaskDefaults)
		phase.End(err)
		if engine.IsExist(err) {
			return fmt.Errorf("%s already exists; remove it to regenerate defaults: %w", a.settings.State, err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Generating %s: Success\n", a.settings.State)
		return nil
	})
}

func newDefaultsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Create the state file from the declared defaults",
		Long: `Write every entry's declared default into a new state file. The command
fails when the state file already exists.`,
		Example: `  uconfig defaults
  uconfig -C`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefaults(cmd, opts)
		},
	}
}

// lookupItem resolves a symbol named on the command line.
func lookupItem(db *engine.Database, symbol string) (*engine.Item, error) {
	it, ok := db.Lookup(symbol)
	if !ok {
		return nil, engine.NewInputError("undefined symbol "+symbol, nil).
			WithCode(engine.ErrCodeNoSuchOption).
			WithSymbol(symbol)
	}
	return it, nil
}

// errValidationFailed is returned after violations at or above fail_on were
// reported.
var errValidationFailed = errors.New("validation failed")
