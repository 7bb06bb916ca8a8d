package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/uconfig/pkg/engine"
	"github.com/openfroyo/uconfig/pkg/telemetry"
)

// DefaultFile is the settings file looked up next to the working directory
// when --config is not given.
const DefaultFile = "uconfig.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "UCONFIG_"

// Settings configures a uconfig run.
type Settings struct {
	// Input is the primary configuration description.
	Input string `yaml:"input" validate:"required"`

	// Output is the generated header.
	Output string `yaml:"output" validate:"required"`

	// State is the persisted configuration snapshot.
	State string `yaml:"state" validate:"required"`

	// Header controls header rendering.
	Header HeaderSettings `yaml:"header"`

	// Logging configures structured logging.
	Logging telemetry.LoggingConfig `yaml:"logging"`

	// Metrics configures metrics export.
	Metrics telemetry.MetricsConfig `yaml:"metrics"`

	// Tracing configures run-phase tracing.
	Tracing telemetry.TracingConfig `yaml:"tracing"`

	// History configures the snapshot database.
	History HistorySettings `yaml:"history"`

	// Policy configures lint policies.
	Policy PolicySettings `yaml:"policy"`
}

// HeaderSettings controls header rendering.
type HeaderSettings struct {
	// Guard is the include-guard macro.
	Guard string `yaml:"guard" validate:"required,c_identifier"`

	// BoolValue is the replacement text of an enabled boolean.
	BoolValue string `yaml:"bool_value" validate:"required"`
}

// HistorySettings configures the snapshot database.
type HistorySettings struct {
	// Path is the SQLite database file. Empty disables history.
	Path string `yaml:"path"`

	// Keep is how many snapshots prune retains.
	Keep int `yaml:"keep" validate:"gte=1"`
}

// PolicySettings configures lint policies.
type PolicySettings struct {
	// Paths lists .rego files or directories with user policies.
	Paths []string `yaml:"paths"`

	// FailOn is the lowest severity that fails validate (error, warning, never).
	FailOn string `yaml:"fail_on" validate:"oneof=error warning never"`
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// newValidator returns a validator that also knows c_identifier.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("c_identifier", func(fl validator.FieldLevel) bool {
		return identifierRegex.MatchString(fl.Field().String())
	})
	return v
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		Input:  "configs.in",
		Output: "sys.config.h",
		State:  ".old.config",
		Header: HeaderSettings{
			Guard:     engine.DefaultGuard,
			BoolValue: engine.DefaultBoolValue,
		},
		Logging: telemetry.DefaultLoggingConfig(),
		Metrics: telemetry.DefaultMetricsConfig(),
		Tracing: telemetry.DefaultTracingConfig(),
		History: HistorySettings{Keep: 20},
		Policy:  PolicySettings{FailOn: "error"},
	}
}

// Load returns the defaults overlaid with the settings file at path and
// then with UCONFIG_* environment variables. An empty path skips the file.
// Flags are applied by the caller, followed by Validate and ResolvePaths.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading settings: %w", err)
		}
		if err := s.decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parsing settings %s: %w", path, err)
		}
	}
	if err := s.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return s, nil
}

// Discover returns the default settings file in dir, or "" when there is none.
func Discover(dir string) string {
	path := filepath.Join(dir, DefaultFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (s *Settings) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overlays UCONFIG_* variables found through lookup. LOG_LEVEL is
// honored as well, below UCONFIG_LOG_LEVEL.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		s.Logging.Level = v
	}

	str("INPUT", &s.Input)
	str("OUTPUT", &s.Output)
	str("STATE", &s.State)
	str("HEADER_GUARD", &s.Header.Guard)
	str("HEADER_BOOL_VALUE", &s.Header.BoolValue)
	str("LOG_LEVEL", &s.Logging.Level)
	str("LOG_FORMAT", &s.Logging.Format)
	str("LOG_OUTPUT", &s.Logging.Output)
	str("METRICS_FILE", &s.Metrics.File)
	str("METRICS_LISTEN", &s.Metrics.Listen)
	str("TRACING_EXPORTER", &s.Tracing.Exporter)
	str("TRACING_ENDPOINT", &s.Tracing.Endpoint)
	str("HISTORY_PATH", &s.History.Path)
	str("POLICY_FAIL_ON", &s.Policy.FailOn)

	if v, ok := lookup(EnvPrefix + "HISTORY_KEEP"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHISTORY_KEEP: %w", EnvPrefix, err)
		}
		s.History.Keep = n
	}
	if v, ok := lookup(EnvPrefix + "POLICY_PATHS"); ok {
		s.Policy.Paths = filepath.SplitList(v)
	}
	return nil
}

// Validate checks the settings struct tags and returns every failing field.
func (s *Settings) Validate() error {
	if err := newValidator().Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", fieldPath(fe.Namespace()), fe.Tag()))
		}
		return fmt.Errorf("invalid settings: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// ResolvePaths makes the input absolute and resolves relative state, output,
// metrics and history paths against the input file's directory.
func (s *Settings) ResolvePaths() error {
	input, err := filepath.Abs(s.Input)
	if err != nil {
		return fmt.Errorf("resolving input: %w", err)
	}
	s.Input = input
	dir := s.InputDir()

	for _, p := range []*string{&s.Output, &s.State, &s.Metrics.File, &s.History.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return nil
}

// InputDir is the directory of the primary configuration description.
func (s *Settings) InputDir() string {
	return filepath.Dir(s.Input)
}

// HeaderOptions converts the header settings for the engine.
func (s *Settings) HeaderOptions() engine.HeaderOptions {
	return engine.HeaderOptions{
		Guard:     s.Header.Guard,
		BoolValue: s.Header.BoolValue,
	}
}

// Telemetry builds the telemetry configuration of a run.
func (s *Settings) Telemetry(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Logging = s.Logging
	cfg.Metrics = s.Metrics
	cfg.Tracing = s.Tracing
	return cfg
}

// Marshal renders the settings as YAML.
func (s *Settings) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
