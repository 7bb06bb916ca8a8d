package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/uconfig/pkg/engine"
)

// Loader parses a primary configuration description and every file it
// includes into a Database.
type Loader struct {
	logger zerolog.Logger
}

// LoadResult describes a completed load.
type LoadResult struct {
	// Files lists every parsed file, primary first, as absolute paths.
	Files []string
	// Dir is the directory of the primary file; includes resolve against it.
	Dir      string
	Duration time.Duration
}

// NewLoader creates a new configuration loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "parser").Logger(),
	}
}

// Load parses path into db, then drains the include queue in order: each
// directive's file is resolved relative to the primary file's directory and
// parsed with the directive's menu as the insertion point. Including a file
// twice is an error. Once all files are parsed the select graph is
// validated and a select cycle fails the load.
func (l *Loader) Load(ctx context.Context, path string, db *engine.Database) (*LoadResult, error) {
	start := time.Now()

	primary, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	result := &LoadResult{Dir: filepath.Dir(primary)}
	seen := make(map[string]bool)

	b := engine.NewBuilder(db)
	if err := l.parseFile(primary, b, seen, result); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, ok := b.NextInclude()
		if !ok {
			break
		}

		file := d.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(result.Dir, file)
		}
		if seen[file] {
			return nil, fmt.Errorf("%s is included more than once", d.File)
		}

		b.SetCurrent(d.Menu)
		if err := l.parseFile(file, b, seen, result); err != nil {
			return nil, err
		}
	}

	if err := db.ValidateSelects(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	l.logger.Debug().
		Int("files", len(result.Files)).
		Int("items", db.Len()).
		Int("menus", db.MenuCount()).
		Dur("duration", result.Duration).
		Msg("Configuration loaded")

	return result, nil
}

func (l *Loader) parseFile(path string, b *engine.Builder, seen map[string]bool, result *LoadResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}
	seen[path] = true
	result.Files = append(result.Files, path)

	name := path
	if rel, err := filepath.Rel(result.Dir, path); err == nil {
		name = rel
	}

	l.logger.Debug().Str("file", name).Msg("Parsing configuration file")
	return Parse(name, string(data), b)
}
