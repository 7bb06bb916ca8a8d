package engine

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// HeaderOptions controls how the generated header is written.
type HeaderOptions struct {
	// Guard is the include-guard macro. Defaults to DefaultGuard.
	Guard string
	// BoolValue is emitted for enabled booleans. Defaults to DefaultBoolValue.
	BoolValue string
}

const (
	DefaultGuard     = "__UCONFIG_H"
	DefaultBoolValue = "1"
)

func (o HeaderOptions) withDefaults() HeaderOptions {
	if o.Guard == "" {
		o.Guard = DefaultGuard
	}
	if o.BoolValue == "" {
		o.BoolValue = DefaultBoolValue
	}
	return o
}

// Render writes the #define lines of menu id and its descendants. A menu
// whose dependency is false is skipped with its whole subtree. Child menus
// are rendered before the menu's own items. Booleans are emitted only when
// true; integer and string tokens also honor their condition.
func (db *Database) Render(w io.Writer, id MenuID, opts HeaderOptions) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)
	db.renderMenu(bw, db.Menu(id), opts)
	if err := bw.Flush(); err != nil {
		return NewIOError("writing header", err).WithOperation("render")
	}
	return nil
}

func (db *Database) renderMenu(w *bufio.Writer, m *Menu, opts HeaderOptions) {
	if m == nil || !db.Evaluate(m.Dependency) {
		return
	}

	for _, child := range m.Children {
		db.renderMenu(w, db.Menu(child), opts)
	}

	for _, id := range m.Entries {
		it := db.items[id]
		if !db.Evaluate(it.Dependency) {
			continue
		}
		for _, et := range it.Tokens {
			if !et.Flags.Has(FlagConfigValue | FlagSelected) {
				continue
			}
			switch et.Value.Kind {
			case TokenBool:
				if et.Value.Bool {
					fmt.Fprintf(w, "#define %s %s\n", it.Symbol, opts.BoolValue)
				}
			case TokenInt, TokenString:
				if et.Flags&FlagConditional != 0 && !db.Evaluate(et.Condition) {
					continue
				}
				fmt.Fprintf(w, "#define %s %s\n", it.Symbol, et.Value.Format())
			}
		}
	}
}

// RenderHeader writes the complete include-guarded header for the main menu.
func (db *Database) RenderHeader(w io.Writer, opts HeaderOptions) error {
	opts = opts.withDefaults()
	if _, err := fmt.Fprintf(w, "#ifndef %s\n#define %s\n\n", opts.Guard, opts.Guard); err != nil {
		return NewIOError("writing header", err).WithOperation("render")
	}
	if err := db.Render(w, MainMenu, opts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n#endif /* %s */\n", opts.Guard); err != nil {
		return NewIOError("writing header", err).WithOperation("render")
	}
	return nil
}

// WriteHeaderFile renders the header into path, replacing any previous content.
func (db *Database) WriteHeaderFile(path string, opts HeaderOptions) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return NewIOError("opening "+path, err).WithOperation("render")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = NewIOError("closing "+path, cerr).WithOperation("render")
		}
	}()

	return db.RenderHeader(f, opts)
}
