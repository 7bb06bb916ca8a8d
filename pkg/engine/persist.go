package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Banner is the first line of every persisted config file.
const Banner = "# THIS IS AN AUTO-GENERATED FILE: DO NOT EDIT."

// Masks accepted by Write.
const (
	// MaskDefaults selects the values declared in the configuration description.
	MaskDefaults = FlagDefaultPending
	// MaskLive selects the current value of every item.
	MaskLive = FlagConfigValue | FlagSelected
)

// Write emits one "<symbol> <value>" line per item, in symbol table order.
// For each item the first token whose flags intersect mask is written; a
// conditional token is skipped while its condition is false. Items with no
// such token are omitted.
func (db *Database) Write(w io.Writer, mask Flags) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Banner)

	for _, it := range db.Items() {
		for _, et := range it.Tokens {
			if !et.Flags.Has(mask) {
				continue
			}
			if et.Flags&FlagConditional != 0 && !db.Evaluate(et.Condition) {
				continue
			}
			fmt.Fprintf(bw, "%s %s\n", it.Symbol, et.Value.Format())
			break
		}
	}

	if err := bw.Flush(); err != nil {
		return NewIOError("writing config", err).WithOperation("write")
	}
	return nil
}

// WriteFile persists the database to path. Dumping defaults creates the
// file exclusively and fails if it already exists; any other mask truncates.
func (db *Database) WriteFile(path string, mask Flags) (err error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mask&FlagDefaultPending != 0 {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return NewIOError("opening "+path, err).WithOperation("write")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = NewIOError("closing "+path, cerr).WithOperation("write")
		}
	}()

	return db.Write(f, mask)
}

// Read loads persisted values. Comment lines start with '#'. Unknown
// symbols, lines without a value and unparsable values are reported as
// diagnostics and skipped. Only I/O failures are returned.
func (db *Database) Read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		symbol, value, ok := strings.Cut(text, " ")
		if !ok {
			db.warnDiag(DiagMalformedLine, text, fmt.Sprintf("line %d: no value for %s", line, text))
			continue
		}

		it, found := db.Lookup(symbol)
		if !found {
			db.warnDiag(DiagUndefinedSymbol, symbol, fmt.Sprintf("line %d: undefined symbol %s", line, symbol))
			continue
		}

		if it.Head() == nil {
			if err := db.ToggleChoiceOption(it, value); err != nil {
				db.warnDiag(DiagUnknownOption, symbol, fmt.Sprintf("line %d: %s has no option %q", line, symbol, value))
			}
			continue
		}
		db.readConfigValue(it, value, line)
	}

	if err := scanner.Err(); err != nil {
		return NewIOError("reading config", err).WithOperation("read")
	}
	return nil
}

// readConfigValue applies one persisted value to a config entry.
func (db *Database) readConfigValue(it *Item, value string, line int) {
	head := it.Head()

	switch head.Value.Kind {
	case TokenBool:
		readTrue := strings.HasPrefix(value, "true")
		if head.Value.Bool {
			// A value held on by a live selector is not turned off; the
			// persisted false only releases that selector's reference.
			if !readTrue {
				if it.Refcount > 0 {
					it.Refcount--
				} else {
					head.Value.Bool = false
				}
			}
		} else {
			if !readTrue {
				// Selected earlier in this read while still pending.
				if it.Refcount > 0 {
					it.Refcount--
					head.Value.Bool = true
				}
			} else {
				head.Value.Bool = true
			}
		}
		head.Flags &^= FlagDefaultPending
		if head.Value.Bool {
			db.propagateFrom(it, true)
		}
	default:
		v, err := ParseValue(head.Value, value)
		if err != nil {
			db.warnDiag(DiagBadValue, it.Symbol, fmt.Sprintf("line %d: %v", line, err))
			return
		}
		head.Value = v
		head.Flags &^= FlagDefaultPending
	}
}

// ReadFile loads persisted values from path.
func (db *Database) ReadFile(path string) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return NewIOError("opening "+path, err).WithOperation("read")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = NewIOError("closing "+path, cerr).WithOperation("read")
		}
	}()

	return db.Read(f)
}

// IsNotExist reports whether err was caused by a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// IsExist reports whether err was caused by a file that already exists.
func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}
