package engine

import (
	"fmt"
	"strings"
)

// Propagate applies the effect of a selector turning on or off to each
// target, in order, recursing depth-first into targets whose value changes.
//
// Turning on, a target that is still pending or already true only gains a
// reference; otherwise it is set true and its own targets are turned on.
// Turning off, a target holding references loses one; otherwise a true
// target is set false and its own targets are turned off.
func (db *Database) Propagate(targets []string, on bool) {
	for _, name := range targets {
		it, ok := db.Lookup(name)
		if !ok {
			db.warnDiag(DiagUndefinedSelect, name, "undefined select: "+name)
			continue
		}
		head := it.Head()
		if head == nil || head.Value.Kind != TokenBool {
			db.warnDiag(DiagIncompatibleSelect, name, "incompatible select: "+name)
			continue
		}

		if on {
			if head.Flags&FlagDefaultPending != 0 || head.Value.Bool {
				it.Refcount++
				continue
			}
			head.Value.Bool = true
			db.changed(it, true)
			continue
		}

		if it.Refcount > 0 {
			it.Refcount--
			continue
		}
		if head.Value.Bool {
			head.Value.Bool = false
			db.changed(it, false)
		}
	}
}

// changed notifies the observer and continues propagation from it. Values
// change before recursing, so propagation terminates on a cyclic select graph.
func (db *Database) changed(it *Item, on bool) {
	if db.observer != nil {
		db.observer.Propagated(on)
	}
	db.propagateFrom(it, on)
}

func (db *Database) propagateFrom(src *Item, on bool) {
	db.Propagate(src.Selects(), on)
}

// ToggleConfig mutates a config entry. Booleans are flipped, ignoring input,
// and the new value is propagated to the select targets. Integers are
// parsed from input honoring the declared base; strings are replaced.
func (db *Database) ToggleConfig(it *Item, input string) error {
	head := it.Head()
	if head == nil {
		return NewInputError(it.Symbol+" is a choice entry", nil).
			WithCode(ErrCodeTypeMismatch).
			WithSymbol(it.Symbol).
			WithOperation("toggle")
	}

	switch head.Value.Kind {
	case TokenBool:
		head.Value.Bool = !head.Value.Bool
		head.Flags &^= FlagDefaultPending
		db.propagateFrom(it, head.Value.Bool)
	default:
		v, err := ParseValue(head.Value, input)
		if err != nil {
			return NewInputError(fmt.Sprintf("invalid %s value %q", head.Value.Kind, input), err).
				WithCode(ErrCodeInvalidValue).
				WithSymbol(it.Symbol).
				WithOperation("toggle")
		}
		head.Value = v
		head.Flags &^= FlagDefaultPending
	}

	if db.observer != nil {
		db.observer.Toggled(it.Kind())
	}
	return nil
}

// SetBool sets a boolean entry to v, toggling and propagating only when the
// value changes. The pending flag is cleared either way.
func (db *Database) SetBool(it *Item, v bool) error {
	head := it.Head()
	if head == nil || head.Value.Kind != TokenBool {
		return NewInputError(it.Symbol+" is not a boolean entry", nil).
			WithCode(ErrCodeTypeMismatch).
			WithSymbol(it.Symbol).
			WithOperation("set")
	}
	if head.Value.Bool == v {
		head.Flags &^= FlagDefaultPending
		return nil
	}
	return db.ToggleConfig(it, "")
}

// Set assigns value to any kind of item: booleans accept true/false/y/n,
// choices take an option label, other entries are parsed per their type.
func (db *Database) Set(it *Item, value string) error {
	switch it.Kind() {
	case KindBool:
		v, err := ParseValue(BoolToken(false), strings.TrimSpace(value))
		if err != nil {
			return NewInputError(fmt.Sprintf("invalid bool value %q", value), err).
				WithCode(ErrCodeInvalidValue).
				WithSymbol(it.Symbol).
				WithOperation("set")
		}
		return db.SetBool(it, v.Bool)
	case KindChoice:
		return db.ToggleChoiceOption(it, value)
	default:
		return db.ToggleConfig(it, value)
	}
}

// ToggleChoiceOption selects the option of a choice entry matching label.
// Integer options match by numeric value, honoring their declared base;
// other options match their text exactly. When no option matches, the
// selection is left unchanged and ErrNoSuchOption is returned.
func (db *Database) ToggleChoiceOption(it *Item, label string) error {
	if it.Head() != nil {
		return NewInputError(it.Symbol+" is not a choice entry", nil).
			WithCode(ErrCodeTypeMismatch).
			WithSymbol(it.Symbol).
			WithOperation("choose")
	}

	match := -1
	for i, et := range it.Tokens {
		if optionMatches(et.Value, label) {
			match = i
			break
		}
	}
	if match < 0 {
		return NewInputError(fmt.Sprintf("no option %q", label), nil).
			WithCode(ErrCodeNoSuchOption).
			WithSymbol(it.Symbol).
			WithOperation("choose")
	}

	for _, et := range it.Tokens {
		et.Flags &^= FlagSelected | FlagDefaultPending
	}
	it.Tokens[match].Flags |= FlagSelected

	if db.observer != nil {
		db.observer.Toggled(KindChoice)
	}
	return nil
}

func optionMatches(opt Token, label string) bool {
	switch opt.Kind {
	case TokenInt:
		v, err := ParseInt(label, opt.Base)
		return err == nil && v == opt.Int
	case TokenString:
		return opt.Text == label
	default:
		return opt.Format() == label
	}
}
