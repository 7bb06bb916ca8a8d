package engine

import "strings"

// Flags is the bit set carried by every ExtendedToken.
type Flags uint8

const (
	// FlagDefaultPending marks a value that has not been processed by Read or a toggle yet.
	FlagDefaultPending Flags = 1 << iota
	// FlagConfigValue marks the head token holding a config entry's own value.
	FlagConfigValue
	// FlagSelected marks the currently selected option of a choice entry.
	FlagSelected
	// FlagConditional marks a token gated by its Condition expression.
	FlagConditional
)

// Has reports whether f intersects mask.
func (f Flags) Has(mask Flags) bool {
	return f&mask != 0
}

// String lists the set flags separated by '|'.
func (f Flags) String() string {
	var parts []string
	if f&FlagDefaultPending != 0 {
		parts = append(parts, "default-pending")
	}
	if f&FlagConfigValue != 0 {
		parts = append(parts, "config-value")
	}
	if f&FlagSelected != 0 {
		parts = append(parts, "selected")
	}
	if f&FlagConditional != 0 {
		parts = append(parts, "conditional")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ExtendedToken is one entry of an item's token list.
type ExtendedToken struct {
	Flags     Flags
	Value     Token
	Condition *Expr
}

// NewOption builds a choice option. The default option starts out both
// pending and selected; cond, if non-nil, gates the option.
func NewOption(value Token, isDefault bool, cond *Expr) *ExtendedToken {
	et := &ExtendedToken{Value: value, Condition: cond}
	if isDefault {
		et.Flags |= FlagDefaultPending | FlagSelected
	}
	if cond != nil {
		et.Flags |= FlagConditional
	}
	return et
}

// ItemKind classifies an item by the shape of its token list.
type ItemKind int

const (
	KindBool ItemKind = iota
	KindInt
	KindString
	KindChoice
)

func (k ItemKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	default:
		return "choice"
	}
}

// ItemID is the arena handle of an Item.
type ItemID int

// Item is a configurable unit: a config entry or a choice entry.
type Item struct {
	ID         ItemID
	Prompt     string
	Symbol     string
	Dependency *Expr
	Help       string
	// Refcount counts live selectors holding this item on beyond the one that turned it on.
	Refcount uint32
	Tokens   []*ExtendedToken
	Menu     MenuID
}

// Head returns the token holding a config entry's own value, or nil for choice entries.
func (it *Item) Head() *ExtendedToken {
	if len(it.Tokens) > 0 && it.Tokens[0].Flags&FlagConfigValue != 0 {
		return it.Tokens[0]
	}
	return nil
}

// Kind reports whether the item is a boolean, integer, string or choice entry.
func (it *Item) Kind() ItemKind {
	head := it.Head()
	if head == nil {
		return KindChoice
	}
	switch head.Value.Kind {
	case TokenBool:
		return KindBool
	case TokenInt:
		return KindInt
	default:
		return KindString
	}
}

// Selects returns the names of the item's select targets in declaration order.
func (it *Item) Selects() []string {
	if it.Head() == nil {
		return nil
	}
	out := make([]string, 0, len(it.Tokens)-1)
	for _, et := range it.Tokens[1:] {
		out = append(out, et.Value.Text)
	}
	return out
}

// Options returns the option tokens of a choice entry.
func (it *Item) Options() []*ExtendedToken {
	if it.Head() != nil {
		return nil
	}
	return it.Tokens
}

// SelectedOption returns the selected option of a choice entry, or nil.
func (it *Item) SelectedOption() *ExtendedToken {
	for _, et := range it.Options() {
		if et.Flags&FlagSelected != 0 {
			return et
		}
	}
	return nil
}

// Value returns the first token flagged as the item's value or as selected,
// or the invalid token when there is none.
func (it *Item) Value() Token {
	for _, et := range it.Tokens {
		if et.Flags.Has(FlagConfigValue | FlagSelected) {
			return et.Value
		}
	}
	return InvalidToken()
}

// Pending reports whether the item has not been processed by Read or a toggle yet.
func (it *Item) Pending() bool {
	for _, et := range it.Tokens {
		if et.Flags&FlagDefaultPending != 0 {
			return true
		}
	}
	return false
}

func (it *Item) clearPending() {
	for _, et := range it.Tokens {
		et.Flags &^= FlagDefaultPending
	}
}
