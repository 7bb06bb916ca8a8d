package engine

import "fmt"

// IncludeDirective is a file queued for parsing with Menu as its insertion point.
type IncludeDirective struct {
	File string
	Menu MenuID
}

// Builder is the construction API driven by a parser. It carries the
// current menu cursor and the queue of pending include directives.
type Builder struct {
	db       *Database
	current  MenuID
	includes []IncludeDirective
}

// NewBuilder creates a builder positioned at the main menu of db.
func NewBuilder(db *Database) *Builder {
	return &Builder{db: db, current: MainMenu}
}

// Database returns the database being built.
func (b *Builder) Database() *Database {
	return b.db
}

// Current returns the menu receiving new entries.
func (b *Builder) Current() MenuID {
	return b.current
}

// SetCurrent moves the cursor to id, as done before parsing an included file.
func (b *Builder) SetCurrent(id MenuID) {
	b.current = id
}

// PushMenu creates a child of the current menu and makes it current.
func (b *Builder) PushMenu(prompt string, dependency *Expr) MenuID {
	parent := b.db.Menu(b.current)
	id := b.db.addMenu(&Menu{
		Prompt:     prompt,
		Dependency: dependency,
		Parent:     parent.ID,
		HasParent:  true,
	})
	parent.Children = append(parent.Children, id)
	b.current = id
	return id
}

// PopMenu makes the parent of the current menu current.
func (b *Builder) PopMenu() error {
	m := b.db.Menu(b.current)
	if !m.HasParent {
		return NewConstructionError("endmenu without matching menu", nil).
			WithCode(ErrCodeMenuUnderflow)
	}
	b.current = m.Parent
	return nil
}

// AddConfigEntry adds a boolean, integer or string entry to the current menu.
// Select targets are only allowed on boolean entries.
func (b *Builder) AddConfigEntry(prompt, symbol string, value Token, selects []string, dependency *Expr, help string) (*Item, error) {
	switch value.Kind {
	case TokenBool, TokenInt, TokenString:
	default:
		return nil, NewConstructionError(fmt.Sprintf("%s value cannot be a config entry", value.Kind), nil).
			WithCode(ErrCodeInvalidValue).
			WithSymbol(symbol)
	}
	if len(selects) > 0 && value.Kind != TokenBool {
		return nil, NewConstructionError("select is only allowed on bool entries", nil).
			WithCode(ErrCodeSelectOnNonBool).
			WithSymbol(symbol)
	}

	tokens := make([]*ExtendedToken, 0, len(selects)+1)
	tokens = append(tokens, &ExtendedToken{Flags: FlagConfigValue | FlagDefaultPending, Value: value})
	for _, target := range selects {
		tokens = append(tokens, &ExtendedToken{Value: SymbolToken(target)})
	}

	return b.add(&Item{
		Prompt:     prompt,
		Dependency: dependency,
		Help:       help,
		Tokens:     tokens,
	}, symbol)
}

// AddChoiceEntry adds a choice entry built from options to the current menu.
// At most one option may be the default; with none, the first option is.
func (b *Builder) AddChoiceEntry(prompt, symbol string, options []*ExtendedToken, dependency *Expr, help string) (*Item, error) {
	if len(options) == 0 {
		return nil, NewConstructionError("choice has no options", nil).
			WithCode(ErrCodeInvalidChoice).
			WithSymbol(symbol)
	}

	defaults := 0
	for _, opt := range options {
		if opt.Flags.Has(FlagDefaultPending | FlagSelected) {
			defaults++
		}
		switch opt.Value.Kind {
		case TokenInt, TokenString:
		default:
			return nil, NewConstructionError(fmt.Sprintf("choice option %s must be an int or string", opt.Value.Source()), nil).
				WithCode(ErrCodeInvalidChoice).
				WithSymbol(symbol)
		}
	}
	if defaults > 1 {
		return nil, NewConstructionError("choice has more than one default option", nil).
			WithCode(ErrCodeInvalidChoice).
			WithSymbol(symbol)
	}
	if defaults == 0 {
		options[0].Flags |= FlagDefaultPending | FlagSelected
	}

	return b.add(&Item{
		Prompt:     prompt,
		Dependency: dependency,
		Help:       help,
		Tokens:     options,
	}, symbol)
}

func (b *Builder) add(it *Item, symbol string) (*Item, error) {
	it.Menu = b.current
	if err := b.db.Insert(symbol, it); err != nil {
		return nil, err
	}
	m := b.db.Menu(b.current)
	m.Entries = append(m.Entries, it.ID)
	return it, nil
}

// AddConfigFile queues path to be parsed into the current menu.
func (b *Builder) AddConfigFile(path string) {
	b.includes = append(b.includes, IncludeDirective{File: path, Menu: b.current})
}

// NextInclude removes and returns the oldest queued include directive.
func (b *Builder) NextInclude() (IncludeDirective, bool) {
	if len(b.includes) == 0 {
		return IncludeDirective{}, false
	}
	d := b.includes[0]
	b.includes = b.includes[1:]
	return d, true
}

// Includes returns the queued include directives without consuming them.
func (b *Builder) Includes() []IncludeDirective {
	out := make([]IncludeDirective, len(b.includes))
	copy(out, b.includes)
	return out
}
