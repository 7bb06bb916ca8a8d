package engine

import (
	"github.com/rs/zerolog"
)

// DiagnosticKind classifies a recoverable problem. Diagnostics are logged
// and recorded; they never abort processing.
type DiagnosticKind string

const (
	DiagUndefinedSymbol    DiagnosticKind = "undefined_symbol"
	DiagTypeMismatch       DiagnosticKind = "type_mismatch"
	DiagBrokenDependency   DiagnosticKind = "broken_dependency"
	DiagUndefinedSelect    DiagnosticKind = "undefined_select"
	DiagIncompatibleSelect DiagnosticKind = "incompatible_select"
	DiagMalformedLine      DiagnosticKind = "malformed_line"
	DiagBadValue           DiagnosticKind = "bad_value"
	DiagUnknownOption      DiagnosticKind = "unknown_option"
)

// Diagnostic is one recorded recoverable problem.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Symbol  string         `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

// Observer receives engine events. Implementations must be cheap; they are
// called synchronously from the mutating operations.
type Observer interface {
	// Diagnostic is called once for every distinct diagnostic.
	Diagnostic(kind DiagnosticKind)
	// Propagated is called each time select propagation changes an item's value.
	Propagated(on bool)
	// Toggled is called for every successful user mutation.
	Toggled(kind ItemKind)
}

// Database owns the menu tree, the items and the symbol table of one run.
// It is not safe for concurrent use; callers must serialize every mutating call.
type Database struct {
	items   []*Item
	menus   []*Menu
	symbols *SymbolTable

	logger   zerolog.Logger
	observer Observer

	diagnostics []Diagnostic
	seenDiag    map[Diagnostic]bool
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(db *Database) {
		db.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithObserver attaches an observer for engine events.
func WithObserver(o Observer) Option {
	return func(db *Database) {
		db.observer = o
	}
}

// New creates a Database holding only the main menu.
func New(opts ...Option) *Database {
	db := &Database{
		menus:    []*Menu{{ID: MainMenu}},
		symbols:  NewSymbolTable(),
		logger:   zerolog.Nop(),
		seenDiag: make(map[Diagnostic]bool),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Insert adds item to the arena and binds symbol to it. On a duplicate
// symbol nothing is modified.
func (db *Database) Insert(symbol string, item *Item) error {
	id := ItemID(len(db.items))
	if err := db.symbols.Insert(symbol, id); err != nil {
		return err
	}
	item.ID = id
	item.Symbol = symbol
	db.items = append(db.items, item)
	return nil
}

// Lookup returns the item bound to symbol.
func (db *Database) Lookup(symbol string) (*Item, bool) {
	id, ok := db.symbols.Lookup(symbol)
	if !ok {
		return nil, false
	}
	return db.items[id], true
}

// Item returns the item with the given handle, or nil.
func (db *Database) Item(id ItemID) *Item {
	if id < 0 || int(id) >= len(db.items) {
		return nil
	}
	return db.items[id]
}

// Menu returns the menu with the given handle, or nil.
func (db *Database) Menu(id MenuID) *Menu {
	if id < 0 || int(id) >= len(db.menus) {
		return nil
	}
	return db.menus[id]
}

// Root returns the main menu.
func (db *Database) Root() *Menu {
	return db.menus[MainMenu]
}

// Items returns every item in symbol table order.
func (db *Database) Items() []*Item {
	out := make([]*Item, 0, db.symbols.Len())
	for _, sym := range db.symbols.Symbols() {
		it, _ := db.Lookup(sym)
		out = append(out, it)
	}
	return out
}

// Len returns the number of items.
func (db *Database) Len() int {
	return len(db.items)
}

// MenuCount returns the number of menus, including the main menu.
func (db *Database) MenuCount() int {
	return len(db.menus)
}

// Diagnostics returns the distinct diagnostics recorded so far.
func (db *Database) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(db.diagnostics))
	copy(out, db.diagnostics)
	return out
}

// ResetDiagnostics forgets every recorded diagnostic.
func (db *Database) ResetDiagnostics() {
	db.diagnostics = nil
	db.seenDiag = make(map[Diagnostic]bool)
}

// Logger returns the database's logger.
func (db *Database) Logger() zerolog.Logger {
	return db.logger
}

// debugDiag records a diagnostic raised during evaluation, which happens
// many times per render and is therefore logged at debug level.
func (db *Database) debugDiag(kind DiagnosticKind, symbol, msg string) {
	if db.record(kind, symbol, msg) {
		db.logger.Debug().Str("kind", string(kind)).Str("symbol", symbol).Msg(msg)
	}
}

func (db *Database) warnDiag(kind DiagnosticKind, symbol, msg string) {
	if db.record(kind, symbol, msg) {
		db.logger.Warn().Str("kind", string(kind)).Str("symbol", symbol).Msg(msg)
	}
}

func (db *Database) record(kind DiagnosticKind, symbol, msg string) bool {
	d := Diagnostic{Kind: kind, Symbol: symbol, Message: msg}
	if db.seenDiag[d] {
		return false
	}
	db.seenDiag[d] = true
	db.diagnostics = append(db.diagnostics, d)
	if db.observer != nil {
		db.observer.Diagnostic(kind)
	}
	return true
}

func (db *Database) addMenu(m *Menu) MenuID {
	m.ID = MenuID(len(db.menus))
	db.menus = append(db.menus, m)
	return m.ID
}
