// Package engine implements the configuration database behind uconfig.
//
// # Overview
//
// A configuration description declares items arranged in a menu tree:
//
//   - Config entries hold a boolean, integer or string value. Boolean entries
//     may select other boolean entries.
//   - Choice entries hold a set of options of which exactly one is selected.
//   - Menus group entries and child menus under a dependency expression.
//
// A run moves through fixed phases, each completing before the next:
//
//  1. Construct - a parser drives the Builder to fill a Database
//  2. Read - persisted values are loaded, triggering select propagation
//  3. Mutate - an optional interactive session toggles values
//  4. Write - the live values are persisted
//  5. Render - the include-guarded header of #define lines is generated
//
// # Data Model
//
// The Database owns every Item and Menu in arenas addressed by ItemID and
// MenuID handles. A SymbolTable maps each unique symbol to its item and
// remembers insertion order, which is the order Write uses.
//
// Each item carries a list of ExtendedTokens. A config entry's first token
// is flagged FlagConfigValue and holds its value; the following tokens name
// its select targets. A choice entry's tokens are its options, one of which
// is flagged FlagSelected.
//
// # Select Propagation
//
// Turning a boolean on turns its select targets on, recursively. When several
// selectors hold the same target, the target's Refcount records the extra
// holders so that turning one selector off leaves the target on:
//
//	db.SetBool(a1, true) // b: true, refcount 0
//	db.SetBool(a2, true) // b: true, refcount 1
//	db.SetBool(a1, false) // b: true, refcount 0
//	db.SetBool(a2, false) // b: false
//
// Items still flagged FlagDefaultPending have not been read or toggled yet;
// selecting them only records a reference and leaves the value to Read.
//
// # Diagnostics
//
// Undefined symbols, type mismatches and malformed persisted lines never
// abort a run. They are logged through the configured zerolog.Logger,
// recorded in Diagnostics and reported to an optional Observer, and the
// affected expression evaluates to false.
//
// # Concurrency
//
// A Database is not safe for concurrent use. Callers sharing one across
// goroutines must serialize every call that mutates it.
package engine
