package engine

import "fmt"

// SymbolTable maps symbol names to item handles and remembers insertion order.
type SymbolTable struct {
	index map[string]ItemID
	order []string
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{index: make(map[string]ItemID)}
}

// Insert binds symbol to id. It fails without modifying the table when the
// symbol is already bound.
func (s *SymbolTable) Insert(symbol string, id ItemID) error {
	if _, exists := s.index[symbol]; exists {
		return NewConstructionError(fmt.Sprintf("symbol %s already exists", symbol), nil).
			WithCode(ErrCodeDuplicateSymbol).
			WithSymbol(symbol)
	}
	s.index[symbol] = id
	s.order = append(s.order, symbol)
	return nil
}

// Lookup returns the handle bound to symbol.
func (s *SymbolTable) Lookup(symbol string) (ItemID, bool) {
	id, ok := s.index[symbol]
	return id, ok
}

// Symbols returns every bound symbol in insertion order.
func (s *SymbolTable) Symbols() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of bound symbols.
func (s *SymbolTable) Len() int {
	return len(s.order)
}
