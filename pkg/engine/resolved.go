package engine

// ResolvedItem is a read-only snapshot of one item's current state.
type ResolvedItem struct {
	Symbol     string   `json:"symbol" yaml:"symbol"`
	Prompt     string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Kind       string   `json:"kind" yaml:"kind"`
	Value      string   `json:"value" yaml:"value"`
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	Active     bool     `json:"active" yaml:"active"`
	Pending    bool     `json:"pending" yaml:"pending"`
	Refcount   uint32   `json:"refcount" yaml:"refcount"`
	Menu       string   `json:"menu,omitempty" yaml:"menu,omitempty"`
	Dependency string   `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Selects    []string `json:"selects,omitempty" yaml:"selects,omitempty"`
	SelectedBy []string `json:"selected_by,omitempty" yaml:"selected_by,omitempty"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Resolve snapshots every item in symbol table order. Enabled is true for
// booleans that are on and for every non-boolean with a value.
func (db *Database) Resolve() []ResolvedItem {
	graph := db.SelectGraph()
	items := db.Items()
	out := make([]ResolvedItem, 0, len(items))

	for _, it := range items {
		v := it.Value()
		r := ResolvedItem{
			Symbol:     it.Symbol,
			Prompt:     it.Prompt,
			Kind:       it.Kind().String(),
			Value:      v.Format(),
			Enabled:    v.Kind != TokenInvalid && (v.Kind != TokenBool || v.Bool),
			Active:     db.Active(it),
			Pending:    it.Pending(),
			Refcount:   it.Refcount,
			Menu:       db.PathString(it.Menu),
			Dependency: it.Dependency.String(),
			Selects:    it.Selects(),
			SelectedBy: graph.SelectedBy(it.Symbol),
		}
		for _, opt := range it.Options() {
			r.Options = append(r.Options, opt.Value.Format())
		}
		out = append(out, r)
	}

	return out
}
