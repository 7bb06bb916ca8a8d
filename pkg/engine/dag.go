package engine

import (
	"fmt"
	"strings"
)

// SelectGraph is the directed graph of select relations between boolean items.
// An edge A -> B means enabling A turns B on.
type SelectGraph struct {
	// nodes lists symbols in symbol table order
	nodes []string

	// adjacencyList maps a selector to its select targets
	adjacencyList map[string][]string

	// reverseAdjacencyList maps a target to the items selecting it
	reverseAdjacencyList map[string][]string
}

// SelectGraph builds the select graph of db. Targets that are undefined or
// not boolean are reported as diagnostics and left out of the graph.
func (db *Database) SelectGraph() *SelectGraph {
	g := &SelectGraph{
		adjacencyList:        make(map[string][]string),
		reverseAdjacencyList: make(map[string][]string),
	}

	for _, it := range db.Items() {
		if it.Kind() != KindBool {
			continue
		}
		g.nodes = append(g.nodes, it.Symbol)
		for _, target := range it.Selects() {
			t, ok := db.Lookup(target)
			if !ok {
				db.warnDiag(DiagUndefinedSelect, target,
					fmt.Sprintf("%s selects undefined symbol %s", it.Symbol, target))
				continue
			}
			if t.Kind() != KindBool {
				db.warnDiag(DiagIncompatibleSelect, target,
					fmt.Sprintf("%s selects %s entry %s", it.Symbol, t.Kind(), target))
				continue
			}
			g.adjacencyList[it.Symbol] = append(g.adjacencyList[it.Symbol], target)
			g.reverseAdjacencyList[target] = append(g.reverseAdjacencyList[target], it.Symbol)
		}
	}

	return g
}

// Targets returns the symbols selected by symbol.
func (g *SelectGraph) Targets(symbol string) []string {
	return g.adjacencyList[symbol]
}

// SelectedBy returns the symbols that select symbol.
func (g *SelectGraph) SelectedBy(symbol string) []string {
	return g.reverseAdjacencyList[symbol]
}

// Edges returns the number of edges in the graph.
func (g *SelectGraph) Edges() int {
	n := 0
	for _, targets := range g.adjacencyList {
		n += len(targets)
	}
	return n
}

// DetectCycles uses depth-first search to find a select cycle. The returned
// error names the cycle path.
func (g *SelectGraph) DetectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	for _, id := range g.nodes {
		if !visited[id] {
			if cycle := g.detectCyclesUtil(id, visited, recStack, path); cycle != nil {
				return NewConstructionError(
					fmt.Sprintf("select cycle detected: %s", formatCycle(cycle)),
					nil,
				).WithCode(ErrCodeSelectCycle).WithSymbol(cycle[0])
			}
		}
	}

	return nil
}

// detectCyclesUtil performs DFS from nodeID and returns a cycle if one is reachable.
func (g *SelectGraph) detectCyclesUtil(
	nodeID string,
	visited map[string]bool,
	recStack map[string]bool,
	path []string,
) []string {
	visited[nodeID] = true
	recStack[nodeID] = true
	path = append(path, nodeID)

	for _, target := range g.adjacencyList[nodeID] {
		if !visited[target] {
			if cycle := g.detectCyclesUtil(target, visited, recStack, path); cycle != nil {
				return cycle
			}
		} else if recStack[target] {
			for i, id := range path {
				if id == target {
					cycle := append([]string{}, path[i:]...)
					return append(cycle, target)
				}
			}
		}
	}

	recStack[nodeID] = false
	return nil
}

// formatCycle formats a cycle path for error messages.
func formatCycle(cycle []string) string {
	return strings.Join(cycle, " -> ")
}

// ValidateSelects checks the select graph of db and rejects select cycles.
func (db *Database) ValidateSelects() error {
	return db.SelectGraph().DetectCycles()
}
