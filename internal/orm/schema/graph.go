package schema

import (
	"fmt"
	"strings"
)

// Graph is the foreign key dependency graph between a set of tables. An edge
// from A to B means rows of A reference rows of B, so B must be populated
// first. Only edges between nodes of the graph are kept.
type Graph struct {
	nodes []string
	index map[string]int
	edges map[string][]string // table -> referenced tables
}

// NewGraph creates a graph over the given nodes in declared order.
// Duplicate names are ignored.
func NewGraph(nodes ...string) *Graph {
	g := &Graph{
		index: make(map[string]int),
		edges: make(map[string][]string),
	}
	for _, node := range nodes {
		g.AddNode(node)
	}
	return g
}

// NewTableGraph builds a graph from table schemas, taking edges from their
// foreign keys. References to tables outside the list are dropped.
func NewTableGraph(tables []*Table) *Graph {
	g := NewGraph()
	for _, table := range tables {
		g.AddNode(table.Name)
	}
	for _, table := range tables {
		for _, ref := range table.References() {
			g.AddEdge(table.Name, ref)
		}
	}
	return g
}

// AddNode adds a node if it is not already present
func (g *Graph) AddNode(name string) {
	if _, exists := g.index[name]; exists {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from depends on to. Self references, unknown nodes
// and repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	if from == to {
		return
	}
	if _, ok := g.index[from]; !ok {
		return
	}
	if _, ok := g.index[to]; !ok {
		return
	}
	for _, existing := range g.edges[from] {
		if existing == to {
			return
		}
	}
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns the nodes in declared order
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Dependencies returns all direct dependencies of a node
func (g *Graph) Dependencies(name string) []string {
	deps := g.edges[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the nodes that depend on name, in declared order
func (g *Graph) Dependents(name string) []string {
	dependents := []string{}
	for _, node := range g.nodes {
		for _, dep := range g.edges[node] {
			if dep == name {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

// DetectCycles returns the dependency cycles reachable in declared order
func (g *Graph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				dfs(neighbor, path)
				continue
			}
			if !recursionStack[neighbor] {
				continue
			}
			for i, n := range path {
				if n == neighbor {
					cycle := make([]string, len(path)-i)
					copy(cycle, path[i:])
					cycles = append(cycles, cycle)
					break
				}
			}
		}

		recursionStack[node] = false
	}

	for _, node := range g.nodes {
		if !visited[node] {
			dfs(node, []string{})
		}
	}

	return cycles
}

// Sort orders nodes so that dependencies come before their dependents.
//
// At every step the earliest declared node whose dependencies are all placed
// is taken next. When no such node exists the graph is cyclic: the earliest
// remaining node is placed anyway and acyclic is reported false.
func (g *Graph) Sort() (order []string, acyclic bool) {
	acyclic = true
	placed := make(map[string]bool, len(g.nodes))
	order = make([]string, 0, len(g.nodes))

	ready := func(node string) bool {
		for _, dep := range g.edges[node] {
			if !placed[dep] {
				return false
			}
		}
		return true
	}

	for len(order) < len(g.nodes) {
		next := ""
		for _, node := range g.nodes {
			if !placed[node] && ready(node) {
				next = node
				break
			}
		}
		if next == "" {
			acyclic = false
			for _, node := range g.nodes {
				if !placed[node] {
					next = node
					break
				}
			}
		}
		placed[next] = true
		order = append(order, next)
	}

	return order, acyclic
}

// TopologicalSort returns nodes in dependency order (dependencies first), or
// an error describing the cycles when the graph is cyclic.
func (g *Graph) TopologicalSort() ([]string, error) {
	order, acyclic := g.Sort()
	if !acyclic {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("circular dependency detected:\n%s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular dependency detected")
	}
	return order, nil
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("  Cycle %d: %s -> %s",
			i+1,
			strings.Join(cycle, " -> "),
			cycle[0]))
	}
	return b.String()
}
