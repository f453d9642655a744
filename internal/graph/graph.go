// Package graph builds and validates Kite's segment dependency graph and
// decomposes it into execution levels.
package graph

import (
	"sort"

	"github.com/kiteci/kite/pkg/kiteerrors"
)

// Node carries the subset of a segment's identity the graph needs:
// its name and the names it depends on.
type Node struct {
	Name      string
	DependsOn []string
}

// Graph is a directed graph over segment names, where an edge from A to B
// means "B depends on A".
type Graph struct {
	nodes      map[string]Node
	dependents map[string][]string
}

// Build constructs a Graph from nodes. Duplicate names fail with a
// DuplicateName GraphError; the graph is otherwise unvalidated (dangling
// dependencies and cycles are caught by Validate).
func Build(nodes []Node) (*Graph, error) {
	g := &Graph{
		nodes:      make(map[string]Node, len(nodes)),
		dependents: make(map[string][]string),
	}

	for _, n := range nodes {
		if _, exists := g.nodes[n.Name]; exists {
			return nil, kiteerrors.NewGraphError(kiteerrors.DuplicateName, n.Name, "duplicate segment name")
		}
		g.nodes[n.Name] = n
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			g.dependents[dep] = append(g.dependents[dep], n.Name)
		}
	}

	return g, nil
}

// Validate reports the first structural problem found: an unknown
// dependency, or — via three-color DFS — a cycle, returning the cycle's
// membership as the back-edge's path from the current DFS stack.
func (g *Graph) Validate() error {
	names := g.sortedNames()

	for _, name := range names {
		for _, dep := range g.nodes[name].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return kiteerrors.NewGraphError(kiteerrors.UnknownDependency, name, "depends on unknown segment \""+dep+"\"")
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range g.nodes[name].DependsOn {
			switch color[dep] {
			case white:
				if cyc := visit(dep); cyc != nil {
					return cyc
				}
			case gray:
				idx := indexOf(stack, dep)
				cyc := append([]string(nil), stack[idx:]...)
				cyc = append(cyc, dep)
				return cyc
			}
		}

		color[name] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, name := range names {
		if color[name] == white {
			if cyc := visit(name); cyc != nil {
				return kiteerrors.NewCycleError(cyc)
			}
		}
	}

	return nil
}

// Sort returns segment names in producer-before-consumer order using
// Kahn's algorithm with a stable tie-break on name. It fails with a Cycle
// GraphError if the graph is not a DAG.
func (g *Graph) Sort() ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	levels, err := g.SortByLevels()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, level := range levels {
		out = append(out, level...)
	}
	return out, nil
}

// SortByLevels partitions segment names into levels: level 0 is the set of
// roots (no dependencies); level k+1 is the set of nodes whose every
// dependency lies in a level ≤ k. The number of levels equals the longest
// dependency path plus one.
func (g *Graph) SortByLevels() ([][]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = len(g.nodes[name].DependsOn)
	}

	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var levels [][]string
	processed := 0

	for len(queue) > 0 {
		level := append([]string(nil), queue...)
		levels = append(levels, level)

		var next []string
		for _, name := range level {
			processed++
			for _, dependent := range g.dependents[name] {
				indegree[dependent]--
				if indegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Strings(next)
		queue = next
	}

	if processed != len(g.nodes) {
		return nil, kiteerrors.NewGraphError(kiteerrors.Cycle, "", "graph is not acyclic")
	}

	return levels, nil
}

func (g *Graph) sortedNames() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func indexOf(stack []string, target string) int {
	for i, v := range stack {
		if v == target {
			return i
		}
	}
	return -1
}
