package complexity

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Classical returns the textbook cyclomatic complexity E - N + 2P over every
// block and edge of g, reachable or not. P is the number of weakly connected
// components. It is reported next to the DFS count and never replaces it: the
// two differ for self-loops, multiple exits and unreachable blocks.
func Classical(g CFG) int {
	n := g.NumBlocks()
	if n == 0 {
		return 0
	}

	u := simple.NewUndirectedGraph()
	for b := 0; b < n; b++ {
		u.AddNode(simple.Node(b))
	}

	edges := 0
	for b := 0; b < n; b++ {
		for _, s := range g.Successors(b) {
			edges++
			// Self-loops and parallel edges add to E but never change P.
			if s == b || u.HasEdgeBetween(int64(b), int64(s)) {
				continue
			}
			u.SetEdge(u.NewEdge(simple.Node(b), simple.Node(s)))
		}
	}

	components := len(topo.ConnectedComponents(u))
	return edges - n + 2*components
}
