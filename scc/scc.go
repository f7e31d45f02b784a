// SPDX-License-Identifier: MIT

package scc

import (
	"fmt"
	"sort"
)

// New returns an arena of n isolated vertices.
func New(n int) *Graph {
	if n < 0 {
		n = 0
	}

	return &Graph{adj: make([][]int, n)}
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.adj) }

// AddArc appends the directed arc u→v.
func (g *Graph) AddArc(u, v int) error {
	if u < 0 || u >= len(g.adj) || v < 0 || v >= len(g.adj) {
		return fmt.Errorf("scc: AddArc(%d,%d): %w", u, v, ErrVertexOutOfRange)
	}
	g.adj[u] = append(g.adj[u], v)

	return nil
}

// Successors returns the successors of u. The slice aliases the arena.
func (g *Graph) Successors(u int) []int { return g.adj[u] }

// tarjanWalker holds the state of one Tarjan run.
type tarjanWalker struct {
	graph   *Graph
	index   []int  // discovery index per vertex, unvisited until seen
	low     []int  // low-link per vertex
	onStack []bool // membership in stack
	stack   []int  // vertices of the components still open
	next    int    // next discovery index
	comps   [][]int
}

// Tarjan returns every strongly connected component of g. Each component is
// sorted ascending; components appear in the order Tarjan closes them.
func Tarjan(g *Graph) [][]int {
	if g == nil || len(g.adj) == 0 {
		return nil
	}

	// 1. Prepare per-vertex state
	n := len(g.adj)
	w := &tarjanWalker{
		graph:   g,
		index:   make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
		stack:   make([]int, 0, n),
	}
	for v := range w.index {
		w.index[v] = unvisited
	}

	// 2. Launch from every unvisited vertex in ascending order
	for v := 0; v < n; v++ {
		if w.index[v] == unvisited {
			w.strongConnect(v)
		}
	}

	return w.comps
}

// call is one vertex on the explicit DFS stack and the next successor to scan.
type call struct {
	v    int
	edge int
}

// strongConnect runs Tarjan's algorithm from root with an explicit stack, so
// long chains of original edges cannot exhaust the goroutine stack.
func (w *tarjanWalker) strongConnect(root int) {
	w.visit(root)
	calls := []call{{v: root}}
	for len(calls) > 0 {
		// 1. Scan the next successor of the vertex on top
		top := &calls[len(calls)-1]
		v := top.v
		if top.edge < len(w.graph.adj[v]) {
			u := w.graph.adj[v][top.edge]
			top.edge++
			switch {
			case w.index[u] == unvisited:
				w.visit(u)
				calls = append(calls, call{v: u})
			case w.onStack[u]:
				w.low[v] = min(w.low[v], w.index[u])
			}
			continue
		}

		// 2. v is done: close its component and fold its low-link into the caller
		calls = calls[:len(calls)-1]
		if w.low[v] == w.index[v] {
			w.close(v)
		}
		if len(calls) > 0 {
			p := calls[len(calls)-1].v
			w.low[p] = min(w.low[p], w.low[v])
		}
	}
}

// visit assigns v its discovery index and pushes it.
func (w *tarjanWalker) visit(v int) {
	w.index[v] = w.next
	w.low[v] = w.next
	w.next++
	w.stack = append(w.stack, v)
	w.onStack[v] = true
}

// close pops the component rooted at v.
func (w *tarjanWalker) close(v int) {
	var comp []int
	for {
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.onStack[top] = false
		comp = append(comp, top)
		if top == v {
			break
		}
	}
	sort.Ints(comp)
	w.comps = append(w.comps, comp)
}

// Largest returns the largest component of g (sorted ascending), or nil for
// an empty graph. Among equal sizes the first closed component wins.
func Largest(g *Graph) []int {
	var best []int
	for _, c := range Tarjan(g) {
		if len(c) > len(best) {
			best = c
		}
	}

	return best
}
