// SPDX-License-Identifier: MIT

package scc

import "errors"

// ErrVertexOutOfRange is returned when an arc endpoint is not in the arena.
var ErrVertexOutOfRange = errors.New("scc: vertex out of range")

// unvisited marks a vertex Tarjan has not yet indexed.
const unvisited = -1

// Graph is a directed graph over vertices 0..Len()-1.
type Graph struct {
	adj [][]int // adj[u] lists successors of u in insertion order
}
