// SPDX-License-Identifier: MIT

// Package scc finds strongly connected components on an integer vertex arena.
//
// Vertices are dense integers 0..n-1 and arcs live in per-vertex adjacency
// lists, so Tarjan's index, low-link and stack state are plain slices rather
// than maps keyed by vertex IDs.
//
// Key features:
//   - New(n): allocate an arena of n vertices.
//   - AddArc(u, v): append a directed arc; duplicates are harmless.
//   - Tarjan(g): all components, in completion order (reverse topological).
//   - Largest(g): the single largest component, ties broken by completion order.
//
// Complexity:
//
//   - Time:   O(V + E)
//   - Memory: O(V) for index/low-link/stack plus recursion depth.
//
// Errors:
//
//   - ErrVertexOutOfRange if an arc endpoint is outside [0, n).
package scc
