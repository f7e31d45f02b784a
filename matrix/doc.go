// SPDX-License-Identifier: MIT

// Package matrix provides the dense row-major float64 matrix used to hold
// pairwise pose-distance surfaces, plus the extremum kernels the motion graph
// builder runs over them.
//
// The matrix package provides:
//
//   - Dense: row-major storage with bounds-checked At/Set that return errors
//     instead of panicking, finite-only Set, a no-copy Row accessor for hot
//     loops and a grid String for dumping masks.
//   - LocalMinima: strict four-neighbour 2D non-maximum suppression over the
//     interior of a surface, filtered by a threshold.
//   - MinimaMask: the same extraction rendered as a 0/1 matrix for inspection.
//   - Range: min/max scan, used to normalize surfaces for display.
//
// A pose-distance matrix for clips A and B has Rows()==frames(A) and
// Cols()==frames(B); cell (i,j) is the dissimilarity of frame i of A and
// frame j of B.
package matrix
