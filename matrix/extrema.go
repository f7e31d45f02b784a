// SPDX-License-Identifier: MIT

// Package matrix - extremum kernels over error surfaces.
//
// LocalMinima performs a 2D non-maximum suppression (on the negated surface):
// a cell survives when it is strictly smaller than its four axis neighbours
// and does not exceed a threshold. Only interior cells qualify, so border rows
// and columns never produce candidates. Suppression rather than a global
// threshold keeps one candidate per valley instead of a dense cluster of
// near-duplicates.
//
// Determinism: cells are scanned row-major (i outer, j inner); the returned
// slice is in that order.

package matrix

import "math"

// Cell is one matrix coordinate with its value.
type Cell struct {
	I, J  int
	Value float64
}

// LocalMinima returns every interior cell (1 ≤ i < r-1, 1 ≤ j < c-1) whose
// value is strictly below its four axis neighbours and ≤ threshold.
// Complexity: O(r*c).
func LocalMinima(m *Dense, threshold float64) ([]Cell, error) {
	// 1. Validate input
	if m == nil {
		return nil, ErrNilMatrix
	}

	// 2. Scan interior cells on the flat buffer
	var out []Cell
	c := m.c
	for i := 1; i < m.r-1; i++ {
		for j := 1; j < c-1; j++ {
			off := i*c + j
			v := m.data[off]
			if v > threshold {
				continue
			}
			if v < m.data[off-1] && v < m.data[off+1] &&
				v < m.data[off-c] && v < m.data[off+c] {
				out = append(out, Cell{I: i, J: j, Value: v})
			}
		}
	}

	return out, nil
}

// MinimaMask renders LocalMinima as a 0/1 matrix of the same shape.
func MinimaMask(m *Dense, threshold float64) (*Dense, error) {
	cells, err := LocalMinima(m, threshold)
	if err != nil {
		return nil, err
	}
	mask, err := NewDense(m.r, m.c)
	if err != nil {
		return nil, err
	}
	for _, cell := range cells {
		mask.data[cell.I*m.c+cell.J] = 1
	}

	return mask, nil
}

// Range returns the smallest and largest values of m.
func Range(m *Dense) (lo, hi float64, err error) {
	if m == nil {
		return 0, 0, ErrNilMatrix
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range m.data {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	return lo, hi, nil
}
