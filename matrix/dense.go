// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"math"
	"strings"
)

// Dense is an r×c float64 matrix stored row by row; cell (i,j) lives at
// data[i*c+j]. Set only accepts finite values.
type Dense struct {
	r, c int
	data []float64
}

var _ fmt.Stringer = (*Dense)(nil)

// cellError tags err with the accessor and coordinates that produced it.
func cellError(op string, i, j int, err error) error {
	return fmt.Errorf("matrix: %s(%d,%d): %w", op, i, j, err)
}

// NewDense returns a zero rows×cols matrix, or ErrInvalidDimensions.
func NewDense(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Dense{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// Fill returns a rows×cols matrix holding v everywhere. Planted distance
// surfaces start from it.
func Fill(rows, cols int, v float64) (*Dense, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, ErrNaNInf
	}
	m, err := NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	for k := range m.data {
		m.data[k] = v
	}

	return m, nil
}

// Rows returns the row count.
func (m *Dense) Rows() int { return m.r }

// Cols returns the column count.
func (m *Dense) Cols() int { return m.c }

// Shape returns Rows and Cols.
func (m *Dense) Shape() (rows, cols int) { return m.r, m.c }

func (m *Dense) inside(i, j int) bool { return i >= 0 && i < m.r && j >= 0 && j < m.c }

// At returns cell (i,j), or ErrOutOfRange.
func (m *Dense) At(i, j int) (float64, error) {
	if !m.inside(i, j) {
		return 0, cellError("At", i, j, ErrOutOfRange)
	}

	return m.data[i*m.c+j], nil
}

// Set stores v at (i,j). Indices outside the matrix give ErrOutOfRange and
// NaN or ±Inf give ErrNaNInf.
func (m *Dense) Set(i, j int, v float64) error {
	switch {
	case !m.inside(i, j):
		return cellError("Set", i, j, ErrOutOfRange)
	case math.IsNaN(v) || math.IsInf(v, 0):
		return cellError("Set", i, j, ErrNaNInf)
	}
	m.data[i*m.c+j] = v

	return nil
}

// Row returns row i without copying. The oracle fills distance rows through
// it; writes skip the finite check.
func (m *Dense) Row(i int) ([]float64, error) {
	if i < 0 || i >= m.r {
		return nil, cellError("Row", i, 0, ErrOutOfRange)
	}

	return m.data[i*m.c : (i+1)*m.c], nil
}

// String renders one line per row with space-separated cells, which reads
// as a grid for 0/1 masks.
func (m *Dense) String() string {
	var sb strings.Builder
	for i := 0; i < m.r; i++ {
		for j, v := range m.data[i*m.c : (i+1)*m.c] {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%g", v)
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
