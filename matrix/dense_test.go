// SPDX-License-Identifier: MIT

// Package matrix_test contains unit tests for Dense storage and accessors.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/mograph/matrix"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestAtSetOutOfRange ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfRange(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	rows, cols := m.Shape()
	require.Equal(t, 2, rows)
	require.Equal(t, 3, cols)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	_, err = m.At(0, 3)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(2, 0, 1), matrix.ErrOutOfRange)
	_, err = m.Row(2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)
}

// TestSetGetAndPolicy validates Set/At round trips and the finite-only policy.
func TestSetGetAndPolicy(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	require.NoError(t, m.Set(1, 2, 7.89))
	v, err := m.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 7.89, v)

	require.ErrorIs(t, m.Set(0, 0, math.NaN()), matrix.ErrNaNInf)
	require.ErrorIs(t, m.Set(0, 0, math.Inf(1)), matrix.ErrNaNInf)

	row, err := m.Row(1)
	require.NoError(t, err)
	require.Equal(t, []float64{0, 0, 7.89}, row)
}

// TestString renders rows as space-separated lines.
func TestString(t *testing.T) {
	m := grid(t, [][]float64{{1, 0.5}, {0, 4}})
	require.Equal(t, "1 0.5\n0 4\n", m.String())
}
