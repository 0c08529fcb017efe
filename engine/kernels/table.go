package kernels

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Table is a piecewise-linear function defined by knot pairs, used for
// tabulated relationships such as rating and capacity curves. Inside the
// knot range it interpolates linearly; outside it holds the boundary value
// constant.
type Table struct {
	pl interp.PiecewiseLinear
}

// NewTable fits a table to the given knots. xs must be strictly increasing
// and at least two points long.
func NewTable(xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("kernels: table needs matching knot slices, got %d and %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("kernels: table needs at least 2 knots, got %d", len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("kernels: table knots must be strictly increasing at index %d", i)
		}
	}
	t := &Table{}
	if err := t.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("kernels: fit table: %w", err)
	}
	return t, nil
}

// At evaluates the table at x.
func (t *Table) At(x float64) float64 {
	return t.pl.Predict(x)
}
