// Package kernels provides the small numerical routines process models are
// built from: piecewise-linear table lookup, scalar root finding, smooth
// thresholding, and fixed-order quadrature. All routines are pure and
// deterministic; none know anything about nodes or scheduling.
package kernels

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Logistic evaluates the logistic curve 1/(1+exp(-k(x-x0))): a smooth step
// from 0 to 1 centered on x0 with steepness k. Process equations use it in
// place of hard thresholds so solvers see a continuous derivative.
func Logistic(x, x0, k float64) float64 {
	return 1 / (1 + math.Exp(-k*(x-x0)))
}

// Integrate computes the integral of f over [a, b] with n-point
// Gauss-Legendre quadrature. Evaluation is serial, so results are
// reproducible bit for bit. Exact for polynomials of degree 2n-1 or less.
func Integrate(f func(float64) float64, a, b float64, n int) float64 {
	return quad.Fixed(f, a, b, n, nil, 0)
}
