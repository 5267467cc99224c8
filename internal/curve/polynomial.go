// Package curve provides the numeric routines used to sample easing curves:
// cubic and quadratic polynomials, cubic Bezier curves in polynomial form and
// a Newton-Raphson root finder.
//
// Everything in this package is pure. Values can be shared and evaluated from
// any number of goroutines.
package curve

// Cubic is the polynomial A*t^3 + B*t^2 + C*t + D.
type Cubic struct {
	A, B, C, D float64
}

// Quadratic is the polynomial A*t^2 + B*t + C.
type Quadratic struct {
	A, B, C float64
}

// Solve evaluates the polynomial at t.
func (p Cubic) Solve(t float64) float64 {
	return ((p.A*t+p.B)*t+p.C)*t + p.D
}

// Derivative returns the first derivative 3A*t^2 + 2B*t + C.
func (p Cubic) Derivative() Quadratic {
	return Quadratic{A: 3 * p.A, B: 2 * p.B, C: p.C}
}

// Shift returns the polynomial moved down by y, so that its root is the t
// where the original polynomial equals y.
func (p Cubic) Shift(y float64) Cubic {
	p.D -= y
	return p
}

// Solve evaluates the polynomial at t.
func (q Quadratic) Solve(t float64) float64 {
	return (q.A*t+q.B)*t + q.C
}

// NewtonRaphson searches for a root of f starting at guess. Iteration stops
// once |f(t)| < tolerance, after maxIter steps, or when the derivative
// vanishes. The convergence check runs before every division so an exact hit
// never divides by a zero slope.
func NewtonRaphson(f Cubic, guess, tolerance float64, maxIter int) float64 {
	df := f.Derivative()
	t := guess
	for i := 0; i < maxIter; i++ {
		v := f.Solve(t)
		if v > -tolerance && v < tolerance {
			break
		}
		slope := df.Solve(t)
		if slope == 0 {
			break
		}
		t -= v / slope
	}
	return t
}
