package curve

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a curve is sampled outside [0, 1].
var ErrOutOfRange = errors.New("x outside [0, 1]")

const (
	oneShotIterations = 10
	oneShotTolerance  = 0.001

	solverIterations = 100
	// DefaultSolverTolerance is the |Fx(t) - x| bound used by NewSolver.
	DefaultSolverTolerance = 0.002
)

// Point is a control point in curve space. X is animation time, Y is value.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bezier is a cubic Bezier curve. P0 and P3 are the end points, P1 and P2
// the handles.
type Bezier struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
	P2 Point `json:"p2"`
	P3 Point `json:"p3"`
}

// Linear is the straight line from (0,0) to (1,1).
func Linear() Bezier {
	return EasingCurve(0.5)
}

// EasingCurve returns a unit easing curve from (0,0) to (1,1). ease 0.5 is a
// straight line, values towards 1 ease in (slow start), values towards 0 ease
// out (slow finish).
func EasingCurve(ease float64) Bezier {
	return Bezier{
		P0: Point{0, 0},
		P1: Point{1.0 / 3, 2 * (1 - ease) / 3},
		P2: Point{2.0 / 3, 1 - 2*ease/3},
		P3: Point{1, 1},
	}
}

// Polynomials converts the curve into its per-axis polynomial form Fx(t),
// Fy(t) with t in [0, 1].
func (b Bezier) Polynomials() (fx, fy Cubic) {
	return axis(b.P0.X, b.P1.X, b.P2.X, b.P3.X), axis(b.P0.Y, b.P1.Y, b.P2.Y, b.P3.Y)
}

func axis(p0, p1, p2, p3 float64) Cubic {
	c := 3 * (p1 - p0)
	b := 3*(p2-p1) - c
	a := p3 - p0 - c - b
	return Cubic{A: a, B: b, C: c, D: p0}
}

// PointAt evaluates the curve at parameter t.
func (b Bezier) PointAt(t float64) Point {
	fx, fy := b.Polynomials()
	return Point{fx.Solve(t), fy.Solve(t)}
}

// GetYAtX finds the t for which Fx(t) is x and returns Fy(t).
func GetYAtX(b Bezier, x float64) (float64, error) {
	if !(x >= 0 && x <= 1) {
		return 0, fmt.Errorf("get y at %v: %w", x, ErrOutOfRange)
	}
	fx, fy := b.Polynomials()
	t := NewtonRaphson(fx.Shift(x), x, oneShotTolerance, oneShotIterations)
	return fy.Solve(t), nil
}

// MustGetYAtX is GetYAtX for callers that have already validated x.
func MustGetYAtX(b Bezier, x float64) float64 {
	y, err := GetYAtX(b, x)
	if err != nil {
		panic(err)
	}
	return y
}

// Solver samples one curve repeatedly. The polynomial form is computed once.
type Solver struct {
	fx, fy    Cubic
	tolerance float64
}

// NewSolver prepares b for repeated sampling with DefaultSolverTolerance.
func NewSolver(b Bezier) *Solver {
	return NewSolverWithTolerance(b, DefaultSolverTolerance)
}

// NewSolverWithTolerance prepares b with a custom convergence tolerance.
func NewSolverWithTolerance(b Bezier, tolerance float64) *Solver {
	fx, fy := b.Polynomials()
	return &Solver{fx: fx, fy: fy, tolerance: tolerance}
}

// SolveYAtX returns the curve's y at x.
func (s *Solver) SolveYAtX(x float64) (float64, error) {
	if !(x >= 0 && x <= 1) {
		return 0, fmt.Errorf("solve y at %v: %w", x, ErrOutOfRange)
	}
	t := NewtonRaphson(s.fx.Shift(x), x, s.tolerance, solverIterations)
	return s.fy.Solve(t), nil
}
