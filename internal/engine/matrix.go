package engine

import "math"

// Matrix is a 3x3 affine transform in homogeneous 2D coordinates.
// Layout (row, column):
// | M11 M12 M13 |
// | M21 M22 M23 |
// | M31 M32 M33 |
//
// For an affine map the last row is 0 0 1 and (M13, M23) is the translation.
// Matrices are values; every operation returns a new one.
type Matrix struct {
	M11, M12, M13 float64
	M21, M22, M23 float64
	M31, M32, M33 float64
}

// NewMatrix builds a matrix from nine values in row-major order.
func NewMatrix(m11, m12, m13, m21, m22, m23, m31, m32, m33 float64) Matrix {
	return Matrix{
		M11: m11, M12: m12, M13: m13,
		M21: m21, M22: m22, M23: m23,
		M31: m31, M32: m32, M33: m33,
	}
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return NewMatrix(1, 0, 0, 0, 1, 0, 0, 0, 1)
}

// Translation returns a translation matrix.
func Translation(tx, ty float64) Matrix {
	return NewMatrix(1, 0, tx, 0, 1, ty, 0, 0, 1)
}

// Scaling returns a scale matrix.
func Scaling(sx, sy float64) Matrix {
	return NewMatrix(sx, 0, 0, 0, sy, 0, 0, 0, 1)
}

// Rotation returns a counter-clockwise rotation matrix (angle in radians).
func Rotation(radians float64) Matrix {
	sin, cos := math.Sincos(radians)
	return NewMatrix(cos, -sin, 0, sin, cos, 0, 0, 0, 1)
}

// Multiply returns m * o. Applied to a point, o acts first, then m.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		M11: m.M11*o.M11 + m.M12*o.M21 + m.M13*o.M31,
		M12: m.M11*o.M12 + m.M12*o.M22 + m.M13*o.M32,
		M13: m.M11*o.M13 + m.M12*o.M23 + m.M13*o.M33,

		M21: m.M21*o.M11 + m.M22*o.M21 + m.M23*o.M31,
		M22: m.M21*o.M12 + m.M22*o.M22 + m.M23*o.M32,
		M23: m.M21*o.M13 + m.M22*o.M23 + m.M23*o.M33,

		M31: m.M31*o.M11 + m.M32*o.M21 + m.M33*o.M31,
		M32: m.M31*o.M12 + m.M32*o.M22 + m.M33*o.M32,
		M33: m.M31*o.M13 + m.M32*o.M23 + m.M33*o.M33,
	}
}

// Determinant returns the determinant of the matrix.
func (m Matrix) Determinant() float64 {
	return m.M11*(m.M22*m.M33-m.M23*m.M32) -
		m.M12*(m.M21*m.M33-m.M23*m.M31) +
		m.M13*(m.M21*m.M32-m.M22*m.M31)
}

// Inverse returns the inverse via the adjugate. ok is false when the
// determinant is exactly zero.
func (m Matrix) Inverse() (inv Matrix, ok bool) {
	det := m.Determinant()
	if det == 0 {
		return Matrix{}, false
	}

	adj := Matrix{
		M11: m.M22*m.M33 - m.M23*m.M32,
		M12: m.M13*m.M32 - m.M12*m.M33,
		M13: m.M12*m.M23 - m.M13*m.M22,

		M21: m.M23*m.M31 - m.M21*m.M33,
		M22: m.M11*m.M33 - m.M13*m.M31,
		M23: m.M13*m.M21 - m.M11*m.M23,

		M31: m.M21*m.M32 - m.M22*m.M31,
		M32: m.M12*m.M31 - m.M11*m.M32,
		M33: m.M11*m.M22 - m.M12*m.M21,
	}
	return adj.scale(1 / det), true
}

func (m Matrix) scale(f float64) Matrix {
	return Matrix{
		M11: m.M11 * f, M12: m.M12 * f, M13: m.M13 * f,
		M21: m.M21 * f, M22: m.M22 * f, M23: m.M23 * f,
		M31: m.M31 * f, M32: m.M32 * f, M33: m.M33 * f,
	}
}

// TranslationVector extracts (M13, M23).
func (m Matrix) TranslationVector() Vector2 {
	return Vector2{X: m.M13, Y: m.M23}
}

// TransformPoint applies the matrix to a point.
func (m Matrix) TransformPoint(p Vector2) Vector2 {
	return Vector2{
		X: m.M11*p.X + m.M12*p.Y + m.M13,
		Y: m.M21*p.X + m.M22*p.Y + m.M23,
	}
}

// Affine returns the matrix as [a, b, c, d, e, f] in Canvas2D order, for
// transports.
func (m Matrix) Affine() [6]float64 {
	return [6]float64{m.M11, m.M21, m.M12, m.M22, m.M13, m.M23}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix) IsIdentity() bool {
	return m.ApproxEqual(Identity(), 1e-10)
}

// ApproxEqual compares every element within eps.
func (m Matrix) ApproxEqual(o Matrix, eps float64) bool {
	a, b := m.elements(), o.elements()
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func (m Matrix) elements() [9]float64 {
	return [9]float64{m.M11, m.M12, m.M13, m.M21, m.M22, m.M23, m.M31, m.M32, m.M33}
}
