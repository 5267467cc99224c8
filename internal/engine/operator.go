package engine

import "math"

// Pose selects which visual value of a property drives a transform.
type Pose int

const (
	PoseDesign Pose = iota
	PoseAnimate

	// poseCommitted reads stored design values, ignoring pushed previews.
	poseCommitted
)

func (p Pose) String() string {
	switch p {
	case PoseAnimate:
		return "animate"
	case poseCommitted:
		return "committed"
	}
	return "design"
}

// Operator contributes one step to a node's local transform. Operators are
// folded in node order onto the identity matrix.
type Operator interface {
	// ApplyTo returns m with this operator post-multiplied onto it.
	ApplyTo(m Matrix, pose Pose) Matrix
	// UpdateFromMatrix derives the operator's parameters from a local
	// transform. The result is written to design values without history.
	UpdateFromMatrix(m Matrix)
}

// TranslateOperator reads the node's TranslationX and TranslationY.
type TranslateOperator struct {
	X, Y *Property
}

func (o *TranslateOperator) ApplyTo(m Matrix, pose Pose) Matrix {
	tx, ty := o.X.VisualValue(pose), o.Y.VisualValue(pose)
	// m * T(tx, ty) only touches the last column.
	m.M13 += m.M11*tx + m.M12*ty
	m.M23 += m.M21*tx + m.M22*ty
	m.M33 += m.M31*tx + m.M32*ty
	return m
}

func (o *TranslateOperator) UpdateFromMatrix(m Matrix) {
	o.X.assignDesign(m.M13)
	o.Y.assignDesign(m.M23)
}

// RotateOperator reads the node's RotationAngle, in radians.
type RotateOperator struct {
	Angle *Property
}

func (o *RotateOperator) ApplyTo(m Matrix, pose Pose) Matrix {
	sin, cos := math.Sincos(o.Angle.VisualValue(pose))
	c1 := [3]float64{m.M11, m.M21, m.M31}
	c2 := [3]float64{m.M12, m.M22, m.M32}

	m.M11 = c1[0]*cos + c2[0]*sin
	m.M21 = c1[1]*cos + c2[1]*sin
	m.M31 = c1[2]*cos + c2[2]*sin

	m.M12 = c2[0]*cos - c1[0]*sin
	m.M22 = c2[1]*cos - c1[1]*sin
	m.M32 = c2[2]*cos - c1[2]*sin
	return m
}

// UpdateFromMatrix recovers the angle from M11, clamped to [0, 1], using the
// sign of M21 to pick between the two arccosine solutions.
func (o *RotateOperator) UpdateFromMatrix(m Matrix) {
	angle := math.Acos(clamp(m.M11, 0, 1))
	if m.M21 < 0 {
		angle = 2*math.Pi - angle
	}
	o.Angle.assignDesign(angle)
}

// ScaleOperator holds a fixed sprite scale. It has no backing property.
type ScaleOperator struct {
	X, Y float64
}

// ApplyTo multiplies the scale factors into the diagonal only.
func (o *ScaleOperator) ApplyTo(m Matrix, _ Pose) Matrix {
	m.M11 *= o.X
	m.M22 *= o.Y
	return m
}

// UpdateFromMatrix does nothing: scale is not decomposed, so re-parenting a
// scaled node does not keep its visual scale.
func (o *ScaleOperator) UpdateFromMatrix(Matrix) {}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
