package engine

import "math"

// Vector2 is a 2D point or direction.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{v.X + o.X, v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{v.X - o.X, v.Y - o.Y} }
func (v Vector2) Scale(f float64) Vector2 {
	return Vector2{v.X * f, v.Y * f}
}
func (v Vector2) Dot(o Vector2) float64 { return v.X*o.X + v.Y*o.Y }

// Length returns the magnitude of v.
func (v Vector2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Angle returns the direction of v in radians, in (-π, π].
func (v Vector2) Angle() float64 { return math.Atan2(v.Y, v.X) }

// Perpendicular returns v rotated a quarter turn counter-clockwise.
func (v Vector2) Perpendicular() Vector2 { return Vector2{-v.Y, v.X} }

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vector2) Normalize() Vector2 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}
