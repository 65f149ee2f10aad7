package core

import (
	"github.com/chewxy/math32"
)

// Frame is an orthonormal tangent basis around a surface normal.
// W is the normal; U and V span the tangent plane.
type Frame struct {
	U, V, W Vec3
}

// NewFrame builds a frame from a normal via Gram-Schmidt, choosing the
// axis least aligned with the normal to avoid a degenerate tangent.
func NewFrame(n Vec3) Frame {
	w := n.Normalize()
	var u Vec3
	if math32.Abs(w.X) > math32.Abs(w.Y) {
		l := 1.0 / math32.Sqrt(w.X*w.X+w.Z*w.Z)
		u = Vec3{w.Z * l, 0, -w.X * l}
	} else {
		l := 1.0 / math32.Sqrt(w.Y*w.Y+w.Z*w.Z)
		u = Vec3{0, w.Z * l, -w.Y * l}
	}
	return Frame{U: u, V: w.Cross(u), W: w}
}

// ToLocal expresses a world-space vector in the frame's basis
func (f Frame) ToLocal(vec Vec3) Vec3 {
	return Vec3{vec.Dot(f.U), vec.Dot(f.V), vec.Dot(f.W)}
}

// ToWorld expresses a frame-local vector in world space
func (f Frame) ToWorld(vec Vec3) Vec3 {
	return f.U.Multiply(vec.X).Add(f.V.Multiply(vec.Y)).Add(f.W.Multiply(vec.Z))
}
