package core

import (
	"github.com/chewxy/math32"
)

// Matrix is a row-major 4x4 transform. Element (r,c) is E[r*4+c].
type Matrix struct {
	E [16]float32
}

// IdentityMatrix returns the identity transform
func IdentityMatrix() Matrix {
	var m Matrix
	m.E[0], m.E[5], m.E[10], m.E[15] = 1, 1, 1, 1
	return m
}

// At returns element (r,c)
func (m Matrix) At(r, c int) float32 {
	return m.E[r*4+c]
}

// Mul returns the matrix product m * other
func (m Matrix) Mul(other Matrix) Matrix {
	var ret Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.E[r*4+k] * other.E[k*4+c]
			}
			ret.E[r*4+c] = sum
		}
	}
	return ret
}

// MulPoint transforms a point, applying translation and the w divide
func (m Matrix) MulPoint(v Vec3) Vec3 {
	x := v.X*m.E[0] + v.Y*m.E[1] + v.Z*m.E[2] + m.E[3]
	y := v.X*m.E[4] + v.Y*m.E[5] + v.Z*m.E[6] + m.E[7]
	z := v.X*m.E[8] + v.Y*m.E[9] + v.Z*m.E[10] + m.E[11]
	w := v.X*m.E[12] + v.Y*m.E[13] + v.Z*m.E[14] + m.E[15]
	if w != 1 {
		inv := 1.0 / w
		return Vec3{x * inv, y * inv, z * inv}
	}
	return Vec3{x, y, z}
}

// MulVec transforms a direction using only the linear 3x3 part
func (m Matrix) MulVec(v Vec3) Vec3 {
	return Vec3{
		v.X*m.E[0] + v.Y*m.E[1] + v.Z*m.E[2],
		v.X*m.E[4] + v.Y*m.E[5] + v.Z*m.E[6],
		v.X*m.E[8] + v.Y*m.E[9] + v.Z*m.E[10],
	}
}

// Transpose returns the transposed matrix
func (m Matrix) Transpose() Matrix {
	var ret Matrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			ret.E[c*4+r] = m.E[r*4+c]
		}
	}
	return ret
}

// Inverse returns the matrix inverse using the unrolled MESA cofactor
// expansion. ok is false when the matrix is singular.
func (m Matrix) Inverse() (Matrix, bool) {
	e := &m.E
	var inv Matrix

	inv.E[0] = e[5]*e[10]*e[15] - e[5]*e[11]*e[14] - e[9]*e[6]*e[15] +
		e[9]*e[7]*e[14] + e[13]*e[6]*e[11] - e[13]*e[7]*e[10]
	inv.E[4] = -e[4]*e[10]*e[15] + e[4]*e[11]*e[14] + e[8]*e[6]*e[15] -
		e[8]*e[7]*e[14] - e[12]*e[6]*e[11] + e[12]*e[7]*e[10]
	inv.E[8] = e[4]*e[9]*e[15] - e[4]*e[11]*e[13] - e[8]*e[5]*e[15] +
		e[8]*e[7]*e[13] + e[12]*e[5]*e[11] - e[12]*e[7]*e[9]
	inv.E[12] = -e[4]*e[9]*e[14] + e[4]*e[10]*e[13] + e[8]*e[5]*e[14] -
		e[8]*e[6]*e[13] - e[12]*e[5]*e[10] + e[12]*e[6]*e[9]
	inv.E[1] = -e[1]*e[10]*e[15] + e[1]*e[11]*e[14] + e[9]*e[2]*e[15] -
		e[9]*e[3]*e[14] - e[13]*e[2]*e[11] + e[13]*e[3]*e[10]
	inv.E[5] = e[0]*e[10]*e[15] - e[0]*e[11]*e[14] - e[8]*e[2]*e[15] +
		e[8]*e[3]*e[14] + e[12]*e[2]*e[11] - e[12]*e[3]*e[10]
	inv.E[9] = -e[0]*e[9]*e[15] + e[0]*e[11]*e[13] + e[8]*e[1]*e[15] -
		e[8]*e[3]*e[13] - e[12]*e[1]*e[11] + e[12]*e[3]*e[9]
	inv.E[13] = e[0]*e[9]*e[14] - e[0]*e[10]*e[13] - e[8]*e[1]*e[14] +
		e[8]*e[2]*e[13] + e[12]*e[1]*e[10] - e[12]*e[2]*e[9]
	inv.E[2] = e[1]*e[6]*e[15] - e[1]*e[7]*e[14] - e[5]*e[2]*e[15] +
		e[5]*e[3]*e[14] + e[13]*e[2]*e[7] - e[13]*e[3]*e[6]
	inv.E[6] = -e[0]*e[6]*e[15] + e[0]*e[7]*e[14] + e[4]*e[2]*e[15] -
		e[4]*e[3]*e[14] - e[12]*e[2]*e[7] + e[12]*e[3]*e[6]
	inv.E[10] = e[0]*e[5]*e[15] - e[0]*e[7]*e[13] - e[4]*e[1]*e[15] +
		e[4]*e[3]*e[13] + e[12]*e[1]*e[7] - e[12]*e[3]*e[5]
	inv.E[14] = -e[0]*e[5]*e[14] + e[0]*e[6]*e[13] + e[4]*e[1]*e[14] -
		e[4]*e[2]*e[13] - e[12]*e[1]*e[6] + e[12]*e[2]*e[5]
	inv.E[3] = -e[1]*e[6]*e[11] + e[1]*e[7]*e[10] + e[5]*e[2]*e[11] -
		e[5]*e[3]*e[10] - e[9]*e[2]*e[7] + e[9]*e[3]*e[6]
	inv.E[7] = e[0]*e[6]*e[11] - e[0]*e[7]*e[10] - e[4]*e[2]*e[11] +
		e[4]*e[3]*e[10] + e[8]*e[2]*e[7] - e[8]*e[3]*e[6]
	inv.E[11] = -e[0]*e[5]*e[11] + e[0]*e[7]*e[9] + e[4]*e[1]*e[11] -
		e[4]*e[3]*e[9] - e[8]*e[1]*e[7] + e[8]*e[3]*e[5]
	inv.E[15] = e[0]*e[5]*e[10] - e[0]*e[6]*e[9] - e[4]*e[1]*e[10] +
		e[4]*e[2]*e[9] + e[8]*e[1]*e[6] - e[8]*e[2]*e[5]

	det := e[0]*inv.E[0] + e[1]*inv.E[4] + e[2]*inv.E[8] + e[3]*inv.E[12]
	if det == 0 {
		return Matrix{}, false
	}
	invDet := 1.0 / det
	for i := range inv.E {
		inv.E[i] *= invDet
	}
	return inv, true
}

// Translate returns a translation matrix
func Translate(x, y, z float32) Matrix {
	m := IdentityMatrix()
	m.E[3], m.E[7], m.E[11] = x, y, z
	return m
}

// Scale returns a scale matrix
func Scale(x, y, z float32) Matrix {
	var m Matrix
	m.E[0], m.E[5], m.E[10], m.E[15] = x, y, z, 1
	return m
}

// RotateX returns a rotation about the x axis by theta radians
func RotateX(theta float32) Matrix {
	m := IdentityMatrix()
	ct, st := math32.Cos(theta), math32.Sin(theta)
	m.E[5], m.E[6] = ct, -st
	m.E[9], m.E[10] = st, ct
	return m
}

// RotateY returns a rotation about the y axis by theta radians
func RotateY(theta float32) Matrix {
	m := IdentityMatrix()
	ct, st := math32.Cos(theta), math32.Sin(theta)
	m.E[0], m.E[2] = ct, st
	m.E[8], m.E[10] = -st, ct
	return m
}

// RotateZ returns a rotation about the z axis by theta radians
func RotateZ(theta float32) Matrix {
	m := IdentityMatrix()
	ct, st := math32.Cos(theta), math32.Sin(theta)
	m.E[0], m.E[1] = ct, -st
	m.E[4], m.E[5] = st, ct
	return m
}

// LookAt builds a view matrix for a camera at from looking toward to.
// The camera looks down its local -z axis.
func LookAt(from, to, up Vec3) Matrix {
	dir := from.Subtract(to).Normalize()
	left := up.Cross(dir).Normalize()
	newUp := dir.Cross(left)

	var m Matrix
	m.E[0], m.E[1], m.E[2], m.E[3] = left.X, left.Y, left.Z, -from.Dot(left)
	m.E[4], m.E[5], m.E[6], m.E[7] = newUp.X, newUp.Y, newUp.Z, -from.Dot(newUp)
	m.E[8], m.E[9], m.E[10], m.E[11] = dir.X, dir.Y, dir.Z, -from.Dot(dir)
	m.E[15] = 1
	return m
}

// Perspective builds a projection matrix with fov in degrees mapping view
// depth to NDC z in [0,1].
func Perspective(fovDeg, aspect, near, far float32) Matrix {
	t := 1.0 / math32.Tan(fovDeg*0.5*math32.Pi/180.0)

	var m Matrix
	m.E[0] = t / aspect
	m.E[5] = t
	m.E[10] = -far / (far - near)
	m.E[11] = -(far * near) / (far - near)
	m.E[14] = -1
	return m
}
