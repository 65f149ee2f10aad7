package core

import (
	"github.com/chewxy/math32"
)

// SampleCosineHemisphere generates a cosine-weighted direction in the
// local frame (z is up, aligned with the surface normal).
func SampleCosineHemisphere(sample Vec2) Vec3 {
	a := 2.0 * math32.Pi * sample.X
	r := math32.Sqrt(sample.Y)

	x := r * math32.Cos(a)
	y := r * math32.Sin(a)
	z := math32.Sqrt(1.0 - sample.Y)

	return Vec3{X: x, Y: y, Z: z}
}

// CosineHemispherePDF returns the density of SampleCosineHemisphere for a
// direction with the given cosine to the normal.
func CosineHemispherePDF(cosTheta float32) float32 {
	if cosTheta <= 0 {
		return 0
	}
	return cosTheta / math32.Pi
}

// SampleUniformSphere generates a uniform random direction on the unit sphere
func SampleUniformSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X // z ∈ [-1, 1]
	r := math32.Sqrt(math32.Max(0, 1.0-z*z))
	phi := 2.0 * math32.Pi * sample.Y
	x := r * math32.Cos(phi)
	y := r * math32.Sin(phi)
	return NewVec3(x, y, z)
}

// UniformSpherePDF returns the constant density of SampleUniformSphere
func UniformSpherePDF() float32 {
	return 1.0 / (4.0 * math32.Pi)
}

// SampleUniformTriangle maps two uniform values to barycentric weights
// (b1, b2) with b0 = 1 - b1 - b2, distributed uniformly over the triangle.
func SampleUniformTriangle(sample Vec2) Vec2 {
	su := math32.Sqrt(sample.X)
	return NewVec2(su*(1.0-sample.Y), su*sample.Y)
}
