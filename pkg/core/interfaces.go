package core

// Logger interface for renderer logging
type Logger interface {
	Printf(format string, args ...interface{})
}

// Scene is the read-only world a path is traced against. Implementations
// must be safe for concurrent use by many paths.
type Scene interface {
	// IntersectClosest returns the nearest intersection within the ray's
	// parametric bounds.
	IntersectClosest(ray Ray) (Intersection, bool)

	// IntersectAny reports whether anything lies within the ray's bounds.
	// It stops at the first hit and never resolves shading.
	IntersectAny(ray Ray) bool

	// Resolve turns a raw intersection into a shading point.
	Resolve(ray Ray, isect Intersection) HitRecord

	// MaterialAt returns the material record for an arena index.
	MaterialAt(id int32) Material

	// Environment returns the radiance arriving from a direction when no
	// geometry is hit. Constant zero when the scene has no environment.
	Environment(dir Vec3) Vec3

	// HasEnvironment reports whether the environment carries any energy.
	HasEnvironment() bool

	// LightCount returns the number of area lights.
	LightCount() int

	// LightAt returns the area light at index i.
	LightAt(i int) AreaLight
}
