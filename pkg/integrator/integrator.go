package integrator

import (
	"github.com/renderloop/pathtrace/pkg/core"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor computes the radiance estimate for one camera ray
	RayColor(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3
}
