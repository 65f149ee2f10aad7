package integrator

import (
	"github.com/renderloop/pathtrace/pkg/core"
)

// Visible reports whether nothing blocks the open segment between two
// points. Both ends are pulled in by epsilon so the surfaces at either
// end cannot occlude themselves.
func Visible(scene core.Scene, p1, p2 core.Vec3) bool {
	toTarget := p2.Subtract(p1)
	distance := toTarget.Length()
	if distance <= 2*core.Epsilon {
		return true
	}

	ray := core.NewBoundedRay(p1, toTarget.Multiply(1/distance), core.Epsilon, distance-core.Epsilon)
	return !scene.IntersectAny(ray)
}

// Unoccluded reports whether a ray from point escapes the scene along
// direction without hitting anything.
func Unoccluded(scene core.Scene, point, direction core.Vec3) bool {
	ray := core.NewRay(point, direction)
	return !scene.IntersectAny(ray)
}
