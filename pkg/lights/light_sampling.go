package lights

import (
	"github.com/renderloop/pathtrace/pkg/core"
)

// LightSample contains information about a sampled point on an area light
type LightSample struct {
	Point     core.Vec3 // point on the light surface
	Normal    core.Vec3 // light surface normal
	Direction core.Vec3 // direction from shading point to light
	Distance  float32   // distance to the light point
	Radiance  core.Vec3 // emitted radiance
	PDF       float32   // area-measure density, 1/area
}

// Choice is the outcome of one light-selection draw
type Choice struct {
	Environment bool    // sample the environment instead of an area light
	Index       int     // light index when Environment is false
	Pmf         float32 // probability mass of this choice
}

// Select picks a direct-lighting strategy from a single uniform value.
// With an environment present, the environment gets mass 1/(N+1) and each
// of the N lights gets 1/(N+1); without one, each light gets 1/N. ok is
// false when there is nothing to sample.
func Select(hasEnvironment bool, lightCount int, u float32) (Choice, bool) {
	if hasEnvironment {
		n := lightCount + 1
		k := int(u * float32(n))
		if k >= n {
			k = n - 1
		}
		if k == 0 {
			return Choice{Environment: true, Pmf: 1 / float32(n)}, true
		}
		return Choice{Index: k - 1, Pmf: 1 / float32(n)}, true
	}

	if lightCount == 0 {
		return Choice{}, false
	}
	k := int(u * float32(lightCount))
	if k >= lightCount {
		k = lightCount - 1
	}
	return Choice{Index: k, Pmf: 1 / float32(lightCount)}, true
}

// SamplePoint draws a uniform point on an area light's triangle. The
// returned density is with respect to area; the caller applies the
// geometry term to convert the estimate to the shading point.
func SamplePoint(light core.AreaLight, point core.Vec3, sample core.Vec2) LightSample {
	b := core.SampleUniformTriangle(sample)
	b0 := 1 - b.X - b.Y
	lightPoint := light.V1.Multiply(b0).
		Add(light.V2.Multiply(b.X)).
		Add(light.V3.Multiply(b.Y))

	toLight := lightPoint.Subtract(point)
	distance := toLight.Length()

	return LightSample{
		Point:     lightPoint,
		Normal:    light.Normal,
		Direction: toLight.Multiply(1 / distance),
		Distance:  distance,
		Radiance:  light.Radiance,
		PDF:       1 / light.Area,
	}
}
