package integrator

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/lights"
	"github.com/renderloop/pathtrace/pkg/material"
)

// Depth at which a path stops unconditionally. The loop condition doubles
// as a fallback so no path can ever run past it.
const maxPathDepth = 6

// Bounces below this depth are exempt from Russian roulette
const rouletteMinDepth = 3

// Cap on the roulette kill probability, bounding the survivor rescale
const rouletteMaxKill = 0.7

// PathState carries one path's evolving context across bounces. Exactly
// one exists per in-flight path; it is never shared.
type PathState struct {
	Ray            core.Ray
	Color          core.Vec3 // accumulated radiance
	Throughput     core.Vec3
	Depth          int
	SpecularBounce bool
}

// PathTracingIntegrator implements unidirectional path tracing with
// next-event estimation
type PathTracingIntegrator struct{}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator() *PathTracingIntegrator {
	return &PathTracingIntegrator{}
}

// RayColor traces one path iteratively until it reaches a terminal state
// and returns its radiance estimate. Every terminal state yields a finite,
// possibly zero color; there is no error path.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, scene core.Scene, sampler core.Sampler) core.Vec3 {
	state := PathState{
		Ray:        ray,
		Throughput: core.NewVec3(1, 1, 1),
	}

	for state.Depth <= maxPathDepth {
		isect, found := scene.IntersectClosest(state.Ray)
		if !found {
			// Environment light counts only where next-event estimation
			// could not have counted it already: primary rays and rays
			// leaving a specular surface.
			if state.Depth == 0 || state.SpecularBounce {
				if scene.HasEnvironment() {
					env := scene.Environment(state.Ray.Direction)
					state.Color = state.Color.Add(state.Throughput.MultiplyVec(env))
				}
			}
			break
		}

		hit := scene.Resolve(state.Ray, isect)
		mat := scene.MaterialAt(hit.MaterialID)

		if mat.Type == core.EmissiveMaterial {
			// Same gating as the environment: hit emission is direct
			// light, already estimated at the previous diffuse bounce.
			if state.Depth == 0 || state.SpecularBounce {
				state.Color = state.Color.Add(state.Throughput.MultiplyVec(mat.Emission))
			}
			break
		}

		direct := pt.directLighting(scene, hit, mat, sampler)
		state.Color = state.Color.Add(state.Throughput.MultiplyVec(direct))

		if state.Depth == maxPathDepth {
			break
		}

		if state.Depth > rouletteMinDepth {
			killed, rescale := applyRoulette(state.Throughput, sampler.Get1D())
			if killed {
				break
			}
			state.Throughput = state.Throughput.Multiply(rescale)
		}

		scatter := material.Sample(mat, hit, state.Ray.Direction, sampler)
		if scatter.PDF <= 0 {
			break
		}

		cosTheta := math32.Abs(scatter.Direction.Dot(hit.Normal))
		state.Throughput = state.Throughput.
			MultiplyVec(scatter.Value).
			Multiply(cosTheta / scatter.PDF)
		state.Depth++
		state.SpecularBounce = scatter.Specular

		// Offset the origin along the normal on the side the new ray
		// leaves through, so the next trace cannot hit this surface at
		// t close to zero.
		offsetNormal := hit.Normal
		if scatter.Direction.Dot(hit.Normal) < 0 {
			offsetNormal = offsetNormal.Negate()
		}
		origin := hit.Point.Add(offsetNormal.Multiply(core.Epsilon))
		state.Ray = core.NewRay(origin, scatter.Direction)
	}

	return state.Color
}

// applyRoulette decides whether a path dies at this bounce. The kill
// probability is the throughput luminance capped at rouletteMaxKill;
// survivors rescale by 1/(1-q) so the estimate stays unbiased.
func applyRoulette(throughput core.Vec3, u float32) (killed bool, rescale float32) {
	q := math32.Min(throughput.Luminance(), rouletteMaxKill)
	if u < q {
		return true, 0
	}
	return false, 1 / (1 - q)
}

// directLighting estimates the light arriving at hit straight from a light
// source, choosing one strategy per call. Shadowed, back-facing and
// edge-on configurations all return zero rather than an error.
func (pt *PathTracingIntegrator) directLighting(scene core.Scene, hit core.HitRecord, mat core.Material, sampler core.Sampler) core.Vec3 {
	choice, ok := lights.Select(scene.HasEnvironment(), scene.LightCount(), sampler.Get1D())
	if !ok {
		return core.Vec3{}
	}

	if choice.Environment {
		direction := core.SampleUniformSphere(sampler.Get2D())
		cosTheta := direction.Dot(hit.Normal)
		if cosTheta <= 0 {
			return core.Vec3{}
		}
		if !Unoccluded(scene, hit.Point, direction) {
			return core.Vec3{}
		}
		f := material.Evaluate(mat, hit, direction)
		env := scene.Environment(direction)
		return env.MultiplyVec(f).Multiply(cosTheta / (choice.Pmf * core.UniformSpherePDF()))
	}

	ls := lights.SamplePoint(scene.LightAt(choice.Index), hit.Point, sampler.Get2D())
	cosSurface := ls.Direction.Dot(hit.Normal)
	cosLight := ls.Direction.Negate().Dot(ls.Normal)
	if cosSurface <= 0 || cosLight <= 0 {
		return core.Vec3{}
	}
	if !Visible(scene, hit.Point, ls.Point) {
		return core.Vec3{}
	}

	geometry := cosSurface * cosLight / (ls.Distance * ls.Distance)
	f := material.Evaluate(mat, hit, ls.Direction)
	return ls.Radiance.MultiplyVec(f).Multiply(geometry / (choice.Pmf * ls.PDF))
}
