package material

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

// ScatterSample is the result of sampling a material at a shading point
type ScatterSample struct {
	Direction core.Vec3 // sampled world-space direction
	Value     core.Vec3 // BSDF value along Direction
	PDF       float32   // density of Direction, 0 means dead end
	Specular  bool      // delta scattering, exempt from direct-light gating
}

// Reflect mirrors direction d about the normal n
func Reflect(d, n core.Vec3) core.Vec3 {
	return d.Subtract(n.Multiply(2 * d.Dot(n)))
}

// Sample draws a scattered direction for the material at hit. incoming is
// the world-space direction the ray arrived along, pointing toward the
// surface. Every kind dispatches through one switch so the scene can store
// materials as plain records.
func Sample(mat core.Material, hit core.HitRecord, incoming core.Vec3, sampler core.Sampler) ScatterSample {
	switch mat.Type {
	case core.EmissiveMaterial:
		// Lights do not scatter. The zero pdf tells the caller to stop.
		return ScatterSample{Direction: incoming.Negate()}

	case core.MirrorMaterial:
		direction := Reflect(incoming, hit.Normal)
		cosTheta := direction.Dot(hit.Normal)
		if cosTheta <= 0 {
			// Grazing reflection carries no energy
			return ScatterSample{Specular: true}
		}
		return ScatterSample{
			Direction: direction,
			Value:     hit.Albedo.Multiply(1 / cosTheta),
			PDF:       1,
			Specular:  true,
		}

	case core.GlassMaterial:
		// Scatters like a diffuse surface but keeps the specular flag so
		// direct hits on lights and the environment still count after it
		s := sampleCosine(hit, sampler)
		s.Specular = true
		return s

	case core.DiffuseMaterial, core.OrenNayarMaterial, core.PlasticMaterial,
		core.DielectricMaterial, core.ConductorMaterial:
		return sampleCosine(hit, sampler)

	default:
		return ScatterSample{}
	}
}

// sampleCosine draws a cosine-weighted direction about the shading normal
func sampleCosine(hit core.HitRecord, sampler core.Sampler) ScatterSample {
	local := core.SampleCosineHemisphere(sampler.Get2D())
	cosTheta := local.Z
	return ScatterSample{
		Direction: hit.Frame.ToWorld(local),
		Value:     hit.Albedo.Multiply(1 / math32.Pi),
		PDF:       core.CosineHemispherePDF(cosTheta),
		Specular:  false,
	}
}

// Evaluate returns the BSDF value for light arriving along direction.
// Specular and emissive kinds have no continuous density and evaluate
// to zero.
func Evaluate(mat core.Material, hit core.HitRecord, direction core.Vec3) core.Vec3 {
	switch mat.Type {
	case core.EmissiveMaterial, core.MirrorMaterial, core.GlassMaterial:
		return core.Vec3{}

	case core.DiffuseMaterial, core.OrenNayarMaterial, core.PlasticMaterial,
		core.DielectricMaterial, core.ConductorMaterial:
		return hit.Albedo.Multiply(1 / math32.Pi)

	default:
		return core.Vec3{}
	}
}
