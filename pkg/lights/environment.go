package lights

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/material"
)

// Environment is an infinite light surrounding the scene, backed by an
// equirectangular texture. A nil *Environment means the scene has none.
type Environment struct {
	texture material.Texture
}

// NewConstantEnvironment creates an environment emitting one color in
// every direction
func NewConstantEnvironment(color core.Vec3) *Environment {
	return &Environment{texture: material.NewSolidTexture(color)}
}

// NewImageEnvironment creates an environment backed by an
// equirectangular image
func NewImageEnvironment(texture material.Texture) *Environment {
	return &Environment{texture: texture}
}

// Power returns the mean luminance of the backing texture. A zero-power
// environment contributes nothing and is skipped by light selection.
func (e *Environment) Power() float32 {
	var sum float32
	for _, p := range e.texture.Pixels {
		sum += p.Luminance()
	}
	return sum / float32(len(e.texture.Pixels))
}

// Radiance returns the environment emission along a world-space
// direction. The mapping places the +y pole at the top row of the image.
func (e *Environment) Radiance(direction core.Vec3) core.Vec3 {
	d := direction.Normalize()
	theta := math32.Acos(math32.Max(-1, math32.Min(1, d.Y)))
	phi := math32.Atan2(d.X, d.Z)

	uv := core.NewVec2(phi/(2*math32.Pi), theta/math32.Pi)
	return e.texture.Sample(uv)
}
