package scene

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/geometry"
	"github.com/renderloop/pathtrace/pkg/material"
	"github.com/renderloop/pathtrace/pkg/renderer"
)

// mustAdd places an instance whose transform is known to be invertible
func mustAdd(s *Scene, meshID, materialID int32, transform core.Matrix) {
	if err := s.AddInstance(meshID, materialID, transform); err != nil {
		panic(err)
	}
}

// NewCornellScene builds the classic Cornell box: five 555-unit walls,
// a 130-unit ceiling light and two rotated boxes, no environment.
func NewCornellScene() *Scene {
	s := NewScene()
	s.Camera = renderer.CameraConfig{
		Width:  400,
		Height: 400,
		FOV:    40,
		From:   core.NewVec3(278, 278, -800),
		To:     core.NewVec3(278, 278, 0),
		Up:     core.NewVec3(0, 1, 0),
	}

	quad := s.AddMesh(geometry.NewQuadMesh())
	box := s.AddMesh(geometry.NewBoxMesh())

	whiteTex := s.AddTexture(material.NewSolidTexture(core.NewVec3(0.73, 0.73, 0.73)))
	redTex := s.AddTexture(material.NewSolidTexture(core.NewVec3(0.65, 0.05, 0.05)))
	greenTex := s.AddTexture(material.NewSolidTexture(core.NewVec3(0.12, 0.45, 0.15)))

	white := s.AddMaterial(core.Material{Type: core.DiffuseMaterial, TextureID: whiteTex})
	red := s.AddMaterial(core.Material{Type: core.DiffuseMaterial, TextureID: redTex})
	green := s.AddMaterial(core.Material{Type: core.DiffuseMaterial, TextureID: greenTex})
	lamp := s.AddMaterial(core.Material{
		Type:      core.EmissiveMaterial,
		TextureID: whiteTex,
		Emission:  core.NewVec3(15, 15, 15),
	})

	const (
		size = 555.0
		half = size / 2
	)

	// Floor, then ceiling and light facing down, then the back wall
	// facing the camera
	mustAdd(s, quad, white, core.Translate(half, 0, half).
		Mul(core.Scale(size, 1, size)))
	mustAdd(s, quad, white, core.Translate(half, size, half).
		Mul(core.RotateX(math32.Pi)).
		Mul(core.Scale(size, 1, size)))
	mustAdd(s, quad, lamp, core.Translate(half, size-1, half).
		Mul(core.RotateX(math32.Pi)).
		Mul(core.Scale(130, 1, 130)))
	mustAdd(s, quad, white, core.Translate(half, half, size).
		Mul(core.RotateX(-math32.Pi/2)).
		Mul(core.Scale(size, 1, size)))

	// Red wall at x=0 faces +x, green wall at x=555 faces -x
	mustAdd(s, quad, red, core.Translate(0, half, half).
		Mul(core.RotateZ(-math32.Pi/2)).
		Mul(core.Scale(size, 1, size)))
	mustAdd(s, quad, green, core.Translate(size, half, half).
		Mul(core.RotateZ(math32.Pi/2)).
		Mul(core.Scale(size, 1, size)))

	// Short and tall blocks, slightly rotated like the original box
	mustAdd(s, box, white, core.Translate(185, 82.5, 169).
		Mul(core.RotateY(-18*math32.Pi/180)).
		Mul(core.Scale(165, 165, 165)))
	mustAdd(s, box, white, core.Translate(368, 165, 351).
		Mul(core.RotateY(15*math32.Pi/180)).
		Mul(core.Scale(165, 330, 165)))

	s.Build()
	return s
}
