package lights

import (
	"image"
	"image/color"
	"testing"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/material"
)

func TestConstantEnvironment(t *testing.T) {
	env := NewConstantEnvironment(core.NewVec3(0.5, 0.5, 0.5))

	directions := []core.Vec3{
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: -1, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: -0.5, Y: 0.3, Z: 0.8},
	}
	for _, d := range directions {
		got := env.Radiance(d)
		if got != core.NewVec3(0.5, 0.5, 0.5) {
			t.Errorf("direction %v: radiance %v", d, got)
		}
	}
}

func TestImageEnvironment_TopBottom(t *testing.T) {
	// Top half of the image white, bottom half black
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.RGBA{A: 255}
			if y < 2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	env := NewImageEnvironment(material.NewImageTexture(img))

	// 45 degrees above the horizon lands in the top rows
	up := env.Radiance(core.NewVec3(1, 1, 0))
	if up.X < 0.9 {
		t.Errorf("upward radiance %v, expected the top (white) rows", up)
	}
	down := env.Radiance(core.NewVec3(1, -1, 0))
	if down.X > 0.1 {
		t.Errorf("downward radiance %v, expected the bottom (black) rows", down)
	}
}

func TestImageEnvironment_AzimuthWraps(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 2))
	for x := 0; x < 8; x++ {
		img.SetRGBA(x, 0, color.RGBA{R: uint8(x * 30), A: 255})
		img.SetRGBA(x, 1, color.RGBA{R: uint8(x * 30), A: 255})
	}
	env := NewImageEnvironment(material.NewImageTexture(img))

	// Opposite horizontal directions sample different columns
	a := env.Radiance(core.NewVec3(1, 0, 0))
	b := env.Radiance(core.NewVec3(-1, 0, 0))
	if a == b {
		t.Errorf("+x and -x both sampled %v, expected different columns", a)
	}

	// The azimuth seam is continuous: directions just either side of
	// -z carry u just above 0.5 and just below -0.5, which must wrap
	// to adjacent columns.
	left := env.Radiance(core.NewVec3(-0.01, 0, -1))
	right := env.Radiance(core.NewVec3(0.01, 0, -1))
	if diff := left.Subtract(right).Length(); diff > 0.02 {
		t.Errorf("seam discontinuity %v between %v and %v", diff, left, right)
	}
}

func TestEnvironment_NormalizesDirection(t *testing.T) {
	env := NewConstantEnvironment(core.NewVec3(1, 0, 0))

	short := env.Radiance(core.NewVec3(0, 0.1, 0))
	long := env.Radiance(core.NewVec3(0, 10, 0))
	if short != long {
		t.Errorf("scaled directions disagree: %v vs %v", short, long)
	}
}
