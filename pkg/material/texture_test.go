package material

import (
	"image"
	"image/color"
	"testing"

	"github.com/renderloop/pathtrace/pkg/core"
)

// checkerImage builds a 2x2 image: red and green on the top row, blue
// and yellow on the bottom row
func checkerImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, A: 255})
	return img
}

func TestSolidTexture(t *testing.T) {
	tex := NewSolidTexture(core.NewVec3(0.2, 0.4, 0.6))

	for _, uv := range []core.Vec2{
		core.NewVec2(0, 0),
		core.NewVec2(0.5, 0.5),
		core.NewVec2(7.3, -2.1),
	} {
		got := tex.Sample(uv)
		if got != core.NewVec3(0.2, 0.4, 0.6) {
			t.Errorf("uv %v: got %v", uv, got)
		}
	}
}

func TestImageTexture_TexelCenters(t *testing.T) {
	tex := NewImageTexture(checkerImage())

	tests := []struct {
		name string
		uv   core.Vec2
		want core.Vec3
	}{
		{"top-left", core.NewVec2(0.25, 0.25), core.NewVec3(1, 0, 0)},
		{"top-right", core.NewVec2(0.75, 0.25), core.NewVec3(0, 1, 0)},
		{"bottom-left", core.NewVec2(0.25, 0.75), core.NewVec3(0, 0, 1)},
		{"bottom-right", core.NewVec2(0.75, 0.75), core.NewVec3(1, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tex.Sample(tt.uv)
			if got.Subtract(tt.want).Length() > 1e-6 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestImageTexture_BilinearBlend(t *testing.T) {
	tex := NewImageTexture(checkerImage())

	// Dead center blends all four texels equally
	got := tex.Sample(core.NewVec2(0.5, 0.5))
	want := core.NewVec3(0.5, 0.5, 0.25)
	if got.Subtract(want).Length() > 1e-6 {
		t.Errorf("center sample %v, want %v", got, want)
	}

	// Halfway between the top texels
	got = tex.Sample(core.NewVec2(0.5, 0.25))
	want = core.NewVec3(0.5, 0.5, 0)
	if got.Subtract(want).Length() > 1e-6 {
		t.Errorf("top edge sample %v, want %v", got, want)
	}
}

func TestImageTexture_Wraps(t *testing.T) {
	tex := NewImageTexture(checkerImage())

	base := tex.Sample(core.NewVec2(0.25, 0.25))
	for _, uv := range []core.Vec2{
		core.NewVec2(1.25, 0.25),
		core.NewVec2(0.25, -0.75),
		core.NewVec2(-1.75, 2.25),
	} {
		got := tex.Sample(uv)
		if got.Subtract(base).Length() > 1e-6 {
			t.Errorf("uv %v: got %v, want wrapped %v", uv, got, base)
		}
	}
}

func TestImageTexture_ByteMapping(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 51, B: 0, A: 255})
	tex := NewImageTexture(img)

	got := tex.Sample(core.NewVec2(0.5, 0.5))
	if got.X != 1.0 {
		t.Errorf("byte 255 mapped to %v, want 1", got.X)
	}
	if got.Y != 0.2 {
		t.Errorf("byte 51 mapped to %v, want 0.2", got.Y)
	}
	if got.Z != 0 {
		t.Errorf("byte 0 mapped to %v, want 0", got.Z)
	}
}
