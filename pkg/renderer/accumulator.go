package renderer

import (
	"image"
	"image/color"

	"github.com/renderloop/pathtrace/pkg/core"
)

// PixelStats holds the running estimate for a single pixel
type PixelStats struct {
	ColorAccum  core.Vec3
	SampleCount int
}

// AddSample merges one traced sample into the pixel
func (ps *PixelStats) AddSample(c core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(c)
	ps.SampleCount++
}

// GetColor returns the current average color for this pixel
func (ps *PixelStats) GetColor() core.Vec3 {
	if ps.SampleCount == 0 {
		return core.Vec3{}
	}
	return ps.ColorAccum.Multiply(1.0 / float32(ps.SampleCount))
}

// Accumulator merges traced samples into per-pixel running averages
// across frames. Workers write disjoint pixel ranges, so a frame in
// flight needs no locking; Reset must only run between frames.
type Accumulator struct {
	width  int
	height int
	pixels []PixelStats
	frames int
}

// NewAccumulator creates an empty accumulator for a width x height image
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{
		width:  width,
		height: height,
		pixels: make([]PixelStats, width*height),
	}
}

// Width returns the image width in pixels
func (a *Accumulator) Width() int { return a.width }

// Height returns the image height in pixels
func (a *Accumulator) Height() int { return a.height }

// Frames returns how many complete frames have been merged
func (a *Accumulator) Frames() int { return a.frames }

// AdvanceFrame records that one complete frame of samples is merged
func (a *Accumulator) AdvanceFrame() { a.frames++ }

// Pixel returns the stats record for (x, y)
func (a *Accumulator) Pixel(x, y int) *PixelStats {
	return &a.pixels[y*a.width+x]
}

// Reset drops every accumulated sample and the frame count
func (a *Accumulator) Reset() {
	for i := range a.pixels {
		a.pixels[i] = PixelStats{}
	}
	a.frames = 0
}

// Image assembles the tone-mapped 8-bit view of the running estimate
func (a *Accumulator) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, a.width, a.height))
	for y := 0; y < a.height; y++ {
		for x := 0; x < a.width; x++ {
			img.SetRGBA(x, y, ToneMap(a.pixels[y*a.width+x].GetColor()))
		}
	}
	return img
}

// ToneMap converts linear radiance to a display pixel: gamma 2.0, then
// a [0,1] clamp, quantized to 8 bits.
func ToneMap(c core.Vec3) color.RGBA {
	c = c.GammaCorrect(2.0).Clamp(0, 1)
	return color.RGBA{
		R: uint8(255 * c.X),
		G: uint8(255 * c.Y),
		B: uint8(255 * c.Z),
		A: 255,
	}
}
