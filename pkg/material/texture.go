package material

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

// Texture is one entry in the scene's texture arena. Pixels are stored
// row-major with row 0 at the top of the image, so v = 0 addresses the
// top row. Values are linear RGB in [0, 1] for byte-backed images.
type Texture struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewSolidTexture creates a 1x1 texture holding a constant color
func NewSolidTexture(color core.Vec3) Texture {
	return Texture{Width: 1, Height: 1, Pixels: []core.Vec3{color}}
}

// NewImageTexture converts a decoded image into a texture. Byte channels
// map to [0, 1] without any gamma transform.
func NewImageTexture(img image.Image) Texture {
	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pixels := make([]core.Vec3, width*height)
	for y := 0; y < height; y++ {
		row := rgba.Pix[y*rgba.Stride:]
		for x := 0; x < width; x++ {
			p := row[x*4:]
			pixels[y*width+x] = core.NewVec3(
				float32(p[0])/255.0,
				float32(p[1])/255.0,
				float32(p[2])/255.0,
			)
		}
	}
	return Texture{Width: width, Height: height, Pixels: pixels}
}

// Sample returns the bilinearly filtered color at uv. Coordinates wrap,
// so any real-valued uv is legal.
func (t *Texture) Sample(uv core.Vec2) core.Vec3 {
	if t.Width == 1 && t.Height == 1 {
		return t.Pixels[0]
	}

	// Texel centers sit at half-integer coordinates
	fx := uv.X*float32(t.Width) - 0.5
	fy := uv.Y*float32(t.Height) - 0.5

	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	dx := fx - float32(x0)
	dy := fy - float32(y0)

	x1 := wrap(x0+1, t.Width)
	y1 := wrap(y0+1, t.Height)
	x0 = wrap(x0, t.Width)
	y0 = wrap(y0, t.Height)

	top := t.texel(x0, y0).Multiply(1 - dx).Add(t.texel(x1, y0).Multiply(dx))
	bottom := t.texel(x0, y1).Multiply(1 - dx).Add(t.texel(x1, y1).Multiply(dx))
	return top.Multiply(1 - dy).Add(bottom.Multiply(dy))
}

func (t *Texture) texel(x, y int) core.Vec3 {
	return t.Pixels[y*t.Width+x]
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
