package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/renderloop/pathtrace/pkg/material"
)

// LoadTexture reads a PNG or JPEG image into a sampled texture
func LoadTexture(path string) (material.Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return material.Texture{}, fmt.Errorf("opening texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return material.Texture{}, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	return material.NewImageTexture(img), nil
}
