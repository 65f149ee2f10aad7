package geometry

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

// NewSphereMesh tessellates a unit-diameter sphere centered on the
// origin into segments longitude slices and rings latitude bands. The
// seam column is duplicated so UVs wrap without interpolation artifacts.
func NewSphereMesh(segments, rings int) Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	var mesh Mesh
	for i := 0; i <= rings; i++ {
		theta := math32.Pi * float32(i) / float32(rings)
		y := math32.Cos(theta)
		radial := math32.Sin(theta)
		for j := 0; j <= segments; j++ {
			phi := 2 * math32.Pi * float32(j) / float32(segments)
			dir := core.NewVec3(radial*math32.Cos(phi), y, radial*math32.Sin(phi))
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: dir.Multiply(0.5),
				Normal:   dir,
				UV:       core.NewVec2(float32(j)/float32(segments), float32(i)/float32(rings)),
			})
		}
	}

	// Each band cell splits into two outward-facing triangles. The cell
	// edge lying on a pole is collapsed, so pole rows emit fans.
	cols := uint32(segments + 1)
	for i := 0; i < rings; i++ {
		for j := 0; j < segments; j++ {
			a := uint32(i)*cols + uint32(j)
			b := a + cols
			c := b + 1
			d := a + 1
			if i+1 < rings {
				mesh.Indices = append(mesh.Indices, a, c, b)
			}
			if i > 0 {
				mesh.Indices = append(mesh.Indices, a, d, c)
			}
		}
	}
	return mesh
}
