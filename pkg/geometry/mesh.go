package geometry

import (
	"fmt"

	"github.com/renderloop/pathtrace/pkg/core"
)

// Vertex is one record in a mesh's vertex arena, in object space
type Vertex struct {
	Position core.Vec3
	Normal   core.Vec3
	UV       core.Vec2
}

// Mesh is an indexed triangle mesh. Meshes live in the scene's mesh arena
// and are shared by any number of instances.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// TriangleCount returns the number of triangles in the mesh
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns the three vertices of a primitive
func (m *Mesh) Triangle(prim int32) (Vertex, Vertex, Vertex) {
	i := int(prim) * 3
	return m.Vertices[m.Indices[i]], m.Vertices[m.Indices[i+1]], m.Vertices[m.Indices[i+2]]
}

// Instance places a mesh in the world with a material. Records hold only
// indices and matrices so the arenas stay free of pointers.
type Instance struct {
	MeshID       int32
	MaterialID   int32
	Transform    core.Matrix
	NormalMatrix core.Matrix // inverse-transpose of Transform for normals
}

// NewInstance precomputes the instance's normal matrix. A singular
// transform cannot be rendered and fails scene construction.
func NewInstance(meshID, materialID int32, transform core.Matrix) (Instance, error) {
	inv, ok := transform.Inverse()
	if !ok {
		return Instance{}, fmt.Errorf("instance transform for mesh %d is singular", meshID)
	}
	return Instance{
		MeshID:       meshID,
		MaterialID:   materialID,
		Transform:    transform,
		NormalMatrix: inv.Transpose(),
	}, nil
}

// NewQuadMesh builds a unit quad in the xz plane at y=0 facing +y,
// spanning [-0.5, 0.5] on both axes.
func NewQuadMesh() Mesh {
	up := core.NewVec3(0, 1, 0)
	return Mesh{
		Vertices: []Vertex{
			{Position: core.NewVec3(-0.5, 0, -0.5), Normal: up, UV: core.NewVec2(0, 0)},
			{Position: core.NewVec3(0.5, 0, -0.5), Normal: up, UV: core.NewVec2(1, 0)},
			{Position: core.NewVec3(0.5, 0, 0.5), Normal: up, UV: core.NewVec2(1, 1)},
			{Position: core.NewVec3(-0.5, 0, 0.5), Normal: up, UV: core.NewVec2(0, 1)},
		},
		Indices: []uint32{0, 2, 1, 0, 3, 2},
	}
}

// NewBoxMesh builds a unit cube centered on the origin with outward
// normals, one quad per face.
func NewBoxMesh() Mesh {
	var mesh Mesh

	addFace := func(bl, br, tr, tl, normal core.Vec3) {
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices,
			Vertex{Position: bl, Normal: normal, UV: core.NewVec2(0, 0)},
			Vertex{Position: br, Normal: normal, UV: core.NewVec2(1, 0)},
			Vertex{Position: tr, Normal: normal, UV: core.NewVec2(1, 1)},
			Vertex{Position: tl, Normal: normal, UV: core.NewVec2(0, 1)},
		)
		mesh.Indices = append(mesh.Indices, base, base+2, base+1, base, base+3, base+2)
	}

	const h = 0.5
	// +y and -y
	addFace(core.NewVec3(-h, h, -h), core.NewVec3(h, h, -h), core.NewVec3(h, h, h), core.NewVec3(-h, h, h), core.NewVec3(0, 1, 0))
	addFace(core.NewVec3(-h, -h, h), core.NewVec3(h, -h, h), core.NewVec3(h, -h, -h), core.NewVec3(-h, -h, -h), core.NewVec3(0, -1, 0))
	// +x and -x
	addFace(core.NewVec3(h, -h, -h), core.NewVec3(h, -h, h), core.NewVec3(h, h, h), core.NewVec3(h, h, -h), core.NewVec3(1, 0, 0))
	addFace(core.NewVec3(-h, -h, h), core.NewVec3(-h, -h, -h), core.NewVec3(-h, h, -h), core.NewVec3(-h, h, h), core.NewVec3(-1, 0, 0))
	// +z and -z
	addFace(core.NewVec3(h, -h, h), core.NewVec3(-h, -h, h), core.NewVec3(-h, h, h), core.NewVec3(h, h, h), core.NewVec3(0, 0, 1))
	addFace(core.NewVec3(-h, -h, -h), core.NewVec3(h, -h, -h), core.NewVec3(h, h, -h), core.NewVec3(-h, h, -h), core.NewVec3(0, 0, -1))

	return mesh
}

// WorldTriangles flattens every instance's mesh into world space for the
// acceleration structure build.
func WorldTriangles(meshes []Mesh, instances []Instance) []Triangle {
	var triangles []Triangle
	for instID := range instances {
		inst := &instances[instID]
		mesh := &meshes[inst.MeshID]
		for prim := 0; prim < mesh.TriangleCount(); prim++ {
			v0, v1, v2 := mesh.Triangle(int32(prim))
			triangles = append(triangles, Triangle{
				V0:          inst.Transform.MulPoint(v0.Position),
				V1:          inst.Transform.MulPoint(v1.Position),
				V2:          inst.Transform.MulPoint(v2.Position),
				InstanceID:  int32(instID),
				PrimitiveID: int32(prim),
			})
		}
	}
	return triangles
}
