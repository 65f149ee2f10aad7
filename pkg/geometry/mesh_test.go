package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderloop/pathtrace/pkg/core"
)

// geometricNormal returns the winding normal of a world-space triangle
func geometricNormal(tr Triangle) core.Vec3 {
	e1 := tr.V1.Subtract(tr.V0)
	e2 := tr.V2.Subtract(tr.V0)
	return e1.Cross(e2).Normalize()
}

func TestQuadMesh(t *testing.T) {
	mesh := NewQuadMesh()

	assert.Equal(t, 2, mesh.TriangleCount())
	assert.Len(t, mesh.Vertices, 4)

	inst, err := NewInstance(0, 0, core.IdentityMatrix())
	require.NoError(t, err)
	triangles := WorldTriangles([]Mesh{mesh}, []Instance{inst})
	require.Len(t, triangles, 2)

	for i, tr := range triangles {
		n := geometricNormal(tr)
		assert.InDelta(t, 0, n.X, 1e-6, "triangle %d", i)
		assert.InDelta(t, 1, n.Y, 1e-6, "triangle %d", i)
		assert.InDelta(t, 0, n.Z, 1e-6, "triangle %d", i)
	}
}

func TestBoxMesh(t *testing.T) {
	mesh := NewBoxMesh()

	assert.Equal(t, 12, mesh.TriangleCount())
	assert.Len(t, mesh.Vertices, 24)

	inst, err := NewInstance(0, 0, core.IdentityMatrix())
	require.NoError(t, err)
	triangles := WorldTriangles([]Mesh{mesh}, []Instance{inst})
	require.Len(t, triangles, 12)

	for i, tr := range triangles {
		// Outward winding: the geometric normal points away from the center
		n := geometricNormal(tr)
		centroid := tr.Centroid()
		assert.Greater(t, n.Dot(centroid), float32(0), "triangle %d faces inward", i)

		// Winding and vertex normals agree
		v0, _, _ := mesh.Triangle(tr.PrimitiveID)
		assert.InDelta(t, 1, n.Dot(v0.Normal), 1e-6, "triangle %d", i)
	}
}

func TestMeshTriangleFetch(t *testing.T) {
	mesh := NewQuadMesh()
	v0, v1, v2 := mesh.Triangle(0)

	assert.Equal(t, mesh.Vertices[mesh.Indices[0]], v0)
	assert.Equal(t, mesh.Vertices[mesh.Indices[1]], v1)
	assert.Equal(t, mesh.Vertices[mesh.Indices[2]], v2)
}

func TestNewInstance_SingularTransform(t *testing.T) {
	_, err := NewInstance(3, 0, core.Scale(1, 0, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "singular")
}

func TestNewInstance_NormalMatrix(t *testing.T) {
	// Under a non-uniform scale, normals transform by the
	// inverse-transpose rather than the transform itself.
	inst, err := NewInstance(0, 0, core.Scale(2, 1, 1))
	require.NoError(t, err)

	n := core.NewVec3(1, 1, 0).Normalize()
	got := inst.NormalMatrix.MulVec(n).Normalize()
	want := core.NewVec3(0.5, 1, 0).Normalize()

	assert.InDelta(t, want.X, got.X, 1e-5)
	assert.InDelta(t, want.Y, got.Y, 1e-5)
	assert.InDelta(t, want.Z, got.Z, 1e-5)
}

func TestWorldTriangles_AppliesTransforms(t *testing.T) {
	mesh := NewQuadMesh()

	left, err := NewInstance(0, 1, core.Translate(-5, 0, 0))
	require.NoError(t, err)
	right, err := NewInstance(0, 2, core.Translate(5, 2, 0))
	require.NoError(t, err)

	triangles := WorldTriangles([]Mesh{mesh}, []Instance{left, right})
	require.Len(t, triangles, 4)

	for _, tr := range triangles {
		c := tr.Centroid()
		switch tr.InstanceID {
		case 0:
			assert.Less(t, c.X, float32(0))
			assert.InDelta(t, 0, c.Y, 1e-6)
		case 1:
			assert.Greater(t, c.X, float32(0))
			assert.InDelta(t, 2, c.Y, 1e-6)
		default:
			t.Fatalf("unexpected instance id %d", tr.InstanceID)
		}
	}
}
