package geometry

import (
	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

// intersectEpsilon rejects rays nearly parallel to a triangle's plane
const intersectEpsilon = 1e-7

// Triangle is one world-space triangle in the acceleration structure. It
// carries the indices needed to resolve shading after a hit.
type Triangle struct {
	V0, V1, V2  core.Vec3
	InstanceID  int32
	PrimitiveID int32
}

// Intersect runs the Moller-Trumbore test against the ray, accepting hits
// with t in [tMin, tMax]. The returned barycentrics weight V1 and V2.
func (tr Triangle) Intersect(ray core.Ray, tMin, tMax float32) (float32, core.Vec2, bool) {
	edge1 := tr.V1.Subtract(tr.V0)
	edge2 := tr.V2.Subtract(tr.V0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if math32.Abs(det) < intersectEpsilon {
		return 0, core.Vec2{}, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Subtract(tr.V0)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return 0, core.Vec2{}, false
	}

	q := s.Cross(edge1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, core.Vec2{}, false
	}

	t := edge2.Dot(q) * invDet
	if t < tMin || t > tMax {
		return 0, core.Vec2{}, false
	}

	return t, core.NewVec2(u, v), true
}

// Bounds returns the triangle's bounding box
func (tr Triangle) Bounds() AABB {
	return NewAABBFromPoints(tr.V0, tr.V1, tr.V2)
}

// Centroid returns the triangle's centroid, used for BVH partitioning
func (tr Triangle) Centroid() core.Vec3 {
	return tr.V0.Add(tr.V1).Add(tr.V2).Multiply(1.0 / 3.0)
}

// Degenerate reports whether the triangle has effectively zero area.
// Such triangles are dropped before the BVH is built.
func (tr Triangle) Degenerate() bool {
	cross := tr.V1.Subtract(tr.V0).Cross(tr.V2.Subtract(tr.V0))
	return cross.Length() < 1e-12
}
