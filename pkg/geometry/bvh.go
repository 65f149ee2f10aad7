package geometry

import (
	"sort"

	"github.com/renderloop/pathtrace/pkg/core"
)

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox AABB
	Left        *BVHNode
	Right       *BVHNode
	Triangles   []Triangle // nil for internal nodes
}

// BVH is a bounding volume hierarchy over world-space triangles. It serves
// both nearest-hit queries and occlusion-only queries.
type BVH struct {
	Root *BVHNode
}

// Leaf threshold: nodes with this many or fewer triangles stay leaves
const leafThreshold = 8

// NewBVH constructs a BVH from a slice of triangles. Degenerate triangles
// are dropped so the intersection code never divides by a zero-length
// edge cross product.
func NewBVH(triangles []Triangle) *BVH {
	kept := make([]Triangle, 0, len(triangles))
	for _, tr := range triangles {
		if !tr.Degenerate() {
			kept = append(kept, tr)
		}
	}
	if len(kept) == 0 {
		return &BVH{Root: nil}
	}
	return &BVH{Root: buildBVH(kept)}
}

// buildBVH recursively builds nodes using a median split along the
// longest axis, which is fast and good enough for static scenes
func buildBVH(triangles []Triangle) *BVHNode {
	boundingBox := triangles[0].Bounds()
	for i := 1; i < len(triangles); i++ {
		boundingBox = boundingBox.Union(triangles[i].Bounds())
	}

	if len(triangles) <= leafThreshold {
		return &BVHNode{
			BoundingBox: boundingBox,
			Triangles:   triangles,
		}
	}

	axis := boundingBox.LongestAxis()
	sortTrianglesByAxis(triangles, axis)

	mid := len(triangles) / 2
	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(triangles[:mid]),
		Right:       buildBVH(triangles[mid:]),
	}
}

// sortTrianglesByAxis sorts triangles by centroid along the given axis
func sortTrianglesByAxis(triangles []Triangle, axis int) {
	sort.Slice(triangles, func(i, j int) bool {
		ci := triangles[i].Centroid()
		cj := triangles[j].Centroid()

		switch axis {
		case 0:
			return ci.X < cj.X
		case 1:
			return ci.Y < cj.Y
		default:
			return ci.Z < cj.Z
		}
	})
}

// IntersectClosest returns the nearest intersection within the ray's
// parametric bounds.
func (bvh *BVH) IntersectClosest(ray core.Ray) (core.Intersection, bool) {
	if bvh.Root == nil {
		return core.Intersection{}, false
	}

	closest := core.Intersection{T: ray.TMax}
	found := bvh.intersectNode(bvh.Root, ray, &closest)
	return closest, found
}

// intersectNode walks the tree narrowing the closest hit as it goes
func (bvh *BVH) intersectNode(node *BVHNode, ray core.Ray, closest *core.Intersection) bool {
	if !node.BoundingBox.Hit(ray, ray.TMin, closest.T) {
		return false
	}

	if node.Triangles != nil {
		found := false
		for _, tr := range node.Triangles {
			if t, bary, ok := tr.Intersect(ray, ray.TMin, closest.T); ok {
				closest.T = t
				closest.InstanceID = tr.InstanceID
				closest.PrimitiveID = tr.PrimitiveID
				closest.Barycentrics = bary
				found = true
			}
		}
		return found
	}

	foundLeft := bvh.intersectNode(node.Left, ray, closest)
	foundRight := bvh.intersectNode(node.Right, ray, closest)
	return foundLeft || foundRight
}

// IntersectAny reports whether any triangle lies within the ray's bounds.
// It returns on the first hit found and never resolves shading.
func (bvh *BVH) IntersectAny(ray core.Ray) bool {
	if bvh.Root == nil {
		return false
	}
	return bvh.anyNode(bvh.Root, ray)
}

func (bvh *BVH) anyNode(node *BVHNode, ray core.Ray) bool {
	if !node.BoundingBox.Hit(ray, ray.TMin, ray.TMax) {
		return false
	}

	if node.Triangles != nil {
		for _, tr := range node.Triangles {
			if _, _, ok := tr.Intersect(ray, ray.TMin, ray.TMax); ok {
				return true
			}
		}
		return false
	}

	return bvh.anyNode(node.Left, ray) || bvh.anyNode(node.Right, ray)
}
