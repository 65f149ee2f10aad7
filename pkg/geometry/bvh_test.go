package geometry

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
)

// gridTriangles builds a flat grid of small triangles in the xy plane
func gridTriangles(n int) []Triangle {
	var triangles []Triangle
	id := int32(0)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := float32(i) * 2
			y := float32(j) * 2
			triangles = append(triangles, Triangle{
				V0:          core.NewVec3(x, y, 0),
				V1:          core.NewVec3(x+1, y, 0),
				V2:          core.NewVec3(x, y+1, 0),
				PrimitiveID: id,
			})
			id++
		}
	}
	return triangles
}

// bruteForceClosest is the reference the BVH must agree with
func bruteForceClosest(triangles []Triangle, ray core.Ray) (core.Intersection, bool) {
	closest := core.Intersection{T: ray.TMax}
	found := false
	for _, tr := range triangles {
		if t, bary, ok := tr.Intersect(ray, ray.TMin, closest.T); ok {
			closest = core.Intersection{
				T:            t,
				InstanceID:   tr.InstanceID,
				PrimitiveID:  tr.PrimitiveID,
				Barycentrics: bary,
			}
			found = true
		}
	}
	return closest, found
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	triangles := gridTriangles(8)
	bvh := NewBVH(triangles)

	s := core.NewPCG(7, 0)
	for i := 0; i < 500; i++ {
		// Random rays shooting down at the grid from above
		origin := core.NewVec3(s.Get1D()*16, s.Get1D()*16, 5)
		target := core.NewVec3(s.Get1D()*16, s.Get1D()*16, 0)
		ray := core.NewRay(origin, target.Subtract(origin).Normalize())

		got, gotHit := bvh.IntersectClosest(ray)
		want, wantHit := bruteForceClosest(triangles, ray)

		if gotHit != wantHit {
			t.Fatalf("ray %d: hit = %v, brute force = %v", i, gotHit, wantHit)
		}
		if gotHit {
			if got.PrimitiveID != want.PrimitiveID {
				t.Fatalf("ray %d: primitive %d, brute force %d", i, got.PrimitiveID, want.PrimitiveID)
			}
			if math32.Abs(got.T-want.T) > 1e-4 {
				t.Fatalf("ray %d: t = %v, brute force %v", i, got.T, want.T)
			}
		}
	}
}

func TestBVH_ClosestPicksNearest(t *testing.T) {
	// Two parallel triangles at different depths
	near := Triangle{
		V0: core.NewVec3(-1, -1, 1), V1: core.NewVec3(1, -1, 1), V2: core.NewVec3(0, 1, 1),
		PrimitiveID: 0,
	}
	far := Triangle{
		V0: core.NewVec3(-1, -1, 3), V1: core.NewVec3(1, -1, 3), V2: core.NewVec3(0, 1, 3),
		PrimitiveID: 1,
	}
	bvh := NewBVH([]Triangle{far, near})

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1))
	isect, ok := bvh.IntersectClosest(ray)
	if !ok {
		t.Fatal("expected a hit")
	}
	if isect.PrimitiveID != 0 {
		t.Errorf("hit primitive %d, expected the nearer 0", isect.PrimitiveID)
	}
	if math32.Abs(isect.T-1) > 1e-5 {
		t.Errorf("t = %v, expected 1", isect.T)
	}
}

func TestBVH_IntersectAny(t *testing.T) {
	triangles := gridTriangles(4)
	bvh := NewBVH(triangles)

	blocked := core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1))
	if !bvh.IntersectAny(blocked) {
		t.Error("occluded ray reported clear")
	}

	clear := core.NewRay(core.NewVec3(-5, -5, -2), core.NewVec3(0, 0, 1))
	if bvh.IntersectAny(clear) {
		t.Error("clear ray reported occluded")
	}

	// A bounded ray that stops before the geometry is clear
	bounded := core.NewBoundedRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1), core.Epsilon, 1.0)
	if bvh.IntersectAny(bounded) {
		t.Error("ray bounded short of the grid reported occluded")
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 1))

	if _, ok := bvh.IntersectClosest(ray); ok {
		t.Error("empty BVH reported a hit")
	}
	if bvh.IntersectAny(ray) {
		t.Error("empty BVH reported occlusion")
	}
}

func TestBVH_DropsDegenerateTriangles(t *testing.T) {
	degenerate := Triangle{
		V0: core.NewVec3(0, 0, 0), V1: core.NewVec3(0, 0, 0), V2: core.NewVec3(1, 1, 1),
	}
	bvh := NewBVH([]Triangle{degenerate})
	if bvh.Root != nil {
		t.Error("BVH built from only degenerate triangles should be empty")
	}
}
