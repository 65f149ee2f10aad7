package core

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestNewFrame_Orthonormal(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(0, -1, 0),
		NewVec3(1, 0, 0),
		NewVec3(0, 0, 1),
		NewVec3(1, 2, 3).Normalize(),
		NewVec3(-0.3, 0.1, -0.9).Normalize(),
	}

	for _, n := range normals {
		f := NewFrame(n)

		if math32.Abs(f.U.Length()-1) > 1e-5 || math32.Abs(f.V.Length()-1) > 1e-5 {
			t.Errorf("frame for %v has non-unit axes", n)
		}
		if math32.Abs(f.U.Dot(f.V)) > 1e-5 || math32.Abs(f.U.Dot(f.W)) > 1e-5 || math32.Abs(f.V.Dot(f.W)) > 1e-5 {
			t.Errorf("frame for %v is not orthogonal", n)
		}
		if f.W.Subtract(n).Length() > 1e-5 {
			t.Errorf("frame W = %v, expected the normal %v", f.W, n)
		}
	}
}

func TestFrame_RoundTrip(t *testing.T) {
	f := NewFrame(NewVec3(1, 1, 0.5).Normalize())
	v := NewVec3(0.3, -0.7, 0.2)

	back := f.ToLocal(f.ToWorld(v))
	if back.Subtract(v).Length() > 1e-5 {
		t.Errorf("round trip: got %v, expected %v", back, v)
	}
}

func TestFrame_ToWorldPreservesUp(t *testing.T) {
	n := NewVec3(0.2, 0.9, -0.1).Normalize()
	f := NewFrame(n)

	up := f.ToWorld(NewVec3(0, 0, 1))
	if up.Subtract(n).Length() > 1e-5 {
		t.Errorf("local +z should map to the normal, got %v", up)
	}
}
