package scene

import (
	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/geometry"
	"github.com/renderloop/pathtrace/pkg/lights"
	"github.com/renderloop/pathtrace/pkg/material"
	"github.com/renderloop/pathtrace/pkg/renderer"
)

// Scene owns the arenas every render-time query indexes into: meshes,
// instances, materials and textures, plus the extracted area lights and
// the acceleration structure. After Build it is read-only and safe for
// concurrent use by render workers.
type Scene struct {
	Camera renderer.CameraConfig

	Meshes    []geometry.Mesh
	Instances []geometry.Instance
	Materials []core.Material
	Textures  []material.Texture
	Env       *lights.Environment

	bvh        *geometry.BVH
	areaLights []core.AreaLight
	hasEnv     bool
}

// NewScene creates an empty scene with the default camera placement
func NewScene() *Scene {
	return &Scene{Camera: renderer.DefaultCameraConfig()}
}

// AddMesh appends a mesh to the arena and returns its index
func (s *Scene) AddMesh(mesh geometry.Mesh) int32 {
	s.Meshes = append(s.Meshes, mesh)
	return int32(len(s.Meshes) - 1)
}

// AddTexture appends a texture to the arena and returns its index
func (s *Scene) AddTexture(tex material.Texture) int32 {
	s.Textures = append(s.Textures, tex)
	return int32(len(s.Textures) - 1)
}

// AddMaterial appends a material to the arena and returns its index
func (s *Scene) AddMaterial(mat core.Material) int32 {
	s.Materials = append(s.Materials, mat)
	return int32(len(s.Materials) - 1)
}

// AddInstance places a mesh in the world. The transform must be
// invertible; a singular transform is a scene construction error.
func (s *Scene) AddInstance(meshID, materialID int32, transform core.Matrix) error {
	inst, err := geometry.NewInstance(meshID, materialID, transform)
	if err != nil {
		return err
	}
	s.Instances = append(s.Instances, inst)
	return nil
}

// SetEnvironment installs the environment light. nil means none.
func (s *Scene) SetEnvironment(env *lights.Environment) {
	s.Env = env
}

// Build flattens every instance into the acceleration structure and
// extracts area lights from emissive instances. Call once after
// assembly, before any render query.
func (s *Scene) Build() {
	s.bvh = geometry.NewBVH(geometry.WorldTriangles(s.Meshes, s.Instances))
	s.areaLights = s.extractLights()
	s.hasEnv = s.Env != nil && s.Env.Power() > 0
}

// extractLights turns every triangle of every emissive instance into an
// area light. The light normal is the world-space winding normal
// flipped toward the interpolated vertex normal; zero-area triangles
// carry no energy and are skipped.
func (s *Scene) extractLights() []core.AreaLight {
	var extracted []core.AreaLight
	for i := range s.Instances {
		inst := &s.Instances[i]
		mat := s.Materials[inst.MaterialID]
		if mat.Type != core.EmissiveMaterial {
			continue
		}

		mesh := &s.Meshes[inst.MeshID]
		for prim := 0; prim < mesh.TriangleCount(); prim++ {
			v0, v1, v2 := mesh.Triangle(int32(prim))
			w0 := inst.Transform.MulPoint(v0.Position)
			w1 := inst.Transform.MulPoint(v1.Position)
			w2 := inst.Transform.MulPoint(v2.Position)
			if (geometry.Triangle{V0: w0, V1: w1, V2: w2}).Degenerate() {
				continue
			}

			ref := inst.NormalMatrix.MulVec(v0.Normal.Add(v1.Normal).Add(v2.Normal))
			extracted = append(extracted, core.NewAreaLight(w0, w1, w2, ref, mat.Emission))
		}
	}
	return extracted
}

// IntersectClosest returns the nearest hit within the ray's bounds
func (s *Scene) IntersectClosest(ray core.Ray) (core.Intersection, bool) {
	return s.bvh.IntersectClosest(ray)
}

// IntersectAny reports whether anything lies within the ray's bounds
func (s *Scene) IntersectAny(ray core.Ray) bool {
	return s.bvh.IntersectAny(ray)
}

// Resolve turns a raw intersection into a shading point: interpolated
// normal and UV, the instance's normal-matrix transform, the two-sided
// flip (skipped for transmissive kinds), a tangent frame and the
// albedo sampled from the material's texture.
func (s *Scene) Resolve(ray core.Ray, isect core.Intersection) core.HitRecord {
	inst := &s.Instances[isect.InstanceID]
	mesh := &s.Meshes[inst.MeshID]
	v0, v1, v2 := mesh.Triangle(isect.PrimitiveID)

	b := isect.Barycentrics
	w := 1 - b.X - b.Y

	normal := v0.Normal.Multiply(w).
		Add(v1.Normal.Multiply(b.X)).
		Add(v2.Normal.Multiply(b.Y))
	normal = inst.NormalMatrix.MulVec(normal).Normalize()

	uv := core.NewVec2(
		w*v0.UV.X+b.X*v1.UV.X+b.Y*v2.UV.X,
		w*v0.UV.Y+b.X*v1.UV.Y+b.Y*v2.UV.Y,
	)

	mat := s.Materials[inst.MaterialID]
	if !mat.Type.Transmissive() && normal.Dot(ray.Direction) > 0 {
		normal = normal.Negate()
	}

	return core.HitRecord{
		Point:      ray.At(isect.T),
		Normal:     normal,
		Frame:      core.NewFrame(normal),
		UV:         uv,
		T:          isect.T,
		InstanceID: isect.InstanceID,
		MaterialID: inst.MaterialID,
		Albedo:     s.Textures[mat.TextureID].Sample(uv),
	}
}

// MaterialAt returns the material record for an arena index
func (s *Scene) MaterialAt(id int32) core.Material {
	return s.Materials[id]
}

// Environment returns the radiance arriving from a direction when a ray
// leaves the scene
func (s *Scene) Environment(dir core.Vec3) core.Vec3 {
	if s.Env == nil {
		return core.Vec3{}
	}
	return s.Env.Radiance(dir)
}

// HasEnvironment reports whether the environment carries any energy
func (s *Scene) HasEnvironment() bool {
	return s.hasEnv
}

// LightCount returns the number of extracted area lights
func (s *Scene) LightCount() int {
	return len(s.areaLights)
}

// LightAt returns the area light at index i
func (s *Scene) LightAt(i int) core.AreaLight {
	return s.areaLights[i]
}

// PrimitiveCount returns the total number of world-space triangles
func (s *Scene) PrimitiveCount() int {
	count := 0
	for i := range s.Instances {
		count += s.Meshes[s.Instances[i].MeshID].TriangleCount()
	}
	return count
}
