package core

// MaterialType discriminates the scattering behavior of a material record
type MaterialType uint8

const (
	DiffuseMaterial MaterialType = iota
	EmissiveMaterial
	OrenNayarMaterial
	MirrorMaterial
	GlassMaterial
	PlasticMaterial
	DielectricMaterial
	ConductorMaterial
)

var materialTypeNames = [...]string{
	"diffuse", "emissive", "orennayar", "mirror",
	"glass", "plastic", "dielectric", "conductor",
}

func (t MaterialType) String() string {
	if int(t) < len(materialTypeNames) {
		return materialTypeNames[t]
	}
	return "unknown"
}

// Specular reports whether sampling this material marks the bounce as
// specular. Glass is included even though it scatters diffusely.
func (t MaterialType) Specular() bool {
	return t == MirrorMaterial || t == GlassMaterial
}

// Transmissive reports whether the shading normal must keep its geometric
// orientation because the transmission side matters.
func (t MaterialType) Transmissive() bool {
	return t == GlassMaterial || t == DielectricMaterial
}

// Material is an immutable record in the scene's material arena,
// referenced by index from instance records. Parameter fields are
// populated according to Type and ignored otherwise.
type Material struct {
	Type      MaterialType
	TextureID int32 // albedo texture index

	Emission  Vec3    // emissive
	IntIOR    float32 // glass, plastic, dielectric
	ExtIOR    float32
	Roughness float32 // plastic, dielectric, conductor
	Alpha     float32 // oren-nayar
	Eta       Vec3    // conductor
	K         Vec3
}

// AreaLight is a single emissive triangle with precomputed orientation
// and area. The set of lights is read-only during rendering.
type AreaLight struct {
	V1, V2, V3 Vec3
	Normal     Vec3
	Radiance   Vec3
	Area       float32
}

// NewAreaLight builds a light triangle. The normal comes from the edge
// cross product and is flipped toward ref, the emitting side's vertex
// normal.
func NewAreaLight(v1, v2, v3, ref, radiance Vec3) AreaLight {
	e1 := v3.Subtract(v2)
	e2 := v1.Subtract(v3)
	cross := e1.Cross(e2)
	area := 0.5 * cross.Length()
	normal := cross.Normalize()
	if normal.Dot(ref) < 0 {
		normal = normal.Negate()
	}
	return AreaLight{V1: v1, V2: v2, V3: v3, Normal: normal, Radiance: radiance, Area: area}
}
