package core

// Intersection is the raw result of a closest-hit query, before shading
// information is resolved.
type Intersection struct {
	T            float32
	InstanceID   int32
	PrimitiveID  int32
	Barycentrics Vec2 // weights of the triangle's second and third vertices
}

// HitRecord is a fully resolved shading point. It is derived once per
// intersection and never mutated afterwards.
type HitRecord struct {
	Point      Vec3
	Normal     Vec3 // shading normal, oriented per the material's policy
	Frame      Frame
	UV         Vec2
	T          float32
	InstanceID int32
	MaterialID int32
	Albedo     Vec3
}
