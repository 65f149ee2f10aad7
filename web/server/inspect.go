package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/scene"
)

// InspectResponse describes the first surface under a pixel
type InspectResponse struct {
	Hit        bool                   `json:"hit"`
	Material   string                 `json:"material"`
	Point      [3]float32             `json:"point"`
	Normal     [3]float32             `json:"normal"`
	UV         [2]float32             `json:"uv"`
	Distance   float32                `json:"distance"`
	FrontFace  bool                   `json:"frontFace"`
	Properties map[string]interface{} `json:"properties"`
}

// handleInspect casts a ray through the center of pixel (x, y) and
// reports the material and geometry it hits.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid y coordinate")
		return
	}

	frame := s.camera.Frame()
	if pixelX < 0 || pixelX >= frame.Width || pixelY < 0 || pixelY >= frame.Height {
		writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("pixel (%d, %d) outside %dx%d", pixelX, pixelY, frame.Width, frame.Height))
		return
	}

	sceneObj, _ := s.snapshot()
	ray := frame.GenerateRay(pixelX, pixelY, core.NewVec2(0.5, 0.5))

	isect, ok := sceneObj.IntersectClosest(ray)
	if !ok {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(InspectResponse{Hit: false})
		return
	}

	hit := sceneObj.Resolve(ray, isect)
	mat := sceneObj.MaterialAt(hit.MaterialID)

	name, properties := materialProperties(mat, hit)
	properties["geometry"] = geometryProperties(sceneObj, hit)

	response := InspectResponse{
		Hit:        true,
		Material:   name,
		Point:      [3]float32{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:     [3]float32{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		UV:         [2]float32{hit.UV.X, hit.UV.Y},
		Distance:   hit.T,
		FrontFace:  hit.Normal.Dot(ray.Direction) < 0,
		Properties: properties,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// materialProperties flattens the record fields that matter for the
// hit material's kind.
func materialProperties(mat core.Material, hit core.HitRecord) (string, map[string]interface{}) {
	properties := map[string]interface{}{
		"albedo": vec3Array(hit.Albedo),
		"color":  hexColor(hit.Albedo),
	}

	switch mat.Type {
	case core.EmissiveMaterial:
		properties["emission"] = vec3Array(mat.Emission)
		properties["color"] = hexColor(mat.Emission)
	case core.OrenNayarMaterial:
		properties["alpha"] = mat.Alpha
	case core.GlassMaterial:
		properties["intIOR"] = mat.IntIOR
		properties["extIOR"] = mat.ExtIOR
	case core.PlasticMaterial, core.DielectricMaterial:
		properties["intIOR"] = mat.IntIOR
		properties["extIOR"] = mat.ExtIOR
		properties["roughness"] = mat.Roughness
	case core.ConductorMaterial:
		properties["eta"] = vec3Array(mat.Eta)
		properties["k"] = vec3Array(mat.K)
		properties["roughness"] = mat.Roughness
	}

	return mat.Type.String(), properties
}

// geometryProperties reports which instance and mesh the ray hit
func geometryProperties(sceneObj *scene.Scene, hit core.HitRecord) map[string]interface{} {
	inst := sceneObj.Instances[hit.InstanceID]
	mesh := sceneObj.Meshes[inst.MeshID]
	return map[string]interface{}{
		"instance":  hit.InstanceID,
		"mesh":      inst.MeshID,
		"triangles": mesh.TriangleCount(),
	}
}

func vec3Array(v core.Vec3) [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// hexColor formats a radiance value as a display color, clamped to the
// printable range.
func hexColor(v core.Vec3) string {
	c := v.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}
