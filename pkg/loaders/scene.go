package loaders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/geometry"
	"github.com/renderloop/pathtrace/pkg/lights"
	"github.com/renderloop/pathtrace/pkg/material"
	"github.com/renderloop/pathtrace/pkg/scene"
)

// Scene description DTOs. Optional vector fields are pointers so absent
// and zero stay distinguishable.

type sceneDesc struct {
	Camera      *cameraDesc      `json:"camera"`
	Environment *environmentDesc `json:"environment"`
	Textures    []textureDesc    `json:"textures"`
	Materials   []materialDesc   `json:"materials"`
	Instances   []instanceDesc   `json:"instances"`
}

type cameraDesc struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	FOV    float32     `json:"fov"`
	From   *[3]float32 `json:"from"`
	To     *[3]float32 `json:"to"`
	Up     *[3]float32 `json:"up"`
	FlipX  bool        `json:"flipX"`
}

type environmentDesc struct {
	Image string      `json:"image"`
	Color *[3]float32 `json:"color"`
	Scale float32     `json:"scale"`
}

type textureDesc struct {
	Name  string      `json:"name"`
	Color *[3]float32 `json:"color"`
	Image string      `json:"image"`
}

type materialDesc struct {
	Name      string      `json:"name"`
	Kind      string      `json:"kind"`
	Texture   string      `json:"texture"`
	Emission  *[3]float32 `json:"emission"`
	IntIOR    float32     `json:"intIOR"`
	ExtIOR    float32     `json:"extIOR"`
	Roughness float32     `json:"roughness"`
	Alpha     float32     `json:"alpha"`
	Eta       *[3]float32 `json:"eta"`
	K         *[3]float32 `json:"k"`
}

type instanceDesc struct {
	Mesh      string         `json:"mesh"`
	Material  string         `json:"material"`
	Transform *transformDesc `json:"transform"`

	// inline "triangles" mesh data
	Positions [][3]float32 `json:"positions"`
	Normals   [][3]float32 `json:"normals"`
	UVs       [][2]float32 `json:"uvs"`
	Indices   []uint32     `json:"indices"`
}

type transformDesc struct {
	Translate *[3]float32 `json:"translate"`
	RotateX   float32     `json:"rotateX"`
	RotateY   float32     `json:"rotateY"`
	RotateZ   float32     `json:"rotateZ"`
	Scale     *[3]float32 `json:"scale"`
}

// sceneBuilder resolves description names to arena indices
type sceneBuilder struct {
	dir       string
	scene     *scene.Scene
	textures  map[string]int32
	materials map[string]int32
	meshes    map[string]int32
}

// LoadScene reads a JSON scene description and builds the scene,
// resolving texture and mesh paths relative to the file's directory.
func LoadScene(path string) (*scene.Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := ParseScene(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	return s, nil
}

// ParseScene builds a scene from an in-memory description. dir anchors
// relative asset paths.
func ParseScene(data []byte, dir string) (*scene.Scene, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var desc sceneDesc
	if err := dec.Decode(&desc); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}

	b := &sceneBuilder{
		dir:       dir,
		scene:     scene.NewScene(),
		textures:  make(map[string]int32),
		materials: make(map[string]int32),
		meshes:    make(map[string]int32),
	}

	// Texture index 0 is always the plain white default, so materials
	// without an explicit texture stay valid.
	b.textures[""] = b.scene.AddTexture(material.NewSolidTexture(core.NewVec3(1, 1, 1)))

	if desc.Camera != nil {
		b.applyCamera(*desc.Camera)
	}
	for i, td := range desc.Textures {
		if err := b.addTexture(i, td); err != nil {
			return nil, err
		}
	}
	for i, md := range desc.Materials {
		if err := b.addMaterial(i, md); err != nil {
			return nil, err
		}
	}
	if desc.Environment != nil {
		if err := b.setEnvironment(*desc.Environment); err != nil {
			return nil, err
		}
	}
	for i, id := range desc.Instances {
		if err := b.addInstance(i, id); err != nil {
			return nil, err
		}
	}

	b.scene.Build()
	return b.scene, nil
}

func (b *sceneBuilder) path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.dir, p)
}

func (b *sceneBuilder) applyCamera(d cameraDesc) {
	cfg := b.scene.Camera
	if d.Width > 0 {
		cfg.Width = d.Width
	}
	if d.Height > 0 {
		cfg.Height = d.Height
	}
	if d.FOV > 0 {
		cfg.FOV = d.FOV
	}
	if d.From != nil {
		cfg.From = vec3Of(*d.From)
	}
	if d.To != nil {
		cfg.To = vec3Of(*d.To)
	}
	if d.Up != nil {
		cfg.Up = vec3Of(*d.Up)
	}
	cfg.FlipX = d.FlipX
	b.scene.Camera = cfg
}

func (b *sceneBuilder) addTexture(i int, d textureDesc) error {
	if d.Name == "" {
		return fmt.Errorf("texture %d: missing name", i)
	}
	if _, dup := b.textures[d.Name]; dup {
		return fmt.Errorf("texture %q: duplicate name", d.Name)
	}

	var tex material.Texture
	switch {
	case d.Color != nil && d.Image != "":
		return fmt.Errorf("texture %q: color and image are exclusive", d.Name)
	case d.Color != nil:
		tex = material.NewSolidTexture(vec3Of(*d.Color))
	case d.Image != "":
		var err error
		tex, err = LoadTexture(b.path(d.Image))
		if err != nil {
			return fmt.Errorf("texture %q: %w", d.Name, err)
		}
	default:
		return fmt.Errorf("texture %q: needs color or image", d.Name)
	}

	b.textures[d.Name] = b.scene.AddTexture(tex)
	return nil
}

func (b *sceneBuilder) addMaterial(i int, d materialDesc) error {
	label := d.Name
	if label == "" {
		label = fmt.Sprintf("#%d", i)
	}

	texID := b.textures[""]
	if d.Texture != "" {
		id, ok := b.textures[d.Texture]
		if !ok {
			return fmt.Errorf("material %s: unknown texture %q", label, d.Texture)
		}
		texID = id
	}

	mat := core.Material{TextureID: texID}
	switch d.Kind {
	case "diffuse":
		mat.Type = core.DiffuseMaterial
	case "emissive":
		mat.Type = core.EmissiveMaterial
		if d.Emission == nil {
			return fmt.Errorf("material %s: emissive needs emission", label)
		}
		mat.Emission = vec3Of(*d.Emission)
	case "oren-nayar":
		mat.Type = core.OrenNayarMaterial
		mat.Alpha = d.Alpha
	case "mirror":
		mat.Type = core.MirrorMaterial
	case "glass":
		mat.Type = core.GlassMaterial
		mat.IntIOR, mat.ExtIOR = iorOrDefault(d)
	case "plastic":
		mat.Type = core.PlasticMaterial
		mat.IntIOR, mat.ExtIOR = iorOrDefault(d)
		mat.Roughness = d.Roughness
	case "dielectric":
		mat.Type = core.DielectricMaterial
		mat.IntIOR, mat.ExtIOR = iorOrDefault(d)
		mat.Roughness = d.Roughness
	case "conductor":
		mat.Type = core.ConductorMaterial
		if d.Eta == nil || d.K == nil {
			return fmt.Errorf("material %s: conductor needs eta and k", label)
		}
		mat.Eta = vec3Of(*d.Eta)
		mat.K = vec3Of(*d.K)
		mat.Roughness = d.Roughness
	default:
		return fmt.Errorf("material %s: unknown kind %q", label, d.Kind)
	}

	id := b.scene.AddMaterial(mat)
	if d.Name != "" {
		if _, dup := b.materials[d.Name]; dup {
			return fmt.Errorf("material %q: duplicate name", d.Name)
		}
		b.materials[d.Name] = id
	}
	return nil
}

func (b *sceneBuilder) setEnvironment(d environmentDesc) error {
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}

	var tex material.Texture
	switch {
	case d.Color != nil && d.Image != "":
		return fmt.Errorf("environment: color and image are exclusive")
	case d.Color != nil:
		tex = material.NewSolidTexture(vec3Of(*d.Color))
	case d.Image != "":
		var err error
		tex, err = LoadTexture(b.path(d.Image))
		if err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	default:
		return fmt.Errorf("environment: needs color or image")
	}

	if scale != 1 {
		for i := range tex.Pixels {
			tex.Pixels[i] = tex.Pixels[i].Multiply(scale)
		}
	}
	b.scene.SetEnvironment(lights.NewImageEnvironment(tex))
	return nil
}

func (b *sceneBuilder) addInstance(i int, d instanceDesc) error {
	matID, ok := b.materials[d.Material]
	if !ok {
		return fmt.Errorf("instance %d: unknown material %q", i, d.Material)
	}

	meshID, err := b.meshFor(i, d)
	if err != nil {
		return err
	}

	transform := core.IdentityMatrix()
	if d.Transform != nil {
		transform = matrixOf(*d.Transform)
	}
	if err := b.scene.AddInstance(meshID, matID, transform); err != nil {
		return fmt.Errorf("instance %d: %w", i, err)
	}
	return nil
}

// meshFor resolves an instance's mesh reference, loading and caching
// shared meshes by name.
func (b *sceneBuilder) meshFor(i int, d instanceDesc) (int32, error) {
	if d.Mesh == "triangles" {
		mesh, err := inlineMesh(d)
		if err != nil {
			return 0, fmt.Errorf("instance %d: %w", i, err)
		}
		return b.scene.AddMesh(mesh), nil
	}

	if id, ok := b.meshes[d.Mesh]; ok {
		return id, nil
	}

	var mesh geometry.Mesh
	switch {
	case d.Mesh == "quad":
		mesh = geometry.NewQuadMesh()
	case d.Mesh == "box":
		mesh = geometry.NewBoxMesh()
	case d.Mesh == "sphere":
		mesh = geometry.NewSphereMesh(32, 16)
	case strings.HasPrefix(d.Mesh, "ply:"):
		var err error
		mesh, err = LoadPLYMesh(b.path(strings.TrimPrefix(d.Mesh, "ply:")))
		if err != nil {
			return 0, fmt.Errorf("instance %d: %w", i, err)
		}
	default:
		return 0, fmt.Errorf("instance %d: unknown mesh %q", i, d.Mesh)
	}

	id := b.scene.AddMesh(mesh)
	b.meshes[d.Mesh] = id
	return id, nil
}

// inlineMesh builds a mesh from instance-embedded triangle data
func inlineMesh(d instanceDesc) (geometry.Mesh, error) {
	n := len(d.Positions)
	if n == 0 {
		return geometry.Mesh{}, fmt.Errorf("triangles mesh needs positions")
	}
	if len(d.Normals) != 0 && len(d.Normals) != n {
		return geometry.Mesh{}, fmt.Errorf("triangles mesh has %d normals for %d positions", len(d.Normals), n)
	}
	if len(d.UVs) != 0 && len(d.UVs) != n {
		return geometry.Mesh{}, fmt.Errorf("triangles mesh has %d uvs for %d positions", len(d.UVs), n)
	}
	if len(d.Indices) == 0 || len(d.Indices)%3 != 0 {
		return geometry.Mesh{}, fmt.Errorf("triangles mesh needs a multiple of 3 indices, got %d", len(d.Indices))
	}

	vertices := make([]geometry.Vertex, n)
	for i, p := range d.Positions {
		vertices[i].Position = vec3Of(p)
		if len(d.Normals) > 0 {
			vertices[i].Normal = vec3Of(d.Normals[i])
		}
		if len(d.UVs) > 0 {
			vertices[i].UV = core.NewVec2(d.UVs[i][0], d.UVs[i][1])
		}
	}
	for i, idx := range d.Indices {
		if idx >= uint32(n) {
			return geometry.Mesh{}, fmt.Errorf("triangles mesh index %d references vertex %d of %d", i, idx, n)
		}
	}
	if len(d.Normals) == 0 {
		computeVertexNormals(vertices, d.Indices)
	}
	return geometry.Mesh{Vertices: vertices, Indices: d.Indices}, nil
}

// matrixOf composes scale, then x/y/z rotations, then translation
func matrixOf(d transformDesc) core.Matrix {
	m := core.IdentityMatrix()
	if d.Translate != nil {
		t := *d.Translate
		m = m.Mul(core.Translate(t[0], t[1], t[2]))
	}
	if d.RotateZ != 0 {
		m = m.Mul(core.RotateZ(d.RotateZ * math32.Pi / 180))
	}
	if d.RotateY != 0 {
		m = m.Mul(core.RotateY(d.RotateY * math32.Pi / 180))
	}
	if d.RotateX != 0 {
		m = m.Mul(core.RotateX(d.RotateX * math32.Pi / 180))
	}
	if d.Scale != nil {
		s := *d.Scale
		m = m.Mul(core.Scale(s[0], s[1], s[2]))
	}
	return m
}

func iorOrDefault(d materialDesc) (intIOR, extIOR float32) {
	intIOR, extIOR = d.IntIOR, d.ExtIOR
	if intIOR == 0 {
		intIOR = 1.33
	}
	if extIOR == 0 {
		extIOR = 1.0
	}
	return intIOR, extIOR
}

func vec3Of(v [3]float32) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
