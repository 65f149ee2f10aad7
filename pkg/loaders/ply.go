package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/renderloop/pathtrace/pkg/core"
	"github.com/renderloop/pathtrace/pkg/geometry"
)

// plyProperty is one property declaration from a PLY header
type plyProperty struct {
	Name      string
	Type      string
	IsList    bool
	CountType string
	DataType  string
}

// plyHeader carries the layout needed to decode the body
type plyHeader struct {
	Binary      bool
	VertexCount int
	FaceCount   int
	VertexProps []plyProperty
	FaceProps   []plyProperty
	HasNormals  bool
}

// LoadPLYMesh reads a PLY file into a triangle mesh
func LoadPLYMesh(path string) (geometry.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return geometry.Mesh{}, fmt.Errorf("opening mesh: %w", err)
	}
	defer f.Close()

	mesh, err := ReadPLY(f)
	if err != nil {
		return geometry.Mesh{}, fmt.Errorf("mesh %s: %w", path, err)
	}
	return mesh, nil
}

// ReadPLY decodes a PLY stream, ascii or binary little-endian. Faces
// must be triangles. Vertex normals are taken from the file when
// present and otherwise computed from the faces, area-weighted.
func ReadPLY(r io.Reader) (geometry.Mesh, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	header, err := parsePLYHeader(br)
	if err != nil {
		return geometry.Mesh{}, err
	}

	var mesh geometry.Mesh
	if header.Binary {
		mesh, err = readBinaryBody(br, header)
	} else {
		mesh, err = readASCIIBody(br, header)
	}
	if err != nil {
		return geometry.Mesh{}, err
	}

	for i, idx := range mesh.Indices {
		if idx >= uint32(len(mesh.Vertices)) {
			return geometry.Mesh{}, fmt.Errorf("face %d references vertex %d of %d", i/3, idx, len(mesh.Vertices))
		}
	}
	if !header.HasNormals {
		computeVertexNormals(mesh.Vertices, mesh.Indices)
	}
	return mesh, nil
}

func parsePLYHeader(br *bufio.Reader) (*plyHeader, error) {
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("not a PLY file")
	}

	header := &plyHeader{}
	element := ""
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ends before end_header")
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed format line")
			}
			switch fields[1] {
			case "ascii":
				header.Binary = false
			case "binary_little_endian":
				header.Binary = true
			default:
				return nil, fmt.Errorf("unsupported PLY format %q", fields[1])
			}
		case "element":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed element line")
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("bad element count %q", fields[2])
			}
			element = fields[1]
			switch element {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("unsupported element %q", element)
				}
			}
		case "property":
			prop, err := parsePLYProperty(fields[1:])
			if err != nil {
				return nil, err
			}
			switch element {
			case "vertex":
				if prop.IsList {
					return nil, fmt.Errorf("list property %q on vertex element", prop.Name)
				}
				if scalarSize(prop.Type) == 0 {
					return nil, fmt.Errorf("unsupported vertex property type %q", prop.Type)
				}
				if prop.Name == "nx" || prop.Name == "ny" || prop.Name == "nz" {
					header.HasNormals = true
				}
				header.VertexProps = append(header.VertexProps, prop)
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		case "end_header":
			return header, nil
		}
	}
}

func parsePLYProperty(fields []string) (plyProperty, error) {
	if len(fields) >= 4 && fields[0] == "list" {
		return plyProperty{
			IsList:    true,
			CountType: fields[1],
			DataType:  fields[2],
			Name:      fields[3],
		}, nil
	}
	if len(fields) >= 2 {
		return plyProperty{Type: fields[0], Name: fields[1]}, nil
	}
	return plyProperty{}, fmt.Errorf("malformed property line")
}

func readBinaryBody(br *bufio.Reader, header *plyHeader) (geometry.Mesh, error) {
	recordSize := 0
	for _, prop := range header.VertexProps {
		recordSize += scalarSize(prop.Type)
	}

	vertices := make([]geometry.Vertex, header.VertexCount)
	record := make([]byte, recordSize)
	for i := range vertices {
		if _, err := io.ReadFull(br, record); err != nil {
			return geometry.Mesh{}, fmt.Errorf("vertex %d: %w", i, err)
		}
		offset := 0
		for _, prop := range header.VertexProps {
			size := scalarSize(prop.Type)
			assignVertexField(&vertices[i], prop.Name, decodeScalar(record[offset:], prop.Type))
			offset += size
		}
	}

	indices := make([]uint32, 0, header.FaceCount*3)
	for i := 0; i < header.FaceCount; i++ {
		for _, prop := range header.FaceProps {
			if prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index") {
				count, err := readBinaryInt(br, prop.CountType)
				if err != nil {
					return geometry.Mesh{}, fmt.Errorf("face %d: %w", i, err)
				}
				if count != 3 {
					return geometry.Mesh{}, fmt.Errorf("face %d has %d vertices, only triangles supported", i, count)
				}
				for j := 0; j < 3; j++ {
					idx, err := readBinaryInt(br, prop.DataType)
					if err != nil {
						return geometry.Mesh{}, fmt.Errorf("face %d: %w", i, err)
					}
					if idx < 0 {
						return geometry.Mesh{}, fmt.Errorf("face %d has negative index", i)
					}
					indices = append(indices, uint32(idx))
				}
			} else if err := skipBinaryProperty(br, prop); err != nil {
				return geometry.Mesh{}, fmt.Errorf("face %d property %s: %w", i, prop.Name, err)
			}
		}
	}
	return geometry.Mesh{Vertices: vertices, Indices: indices}, nil
}

func readASCIIBody(br *bufio.Reader, header *plyHeader) (geometry.Mesh, error) {
	vertices := make([]geometry.Vertex, header.VertexCount)
	for i := range vertices {
		fields, err := nextDataLine(br)
		if err != nil {
			return geometry.Mesh{}, fmt.Errorf("vertex %d: %w", i, err)
		}
		if len(fields) < len(header.VertexProps) {
			return geometry.Mesh{}, fmt.Errorf("vertex %d has %d values, want %d", i, len(fields), len(header.VertexProps))
		}
		for j, prop := range header.VertexProps {
			value, err := strconv.ParseFloat(fields[j], 32)
			if err != nil {
				return geometry.Mesh{}, fmt.Errorf("vertex %d field %s: %w", i, prop.Name, err)
			}
			assignVertexField(&vertices[i], prop.Name, float32(value))
		}
	}

	indices := make([]uint32, 0, header.FaceCount*3)
	for i := 0; i < header.FaceCount; i++ {
		fields, err := nextDataLine(br)
		if err != nil {
			return geometry.Mesh{}, fmt.Errorf("face %d: %w", i, err)
		}
		if len(fields) < 1 {
			return geometry.Mesh{}, fmt.Errorf("face %d is empty", i)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil {
			return geometry.Mesh{}, fmt.Errorf("face %d count: %w", i, err)
		}
		if count != 3 || len(fields) < 4 {
			return geometry.Mesh{}, fmt.Errorf("face %d has %d vertices, only triangles supported", i, count)
		}
		for j := 1; j <= 3; j++ {
			idx, err := strconv.Atoi(fields[j])
			if err != nil || idx < 0 {
				return geometry.Mesh{}, fmt.Errorf("face %d has bad index %q", i, fields[j])
			}
			indices = append(indices, uint32(idx))
		}
	}
	return geometry.Mesh{Vertices: vertices, Indices: indices}, nil
}

// nextDataLine returns the fields of the next non-empty body line
func nextDataLine(br *bufio.Reader) ([]string, error) {
	for {
		line, err := br.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func assignVertexField(v *geometry.Vertex, name string, value float32) {
	switch name {
	case "x":
		v.Position.X = value
	case "y":
		v.Position.Y = value
	case "z":
		v.Position.Z = value
	case "nx":
		v.Normal.X = value
	case "ny":
		v.Normal.Y = value
	case "nz":
		v.Normal.Z = value
	case "u", "s", "texture_u":
		v.UV.X = value
	case "v", "t", "texture_v":
		v.UV.Y = value
	}
}

func scalarSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

func decodeScalar(data []byte, typ string) float32 {
	switch typ {
	case "char", "int8":
		return float32(int8(data[0]))
	case "uchar", "uint8":
		return float32(data[0])
	case "short", "int16":
		return float32(int16(binary.LittleEndian.Uint16(data)))
	case "ushort", "uint16":
		return float32(binary.LittleEndian.Uint16(data))
	case "int", "int32":
		return float32(int32(binary.LittleEndian.Uint32(data)))
	case "uint", "uint32":
		return float32(binary.LittleEndian.Uint32(data))
	case "float", "float32":
		return math.Float32frombits(binary.LittleEndian.Uint32(data))
	case "double", "float64":
		return float32(math.Float64frombits(binary.LittleEndian.Uint64(data)))
	}
	return 0
}

func readBinaryInt(br *bufio.Reader, typ string) (int, error) {
	var buf [4]byte
	read := func(n int) error {
		_, err := io.ReadFull(br, buf[:n])
		return err
	}
	switch typ {
	case "char", "int8":
		err := read(1)
		return int(int8(buf[0])), err
	case "uchar", "uint8":
		err := read(1)
		return int(buf[0]), err
	case "short", "int16":
		err := read(2)
		return int(int16(binary.LittleEndian.Uint16(buf[:]))), err
	case "ushort", "uint16":
		err := read(2)
		return int(binary.LittleEndian.Uint16(buf[:])), err
	case "int", "int32":
		err := read(4)
		return int(int32(binary.LittleEndian.Uint32(buf[:]))), err
	case "uint", "uint32":
		err := read(4)
		return int(binary.LittleEndian.Uint32(buf[:])), err
	}
	return 0, fmt.Errorf("unsupported index type %q", typ)
}

func skipBinaryProperty(br *bufio.Reader, prop plyProperty) error {
	if !prop.IsList {
		size := scalarSize(prop.Type)
		if size == 0 {
			return fmt.Errorf("unsupported property type %q", prop.Type)
		}
		_, err := br.Discard(size)
		return err
	}
	count, err := readBinaryInt(br, prop.CountType)
	if err != nil {
		return err
	}
	size := scalarSize(prop.DataType)
	if size == 0 {
		return fmt.Errorf("unsupported property type %q", prop.DataType)
	}
	_, err = br.Discard(count * size)
	return err
}

// computeVertexNormals fills in smooth per-vertex normals from the face
// windings, weighting each face by its area.
func computeVertexNormals(vertices []geometry.Vertex, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		e1 := vertices[b].Position.Subtract(vertices[a].Position)
		e2 := vertices[c].Position.Subtract(vertices[a].Position)
		fn := e1.Cross(e2)

		vertices[a].Normal = vertices[a].Normal.Add(fn)
		vertices[b].Normal = vertices[b].Normal.Add(fn)
		vertices[c].Normal = vertices[c].Normal.Add(fn)
	}
	for i := range vertices {
		if vertices[i].Normal.LengthSquared() == 0 {
			vertices[i].Normal = core.NewVec3(0, 1, 0)
			continue
		}
		vertices[i].Normal = vertices[i].Normal.Normalize()
	}
}
