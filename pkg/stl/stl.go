// Package stl reads and writes STL triangle files, binary and ASCII.
// Reading lifts every coordinate into exact rationals and welds shared
// corners, so a loaded file is ready for boolean evaluation. Writing
// rounds to floats and recomputes normals from the exact face planes.
package stl

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// STL format errors.
var (
	ErrTruncatedData = errors.New("truncated STL data")
	ErrBadSyntax     = errors.New("malformed ASCII STL")
)

const (
	headerLen   = 80
	countLen    = 4
	triangleLen = 50 // normal and three corners as float32, then the attribute count
)

// rawTriangle is the 50-byte binary STL record.
type rawTriangle struct {
	Normal [3]float32
	Vertex [3][3]float32
	Attr   uint16
}

// Parse reads a mesh from STL bytes, binary or ASCII. The stated
// normals are ignored since the corners are authoritative, and
// triangles whose exact area is zero are dropped. name overrides the
// name embedded in the file; pass "" to keep the embedded one.
func Parse(gen *mesh.IDGen, name string, data []byte) (*mesh.Mesh, error) {
	b, embedded, err := decode(gen, data)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = embedded
	}
	return b.Build(name)
}

// ParseFile reads a mesh from an STL file, named after the file.
func ParseFile(gen *mesh.IDGen, path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(gen, name, data)
}

// Check decodes the triangles and reports seal validation findings
// without requiring the solid to close. Decode failures are returned
// as errors; gaps and flipped faces land in the result instead.
func Check(data []byte) (mesh.ValidationResult, error) {
	b, _, err := decode(mesh.NewIDGen(), data)
	if err != nil {
		return mesh.ValidationResult{}, err
	}
	return b.Validate(), nil
}

func decode(gen *mesh.IDGen, data []byte) (*mesh.Builder, string, error) {
	if isASCII(data) {
		return decodeASCII(gen, data)
	}
	return decodeBinary(gen, data)
}

// isASCII sniffs the encoding. Binary headers are arbitrary bytes and
// may also begin with "solid", so consistent binary size math wins
// over the keyword.
func isASCII(data []byte) bool {
	if binarySized(data) {
		return false
	}
	head := bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(head, []byte("solid"))
}

func binarySized(data []byte) bool {
	if len(data) < headerLen+countLen {
		return false
	}
	n := binary.LittleEndian.Uint32(data[headerLen:])
	return uint64(len(data)) == headerLen+countLen+uint64(n)*triangleLen
}

func decodeBinary(gen *mesh.IDGen, data []byte) (*mesh.Builder, string, error) {
	if len(data) < headerLen+countLen {
		return nil, "", fmt.Errorf("%w: %d bytes is shorter than the binary preamble", ErrTruncatedData, len(data))
	}
	n := binary.LittleEndian.Uint32(data[headerLen:])
	want := uint64(headerLen+countLen) + uint64(n)*triangleLen
	if uint64(len(data)) != want {
		return nil, "", fmt.Errorf("%w: %d triangles need %d bytes, have %d", ErrTruncatedData, n, want, len(data))
	}

	r := bytes.NewReader(data[headerLen+countLen:])
	b := mesh.NewBuilder(gen)
	var tri rawTriangle
	for i := uint32(0); i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, &tri); err != nil {
			return nil, "", fmt.Errorf("%w: reading triangle %d", ErrTruncatedData, i)
		}
		if err := addTriangle(b, tri.Vertex); err != nil {
			return nil, "", fmt.Errorf("triangle %d: %w", i, err)
		}
	}
	return b, "solid", nil
}

func decodeASCII(gen *mesh.IDGen, data []byte) (*mesh.Builder, string, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	ln := 0
	next := func() ([]string, bool) {
		for sc.Scan() {
			ln++
			if fields := strings.Fields(sc.Text()); len(fields) > 0 {
				return fields, true
			}
		}
		return nil, false
	}

	fields, ok := next()
	if !ok || strings.ToLower(fields[0]) != "solid" {
		return nil, "", fmt.Errorf("line %d: %w: expected solid header", ln, ErrBadSyntax)
	}
	name := "solid"
	if len(fields) > 1 {
		name = fields[1]
	}

	b := mesh.NewBuilder(gen)
	for {
		fields, ok = next()
		if !ok {
			return nil, "", fmt.Errorf("line %d: %w: missing endsolid", ln, ErrBadSyntax)
		}
		switch strings.ToLower(fields[0]) {
		case "endsolid":
			return b, name, nil

		case "facet":
			// The facet line carries the stated normal, which is ignored.
			if fields, ok = next(); !ok || strings.ToLower(fields[0]) != "outer" {
				return nil, "", fmt.Errorf("line %d: %w: expected outer loop", ln, ErrBadSyntax)
			}
			var p [3]exact.Vec
			for i := 0; i < 3; i++ {
				fields, ok = next()
				if !ok || strings.ToLower(fields[0]) != "vertex" || len(fields) != 4 {
					return nil, "", fmt.Errorf("line %d: %w: expected vertex with three coordinates", ln, ErrBadSyntax)
				}
				v, err := parseVertex(fields[1:])
				if err != nil {
					return nil, "", fmt.Errorf("line %d: %w", ln, err)
				}
				p[i] = v
			}
			if fields, ok = next(); !ok || strings.ToLower(fields[0]) != "endloop" {
				return nil, "", fmt.Errorf("line %d: %w: expected endloop after three vertices", ln, ErrBadSyntax)
			}
			if fields, ok = next(); !ok || strings.ToLower(fields[0]) != "endfacet" {
				return nil, "", fmt.Errorf("line %d: %w: expected endfacet", ln, ErrBadSyntax)
			}
			if !p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).IsZero() {
				b.AddFace(p[0], p[1], p[2])
			}

		default:
			return nil, "", fmt.Errorf("line %d: %w: unexpected token %q", ln, ErrBadSyntax, fields[0])
		}
	}
}

func parseVertex(fields []string) (exact.Vec, error) {
	var c [3]*big.Rat
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return exact.Vec{}, fmt.Errorf("%w: bad coordinate %q", ErrBadSyntax, f)
		}
		r, err := exact.FromFloat(x)
		if err != nil {
			return exact.Vec{}, fmt.Errorf("%w: non-finite coordinate %q", ErrBadSyntax, f)
		}
		c[i] = r
	}
	return exact.NewVec(c[0], c[1], c[2]), nil
}

// addTriangle lifts the three corners exactly and drops slivers whose
// exact area is zero.
func addTriangle(b *mesh.Builder, corners [3][3]float32) error {
	var p [3]exact.Vec
	for i, c := range corners {
		v, err := liftCorner(c)
		if err != nil {
			return fmt.Errorf("corner %d: %w", i, err)
		}
		p[i] = v
	}
	if p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).IsZero() {
		return nil
	}
	b.AddFace(p[0], p[1], p[2])
	return nil
}

func liftCorner(c [3]float32) (exact.Vec, error) {
	x, err := exact.FromFloat(float64(c[0]))
	if err != nil {
		return exact.Vec{}, err
	}
	y, err := exact.FromFloat(float64(c[1]))
	if err != nil {
		return exact.Vec{}, err
	}
	z, err := exact.FromFloat(float64(c[2]))
	if err != nil {
		return exact.Vec{}, err
	}
	return exact.NewVec(x, y, z), nil
}

// Encode renders the mesh as binary STL. Rings wider than a triangle
// are fanned from their first vertex, which is exact for the convex
// rings the builders produce. Vertex coordinates round to the nearest
// float32.
func Encode(m *mesh.Mesh) ([]byte, error) {
	buf := new(bytes.Buffer)
	var header [headerLen]byte
	copy(header[:], fmt.Sprintf("tenon mesh %q", m.Name()))
	buf.Write(header[:])

	count := 0
	for i := 0; i < m.NumFaces(); i++ {
		count += len(m.Face(i).Ring) - 2
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(count)); err != nil {
		return nil, err
	}

	for i := 0; i < m.NumFaces(); i++ {
		ring := m.FaceRing(i)
		n := floatNormal(m.Face(i).Plane)
		for k := 1; k+1 < len(ring); k++ {
			tri := rawTriangle{
				Normal: n,
				Vertex: [3][3]float32{corner(ring[0]), corner(ring[k]), corner(ring[k+1])},
			}
			if err := binary.Write(buf, binary.LittleEndian, &tri); err != nil {
				return nil, err
			}
		}
	}
	return buf.Bytes(), nil
}

// EncodeASCII renders the mesh as ASCII STL, fanned like Encode.
// Coordinates print with enough digits to read back bit-exactly.
func EncodeASCII(m *mesh.Mesh) ([]byte, error) {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "solid %s\n", m.Name())
	for i := 0; i < m.NumFaces(); i++ {
		ring := m.FaceRing(i)
		n := floatNormal(m.Face(i).Plane)
		for k := 1; k+1 < len(ring); k++ {
			fmt.Fprintf(buf, "  facet normal %g %g %g\n", n[0], n[1], n[2])
			buf.WriteString("    outer loop\n")
			for _, p := range []exact.Vec{ring[0], ring[k], ring[k+1]} {
				x, y, z := p.Float64()
				fmt.Fprintf(buf, "      vertex %g %g %g\n", x, y, z)
			}
			buf.WriteString("    endloop\n")
			buf.WriteString("  endfacet\n")
		}
	}
	fmt.Fprintf(buf, "endsolid %s\n", m.Name())
	return buf.Bytes(), nil
}

// WriteFile writes m to path as binary STL.
func WriteFile(m *mesh.Mesh, path string) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing STL file: %w", err)
	}
	return nil
}

// floatNormal converts an exact face normal to a float32 unit vector.
// A magnitude the floats cannot express yields the zero normal, which
// readers treat as "recompute from the corners".
func floatNormal(p exact.Plane) [3]float32 {
	x, y, z := p.N.Float64()
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 || math.IsInf(l, 1) || math.IsNaN(l) {
		return [3]float32{}
	}
	return [3]float32{float32(x / l), float32(y / l), float32(z / l)}
}

func corner(p exact.Vec) [3]float32 {
	x, y, z := p.Float64()
	return [3]float32{float32(x), float32(y), float32(z)}
}
