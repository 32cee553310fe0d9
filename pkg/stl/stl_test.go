package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// tetTriangles returns the four faces of the corner tetrahedron with
// unit legs, wound outward. Its volume is 1/6.
func tetTriangles() [][3][3]float32 {
	return [][3][3]float32{
		{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}},
		{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	}
}

// binarySTL assembles a binary STL byte slice with garbage normals.
// count overrides the triangle count field when non-negative.
func binarySTL(header string, tris [][3][3]float32, count int) []byte {
	buf := new(bytes.Buffer)
	var h [80]byte
	copy(h[:], header)
	buf.Write(h[:])
	n := uint32(len(tris))
	if count >= 0 {
		n = uint32(count)
	}
	binary.Write(buf, binary.LittleEndian, n)
	for _, tri := range tris {
		binary.Write(buf, binary.LittleEndian, [3]float32{9, 9, 9})
		for _, v := range tri {
			binary.Write(buf, binary.LittleEndian, v)
		}
		binary.Write(buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

// buildCube builds the sealed cube spanning the origin to size cubed.
func buildCube(t *testing.T, gen *mesh.IDGen, size int64) *mesh.Mesh {
	t.Helper()
	corner := func(xs, ys, zs bool) exact.Vec {
		pick := func(on bool) int64 {
			if on {
				return size
			}
			return 0
		}
		return exact.NewVec(exact.FromInt(pick(xs)), exact.FromInt(pick(ys)), exact.FromInt(pick(zs)))
	}
	b := mesh.NewBuilder(gen)
	b.AddFace(corner(false, false, false), corner(false, true, false), corner(true, true, false), corner(true, false, false))
	b.AddFace(corner(false, false, true), corner(true, false, true), corner(true, true, true), corner(false, true, true))
	b.AddFace(corner(false, false, false), corner(true, false, false), corner(true, false, true), corner(false, false, true))
	b.AddFace(corner(false, true, false), corner(false, true, true), corner(true, true, true), corner(true, true, false))
	b.AddFace(corner(false, false, false), corner(false, false, true), corner(false, true, true), corner(false, true, false))
	b.AddFace(corner(true, false, false), corner(true, true, false), corner(true, true, true), corner(true, false, true))
	m, err := b.Build("cube")
	if err != nil {
		t.Fatalf("building cube: %v", err)
	}
	return m
}

func TestParseBinaryTetrahedron(t *testing.T) {
	data := binarySTL("scratch file", tetTriangles(), -1)
	m, err := Parse(mesh.NewIDGen(), "tet", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name() != "tet" {
		t.Errorf("name = %q, want tet", m.Name())
	}
	if got := m.NumFaces(); got != 4 {
		t.Errorf("faces = %d, want 4", got)
	}
	// Twelve corners weld into four shared vertices.
	if got := m.NumVertices(); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
	if vol := m.Volume(); vol.Cmp(exact.R(1, 6)) != 0 {
		t.Errorf("volume = %s, want 1/6", vol.RatString())
	}
}

func TestParseBinaryHeaderSayingSolid(t *testing.T) {
	// A malicious binary header starting with "solid" must still be
	// read as binary because the size math is consistent.
	data := binarySTL("solid-looking binary", tetTriangles(), -1)
	m, err := Parse(mesh.NewIDGen(), "", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := m.NumFaces(); got != 4 {
		t.Errorf("faces = %d, want 4", got)
	}
}

func TestParseBinaryTruncated(t *testing.T) {
	data := binarySTL("scratch", tetTriangles(), -1)
	if _, err := Parse(mesh.NewIDGen(), "", data[:40]); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("short preamble err = %v, want ErrTruncatedData", err)
	}
	lying := binarySTL("scratch", tetTriangles(), 9)
	if _, err := Parse(mesh.NewIDGen(), "", lying); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("wrong count err = %v, want ErrTruncatedData", err)
	}
}

func TestParseBinaryNonFinite(t *testing.T) {
	tris := tetTriangles()
	tris[2][1][0] = float32(math.Inf(1))
	data := binarySTL("scratch", tris, -1)
	_, err := Parse(mesh.NewIDGen(), "", data)
	if !errors.Is(err, exact.ErrNonFinite) {
		t.Errorf("err = %v, want ErrNonFinite", err)
	}
	if err == nil || !strings.Contains(err.Error(), "triangle 2") {
		t.Errorf("err = %v, want triangle index", err)
	}
}

func TestParseSkipsDegenerateTriangles(t *testing.T) {
	tris := append(tetTriangles(), [3][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	data := binarySTL("scratch", tris, -1)
	m, err := Parse(mesh.NewIDGen(), "tet", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := m.NumFaces(); got != 4 {
		t.Errorf("faces = %d, want 4 after dropping the sliver", got)
	}
	if vol := m.Volume(); vol.Cmp(exact.R(1, 6)) != 0 {
		t.Errorf("volume = %s, want 1/6", vol.RatString())
	}
}

const tetASCII = `solid tet
  facet normal 0 0 0
    outer loop
      vertex 0 0 0
      vertex 0 1 0
      vertex 1 0 0
    endloop
  endfacet
  facet normal 0 0 0
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 0 1
    endloop
  endfacet
  facet normal 0 0 0
    outer loop
      vertex 0 0 0
      vertex 0 0 1
      vertex 0 1 0
    endloop
  endfacet
  facet normal 0 0 0
    outer loop
      vertex 1 0 0
      vertex 0 1 0
      vertex 0 0 1
    endloop
  endfacet
endsolid tet
`

func TestParseASCIITetrahedron(t *testing.T) {
	m, err := Parse(mesh.NewIDGen(), "", []byte(tetASCII))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name() != "tet" {
		t.Errorf("name = %q, want the embedded tet", m.Name())
	}
	if got := m.NumVertices(); got != 4 {
		t.Errorf("vertices = %d, want 4", got)
	}
	if vol := m.Volume(); vol.Cmp(exact.R(1, 6)) != 0 {
		t.Errorf("volume = %s, want 1/6", vol.RatString())
	}
}

func TestParseASCIINameOverride(t *testing.T) {
	m, err := Parse(mesh.NewIDGen(), "part", []byte(tetASCII))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Name() != "part" {
		t.Errorf("name = %q, want part", m.Name())
	}
}

func TestParseASCIIBadSyntax(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing endsolid", "solid a\n"},
		{"unexpected token", "solid a\nbanana\n"},
		{"short loop", "solid a\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\nendsolid a\n"},
		{"bad coordinate", "solid a\nfacet normal 0 0 1\nouter loop\nvertex 0 0 x\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid a\n"},
		{"non-finite coordinate", "solid a\nfacet normal 0 0 1\nouter loop\nvertex nan 0 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid a\n"},
		{"missing outer loop", "solid a\nfacet normal 0 0 1\nvertex 0 0 0\n"},
	}
	for _, tc := range cases {
		_, err := Parse(mesh.NewIDGen(), "", []byte(tc.data))
		if !errors.Is(err, ErrBadSyntax) {
			t.Errorf("%s: err = %v, want ErrBadSyntax", tc.name, err)
			continue
		}
		if !strings.Contains(err.Error(), "line ") {
			t.Errorf("%s: err = %v, want a line number", tc.name, err)
		}
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildCube(t, gen, 2)

	data, err := Encode(cube)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("tenon")) {
		t.Errorf("header starts %q, must not start with solid", data[:8])
	}
	if n := binary.LittleEndian.Uint32(data[80:]); n != 12 {
		t.Errorf("triangle count = %d, want 12 fanned from 6 quads", n)
	}
	if len(data) != 84+12*50 {
		t.Errorf("encoded size = %d, want %d", len(data), 84+12*50)
	}

	back, err := Parse(gen, "cube", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := back.NumVertices(); got != 8 {
		t.Errorf("vertices = %d, want 8", got)
	}
	if got := back.NumFaces(); got != 12 {
		t.Errorf("faces = %d, want 12", got)
	}
	if vol := back.Volume(); vol.Cmp(exact.FromInt(8)) != 0 {
		t.Errorf("volume = %s, want 8", vol.RatString())
	}
}

func TestASCIIRoundTrip(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildCube(t, gen, 2)

	data, err := EncodeASCII(cube)
	if err != nil {
		t.Fatalf("EncodeASCII: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "solid cube\n") {
		t.Errorf("output starts %q", text[:20])
	}
	if !strings.Contains(text, "facet normal 0 0 -1") || !strings.Contains(text, "facet normal 0 0 1") {
		t.Error("recomputed axis normals missing from output")
	}

	back, err := Parse(gen, "", data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.Name() != "cube" {
		t.Errorf("name = %q, want cube", back.Name())
	}
	if vol := back.Volume(); vol.Cmp(exact.FromInt(8)) != 0 {
		t.Errorf("volume = %s, want 8", vol.RatString())
	}
}

func TestCheck(t *testing.T) {
	closed := binarySTL("scratch", tetTriangles(), -1)
	res, err := Check(closed)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.OK() {
		t.Errorf("closed tetrahedron reported errors: %v", res.Errors)
	}

	open := binarySTL("scratch", tetTriangles()[:1], -1)
	res, err = Check(open)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.OK() {
		t.Error("open surface passed validation")
	}

	if _, err := Check(closed[:10]); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("truncated err = %v, want ErrTruncatedData", err)
	}
}

func TestParseEmptySolid(t *testing.T) {
	m, err := Parse(mesh.NewIDGen(), "", binarySTL("empty", nil, -1))
	if err != nil {
		t.Fatalf("binary: %v", err)
	}
	if !m.IsEmpty() {
		t.Error("zero-triangle binary STL is not empty")
	}

	m, err = Parse(mesh.NewIDGen(), "", []byte("solid void\nendsolid void\n"))
	if err != nil {
		t.Fatalf("ascii: %v", err)
	}
	if !m.IsEmpty() || m.Name() != "void" {
		t.Errorf("empty = %v name = %q, want empty void", m.IsEmpty(), m.Name())
	}
}
