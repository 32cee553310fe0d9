// Package mesh defines the exact polygonal surface model: vertices
// with rational coordinates, faces as ordered vertex-id rings with
// derived planes, and the sealed Mesh that the boolean pipeline
// consumes. Construction goes through Builder, which welds points by
// exact coordinate key, validates the closed-manifold invariants, and
// builds the broad-phase index once at seal time.
//
// Vertices and faces are arena-addressed by id and index; adjacency is
// always expressed as id lists, never as pointers between elements, so
// the structure has no reference cycles. A sealed Mesh is immutable.
package mesh

import (
	"math"
	"math/big"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/spatial"
)

// VertexID names a vertex. Ids are unique across every mesh built from
// the same IDGen, including meshes derived during evaluation, so a
// weld by coordinate equality can never silently merge vertices that
// were distinct by construction. Zero is never a valid id.
type VertexID uint64

// IDGen mints vertex ids. Thread one generator through everything that
// creates geometry; the pipeline mints only from its sequential stages,
// so IDGen is deliberately not safe for concurrent use.
type IDGen struct {
	next uint64
}

// NewIDGen returns a generator whose first id is 1.
func NewIDGen() *IDGen {
	return &IDGen{next: 1}
}

// Next returns a fresh id.
func (g *IDGen) Next() VertexID {
	id := VertexID(g.next)
	g.next++
	return id
}

// Vertex is an immutable exact point with its id.
type Vertex struct {
	ID  VertexID
	Pos exact.Vec
}

// Face is an ordered ring of at least three vertex ids. Winding is
// counter-clockwise seen from outside, so the derived plane normal
// points outward.
type Face struct {
	Ring  []VertexID
	Plane exact.Plane
}

// Axis names a coordinate axis for the exact quarter-turn rotations.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "axis(?)"
	}
}

// Mesh is a sealed surface. Every mesh that leaves Build is a closed
// 2-manifold with globally consistent outward winding (or empty).
type Mesh struct {
	name    string
	verts   []Vertex
	byID    map[VertexID]int
	faces   []Face
	faceBox []spatial.Box
	bounds  spatial.Box
	index   *spatial.Index
}

// Name returns the label given at Build time.
func (m *Mesh) Name() string {
	return m.name
}

// NumVertices returns the number of vertices referenced by faces.
func (m *Mesh) NumVertices() int {
	return len(m.verts)
}

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int {
	return len(m.faces)
}

// IsEmpty reports whether the mesh has no faces. The empty mesh is the
// legitimate result of a boolean operation with nothing left, for
// example intersecting disjoint solids.
func (m *Mesh) IsEmpty() bool {
	return len(m.faces) == 0
}

// Vertex returns the i'th vertex in id order.
func (m *Mesh) Vertex(i int) Vertex {
	return m.verts[i]
}

// Pos resolves a vertex id to its exact position.
func (m *Mesh) Pos(id VertexID) (exact.Vec, bool) {
	i, ok := m.byID[id]
	if !ok {
		return exact.Vec{}, false
	}
	return m.verts[i].Pos, true
}

// Face returns the i'th face.
func (m *Mesh) Face(i int) Face {
	return m.faces[i]
}

// FaceRing resolves the i'th face's ring to exact positions.
func (m *Mesh) FaceRing(i int) []exact.Vec {
	ring := m.faces[i].Ring
	pts := make([]exact.Vec, len(ring))
	for j, id := range ring {
		pts[j] = m.verts[m.byID[id]].Pos
	}
	return pts
}

// FaceBox returns the conservative float box of the i'th face.
func (m *Mesh) FaceBox(i int) spatial.Box {
	return m.faceBox[i]
}

// Bounds returns the conservative float box of the whole mesh.
func (m *Mesh) Bounds() spatial.Box {
	return m.bounds
}

// Index returns the face broad-phase index built at seal time.
func (m *Mesh) Index() *spatial.Index {
	return m.index
}

// faceBoxOf computes the conservative float box of a resolved ring,
// rounding every exact coordinate outward.
func faceBoxOf(pts []exact.Vec) spatial.Box {
	var b spatial.Box
	for i, p := range pts {
		lo := [3]float64{exact.FloatFloor(p.X), exact.FloatFloor(p.Y), exact.FloatFloor(p.Z)}
		hi := [3]float64{exact.FloatCeil(p.X), exact.FloatCeil(p.Y), exact.FloatCeil(p.Z)}
		if i == 0 {
			b = spatial.Box{Min: lo, Max: hi}
			continue
		}
		for k := 0; k < 3; k++ {
			if lo[k] < b.Min[k] {
				b.Min[k] = lo[k]
			}
			if hi[k] > b.Max[k] {
				b.Max[k] = hi[k]
			}
		}
	}
	return b
}

// Volume returns the exact signed volume enclosed by the mesh,
// positive for outward winding. Each face is fanned from its first
// ring vertex; the signed tetrahedron sum is exact, so the decomposed
// pieces of a solid always add back to the original volume bit for
// bit.
func (m *Mesh) Volume() *big.Rat {
	total := new(big.Rat)
	six := exact.FromInt(6)
	for i := range m.faces {
		pts := m.FaceRing(i)
		for j := 1; j+1 < len(pts); j++ {
			total.Add(total, pts[0].Dot(pts[j].Cross(pts[j+1])))
		}
	}
	return total.Quo(total, six)
}

// VolumeFloat returns the volume rounded to float64 for reporting.
func (m *Mesh) VolumeFloat() float64 {
	f, _ := m.Volume().Float64()
	return f
}

// Area returns the total surface area in float64. Area is a square
// root away from the rationals, so no exact version exists.
func (m *Mesh) Area() float64 {
	var total float64
	for i := range m.faces {
		pts := m.FaceRing(i)
		var nx, ny, nz float64
		for j, p := range pts {
			q := pts[(j+1)%len(pts)]
			px, py, pz := p.Float64()
			qx, qy, qz := q.Float64()
			nx += py*qz - pz*qy
			ny += pz*qx - px*qz
			nz += px*qy - py*qx
		}
		total += 0.5 * math.Sqrt(nx*nx+ny*ny+nz*nz)
	}
	return total
}
