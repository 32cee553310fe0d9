package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/spatial"
)

// Construction failures fold into these sentinels. Wrapped messages
// carry the mesh name and offending face index.
var (
	// ErrDegenerateFace marks a face that is zero-area, non-planar,
	// shorter than a triangle, or repeats a vertex.
	ErrDegenerateFace = errors.New("degenerate face")

	// ErrNotClosed marks a mesh that is open or non-manifold: a
	// boundary edge, an over-shared edge, inconsistent winding, a
	// split vertex fan, or inward global orientation.
	ErrNotClosed = errors.New("mesh is not closed")
)

// Builder accumulates faces, welding points by exact coordinate key,
// and seals them into a validated Mesh. A Builder is single-use; after
// Build it must be discarded.
type Builder struct {
	gen   *IDGen
	verts []Vertex
	byKey map[string]VertexID
	byID  map[VertexID]int
	rings [][]VertexID
}

// NewBuilder returns a Builder minting vertex ids from gen.
func NewBuilder(gen *IDGen) *Builder {
	return &Builder{
		gen:   gen,
		byKey: make(map[string]VertexID),
		byID:  make(map[VertexID]int),
	}
}

// AddPoint welds p into the vertex arena and returns its id. Points
// with exactly equal coordinates share one vertex; everything else
// stays distinct no matter how close.
func (b *Builder) AddPoint(p exact.Vec) VertexID {
	key := p.Key()
	if id, ok := b.byKey[key]; ok {
		return id
	}
	id := b.gen.Next()
	b.byKey[key] = id
	b.byID[id] = len(b.verts)
	b.verts = append(b.verts, Vertex{ID: id, Pos: p})
	return id
}

// AddFace appends a face with the given ring of points, winding as
// given. Validation happens at Build.
func (b *Builder) AddFace(points ...exact.Vec) {
	ring := make([]VertexID, len(points))
	for i, p := range points {
		ring[i] = b.AddPoint(p)
	}
	b.rings = append(b.rings, ring)
}

// NumFaces returns the number of faces added so far.
func (b *Builder) NumFaces() int {
	return len(b.rings)
}

// pos resolves an id already minted by this builder.
func (b *Builder) pos(id VertexID) exact.Vec {
	return b.verts[b.byID[id]].Pos
}

// ringPoints resolves a ring to positions.
func (b *Builder) ringPoints(ring []VertexID) []exact.Vec {
	pts := make([]exact.Vec, len(ring))
	for i, id := range ring {
		pts[i] = b.pos(id)
	}
	return pts
}

// Build validates everything added so far and seals it into a Mesh.
// Geometric defects return ErrDegenerateFace, topological defects
// ErrNotClosed, both wrapped with the mesh name and face index of the
// first finding. Zero faces seal into the empty mesh.
func (b *Builder) Build(name string) (*Mesh, error) {
	res := b.Validate()
	if err := res.fold(name); err != nil {
		return nil, err
	}

	faces := make([]Face, len(b.rings))
	boxes := make([]spatial.Box, len(b.rings))
	for i, ring := range b.rings {
		pts := b.ringPoints(ring)
		plane, err := exact.PlaneFromRing(pts)
		if err != nil {
			// Validate already rejected these; defends against skew
			// between the two passes.
			return nil, fmt.Errorf("mesh %q face %d: %s: %w", name, i, err, ErrDegenerateFace)
		}
		faces[i] = Face{Ring: append([]VertexID(nil), ring...), Plane: plane}
		boxes[i] = faceBoxOf(pts)
	}

	// Keep only vertices referenced by some ring, in id order.
	used := make(map[VertexID]bool)
	for _, f := range faces {
		for _, id := range f.Ring {
			used[id] = true
		}
	}
	verts := make([]Vertex, 0, len(used))
	for _, v := range b.verts {
		if used[v.ID] {
			verts = append(verts, v)
		}
	}
	sort.Slice(verts, func(i, j int) bool { return verts[i].ID < verts[j].ID })
	byID := make(map[VertexID]int, len(verts))
	for i, v := range verts {
		byID[v.ID] = i
	}

	index, err := spatial.NewIndex(boxes)
	if err != nil {
		return nil, fmt.Errorf("mesh %q: indexing faces: %w", name, err)
	}

	var bounds spatial.Box
	for i, bb := range boxes {
		if i == 0 {
			bounds = bb
		} else {
			bounds = bounds.Union(bb)
		}
	}

	return &Mesh{
		name:    name,
		verts:   verts,
		byID:    byID,
		faces:   faces,
		faceBox: boxes,
		bounds:  bounds,
		index:   index,
	}, nil
}

// fold reduces a validation result to the first blocking error,
// wrapped in the matching sentinel.
func (r ValidationResult) fold(name string) error {
	for _, e := range r.Errors {
		sentinel := ErrDegenerateFace
		if e.Topological {
			sentinel = ErrNotClosed
		}
		if e.Face >= 0 {
			return fmt.Errorf("mesh %q face %d: %s: %w", name, e.Face, e.Message, sentinel)
		}
		return fmt.Errorf("mesh %q: %s: %w", name, e.Message, sentinel)
	}
	return nil
}
