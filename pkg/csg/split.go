package csg

import (
	"fmt"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// fragment is one triangle cut from an input face. It keeps its parent
// face's plane and raw exact coordinates; vertex ids are only minted
// when the kept fragments are welded into the result, so no stage
// before that needs shared mutable state.
type fragment struct {
	src   int // input mesh index
	face  int // parent face index within the source
	pts   [3]exact.Vec
	plane exact.Plane
}

// centroid returns the exact barycenter, the fragment's representative
// interior point for classification.
func (f fragment) centroid() exact.Vec {
	third := exact.R(1, 3)
	return f.pts[0].Add(f.pts[1]).Add(f.pts[2]).Scale(third)
}

// probePoints returns interior points to classify from, the barycenter
// first. The midpoints toward each corner are distinct interior
// fallbacks for when a probe grazes the other mesh.
func (f fragment) probePoints() []exact.Vec {
	c := f.centroid()
	half := exact.R(1, 2)
	return []exact.Vec{
		c,
		c.Lerp(f.pts[0], half),
		c.Lerp(f.pts[1], half),
		c.Lerp(f.pts[2], half),
	}
}

// splitAll cuts every face of every input along its constraints.
// Faces split independently in parallel; the flattened fragment list
// follows input order, so downstream stages see a deterministic
// sequence.
func splitAll(ms []*mesh.Mesh, cons map[faceRef][]segment) ([]fragment, error) {
	var refs []faceRef
	for i, m := range ms {
		for f := 0; f < m.NumFaces(); f++ {
			refs = append(refs, faceRef{i, f})
		}
	}

	type slot struct {
		frags []fragment
		err   error
	}
	slots := make([]slot, len(refs))
	parallelFor(len(refs), func(k int) {
		r := refs[k]
		frags, err := splitFace(ms[r.mesh], r.mesh, r.face, cons[r])
		slots[k] = slot{frags: frags, err: err}
	})

	var out []fragment
	for k, s := range slots {
		if s.err != nil {
			r := refs[k]
			return nil, fmt.Errorf("%w: splitting mesh %q face %d: %v",
				ErrNonManifoldResult, ms[r.mesh].Name(), r.face, s.err)
		}
		out = append(out, s.frags...)
	}
	return out, nil
}

// splitFace triangulates one face under its constraint segments. With
// no constraints the ring is ear clipped directly; otherwise the full
// arrangement is built and each of its bounded cells becomes a run of
// triangles.
func splitFace(m *mesh.Mesh, src, face int, cons []segment) ([]fragment, error) {
	ring := m.FaceRing(face)
	plane := m.Face(face).Plane

	if len(cons) == 0 {
		u, v := plane.ProjectionAxes()
		outer := make([]earVert, len(ring))
		for i, p := range ring {
			outer[i] = earVert{p3: p, p2: exact.NewVec2(p.Comp(u), p.Comp(v))}
		}
		return clipRegion(region{outer: outer}, src, face, plane)
	}

	a := newArrangement(plane)
	for i := range ring {
		a.addSegment(ring[i], ring[(i+1)%len(ring)])
	}
	for _, s := range cons {
		a.addSegment(s.a, s.b)
	}
	cells, comp := a.cells(a.overlay())
	regions, err := a.regions(cells, comp)
	if err != nil {
		return nil, err
	}

	var out []fragment
	for _, r := range regions {
		frags, err := clipRegion(r, src, face, plane)
		if err != nil {
			return nil, err
		}
		out = append(out, frags...)
	}
	return out, nil
}

// clipRegion triangulates one region and tags its triangles with the
// parent face.
func clipRegion(r region, src, face int, plane exact.Plane) ([]fragment, error) {
	ring, err := bridgeHoles(r)
	if err != nil {
		return nil, err
	}
	tris, err := earClip(ring)
	if err != nil {
		return nil, err
	}
	out := make([]fragment, len(tris))
	for i, t := range tris {
		out[i] = fragment{
			src:   src,
			face:  face,
			pts:   [3]exact.Vec{t[0].p3, t[1].p3, t[2].p3},
			plane: plane,
		}
	}
	return out, nil
}
