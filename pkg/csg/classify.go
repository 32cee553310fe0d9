package csg

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
	"github.com/chazu/tenon/pkg/spatial"
)

// errGrazing reports that a reference point sits exactly on a face the
// fragment is not parallel to. The fragment only touches that face at a
// lower-dimensional contact, so the caller reclassifies from another
// interior point.
var errGrazing = errors.New("reference point grazes a face")

// status is a fragment's relation to one other input solid.
type status int8

const (
	statusOut    status = iota // strictly outside
	statusIn                   // strictly inside
	statusOnSame               // on the boundary, normals aligned
	statusOnOpp                // on the boundary, normals opposed
)

func (s status) String() string {
	switch s {
	case statusOut:
		return "out"
	case statusIn:
		return "in"
	case statusOnSame:
		return "on-same"
	case statusOnOpp:
		return "on-opp"
	default:
		return "status(?)"
	}
}

// keep is the operator's decision table. st[j] is the fragment's
// status against input j; st[src] is meaningless and skipped. The
// second result asks for the fragment's winding to be flipped.
//
// Boundary fragments shared by two inputs appear twice, once per
// contributor, as coincident on-same pairs; the copy from the
// lower-indexed input wins and the other is dropped, which is the
// dedupe rule every case below applies.
func (op Operator) keep(src int, st []status) (bool, bool) {
	switch op {
	case OpIntersection:
		// Keep what is inside, or on the shared boundary of, every
		// other solid. An on-opp contact is a touch from outside, so
		// it does not survive.
		for j, s := range st {
			if j == src {
				continue
			}
			if s != statusIn && s != statusOnSame {
				return false, false
			}
		}
		for j := 0; j < src; j++ {
			if st[j] == statusOnSame {
				return false, false
			}
		}
		return true, false

	case OpUnion:
		// Keep what no other solid covers: strictly outside
		// everything, or on a shared boundary once.
		for j, s := range st {
			if j == src {
				continue
			}
			if s != statusOut && s != statusOnSame {
				return false, false
			}
		}
		for j := 0; j < src; j++ {
			if st[j] == statusOnSame {
				return false, false
			}
		}
		return true, false

	case OpDifference:
		if src == 0 {
			// Minuend fragments survive where no subtrahend covers
			// them; an on-opp contact is a subtrahend touching from
			// the far side and removes nothing.
			for j, s := range st {
				if j == 0 {
					continue
				}
				if s != statusOut && s != statusOnOpp {
					return false, false
				}
			}
			return true, false
		}
		// Subtrahend fragments strictly inside the minuend become the
		// walls of the carved cavity, flipped outward. They must not
		// be buried inside another subtrahend.
		if st[0] != statusIn {
			return false, false
		}
		for j, s := range st {
			if j == 0 || j == src {
				continue
			}
			if s != statusOut && s != statusOnSame {
				return false, false
			}
		}
		for j := 1; j < src; j++ {
			if st[j] == statusOnSame {
				return false, false
			}
		}
		return true, true
	}
	return false, false
}

// probeDirs are the parity-ray directions, tried in order until one
// passes every face either cleanly or not at all. All components are
// nonnegative; rayParity relies on that when boxing the ray.
var probeDirs = []exact.Vec{
	exact.VecFromInts(1, 0, 0),
	exact.VecFromInts(0, 1, 0),
	exact.VecFromInts(0, 0, 1),
	exact.VecFromInts(1, 2, 3),
	exact.VecFromInts(3, 1, 2),
	exact.VecFromInts(2, 3, 1),
	exact.VecFromInts(1, 1, 1),
}

// selectFragments classifies every fragment against every other input
// and keeps the operator's choices. Classification is parallel per
// fragment; selection walks fragments in order, so the kept list is
// deterministic.
func selectFragments(op Operator, ms []*mesh.Mesh, frags []fragment) ([]fragment, error) {
	statuses := make([][]status, len(frags))
	errs := make([]error, len(frags))
	parallelFor(len(frags), func(i int) {
		statuses[i], errs[i] = classifyFragment(frags[i], ms)
	})
	for i, err := range errs {
		if err != nil {
			f := frags[i]
			return nil, fmt.Errorf("mesh %q face %d: %w", ms[f.src].Name(), f.face, err)
		}
	}

	var kept []fragment
	for i, f := range frags {
		ok, flip := op.keep(f.src, statuses[i])
		if !ok {
			continue
		}
		if flip {
			f.pts[1], f.pts[2] = f.pts[2], f.pts[1]
			f.plane = f.plane.Flip()
		}
		kept = append(kept, f)
	}
	return kept, nil
}

func classifyFragment(f fragment, ms []*mesh.Mesh) ([]status, error) {
	st := make([]status, len(ms))
	probes := f.probePoints()
	for j, m := range ms {
		if j == f.src {
			continue
		}
		s, err := classifyAgainst(probes, f.plane, m)
		if err != nil {
			return nil, err
		}
		st[j] = s
	}
	return st, nil
}

// classifyAgainst tries each interior probe point until one avoids a
// grazing contact with m.
func classifyAgainst(probes []exact.Vec, frag exact.Plane, m *mesh.Mesh) (status, error) {
	for _, p := range probes {
		s, err := classifyPoint(p, frag, m)
		if errors.Is(err, errGrazing) {
			continue
		}
		return s, err
	}
	return 0, fmt.Errorf("every probe point grazes mesh %q: %w", m.Name(), ErrAmbiguousContact)
}

// classifyPoint locates p relative to the solid m. Fragments are split
// along every intersection with m's surface, so a probe point landing
// on a face the fragment is parallel to means the whole fragment is
// coplanar with it; the two on-boundary states record which way the
// normals agree, which is all the operator tables need to resolve
// coplanar contact. A probe point on a face the fragment crosses only
// at its rim is a grazing contact and yields errGrazing. Otherwise a
// parity ray decides inside or outside, retrying along the next probe
// direction whenever a face is hit on an edge, a vertex, or edge-on.
func classifyPoint(p exact.Vec, frag exact.Plane, m *mesh.Mesh) (status, error) {
	if m.IsEmpty() {
		return statusOut, nil
	}
	cands, err := m.Index().Overlapping(pointBox(p))
	if err != nil {
		return 0, err
	}
	for _, fi := range cands {
		pl := m.Face(fi).Plane
		if pl.Side(p) != exact.On {
			continue
		}
		u, v := pl.ProjectionAxes()
		p2 := exact.NewVec2(p.Comp(u), p.Comp(v))
		if exact.PointInRing(p2, projectRing(m.FaceRing(fi), u, v)) == exact.Outside {
			continue
		}
		if !frag.Parallel(pl) {
			return 0, errGrazing
		}
		if frag.N.Dot(pl.N).Sign() > 0 {
			return statusOnSame, nil
		}
		return statusOnOpp, nil
	}

	for _, d := range probeDirs {
		inside, generic, err := rayParity(p, d, m)
		if err != nil {
			return 0, err
		}
		if !generic {
			continue
		}
		if inside {
			return statusIn, nil
		}
		return statusOut, nil
	}
	return 0, fmt.Errorf("point %s vs mesh %q: %w", p, m.Name(), ErrAmbiguousContact)
}

// rayParity counts exact crossings of the ray p + t·d, t > 0, with the
// surface of m. generic is false when the ray grazes an edge or vertex
// or runs inside a face's plane, which would make the count
// meaningless.
func rayParity(p exact.Vec, d exact.Vec, m *mesh.Mesh) (inside, generic bool, err error) {
	cands, err := m.Index().Overlapping(rayBox(p, d, m.Bounds()))
	if err != nil {
		return false, false, err
	}
	crossings := 0
	for _, fi := range cands {
		pl := m.Face(fi).Plane
		nd := pl.N.Dot(d)
		ep := pl.Eval(p)
		if nd.Sign() == 0 {
			if ep.Sign() == 0 {
				return false, false, nil // ray runs inside the face plane
			}
			continue
		}
		t := new(big.Rat).Quo(ep, nd)
		t.Neg(t)
		if t.Sign() <= 0 {
			continue
		}
		c := p.Add(d.Scale(t))
		u, v := pl.ProjectionAxes()
		c2 := exact.NewVec2(c.Comp(u), c.Comp(v))
		switch exact.PointInRing(c2, projectRing(m.FaceRing(fi), u, v)) {
		case exact.Inside:
			crossings++
		case exact.OnBoundary:
			return false, false, nil // edge or vertex hit
		}
	}
	return crossings%2 == 1, true, nil
}

// pointBox is the one-ulp conservative float box around an exact point.
func pointBox(p exact.Vec) spatial.Box {
	return spatial.Box{
		Min: [3]float64{exact.FloatFloor(p.X), exact.FloatFloor(p.Y), exact.FloatFloor(p.Z)},
		Max: [3]float64{exact.FloatCeil(p.X), exact.FloatCeil(p.Y), exact.FloatCeil(p.Z)},
	}
}

// rayBox bounds the forward ray within the mesh bounds. Probe
// directions never have negative components, so the ray stays between
// its origin and the far corner of the bounds on every axis it moves
// along.
func rayBox(p exact.Vec, d exact.Vec, bounds spatial.Box) spatial.Box {
	b := pointBox(p)
	if d.X.Sign() > 0 && bounds.Max[0] > b.Max[0] {
		b.Max[0] = bounds.Max[0]
	}
	if d.Y.Sign() > 0 && bounds.Max[1] > b.Max[1] {
		b.Max[1] = bounds.Max[1]
	}
	if d.Z.Sign() > 0 && bounds.Max[2] > b.Max[2] {
		b.Max[2] = bounds.Max[2]
	}
	return b
}
