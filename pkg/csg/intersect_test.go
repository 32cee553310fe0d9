package csg

import (
	"testing"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// faceWithNormal finds the face whose outward normal sign pattern
// matches, for picking axis-aligned cube faces.
func faceWithNormal(t *testing.T, m *mesh.Mesh, x, y, z int) int {
	t.Helper()
	for i := 0; i < m.NumFaces(); i++ {
		n := m.Face(i).Plane.N
		if n.X.Sign() == x && n.Y.Sign() == y && n.Z.Sign() == z {
			return i
		}
	}
	t.Fatalf("no face with normal signs (%d, %d, %d)", x, y, z)
	return -1
}

func segKeySet(segs []segment) map[string]bool {
	out := make(map[string]bool, len(segs))
	for _, s := range segs {
		out[s.key()] = true
	}
	return out
}

func TestIntersectFacesCrossing(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 2, 2, 2)
	b := buildUnitBox(t, gen, "b", 1, 1, 1, 3, 3, 3)

	fa := faceWithNormal(t, a, 1, 0, 0)  // x=2
	fb := faceWithNormal(t, b, 0, -1, 0) // y=1

	ps := intersectFaces(a, fa, b, fb)
	if len(ps.onA) != 1 || len(ps.onB) != 1 {
		t.Fatalf("segments = %d on a, %d on b; want 1 and 1", len(ps.onA), len(ps.onB))
	}
	want := segment{a: exact.VecFromInts(2, 1, 1), b: exact.VecFromInts(2, 1, 2)}
	if ps.onA[0].key() != want.key() {
		t.Errorf("onA = %s-%s, want the x=2, y=1 crossing span", ps.onA[0].a, ps.onA[0].b)
	}
	if ps.onB[0].key() != want.key() {
		t.Errorf("onB = %s-%s, want the x=2, y=1 crossing span", ps.onB[0].a, ps.onB[0].b)
	}
}

func TestIntersectFacesParallelDisjoint(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 1, 1, 1)
	b := buildUnitBox(t, gen, "b", 0, 0, 2, 1, 1, 3)

	ps := intersectFaces(a, faceWithNormal(t, a, 0, 0, 1), b, faceWithNormal(t, b, 0, 0, -1))
	if len(ps.onA) != 0 || len(ps.onB) != 0 {
		t.Errorf("parallel faces produced %d/%d segments", len(ps.onA), len(ps.onB))
	}
}

func TestIntersectFacesCoincidentFull(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 1, 1, 1)
	b := buildUnitBox(t, gen, "b", 1, 0, 0, 2, 1, 1)

	ps := intersectFaces(a, faceWithNormal(t, a, 1, 0, 0), b, faceWithNormal(t, b, -1, 0, 0))
	// Identical squares constrain each other with all four boundary
	// edges.
	if len(ps.onA) != 4 || len(ps.onB) != 4 {
		t.Fatalf("segments = %d on a, %d on b; want 4 and 4", len(ps.onA), len(ps.onB))
	}
	keys := segKeySet(ps.onA)
	for _, s := range ps.onB {
		if !keys[s.key()] {
			t.Errorf("constraint %s-%s only on one side", s.a, s.b)
		}
	}
}

func TestIntersectFacesCoincidentPartial(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 1, 1, 1)
	b := buildBox(t, gen, "b",
		exact.R(1, 2), exact.FromInt(0), exact.FromInt(0),
		exact.R(3, 2), exact.FromInt(1), exact.FromInt(1))

	fa := faceWithNormal(t, a, 0, -1, 0)
	fb := faceWithNormal(t, b, 0, -1, 0)
	ps := intersectFaces(a, fa, b, fb)

	// The overlapped half of each boundary: two clipped edge pieces
	// plus the edge running through the other face's interior.
	if len(ps.onA) != 3 || len(ps.onB) != 3 {
		t.Fatalf("segments = %d on a, %d on b; want 3 and 3", len(ps.onA), len(ps.onB))
	}
	mid := segment{
		a: exact.NewVec(exact.R(1, 2), exact.FromInt(0), exact.FromInt(0)),
		b: exact.NewVec(exact.R(1, 2), exact.FromInt(0), exact.FromInt(1)),
	}
	if !segKeySet(ps.onA)[mid.key()] {
		t.Errorf("x=1/2 edge missing from the a-side constraints")
	}
	edge := segment{a: exact.VecFromInts(1, 0, 0), b: exact.VecFromInts(1, 0, 1)}
	if !segKeySet(ps.onB)[edge.key()] {
		t.Errorf("x=1 edge missing from the b-side constraints")
	}
}

func TestDedupeSegments(t *testing.T) {
	s1 := segment{a: exact.VecFromInts(0, 0, 0), b: exact.VecFromInts(1, 0, 0)}
	s2 := segment{a: exact.VecFromInts(0, 1, 0), b: exact.VecFromInts(1, 1, 0)}
	rev := segment{a: s1.b, b: s1.a}

	got := dedupeSegments([]segment{s1, s2, s1, rev})
	if len(got) != 2 {
		t.Fatalf("deduped to %d segments, want 2", len(got))
	}
	if got[0].key() != s1.key() || got[1].key() != s2.key() {
		t.Errorf("dedupe reordered: %s-%s, %s-%s", got[0].a, got[0].b, got[1].a, got[1].b)
	}
}

func TestCollectSegments(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 2, 2, 2)
	b := buildUnitBox(t, gen, "b", 1, 1, 1, 3, 3, 3)

	cons, pairs, err := collectSegments([]*mesh.Mesh{a, b})
	if err != nil {
		t.Fatalf("collectSegments: %v", err)
	}
	if pairs == 0 {
		t.Fatal("no candidate pairs for overlapping cubes")
	}
	if len(cons) == 0 {
		t.Fatal("no constraints for overlapping cubes")
	}
	sawA, sawB := false, false
	for ref, segs := range cons {
		if ref.mesh == 0 {
			sawA = true
		}
		if ref.mesh == 1 {
			sawB = true
		}
		if ref.face < 0 || ref.face >= []*mesh.Mesh{a, b}[ref.mesh].NumFaces() {
			t.Fatalf("constraint for out-of-range face %d", ref.face)
		}
		for _, s := range segs {
			if s.a.Eq(s.b) {
				t.Fatalf("zero-length constraint on face %d/%d", ref.mesh, ref.face)
			}
		}
	}
	if !sawA || !sawB {
		t.Errorf("constraints touch only one input: a=%v b=%v", sawA, sawB)
	}
}

func TestCollectSegmentsDisjoint(t *testing.T) {
	gen := mesh.NewIDGen()
	a := buildUnitBox(t, gen, "a", 0, 0, 0, 1, 1, 1)
	b := buildUnitBox(t, gen, "b", 5, 0, 0, 6, 1, 1)

	cons, pairs, err := collectSegments([]*mesh.Mesh{a, b})
	if err != nil {
		t.Fatalf("collectSegments: %v", err)
	}
	if pairs != 0 || len(cons) != 0 {
		t.Errorf("disjoint cubes produced %d pairs, %d constrained faces", pairs, len(cons))
	}
}
