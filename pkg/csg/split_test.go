package csg

import (
	"math/big"
	"testing"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// bottomFace returns the cube's z=0 face index and its projection axes.
func bottomFace(t *testing.T, m *mesh.Mesh) (int, int, int) {
	t.Helper()
	for i := 0; i < m.NumFaces(); i++ {
		pl := m.Face(i).Plane
		if pl.N.Z.Sign() < 0 {
			u, v := pl.ProjectionAxes()
			return i, u, v
		}
	}
	t.Fatal("no downward face")
	return 0, 0, 0
}

// sumArea2 checks every fragment is counter-clockwise in the face
// projection and returns twice the total area.
func sumArea2(t *testing.T, frags []fragment, u, v int) *big.Rat {
	t.Helper()
	total := new(big.Rat)
	for _, f := range frags {
		a := exact.NewVec2(f.pts[0].Comp(u), f.pts[0].Comp(v))
		b := exact.NewVec2(f.pts[1].Comp(u), f.pts[1].Comp(v))
		c := exact.NewVec2(f.pts[2].Comp(u), f.pts[2].Comp(v))
		x := b.Sub(a).Cross(c.Sub(a))
		if x.Sign() <= 0 {
			t.Fatalf("fragment %v %v %v is not counter-clockwise", f.pts[0], f.pts[1], f.pts[2])
		}
		total.Add(total, x)
	}
	return total
}

func seg(ax, ay, az, bx, by, bz int64, den int64) segment {
	return segment{
		a: exact.NewVec(exact.R(ax, den), exact.R(ay, den), exact.R(az, den)),
		b: exact.NewVec(exact.R(bx, den), exact.R(by, den), exact.R(bz, den)),
	}
}

func TestSplitFaceWithoutConstraints(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	frags, err := splitFace(cube, 0, face, nil)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, want 2", len(frags))
	}
	for _, f := range frags {
		if f.src != 0 || f.face != face {
			t.Errorf("fragment tagged %d/%d, want 0/%d", f.src, f.face, face)
		}
		if !f.plane.Coincident(cube.Face(face).Plane) {
			t.Error("fragment plane differs from parent face plane")
		}
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
}

func TestSplitFaceCrossCut(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	cons := []segment{seg(1, 0, 0, 1, 2, 0, 2)} // x=1/2 chord across the face
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	if len(frags) != 4 {
		t.Fatalf("fragments = %d, want 4", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
	left, right := 0, 0
	half := exact.R(1, 2)
	for _, f := range frags {
		switch f.centroid().X.Cmp(half) {
		case -1:
			left++
		case 1:
			right++
		default:
			t.Errorf("fragment centroid on the cut line")
		}
	}
	if left != 2 || right != 2 {
		t.Errorf("split %d left / %d right, want 2/2", left, right)
	}
}

func TestSplitFaceCornerChord(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	cons := []segment{seg(1, 0, 0, 0, 1, 0, 2)} // clips the corner at the origin
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	// A triangle off the corner plus a pentagon.
	if len(frags) != 4 {
		t.Fatalf("fragments = %d, want 4", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
}

func TestSplitFaceCrossingConstraints(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	cons := []segment{
		seg(1, 0, 0, 1, 2, 0, 2), // x=1/2
		seg(0, 1, 0, 2, 1, 0, 2), // y=1/2, crossing the first mid-face
	}
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	if len(frags) != 8 {
		t.Fatalf("fragments = %d, want 8", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
}

func TestSplitFaceInteriorLoop(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	cons := []segment{
		seg(1, 1, 0, 3, 1, 0, 4),
		seg(3, 1, 0, 3, 3, 0, 4),
		seg(3, 3, 0, 1, 3, 0, 4),
		seg(1, 3, 0, 1, 1, 0, 4),
	}
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	// The ring with the loop bridged in yields eight triangles, the
	// loop interior two more.
	if len(frags) != 10 {
		t.Fatalf("fragments = %d, want 10", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
	inner := 0
	lo, hi := exact.R(1, 4), exact.R(3, 4)
	for _, f := range frags {
		c := f.centroid()
		if c.X.Cmp(lo) > 0 && c.X.Cmp(hi) < 0 && c.Y.Cmp(lo) > 0 && c.Y.Cmp(hi) < 0 {
			inner++
		}
	}
	if inner != 2 {
		t.Errorf("%d fragments inside the loop, want 2", inner)
	}
}

func TestSplitFaceEdgeCollinearConstraint(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	// Collinear with the x=0 boundary edge; subdivides it without
	// cutting the face.
	cons := []segment{seg(0, 1, 0, 0, 3, 0, 4)}
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	if len(frags) != 4 {
		t.Fatalf("fragments = %d, want 4", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
	// The subdivision keeps both cut points as triangle corners.
	for _, want := range []segment{seg(0, 1, 0, 0, 1, 0, 4), seg(0, 3, 0, 0, 3, 0, 4)} {
		found := false
		for _, f := range frags {
			for _, p := range f.pts {
				if p.Eq(want.a) {
					found = true
				}
			}
		}
		if !found {
			t.Errorf("cut point %s missing from triangulation", want.a)
		}
	}
}

func TestSplitFacePointTouch(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	face, u, v := bottomFace(t, cube)

	cons := []segment{seg(1, 1, 0, 1, 1, 0, 2)}
	frags, err := splitFace(cube, 0, face, cons)
	if err != nil {
		t.Fatalf("splitFace: %v", err)
	}
	// A degenerate touch splits nothing.
	if len(frags) != 2 {
		t.Fatalf("fragments = %d, want 2", len(frags))
	}
	if got := sumArea2(t, frags, u, v); got.Cmp(exact.FromInt(2)) != 0 {
		t.Errorf("twice total area = %s, want 2", got.RatString())
	}
}
