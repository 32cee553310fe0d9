package csg

import (
	"errors"
	"testing"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

func TestKeepDecisionTable(t *testing.T) {
	const (
		in  = statusIn
		out = statusOut
		sam = statusOnSame
		opp = statusOnOpp
	)
	cases := []struct {
		name string
		op   Operator
		src  int
		st   []status
		keep bool
		flip bool
	}{
		{"inter inside", OpIntersection, 0, []status{out, in}, true, false},
		{"inter outside", OpIntersection, 0, []status{out, out}, false, false},
		{"inter first on shared boundary", OpIntersection, 0, []status{out, sam}, true, false},
		{"inter second on shared boundary", OpIntersection, 1, []status{sam, out}, false, false},
		{"inter touched from outside", OpIntersection, 0, []status{out, opp}, false, false},
		{"inter third loses shared boundary", OpIntersection, 2, []status{in, sam, out}, false, false},
		{"inter second wins shared boundary", OpIntersection, 1, []status{in, out, sam}, true, false},

		{"union outside", OpUnion, 0, []status{out, out}, true, false},
		{"union covered", OpUnion, 0, []status{out, in}, false, false},
		{"union first on shared boundary", OpUnion, 0, []status{out, sam}, true, false},
		{"union second on shared boundary", OpUnion, 1, []status{sam, out}, false, false},
		{"union touched from outside", OpUnion, 0, []status{out, opp}, false, false},
		{"union clear of both others", OpUnion, 1, []status{out, out, out}, true, false},

		{"diff minuend clear", OpDifference, 0, []status{out, out}, true, false},
		{"diff minuend carved", OpDifference, 0, []status{out, in}, false, false},
		{"diff minuend shaved wall", OpDifference, 0, []status{out, sam}, false, false},
		{"diff minuend far-side touch", OpDifference, 0, []status{out, opp}, true, false},
		{"diff minuend carved by second", OpDifference, 0, []status{out, out, in}, false, false},

		{"diff wall kept flipped", OpDifference, 1, []status{in, out}, true, true},
		{"diff subtrahend outside", OpDifference, 1, []status{out, out}, false, false},
		{"diff subtrahend on hull", OpDifference, 1, []status{sam, out}, false, false},
		{"diff subtrahend far-side touch", OpDifference, 1, []status{opp, out}, false, false},
		{"diff wall buried in other cut", OpDifference, 1, []status{in, out, in}, false, false},
		{"diff first wall wins shared cut", OpDifference, 1, []status{in, out, sam}, true, true},
		{"diff second wall loses shared cut", OpDifference, 2, []status{in, sam, out}, false, false},
		{"diff second wall clear", OpDifference, 2, []status{in, out, out}, true, true},
		{"diff wall touched by other cut", OpDifference, 1, []status{in, out, opp}, false, false},
	}
	for _, tc := range cases {
		keep, flip := tc.op.keep(tc.src, tc.st)
		if keep != tc.keep || flip != tc.flip {
			t.Errorf("%s: keep(%d, %v) = %v, %v; want %v, %v",
				tc.name, tc.src, tc.st, keep, flip, tc.keep, tc.flip)
		}
	}
}

func TestRayParity(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	x := exact.VecFromInts(1, 0, 0)

	inside, generic, err := rayParity(exact.NewVec(exact.R(1, 2), exact.R(1, 2), exact.R(1, 2)), x, cube)
	if err != nil || !generic || !inside {
		t.Errorf("interior ray: inside=%v generic=%v err=%v", inside, generic, err)
	}

	inside, generic, err = rayParity(exact.NewVec(exact.FromInt(-1), exact.R(1, 2), exact.R(1, 2)), x, cube)
	if err != nil || !generic || inside {
		t.Errorf("through ray: inside=%v generic=%v err=%v", inside, generic, err)
	}

	// Ray running inside the y=0 face plane.
	_, generic, err = rayParity(exact.VecFromInts(-1, 0, 0), x, cube)
	if err != nil || generic {
		t.Errorf("edge-on ray counted as generic, err=%v", err)
	}

	// Ray through the corner vertex.
	_, generic, err = rayParity(exact.VecFromInts(-1, -1, -1), exact.VecFromInts(1, 1, 1), cube)
	if err != nil || generic {
		t.Errorf("corner ray counted as generic, err=%v", err)
	}
}

func TestClassifyPoint(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	bottom, _, _ := bottomFace(t, cube)
	bottomPlane := cube.Face(bottom).Plane
	mid := exact.NewVec(exact.R(1, 2), exact.R(1, 2), exact.FromInt(0))

	s, err := classifyPoint(exact.NewVec(exact.R(1, 2), exact.R(1, 2), exact.R(1, 2)), bottomPlane, cube)
	if err != nil || s != statusIn {
		t.Errorf("interior point: %v, %v", s, err)
	}

	s, err = classifyPoint(exact.VecFromInts(2, 2, 2), bottomPlane, cube)
	if err != nil || s != statusOut {
		t.Errorf("exterior point: %v, %v", s, err)
	}

	s, err = classifyPoint(mid, bottomPlane, cube)
	if err != nil || s != statusOnSame {
		t.Errorf("coplanar aligned: %v, %v", s, err)
	}

	s, err = classifyPoint(mid, bottomPlane.Flip(), cube)
	if err != nil || s != statusOnOpp {
		t.Errorf("coplanar opposed: %v, %v", s, err)
	}

	// A point on the bottom face probed for a fragment standing
	// perpendicular to it.
	var side exact.Plane
	for i := 0; i < cube.NumFaces(); i++ {
		if pl := cube.Face(i).Plane; pl.N.X.Sign() < 0 {
			side = pl
		}
	}
	if _, err = classifyPoint(mid, side, cube); !errors.Is(err, errGrazing) {
		t.Errorf("perpendicular contact: err = %v, want grazing", err)
	}

	// First probe directions graze the top edge; a later one decides.
	s, err = classifyPoint(exact.VecFromInts(-1, 1, 1), bottomPlane, cube)
	if err != nil || s != statusOut {
		t.Errorf("edge-aligned point: %v, %v", s, err)
	}

	empty, err := mesh.NewBuilder(gen).Build("empty")
	if err != nil {
		t.Fatalf("empty build: %v", err)
	}
	s, err = classifyPoint(mid, bottomPlane, empty)
	if err != nil || s != statusOut {
		t.Errorf("against empty mesh: %v, %v", s, err)
	}
}

func TestClassifyAgainstRetriesGrazes(t *testing.T) {
	gen := mesh.NewIDGen()
	cube := buildUnitBox(t, gen, "cube", 0, 0, 0, 1, 1, 1)
	var side exact.Plane
	for i := 0; i < cube.NumFaces(); i++ {
		if pl := cube.Face(i).Plane; pl.N.X.Sign() < 0 {
			side = pl
		}
	}
	onFace := exact.NewVec(exact.R(1, 2), exact.R(1, 2), exact.FromInt(0))
	interior := exact.NewVec(exact.R(1, 2), exact.R(1, 2), exact.R(1, 2))

	s, err := classifyAgainst([]exact.Vec{onFace, interior}, side, cube)
	if err != nil || s != statusIn {
		t.Errorf("fallback probe: %v, %v", s, err)
	}

	if _, err = classifyAgainst([]exact.Vec{onFace}, side, cube); !errors.Is(err, ErrAmbiguousContact) {
		t.Errorf("exhausted probes: err = %v, want ambiguous contact", err)
	}
}

func TestProbePoints(t *testing.T) {
	f := fragment{pts: [3]exact.Vec{
		exact.VecFromInts(0, 0, 0),
		exact.VecFromInts(3, 0, 0),
		exact.VecFromInts(0, 3, 0),
	}}
	probes := f.probePoints()
	if len(probes) != 4 {
		t.Fatalf("probes = %d, want 4", len(probes))
	}
	if !probes[0].Eq(exact.VecFromInts(1, 1, 0)) {
		t.Errorf("centroid = %s, want (1, 1, 0)", probes[0])
	}
	seen := make(map[string]bool)
	for _, p := range probes {
		if seen[p.Key()] {
			t.Fatalf("duplicate probe point %s", p)
		}
		seen[p.Key()] = true
	}
}
