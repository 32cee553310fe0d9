package exact

import (
	"math"
	"math/big"
	"testing"
)

func TestFromFloatIsExact(t *testing.T) {
	r, err := FromFloat(0.5)
	if err != nil {
		t.Fatalf("FromFloat(0.5): %v", err)
	}
	if r.Cmp(R(1, 2)) != 0 {
		t.Errorf("FromFloat(0.5) = %s, want 1/2", r.RatString())
	}

	// 0.1 is not representable; the lift must equal the float's true
	// dyadic value, not 1/10.
	r, err = FromFloat(0.1)
	if err != nil {
		t.Fatalf("FromFloat(0.1): %v", err)
	}
	if r.Cmp(R(1, 10)) == 0 {
		t.Error("FromFloat(0.1) should be the dyadic value, not 1/10")
	}
	f, isExact := r.Float64()
	if !isExact || f != 0.1 {
		t.Errorf("round-trip of 0.1 lost exactness: %v %v", f, isExact)
	}

	if _, err := FromFloat(math.NaN()); err == nil {
		t.Error("FromFloat(NaN) should fail")
	}
	if _, err := FromFloat(math.Inf(1)); err == nil {
		t.Error("FromFloat(+Inf) should fail")
	}
}

func TestFloatFloorCeilBracket(t *testing.T) {
	third := R(1, 3)
	lo, hi := FloatFloor(third), FloatCeil(third)
	loR := new(big.Rat).SetFloat64(lo)
	hiR := new(big.Rat).SetFloat64(hi)
	if loR.Cmp(third) > 0 {
		t.Errorf("FloatFloor(1/3) = %v is above 1/3", lo)
	}
	if hiR.Cmp(third) < 0 {
		t.Errorf("FloatCeil(1/3) = %v is below 1/3", hi)
	}
	if lo >= hi {
		t.Errorf("bracket collapsed: floor %v >= ceil %v", lo, hi)
	}

	// Exactly representable values must not widen.
	half := R(1, 2)
	if FloatFloor(half) != 0.5 || FloatCeil(half) != 0.5 {
		t.Errorf("bracket of 1/2 widened: [%v, %v]", FloatFloor(half), FloatCeil(half))
	}
}

func TestVecOps(t *testing.T) {
	a := VecFromInts(1, 2, 3)
	b := VecFromInts(4, 5, 6)

	if got := a.Add(b); !got.Eq(VecFromInts(5, 7, 9)) {
		t.Errorf("Add = %s", got)
	}
	if got := b.Sub(a); !got.Eq(VecFromInts(3, 3, 3)) {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Dot(b); got.Cmp(FromInt(32)) != 0 {
		t.Errorf("Dot = %s, want 32", got.RatString())
	}
	if got := a.Cross(b); !got.Eq(VecFromInts(-3, 6, -3)) {
		t.Errorf("Cross = %s", got)
	}
	if got := a.Scale(R(1, 2)); !got.Eq(NewVec(R(1, 2), FromInt(1), R(3, 2))) {
		t.Errorf("Scale = %s", got)
	}

	mid := a.Lerp(b, R(1, 2))
	if !mid.Eq(NewVec(R(5, 2), R(7, 2), R(9, 2))) {
		t.Errorf("Lerp midpoint = %s", mid)
	}
}

func TestVecOpsDoNotMutateOperands(t *testing.T) {
	a := VecFromInts(1, 2, 3)
	b := VecFromInts(4, 5, 6)
	_ = a.Add(b)
	_ = a.Cross(b)
	_ = a.Dot(b)
	if !a.Eq(VecFromInts(1, 2, 3)) || !b.Eq(VecFromInts(4, 5, 6)) {
		t.Fatal("operands were mutated")
	}
}

func TestVecKeyCanonical(t *testing.T) {
	a := NewVec(R(2, 4), R(-1, 1), R(0, 5))
	b := NewVec(R(1, 2), FromInt(-1), FromInt(0))
	if a.Key() != b.Key() {
		t.Errorf("equal points with different keys: %q vs %q", a.Key(), b.Key())
	}
	c := NewVec(R(1, 2), FromInt(-1), R(1, 1000000))
	if a.Key() == c.Key() {
		t.Error("distinct points share a key")
	}
}

func TestOrient(t *testing.T) {
	a := VecFromInts(0, 0, 0)
	b := VecFromInts(1, 0, 0)
	c := VecFromInts(0, 1, 0)
	above := VecFromInts(0, 0, 1)
	below := VecFromInts(0, 0, -1)
	on := VecFromInts(5, -3, 0)

	if Orient(a, b, c, above) <= 0 {
		t.Error("point above should be positive")
	}
	if Orient(a, b, c, below) >= 0 {
		t.Error("point below should be negative")
	}
	if Orient(a, b, c, on) != 0 {
		t.Error("coplanar point should be zero")
	}
}

func TestPlaneFromRing(t *testing.T) {
	// Unit square in z=2, counter-clockwise seen from +z.
	ring := []Vec{
		VecFromInts(0, 0, 2),
		VecFromInts(1, 0, 2),
		VecFromInts(1, 1, 2),
		VecFromInts(0, 1, 2),
	}
	p, err := PlaneFromRing(ring)
	if err != nil {
		t.Fatalf("PlaneFromRing: %v", err)
	}
	if p.N.Z.Sign() <= 0 {
		t.Errorf("normal should point toward +z, got %s", p.N)
	}
	for _, v := range ring {
		if p.Side(v) != On {
			t.Errorf("ring vertex %s not on plane", v)
		}
	}
	if p.Side(VecFromInts(0, 0, 3)) != Above {
		t.Error("point at z=3 should be above")
	}
	if p.Side(VecFromInts(0, 0, 0)) != Below {
		t.Error("origin should be below")
	}

	// Degenerate rings.
	if _, err := PlaneFromRing(ring[:2]); err != ErrShortRing {
		t.Errorf("short ring: got %v, want ErrShortRing", err)
	}
	collinear := []Vec{VecFromInts(0, 0, 0), VecFromInts(1, 0, 0), VecFromInts(2, 0, 0)}
	if _, err := PlaneFromRing(collinear); err != ErrZeroArea {
		t.Errorf("collinear ring: got %v, want ErrZeroArea", err)
	}
	bent := []Vec{
		VecFromInts(0, 0, 0),
		VecFromInts(1, 0, 0),
		VecFromInts(1, 1, 0),
		VecFromInts(0, 1, 1),
	}
	if _, err := PlaneFromRing(bent); err != ErrNotPlanar {
		t.Errorf("bent ring: got %v, want ErrNotPlanar", err)
	}
}

func TestSegmentCross(t *testing.T) {
	p, _ := PlaneFromPoints(VecFromInts(0, 0, 0), VecFromInts(1, 0, 0), VecFromInts(0, 1, 0))

	kind, at := p.SegmentCross(VecFromInts(0, 0, -1), VecFromInts(0, 0, 3))
	if kind != SegPoint {
		t.Fatalf("crossing segment: kind = %v", kind)
	}
	if !at.Eq(VecFromInts(0, 0, 0)) {
		t.Errorf("crossing at %s, want origin", at)
	}

	kind, _ = p.SegmentCross(VecFromInts(0, 0, 1), VecFromInts(1, 1, 2))
	if kind != SegNone {
		t.Errorf("same-side segment: kind = %v", kind)
	}

	kind, _ = p.SegmentCross(VecFromInts(3, 1, 0), VecFromInts(-2, 5, 0))
	if kind != SegCoincident {
		t.Errorf("in-plane segment: kind = %v", kind)
	}

	// Endpoint exactly on the plane.
	kind, at = p.SegmentCross(VecFromInts(2, 2, 0), VecFromInts(0, 0, 5))
	if kind != SegPoint || !at.Eq(VecFromInts(2, 2, 0)) {
		t.Errorf("touching endpoint: kind = %v at %s", kind, at)
	}

	// Exact rational crossing: from z=-1 to z=2 crosses at t=1/3.
	kind, at = p.SegmentCross(VecFromInts(0, 0, -1), VecFromInts(3, 3, 2))
	if kind != SegPoint {
		t.Fatalf("rational crossing: kind = %v", kind)
	}
	if !at.Eq(VecFromInts(1, 1, 0)) {
		t.Errorf("rational crossing at %s, want (1,1,0)", at)
	}
}

func TestPlaneIntersectLine(t *testing.T) {
	// z=0 meets x=0 in the y axis.
	pz, _ := PlaneFromPoints(VecFromInts(0, 0, 0), VecFromInts(1, 0, 0), VecFromInts(0, 1, 0))
	px, _ := PlaneFromPoints(VecFromInts(0, 0, 0), VecFromInts(0, 1, 0), VecFromInts(0, 0, 1))

	point, dir, ok := pz.IntersectLine(px)
	if !ok {
		t.Fatal("planes should intersect")
	}
	if dir.X.Sign() != 0 || dir.Z.Sign() != 0 || dir.Y.Sign() == 0 {
		t.Errorf("direction %s should be along y", dir)
	}
	if pz.Side(point) != On || px.Side(point) != On {
		t.Errorf("line point %s not on both planes", point)
	}

	if _, _, ok := pz.IntersectLine(pz.Flip()); ok {
		t.Error("parallel planes should not intersect")
	}
}

func TestSameOriented(t *testing.T) {
	a, _ := PlaneFromPoints(VecFromInts(0, 0, 1), VecFromInts(1, 0, 1), VecFromInts(0, 1, 1))
	b, _ := PlaneFromPoints(VecFromInts(5, 5, 1), VecFromInts(7, 5, 1), VecFromInts(5, 8, 1))
	if !a.SameOriented(b) {
		t.Error("two CCW rings in z=1 should give the same oriented plane")
	}
	if a.SameOriented(b.Flip()) {
		t.Error("flipped plane should not compare same-oriented")
	}
	if !a.Coincident(b.Flip()) {
		t.Error("flipped plane is still coincident")
	}
	shifted, _ := PlaneFromPoints(VecFromInts(0, 0, 2), VecFromInts(1, 0, 2), VecFromInts(0, 1, 2))
	if a.SameOriented(shifted) {
		t.Error("parallel planes at different offsets are not the same")
	}
}

func TestOrient2(t *testing.T) {
	a, b := Vec2FromInts(0, 0), Vec2FromInts(2, 0)
	if Orient2(a, b, Vec2FromInts(1, 1)) <= 0 {
		t.Error("left turn should be positive")
	}
	if Orient2(a, b, Vec2FromInts(1, -1)) >= 0 {
		t.Error("right turn should be negative")
	}
	if Orient2(a, b, Vec2FromInts(7, 0)) != 0 {
		t.Error("collinear should be zero")
	}
}

func TestSegCrossParam(t *testing.T) {
	// X crossing at (1,1) which is t=1/2 along (0,0)→(2,2).
	t1, ok := SegCrossParam(Vec2FromInts(0, 0), Vec2FromInts(2, 2), Vec2FromInts(0, 2), Vec2FromInts(2, 0))
	if !ok {
		t.Fatal("expected a proper crossing")
	}
	if t1.Cmp(R(1, 2)) != 0 {
		t.Errorf("t = %s, want 1/2", t1.RatString())
	}

	// Sharing an endpoint is not a proper crossing for the first
	// segment (t would be 0).
	if _, ok := SegCrossParam(Vec2FromInts(0, 0), Vec2FromInts(2, 2), Vec2FromInts(0, 0), Vec2FromInts(2, 0)); ok {
		t.Error("shared endpoint should not report an interior crossing")
	}

	// Parallel.
	if _, ok := SegCrossParam(Vec2FromInts(0, 0), Vec2FromInts(2, 0), Vec2FromInts(0, 1), Vec2FromInts(2, 1)); ok {
		t.Error("parallel segments should not cross")
	}

	// The other segment's endpoint touching this segment's interior is
	// a crossing with s at the closed boundary.
	t2, ok := SegCrossParam(Vec2FromInts(0, 0), Vec2FromInts(2, 0), Vec2FromInts(1, 0), Vec2FromInts(1, 5))
	if !ok {
		t.Fatal("T-touch should report a crossing for the crossed segment")
	}
	if t2.Cmp(R(1, 2)) != 0 {
		t.Errorf("T-touch t = %s, want 1/2", t2.RatString())
	}
}

func TestPointInRing(t *testing.T) {
	square := []Vec2{
		Vec2FromInts(0, 0),
		Vec2FromInts(4, 0),
		Vec2FromInts(4, 4),
		Vec2FromInts(0, 4),
	}

	if got := PointInRing(Vec2FromInts(2, 2), square); got != Inside {
		t.Errorf("center: %v", got)
	}
	if got := PointInRing(Vec2FromInts(5, 2), square); got != Outside {
		t.Errorf("right of square: %v", got)
	}
	if got := PointInRing(Vec2FromInts(4, 2), square); got != OnBoundary {
		t.Errorf("on edge: %v", got)
	}
	if got := PointInRing(Vec2FromInts(0, 0), square); got != OnBoundary {
		t.Errorf("on vertex: %v", got)
	}
	// Ray through the far corner must not double-count.
	if got := PointInRing(Vec2FromInts(-1, 4), square); got != Outside {
		t.Errorf("level with top edge, outside: %v", got)
	}

	// Non-convex: a C shape open to the right.
	c := []Vec2{
		Vec2FromInts(0, 0),
		Vec2FromInts(4, 0),
		Vec2FromInts(4, 1),
		Vec2FromInts(1, 1),
		Vec2FromInts(1, 3),
		Vec2FromInts(4, 3),
		Vec2FromInts(4, 4),
		Vec2FromInts(0, 4),
	}
	if got := PointInRing(Vec2FromInts(3, 2), c); got != Outside {
		t.Errorf("inside the notch: %v", got)
	}
	if got := PointInRing(NewVec2(R(1, 2), FromInt(2)), c); got != Inside {
		t.Errorf("in the spine: %v", got)
	}
}

func TestCompareAngle(t *testing.T) {
	// Counter-clockwise from +U: east, north-east, north, west,
	// south, south-east.
	order := []Vec2{
		Vec2FromInts(1, 0),
		Vec2FromInts(1, 1),
		Vec2FromInts(0, 1),
		Vec2FromInts(-1, 0),
		Vec2FromInts(0, -1),
		Vec2FromInts(1, -1),
	}
	for i := range order {
		for j := range order {
			got := CompareAngle(order[i], order[j])
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			if got != want {
				t.Errorf("CompareAngle(%s, %s) = %d, want %d", order[i], order[j], got, want)
			}
		}
	}
	// Length must not matter.
	if CompareAngle(Vec2FromInts(2, 2), Vec2FromInts(5, 5)) != 0 {
		t.Error("same direction, different length should compare equal")
	}
}
