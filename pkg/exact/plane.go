package exact

import (
	"errors"
	"math/big"
)

// Plane is an exact oriented plane: the points p with N·p + D = 0.
// N is not normalized (normalization would leave the rationals, and
// predicates only need signs). N points to the outside of the face the
// plane was derived from.
type Plane struct {
	N Vec
	D *big.Rat
}

// Ring degeneracy reasons surfaced by PlaneFromRing.
var (
	ErrZeroArea  = errors.New("ring has zero area")
	ErrNotPlanar = errors.New("ring is not planar")
	ErrShortRing = errors.New("ring has fewer than three vertices")
)

// PlaneFromPoints builds the plane through a, b, c with the right-hand
// normal. ok is false when the points are collinear.
func PlaneFromPoints(a, b, c Vec) (Plane, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.IsZero() {
		return Plane{}, false
	}
	return Plane{N: n, D: new(big.Rat).Neg(n.Dot(a))}, true
}

// PlaneFromRing derives the supporting plane of a polygon ring using
// the exact Newell sum, then verifies that every ring vertex lies on
// it. The Newell normal is twice the area vector, so a zero normal
// means zero area. Winding determines orientation: a counter-clockwise
// ring seen from outside yields the outward normal.
func PlaneFromRing(ring []Vec) (Plane, error) {
	if len(ring) < 3 {
		return Plane{}, ErrShortRing
	}
	n := VecFromInts(0, 0, 0)
	for i, v := range ring {
		w := ring[(i+1)%len(ring)]
		n = n.Add(v.Cross(w))
	}
	if n.IsZero() {
		return Plane{}, ErrZeroArea
	}
	p := Plane{N: n, D: new(big.Rat).Neg(n.Dot(ring[0]))}
	for _, v := range ring[1:] {
		if p.Side(v) != On {
			return Plane{}, ErrNotPlanar
		}
	}
	return p, nil
}

// Eval returns N·v + D, the exact signed (unnormalized) distance.
func (p Plane) Eval(v Vec) *big.Rat {
	e := p.N.Dot(v)
	e.Add(e, p.D)
	return e
}

// Side classifies v against the plane.
func (p Plane) Side(v Vec) Side {
	return Side(p.Eval(v).Sign())
}

// Flip returns the plane with reversed orientation.
func (p Plane) Flip() Plane {
	return Plane{N: p.N.Neg(), D: new(big.Rat).Neg(p.D)}
}

// Parallel reports whether the two planes have parallel normals
// (including anti-parallel).
func (p Plane) Parallel(q Plane) bool {
	return p.N.Cross(q.N).IsZero()
}

// SameOriented reports whether q is the same plane with the same
// orientation: normals are positive multiples and the offsets agree
// under that multiple.
func (p Plane) SameOriented(q Plane) bool {
	if !p.Parallel(q) {
		return false
	}
	if p.N.Dot(q.N).Sign() <= 0 {
		return false
	}
	// Cross-multiply D against a matching nonzero normal component so
	// no division is needed.
	for _, pair := range [3][2]*big.Rat{{p.N.X, q.N.X}, {p.N.Y, q.N.Y}, {p.N.Z, q.N.Z}} {
		if pair[0].Sign() != 0 || pair[1].Sign() != 0 {
			lhs := new(big.Rat).Mul(p.D, pair[1])
			rhs := new(big.Rat).Mul(q.D, pair[0])
			return lhs.Cmp(rhs) == 0
		}
	}
	return false
}

// Coincident reports whether p and q describe the same point set,
// regardless of orientation.
func (p Plane) Coincident(q Plane) bool {
	return p.SameOriented(q) || p.SameOriented(q.Flip())
}

// SegCross is the result kind of a segment/plane intersection.
type SegCross int

const (
	SegNone       SegCross = iota // both endpoints strictly on one side
	SegPoint                      // a single exact crossing point
	SegCoincident                 // the segment lies in the plane
)

// SegmentCross intersects the segment ab with the plane. For SegPoint
// the returned Vec is the exact intersection; for the other kinds it is
// the zero Vec.
func (p Plane) SegmentCross(a, b Vec) (SegCross, Vec) {
	ea, eb := p.Eval(a), p.Eval(b)
	sa, sb := ea.Sign(), eb.Sign()
	switch {
	case sa == 0 && sb == 0:
		return SegCoincident, Vec{}
	case sa == 0:
		return SegPoint, a
	case sb == 0:
		return SegPoint, b
	case sa == sb:
		return SegNone, Vec{}
	}
	// Opposite strict sides: a + t(b-a) with t = ea / (ea - eb).
	t := new(big.Rat).Quo(ea, new(big.Rat).Sub(ea, eb))
	return SegPoint, a.Lerp(b, t)
}

// IntersectLine returns the exact line shared by two non-parallel
// planes as a point and direction. ok is false for parallel planes.
func (p Plane) IntersectLine(q Plane) (point, dir Vec, ok bool) {
	dir = p.N.Cross(q.N)
	if dir.IsZero() {
		return Vec{}, Vec{}, false
	}
	// Solve for the point closest in structure: fix the coordinate of
	// the dominant direction component to zero and solve the remaining
	// 2x2 system exactly.
	ax := dominantAxis(dir)
	var a1, b1, c1, a2, b2, c2 *big.Rat
	switch ax {
	case 0: // x free, solve for y, z
		a1, b1, c1 = p.N.Y, p.N.Z, new(big.Rat).Neg(p.D)
		a2, b2, c2 = q.N.Y, q.N.Z, new(big.Rat).Neg(q.D)
	case 1:
		a1, b1, c1 = p.N.X, p.N.Z, new(big.Rat).Neg(p.D)
		a2, b2, c2 = q.N.X, q.N.Z, new(big.Rat).Neg(q.D)
	default:
		a1, b1, c1 = p.N.X, p.N.Y, new(big.Rat).Neg(p.D)
		a2, b2, c2 = q.N.X, q.N.Y, new(big.Rat).Neg(q.D)
	}
	det := new(big.Rat).Sub(new(big.Rat).Mul(a1, b2), new(big.Rat).Mul(a2, b1))
	u := new(big.Rat).Sub(new(big.Rat).Mul(c1, b2), new(big.Rat).Mul(c2, b1))
	u.Quo(u, det)
	v := new(big.Rat).Sub(new(big.Rat).Mul(a1, c2), new(big.Rat).Mul(a2, c1))
	v.Quo(v, det)
	zero := FromInt(0)
	switch ax {
	case 0:
		point = NewVec(zero, u, v)
	case 1:
		point = NewVec(u, zero, v)
	default:
		point = NewVec(u, v, zero)
	}
	return point, dir, true
}

// ProjectionAxes returns the two coordinate axes (0=x, 1=y, 2=z) that
// flatten points of this plane to 2D with orientation preserved: a ring
// that is counter-clockwise seen from the normal side stays
// counter-clockwise in (u, v). The dominant normal component is dropped,
// so the projection never collapses the polygon.
func (p Plane) ProjectionAxes() (u, v int) {
	ax := dominantAxis(p.N)
	u, v = (ax+1)%3, (ax+2)%3
	if p.N.Comp(ax).Sign() < 0 {
		u, v = v, u
	}
	return u, v
}

// dominantAxis returns the index (0=x, 1=y, 2=z) of the component of v
// with the largest absolute value. Exact comparison, ties broken toward
// the lower axis.
func dominantAxis(v Vec) int {
	ax := new(big.Rat).Abs(v.X)
	ay := new(big.Rat).Abs(v.Y)
	az := new(big.Rat).Abs(v.Z)
	best, idx := ax, 0
	if ay.Cmp(best) > 0 {
		best, idx = ay, 1
	}
	if az.Cmp(best) > 0 {
		idx = 2
	}
	return idx
}
