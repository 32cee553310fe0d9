package exact

import (
	"fmt"
	"math/big"
)

// Vec2 is an exact point or direction in some face's 2D projection
// plane. The zero Vec2 is not usable; construct with NewVec2.
type Vec2 struct {
	U, V *big.Rat
}

// NewVec2 builds a Vec2 from two rationals, adopting them.
func NewVec2(u, v *big.Rat) Vec2 {
	return Vec2{U: u, V: v}
}

// Vec2FromInts builds a Vec2 with integer coordinates.
func Vec2FromInts(u, v int64) Vec2 {
	return Vec2{U: FromInt(u), V: FromInt(v)}
}

// Add returns a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{U: new(big.Rat).Add(a.U, b.U), V: new(big.Rat).Add(a.V, b.V)}
}

// Sub returns a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{U: new(big.Rat).Sub(a.U, b.U), V: new(big.Rat).Sub(a.V, b.V)}
}

// Scale returns a scaled by s.
func (a Vec2) Scale(s *big.Rat) Vec2 {
	return Vec2{U: new(big.Rat).Mul(a.U, s), V: new(big.Rat).Mul(a.V, s)}
}

// Lerp returns a + t*(b - a).
func (a Vec2) Lerp(b Vec2, t *big.Rat) Vec2 {
	return a.Add(b.Sub(a).Scale(t))
}

// Cross returns the exact 2D cross product a.U*b.V - a.V*b.U.
func (a Vec2) Cross(b Vec2) *big.Rat {
	return new(big.Rat).Sub(new(big.Rat).Mul(a.U, b.V), new(big.Rat).Mul(a.V, b.U))
}

// Dot returns the exact dot product.
func (a Vec2) Dot(b Vec2) *big.Rat {
	d := new(big.Rat).Mul(a.U, b.U)
	d.Add(d, new(big.Rat).Mul(a.V, b.V))
	return d
}

// Eq reports exact coordinate equality.
func (a Vec2) Eq(b Vec2) bool {
	return a.U.Cmp(b.U) == 0 && a.V.Cmp(b.V) == 0
}

// IsZero reports whether both coordinates are exactly zero.
func (a Vec2) IsZero() bool {
	return a.U.Sign() == 0 && a.V.Sign() == 0
}

// Key returns the canonical coordinate key for map-based dedup.
func (a Vec2) Key() string {
	return ratKey(a.U) + "|" + ratKey(a.V)
}

// String renders the point for error messages and debugging.
func (a Vec2) String() string {
	return fmt.Sprintf("(%s, %s)", a.U.RatString(), a.V.RatString())
}

// Orient2 returns the sign of the cross product (b-a)×(c-a): positive
// when a,b,c turn counter-clockwise, zero when collinear.
func Orient2(a, b, c Vec2) int {
	return b.Sub(a).Cross(c.Sub(a)).Sign()
}

// OnSegment2 reports whether p lies on the closed segment ab,
// including the endpoints.
func OnSegment2(p, a, b Vec2) bool {
	if Orient2(a, b, p) != 0 {
		return false
	}
	// Collinear: p is on ab iff (p-a)·(p-b) ≤ 0.
	return p.Sub(a).Dot(p.Sub(b)).Sign() <= 0
}

// InteriorToSegment2 reports whether p lies strictly between a and b.
func InteriorToSegment2(p, a, b Vec2) bool {
	if Orient2(a, b, p) != 0 {
		return false
	}
	return p.Sub(a).Dot(p.Sub(b)).Sign() < 0
}

// SegCrossParam returns the parameter t of the proper crossing of
// segment ab with segment cd: the crossing point is a + t(b-a), with
// t strictly in (0,1) and the crossing on the closed span of cd.
// Collinear and parallel pairs report no crossing; collinear overlap
// is handled by the endpoint-on-segment rules of the arrangement.
func SegCrossParam(a, b, c, d Vec2) (*big.Rat, bool) {
	ab := b.Sub(a)
	cd := d.Sub(c)
	den := ab.Cross(cd)
	if den.Sign() == 0 {
		return nil, false
	}
	ac := c.Sub(a)
	t := new(big.Rat).Quo(ac.Cross(cd), den)
	s := new(big.Rat).Quo(ac.Cross(ab), den)
	zero := new(big.Rat)
	one := FromInt(1)
	if t.Cmp(zero) <= 0 || t.Cmp(one) >= 0 {
		return nil, false
	}
	if s.Cmp(zero) < 0 || s.Cmp(one) > 0 {
		return nil, false
	}
	return t, true
}

// Containment classifies a point against a closed region boundary.
type Containment int

const (
	Outside    Containment = iota // strictly outside
	OnBoundary                    // exactly on an edge or vertex
	Inside                        // strictly inside
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case OnBoundary:
		return "boundary"
	case Inside:
		return "inside"
	default:
		return "containment(?)"
	}
}

// PointInRing classifies p against the simple polygon ring using the
// exact even-odd rule. The ring may wind either way. On-edge and
// on-vertex hits report OnBoundary before any parity counting, so the
// parity walk never reasons about degenerate crossings.
func PointInRing(p Vec2, ring []Vec2) Containment {
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		if OnSegment2(p, a, b) {
			return OnBoundary
		}
	}
	// Horizontal ray toward +U with the half-open vertical rule: an
	// edge counts when exactly one endpoint is strictly above p.
	inside := false
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		aAbove := a.V.Cmp(p.V) > 0
		bAbove := b.V.Cmp(p.V) > 0
		if aAbove == bAbove {
			continue
		}
		// The edge straddles the ray's height; the crossing lies right
		// of p iff p is left of the edge walking upward, right of it
		// walking downward.
		o := Orient2(a, b, p)
		if o == 0 {
			continue // collinear hits were caught by OnSegment2 above
		}
		if bAbove && o > 0 {
			inside = !inside
		}
		if aAbove && o < 0 {
			inside = !inside
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

// angularHalf splits directions into the upper half-plane (V > 0, plus
// the +U axis) and the lower (V < 0, plus the -U axis), the standard
// trick for exact counter-clockwise ordering without trigonometry.
func angularHalf(d Vec2) int {
	switch {
	case d.V.Sign() > 0:
		return 0
	case d.V.Sign() < 0:
		return 1
	case d.U.Sign() > 0:
		return 0
	default:
		return 1
	}
}

// CompareAngle orders nonzero direction vectors counter-clockwise
// starting from the +U axis. Returns -1, 0, +1 as a sorts before, with,
// or after b. Parallel same-direction vectors compare equal regardless
// of length.
func CompareAngle(a, b Vec2) int {
	ha, hb := angularHalf(a), angularHalf(b)
	if ha != hb {
		if ha < hb {
			return -1
		}
		return 1
	}
	s := a.Cross(b).Sign()
	switch {
	case s > 0:
		return -1
	case s < 0:
		return 1
	default:
		return 0
	}
}
