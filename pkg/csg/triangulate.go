package csg

import (
	"errors"
	"math/big"
	"sort"

	"github.com/chazu/tenon/pkg/exact"
)

// bridgeHoles merges a region's holes into its outer ring with keyhole
// cuts: each hole is joined to the ring through a bridge segment that
// crosses nothing, walked in on one side and back out on the other.
// Holes are taken rightmost-first so a visible bridge target always
// exists.
func bridgeHoles(r region) ([]earVert, error) {
	ring := append([]earVert(nil), r.outer...)
	if len(r.holes) == 0 {
		return ring, nil
	}
	holes := append([][]earVert(nil), r.holes...)
	sort.SliceStable(holes, func(i, j int) bool {
		return maxU(holes[i]).Cmp(maxU(holes[j])) > 0
	})
	for hi, hole := range holes {
		h := rightmostIndex(hole)
		w := -1
		for cand := range ring {
			if bridgeBlocked(hole[h].p2, ring[cand].p2, ring, holes[hi:]) {
				continue
			}
			w = cand
			break
		}
		if w < 0 {
			return nil, errors.New("no visible bridge for inner contour")
		}
		merged := make([]earVert, 0, len(ring)+len(hole)+2)
		merged = append(merged, ring[:w+1]...)
		for k := 0; k <= len(hole); k++ {
			merged = append(merged, hole[(h+k)%len(hole)])
		}
		merged = append(merged, ring[w:]...)
		ring = merged
	}
	return ring, nil
}

// bridgeBlocked reports whether the candidate bridge ab is unusable:
// it properly crosses some edge, passes through some vertex, or its
// midpoint is not strictly inside the remaining region.
func bridgeBlocked(a, b exact.Vec2, ring []earVert, holes [][]earVert) bool {
	if a.Eq(b) {
		return true
	}
	contours := make([][]earVert, 0, len(holes)+1)
	contours = append(contours, ring)
	contours = append(contours, holes...)
	for _, c := range contours {
		for i, p := range c {
			q := c[(i+1)%len(c)]
			if _, ok := exact.SegCrossParam(a, b, p.p2, q.p2); ok {
				return true
			}
			if !p.p2.Eq(a) && !p.p2.Eq(b) && exact.OnSegment2(p.p2, a, b) {
				return true
			}
		}
	}
	mid := a.Lerp(b, exact.R(1, 2))
	if exact.PointInRing(mid, vertRing2(ring)) != exact.Inside {
		return true
	}
	for _, hole := range holes {
		if exact.PointInRing(mid, vertRing2(hole)) != exact.Outside {
			return true
		}
	}
	return false
}

// earClip triangulates a counter-clockwise ring. The ring may carry
// the duplicated vertices and zero-width channels left by keyhole
// bridging, and corners may be exactly collinear; collinear corners
// are kept until clipping elsewhere makes them convex, so every ring
// vertex survives as a triangle corner and edges shared with
// neighboring faces keep their subdivision.
func earClip(ring []earVert) ([][3]earVert, error) {
	work := append([]earVert(nil), ring...)
	var tris [][3]earVert
	for len(work) > 3 {
		clipped := false
		for i := range work {
			p := work[(i-1+len(work))%len(work)]
			c := work[i]
			n := work[(i+1)%len(work)]
			if exact.Orient2(p.p2, c.p2, n.p2) <= 0 {
				continue
			}
			if earBlocked(work, i) {
				continue
			}
			tris = append(tris, [3]earVert{p, c, n})
			work = append(work[:i], work[i+1:]...)
			clipped = true
			break
		}
		if clipped {
			continue
		}
		// Only degenerate slack can remain: a corner whose wings have
		// collapsed onto each other. Dropping it sheds no area.
		if i, ok := collapsedCorner(work); ok {
			work = append(work[:i], work[i+1:]...)
			continue
		}
		return nil, errors.New("no ear in remaining ring")
	}
	if len(work) == 3 && exact.Orient2(work[0].p2, work[1].p2, work[2].p2) > 0 {
		tris = append(tris, [3]earVert{work[0], work[1], work[2]})
	}
	return tris, nil
}

// earBlocked reports whether some other ring vertex lies inside or on
// the candidate ear at i. Vertices sharing coordinates with an ear
// corner do not block; those are the keyhole duplicates.
func earBlocked(work []earVert, i int) bool {
	pi := (i - 1 + len(work)) % len(work)
	ni := (i + 1) % len(work)
	p, c, n := work[pi].p2, work[i].p2, work[ni].p2
	for j, w := range work {
		if j == pi || j == i || j == ni {
			continue
		}
		q := w.p2
		if q.Eq(p) || q.Eq(c) || q.Eq(n) {
			continue
		}
		if exact.Orient2(p, c, q) >= 0 && exact.Orient2(c, n, q) >= 0 && exact.Orient2(n, p, q) >= 0 {
			return true
		}
	}
	return false
}

// collapsedCorner finds a corner whose neighbor vertices coincide, the
// zero-width tip of a fully clipped keyhole channel.
func collapsedCorner(work []earVert) (int, bool) {
	for i := range work {
		p := work[(i-1+len(work))%len(work)]
		n := work[(i+1)%len(work)]
		if p.p2.Eq(n.p2) {
			return i, true
		}
	}
	return 0, false
}

func vertRing2(ring []earVert) []exact.Vec2 {
	out := make([]exact.Vec2, len(ring))
	for i, v := range ring {
		out[i] = v.p2
	}
	return out
}

func maxU(ring []earVert) *big.Rat {
	best := ring[0].p2.U
	for _, v := range ring[1:] {
		if v.p2.U.Cmp(best) > 0 {
			best = v.p2.U
		}
	}
	return best
}

// rightmostIndex picks the vertex with the largest U, breaking ties by
// largest V, so hole processing is order-independent.
func rightmostIndex(ring []earVert) int {
	best := 0
	for i := 1; i < len(ring); i++ {
		du := ring[i].p2.U.Cmp(ring[best].p2.U)
		if du > 0 || (du == 0 && ring[i].p2.V.Cmp(ring[best].p2.V) > 0) {
			best = i
		}
	}
	return best
}
