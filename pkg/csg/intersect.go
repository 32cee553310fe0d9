package csg

import (
	"fmt"
	"math/big"
	"runtime"
	"sort"
	"sync"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// faceRef addresses one face of one input mesh.
type faceRef struct {
	mesh int
	face int
}

// segment is one exact constraint segment for a face: a piece of the
// intersection curve between two input surfaces.
type segment struct {
	a, b exact.Vec
}

// key returns the direction-independent canonical key, used to dedupe
// the same segment discovered through different face pairs.
func (s segment) key() string {
	ka, kb := s.a.Key(), s.b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "&" + kb
}

type facePair struct {
	a, b faceRef
}

// pairSegments is the narrow-phase product of one candidate pair.
type pairSegments struct {
	onA, onB []segment
}

// collectSegments runs the broad and narrow phases over every mesh
// pair and returns the constraint set per face. Candidates are tested
// in parallel; the merge walks pairs in enumeration order and each
// per-face list is sorted and deduped on exact keys, so scheduling
// never shows in the result.
func collectSegments(ms []*mesh.Mesh) (map[faceRef][]segment, int, error) {
	var pairs []facePair
	for i := range ms {
		for j := i + 1; j < len(ms); j++ {
			if !ms[i].Bounds().Overlaps(ms[j].Bounds()) {
				continue
			}
			for fa := 0; fa < ms[i].NumFaces(); fa++ {
				cands, err := ms[j].Index().Overlapping(ms[i].FaceBox(fa))
				if err != nil {
					return nil, 0, fmt.Errorf("broad phase, mesh %q face %d: %w", ms[i].Name(), fa, err)
				}
				for _, fb := range cands {
					pairs = append(pairs, facePair{faceRef{i, fa}, faceRef{j, fb}})
				}
			}
		}
	}

	results := make([]pairSegments, len(pairs))
	parallelFor(len(pairs), func(k int) {
		p := pairs[k]
		results[k] = intersectFaces(ms[p.a.mesh], p.a.face, ms[p.b.mesh], p.b.face)
	})

	cons := make(map[faceRef][]segment)
	for k, p := range pairs {
		if len(results[k].onA) > 0 {
			cons[p.a] = append(cons[p.a], results[k].onA...)
		}
		if len(results[k].onB) > 0 {
			cons[p.b] = append(cons[p.b], results[k].onB...)
		}
	}
	for ref, segs := range cons {
		cons[ref] = dedupeSegments(segs)
	}
	return cons, len(pairs), nil
}

func dedupeSegments(segs []segment) []segment {
	keys := make([]string, len(segs))
	order := make([]int, len(segs))
	for i, s := range segs {
		keys[i] = s.key()
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return keys[order[i]] < keys[order[j]] })
	out := make([]segment, 0, len(segs))
	last := ""
	for _, i := range order {
		if keys[i] == last {
			continue
		}
		last = keys[i]
		out = append(out, segs[i])
	}
	return out
}

// intersectFaces computes the exact intersection of two faces from
// different meshes. Crossing faces yield the overlap of their inside
// intervals along the common line; coplanar faces constrain each other
// with the part of the other's boundary they contain. Point touches
// yield nothing.
func intersectFaces(ma *mesh.Mesh, fa int, mb *mesh.Mesh, fb int) pairSegments {
	pa, pb := ma.Face(fa).Plane, mb.Face(fb).Plane

	if pa.Coincident(pb) {
		ringA, ringB := ma.FaceRing(fa), mb.FaceRing(fb)
		return pairSegments{
			onA: clipRingBoundary(ringB, ringA, pa),
			onB: clipRingBoundary(ringA, ringB, pb),
		}
	}
	origin, dir, ok := pa.IntersectLine(pb)
	if !ok {
		return pairSegments{} // parallel, disjoint planes
	}
	ia := lineCrossings(ma.FaceRing(fa), origin, dir, pa)
	if len(ia) == 0 {
		return pairSegments{}
	}
	ib := lineCrossings(mb.FaceRing(fb), origin, dir, pb)
	segs := overlapSegments(origin, dir, ia, ib)
	return pairSegments{onA: segs, onB: segs}
}

// lineCrossings returns the sorted parameters at which the line
// o + t·d crosses the ring boundary. A vertex exactly on the line is
// counted by exactly one of its edges (the one reaching the strictly
// positive side), so consecutive parameter pairs always bound the
// intervals of the line inside the ring.
func lineCrossings(ring []exact.Vec, o, d exact.Vec, p exact.Plane) []*big.Rat {
	side := make([]*big.Rat, len(ring))
	for i, v := range ring {
		// Sidedness of v against the line, within the face plane.
		side[i] = d.Cross(v.Sub(o)).Dot(p.N)
	}
	dd := d.Dot(d)
	var ts []*big.Rat
	for i := range ring {
		j := (i + 1) % len(ring)
		su, sv := side[i], side[j]
		if (su.Sign() > 0) == (sv.Sign() > 0) {
			continue
		}
		alpha := new(big.Rat).Quo(su, new(big.Rat).Sub(su, sv))
		c := ring[i].Lerp(ring[j], alpha)
		t := new(big.Rat).Quo(c.Sub(o).Dot(d), dd)
		ts = append(ts, t)
	}
	sort.Slice(ts, func(a, b int) bool { return ts[a].Cmp(ts[b]) < 0 })
	return ts
}

// overlapSegments intersects the inside intervals of the two rings
// along their common line and materializes every overlap of positive
// length.
func overlapSegments(o, d exact.Vec, ia, ib []*big.Rat) []segment {
	var out []segment
	for i := 0; i+1 < len(ia); i += 2 {
		for j := 0; j+1 < len(ib); j += 2 {
			lo := maxRat(ia[i], ib[j])
			hi := minRat(ia[i+1], ib[j+1])
			if lo.Cmp(hi) >= 0 {
				continue
			}
			out = append(out, segment{
				a: o.Add(d.Scale(lo)),
				b: o.Add(d.Scale(hi)),
			})
		}
	}
	return out
}

// clipRingBoundary returns the pieces of the src ring's boundary that
// lie inside or on the dst ring, as constraints for the dst face. Both
// rings lie in the dst plane.
func clipRingBoundary(src, dst []exact.Vec, dstPlane exact.Plane) []segment {
	u, v := dstPlane.ProjectionAxes()
	dst2 := projectRing(dst, u, v)
	half := exact.R(1, 2)
	var out []segment
	for i, a := range src {
		b := src[(i+1)%len(src)]
		a2 := exact.NewVec2(a.Comp(u), a.Comp(v))
		b2 := exact.NewVec2(b.Comp(u), b.Comp(v))
		params := cutParams(a2, b2, dst2)
		for k := 0; k+1 < len(params); k++ {
			t0, t1 := params[k], params[k+1]
			mid := new(big.Rat).Add(t0, t1)
			mid.Mul(mid, half)
			if exact.PointInRing(a2.Lerp(b2, mid), dst2) == exact.Outside {
				continue
			}
			out = append(out, segment{a: a.Lerp(b, t0), b: a.Lerp(b, t1)})
		}
	}
	return out
}

// cutParams returns the sorted distinct parameters bounding the
// sub-segments of ab that are uniformly inside or outside the ring:
// 0, 1, every proper crossing with a ring edge, and every ring vertex
// lying on ab. Ring vertices on ab are what cuts collinear overlaps.
func cutParams(a2, b2 exact.Vec2, ring2 []exact.Vec2) []*big.Rat {
	params := []*big.Rat{new(big.Rat), exact.FromInt(1)}
	ab := b2.Sub(a2)
	abab := ab.Dot(ab)
	for i, c := range ring2 {
		d := ring2[(i+1)%len(ring2)]
		if t, ok := exact.SegCrossParam(a2, b2, c, d); ok {
			params = append(params, t)
		}
		if exact.OnSegment2(c, a2, b2) {
			params = append(params, new(big.Rat).Quo(c.Sub(a2).Dot(ab), abab))
		}
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Cmp(params[j]) < 0 })
	j := 0
	for i := 1; i < len(params); i++ {
		if params[i].Cmp(params[j]) != 0 {
			j++
			params[j] = params[i]
		}
	}
	return params[:j+1]
}

func projectRing(ring []exact.Vec, u, v int) []exact.Vec2 {
	out := make([]exact.Vec2, len(ring))
	for i, p := range ring {
		out[i] = exact.NewVec2(p.Comp(u), p.Comp(v))
	}
	return out
}

func maxRat(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func minRat(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// parallelFor runs fn for every index in [0, n), striped across the
// available CPUs with one stripe kept on the calling goroutine. fn must
// only touch state owned by its index.
func parallelFor(n int, fn func(int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(workers - 1)
	for w := 1; w < workers; w++ {
		go func(start int) {
			defer wg.Done()
			for i := start; i < n; i += workers {
				fn(i)
			}
		}(w)
	}
	for i := 0; i < n; i += workers {
		fn(i)
	}
	wg.Wait()
}
