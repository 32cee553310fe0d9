package csg

import (
	"errors"
	"math/big"
	"sort"

	"github.com/chazu/tenon/pkg/exact"
)

// arrangement overlays a face's boundary ring and its constraint
// segments in the face plane. Its bounded cells are the pieces the
// face splits into; every crossing becomes a node, so no two edges of
// the finished subdivision intersect except at shared nodes.
type arrangement struct {
	u, v  int // projection axes of the face plane
	nodes []arrNode
	byKey map[string]int
	segs  [][2]int // pre-split input segments as node pairs
}

// arrNode is one subdivision vertex, kept in both the face plane's 2D
// projection and the original 3D coordinates so no coordinate is ever
// reconstructed by unprojection.
type arrNode struct {
	p3 exact.Vec
	p2 exact.Vec2
}

func newArrangement(plane exact.Plane) *arrangement {
	u, v := plane.ProjectionAxes()
	return &arrangement{u: u, v: v, byKey: make(map[string]int)}
}

// node interns p, welding by exact projected coordinates.
func (a *arrangement) node(p exact.Vec) int {
	p2 := exact.NewVec2(p.Comp(a.u), p.Comp(a.v))
	k := p2.Key()
	if i, ok := a.byKey[k]; ok {
		return i
	}
	a.nodes = append(a.nodes, arrNode{p3: p, p2: p2})
	a.byKey[k] = len(a.nodes) - 1
	return len(a.nodes) - 1
}

// addSegment records a segment for the overlay. Zero-length segments
// are dropped here, which is also what discards point touches.
func (a *arrangement) addSegment(p, q exact.Vec) {
	i, j := a.node(p), a.node(q)
	if i == j {
		return
	}
	a.segs = append(a.segs, [2]int{i, j})
}

// overlay computes the planar subdivision: every proper crossing
// between two segments becomes a node, every segment is cut at all
// nodes lying on it, and the resulting unit edges are deduped. A
// constraint running along a boundary edge therefore merges with it
// instead of doubling it.
func (a *arrangement) overlay() [][2]int {
	for x := 0; x < len(a.segs); x++ {
		sa := a.nodes[a.segs[x][0]]
		sb := a.nodes[a.segs[x][1]]
		for y := x + 1; y < len(a.segs); y++ {
			ca := a.nodes[a.segs[y][0]]
			cb := a.nodes[a.segs[y][1]]
			t, ok := exact.SegCrossParam(sa.p2, sb.p2, ca.p2, cb.p2)
			if !ok {
				continue
			}
			// Crossings at an existing endpoint weld to it.
			a.node(sa.p3.Lerp(sb.p3, t))
		}
	}

	type cut struct {
		t   *big.Rat
		idx int
	}
	edges := make(map[[2]int]bool)
	for _, s := range a.segs {
		pa, pb := a.nodes[s[0]].p2, a.nodes[s[1]].p2
		ab := pb.Sub(pa)
		abab := ab.Dot(ab)
		var cuts []cut
		for i, n := range a.nodes {
			if !exact.OnSegment2(n.p2, pa, pb) {
				continue
			}
			cuts = append(cuts, cut{t: new(big.Rat).Quo(n.p2.Sub(pa).Dot(ab), abab), idx: i})
		}
		sort.Slice(cuts, func(i, j int) bool { return cuts[i].t.Cmp(cuts[j].t) < 0 })
		for k := 0; k+1 < len(cuts); k++ {
			e := [2]int{cuts[k].idx, cuts[k+1].idx}
			if e[0] == e[1] {
				continue
			}
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			edges[e] = true
		}
	}

	out := make([][2]int, 0, len(edges))
	for e := range edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// cell is one traced face of the subdivision: the node ring, twice its
// signed area, and the connected component it belongs to. Bounded
// cells trace counter-clockwise (positive area); each component's
// unbounded cell traces clockwise.
type cell struct {
	ring  []int
	area2 *big.Rat
	comp  int
}

// cells traces every cell of the subdivision. At each node the
// neighbors are ordered counter-clockwise by exact angle; following
// the next-clockwise neighbor from the reversed incoming direction
// walks every cell exactly once with its interior on the left.
func (a *arrangement) cells(edges [][2]int) ([]cell, []int) {
	adj := make(map[int][]int)
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	for n, nbrs := range adj {
		at := a.nodes[n].p2
		sort.Slice(nbrs, func(i, j int) bool {
			di := a.nodes[nbrs[i]].p2.Sub(at)
			dj := a.nodes[nbrs[j]].p2.Sub(at)
			return exact.CompareAngle(di, dj) < 0
		})
	}

	// Connected components, found in node order.
	comp := make([]int, len(a.nodes))
	for i := range comp {
		comp[i] = -1
	}
	next := 0
	for i := range a.nodes {
		if comp[i] >= 0 || len(adj[i]) == 0 {
			continue
		}
		queue := []int{i}
		comp[i] = next
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for _, w := range adj[n] {
				if comp[w] < 0 {
					comp[w] = next
					queue = append(queue, w)
				}
			}
		}
		next++
	}

	visited := make(map[[2]int]bool)
	var out []cell
	for _, e := range edges {
		for _, start := range [2][2]int{{e[0], e[1]}, {e[1], e[0]}} {
			if visited[start] {
				continue
			}
			var ring []int
			cur := start
			for {
				visited[cur] = true
				ring = append(ring, cur[1])
				u, v := cur[0], cur[1]
				nbrs := adj[v]
				ui := 0
				for i, w := range nbrs {
					if w == u {
						ui = i
						break
					}
				}
				cur = [2]int{v, nbrs[(ui-1+len(nbrs))%len(nbrs)]}
				if cur == start {
					break
				}
			}
			out = append(out, cell{ring: ring, area2: a.shoelace(ring), comp: comp[start[0]]})
		}
	}
	return out, comp
}

func (a *arrangement) shoelace(ring []int) *big.Rat {
	total := new(big.Rat)
	for i, n := range ring {
		m := ring[(i+1)%len(ring)]
		total.Add(total, a.nodes[n].p2.Cross(a.nodes[m].p2))
	}
	return total
}

// earVert pairs a subdivision vertex's projected and original
// coordinates for triangulation.
type earVert struct {
	p3 exact.Vec
	p2 exact.Vec2
}

// region is one face piece to triangulate: a counter-clockwise outer
// ring plus the clockwise contours of the holes punched through it.
type region struct {
	outer []earVert
	holes [][]earVert
}

// regions groups the traced cells into triangulation jobs. Components
// other than the one holding the face boundary are nested: each hangs
// inside exactly one bounded cell of another component, which gains
// that component's outer contour as a hole. Components with no area at
// all (lone tangential segments) bound nothing and are dropped.
func (a *arrangement) regions(cells []cell, comp []int) ([]region, error) {
	if len(a.nodes) == 0 {
		return nil, errors.New("empty subdivision")
	}
	root := comp[0] // node 0 is the first boundary ring vertex

	negByComp := make(map[int]int)
	for i, c := range cells {
		if c.area2.Sign() >= 0 {
			continue
		}
		if _, dup := negByComp[c.comp]; dup {
			return nil, errors.New("component with two outer contours")
		}
		negByComp[c.comp] = i
	}

	holeComps := make([]int, 0, len(negByComp))
	for c := range negByComp {
		if c != root {
			holeComps = append(holeComps, c)
		}
	}
	sort.Ints(holeComps)

	holes := make(map[int][][]earVert)
	for _, c := range holeComps {
		neg := cells[negByComp[c]]
		rep := a.nodes[neg.ring[0]].p2
		best := -1
		var bestArea *big.Rat
		for i, cl := range cells {
			if cl.comp == c || cl.area2.Sign() <= 0 {
				continue
			}
			if exact.PointInRing(rep, a.ring2(cl.ring)) != exact.Inside {
				continue
			}
			if best < 0 || cl.area2.Cmp(bestArea) < 0 {
				best, bestArea = i, cl.area2
			}
		}
		if best < 0 {
			return nil, errors.New("inner contour not contained in any cell")
		}
		holes[best] = append(holes[best], a.earRing(neg.ring))
	}

	var out []region
	for i, cl := range cells {
		if cl.area2.Sign() <= 0 {
			continue
		}
		out = append(out, region{outer: a.earRing(cl.ring), holes: holes[i]})
	}
	return out, nil
}

func (a *arrangement) ring2(ring []int) []exact.Vec2 {
	out := make([]exact.Vec2, len(ring))
	for i, n := range ring {
		out[i] = a.nodes[n].p2
	}
	return out
}

func (a *arrangement) earRing(ring []int) []earVert {
	out := make([]earVert, len(ring))
	for i, n := range ring {
		out[i] = earVert{p3: a.nodes[n].p3, p2: a.nodes[n].p2}
	}
	return out
}
