// Package spatial provides the per-mesh broad-phase index: an R-tree
// over conservative axis-aligned boxes of faces. Boxes are padded
// outward by one ulp per side before insertion, so exact touching
// contact always registers as an overlap and the broad phase can never
// prune a true intersection. False positives are the narrow phase's
// problem.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// Box is an axis-aligned box in float coordinates. For boxes derived
// from exact geometry the corners must be rounded outward.
type Box struct {
	Min, Max [3]float64
}

// Overlaps reports whether the two closed boxes share any point.
func (b Box) Overlaps(o Box) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Union returns the smallest box containing both.
func (b Box) Union(o Box) Box {
	var u Box
	for i := 0; i < 3; i++ {
		u.Min[i] = math.Min(b.Min[i], o.Min[i])
		u.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return u
}

// pad returns the box grown by one ulp on every side. Guarantees
// strictly positive extents, which the R-tree requires, and turns
// exact touching into strict overlap.
func (b Box) pad() Box {
	var p Box
	for i := 0; i < 3; i++ {
		p.Min[i] = math.Nextafter(b.Min[i], math.Inf(-1))
		p.Max[i] = math.Nextafter(b.Max[i], math.Inf(1))
	}
	return p
}

func (b Box) rect() (rtreego.Rect, error) {
	p := b.pad()
	return rtreego.NewRect(
		rtreego.Point{p.Min[0], p.Min[1], p.Min[2]},
		[]float64{p.Max[0] - p.Min[0], p.Max[1] - p.Min[1], p.Max[2] - p.Min[2]},
	)
}

// entry is one indexed box carrying its position in the source slice.
type entry struct {
	idx  int
	rect rtreego.Rect
}

var _ rtreego.Spatial = (*entry)(nil)

func (e *entry) Bounds() rtreego.Rect {
	return e.rect
}

// Index is an immutable R-tree over a slice of boxes. Queries return
// positions into the original slice.
type Index struct {
	tree  *rtreego.Rtree
	boxes []Box
}

// NewIndex builds an index over the given boxes. The slice is retained.
func NewIndex(boxes []Box) (*Index, error) {
	tree := rtreego.NewTree(3, 25, 50)
	for i, b := range boxes {
		r, err := b.rect()
		if err != nil {
			return nil, fmt.Errorf("box %d: %w", i, err)
		}
		tree.Insert(&entry{idx: i, rect: r})
	}
	return &Index{tree: tree, boxes: boxes}, nil
}

// Len returns the number of indexed boxes.
func (ix *Index) Len() int {
	return len(ix.boxes)
}

// Box returns the i'th indexed box as given to NewIndex.
func (ix *Index) Box(i int) Box {
	return ix.boxes[i]
}

// Overlapping returns the indices of all boxes overlapping b, in
// ascending order. Tree traversal order leaks nowhere.
func (ix *Index) Overlapping(b Box) ([]int, error) {
	r, err := b.rect()
	if err != nil {
		return nil, err
	}
	hits := ix.tree.SearchIntersect(r)
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*entry).idx)
	}
	sort.Ints(out)
	return out, nil
}
