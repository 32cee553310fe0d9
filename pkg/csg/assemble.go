package csg

import (
	"fmt"

	"github.com/chazu/tenon/pkg/mesh"
)

// assemble re-welds the surviving fragments into a fresh mesh and
// re-validates closure. The inputs were closed and the fragments are
// exact, so a failure here is normally a pipeline defect, surfaced as
// ErrNonManifoldResult with the builder's finding attached. The one
// exception is a pinched surface: two inputs that touch only along an
// edge or a vertex produce correctly kept fragments whose weld is not
// a 2-manifold, and no watertight result exists. That is a property of
// the inputs, so it surfaces as ErrAmbiguousContact.
func assemble(gen *mesh.IDGen, name string, kept []fragment) (*mesh.Mesh, error) {
	b := mesh.NewBuilder(gen)
	for _, f := range kept {
		b.AddFace(f.pts[0], f.pts[1], f.pts[2])
	}
	out, err := b.Build(name)
	if err != nil {
		if pinched(kept) {
			return nil, fmt.Errorf("%w: inputs meet along an edge or vertex only and the result would be pinched", ErrAmbiguousContact)
		}
		return nil, fmt.Errorf("%w: %v", ErrNonManifoldResult, err)
	}
	return out, nil
}

// weldUse tallies how the kept fragments traverse one undirected edge,
// keyed by the canonical coordinate keys of its endpoints.
type weldUse struct {
	count  int
	dirSum int
	faces  []int
}

func weldRibs(kept []fragment) map[[2]string]*weldUse {
	ribs := make(map[[2]string]*weldUse)
	for i, f := range kept {
		for e := 0; e < 3; e++ {
			u, v := f.pts[e].Key(), f.pts[(e+1)%3].Key()
			dir := 1
			if v < u {
				u, v, dir = v, u, -1
			}
			r := ribs[[2]string{u, v}]
			if r == nil {
				r = &weldUse{}
				ribs[[2]string{u, v}] = r
			}
			r.count++
			r.dirSum += dir
			r.faces = append(r.faces, i)
		}
	}
	return ribs
}

// pinched reports whether the kept fragments form a surface that is
// consistently wound and free of boundary edges but still not a
// 2-manifold: some edge carries two sheets, or the faces around some
// vertex split into separate fans. Only edge- or vertex-only contact
// between inputs produces that shape; a boundary edge or a winding
// conflict is a defect upstream and is not a pinch.
func pinched(kept []fragment) bool {
	ribs := weldRibs(kept)
	shared := false
	for _, r := range ribs {
		if r.count%2 != 0 || r.dirSum != 0 {
			return false
		}
		if r.count > 2 {
			shared = true
		}
	}
	if shared {
		return true
	}
	return splitFans(kept, ribs)
}

// splitFans reports whether the faces around some vertex form more
// than one fan. Every rib is used exactly twice when this runs, so two
// faces meet at a vertex exactly when they share a rib through it.
func splitFans(kept []fragment, ribs map[[2]string]*weldUse) bool {
	incident := make(map[string][]int)
	for i, f := range kept {
		for _, p := range f.pts {
			incident[p.Key()] = append(incident[p.Key()], i)
		}
	}
	atVertex := make(map[string][]*weldUse)
	for r, use := range ribs {
		atVertex[r[0]] = append(atVertex[r[0]], use)
		atVertex[r[1]] = append(atVertex[r[1]], use)
	}

	for key, faces := range incident {
		if len(faces) < 2 {
			continue
		}
		adj := make(map[int][]int)
		for _, use := range atVertex[key] {
			if len(use.faces) == 2 {
				adj[use.faces[0]] = append(adj[use.faces[0]], use.faces[1])
				adj[use.faces[1]] = append(adj[use.faces[1]], use.faces[0])
			}
		}
		reach := map[int]bool{faces[0]: true}
		queue := []int{faces[0]}
		for len(queue) > 0 {
			f := queue[0]
			queue = queue[1:]
			for _, n := range adj[f] {
				if !reach[n] {
					reach[n] = true
					queue = append(queue, n)
				}
			}
		}
		for _, f := range faces {
			if !reach[f] {
				return true
			}
		}
	}
	return false
}
