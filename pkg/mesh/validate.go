package mesh

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/chazu/tenon/pkg/exact"
)

// Severity indicates whether a validation finding blocks sealing or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks Build
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single blocking finding. Face is the
// offending face index, or -1 for mesh-level findings. Topological
// findings fold into ErrNotClosed, the rest into ErrDegenerateFace.
type ValidationError struct {
	Face        int
	Message     string
	Severity    Severity
	Topological bool
}

func (e ValidationError) Error() string {
	if e.Face < 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] face %d: %s", e.Severity, e.Face, e.Message)
}

// ValidationWarning describes a non-blocking advisory finding.
type ValidationWarning struct {
	Face    int
	Message string
}

// ValidationResult bundles errors (blocking) and warnings (advisory)
// from all validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether no blocking errors were found.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate runs all validation tiers over the faces added so far and
// never mutates the builder. Tier 1 checks ring structure, Tier 2
// exact geometry, Tier 3 the closed-manifold topology. Tier 3 only
// runs when the earlier tiers are clean, since its edge bookkeeping
// assumes well-formed rings.
func (b *Builder) Validate() ValidationResult {
	var res ValidationResult

	res.Errors = append(res.Errors, b.validateStructure()...)
	geomErrs, geomWarns := b.validateGeometry()
	res.Errors = append(res.Errors, geomErrs...)
	res.Warnings = append(res.Warnings, geomWarns...)

	if len(res.Errors) == 0 {
		res.Errors = append(res.Errors, b.validateTopology()...)
	}

	// Unused points are harmless but usually indicate caller bugs.
	used := make(map[VertexID]bool)
	for _, ring := range b.rings {
		for _, id := range ring {
			used[id] = true
		}
	}
	for _, v := range b.verts {
		if !used[v.ID] {
			res.Warnings = append(res.Warnings, ValidationWarning{
				Face:    -1,
				Message: fmt.Sprintf("vertex %d is not used by any face", v.ID),
			})
		}
	}

	return res
}

// validateStructure is Tier 1: rings resolve and have a sane shape.
func (b *Builder) validateStructure() []ValidationError {
	var errs []ValidationError
	for i, ring := range b.rings {
		if len(ring) < 3 {
			errs = append(errs, ValidationError{
				Face:     i,
				Message:  fmt.Sprintf("ring has %d vertices, need at least 3", len(ring)),
				Severity: SeverityError,
			})
			continue
		}
		seen := make(map[VertexID]bool, len(ring))
		for _, id := range ring {
			if _, ok := b.byID[id]; !ok {
				errs = append(errs, ValidationError{
					Face:     i,
					Message:  fmt.Sprintf("ring references unknown vertex %d", id),
					Severity: SeverityError,
				})
				break
			}
			if seen[id] {
				errs = append(errs, ValidationError{
					Face:     i,
					Message:  fmt.Sprintf("vertex %d appears twice in ring", id),
					Severity: SeverityError,
				})
				break
			}
			seen[id] = true
		}
	}
	return errs
}

// validateGeometry is Tier 2: every face is exactly planar with
// nonzero area. Redundant collinear ring vertices are legal but
// advisory. Faces already failed by Tier 1 are skipped.
func (b *Builder) validateGeometry() ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warns []ValidationWarning
	for i, ring := range b.rings {
		if !b.ringResolves(ring) || len(ring) < 3 {
			continue
		}
		pts := b.ringPoints(ring)
		if _, err := exact.PlaneFromRing(pts); err != nil {
			msg := "degenerate ring"
			switch {
			case errors.Is(err, exact.ErrZeroArea):
				msg = "ring has zero area"
			case errors.Is(err, exact.ErrNotPlanar):
				msg = "ring is not planar"
			}
			errs = append(errs, ValidationError{Face: i, Message: msg, Severity: SeverityError})
			continue
		}
		for j := range pts {
			a := pts[j]
			c := pts[(j+1)%len(pts)]
			e := pts[(j+2)%len(pts)]
			if c.Sub(a).Cross(e.Sub(c)).IsZero() {
				warns = append(warns, ValidationWarning{
					Face:    i,
					Message: fmt.Sprintf("ring vertex %d is collinear with its neighbors", (j+1)%len(pts)),
				})
			}
		}
	}
	return errs, warns
}

func (b *Builder) ringResolves(ring []VertexID) bool {
	for _, id := range ring {
		if _, ok := b.byID[id]; !ok {
			return false
		}
	}
	return true
}

// rib names an undirected edge by its vertex pair, low id first.
type rib struct {
	a, b VertexID
}

// mkRib builds the canonical rib for an edge walked from u to v.
// dir is +1 when the walk goes low-to-high, -1 otherwise.
func mkRib(u, v VertexID) (rib, int) {
	if u < v {
		return rib{a: u, b: v}, 1
	}
	return rib{a: v, b: u}, -1
}

type ribUse struct {
	count  int
	dirSum int
	faces  []int
}

// validateTopology is Tier 3: the closed 2-manifold invariants. Every
// rib must be used exactly twice in opposite directions, every vertex
// fan must be a single cycle, and the total signed volume must be
// positive (outward winding).
func (b *Builder) validateTopology() []ValidationError {
	var errs []ValidationError
	if len(b.rings) == 0 {
		return nil
	}

	ribs := make(map[rib]*ribUse)
	for fi, ring := range b.rings {
		for j, u := range ring {
			v := ring[(j+1)%len(ring)]
			r, dir := mkRib(u, v)
			use := ribs[r]
			if use == nil {
				use = &ribUse{}
				ribs[r] = use
			}
			use.count++
			use.dirSum += dir
			use.faces = append(use.faces, fi)
		}
	}

	for r, use := range ribs {
		switch {
		case use.count == 1:
			errs = append(errs, ValidationError{
				Face:        use.faces[0],
				Message:     fmt.Sprintf("edge (%d,%d) is a boundary edge, used once", r.a, r.b),
				Severity:    SeverityError,
				Topological: true,
			})
		case use.count > 2:
			errs = append(errs, ValidationError{
				Face:        use.faces[0],
				Message:     fmt.Sprintf("edge (%d,%d) is shared by %d faces", r.a, r.b, use.count),
				Severity:    SeverityError,
				Topological: true,
			})
		case use.dirSum != 0:
			errs = append(errs, ValidationError{
				Face:        use.faces[0],
				Message:     fmt.Sprintf("edge (%d,%d) is traversed twice in the same direction, winding is inconsistent", r.a, r.b),
				Severity:    SeverityError,
				Topological: true,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	errs = append(errs, b.validateFans(ribs)...)
	if len(errs) > 0 {
		return errs
	}

	// A closed surface with outward winding encloses positive volume.
	// This catches globally inverted (inside-out) input.
	total := new(big.Rat)
	for _, ring := range b.rings {
		pts := b.ringPoints(ring)
		for j := 1; j+1 < len(pts); j++ {
			total.Add(total, pts[0].Dot(pts[j].Cross(pts[j+1])))
		}
	}
	if total.Sign() <= 0 {
		errs = append(errs, ValidationError{
			Face:        -1,
			Message:     "total signed volume is not positive, faces wind inward",
			Severity:    SeverityError,
			Topological: true,
		})
	}

	return errs
}

// validateFans checks that the faces around each vertex form a single
// cycle. Two cones touching at their tips pass the edge checks but
// fail here.
func (b *Builder) validateFans(ribs map[rib]*ribUse) []ValidationError {
	var errs []ValidationError

	incident := make(map[VertexID][]int)
	for fi, ring := range b.rings {
		for _, id := range ring {
			incident[id] = append(incident[id], fi)
		}
	}

	for id, faces := range incident {
		if len(faces) < 2 {
			continue
		}
		// Faces are adjacent at id when they share a rib through id.
		adj := make(map[int][]int)
		for _, r := range ribsAt(id, faces, b.rings) {
			use := ribs[r]
			if use != nil && len(use.faces) == 2 {
				adj[use.faces[0]] = append(adj[use.faces[0]], use.faces[1])
				adj[use.faces[1]] = append(adj[use.faces[1]], use.faces[0])
			}
		}
		// BFS from the first incident face; a single umbrella reaches
		// every incident face.
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
				errs = append(errs, ValidationError{
					Face:        -1,
					Message:     fmt.Sprintf("faces around vertex %d split into multiple fans", id),
					Severity:    SeverityError,
					Topological: true,
				})
				break
			}
		}
	}

	return errs
}

// ribsAt collects the ribs through vertex id among the given faces.
func ribsAt(id VertexID, faces []int, rings [][]VertexID) []rib {
	var out []rib
	seen := make(map[rib]bool)
	for _, fi := range faces {
		ring := rings[fi]
		for j, u := range ring {
			v := ring[(j+1)%len(ring)]
			if u != id && v != id {
				continue
			}
			r, _ := mkRib(u, v)
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}
