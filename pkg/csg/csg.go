// Package csg computes boolean combinations of closed polygonal
// meshes: intersection, union and difference.
//
// Evaluation is a single deterministic pass. A broad phase culls face
// pairs whose padded bounding boxes cannot meet, the narrow phase
// intersects the surviving pairs exactly, every face is split along
// its accumulated intersection segments and retriangulated, the
// fragments are classified against every other input solid, and the
// operator's decision table picks the survivors, which are re-welded
// into a fresh mesh. All geometry runs on exact rational arithmetic,
// so two fragments that meet along an intersection curve agree on its
// coordinates bit for bit and the result welds watertight.
//
// An evaluation either produces a closed mesh or fails as a whole.
// The empty mesh is a legitimate outcome, not a failure: intersecting
// disjoint solids succeeds with an empty result.
package csg

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/tenon/pkg/mesh"
)

var (
	// ErrBadRequest reports a request that cannot be evaluated at
	// all: no inputs, a nil input, or an unknown operator.
	ErrBadRequest = errors.New("invalid boolean request")

	// ErrAmbiguousContact reports a tangential contact the
	// evaluation cannot resolve: a probe point whose inside/outside
	// test fails along every direction, or inputs that touch only
	// along an edge or a vertex, pinching the result so that no
	// closed 2-manifold exists.
	ErrAmbiguousContact = errors.New("ambiguous tangential contact")

	// ErrNonManifoldResult reports a pipeline defect: the surviving
	// fragments did not close into a 2-manifold.
	ErrNonManifoldResult = errors.New("result mesh is not manifold")
)

// Operator selects which fragments of the input solids survive.
type Operator int

const (
	// OpIntersection keeps the volume common to all inputs.
	OpIntersection Operator = iota
	// OpUnion keeps the volume covered by any input.
	OpUnion
	// OpDifference keeps the first input minus all the others.
	OpDifference
)

func (op Operator) String() string {
	switch op {
	case OpIntersection:
		return "intersection"
	case OpUnion:
		return "union"
	case OpDifference:
		return "difference"
	default:
		return fmt.Sprintf("operator(%d)", int(op))
	}
}

// ParseOperator maps a user-facing operator name to its value. It
// accepts the common aliases used by CLI flags and scripts.
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intersection", "intersect":
		return OpIntersection, nil
	case "union":
		return OpUnion, nil
	case "difference", "subtract":
		return OpDifference, nil
	default:
		return 0, fmt.Errorf("%w: unknown operator %q", ErrBadRequest, s)
	}
}

// Request describes one boolean evaluation. Meshes is the ordered
// input list; for OpDifference the first mesh is the minuend and the
// rest are subtrahends. Gen mints vertex ids for the result and must
// be the generator the inputs were built with, so ids stay globally
// unique across input and derived meshes.
type Request struct {
	Op     Operator
	Meshes []*mesh.Mesh
	Gen    *mesh.IDGen
	Name   string
}

func (r Request) validate() error {
	switch r.Op {
	case OpIntersection, OpUnion, OpDifference:
	default:
		return fmt.Errorf("%w: unknown operator %d", ErrBadRequest, int(r.Op))
	}
	if len(r.Meshes) == 0 {
		return fmt.Errorf("%w: no input meshes", ErrBadRequest)
	}
	for i, m := range r.Meshes {
		if m == nil {
			return fmt.Errorf("%w: input %d is nil", ErrBadRequest, i)
		}
	}
	if r.Gen == nil {
		return fmt.Errorf("%w: nil id generator", ErrBadRequest)
	}
	return nil
}

// Report carries the evaluation trace: stage counters and timing.
// Callers use it for logging and diagnostics; it never influences the
// result.
type Report struct {
	ID         string
	Op         Operator
	Inputs     []string
	Candidates int // face pairs surviving the broad phase
	Segments   int // per-face constraint segments after dedupe
	Fragments  int // triangles produced by splitting
	Kept       int // fragments selected by the operator
	Empty      bool
	Duration   time.Duration
}

// Evaluate runs the full pipeline for one request. The returned mesh
// is always fresh: it shares no storage with the inputs. An empty
// result is success and is flagged on the report.
func Evaluate(req Request) (*mesh.Mesh, *Report, error) {
	start := time.Now()
	if err := req.validate(); err != nil {
		return nil, nil, err
	}

	name := req.Name
	if name == "" {
		name = req.Op.String()
	}
	rep := &Report{
		ID: uuid.NewString(),
		Op: req.Op,
	}
	for _, m := range req.Meshes {
		rep.Inputs = append(rep.Inputs, m.Name())
	}

	// Disjoint solids cannot intersect; skip the pipeline entirely.
	if req.Op == OpIntersection && disjointBounds(req.Meshes) {
		empty, err := mesh.NewBuilder(req.Gen).Build(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrNonManifoldResult, err)
		}
		rep.Empty = true
		rep.Duration = time.Since(start)
		return empty, rep, nil
	}

	cons, candidates, err := collectSegments(req.Meshes)
	if err != nil {
		return nil, nil, err
	}
	rep.Candidates = candidates
	for _, segs := range cons {
		rep.Segments += len(segs)
	}

	frags, err := splitAll(req.Meshes, cons)
	if err != nil {
		return nil, nil, err
	}
	rep.Fragments = len(frags)

	kept, err := selectFragments(req.Op, req.Meshes, frags)
	if err != nil {
		return nil, nil, err
	}
	rep.Kept = len(kept)

	out, err := assemble(req.Gen, name, kept)
	if err != nil {
		return nil, nil, err
	}
	rep.Empty = out.IsEmpty()
	rep.Duration = time.Since(start)
	return out, rep, nil
}

// disjointBounds reports whether some pair of inputs cannot touch at
// all. Boxes are padded outward when built, so touching solids still
// overlap here.
func disjointBounds(ms []*mesh.Mesh) bool {
	for i := range ms {
		for j := i + 1; j < len(ms); j++ {
			if ms[i].IsEmpty() || ms[j].IsEmpty() {
				return true
			}
			if !ms[i].Bounds().Overlaps(ms[j].Bounds()) {
				return true
			}
		}
	}
	return false
}

// Intersection evaluates the intersection of the given solids.
func Intersection(gen *mesh.IDGen, name string, ms ...*mesh.Mesh) (*mesh.Mesh, error) {
	m, _, err := Evaluate(Request{Op: OpIntersection, Meshes: ms, Gen: gen, Name: name})
	return m, err
}

// Union evaluates the union of the given solids.
func Union(gen *mesh.IDGen, name string, ms ...*mesh.Mesh) (*mesh.Mesh, error) {
	m, _, err := Evaluate(Request{Op: OpUnion, Meshes: ms, Gen: gen, Name: name})
	return m, err
}

// Difference evaluates the first solid minus all the others.
func Difference(gen *mesh.IDGen, name string, ms ...*mesh.Mesh) (*mesh.Mesh, error) {
	m, _, err := Evaluate(Request{Op: OpDifference, Meshes: ms, Gen: gen, Name: name})
	return m, err
}
