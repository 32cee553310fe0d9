package graph

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/mesh"
	"github.com/chazu/tenon/pkg/primitive"
	"github.com/chazu/tenon/pkg/stl"
)

var (
	// ErrUnknownNode reports an evaluation request for an id that is
	// not in the graph.
	ErrUnknownNode = errors.New("unknown graph node")

	// ErrCycle reports that evaluation re-entered a node before it
	// finished. Validate catches this earlier with a better message.
	ErrCycle = errors.New("operation graph contains a cycle")

	// ErrBadNode reports a node whose payload or arity does not match
	// its kind.
	ErrBadNode = errors.New("malformed graph node")
)

// Evaluate computes the mesh for the given node, building children
// first. Subtrees shared by several parents are evaluated once. The
// returned reports describe every boolean combine that ran, in
// evaluation order. gen mints vertex ids for all meshes built during
// the walk.
func Evaluate(g *Graph, id NodeID, gen *mesh.IDGen) (*mesh.Mesh, []*csg.Report, error) {
	ev := NewEvaluator(g, gen)
	m, err := ev.Mesh(id)
	if err != nil {
		return nil, ev.Reports(), err
	}
	return m, ev.Reports(), nil
}

// Evaluator walks a graph bottom-up and caches the mesh built for each
// node, so repeated requests against the same graph reuse earlier work.
// It is not safe for concurrent use.
type Evaluator struct {
	g       *Graph
	gen     *mesh.IDGen
	memo    map[NodeID]*mesh.Mesh
	active  map[NodeID]bool
	reports []*csg.Report
}

// NewEvaluator returns an evaluator over g. gen mints vertex ids for
// every mesh the evaluator builds.
func NewEvaluator(g *Graph, gen *mesh.IDGen) *Evaluator {
	return &Evaluator{
		g:      g,
		gen:    gen,
		memo:   make(map[NodeID]*mesh.Mesh),
		active: make(map[NodeID]bool),
	}
}

// Mesh returns the mesh for the given node, evaluating it and any
// unevaluated descendants first.
func (ev *Evaluator) Mesh(id NodeID) (*mesh.Mesh, error) {
	return ev.eval(id)
}

// Reports returns the reports of every boolean combine the evaluator
// has run so far, in evaluation order.
func (ev *Evaluator) Reports() []*csg.Report {
	return ev.reports
}

func (ev *Evaluator) eval(id NodeID) (*mesh.Mesh, error) {
	if m, ok := ev.memo[id]; ok {
		return m, nil
	}
	if ev.active[id] {
		return nil, fmt.Errorf("%w: node %s", ErrCycle, id.Short())
	}

	n := ev.g.Get(id)
	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id.Short())
	}

	ev.active[id] = true
	defer delete(ev.active, id)

	m, err := ev.evalNode(n)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s node %s: %w", n.Kind, n.ID.Short(), err)
	}
	ev.memo[id] = m
	return m, nil
}

func (ev *Evaluator) evalNode(n *Node) (*mesh.Mesh, error) {
	switch n.Kind {
	case NodePrimitive:
		d, ok := n.Data.(PrimitiveData)
		if !ok {
			return nil, fmt.Errorf("%w: primitive node carries %T", ErrBadNode, n.Data)
		}
		return ev.evalPrimitive(n, d)

	case NodeLoad:
		d, ok := n.Data.(LoadData)
		if !ok {
			return nil, fmt.Errorf("%w: load node carries %T", ErrBadNode, n.Data)
		}
		return ev.evalLoad(n, d)

	case NodeTransform:
		d, ok := n.Data.(TransformData)
		if !ok {
			return nil, fmt.Errorf("%w: transform node carries %T", ErrBadNode, n.Data)
		}
		if len(n.Children) != 1 {
			return nil, fmt.Errorf("%w: transform node has %d children, want 1", ErrBadNode, len(n.Children))
		}
		child, err := ev.eval(n.Children[0])
		if err != nil {
			return nil, err
		}
		return ev.evalTransform(n, d, child)

	case NodeBoolean:
		d, ok := n.Data.(BooleanData)
		if !ok {
			return nil, fmt.Errorf("%w: boolean node carries %T", ErrBadNode, n.Data)
		}
		if len(n.Children) == 0 {
			return nil, fmt.Errorf("%w: boolean node has no children", ErrBadNode)
		}
		ms := make([]*mesh.Mesh, 0, len(n.Children))
		for _, cid := range n.Children {
			m, err := ev.eval(cid)
			if err != nil {
				return nil, err
			}
			ms = append(ms, m)
		}
		out, report, err := csg.Evaluate(csg.Request{
			Op:     d.Op,
			Meshes: ms,
			Gen:    ev.gen,
			Name:   n.Name,
		})
		if report != nil {
			ev.reports = append(ev.reports, report)
		}
		if err != nil {
			return nil, err
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown node kind %d", ErrBadNode, int(n.Kind))
	}
}

func (ev *Evaluator) evalPrimitive(n *Node, d PrimitiveData) (*mesh.Mesh, error) {
	name := n.Name
	if name == "" {
		name = d.Kind.String()
	}

	switch d.Kind {
	case PrimBox:
		return primitive.Box(ev.gen, name, d.Lo, d.Hi)
	case PrimCube:
		return primitive.Cube(ev.gen, name, d.Size)
	case PrimSphere:
		return primitive.Sphere(ev.gen, name, d.Radius, d.Cells)
	case PrimCylinder:
		return primitive.Cylinder(ev.gen, name, d.Height, d.Radius, d.Cells)
	default:
		return nil, fmt.Errorf("%w: unknown primitive kind %d", ErrBadNode, int(d.Kind))
	}
}

func (ev *Evaluator) evalLoad(n *Node, d LoadData) (*mesh.Mesh, error) {
	if n.Name == "" {
		// Unnamed loads take the file's own name.
		return stl.ParseFile(ev.gen, d.Path)
	}
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return nil, fmt.Errorf("reading STL file: %w", err)
	}
	return stl.Parse(ev.gen, n.Name, data)
}

func (ev *Evaluator) evalTransform(n *Node, d TransformData, child *mesh.Mesh) (*mesh.Mesh, error) {
	name := n.Name
	if name == "" {
		name = d.Kind.String()
	}

	switch d.Kind {
	case XformTranslate:
		return mesh.Translate(child, ev.gen, name, d.Offset)
	case XformScale:
		return mesh.Scale(child, ev.gen, name, d.Factor)
	case XformRotate:
		return mesh.RotateQuarter(child, ev.gen, name, d.Axis, d.Quarters)
	default:
		return nil, fmt.Errorf("%w: unknown transform kind %d", ErrBadNode, int(d.Kind))
	}
}
