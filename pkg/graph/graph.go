package graph

import "github.com/chazu/tenon/pkg/csg"

// Graph is the operation DAG. It is mutable while a script or caller
// builds it up and treated as immutable once validation and
// evaluation start.
type Graph struct {
	Nodes     map[NodeID]*Node
	Roots     []NodeID
	NameIndex map[string]NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the graph. It does not check for duplicates.
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.ID] = n
	if n.Name != "" {
		g.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node id as an evaluation root.
func (g *Graph) AddRoot(id NodeID) {
	g.Roots = append(g.Roots, id)
}

// Lookup returns the node with the given user-assigned name, or nil.
func (g *Graph) Lookup(name string) *Node {
	id, ok := g.NameIndex[name]
	if !ok {
		return nil
	}
	return g.Nodes[id]
}

// Get returns the node with the given id, or nil.
func (g *Graph) Get(id NodeID) *Node {
	return g.Nodes[id]
}

// Children returns the child nodes of the given node, skipping any
// dangling references.
func (g *Graph) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := g.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// ByKind returns all nodes of the given kind.
func (g *Graph) ByKind(k NodeKind) []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Kind == k {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeCount returns the total number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// AddPrimitive appends a primitive node and returns it.
func (g *Graph) AddPrimitive(name string, data PrimitiveData) *Node {
	n := &Node{ID: NewNodeID(), Kind: NodePrimitive, Name: name, Data: data}
	g.AddNode(n)
	return n
}

// AddLoad appends a node that reads an STL file and returns it.
func (g *Graph) AddLoad(name, path string) *Node {
	n := &Node{ID: NewNodeID(), Kind: NodeLoad, Name: name, Data: LoadData{Path: path}}
	g.AddNode(n)
	return n
}

// AddTransform appends a transform of child and returns it.
func (g *Graph) AddTransform(name string, data TransformData, child NodeID) *Node {
	n := &Node{
		ID:       NewNodeID(),
		Kind:     NodeTransform,
		Name:     name,
		Children: []NodeID{child},
		Data:     data,
	}
	g.AddNode(n)
	return n
}

// AddBoolean appends a boolean combine of the children in order and
// returns it.
func (g *Graph) AddBoolean(name string, op csg.Operator, children ...NodeID) *Node {
	n := &Node{
		ID:       NewNodeID(),
		Kind:     NodeBoolean,
		Name:     name,
		Children: append([]NodeID(nil), children...),
		Data:     BooleanData{Op: op},
	}
	g.AddNode(n)
	return n
}
