package graph

import (
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node within a graph.
type NodeID string

// NewNodeID mints a fresh random node id.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// IsZero reports whether the id is unset.
func (id NodeID) IsZero() bool {
	return id == ""
}

// Short returns the leading segment of the id, enough to tell nodes
// apart in log lines and error messages.
func (id NodeID) Short() string {
	if i := strings.IndexByte(string(id), '-'); i > 0 {
		return string(id[:i])
	}
	return string(id)
}

// NodeKind enumerates the types of nodes in the operation graph.
type NodeKind int

const (
	NodePrimitive NodeKind = iota // generated solid (box, sphere)
	NodeLoad                      // solid read from an STL file
	NodeTransform                 // exact spatial copy of the child
	NodeBoolean                   // boolean combine of the children
)

func (k NodeKind) String() string {
	switch k {
	case NodePrimitive:
		return "primitive"
	case NodeLoad:
		return "load"
	case NodeTransform:
		return "transform"
	case NodeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// Node is one operation in the graph. Children are the node's inputs;
// their order matters for boolean nodes, where difference subtracts
// the later children from the first.
type Node struct {
	ID       NodeID
	Kind     NodeKind
	Name     string
	Children []NodeID
	Data     NodeData
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
