package graph

import (
	"math/big"

	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Primitive
// ---------------------------------------------------------------------------

// PrimitiveKind distinguishes between generated solid shapes.
type PrimitiveKind int

const (
	PrimBox      PrimitiveKind = iota // axis-aligned box between exact corners
	PrimCube                          // axis-aligned cube with one corner at the origin
	PrimSphere                        // tessellated sphere centered at the origin
	PrimCylinder                      // tessellated cylinder along the z axis
)

func (k PrimitiveKind) String() string {
	switch k {
	case PrimBox:
		return "box"
	case PrimCube:
		return "cube"
	case PrimSphere:
		return "sphere"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// PrimitiveData describes a generated solid. Box and cube dimensions
// are exact rationals; spheres and cylinders are tessellated from
// float dimensions at the given grid resolution, where zero Cells
// selects the package default.
type PrimitiveData struct {
	Kind   PrimitiveKind
	Lo, Hi exact.Vec // box corners, Hi strictly greater per axis
	Size   *big.Rat  // cube edge length
	Radius float64   // sphere and cylinder
	Height float64   // cylinder
	Cells  int       // tessellation grid resolution
}

func (PrimitiveData) nodeData() {}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// LoadData references an STL file on disk. The file is read and lifted
// to exact coordinates when the node is evaluated.
type LoadData struct {
	Path string
}

func (LoadData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformKind distinguishes between the exact spatial transforms.
type TransformKind int

const (
	XformTranslate TransformKind = iota // offset by an exact vector
	XformScale                          // uniform scale about the origin
	XformRotate                         // quarter turns about a coordinate axis
)

func (k TransformKind) String() string {
	switch k {
	case XformTranslate:
		return "translate"
	case XformScale:
		return "scale"
	case XformRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// TransformData describes an exact spatial copy of the single child.
// Rotations are restricted to quarter turns so that transformed
// coordinates stay rational.
type TransformData struct {
	Kind     TransformKind
	Offset   exact.Vec // translate
	Factor   *big.Rat  // scale, must be positive
	Axis     mesh.Axis // rotate
	Quarters int       // rotate, any integer, taken modulo 4
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// BooleanData selects the boolean operator applied to the children in
// order. Difference subtracts every later child from the first.
type BooleanData struct {
	Op csg.Operator
}

func (BooleanData) nodeData() {}
