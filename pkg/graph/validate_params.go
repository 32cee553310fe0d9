package graph

import (
	"fmt"
	"math/big"

	"github.com/chazu/tenon/pkg/csg"
	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// largeCells is the tessellation resolution above which a node gets an
// advisory warning. Exact booleans on meshes that fine get slow.
const largeCells = 256

// validateParams runs the per-node parameter checks. Returns errors
// (blocking) and warnings (advisory) separately.
func validateParams(g *Graph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, node := range g.Nodes {
		switch d := node.Data.(type) {
		case PrimitiveData:
			e, w := checkPrimitive(node, d)
			errs = append(errs, e...)
			warnings = append(warnings, w...)
		case LoadData:
			if d.Path == "" {
				errs = append(errs, paramError(node, "load path is empty"))
			}
		case TransformData:
			e, w := checkTransform(node, d)
			errs = append(errs, e...)
			warnings = append(warnings, w...)
		case BooleanData:
			if d.Op < csg.OpIntersection || d.Op > csg.OpDifference {
				errs = append(errs, paramError(node, fmt.Sprintf("unknown boolean operator %d", int(d.Op))))
			}
			if len(node.Children) == 1 {
				warnings = append(warnings, ValidationWarning{
					NodeID:  node.ID,
					Message: fmt.Sprintf("%s of a single input is the identity", d.Op),
				})
			}
		}
	}

	return errs, warnings
}

func checkPrimitive(node *Node, d PrimitiveData) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	switch d.Kind {
	case PrimBox:
		if !vecDefined(d.Lo) || !vecDefined(d.Hi) {
			errs = append(errs, paramError(node, "box corners are not fully defined"))
			break
		}
		for ax := 0; ax < 3; ax++ {
			if d.Hi.Comp(ax).Cmp(d.Lo.Comp(ax)) <= 0 {
				errs = append(errs, paramError(node,
					fmt.Sprintf("box has no extent along %s", mesh.Axis(ax))))
			}
		}

	case PrimCube:
		if d.Size == nil || d.Size.Sign() <= 0 {
			errs = append(errs, paramError(node, "cube size must be positive"))
		}

	case PrimSphere:
		if d.Radius <= 0 {
			errs = append(errs, paramError(node,
				fmt.Sprintf("sphere radius is %g, must be positive", d.Radius)))
		}
		warnings = append(warnings, checkCells(node, d.Cells)...)

	case PrimCylinder:
		if d.Radius <= 0 {
			errs = append(errs, paramError(node,
				fmt.Sprintf("cylinder radius is %g, must be positive", d.Radius)))
		}
		if d.Height <= 0 {
			errs = append(errs, paramError(node,
				fmt.Sprintf("cylinder height is %g, must be positive", d.Height)))
		}
		warnings = append(warnings, checkCells(node, d.Cells)...)

	default:
		errs = append(errs, paramError(node,
			fmt.Sprintf("unknown primitive kind %d", int(d.Kind))))
	}

	return errs, warnings
}

func checkTransform(node *Node, d TransformData) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	switch d.Kind {
	case XformTranslate:
		if !vecDefined(d.Offset) {
			errs = append(errs, paramError(node, "translate offset is not fully defined"))
		} else if d.Offset.IsZero() {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: "translate by zero is the identity",
			})
		}

	case XformScale:
		if d.Factor == nil || d.Factor.Sign() <= 0 {
			errs = append(errs, paramError(node, "scale factor must be positive"))
		} else if d.Factor.Cmp(big.NewRat(1, 1)) == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: "scale by one is the identity",
			})
		}

	case XformRotate:
		if d.Axis < mesh.AxisX || d.Axis > mesh.AxisZ {
			errs = append(errs, paramError(node,
				fmt.Sprintf("unknown rotation axis %d", int(d.Axis))))
		}
		if d.Quarters%4 == 0 {
			warnings = append(warnings, ValidationWarning{
				NodeID:  node.ID,
				Message: "rotation by a whole number of turns is the identity",
			})
		}

	default:
		errs = append(errs, paramError(node,
			fmt.Sprintf("unknown transform kind %d", int(d.Kind))))
	}

	return errs, warnings
}

func checkCells(node *Node, cells int) []ValidationWarning {
	if cells <= largeCells {
		return nil
	}
	return []ValidationWarning{{
		NodeID:  node.ID,
		Message: fmt.Sprintf("tessellation resolution %d is large; booleans on the result will be slow", cells),
	}}
}

func paramError(node *Node, msg string) ValidationError {
	return ValidationError{NodeID: node.ID, Message: msg, Severity: SeverityError}
}

// vecDefined reports whether every component of v has been set. Zero
// value vectors carry nil components that would panic exact arithmetic.
func vecDefined(v exact.Vec) bool {
	return v.X != nil && v.Y != nil && v.Z != nil
}
