// Package primitive builds the stock input solids. Boxes are exact:
// their rational corner coordinates go straight into the mesh builder.
// Curved solids come from the github.com/deadsy/sdfx signed-distance
// models, tessellated by marching cubes and lifted vertex by vertex
// into exact coordinates; the lift is lossless, so shared tessellation
// edges weld exactly and the result is as watertight as any hand-built
// mesh.
package primitive

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/tenon/pkg/exact"
	"github.com/chazu/tenon/pkg/mesh"
)

// ErrBadDimension reports a zero or negative primitive dimension.
var ErrBadDimension = errors.New("dimension must be positive")

// defaultCells is the marching cubes resolution used when the caller
// passes no cell count.
const defaultCells = 200

// Box builds the axis-aligned box spanning lo to hi, six quads wound
// outward.
func Box(gen *mesh.IDGen, name string, lo, hi exact.Vec) (*mesh.Mesh, error) {
	for ax := 0; ax < 3; ax++ {
		if hi.Comp(ax).Cmp(lo.Comp(ax)) <= 0 {
			return nil, fmt.Errorf("box %q axis %d: %w", name, ax, ErrBadDimension)
		}
	}
	corner := func(xs, ys, zs bool) exact.Vec {
		pick := func(s bool, l, h *big.Rat) *big.Rat {
			if s {
				return new(big.Rat).Set(h)
			}
			return new(big.Rat).Set(l)
		}
		return exact.NewVec(pick(xs, lo.X, hi.X), pick(ys, lo.Y, hi.Y), pick(zs, lo.Z, hi.Z))
	}
	b := mesh.NewBuilder(gen)
	b.AddFace(corner(false, false, false), corner(false, true, false), corner(true, true, false), corner(true, false, false))
	b.AddFace(corner(false, false, true), corner(true, false, true), corner(true, true, true), corner(false, true, true))
	b.AddFace(corner(false, false, false), corner(true, false, false), corner(true, false, true), corner(false, false, true))
	b.AddFace(corner(false, true, false), corner(false, true, true), corner(true, true, true), corner(true, true, false))
	b.AddFace(corner(false, false, false), corner(false, false, true), corner(false, true, true), corner(false, true, false))
	b.AddFace(corner(true, false, false), corner(true, true, false), corner(true, true, true), corner(true, false, true))
	return b.Build(name)
}

// Cube builds the axis-aligned cube with its minimum corner at the
// origin.
func Cube(gen *mesh.IDGen, name string, size *big.Rat) (*mesh.Mesh, error) {
	if size == nil || size.Sign() <= 0 {
		return nil, fmt.Errorf("cube %q: %w", name, ErrBadDimension)
	}
	zero := new(big.Rat)
	return Box(gen, name,
		exact.NewVec(zero, new(big.Rat), new(big.Rat)),
		exact.NewVec(new(big.Rat).Set(size), new(big.Rat).Set(size), new(big.Rat).Set(size)))
}

// Sphere tessellates a sphere of the given radius centered at the
// origin. cells sets the marching cubes resolution; zero or negative
// picks the default.
func Sphere(gen *mesh.IDGen, name string, radius float64, cells int) (*mesh.Mesh, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sphere %q: %w", name, ErrBadDimension)
	}
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sphere %q: %v", name, err)
	}
	return fromSDF(gen, name, s, cells)
}

// Cylinder tessellates a z-axis cylinder centered at the origin.
func Cylinder(gen *mesh.IDGen, name string, height, radius float64, cells int) (*mesh.Mesh, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("cylinder %q: %w", name, ErrBadDimension)
	}
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("cylinder %q: %v", name, err)
	}
	return fromSDF(gen, name, s, cells)
}

// fromSDF runs marching cubes over the signed distance field and welds
// the triangle soup into a sealed mesh. Slivers that collapse to zero
// exact area are skipped; the surrounding triangles still close over
// them because their shared edges are bitwise identical.
func fromSDF(gen *mesh.IDGen, name string, s sdf.SDF3, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = defaultCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	b := mesh.NewBuilder(gen)
	for _, tri := range triangles {
		p0, err := lift(tri[0])
		if err != nil {
			return nil, err
		}
		p1, err := lift(tri[1])
		if err != nil {
			return nil, err
		}
		p2, err := lift(tri[2])
		if err != nil {
			return nil, err
		}
		if p1.Sub(p0).Cross(p2.Sub(p0)).IsZero() {
			continue
		}
		b.AddFace(p0, p1, p2)
	}
	return b.Build(name)
}

// lift converts a tessellation vertex to exact coordinates. Finite
// floats are dyadic rationals, so the conversion is lossless.
func lift(v v3.Vec) (exact.Vec, error) {
	x, err := exact.FromFloat(v.X)
	if err != nil {
		return exact.Vec{}, fmt.Errorf("tessellation vertex %v: %w", v, err)
	}
	y, err := exact.FromFloat(v.Y)
	if err != nil {
		return exact.Vec{}, fmt.Errorf("tessellation vertex %v: %w", v, err)
	}
	z, err := exact.FromFloat(v.Z)
	if err != nil {
		return exact.Vec{}, fmt.Errorf("tessellation vertex %v: %w", v, err)
	}
	return exact.NewVec(x, y, z), nil
}
