package mesh

import (
	"fmt"
	"math/big"

	"github.com/chazu/tenon/pkg/exact"
)

// Remap builds a fresh mesh by passing every face of m through f,
// minting new vertex ids from gen. The map must preserve orientation;
// an orientation-reversing map produces an inward-wound mesh, which
// Build rejects. m is left untouched.
func Remap(m *Mesh, gen *IDGen, name string, f func(exact.Vec) exact.Vec) (*Mesh, error) {
	b := NewBuilder(gen)
	for i := 0; i < m.NumFaces(); i++ {
		pts := m.FaceRing(i)
		mapped := make([]exact.Vec, len(pts))
		for j, p := range pts {
			mapped[j] = f(p)
		}
		b.AddFace(mapped...)
	}
	return b.Build(name)
}

// Translate returns a copy of m moved by d.
func Translate(m *Mesh, gen *IDGen, name string, d exact.Vec) (*Mesh, error) {
	return Remap(m, gen, name, func(p exact.Vec) exact.Vec {
		return p.Add(d)
	})
}

// Scale returns a copy of m scaled uniformly about the origin. The
// factor must be positive; a negative factor would mirror the mesh
// and turn it inside out.
func Scale(m *Mesh, gen *IDGen, name string, s *big.Rat) (*Mesh, error) {
	if s.Sign() <= 0 {
		return nil, fmt.Errorf("scale factor %s is not positive", s.RatString())
	}
	return Remap(m, gen, name, func(p exact.Vec) exact.Vec {
		return p.Scale(s)
	})
}

// RotateQuarter returns a copy of m rotated about the given axis by
// quarter turns. Quarter turns permute and negate coordinates, so the
// rotation is exact; arbitrary angles would leave the rationals.
func RotateQuarter(m *Mesh, gen *IDGen, name string, axis Axis, quarters int) (*Mesh, error) {
	q := ((quarters % 4) + 4) % 4
	if q == 0 {
		return Remap(m, gen, name, func(p exact.Vec) exact.Vec { return p })
	}
	step := func(p exact.Vec) exact.Vec {
		switch axis {
		case AxisX:
			return exact.NewVec(p.X, new(big.Rat).Neg(p.Z), p.Y)
		case AxisY:
			return exact.NewVec(p.Z, p.Y, new(big.Rat).Neg(p.X))
		case AxisZ:
			return exact.NewVec(new(big.Rat).Neg(p.Y), p.X, p.Z)
		default:
			return p
		}
	}
	return Remap(m, gen, name, func(p exact.Vec) exact.Vec {
		for i := 0; i < q; i++ {
			p = step(p)
		}
		return p
	})
}
