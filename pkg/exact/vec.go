package exact

import (
	"fmt"
	"math/big"
	"strings"
)

// Vec is an exact point or direction in 3D. The zero Vec is not usable;
// construct with NewVec, VecFromInts, or VecFromFloats.
type Vec struct {
	X, Y, Z *big.Rat
}

// NewVec builds a Vec from three rationals. The rationals are adopted,
// not copied; callers must not mutate them afterwards.
func NewVec(x, y, z *big.Rat) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// VecFromInts builds a Vec with integer coordinates.
func VecFromInts(x, y, z int64) Vec {
	return Vec{X: FromInt(x), Y: FromInt(y), Z: FromInt(z)}
}

// VecFromFloats lifts three float64 coordinates exactly.
func VecFromFloats(x, y, z float64) (Vec, error) {
	rx, err := FromFloat(x)
	if err != nil {
		return Vec{}, fmt.Errorf("x: %w", err)
	}
	ry, err := FromFloat(y)
	if err != nil {
		return Vec{}, fmt.Errorf("y: %w", err)
	}
	rz, err := FromFloat(z)
	if err != nil {
		return Vec{}, fmt.Errorf("z: %w", err)
	}
	return Vec{X: rx, Y: ry, Z: rz}, nil
}

// Add returns v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{
		X: new(big.Rat).Add(v.X, w.X),
		Y: new(big.Rat).Add(v.Y, w.Y),
		Z: new(big.Rat).Add(v.Z, w.Z),
	}
}

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec {
	return Vec{
		X: new(big.Rat).Sub(v.X, w.X),
		Y: new(big.Rat).Sub(v.Y, w.Y),
		Z: new(big.Rat).Sub(v.Z, w.Z),
	}
}

// Neg returns -v.
func (v Vec) Neg() Vec {
	return Vec{
		X: new(big.Rat).Neg(v.X),
		Y: new(big.Rat).Neg(v.Y),
		Z: new(big.Rat).Neg(v.Z),
	}
}

// Scale returns v scaled by s.
func (v Vec) Scale(s *big.Rat) Vec {
	return Vec{
		X: new(big.Rat).Mul(v.X, s),
		Y: new(big.Rat).Mul(v.Y, s),
		Z: new(big.Rat).Mul(v.Z, s),
	}
}

// Dot returns the exact dot product v · w.
func (v Vec) Dot(w Vec) *big.Rat {
	d := new(big.Rat).Mul(v.X, w.X)
	d.Add(d, new(big.Rat).Mul(v.Y, w.Y))
	d.Add(d, new(big.Rat).Mul(v.Z, w.Z))
	return d
}

// Cross returns the exact cross product v × w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		X: new(big.Rat).Sub(new(big.Rat).Mul(v.Y, w.Z), new(big.Rat).Mul(v.Z, w.Y)),
		Y: new(big.Rat).Sub(new(big.Rat).Mul(v.Z, w.X), new(big.Rat).Mul(v.X, w.Z)),
		Z: new(big.Rat).Sub(new(big.Rat).Mul(v.X, w.Y), new(big.Rat).Mul(v.Y, w.X)),
	}
}

// Lerp returns v + t*(w - v), the exact point at parameter t on the
// segment from v to w.
func (v Vec) Lerp(w Vec, t *big.Rat) Vec {
	return v.Add(w.Sub(v).Scale(t))
}

// Eq reports exact coordinate equality.
func (v Vec) Eq(w Vec) bool {
	return v.X.Cmp(w.X) == 0 && v.Y.Cmp(w.Y) == 0 && v.Z.Cmp(w.Z) == 0
}

// IsZero reports whether all coordinates are exactly zero.
func (v Vec) IsZero() bool {
	return v.X.Sign() == 0 && v.Y.Sign() == 0 && v.Z.Sign() == 0
}

// Key returns the canonical coordinate key. Two Vecs have equal keys
// exactly when they are the same point; the welding stages key on it.
func (v Vec) Key() string {
	var b strings.Builder
	b.WriteString(ratKey(v.X))
	b.WriteByte('|')
	b.WriteString(ratKey(v.Y))
	b.WriteByte('|')
	b.WriteString(ratKey(v.Z))
	return b.String()
}

// Comp returns the coordinate on axis ax (0=x, 1=y, 2=z). The returned
// rational is the vector's own; treat it as read-only.
func (v Vec) Comp(ax int) *big.Rat {
	switch ax {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Float64 rounds the coordinates to nearest float64 for export.
func (v Vec) Float64() (x, y, z float64) {
	x, _ = v.X.Float64()
	y, _ = v.Y.Float64()
	z, _ = v.Z.Float64()
	return x, y, z
}

// String renders the vector for error messages and debugging.
func (v Vec) String() string {
	return fmt.Sprintf("(%s, %s, %s)", v.X.RatString(), v.Y.RatString(), v.Z.RatString())
}

// Orient returns the sign of the determinant |b-a, c-a, d-a|: positive
// when d lies on the side of plane (a,b,c) that the right-hand normal
// points into, zero when the four points are coplanar. This is the
// volume predicate behind planarity checks and signed volumes.
func Orient(a, b, c, d Vec) int {
	return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a)).Sign()
}

// TripleProduct returns (b-a)×(c-a)·(d-a) exactly, six times the signed
// volume of the tetrahedron abcd.
func TripleProduct(a, b, c, d Vec) *big.Rat {
	return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a))
}
