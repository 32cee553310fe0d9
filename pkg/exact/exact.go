// Package exact implements the rational-arithmetic geometry kernel.
// Every coordinate and intermediate value is a math/big.Rat, so a
// predicate evaluated twice on the same inputs always returns the same
// answer, no matter which face or goroutine asked. That reproducibility
// is what the splitting and welding stages lean on; there is no epsilon
// anywhere in this package.
//
// The cost is speed: rational arithmetic is orders of magnitude slower
// than float64. That tradeoff is deliberate. Callers that only need
// approximate values (bounding boxes, file export) convert at the edge
// with the rounding helpers below.
//
// Values returned by kernel operations are freshly allocated and never
// alias their operands. Treat every *big.Rat and Vec as immutable once
// it leaves this package.
package exact

import (
	"errors"
	"math"
	"math/big"
)

// Side classifies a point against an oriented plane or line.
type Side int

const (
	Below Side = -1 // negative halfspace
	On    Side = 0  // exactly on the plane
	Above Side = 1  // positive halfspace
)

func (s Side) String() string {
	switch s {
	case Below:
		return "below"
	case On:
		return "on"
	case Above:
		return "above"
	default:
		return "side(?)"
	}
}

// ErrNonFinite reports a float that cannot be lifted to a rational.
var ErrNonFinite = errors.New("non-finite coordinate")

// R builds the rational n/d. It panics if d is zero; intended for
// literals in construction code and tests.
func R(n, d int64) *big.Rat {
	return big.NewRat(n, d)
}

// FromInt lifts an integer to a rational.
func FromInt(n int64) *big.Rat {
	return big.NewRat(n, 1)
}

// FromFloat lifts a float64 to the rational with exactly the same
// value. Every finite float64 is a dyadic rational, so no rounding
// occurs. NaN and infinities return ErrNonFinite.
func FromFloat(f float64) (*big.Rat, error) {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return nil, ErrNonFinite
	}
	return r, nil
}

// FloatFloor returns the largest float64 that is ≤ r. Used for the low
// corners of conservative bounding boxes.
func FloatFloor(r *big.Rat) float64 {
	f, isExact := r.Float64()
	if isExact || math.IsInf(f, 0) {
		return f
	}
	// Float64 rounds to nearest; nudge down when it rounded up.
	if back := new(big.Rat).SetFloat64(f); back != nil && back.Cmp(r) > 0 {
		return math.Nextafter(f, math.Inf(-1))
	}
	return f
}

// FloatCeil returns the smallest float64 that is ≥ r. Used for the high
// corners of conservative bounding boxes.
func FloatCeil(r *big.Rat) float64 {
	f, isExact := r.Float64()
	if isExact || math.IsInf(f, 0) {
		return f
	}
	if back := new(big.Rat).SetFloat64(f); back != nil && back.Cmp(r) < 0 {
		return math.Nextafter(f, math.Inf(1))
	}
	return f
}

// ratKey renders a rational in canonical lowest-terms form. big.Rat
// normalizes on every operation, so equal values always produce equal
// keys.
func ratKey(r *big.Rat) string {
	return r.RatString()
}
