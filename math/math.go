// Package math implements the saturating and wide-accumulator integer
// arithmetic helpers the epoch transition relies on (spec.md §4.7).
package math

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrOverflow is returned when a product or sum would overflow uint64 even
// with a 128-bit intermediate, which can only happen on malformed states
// with absurd balances (spec.md §7 ArithmeticOverflow).
var ErrOverflow = errors.New("math: operation overflows uint64")

// IntegerSquareRoot returns the floor of the square root of n using Newton's
// method, defined as 0 for n == 0. Matches the teacher's
// shared/mathutil.IntegerSquareRoot / math.IntegerSquareRoot bit-for-bit.
func IntegerSquareRoot(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := n
	y := x/2 + x%2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

// Max returns the larger of a and b.
func Max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// AddUint64Overflow returns a+b and true if the addition overflowed uint64.
func AddUint64Overflow(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry != 0
}

// SubUint64Saturating returns a-b, floored at 0 instead of wrapping. Balance
// decreases must never underflow per spec.md §4.7.
func SubUint64Saturating(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// MulDiv64 computes a*b/c using a 128-bit intermediate product so that the
// multiplication never silently overflows uint64, as reward computations
// routinely multiply a balance by a weight before dividing (spec.md §4.7).
// c == 0 returns 0 (callers are responsible for treating 0 denominators as
// the "empty stake" edge case described in spec.md §8).
func MulDiv64(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		// bits.Div64 panics when the quotient would overflow 64 bits; guard
		// explicitly so this surfaces as ErrOverflow per spec.md §7 instead.
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}
