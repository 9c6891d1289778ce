// Package wad implements fixed point arithmetic with 18 decimals of
// precision, the unit convention shared by the locked-balance ledger and the
// fund oracles. All products are computed at full 256 bit width before the
// precision division, so intermediate overflow cannot occur for any realistic
// token supply.
package wad

import (
	"github.com/holiman/uint256"
)

// Precision is one unit, WAD scaled.
const Precision = uint64(1e18)

// One returns a fresh one-unit value.
func One() *uint256.Int {
	return uint256.NewInt(Precision)
}

// Zero returns a fresh zero value.
func Zero() *uint256.Int {
	return uint256.NewInt(0)
}

// FromUint64 returns x as a raw (already scaled) fixed point value.
func FromUint64(x uint64) *uint256.Int {
	return uint256.NewInt(x)
}

// Mul returns floor(a*b/1e18).
func Mul(a, b *uint256.Int) *uint256.Int {
	z := new(uint256.Int).Mul(a, b)
	return z.Div(z, One())
}

// Div returns floor(a*1e18/b), or zero when b is zero. Zero denominators are
// defined behavior on every aggregate read path.
func Div(a, b *uint256.Int) *uint256.Int {
	if b.IsZero() {
		return Zero()
	}
	z := new(uint256.Int).Mul(a, One())
	return z.Div(z, b)
}

// MulDiv returns floor(a*b/den), or zero when den is zero.
func MulDiv(a, b, den *uint256.Int) *uint256.Int {
	if den.IsZero() {
		return Zero()
	}
	z := new(uint256.Int).Mul(a, b)
	return z.Div(z, den)
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi *uint256.Int) *uint256.Int {
	if x.Lt(lo) {
		return lo.Clone()
	}
	if x.Gt(hi) {
		return hi.Clone()
	}
	return x.Clone()
}
