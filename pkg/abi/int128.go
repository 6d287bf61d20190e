// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

import (
	"math/big"
)

// Int128 is a signed 128-bit integer in two's complement, the width
// every enum range comparison and variant selector dispatch is
// performed at. Hi carries the sign.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Int128FromInt64 sign-extends v.
func Int128FromInt64(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Hi: hi, Lo: uint64(v)}
}

// Int128FromUint64 zero-extends v.
func Int128FromUint64(v uint64) Int128 {
	return Int128{Lo: v}
}

// Int128FromParts reinterprets a raw 128-bit pattern as signed.
func Int128FromParts(hi, lo uint64) Int128 {
	return Int128{Hi: int64(hi), Lo: lo}
}

// Cmp returns -1, 0 or 1.
func (a Int128) Cmp(b Int128) int {
	if a.Hi != b.Hi {
		if a.Hi < b.Hi {
			return -1
		}
		return 1
	}
	if a.Lo != b.Lo {
		if a.Lo < b.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// InRange reports begin <= a <= end, both bounds sign-extended.
func (a Int128) InRange(begin, end int64) bool {
	return a.Cmp(Int128FromInt64(begin)) >= 0 && a.Cmp(Int128FromInt64(end)) <= 0
}

// IsNegative reports whether a < 0.
func (a Int128) IsNegative() bool {
	return a.Hi < 0
}

// Int64 truncates a to 64 bits.
func (a Int128) Int64() int64 {
	return int64(a.Lo)
}

// Big converts a to a big.Int, used by printers for values that do
// not fit 64 bits.
func (a Int128) Big() *big.Int {
	v := new(big.Int)
	if !a.IsNegative() {
		v.SetUint64(uint64(a.Hi))
		v.Lsh(v, 64)
		return v.Add(v, new(big.Int).SetUint64(a.Lo))
	}
	// -a = ^a + 1 in two's complement.
	hi, lo := ^uint64(a.Hi), ^a.Lo+1
	if lo == 0 {
		hi++
	}
	v.SetUint64(hi)
	v.Lsh(v, 64)
	v.Add(v, new(big.Int).SetUint64(lo))
	return v.Neg(v)
}

func (a Int128) String() string {
	if a.Hi == 0 || (a.Hi == -1 && a.Lo >= 1<<63) {
		return big.NewInt(a.Int64()).String()
	}
	return a.Big().String()
}

// Uint128String formats the raw pattern (hi, lo) as an unsigned
// decimal.
func Uint128String(hi, lo uint64) string {
	v := new(big.Int).SetUint64(hi)
	v.Lsh(v, 64)
	v.Add(v, new(big.Int).SetUint64(lo))
	return v.String()
}
