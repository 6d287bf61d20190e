// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

import "math"

// Float16ToFloat64 converts an IEEE 754 binary16 bit pattern. Every
// binary16 value is exactly representable in binary64, so the
// conversion is lossless.
func Float16ToFloat64(bits uint16) float64 {
	sign := uint64(bits>>15) << 63
	exp := uint64(bits >> 10 & 0x1f)
	frac := uint64(bits & 0x3ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float64frombits(sign)
		}
		// Subnormal: normalize the fraction.
		e := uint64(1023 - 15)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3ff
		return math.Float64frombits(sign | (e+1)<<52 | frac<<42)
	case 0x1f:
		return math.Float64frombits(sign | 0x7ff<<52 | frac<<42)
	default:
		return math.Float64frombits(sign | (exp-15+1023)<<52 | frac<<42)
	}
}

// Float128ToFloat64 converts an IEEE 754 binary128 bit pattern,
// rounding to nearest even. hi holds the sign, exponent and the top
// 48 fraction bits, lo the remaining 64.
func Float128ToFloat64(hi, lo uint64) float64 {
	sign := hi >> 63 << 63
	exp := int64(hi >> 48 & 0x7fff)
	fracHi := hi & 0xffffffffffff

	if exp == 0x7fff {
		if fracHi == 0 && lo == 0 {
			return math.Float64frombits(sign | 0x7ff<<52)
		}
		// Keep a quiet NaN.
		return math.Float64frombits(sign | 0x7ff<<52 | 1<<51)
	}

	// 112 fraction bits down to 52: shift right by 60, round on the
	// dropped bits.
	mant := fracHi<<4 | lo>>60
	rest := lo << 4
	if exp == 0 {
		if fracHi == 0 && lo == 0 {
			return math.Float64frombits(sign)
		}
		// binary128 subnormals are far below binary64 range.
		return math.Float64frombits(sign)
	}
	mant |= 1 << 52

	e := exp - 16383 + 1023
	if e >= 0x7ff {
		return math.Float64frombits(sign | 0x7ff<<52)
	}
	if e <= 0 {
		// Subnormal in binary64: shift further, or flush to zero.
		shift := uint64(1 - e)
		if shift > 53 {
			return math.Float64frombits(sign)
		}
		lost := mant<<(64-shift) | rest>>shift
		if rest<<(64-shift) != 0 {
			lost |= 1 // sticky
		}
		rest = lost
		mant >>= shift
		e = 0
	}

	// Round to nearest, ties to even.
	if rest > 1<<63 || (rest == 1<<63 && mant&1 == 1) {
		mant++
		if mant == 1<<53 {
			mant >>= 1
			e++
			if e >= 0x7ff {
				return math.Float64frombits(sign | 0x7ff<<52)
			}
		}
	}
	if e == 0 {
		return math.Float64frombits(sign | mant)
	}
	return math.Float64frombits(sign | uint64(e)<<52 | mant&^(1<<52))
}
