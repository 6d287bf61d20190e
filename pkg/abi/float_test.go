// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type f16Conv struct {
	bits uint16
	want float64
}

func TestFloat16ToFloat64(t *testing.T) {
	var tests = []f16Conv{
		{0x0000, 0},
		{0x3c00, 1},
		{0xc000, -2},
		{0x3800, 0.5},
		{0x4248, 3.140625},
		{0x7bff, 65504},
		{0x0001, 5.9604644775390625e-08},
		{0x03ff, 6.097555160522461e-05},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, Float16ToFloat64(test.bits), "bits=%#04x", test.bits)
	}

	assert.True(t, math.Signbit(Float16ToFloat64(0x8000)))
	assert.Equal(t, 0.0, Float16ToFloat64(0x8000))
	assert.True(t, math.IsInf(Float16ToFloat64(0x7c00), 1))
	assert.True(t, math.IsInf(Float16ToFloat64(0xfc00), -1))
	assert.True(t, math.IsNaN(Float16ToFloat64(0x7e00)))
}

type f128Conv struct {
	hi, lo uint64
	want   float64
}

func TestFloat128ToFloat64(t *testing.T) {
	var tests = []f128Conv{
		{0, 0, 0},
		{0x3fff000000000000, 0, 1},
		{0x4000800000000000, 0, 3},
		{0xc000400000000000, 0, -2.5},
		{0x3ffe000000000000, 0, 0.5},
		{0x4005900000000000, 0, 100},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, Float128ToFloat64(test.hi, test.lo), "hi=%#x", test.hi)
	}

	assert.True(t, math.Signbit(Float128ToFloat64(0x8000000000000000, 0)))
	assert.True(t, math.IsInf(Float128ToFloat64(0x7fff000000000000, 0), 1))
	assert.True(t, math.IsInf(Float128ToFloat64(0xffff000000000000, 0), -1))
	assert.True(t, math.IsNaN(Float128ToFloat64(0x7fff800000000000, 0)))
	assert.True(t, math.IsNaN(Float128ToFloat64(0x7fff000000000000, 1)))

	// Exponent beyond binary64 range overflows to infinity.
	assert.True(t, math.IsInf(Float128ToFloat64(0x43ff000000000000, 0), 1))
	// 2^-1024 lands in binary64 subnormal territory.
	assert.Equal(t, math.Ldexp(1, -1024), Float128ToFloat64(0x3bff000000000000, 0))
	// 2^-1100 is below it and flushes to zero.
	assert.Equal(t, 0.0, Float128ToFloat64(0x3bb3000000000000, 0))
}
