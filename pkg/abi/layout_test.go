// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The wire sizes are contractual. A failure here means the encoding
// drifted and existing blobs are unreadable.
func TestContractualSizes(t *testing.T) {
	assert.Equal(t, 16, PtrSize)
	assert.Equal(t, 32, ValueUnionSize)
	assert.Equal(t, 18, RawStringSize)
	assert.Equal(t, 64, TypeSize)
	assert.Equal(t, 80, EventFieldSize)
	assert.Equal(t, 61, GatherUnionSize)
	assert.Equal(t, 64, ArgSize)
	assert.Equal(t, 58, DynamicUnionSize)
	assert.Equal(t, 20, ArgVectorSize)
	assert.Equal(t, 40, DynamicVLASize)
	assert.Equal(t, 40, DynamicStructSize)
	assert.Equal(t, 128, VariantArgSize)
}

func TestDerivedSizes(t *testing.T) {
	assert.Equal(t, 20, AttrListSize)
	assert.Equal(t, 52, AttrSize)
	assert.Equal(t, 34, EnumMappingSize)
	assert.Equal(t, 80, VariantOptionSize)
	assert.Equal(t, 80, DynamicFieldSize)
	assert.Equal(t, 98, EventDescSize)
	assert.Equal(t, 156, VLAVisitorImplSize)
}

// Every union member must fit the payload of its record.
func TestPayloadBounds(t *testing.T) {
	typePayloads := []int{
		BoolTypePayloadSize,
		IntegerTypePayloadSize,
		FloatTypePayloadSize,
		StringTypePayloadSize,
		StructTypePayloadSize,
		VariantTypePayloadSize,
		ArrayTypePayloadSize,
		VLATypePayloadSize,
		EnumTypePayloadSize,
		OptionalTypePayloadSize,
		GatherUnionSize,
	}
	for _, n := range typePayloads {
		assert.LessOrEqual(t, n, TypePayloadSize)
	}

	assert.LessOrEqual(t, DynamicUnionSize, ArgPayloadSize)
	assert.LessOrEqual(t, ValueUnionSize, ArgPayloadSize)
}
