// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package abi

// Record sizes of the packed encoding, in bytes. These are part of
// the ABI: a writer and a reader disagreeing on any of them cannot
// exchange blobs. Every record starts with its discriminating label
// and carries a fixed-size payload sized for the largest member of
// its union.
const (
	// TypeSize is a packed type description: label u16 plus the
	// per-kind payload union.
	TypeSize = 64

	// TypePayloadSize is the payload union of a type description.
	TypePayloadSize = TypeSize - 2

	// ArgSize is a packed argument: label u16, flags u16, payload.
	ArgSize = 64

	// ArgPayloadSize is the payload union of an argument.
	ArgPayloadSize = ArgSize - 4

	// EventFieldSize is a named static field: name pointer plus an
	// inline type description.
	EventFieldSize = PtrSize + TypeSize

	// ArgVectorSize is a counted pointer to packed arguments.
	ArgVectorSize = PtrSize + 4

	// AttrListSize is a counted pointer to packed attributes. Same
	// shape as an argument vector.
	AttrListSize = PtrSize + 4

	// RawStringSize is a pointer to string bytes plus the unit size
	// and byte order of its code units.
	RawStringSize = PtrSize + 2

	// ValueUnionSize holds any scalar value up to 128 bits. The
	// trailing bytes are reserved padding so future members cannot
	// shift the layout.
	ValueUnionSize = 32

	// AttrValueSize is an attribute value: label u16 plus a union
	// large enough for any scalar or a raw string.
	AttrValueSize = 2 + ValueUnionSize

	// AttrSize is one attribute: raw-string key plus its value.
	AttrSize = RawStringSize + AttrValueSize

	// EnumMappingSize is one enum mapping: begin s64, end s64,
	// raw-string label.
	EnumMappingSize = 8 + 8 + RawStringSize

	// VariantOptionSize is one variant option: selector range begin
	// s64, end s64, inline type description.
	VariantOptionSize = 8 + 8 + TypeSize

	// VariantArgSize is a packed variant argument: inline selector
	// argument plus inline chosen argument.
	VariantArgSize = 2 * ArgSize

	// VLAVisitorImplSize is the out-of-line body of a
	// variable-length array walked through an application visitor:
	// inline element type, inline length type, visitor identifier
	// u64, attribute list.
	VLAVisitorImplSize = TypeSize + TypeSize + 8 + AttrListSize

	// DynamicStructSize and DynamicVLASize are the compound
	// members of the dynamic argument union: fields or elements
	// pointer, attribute list, count u32.
	DynamicStructSize = PtrSize + AttrListSize + 4
	DynamicVLASize    = PtrSize + AttrListSize + 4

	// DynamicFieldSize is one field of a dynamic struct: name
	// pointer plus an inline dynamic argument.
	DynamicFieldSize = PtrSize + ArgSize

	// GatherUnionSize is the largest gather type payload, the
	// gather variable-length array: element type pointer, length
	// type pointer, attribute list, offset u64, access mode u8.
	GatherUnionSize = PtrSize + PtrSize + AttrListSize + 8 + 1

	// DynamicUnionSize is the largest dynamic argument payload,
	// the dynamic integer: inline integer description plus its
	// value union.
	DynamicUnionSize = IntegerTypePayloadSize + ValueUnionSize

	// EventDescSize is a packed event description record.
	EventDescSize = 4 + 2 + 4 + 4 + PtrSize + PtrSize + PtrSize + AttrListSize + PtrSize
)

// Per-kind type payload sizes. Integer carries attributes, byte
// size, used-bit count, signedness and byte order; the others trim
// or extend that set.
const (
	BoolTypePayloadSize     = AttrListSize + 2 + 2 + 1
	IntegerTypePayloadSize  = AttrListSize + 2 + 2 + 1 + 1
	FloatTypePayloadSize    = AttrListSize + 2 + 1
	StringTypePayloadSize   = AttrListSize + 1 + 1
	StructTypePayloadSize   = PtrSize + AttrListSize + 4
	VariantTypePayloadSize  = PtrSize + 4 + PtrSize + AttrListSize
	ArrayTypePayloadSize    = PtrSize + AttrListSize + 4
	VLATypePayloadSize      = PtrSize + PtrSize + AttrListSize
	EnumTypePayloadSize     = PtrSize + 4 + PtrSize + AttrListSize
	OptionalTypePayloadSize = PtrSize + AttrListSize
)

// Event description field offsets, fixed by the record layout above.
const (
	EventDescVersionOff  = 0
	EventDescFlagsOff    = 4
	EventDescLoglevelOff = 6
	EventDescNrFieldsOff = 10
	EventDescProviderOff = 14
	EventDescNameOff     = 14 + PtrSize
	EventDescFieldsOff   = 14 + 2*PtrSize
	EventDescAttrOff     = 14 + 3*PtrSize
	EventDescStateOff    = 14 + 3*PtrSize + AttrListSize
)
