// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"github.com/efficios/go-side/pkg/abi"
)

// Type constructors. These are the Go rendition of the declaration
// DSL: each returns a description node with host byte order and the
// conventional width for its kind. Exotic declarations (foreign byte
// order, bit-packed scalars) fill the structs directly.

func Null() *Type {
	return &Type{Label: LabelNull}
}

func Bool() *Type {
	return SizedBool(1)
}

// SizedBool declares a bool backed by a 1, 2, 4 or 8 byte word.
func SizedBool(size uint16) *Type {
	return &Type{Label: LabelBool, Bool: &BoolType{Size: size, Order: abi.HostOrder}}
}

func integer(l Label, size uint16, signed bool) *Type {
	return &Type{Label: l, Integer: &IntegerType{Size: size, Signed: signed, Order: abi.HostOrder}}
}

func U8() *Type   { return integer(LabelU8, 1, false) }
func U16() *Type  { return integer(LabelU16, 2, false) }
func U32() *Type  { return integer(LabelU32, 4, false) }
func U64() *Type  { return integer(LabelU64, 8, false) }
func U128() *Type { return integer(LabelU128, 16, false) }
func S8() *Type   { return integer(LabelS8, 1, true) }
func S16() *Type  { return integer(LabelS16, 2, true) }
func S32() *Type  { return integer(LabelS32, 4, true) }
func S64() *Type  { return integer(LabelS64, 8, true) }
func S128() *Type { return integer(LabelS128, 16, true) }

func Byte() *Type {
	return &Type{Label: LabelByte}
}

// Pointer declares a pointer-sized integer rendered as an address.
func Pointer() *Type {
	return &Type{Label: LabelPointer, Integer: &IntegerType{Size: uint16(abi.HostPtrWidth), Order: abi.HostOrder}}
}

func F16() *Type  { return &Type{Label: LabelF16, Float: &FloatType{Size: 2, Order: abi.HostOrder}} }
func F32() *Type  { return &Type{Label: LabelF32, Float: &FloatType{Size: 4, Order: abi.HostOrder}} }
func F64() *Type  { return &Type{Label: LabelF64, Float: &FloatType{Size: 8, Order: abi.HostOrder}} }
func F128() *Type { return &Type{Label: LabelF128, Float: &FloatType{Size: 16, Order: abi.HostOrder}} }

// String declares a UTF-8 string.
func String() *Type {
	return &Type{Label: LabelString8, Str: &StringType{UnitSize: 1, Order: abi.HostOrder}}
}

// String16 declares a UTF-16 string in host byte order.
func String16() *Type {
	return &Type{Label: LabelString16, Str: &StringType{UnitSize: 2, Order: abi.HostOrder}}
}

// String32 declares a UTF-32 string in host byte order.
func String32() *Type {
	return &Type{Label: LabelString32, Str: &StringType{UnitSize: 4, Order: abi.HostOrder}}
}

// FieldOf names a type for use in an event or struct field list.
func FieldOf(name string, t *Type) Field {
	return Field{Name: name, Type: t}
}

func StructOf(fields ...Field) *Type {
	return &Type{Label: LabelStruct, Struct: &StructType{Fields: fields}}
}

func ArrayOf(elem *Type, length uint32) *Type {
	return &Type{Label: LabelArray, Array: &ArrayType{Elem: elem, Length: length}}
}

// VLAOf declares a variable-length array. The length type must be an
// integer kind; it is walked before the elements.
func VLAOf(elem, length *Type) *Type {
	return &Type{Label: LabelVLA, VLA: &VLAType{Elem: elem, Length: length}}
}

// VLAVisitorOf declares a variable-length array whose elements are
// produced by v at emission time.
func VLAVisitorOf(elem, length *Type, v VLAVisitor) *Type {
	return &Type{Label: LabelVLAVisitor, VLAVisitor: &VLAVisitorType{Elem: elem, Length: length, Visitor: v}}
}

// VariantOf declares a tagged union dispatched on an integer
// selector.
func VariantOf(selector *Type, options ...VariantOption) *Type {
	return &Type{Label: LabelVariant, Variant: &VariantType{Selector: selector, Options: options}}
}

// OptionOf covers selector values in [begin, end].
func OptionOf(begin, end int64, t *Type) VariantOption {
	return VariantOption{Begin: begin, End: end, Type: t}
}

func EnumOf(elem *Type, mappings ...EnumMapping) *Type {
	return &Type{Label: LabelEnum, Enum: &EnumType{Mappings: mappings, Elem: elem}}
}

func BitmapOf(elem *Type, mappings ...EnumMapping) *Type {
	return &Type{Label: LabelEnumBitmap, Enum: &EnumType{Mappings: mappings, Elem: elem}}
}

// MappingRange labels enum values in [begin, end], or bit positions
// begin..end for a bitmap.
func MappingRange(begin, end int64, label string) EnumMapping {
	return EnumMapping{Begin: begin, End: end, Label: label}
}

// MappingValue labels a single enum value or bit position.
func MappingValue(v int64, label string) EnumMapping {
	return EnumMapping{Begin: v, End: v, Label: label}
}

func OptionalOf(elem *Type) *Type {
	return &Type{Label: LabelOptional, Optional: &OptionalType{Elem: elem}}
}

// Dynamic declares a placeholder field whose payload self-describes
// at each call site.
func Dynamic() *Type {
	return &Type{Label: LabelDynamic}
}

// WithAttrs attaches attributes and returns t for chaining in
// declarations.
func (t *Type) WithAttrs(attrs ...Attr) *Type {
	t.Attrs = attrs
	return t
}

// Gather constructors. The offset is relative to the argument's base
// pointer, or to the enclosing gathered struct.

func GatherBool(offset uint64, size uint16, access GatherAccess) *Type {
	return &Type{
		Label:  LabelGatherBool,
		Bool:   &BoolType{Size: size, Order: abi.HostOrder},
		Gather: &GatherInfo{Offset: offset, Access: access},
	}
}

func GatherInteger(offset uint64, size uint16, signed bool, access GatherAccess) *Type {
	return &Type{
		Label:   LabelGatherInteger,
		Integer: &IntegerType{Size: size, Signed: signed, Order: abi.HostOrder},
		Gather:  &GatherInfo{Offset: offset, Access: access},
	}
}

// GatherIntegerBits reads a bit-packed integer: offsetBits is the
// shift from the load address, lenBits the used width.
func GatherIntegerBits(offset uint64, size uint16, signed bool, access GatherAccess, offsetBits, lenBits uint16) *Type {
	t := GatherInteger(offset, size, signed, access)
	t.Integer.LenBits = lenBits
	t.Gather.OffsetBits = offsetBits
	return t
}

func GatherByte(offset uint64, access GatherAccess) *Type {
	return &Type{Label: LabelGatherByte, Gather: &GatherInfo{Offset: offset, Access: access}}
}

func GatherPointer(offset uint64, access GatherAccess) *Type {
	return &Type{
		Label:   LabelGatherPointer,
		Integer: &IntegerType{Size: uint16(abi.HostPtrWidth), Order: abi.HostOrder},
		Gather:  &GatherInfo{Offset: offset, Access: access},
	}
}

func GatherFloat(offset uint64, size uint16, access GatherAccess) *Type {
	return &Type{
		Label:  LabelGatherFloat,
		Float:  &FloatType{Size: size, Order: abi.HostOrder},
		Gather: &GatherInfo{Offset: offset, Access: access},
	}
}

// GatherString reads a null-terminated string of the given unit
// size.
func GatherString(offset uint64, unit uint8, access GatherAccess) *Type {
	return &Type{
		Label:  LabelGatherString,
		Str:    &StringType{UnitSize: unit, Order: abi.HostOrder},
		Gather: &GatherInfo{Offset: offset, Access: access},
	}
}

// GatherStructOf reads size bytes at the access target and walks the
// fields against that region. Field types must be gather kinds with
// offsets relative to the region start.
func GatherStructOf(offset uint64, access GatherAccess, size uint32, fields ...Field) *Type {
	return &Type{
		Label:  LabelGatherStruct,
		Struct: &StructType{Fields: fields},
		Gather: &GatherInfo{Offset: offset, Access: access, Size: size},
	}
}

// GatherArrayOf reads length consecutive elements. The element type
// must be a gather kind and must not be a gather VLA.
func GatherArrayOf(elem *Type, length uint32, offset uint64, access GatherAccess) *Type {
	return &Type{
		Label:  LabelGatherArray,
		Array:  &ArrayType{Elem: elem, Length: length},
		Gather: &GatherInfo{Offset: offset, Access: access},
	}
}

// GatherVLAOf reads a length through the length type, then that many
// consecutive elements. The length type must be a gather integer.
func GatherVLAOf(elem, length *Type, offset uint64, access GatherAccess) *Type {
	return &Type{
		Label:  LabelGatherVLA,
		VLA:    &VLAType{Elem: elem, Length: length},
		Gather: &GatherInfo{Offset: offset, Access: access},
	}
}

// GatherEnumOf maps a gathered integer through enum mappings. The
// element type must be a gather integer and carries the access
// parameters.
func GatherEnumOf(elem *Type, mappings ...EnumMapping) *Type {
	return &Type{Label: LabelGatherEnum, Enum: &EnumType{Mappings: mappings, Elem: elem}}
}
