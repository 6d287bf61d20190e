// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"github.com/efficios/go-side/pkg/abi"
)

// Type is one node of a type-description tree. Label selects the
// kind; exactly one of the per-kind records is populated for kinds
// that carry metadata. Descriptions are immutable once an event
// referencing them is registered.
type Type struct {
	Label Label
	Attrs []Attr

	// Integer doubles for the pointer kinds, whose width rides in
	// Size.
	Integer    *IntegerType
	Bool       *BoolType
	Float      *FloatType
	Str        *StringType
	Struct     *StructType
	Variant    *VariantType
	Array      *ArrayType
	VLA        *VLAType
	VLAVisitor *VLAVisitorType
	Enum       *EnumType
	Optional   *OptionalType

	// Gather augments the scalar and compound records above with
	// the memory access parameters of the gather kinds.
	Gather *GatherInfo
}

// IntegerType describes a fixed-width integer. LenBits below
// Size*8 marks a bit-packed value using only the low LenBits bits
// after normalization; zero means all bits are used.
type IntegerType struct {
	Size    uint16
	LenBits uint16
	Signed  bool
	Order   abi.ByteOrder
}

type BoolType struct {
	Size    uint16
	LenBits uint16
	Order   abi.ByteOrder
}

type FloatType struct {
	Size  uint16
	Order abi.ByteOrder
}

// StringType describes string code units: size 1, 2 or 4 bytes and
// their byte order.
type StringType struct {
	UnitSize uint8
	Order    abi.ByteOrder
}

// Field is a named type, used both for event fields and for struct
// members.
type Field struct {
	Name string
	Type *Type
}

type StructType struct {
	Fields []Field
}

// VariantType is a tagged union. The selector must be an integer
// kind; options are scanned linearly and the first option whose
// [Begin, End] range contains the selector value is chosen.
type VariantType struct {
	Selector *Type
	Options  []VariantOption
}

type VariantOption struct {
	Begin int64
	End   int64
	Type  *Type
}

type ArrayType struct {
	Elem   *Type
	Length uint32
}

// VLAType is a variable-length array whose element count arrives at
// emission time. Length is a distinct type subtree and is always
// walked before the elements.
type VLAType struct {
	Elem   *Type
	Length *Type
}

// VLAVisitorType is a variable-length array whose elements are
// produced by an application callback during the walk. WireID names
// the visitor in encoded blobs, where function values cannot travel.
type VLAVisitorType struct {
	Elem    *Type
	Length  *Type
	Visitor VLAVisitor
	WireID  uint64
}

// EnumType maps integer ranges to labels. For the plain enum kind
// all mappings whose [Begin, End] range contains the value match;
// for the bitmap kind a mapping matches when any bit in positions
// Begin..End of the value is set. Overlaps are legal and every match
// is reported in declaration order.
type EnumType struct {
	Mappings []EnumMapping
	Elem     *Type
}

type EnumMapping struct {
	Begin int64
	End   int64
	Label string
}

type OptionalType struct {
	Elem *Type
}

// GatherAccess selects how a gather base pointer is turned into the
// value address.
type GatherAccess uint8

const (
	// GatherAccessDirect reads at base+offset.
	GatherAccessDirect GatherAccess = 0
	// GatherAccessPointer dereferences a pointer at base, then reads
	// at *base+offset.
	GatherAccessPointer GatherAccess = 1
)

func (a GatherAccess) String() string {
	switch a {
	case GatherAccessDirect:
		return "direct"
	case GatherAccessPointer:
		return "pointer"
	}
	return "invalid"
}

// GatherInfo carries the memory access parameters shared by the
// gather kinds. OffsetBits applies to bit-packed bool and integer
// gathers only; Size is the byte span of a gathered struct.
type GatherInfo struct {
	Offset     uint64
	OffsetBits uint16
	Access     GatherAccess
	Size       uint32
}
