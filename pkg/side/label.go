// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package side is the native model of the SIDE instrumentation ABI:
// type descriptions, event descriptions, arguments and attributes,
// plus the constructors instrumented applications declare them with.
// The packed wire form of the same model lives in pkg/encoder; the
// tree walks that drive tracer callbacks live in pkg/visitor.
package side

import (
	"fmt"

	"github.com/efficios/go-side/pkg/logger"
)

// Label discriminates type descriptions and arguments. The numeric
// values are wire ABI: the label space is closed and append-only, new
// labels go at the end and existing ones are never renumbered or
// repurposed. Every label should have a human-readable representation
// in LabelStrings.
type Label uint16

const (
	// Stack-copy basic types. The argument carries the value
	// inline.
	LabelNull     Label = 0
	LabelBool     Label = 1
	LabelU8       Label = 2
	LabelU16      Label = 3
	LabelU32      Label = 4
	LabelU64      Label = 5
	LabelU128     Label = 6
	LabelS8       Label = 7
	LabelS16      Label = 8
	LabelS32      Label = 9
	LabelS64      Label = 10
	LabelS128     Label = 11
	LabelByte     Label = 12
	LabelPointer  Label = 13
	LabelF16      Label = 14
	LabelF32      Label = 15
	LabelF64      Label = 16
	LabelF128     Label = 17
	LabelString8  Label = 18
	LabelString16 Label = 19
	LabelString32 Label = 20

	// Stack-copy compound types.
	LabelStruct     Label = 21
	LabelVariant    Label = 22
	LabelArray      Label = 23
	LabelVLA        Label = 24
	LabelVLAVisitor Label = 25
	LabelEnum       Label = 26
	LabelEnumBitmap Label = 27
	LabelDynamic    Label = 28
	LabelOptional   Label = 29

	// Gather types. The argument carries a base pointer; the value
	// is read from memory using the description's offset and access
	// mode.
	LabelGatherBool    Label = 30
	LabelGatherInteger Label = 31
	LabelGatherByte    Label = 32
	LabelGatherPointer Label = 33
	LabelGatherFloat   Label = 34
	LabelGatherString  Label = 35
	LabelGatherStruct  Label = 36
	LabelGatherArray   Label = 37
	LabelGatherVLA     Label = 38
	LabelGatherEnum    Label = 39

	// Dynamic types. The argument is self-describing and carries
	// its own type metadata alongside the value.
	LabelDynamicNull          Label = 40
	LabelDynamicBool          Label = 41
	LabelDynamicInteger       Label = 42
	LabelDynamicByte          Label = 43
	LabelDynamicPointer       Label = 44
	LabelDynamicFloat         Label = 45
	LabelDynamicString        Label = 46
	LabelDynamicStruct        Label = 47
	LabelDynamicStructVisitor Label = 48
	LabelDynamicVLA           Label = 49
	LabelDynamicVLAVisitor    Label = 50
)

var LabelStrings = map[Label]string{
	LabelNull:                 "Null",
	LabelBool:                 "Bool",
	LabelU8:                   "U8",
	LabelU16:                  "U16",
	LabelU32:                  "U32",
	LabelU64:                  "U64",
	LabelU128:                 "U128",
	LabelS8:                   "S8",
	LabelS16:                  "S16",
	LabelS32:                  "S32",
	LabelS64:                  "S64",
	LabelS128:                 "S128",
	LabelByte:                 "Byte",
	LabelPointer:              "Pointer",
	LabelF16:                  "F16",
	LabelF32:                  "F32",
	LabelF64:                  "F64",
	LabelF128:                 "F128",
	LabelString8:              "String8",
	LabelString16:             "String16",
	LabelString32:             "String32",
	LabelStruct:               "Struct",
	LabelVariant:              "Variant",
	LabelArray:                "Array",
	LabelVLA:                  "VLA",
	LabelVLAVisitor:           "VLAVisitor",
	LabelEnum:                 "Enum",
	LabelEnumBitmap:           "EnumBitmap",
	LabelDynamic:              "Dynamic",
	LabelOptional:             "Optional",
	LabelGatherBool:           "GatherBool",
	LabelGatherInteger:        "GatherInteger",
	LabelGatherByte:           "GatherByte",
	LabelGatherPointer:        "GatherPointer",
	LabelGatherFloat:          "GatherFloat",
	LabelGatherString:         "GatherString",
	LabelGatherStruct:         "GatherStruct",
	LabelGatherArray:          "GatherArray",
	LabelGatherVLA:            "GatherVLA",
	LabelGatherEnum:           "GatherEnum",
	LabelDynamicNull:          "DynamicNull",
	LabelDynamicBool:          "DynamicBool",
	LabelDynamicInteger:       "DynamicInteger",
	LabelDynamicByte:          "DynamicByte",
	LabelDynamicPointer:       "DynamicPointer",
	LabelDynamicFloat:         "DynamicFloat",
	LabelDynamicString:        "DynamicString",
	LabelDynamicStruct:        "DynamicStruct",
	LabelDynamicStructVisitor: "DynamicStructVisitor",
	LabelDynamicVLA:           "DynamicVLA",
	LabelDynamicVLAVisitor:    "DynamicVLAVisitor",
}

func (l Label) String() string {
	s, ok := LabelStrings[l]
	if !ok {
		logger.GetLogger().WithField("label", uint16(l)).Info("Unknown type label. This is a bug, please report it to go-side developers.")
		return fmt.Sprintf("Unknown(%d)", uint16(l))
	}
	return s
}

// Valid reports whether l is a defined label. Unknown labels in a
// description are fatal to a walk.
func (l Label) Valid() bool {
	_, ok := LabelStrings[l]
	return ok
}

// IsBasic reports a stack-copy basic type.
func (l Label) IsBasic() bool {
	return l <= LabelString32
}

// IsCompound reports a stack-copy compound type.
func (l Label) IsCompound() bool {
	return l >= LabelStruct && l <= LabelOptional
}

// IsGather reports a gather type.
func (l Label) IsGather() bool {
	return l >= LabelGatherBool && l <= LabelGatherEnum
}

// IsDynamic reports a dynamic type.
func (l Label) IsDynamic() bool {
	return l >= LabelDynamicNull && l <= LabelDynamicVLAVisitor
}

// IsInteger reports a fixed-width integer label. Variant selectors
// and VLA length types must satisfy this.
func (l Label) IsInteger() bool {
	return l >= LabelU8 && l <= LabelS128
}

// IsString reports a stack-copy string label.
func (l Label) IsString() bool {
	return l >= LabelString8 && l <= LabelString32
}

// IsFloat reports a stack-copy float label.
func (l Label) IsFloat() bool {
	return l >= LabelF16 && l <= LabelF128
}

// Signed reports whether an integer label is signed.
func (l Label) Signed() bool {
	return l >= LabelS8 && l <= LabelS128
}
