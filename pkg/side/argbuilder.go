// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"math"

	"github.com/efficios/go-side/pkg/abi"
)

// Argument constructors, mirroring the type constructors in
// builder.go. Each returns a stack-lifetime value; argument vectors
// are borrowed by the walk and never retained.

func ArgNull() Arg {
	return Arg{Label: LabelNull}
}

func ArgBool(v bool) Arg {
	a := Arg{Label: LabelBool}
	if v {
		a.Scalar.Lo = 1
	}
	return a
}

func ArgU8(v uint8) Arg   { return Arg{Label: LabelU8, Scalar: ScalarOf(uint64(v))} }
func ArgU16(v uint16) Arg { return Arg{Label: LabelU16, Scalar: ScalarOf(uint64(v))} }
func ArgU32(v uint32) Arg { return Arg{Label: LabelU32, Scalar: ScalarOf(uint64(v))} }
func ArgU64(v uint64) Arg { return Arg{Label: LabelU64, Scalar: ScalarOf(v)} }
func ArgS8(v int8) Arg    { return Arg{Label: LabelS8, Scalar: ScalarOfSigned(int64(v))} }
func ArgS16(v int16) Arg  { return Arg{Label: LabelS16, Scalar: ScalarOfSigned(int64(v))} }
func ArgS32(v int32) Arg  { return Arg{Label: LabelS32, Scalar: ScalarOfSigned(int64(v))} }
func ArgS64(v int64) Arg  { return Arg{Label: LabelS64, Scalar: ScalarOfSigned(v)} }

func ArgU128(hi, lo uint64) Arg {
	return Arg{Label: LabelU128, Scalar: ScalarValue{Lo: lo, Hi: hi}}
}

func ArgS128(hi, lo uint64) Arg {
	return Arg{Label: LabelS128, Scalar: ScalarValue{Lo: lo, Hi: hi}}
}

func ArgByte(v byte) Arg {
	return Arg{Label: LabelByte, Scalar: ScalarOf(uint64(v))}
}

func ArgPointer(addr uint64) Arg {
	return Arg{Label: LabelPointer, Scalar: ScalarOf(addr)}
}

// ArgF16Bits takes a raw binary16 pattern; Go has no half-precision
// type to convert from.
func ArgF16Bits(bits uint16) Arg {
	return Arg{Label: LabelF16, Scalar: ScalarOf(uint64(bits))}
}

func ArgF32(v float32) Arg {
	return Arg{Label: LabelF32, Scalar: ScalarOf(uint64(math.Float32bits(v)))}
}

func ArgF64(v float64) Arg {
	return Arg{Label: LabelF64, Scalar: ScalarOfFloat(v)}
}

// ArgF128Bits takes a raw binary128 pattern split into high and low
// halves.
func ArgF128Bits(hi, lo uint64) Arg {
	return Arg{Label: LabelF128, Scalar: ScalarValue{Lo: lo, Hi: hi}}
}

func ArgString(s string) Arg {
	return Arg{Label: LabelString8, Str: StringValueOf(s, 1)}
}

func ArgString16(s string) Arg {
	return Arg{Label: LabelString16, Str: StringValueOf(s, 2)}
}

func ArgString32(s string) Arg {
	return Arg{Label: LabelString32, Str: StringValueOf(s, 4)}
}

// ArgRawString passes pre-encoded code units through unchanged.
func ArgRawString(v StringValue) Arg {
	l := LabelString8
	switch v.UnitSize {
	case 2:
		l = LabelString16
	case 4:
		l = LabelString32
	}
	return Arg{Label: l, Str: v}
}

func ArgStruct(fields ...Arg) Arg {
	return Arg{Label: LabelStruct, Vec: fields}
}

func ArgArray(elems ...Arg) Arg {
	return Arg{Label: LabelArray, Vec: elems}
}

func ArgVLA(elems ...Arg) Arg {
	return Arg{Label: LabelVLA, Vec: elems}
}

// ArgVLAVisitor carries the application context handed to the
// declared visitor function.
func ArgVLAVisitor(appCtx any) Arg {
	return Arg{Label: LabelVLAVisitor, AppCtx: appCtx}
}

func ArgVariant(selector, value Arg) Arg {
	return Arg{Label: LabelVariant, Variant: &VariantArg{Selector: selector, Value: value}}
}

func ArgOptional(v Arg) Arg {
	return Arg{Label: LabelOptional, Optional: &OptionalArg{Present: true, Value: &v}}
}

func ArgOptionalNone() Arg {
	return Arg{Label: LabelOptional, Optional: &OptionalArg{}}
}

func gatherArg(l Label, addr uint64) Arg {
	return Arg{Label: l, Addr: addr}
}

// Enum and gather-enum fields take the argument of their element
// type; there is no enum-labeled argument.

func ArgGatherBool(addr uint64) Arg    { return gatherArg(LabelGatherBool, addr) }
func ArgGatherInteger(addr uint64) Arg { return gatherArg(LabelGatherInteger, addr) }
func ArgGatherByte(addr uint64) Arg    { return gatherArg(LabelGatherByte, addr) }
func ArgGatherPointer(addr uint64) Arg { return gatherArg(LabelGatherPointer, addr) }
func ArgGatherFloat(addr uint64) Arg   { return gatherArg(LabelGatherFloat, addr) }
func ArgGatherString(addr uint64) Arg  { return gatherArg(LabelGatherString, addr) }
func ArgGatherStruct(addr uint64) Arg  { return gatherArg(LabelGatherStruct, addr) }
func ArgGatherArray(addr uint64) Arg   { return gatherArg(LabelGatherArray, addr) }
func ArgGatherVLA(addr uint64) Arg     { return gatherArg(LabelGatherVLA, addr) }

// Dynamic argument constructors. Dynamic values carry their own type
// metadata, so these fill both sides at once.

func DynNull() Arg {
	return Arg{Label: LabelDynamicNull, Dyn: &DynamicValue{}}
}

func DynBool(v bool) Arg {
	a := Arg{Label: LabelDynamicBool, Dyn: &DynamicValue{
		Bool: &BoolType{Size: 1, Order: abi.HostOrder},
	}}
	if v {
		a.Dyn.Scalar.Lo = 1
	}
	return a
}

func dynInteger(size uint16, signed bool, s ScalarValue) Arg {
	return Arg{Label: LabelDynamicInteger, Dyn: &DynamicValue{
		Integer: &IntegerType{Size: size, Signed: signed, Order: abi.HostOrder},
		Scalar:  s,
	}}
}

func DynU8(v uint8) Arg   { return dynInteger(1, false, ScalarOf(uint64(v))) }
func DynU16(v uint16) Arg { return dynInteger(2, false, ScalarOf(uint64(v))) }
func DynU32(v uint32) Arg { return dynInteger(4, false, ScalarOf(uint64(v))) }
func DynU64(v uint64) Arg { return dynInteger(8, false, ScalarOf(v)) }
func DynS8(v int8) Arg    { return dynInteger(1, true, ScalarOfSigned(int64(v))) }
func DynS16(v int16) Arg  { return dynInteger(2, true, ScalarOfSigned(int64(v))) }
func DynS32(v int32) Arg  { return dynInteger(4, true, ScalarOfSigned(int64(v))) }
func DynS64(v int64) Arg  { return dynInteger(8, true, ScalarOfSigned(v)) }

func DynU128(hi, lo uint64) Arg { return dynInteger(16, false, ScalarValue{Lo: lo, Hi: hi}) }
func DynS128(hi, lo uint64) Arg { return dynInteger(16, true, ScalarValue{Lo: lo, Hi: hi}) }

func DynByte(v byte) Arg {
	return Arg{Label: LabelDynamicByte, Dyn: &DynamicValue{Scalar: ScalarOf(uint64(v))}}
}

func DynPointer(addr uint64) Arg {
	return Arg{Label: LabelDynamicPointer, Dyn: &DynamicValue{
		Integer: &IntegerType{Size: uint16(abi.HostPtrWidth), Order: abi.HostOrder},
		Scalar:  ScalarOf(addr),
	}}
}

func dynFloat(size uint16, s ScalarValue) Arg {
	return Arg{Label: LabelDynamicFloat, Dyn: &DynamicValue{
		Float:  &FloatType{Size: size, Order: abi.HostOrder},
		Scalar: s,
	}}
}

func DynF16Bits(bits uint16) Arg { return dynFloat(2, ScalarOf(uint64(bits))) }
func DynF32(v float32) Arg       { return dynFloat(4, ScalarOf(uint64(math.Float32bits(v)))) }
func DynF64(v float64) Arg       { return dynFloat(8, ScalarOfFloat(v)) }
func DynF128Bits(hi, lo uint64) Arg {
	return dynFloat(16, ScalarValue{Lo: lo, Hi: hi})
}

func DynString(s string) Arg {
	return Arg{Label: LabelDynamicString, Dyn: &DynamicValue{Str: StringValueOf(s, 1)}}
}

func DynString16(s string) Arg {
	return Arg{Label: LabelDynamicString, Dyn: &DynamicValue{Str: StringValueOf(s, 2)}}
}

func DynString32(s string) Arg {
	return Arg{Label: LabelDynamicString, Dyn: &DynamicValue{Str: StringValueOf(s, 4)}}
}

// DynFieldOf names a dynamic value for a dynamic struct or a
// variadic call site.
func DynFieldOf(name string, v Arg) DynamicField {
	return DynamicField{Name: name, Value: v}
}

func DynStructOf(fields ...DynamicField) Arg {
	return Arg{Label: LabelDynamicStruct, Dyn: &DynamicValue{Fields: fields}}
}

func DynVLAOf(elems ...Arg) Arg {
	return Arg{Label: LabelDynamicVLA, Dyn: &DynamicValue{Elems: elems}}
}

func DynStructVisitorOf(v DynamicStructVisitor, appCtx any) Arg {
	return Arg{Label: LabelDynamicStructVisitor, Dyn: &DynamicValue{StructVisitor: v, AppCtx: appCtx}}
}

func DynVLAVisitorOf(v VLAVisitor, appCtx any) Arg {
	return Arg{Label: LabelDynamicVLAVisitor, Dyn: &DynamicValue{ElemVisitor: v, AppCtx: appCtx}}
}

// WithDynAttrs attaches attributes to a dynamic value and returns
// the argument for chaining.
func (a Arg) WithDynAttrs(attrs ...Attr) Arg {
	if a.Dyn != nil {
		a.Dyn.Attrs = attrs
	}
	return a
}

// Incomplete marks the argument as not captured and returns it.
func (a Arg) AsIncomplete() Arg {
	a.Flags |= ArgIncomplete
	return a
}
