// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/efficios/go-side/pkg/abi"
)

func TestIntegerConstructors(t *testing.T) {
	var tests = []struct {
		t      *Type
		label  Label
		size   uint16
		signed bool
	}{
		{U8(), LabelU8, 1, false},
		{U16(), LabelU16, 2, false},
		{U32(), LabelU32, 4, false},
		{U64(), LabelU64, 8, false},
		{U128(), LabelU128, 16, false},
		{S8(), LabelS8, 1, true},
		{S16(), LabelS16, 2, true},
		{S32(), LabelS32, 4, true},
		{S64(), LabelS64, 8, true},
		{S128(), LabelS128, 16, true},
	}

	for _, test := range tests {
		assert.Equal(t, test.label, test.t.Label)
		assert.Equal(t, test.size, test.t.Integer.Size)
		assert.Equal(t, test.signed, test.t.Integer.Signed)
		assert.Equal(t, abi.HostOrder, test.t.Integer.Order)
		assert.Zero(t, test.t.Integer.LenBits)
	}
}

func TestScalarConstructors(t *testing.T) {
	assert.Equal(t, LabelNull, Null().Label)
	assert.Equal(t, LabelByte, Byte().Label)
	assert.Equal(t, LabelDynamic, Dynamic().Label)

	b := Bool()
	assert.Equal(t, LabelBool, b.Label)
	assert.Equal(t, uint16(1), b.Bool.Size)
	assert.Equal(t, uint16(4), SizedBool(4).Bool.Size)

	p := Pointer()
	assert.Equal(t, LabelPointer, p.Label)
	assert.Equal(t, uint16(abi.HostPtrWidth), p.Integer.Size)

	assert.Equal(t, uint16(2), F16().Float.Size)
	assert.Equal(t, uint16(4), F32().Float.Size)
	assert.Equal(t, uint16(8), F64().Float.Size)
	assert.Equal(t, uint16(16), F128().Float.Size)

	assert.Equal(t, uint8(1), String().Str.UnitSize)
	assert.Equal(t, uint8(2), String16().Str.UnitSize)
	assert.Equal(t, uint8(4), String32().Str.UnitSize)
	assert.Equal(t, LabelString32, String32().Label)
}

func TestCompoundConstructors(t *testing.T) {
	st := StructOf(FieldOf("x", U32()), FieldOf("y", String()))
	assert.Equal(t, LabelStruct, st.Label)
	assert.Len(t, st.Struct.Fields, 2)
	assert.Equal(t, "x", st.Struct.Fields[0].Name)
	assert.Equal(t, LabelString8, st.Struct.Fields[1].Type.Label)

	arr := ArrayOf(S16(), 8)
	assert.Equal(t, LabelArray, arr.Label)
	assert.Equal(t, uint32(8), arr.Array.Length)

	vla := VLAOf(F64(), U32())
	assert.Equal(t, LabelVLA, vla.Label)
	assert.Equal(t, LabelU32, vla.VLA.Length.Label)
	assert.Equal(t, LabelF64, vla.VLA.Elem.Label)

	va := VariantOf(U8(),
		OptionOf(0, 0, String()),
		OptionOf(1, 5, U64()),
	)
	assert.Equal(t, LabelVariant, va.Label)
	assert.Len(t, va.Variant.Options, 2)
	assert.Equal(t, int64(5), va.Variant.Options[1].End)

	en := EnumOf(U32(), MappingValue(1, "one"), MappingRange(2, 9, "several"))
	assert.Equal(t, LabelEnum, en.Label)
	assert.Equal(t, LabelU32, en.Enum.Elem.Label)
	assert.Equal(t, "several", en.Enum.Mappings[1].Label)
	assert.Equal(t, LabelEnumBitmap, BitmapOf(U64(), MappingValue(0, "bit0")).Label)

	opt := OptionalOf(U16())
	assert.Equal(t, LabelOptional, opt.Label)
	assert.Equal(t, LabelU16, opt.Optional.Elem.Label)
}

func TestGatherConstructors(t *testing.T) {
	g := GatherInteger(24, 4, true, GatherAccessPointer)
	assert.Equal(t, LabelGatherInteger, g.Label)
	assert.Equal(t, uint64(24), g.Gather.Offset)
	assert.Equal(t, GatherAccessPointer, g.Gather.Access)
	assert.True(t, g.Integer.Signed)

	gb := GatherIntegerBits(0, 2, false, GatherAccessDirect, 3, 7)
	assert.Equal(t, uint16(3), gb.Gather.OffsetBits)
	assert.Equal(t, uint16(7), gb.Integer.LenBits)

	gs := GatherStructOf(8, GatherAccessDirect, 16,
		FieldOf("a", GatherInteger(0, 8, false, GatherAccessDirect)),
		FieldOf("b", GatherFloat(8, 8, GatherAccessDirect)),
	)
	assert.Equal(t, LabelGatherStruct, gs.Label)
	assert.Equal(t, uint32(16), gs.Gather.Size)
	assert.Len(t, gs.Struct.Fields, 2)

	gv := GatherVLAOf(GatherByte(0, GatherAccessDirect), GatherInteger(0, 4, false, GatherAccessDirect), 4, GatherAccessPointer)
	assert.Equal(t, LabelGatherVLA, gv.Label)
	assert.Equal(t, uint64(4), gv.Gather.Offset)

	ge := GatherEnumOf(GatherInteger(0, 4, false, GatherAccessDirect), MappingValue(1, "on"))
	assert.Equal(t, LabelGatherEnum, ge.Label)
	assert.Equal(t, LabelGatherInteger, ge.Enum.Elem.Label)

	assert.Equal(t, uint8(2), GatherString(0, 2, GatherAccessDirect).Str.UnitSize)
}

func TestWithAttrs(t *testing.T) {
	ty := U32().WithAttrs(AttrString("unit", "ms"), AttrU64("max", 1000))
	assert.Len(t, ty.Attrs, 2)
	assert.Equal(t, "unit", ty.Attrs[0].Key)
	assert.Equal(t, "ms", ty.Attrs[0].Value.Str)
	assert.Equal(t, uint64(1000), ty.Attrs[1].Value.Scalar.Uint64())
}

func TestArgConstructors(t *testing.T) {
	a := ArgS32(-7)
	assert.Equal(t, LabelS32, a.Label)
	assert.Equal(t, int64(-7), a.IntegerValue(S32().Integer).Int64())

	u := ArgU64(1 << 40)
	assert.Equal(t, uint64(1)<<40, u.Scalar.Uint64())

	f := ArgF64(2.5)
	assert.Equal(t, 2.5, f.FloatValue(F64().Float))
	assert.Equal(t, 1.0, ArgF16Bits(0x3c00).FloatValue(F16().Float))

	assert.True(t, ArgBool(true).BoolValue(Bool().Bool))
	assert.False(t, ArgBool(false).BoolValue(Bool().Bool))

	s := ArgString16("héllo")
	assert.Equal(t, LabelString16, s.Label)
	assert.Equal(t, "héllo", s.Str.String())

	st := ArgStruct(ArgU8(1), ArgU8(2))
	assert.Equal(t, LabelStruct, st.Label)
	assert.Len(t, st.Vec, 2)

	va := ArgVariant(ArgU8(1), ArgU64(99))
	assert.Equal(t, LabelU8, va.Variant.Selector.Label)
	assert.Equal(t, uint64(99), va.Variant.Value.Scalar.Uint64())

	some := ArgOptional(ArgU16(3))
	assert.True(t, some.Optional.Present)
	assert.Equal(t, uint64(3), some.Optional.Value.Scalar.Uint64())
	assert.False(t, ArgOptionalNone().Optional.Present)

	g := ArgGatherStruct(0xbeef)
	assert.Equal(t, LabelGatherStruct, g.Label)
	assert.Equal(t, uint64(0xbeef), g.Addr)

	inc := ArgU32(0).AsIncomplete()
	assert.True(t, inc.Incomplete())
	assert.False(t, ArgU32(0).Incomplete())
}

func TestDynConstructors(t *testing.T) {
	d := DynS64(-12)
	assert.Equal(t, LabelDynamicInteger, d.Label)
	assert.Equal(t, int64(-12), d.Dyn.Scalar.Resolve(8, abi.HostOrder, 0, 0, true).Int128().Int64())
	assert.True(t, d.Dyn.Integer.Signed)

	ds := DynStructOf(
		DynFieldOf("pid", DynU32(42)),
		DynFieldOf("comm", DynString("cat")),
	)
	assert.Equal(t, LabelDynamicStruct, ds.Label)
	assert.Len(t, ds.Dyn.Fields, 2)
	assert.Equal(t, "comm", ds.Dyn.Fields[1].Name)

	dv := DynVLAOf(DynU8(1), DynU8(2), DynU8(3))
	assert.Equal(t, LabelDynamicVLA, dv.Label)
	assert.Len(t, dv.Dyn.Elems, 3)

	withAttrs := DynU32(5).WithDynAttrs(AttrBool("hex", true))
	assert.Len(t, withAttrs.Dyn.Attrs, 1)
}
