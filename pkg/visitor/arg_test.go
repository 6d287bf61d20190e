// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efficios/go-side/pkg/side"
)

// argTrace records every argument callback, with resolved values, as
// a flat token list.
type argTrace struct {
	got []string
}

func (tr *argTrace) add(format string, args ...any) {
	tr.got = append(tr.got, fmt.Sprintf(format, args...))
}

func (tr *argTrace) callbacks() *ArgCallbacks {
	return &ArgCallbacks{
		BeforeEvent: func(ev *side.EventDescription, _ uint64) { tr.add("before_event %s", ev.FullName()) },
		AfterEvent:  func(ev *side.EventDescription) { tr.add("after_event %s", ev.FullName()) },

		BeforeStaticFields:   func(*side.EventDescription) { tr.add("before_static_fields") },
		AfterStaticFields:    func(*side.EventDescription) { tr.add("after_static_fields") },
		BeforeVariadicFields: func(*side.EventDescription) { tr.add("before_variadic_fields") },
		AfterVariadicFields:  func(*side.EventDescription) { tr.add("after_variadic_fields") },

		BeforeField: func(f *side.Field) { tr.add("before_field %s", f.Name) },
		AfterField:  func(f *side.Field) { tr.add("after_field %s", f.Name) },
		BeforeElem:  func(d *side.Type) { tr.add("before_elem %s", d.Label) },
		AfterElem:   func(d *side.Type) { tr.add("after_elem %s", d.Label) },

		Null: func(*side.Type, *side.Arg) { tr.add("null") },
		Bool: func(d *side.Type, a *side.Arg) { tr.add("bool %v", a.BoolValue(d.Bool)) },
		Integer: func(d *side.Type, a *side.Arg) {
			if a.Incomplete() {
				tr.add("integer %s incomplete", d.Label)
				return
			}
			tr.add("integer %s %s", d.Label, a.IntegerValue(d.Integer))
		},
		Byte:    func(_ *side.Type, a *side.Arg) { tr.add("byte %d", a.Scalar.Lo) },
		Pointer: func(d *side.Type, a *side.Arg) { tr.add("pointer 0x%x", a.IntegerValue(d.Integer).Lo) },
		Float:   func(d *side.Type, a *side.Arg) { tr.add("float %s %v", d.Label, a.FloatValue(d.Float)) },
		String:  func(d *side.Type, a *side.Arg) { tr.add("string %s %q", d.Label, a.Str.String()) },

		BeforeStruct: func(_ *side.Type, vec side.ArgVector) { tr.add("before_struct %d", len(vec)) },
		AfterStruct:  func(*side.Type) { tr.add("after_struct") },

		BeforeArray: func(_ *side.Type, vec side.ArgVector) { tr.add("before_array %d", len(vec)) },
		AfterArray:  func(*side.Type) { tr.add("after_array") },

		BeforeVLA:       func(_ *side.Type, vec side.ArgVector) { tr.add("before_vla %d", len(vec)) },
		AfterLengthVLA:  func(*side.Type) { tr.add("after_length_vla") },
		AfterElementVLA: func(*side.Type) { tr.add("after_element_vla") },
		AfterVLA:        func(*side.Type) { tr.add("after_vla") },

		BeforeVLAVisitor:       func(*side.Type) { tr.add("before_vla_visitor") },
		AfterElementVLAVisitor: func(*side.Type) { tr.add("after_element_vla_visitor") },
		AfterVLAVisitor:        func(*side.Type) { tr.add("after_vla_visitor") },

		BeforeVariant:        func(*side.Type, *side.VariantArg) { tr.add("before_variant") },
		AfterVariantSelector: func(*side.Type) { tr.add("after_variant_selector") },
		AfterVariant:         func(*side.Type) { tr.add("after_variant") },

		Enum: func(_ *side.Type, _ *side.Arg, labels []string) {
			tr.add("enum [%s]", strings.Join(labels, " "))
		},
		EnumBitmap: func(_ *side.Type, _ *side.Arg, labels []string) {
			tr.add("enum_bitmap [%s]", strings.Join(labels, " "))
		},

		BeforeOptional: func(*side.Type) { tr.add("before_optional") },
		AfterOptional:  func(*side.Type) { tr.add("after_optional") },
		OptionalAbsent: func(*side.Type) { tr.add("optional_absent") },

		GatherBool: func(d *side.Type, a *side.Arg) { tr.add("gather_bool %v", a.BoolValue(d.Bool)) },
		GatherInteger: func(d *side.Type, a *side.Arg) {
			if a.Incomplete() {
				tr.add("gather_integer incomplete")
				return
			}
			tr.add("gather_integer %s", a.IntegerValue(d.Integer))
		},
		GatherByte:    func(_ *side.Type, a *side.Arg) { tr.add("gather_byte %d", a.Scalar.Lo) },
		GatherPointer: func(d *side.Type, a *side.Arg) { tr.add("gather_pointer 0x%x", a.IntegerValue(d.Integer).Lo) },
		GatherFloat:   func(d *side.Type, a *side.Arg) { tr.add("gather_float %v", a.FloatValue(d.Float)) },
		GatherString:  func(_ *side.Type, a *side.Arg) { tr.add("gather_string %q", a.Str.String()) },

		BeforeGatherStruct: func(*side.Type) { tr.add("before_gather_struct") },
		AfterGatherStruct:  func(*side.Type) { tr.add("after_gather_struct") },
		BeforeGatherArray:  func(*side.Type) { tr.add("before_gather_array") },
		AfterGatherArray:   func(*side.Type) { tr.add("after_gather_array") },
		BeforeGatherVLA:    func(_ *side.Type, length uint32) { tr.add("before_gather_vla %d", length) },
		AfterGatherVLA:     func(*side.Type) { tr.add("after_gather_vla") },
		GatherEnum: func(_ *side.Type, _ *side.Arg, labels []string) {
			tr.add("gather_enum [%s]", strings.Join(labels, " "))
		},

		DynNull: func(*side.Arg) { tr.add("dyn_null") },
		DynBool: func(a *side.Arg) { tr.add("dyn_bool %v", a.Dyn.BoolValue()) },
		DynInteger: func(a *side.Arg) {
			if a.Incomplete() {
				tr.add("dyn_integer incomplete")
				return
			}
			tr.add("dyn_integer %s", a.Dyn.IntegerValue())
		},
		DynByte:    func(a *side.Arg) { tr.add("dyn_byte %d", a.Dyn.Scalar.Lo) },
		DynPointer: func(a *side.Arg) { tr.add("dyn_pointer 0x%x", a.Dyn.IntegerValue().Lo) },
		DynFloat:   func(a *side.Arg) { tr.add("dyn_float %v", a.Dyn.FloatValue()) },
		DynString:  func(a *side.Arg) { tr.add("dyn_string %q", a.Dyn.Str.String()) },

		BeforeDynStruct: func(*side.Arg) { tr.add("before_dyn_struct") },
		AfterDynStruct:  func(*side.Arg) { tr.add("after_dyn_struct") },
		BeforeDynField:  func(f *side.DynamicField) { tr.add("before_dyn_field %s", f.Name) },
		AfterDynField:   func(f *side.DynamicField) { tr.add("after_dyn_field %s", f.Name) },
		BeforeDynVLA:    func(*side.Arg) { tr.add("before_dyn_vla") },
		AfterDynVLA:     func(*side.Arg) { tr.add("after_dyn_vla") },
	}
}

func (tr *argTrace) walk(ev *side.EventDescription, args ...side.Arg) error {
	return WalkArguments(Config{Callbacks: tr.callbacks()}, ev, args, nil, 0)
}

func eventOf(fields ...side.Field) *side.EventDescription {
	return side.NewEvent("p", "e", side.LoglevelDebug, fields...)
}

// fieldTrace is the expected trace of a single field named "x",
// wrapped in the envelope every event walk emits.
func fieldTrace(inner ...string) []string {
	out := []string{"before_event p:e", "before_static_fields", "before_field x"}
	out = append(out, inner...)
	return append(out, "after_field x", "after_static_fields", "after_event p:e")
}

func TestArgumentsEmptyEvent(t *testing.T) {
	tr := &argTrace{}
	require.NoError(t, tr.walk(eventOf()))
	assert.Equal(t, []string{"before_event p:e", "after_event p:e"}, tr.got)
}

func TestArgumentsSingleInteger(t *testing.T) {
	tr := &argTrace{}
	ev := eventOf(side.FieldOf("x", side.S32()))
	require.NoError(t, tr.walk(ev, side.ArgS32(42)))
	assert.Equal(t, fieldTrace("integer S32 42"), tr.got)
}

func TestArgumentsScalarKinds(t *testing.T) {
	ev := eventOf(
		side.FieldOf("a", side.Bool()),
		side.FieldOf("b", side.Byte()),
		side.FieldOf("c", side.Pointer()),
		side.FieldOf("d", side.F64()),
		side.FieldOf("e", side.String()),
		side.FieldOf("f", side.Null()),
	)
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev,
		side.ArgBool(true),
		side.ArgByte(7),
		side.ArgPointer(0xcafe),
		side.ArgF64(-2.25),
		side.ArgString("x"),
		side.ArgNull(),
	))
	assert.Equal(t, []string{
		"before_event p:e",
		"before_static_fields",
		"before_field a", "bool true", "after_field a",
		"before_field b", "byte 7", "after_field b",
		"before_field c", "pointer 0xcafe", "after_field c",
		"before_field d", "float F64 -2.25", "after_field d",
		"before_field e", `string String8 "x"`, "after_field e",
		"before_field f", "null", "after_field f",
		"after_static_fields",
		"after_event p:e",
	}, tr.got)
}

func TestArgumentsStructField(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.StructOf(
		side.FieldOf("a", side.U8()),
		side.FieldOf("b", side.String()),
	)))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgStruct(side.ArgU8(1), side.ArgString("x"))))
	assert.Equal(t, fieldTrace(
		"before_struct 2",
		"before_field a", "integer U8 1", "after_field a",
		"before_field b", `string String8 "x"`, "after_field b",
		"after_struct",
	), tr.got)
}

func TestArgumentsVariant(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VariantOf(side.S32(),
		side.OptionOf(0, 9, side.Bool()),
		side.OptionOf(10, 10, side.U32()),
	)))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgVariant(side.ArgS32(10), side.ArgU32(777))))
	// The bool option's payload is never visited.
	assert.Equal(t, fieldTrace(
		"before_variant",
		"integer S32 10",
		"after_variant_selector",
		"integer U32 777",
		"after_variant",
	), tr.got)
}

func TestArgumentsVariantUnmatched(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VariantOf(side.S32(),
		side.OptionOf(0, 9, side.Bool()),
	)))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgVariant(side.ArgS32(99), side.ArgBool(true)))
	var sel *UnmatchedSelectorError
	require.ErrorAs(t, err, &sel)
	assert.Equal(t, int64(99), sel.Value.Int64())
	assert.Equal(t, []string{
		"before_event p:e",
		"before_static_fields",
		"before_field x",
		"before_variant",
		"integer S32 99",
		"after_variant_selector",
	}, tr.got)
}

func TestArgumentsVariantIncompleteSelector(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VariantOf(side.S32(),
		side.OptionOf(0, 9, side.U32()),
	)))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev,
		side.ArgVariant(side.ArgS32(5).AsIncomplete(), side.ArgU32(1))))
	assert.Equal(t, fieldTrace(
		"before_variant",
		"integer S32 incomplete",
		"after_variant_selector",
		"after_variant",
	), tr.got)
}

func TestArgumentsVLA(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VLAOf(side.U16(), side.U32())))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgVLA(side.ArgU16(7), side.ArgU16(8), side.ArgU16(9))))
	assert.Equal(t, fieldTrace(
		"before_vla 3",
		"integer U32 3",
		"after_length_vla",
		"before_elem U16", "integer U16 7", "after_elem U16",
		"before_elem U16", "integer U16 8", "after_elem U16",
		"before_elem U16", "integer U16 9", "after_elem U16",
		"after_element_vla",
		"after_vla",
	), tr.got)
}

func TestArgumentsVLAEmpty(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VLAOf(side.U16(), side.U32())))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgVLA()))
	assert.Equal(t, fieldTrace(
		"before_vla 0",
		"integer U32 0",
		"after_length_vla",
		"after_element_vla",
		"after_vla",
	), tr.got)
}

func TestArgumentsVLAVisitor(t *testing.T) {
	visitor := func(ctx side.VLAVisitorContext, appCtx any) error {
		for _, v := range appCtx.([]uint16) {
			if err := ctx.WriteElem(side.ArgU16(v)); err != nil {
				return err
			}
		}
		return nil
	}
	ev := eventOf(side.FieldOf("x", side.VLAVisitorOf(side.U16(), side.U32(), visitor)))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgVLAVisitor([]uint16{7, 8, 9})))
	assert.Equal(t, fieldTrace(
		"before_vla_visitor",
		"before_elem U16", "integer U16 7", "after_elem U16",
		"before_elem U16", "integer U16 8", "after_elem U16",
		"before_elem U16", "integer U16 9", "after_elem U16",
		"after_element_vla_visitor",
		"after_vla_visitor",
	), tr.got)
}

func TestArgumentsVLAVisitorAbort(t *testing.T) {
	errBoom := errors.New("boom")
	visitor := func(ctx side.VLAVisitorContext, _ any) error {
		if err := ctx.WriteElem(side.ArgU16(1)); err != nil {
			return err
		}
		return errBoom
	}
	ev := eventOf(side.FieldOf("x", side.VLAVisitorOf(side.U16(), side.U32(), visitor)))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgVLAVisitor(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVisitorAbort)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []string{
		"before_event p:e",
		"before_static_fields",
		"before_field x",
		"before_vla_visitor",
		"before_elem U16", "integer U16 1", "after_elem U16",
	}, tr.got)
}

func TestArgumentsVLAVisitorMissing(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VLAVisitorOf(side.U16(), side.U32(), nil)))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgVLAVisitor(nil))
	var missing *MissingVisitorError
	require.ErrorAs(t, err, &missing)
}

func TestArgumentsEnum(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.EnumOf(side.U32(),
		side.MappingRange(0, 9, "low"),
		side.MappingRange(5, 15, "mid"),
	)))

	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgU32(7)))
	assert.Equal(t, fieldTrace("enum [low mid]"), tr.got)

	tr = &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgU32(99)))
	assert.Equal(t, fieldTrace("enum []"), tr.got)
}

func TestArgumentsEnumBitmap(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.BitmapOf(side.U128(),
		side.MappingValue(0, "b0"),
		side.MappingRange(1, 3, "low"),
		side.MappingValue(64, "hi"),
	)))

	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgU128(0, 0b0100)))
	assert.Equal(t, fieldTrace("enum_bitmap [low]"), tr.got)

	tr = &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgU128(1, 1)))
	assert.Equal(t, fieldTrace("enum_bitmap [b0 hi]"), tr.got)
}

func TestArgumentsOptional(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.OptionalOf(side.S32())))

	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgOptional(side.ArgS32(-3))))
	assert.Equal(t, fieldTrace("before_optional", "integer S32 -3", "after_optional"), tr.got)

	tr = &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgOptionalNone()))
	assert.Equal(t, fieldTrace("optional_absent"), tr.got)
}

// An incomplete value produces its sentinel callback and the walk
// moves on to the next field.
func TestArgumentsIncomplete(t *testing.T) {
	ev := eventOf(
		side.FieldOf("x", side.S32()),
		side.FieldOf("y", side.U32()),
	)
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgS32(1).AsIncomplete(), side.ArgU32(5)))
	assert.Equal(t, []string{
		"before_event p:e",
		"before_static_fields",
		"before_field x", "integer S32 incomplete", "after_field x",
		"before_field y", "integer U32 5", "after_field y",
		"after_static_fields",
		"after_event p:e",
	}, tr.got)
}

func TestArgumentsIncompleteCompound(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.StructOf(side.FieldOf("a", side.U8()))))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.ArgStruct(side.ArgU8(1)).AsIncomplete()))
	assert.Equal(t, fieldTrace("before_struct 0", "after_struct"), tr.got)
}

func TestArgumentsCountMismatch(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.U8()), side.FieldOf("y", side.U8()))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgU8(1))
	var count *CountMismatchError
	require.ErrorAs(t, err, &count)
	assert.Equal(t, 2, count.Want)
	assert.Equal(t, 1, count.Got)
	assert.Empty(t, tr.got)
}

func TestArgumentsStructCountMismatch(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.StructOf(
		side.FieldOf("a", side.U8()),
		side.FieldOf("b", side.U8()),
	)))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgStruct(side.ArgU8(1)))
	var count *CountMismatchError
	require.ErrorAs(t, err, &count)
	assert.Equal(t, 2, count.Want)
	assert.Equal(t, 1, count.Got)
}

func TestArgumentsArrayCountMismatch(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.ArrayOf(side.U8(), 3)))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgArray(side.ArgU8(1), side.ArgU8(2)))
	var count *CountMismatchError
	require.ErrorAs(t, err, &count)
	assert.Equal(t, 3, count.Want)
	assert.Equal(t, 2, count.Got)
}

func TestArgumentsLabelMismatch(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.S32()))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgU32(1))
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, side.LabelS32, mismatch.Want)
	assert.Equal(t, side.LabelU32, mismatch.Got)
}

func TestArgumentsVariadic(t *testing.T) {
	ev := side.NewVariadicEvent("p", "e", side.LoglevelDebug,
		side.FieldOf("x", side.U8()))
	tr := &argTrace{}
	err := WalkArguments(Config{Callbacks: tr.callbacks()}, ev,
		side.ArgVector{side.ArgU8(1)},
		[]side.DynamicField{
			side.DynFieldOf("k", side.DynS64(-4)),
			side.DynFieldOf("s", side.DynString("hi")),
		}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"before_event p:e",
		"before_static_fields",
		"before_field x", "integer U8 1", "after_field x",
		"after_static_fields",
		"before_variadic_fields",
		"before_dyn_field k", "dyn_integer -4", "after_dyn_field k",
		"before_dyn_field s", `dyn_string "hi"`, "after_dyn_field s",
		"after_variadic_fields",
		"after_event p:e",
	}, tr.got)
}

// The variadic brackets fire even when a call site appends nothing.
func TestArgumentsVariadicEmpty(t *testing.T) {
	ev := side.NewVariadicEvent("p", "e", side.LoglevelDebug)
	tr := &argTrace{}
	require.NoError(t, WalkArguments(Config{Callbacks: tr.callbacks()}, ev, nil, nil, 0))
	assert.Equal(t, []string{
		"before_event p:e",
		"before_variadic_fields",
		"after_variadic_fields",
		"after_event p:e",
	}, tr.got)
}

func TestArgumentsVariadicOnNonVariadic(t *testing.T) {
	ev := eventOf()
	err := WalkArguments(Config{}, ev, nil,
		[]side.DynamicField{side.DynFieldOf("k", side.DynU8(1))}, 0)
	assert.ErrorContains(t, err, "non-variadic")
}

func TestArgumentsDynamicKinds(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tests := []struct {
		name string
		arg  side.Arg
		want []string
	}{
		{name: "null", arg: side.DynNull(), want: []string{"dyn_null"}},
		{name: "bool", arg: side.DynBool(true), want: []string{"dyn_bool true"}},
		{name: "integer", arg: side.DynS32(-9), want: []string{"dyn_integer -9"}},
		{name: "byte", arg: side.DynByte(9), want: []string{"dyn_byte 9"}},
		{name: "pointer", arg: side.DynPointer(0xbeef), want: []string{"dyn_pointer 0xbeef"}},
		{name: "float", arg: side.DynF64(1.5), want: []string{"dyn_float 1.5"}},
		{name: "string", arg: side.DynString16("é"), want: []string{`dyn_string "é"`}},
		{
			name: "struct",
			arg: side.DynStructOf(
				side.DynFieldOf("k", side.DynU32(1)),
			),
			want: []string{
				"before_dyn_struct",
				"before_dyn_field k", "dyn_integer 1", "after_dyn_field k",
				"after_dyn_struct",
			},
		},
		{
			name: "vla",
			arg:  side.DynVLAOf(side.DynU8(1), side.DynU8(2)),
			want: []string{"before_dyn_vla", "dyn_integer 1", "dyn_integer 2", "after_dyn_vla"},
		},
		{
			name: "nested",
			arg: side.DynVLAOf(
				side.DynStructOf(side.DynFieldOf("n", side.DynU8(3))),
			),
			want: []string{
				"before_dyn_vla",
				"before_dyn_struct",
				"before_dyn_field n", "dyn_integer 3", "after_dyn_field n",
				"after_dyn_struct",
				"after_dyn_vla",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &argTrace{}
			require.NoError(t, tr.walk(ev, tc.arg))
			assert.Equal(t, fieldTrace(tc.want...), tr.got)
		})
	}
}

func TestArgumentsDynamicStructVisitor(t *testing.T) {
	sv := func(ctx side.DynamicStructVisitorContext, _ any) error {
		return ctx.WriteField("n", side.DynU16(3))
	}
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.DynStructVisitorOf(sv, nil)))
	assert.Equal(t, fieldTrace(
		"before_dyn_struct",
		"before_dyn_field n", "dyn_integer 3", "after_dyn_field n",
		"after_dyn_struct",
	), tr.got)
}

func TestArgumentsDynamicVLAVisitor(t *testing.T) {
	vv := func(ctx side.VLAVisitorContext, _ any) error {
		if err := ctx.WriteElem(side.DynU8(1)); err != nil {
			return err
		}
		return ctx.WriteElem(side.DynU8(2))
	}
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	require.NoError(t, tr.walk(ev, side.DynVLAVisitorOf(vv, nil)))
	assert.Equal(t, fieldTrace(
		"before_dyn_vla", "dyn_integer 1", "dyn_integer 2", "after_dyn_vla",
	), tr.got)
}

func TestArgumentsDynamicVisitorAbort(t *testing.T) {
	errBoom := errors.New("boom")
	sv := func(side.DynamicStructVisitorContext, any) error { return errBoom }
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	err := tr.walk(ev, side.DynStructVisitorOf(sv, nil))
	assert.ErrorIs(t, err, ErrVisitorAbort)
	assert.ErrorIs(t, err, errBoom)
}

func TestArgumentsDynamicVisitorMissing(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	err := tr.walk(ev, side.DynStructVisitorOf(nil, nil))
	var missing *MissingVisitorError
	require.ErrorAs(t, err, &missing)
}

// A dynamic VLA visitor may only stream dynamic values; the engine
// error wins over the visitor's return value.
func TestArgumentsDynamicVLAVisitorBadElem(t *testing.T) {
	vv := func(ctx side.VLAVisitorContext, _ any) error {
		return ctx.WriteElem(side.ArgU32(5))
	}
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	err := tr.walk(ev, side.DynVLAVisitorOf(vv, nil))
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.NotErrorIs(t, err, ErrVisitorAbort)
}

func TestArgumentsDynamicMismatch(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.Dynamic()))
	tr := &argTrace{}
	err := tr.walk(ev, side.ArgU32(1))
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, side.LabelDynamic, mismatch.Want)
}

func TestArgumentsCaller(t *testing.T) {
	var got uint64
	cb := &ArgCallbacks{
		BeforeEvent: func(_ *side.EventDescription, caller uint64) { got = caller },
	}
	require.NoError(t, WalkArguments(Config{Callbacks: cb}, eventOf(), nil, nil, 0xdeadbeef))
	assert.Equal(t, uint64(0xdeadbeef), got)
}

// A walk with no callbacks installed is validation only.
func TestArgumentsNilCallbacks(t *testing.T) {
	ev := eventOf(side.FieldOf("x", side.VLAOf(side.U8(), side.U32())))
	assert.NoError(t, WalkArguments(Config{}, ev, side.ArgVector{side.ArgVLA(side.ArgU8(1))}, nil, 0))
}
