// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
)

// descTrace records every description callback as a flat token list,
// so tests assert the exact walk order.
type descTrace struct {
	got []string
}

func (tr *descTrace) add(format string, args ...any) {
	tr.got = append(tr.got, fmt.Sprintf(format, args...))
}

func (tr *descTrace) callbacks() *DescCallbacks {
	return &DescCallbacks{
		BeforeEvent:        func(ev *side.EventDescription) { tr.add("before_event %s", ev.FullName()) },
		AfterEvent:         func(ev *side.EventDescription) { tr.add("after_event %s", ev.FullName()) },
		BeforeStaticFields: func(*side.EventDescription) { tr.add("before_static_fields") },
		AfterStaticFields:  func(*side.EventDescription) { tr.add("after_static_fields") },

		BeforeField: func(f *side.Field) { tr.add("before_field %s", f.Name) },
		AfterField:  func(f *side.Field) { tr.add("after_field %s", f.Name) },
		BeforeElem:  func(d *side.Type) { tr.add("before_elem %s", d.Label) },
		AfterElem:   func(d *side.Type) { tr.add("after_elem %s", d.Label) },

		Null:    func(*side.Type) { tr.add("null") },
		Bool:    func(*side.Type) { tr.add("bool") },
		Integer: func(d *side.Type) { tr.add("integer %s", d.Label) },
		Byte:    func(*side.Type) { tr.add("byte") },
		Pointer: func(*side.Type) { tr.add("pointer") },
		Float:   func(d *side.Type) { tr.add("float %s", d.Label) },
		String:  func(d *side.Type) { tr.add("string %s", d.Label) },
		Dynamic: func(*side.Type) { tr.add("dynamic") },

		BeforeStruct: func(*side.Type) { tr.add("before_struct") },
		AfterStruct:  func(*side.Type) { tr.add("after_struct") },

		BeforeVariant:        func(*side.Type) { tr.add("before_variant") },
		AfterVariantSelector: func(*side.Type) { tr.add("after_variant_selector") },
		AfterVariant:         func(*side.Type) { tr.add("after_variant") },

		BeforeArray: func(*side.Type) { tr.add("before_array") },
		AfterArray:  func(*side.Type) { tr.add("after_array") },

		BeforeVLA:       func(*side.Type) { tr.add("before_vla") },
		AfterLengthVLA:  func(*side.Type) { tr.add("after_length_vla") },
		AfterElementVLA: func(*side.Type) { tr.add("after_element_vla") },
		AfterVLA:        func(*side.Type) { tr.add("after_vla") },

		BeforeVLAVisitor:       func(*side.Type) { tr.add("before_vla_visitor") },
		AfterLengthVLAVisitor:  func(*side.Type) { tr.add("after_length_vla_visitor") },
		AfterElementVLAVisitor: func(*side.Type) { tr.add("after_element_vla_visitor") },
		AfterVLAVisitor:        func(*side.Type) { tr.add("after_vla_visitor") },

		BeforeEnum: func(*side.Type) { tr.add("before_enum") },
		AfterEnum:  func(*side.Type) { tr.add("after_enum") },

		BeforeEnumBitmap: func(*side.Type) { tr.add("before_enum_bitmap") },
		AfterEnumBitmap:  func(*side.Type) { tr.add("after_enum_bitmap") },

		BeforeOptional: func(*side.Type) { tr.add("before_optional") },
		AfterOptional:  func(*side.Type) { tr.add("after_optional") },

		GatherBool:    func(*side.Type) { tr.add("gather_bool") },
		GatherInteger: func(*side.Type) { tr.add("gather_integer") },
		GatherByte:    func(*side.Type) { tr.add("gather_byte") },
		GatherPointer: func(*side.Type) { tr.add("gather_pointer") },
		GatherFloat:   func(*side.Type) { tr.add("gather_float") },
		GatherString:  func(*side.Type) { tr.add("gather_string") },

		BeforeGatherStruct: func(*side.Type) { tr.add("before_gather_struct") },
		AfterGatherStruct:  func(*side.Type) { tr.add("after_gather_struct") },

		BeforeGatherArray: func(*side.Type) { tr.add("before_gather_array") },
		AfterGatherArray:  func(*side.Type) { tr.add("after_gather_array") },

		BeforeGatherVLA:       func(*side.Type) { tr.add("before_gather_vla") },
		AfterLengthGatherVLA:  func(*side.Type) { tr.add("after_length_gather_vla") },
		AfterElementGatherVLA: func(*side.Type) { tr.add("after_element_gather_vla") },
		AfterGatherVLA:        func(*side.Type) { tr.add("after_gather_vla") },

		BeforeGatherEnum: func(*side.Type) { tr.add("before_gather_enum") },
		AfterGatherEnum:  func(*side.Type) { tr.add("after_gather_enum") },
	}
}

func TestDescriptionEmptyEvent(t *testing.T) {
	ev := side.NewEvent("p", "e", side.LoglevelInfo)
	tr := &descTrace{}
	require.NoError(t, WalkDescription(tr.callbacks(), ev))
	assert.Equal(t, []string{
		"before_event p:e",
		"after_event p:e",
	}, tr.got)
}

func TestDescriptionScalarFields(t *testing.T) {
	ev := side.NewEvent("myprov", "scalars", side.LoglevelDebug,
		side.FieldOf("a", side.U32()),
		side.FieldOf("b", side.String()),
		side.FieldOf("c", side.F64()),
		side.FieldOf("d", side.Dynamic()),
	)
	tr := &descTrace{}
	require.NoError(t, WalkDescription(tr.callbacks(), ev))
	assert.Equal(t, []string{
		"before_event myprov:scalars",
		"before_static_fields",
		"before_field a",
		"integer U32",
		"after_field a",
		"before_field b",
		"string String8",
		"after_field b",
		"before_field c",
		"float F64",
		"after_field c",
		"before_field d",
		"dynamic",
		"after_field d",
		"after_static_fields",
		"after_event myprov:scalars",
	}, tr.got)
}

func TestDescriptionNestedCompounds(t *testing.T) {
	d := side.StructOf(
		side.FieldOf("arr", side.ArrayOf(side.U16(), 4)),
		side.FieldOf("opt", side.OptionalOf(side.Bool())),
	)
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_struct",
		"before_field arr",
		"before_array",
		"before_elem U16",
		"integer U16",
		"after_elem U16",
		"after_array",
		"after_field arr",
		"before_field opt",
		"before_optional",
		"bool",
		"after_optional",
		"after_field opt",
		"after_struct",
	}, tr.got)
}

func TestDescriptionVariant(t *testing.T) {
	d := side.VariantOf(side.S32(),
		side.OptionOf(0, 9, side.Bool()),
		side.OptionOf(10, 19, side.U32()),
	)
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_variant",
		"integer S32",
		"after_variant_selector",
		"bool",
		"integer U32",
		"after_variant",
	}, tr.got)
}

func TestDescriptionVLA(t *testing.T) {
	d := side.VLAOf(side.U16(), side.U32())
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_vla",
		"integer U32",
		"after_length_vla",
		"before_elem U16",
		"integer U16",
		"after_elem U16",
		"after_element_vla",
		"after_vla",
	}, tr.got)
}

func TestDescriptionVLAVisitor(t *testing.T) {
	d := side.VLAVisitorOf(side.U16(), side.U32(),
		func(side.VLAVisitorContext, any) error { return nil })
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_vla_visitor",
		"integer U32",
		"after_length_vla_visitor",
		"before_elem U16",
		"integer U16",
		"after_elem U16",
		"after_element_vla_visitor",
		"after_vla_visitor",
	}, tr.got)
}

func TestDescriptionEnums(t *testing.T) {
	tests := []struct {
		name string
		d    *side.Type
		want []string
	}{
		{
			name: "enum",
			d:    side.EnumOf(side.U32(), side.MappingValue(1, "one")),
			want: []string{"before_enum", "integer U32", "after_enum"},
		},
		{
			name: "bitmap",
			d:    side.BitmapOf(side.U64(), side.MappingRange(0, 3, "low")),
			want: []string{"before_enum_bitmap", "integer U64", "after_enum_bitmap"},
		},
		{
			name: "gather enum",
			d: side.GatherEnumOf(
				side.GatherInteger(0, 4, false, side.GatherAccessDirect),
				side.MappingValue(1, "one")),
			want: []string{"before_gather_enum", "gather_integer", "after_gather_enum"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := &descTrace{}
			require.NoError(t, WalkType(tr.callbacks(), tc.d))
			assert.Equal(t, tc.want, tr.got)
		})
	}
}

func TestDescriptionGatherStruct(t *testing.T) {
	d := side.GatherStructOf(0, side.GatherAccessDirect, 16,
		side.FieldOf("x", side.GatherInteger(0, 4, false, side.GatherAccessDirect)),
		side.FieldOf("s", side.GatherString(8, 1, side.GatherAccessPointer)),
	)
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_gather_struct",
		"before_field x",
		"gather_integer",
		"after_field x",
		"before_field s",
		"gather_string",
		"after_field s",
		"after_gather_struct",
	}, tr.got)
}

func TestDescriptionGatherArray(t *testing.T) {
	d := side.GatherArrayOf(
		side.GatherFloat(0, 8, side.GatherAccessDirect),
		3, 0, side.GatherAccessDirect)
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_gather_array",
		"before_elem GatherFloat",
		"gather_float",
		"after_elem GatherFloat",
		"after_gather_array",
	}, tr.got)
}

func TestDescriptionGatherVLA(t *testing.T) {
	d := side.GatherVLAOf(
		side.GatherInteger(0, 2, false, side.GatherAccessDirect),
		side.GatherInteger(0, 4, false, side.GatherAccessDirect),
		8, side.GatherAccessDirect)
	tr := &descTrace{}
	require.NoError(t, WalkType(tr.callbacks(), d))
	assert.Equal(t, []string{
		"before_gather_vla",
		"gather_integer",
		"after_length_gather_vla",
		"before_elem GatherInteger",
		"gather_integer",
		"after_elem GatherInteger",
		"after_element_gather_vla",
		"after_gather_vla",
	}, tr.got)
}

func TestDescriptionSchemaErrors(t *testing.T) {
	directU32 := func() *side.Type {
		return side.GatherInteger(0, 4, false, side.GatherAccessDirect)
	}
	tests := []struct {
		name    string
		d       *side.Type
		wantErr string
	}{
		{
			name:    "unknown label",
			d:       &side.Type{Label: side.Label(77)},
			wantErr: "unknown type label 77",
		},
		{
			name:    "dynamic label in static description",
			d:       &side.Type{Label: side.LabelDynamicInteger},
			wantErr: "misplaced type label DynamicInteger",
		},
		{
			name:    "non-integer variant selector",
			d:       side.VariantOf(side.String(), side.OptionOf(0, 0, side.Bool())),
			wantErr: "Variant selector may not be String8",
		},
		{
			name: "gather vla inside gather array",
			d: side.GatherArrayOf(
				side.GatherVLAOf(directU32(), directU32(), 0, side.GatherAccessDirect),
				2, 0, side.GatherAccessDirect),
			wantErr: "GatherArray element may not be GatherVLA",
		},
		{
			name: "gather vla inside gather vla",
			d: side.GatherVLAOf(
				side.GatherVLAOf(directU32(), directU32(), 0, side.GatherAccessDirect),
				directU32(), 0, side.GatherAccessDirect),
			wantErr: "GatherVLA element may not be GatherVLA",
		},
		{
			name:    "stack-copy gather vla length",
			d:       side.GatherVLAOf(directU32(), side.U32(), 0, side.GatherAccessDirect),
			wantErr: "GatherVLA length type may not be U32",
		},
		{
			name:    "non-integer vla length",
			d:       side.VLAOf(side.U16(), side.String()),
			wantErr: "VLA length type may not be String8",
		},
		{
			name:    "non-integer enum element",
			d:       side.EnumOf(side.String(), side.MappingValue(0, "zero")),
			wantErr: "Enum element may not be String8",
		},
		{
			name:    "gather enum over stack-copy integer",
			d:       side.GatherEnumOf(side.U32(), side.MappingValue(0, "zero")),
			wantErr: "GatherEnum element may not be U32",
		},
		{
			name:    "struct without record",
			d:       &side.Type{Label: side.LabelStruct},
			wantErr: "missing struct record",
		},
		{
			name: "non-gather field in gather struct",
			d: side.GatherStructOf(0, side.GatherAccessDirect, 8,
				side.FieldOf("x", side.U32())),
			wantErr: "GatherStruct field may not be U32",
		},
		{
			name: "direct gather string as array element",
			d: side.GatherArrayOf(
				side.GatherString(0, 1, side.GatherAccessDirect),
				2, 0, side.GatherAccessDirect),
			wantErr: "no element stride",
		},
		{
			name: "zero-size gather struct element",
			d: side.GatherArrayOf(
				side.GatherStructOf(0, side.GatherAccessDirect, 0,
					side.FieldOf("x", directU32())),
				2, 0, side.GatherAccessDirect),
			wantErr: "no declared byte size",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := WalkType(nil, tc.d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDescriptionBadByteOrder(t *testing.T) {
	d := side.U32()
	d.Integer.Order = abi.ByteOrder(9)
	err := WalkType(nil, d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadByteOrder)
}

func TestDescriptionBadSize(t *testing.T) {
	err := WalkType(nil, side.SizedBool(3))
	assert.ErrorContains(t, err, "unsupported size 3")
}

// A walk with no callbacks installed is validation only and must not
// touch anything.
func TestDescriptionNilCallbacks(t *testing.T) {
	ev := side.NewEvent("p", "e", side.LoglevelInfo,
		side.FieldOf("x", side.VLAOf(side.U8(), side.U32())),
	)
	assert.NoError(t, WalkDescription(nil, ev))
}
