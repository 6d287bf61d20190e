// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package visitor drives the two coordinated tree walks of the
// instrumentation core: the description walk over an event's static
// type schema and the argument walk pairing that schema with the
// payload of one emission. Both are double dispatch on (type label,
// callback table); callbacks are optional function fields and absence
// means skip and continue. The walks hold no global state, so
// concurrent emissions of different events never interfere.
package visitor

import (
	"github.com/efficios/go-side/pkg/side"
)

// DescCallbacks receives the nodes of a description walk. Compound
// kinds are bracketed strictly before/after their children; the VLA
// kinds additionally mark the end of the length subtree and of the
// element subtree. Per-walk private state belongs in the closures or
// method receivers installed here.
type DescCallbacks struct {
	BeforeEvent        func(ev *side.EventDescription)
	AfterEvent         func(ev *side.EventDescription)
	BeforeStaticFields func(ev *side.EventDescription)
	AfterStaticFields  func(ev *side.EventDescription)

	BeforeField func(f *side.Field)
	AfterField  func(f *side.Field)
	BeforeElem  func(d *side.Type)
	AfterElem   func(d *side.Type)

	Null    func(d *side.Type)
	Bool    func(d *side.Type)
	Integer func(d *side.Type)
	Byte    func(d *side.Type)
	Pointer func(d *side.Type)
	Float   func(d *side.Type)
	String  func(d *side.Type)
	Dynamic func(d *side.Type)

	BeforeStruct func(d *side.Type)
	AfterStruct  func(d *side.Type)

	BeforeVariant        func(d *side.Type)
	AfterVariantSelector func(d *side.Type)
	AfterVariant         func(d *side.Type)

	BeforeArray func(d *side.Type)
	AfterArray  func(d *side.Type)

	BeforeVLA       func(d *side.Type)
	AfterLengthVLA  func(d *side.Type)
	AfterElementVLA func(d *side.Type)
	AfterVLA        func(d *side.Type)

	BeforeVLAVisitor       func(d *side.Type)
	AfterLengthVLAVisitor  func(d *side.Type)
	AfterElementVLAVisitor func(d *side.Type)
	AfterVLAVisitor        func(d *side.Type)

	BeforeEnum func(d *side.Type)
	AfterEnum  func(d *side.Type)

	BeforeEnumBitmap func(d *side.Type)
	AfterEnumBitmap  func(d *side.Type)

	BeforeOptional func(d *side.Type)
	AfterOptional  func(d *side.Type)

	GatherBool    func(d *side.Type)
	GatherInteger func(d *side.Type)
	GatherByte    func(d *side.Type)
	GatherPointer func(d *side.Type)
	GatherFloat   func(d *side.Type)
	GatherString  func(d *side.Type)

	BeforeGatherStruct func(d *side.Type)
	AfterGatherStruct  func(d *side.Type)

	BeforeGatherArray func(d *side.Type)
	AfterGatherArray  func(d *side.Type)

	BeforeGatherVLA       func(d *side.Type)
	AfterLengthGatherVLA  func(d *side.Type)
	AfterElementGatherVLA func(d *side.Type)
	AfterGatherVLA        func(d *side.Type)

	BeforeGatherEnum func(d *side.Type)
	AfterGatherEnum  func(d *side.Type)
}

// WalkDescription walks an event's full static schema. Schema
// violations abort the walk with the error; a description that walks
// cleanly here cannot fail schema validation at argument time.
func WalkDescription(cb *DescCallbacks, ev *side.EventDescription) error {
	if cb == nil {
		cb = &DescCallbacks{}
	}
	if cb.BeforeEvent != nil {
		cb.BeforeEvent(ev)
	}
	if len(ev.Fields) > 0 {
		if cb.BeforeStaticFields != nil {
			cb.BeforeStaticFields(ev)
		}
		for i := range ev.Fields {
			if err := walkDescField(cb, &ev.Fields[i]); err != nil {
				return err
			}
		}
		if cb.AfterStaticFields != nil {
			cb.AfterStaticFields(ev)
		}
	}
	if cb.AfterEvent != nil {
		cb.AfterEvent(ev)
	}
	return nil
}

// WalkType walks a single type description subtree.
func WalkType(cb *DescCallbacks, d *side.Type) error {
	if cb == nil {
		cb = &DescCallbacks{}
	}
	return walkDescType(cb, d)
}

func walkDescField(cb *DescCallbacks, f *side.Field) error {
	if f.Type == nil {
		return nilField(f.Name)
	}
	if cb.BeforeField != nil {
		cb.BeforeField(f)
	}
	if err := walkDescType(cb, f.Type); err != nil {
		return err
	}
	if cb.AfterField != nil {
		cb.AfterField(f)
	}
	return nil
}

func walkDescElem(cb *DescCallbacks, elem *side.Type) error {
	if cb.BeforeElem != nil {
		cb.BeforeElem(elem)
	}
	if err := walkDescType(cb, elem); err != nil {
		return err
	}
	if cb.AfterElem != nil {
		cb.AfterElem(elem)
	}
	return nil
}

func walkDescType(cb *DescCallbacks, d *side.Type) error {
	switch d.Label {
	case side.LabelNull:
		if cb.Null != nil {
			cb.Null(d)
		}
	case side.LabelBool:
		if err := checkBool(d); err != nil {
			return err
		}
		if cb.Bool != nil {
			cb.Bool(d)
		}
	case side.LabelU8, side.LabelU16, side.LabelU32, side.LabelU64, side.LabelU128,
		side.LabelS8, side.LabelS16, side.LabelS32, side.LabelS64, side.LabelS128:
		if err := checkInteger(d); err != nil {
			return err
		}
		if cb.Integer != nil {
			cb.Integer(d)
		}
	case side.LabelByte:
		if cb.Byte != nil {
			cb.Byte(d)
		}
	case side.LabelPointer:
		if err := checkInteger(d); err != nil {
			return err
		}
		if cb.Pointer != nil {
			cb.Pointer(d)
		}
	case side.LabelF16, side.LabelF32, side.LabelF64, side.LabelF128:
		if err := checkFloat(d); err != nil {
			return err
		}
		if cb.Float != nil {
			cb.Float(d)
		}
	case side.LabelString8, side.LabelString16, side.LabelString32:
		if err := checkString(d); err != nil {
			return err
		}
		if cb.String != nil {
			cb.String(d)
		}
	case side.LabelDynamic:
		if cb.Dynamic != nil {
			cb.Dynamic(d)
		}

	case side.LabelStruct:
		if d.Struct == nil {
			return malformed(d, "struct")
		}
		if cb.BeforeStruct != nil {
			cb.BeforeStruct(d)
		}
		for i := range d.Struct.Fields {
			if err := walkDescField(cb, &d.Struct.Fields[i]); err != nil {
				return err
			}
		}
		if cb.AfterStruct != nil {
			cb.AfterStruct(d)
		}

	case side.LabelVariant:
		if err := checkSelector(d); err != nil {
			return err
		}
		if cb.BeforeVariant != nil {
			cb.BeforeVariant(d)
		}
		if err := walkDescType(cb, d.Variant.Selector); err != nil {
			return err
		}
		if cb.AfterVariantSelector != nil {
			cb.AfterVariantSelector(d)
		}
		for i := range d.Variant.Options {
			if err := walkDescType(cb, d.Variant.Options[i].Type); err != nil {
				return err
			}
		}
		if cb.AfterVariant != nil {
			cb.AfterVariant(d)
		}

	case side.LabelArray:
		if d.Array == nil || d.Array.Elem == nil {
			return malformed(d, "array")
		}
		if cb.BeforeArray != nil {
			cb.BeforeArray(d)
		}
		if err := walkDescElem(cb, d.Array.Elem); err != nil {
			return err
		}
		if cb.AfterArray != nil {
			cb.AfterArray(d)
		}

	case side.LabelVLA:
		if d.VLA == nil || d.VLA.Elem == nil {
			return malformed(d, "vla")
		}
		if err := checkVLALength(d, d.VLA.Length); err != nil {
			return err
		}
		if cb.BeforeVLA != nil {
			cb.BeforeVLA(d)
		}
		if err := walkDescType(cb, d.VLA.Length); err != nil {
			return err
		}
		if cb.AfterLengthVLA != nil {
			cb.AfterLengthVLA(d)
		}
		if err := walkDescElem(cb, d.VLA.Elem); err != nil {
			return err
		}
		if cb.AfterElementVLA != nil {
			cb.AfterElementVLA(d)
		}
		if cb.AfterVLA != nil {
			cb.AfterVLA(d)
		}

	case side.LabelVLAVisitor:
		if d.VLAVisitor == nil || d.VLAVisitor.Elem == nil {
			return malformed(d, "vla visitor")
		}
		if err := checkVLALength(d, d.VLAVisitor.Length); err != nil {
			return err
		}
		if cb.BeforeVLAVisitor != nil {
			cb.BeforeVLAVisitor(d)
		}
		if err := walkDescType(cb, d.VLAVisitor.Length); err != nil {
			return err
		}
		if cb.AfterLengthVLAVisitor != nil {
			cb.AfterLengthVLAVisitor(d)
		}
		if err := walkDescElem(cb, d.VLAVisitor.Elem); err != nil {
			return err
		}
		if cb.AfterElementVLAVisitor != nil {
			cb.AfterElementVLAVisitor(d)
		}
		if cb.AfterVLAVisitor != nil {
			cb.AfterVLAVisitor(d)
		}

	case side.LabelEnum:
		if err := checkEnumElem(d, false); err != nil {
			return err
		}
		if cb.BeforeEnum != nil {
			cb.BeforeEnum(d)
		}
		if err := walkDescType(cb, d.Enum.Elem); err != nil {
			return err
		}
		if cb.AfterEnum != nil {
			cb.AfterEnum(d)
		}

	case side.LabelEnumBitmap:
		if err := checkEnumElem(d, false); err != nil {
			return err
		}
		if cb.BeforeEnumBitmap != nil {
			cb.BeforeEnumBitmap(d)
		}
		if err := walkDescType(cb, d.Enum.Elem); err != nil {
			return err
		}
		if cb.AfterEnumBitmap != nil {
			cb.AfterEnumBitmap(d)
		}

	case side.LabelOptional:
		if d.Optional == nil || d.Optional.Elem == nil {
			return malformed(d, "optional")
		}
		if cb.BeforeOptional != nil {
			cb.BeforeOptional(d)
		}
		if err := walkDescType(cb, d.Optional.Elem); err != nil {
			return err
		}
		if cb.AfterOptional != nil {
			cb.AfterOptional(d)
		}

	case side.LabelGatherBool:
		if err := checkBool(d); err != nil {
			return err
		}
		if cb.GatherBool != nil {
			cb.GatherBool(d)
		}
	case side.LabelGatherInteger:
		if err := checkInteger(d); err != nil {
			return err
		}
		if cb.GatherInteger != nil {
			cb.GatherInteger(d)
		}
	case side.LabelGatherByte:
		if cb.GatherByte != nil {
			cb.GatherByte(d)
		}
	case side.LabelGatherPointer:
		if err := checkInteger(d); err != nil {
			return err
		}
		if cb.GatherPointer != nil {
			cb.GatherPointer(d)
		}
	case side.LabelGatherFloat:
		if err := checkFloat(d); err != nil {
			return err
		}
		if cb.GatherFloat != nil {
			cb.GatherFloat(d)
		}
	case side.LabelGatherString:
		if err := checkString(d); err != nil {
			return err
		}
		if cb.GatherString != nil {
			cb.GatherString(d)
		}

	case side.LabelGatherStruct:
		if d.Struct == nil {
			return malformed(d, "struct")
		}
		for i := range d.Struct.Fields {
			f := &d.Struct.Fields[i]
			if f.Type == nil {
				return nilField(f.Name)
			}
			if !f.Type.Label.IsGather() {
				return &NestingError{Outer: d.Label, Site: "field", Inner: f.Type.Label}
			}
		}
		if cb.BeforeGatherStruct != nil {
			cb.BeforeGatherStruct(d)
		}
		for i := range d.Struct.Fields {
			if err := walkDescField(cb, &d.Struct.Fields[i]); err != nil {
				return err
			}
		}
		if cb.AfterGatherStruct != nil {
			cb.AfterGatherStruct(d)
		}

	case side.LabelGatherArray:
		if d.Array == nil {
			return malformed(d, "array")
		}
		if err := checkGatherElem(d, d.Array.Elem); err != nil {
			return err
		}
		if _, err := gatherStride(d.Array.Elem); err != nil {
			return err
		}
		if cb.BeforeGatherArray != nil {
			cb.BeforeGatherArray(d)
		}
		if err := walkDescElem(cb, d.Array.Elem); err != nil {
			return err
		}
		if cb.AfterGatherArray != nil {
			cb.AfterGatherArray(d)
		}

	case side.LabelGatherVLA:
		if err := checkGatherVLA(d); err != nil {
			return err
		}
		if _, err := gatherStride(d.VLA.Elem); err != nil {
			return err
		}
		if cb.BeforeGatherVLA != nil {
			cb.BeforeGatherVLA(d)
		}
		if err := walkDescType(cb, d.VLA.Length); err != nil {
			return err
		}
		if cb.AfterLengthGatherVLA != nil {
			cb.AfterLengthGatherVLA(d)
		}
		if err := walkDescElem(cb, d.VLA.Elem); err != nil {
			return err
		}
		if cb.AfterElementGatherVLA != nil {
			cb.AfterElementGatherVLA(d)
		}
		if cb.AfterGatherVLA != nil {
			cb.AfterGatherVLA(d)
		}

	case side.LabelGatherEnum:
		if err := checkEnumElem(d, true); err != nil {
			return err
		}
		if cb.BeforeGatherEnum != nil {
			cb.BeforeGatherEnum(d)
		}
		if err := walkDescType(cb, d.Enum.Elem); err != nil {
			return err
		}
		if cb.AfterGatherEnum != nil {
			cb.AfterGatherEnum(d)
		}

	default:
		return &UnknownLabelError{Label: d.Label}
	}
	return nil
}
