// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"fmt"

	"github.com/efficios/go-side/pkg/side"
)

// ArgCallbacks receives the (description, argument) pairs of one
// emission. Scalar hooks get the description node and the matching
// argument; compound hooks bracket their children. None of these can
// abort the walk; only application visitors cancel, through the
// context write methods.
//
// Arguments resolve against their description: scalar values through
// Arg.IntegerValue, BoolValue and FloatValue with the declared
// metadata, which covers foreign byte orders and bit-packed fields.
// Gather hooks receive an argument the engine materialized from
// memory; it resolves exactly like a stack-copy argument.
type ArgCallbacks struct {
	BeforeEvent func(ev *side.EventDescription, caller uint64)
	AfterEvent  func(ev *side.EventDescription)

	BeforeStaticFields   func(ev *side.EventDescription)
	AfterStaticFields    func(ev *side.EventDescription)
	BeforeVariadicFields func(ev *side.EventDescription)
	AfterVariadicFields  func(ev *side.EventDescription)

	BeforeField func(f *side.Field)
	AfterField  func(f *side.Field)
	BeforeElem  func(d *side.Type)
	AfterElem   func(d *side.Type)

	Null    func(d *side.Type, a *side.Arg)
	Bool    func(d *side.Type, a *side.Arg)
	Integer func(d *side.Type, a *side.Arg)
	Byte    func(d *side.Type, a *side.Arg)
	Pointer func(d *side.Type, a *side.Arg)
	Float   func(d *side.Type, a *side.Arg)
	String  func(d *side.Type, a *side.Arg)

	BeforeStruct func(d *side.Type, vec side.ArgVector)
	AfterStruct  func(d *side.Type)

	BeforeArray func(d *side.Type, vec side.ArgVector)
	AfterArray  func(d *side.Type)

	BeforeVLA       func(d *side.Type, vec side.ArgVector)
	AfterLengthVLA  func(d *side.Type)
	AfterElementVLA func(d *side.Type)
	AfterVLA        func(d *side.Type)

	BeforeVLAVisitor       func(d *side.Type)
	AfterElementVLAVisitor func(d *side.Type)
	AfterVLAVisitor        func(d *side.Type)

	BeforeVariant        func(d *side.Type, a *side.VariantArg)
	AfterVariantSelector func(d *side.Type)
	AfterVariant         func(d *side.Type)

	// Enum hooks carry every matched mapping label in declaration
	// order; nil means the value matched nothing, which is legal.
	Enum       func(d *side.Type, a *side.Arg, labels []string)
	EnumBitmap func(d *side.Type, a *side.Arg, labels []string)

	BeforeOptional func(d *side.Type)
	AfterOptional  func(d *side.Type)
	OptionalAbsent func(d *side.Type)

	GatherBool    func(d *side.Type, a *side.Arg)
	GatherInteger func(d *side.Type, a *side.Arg)
	GatherByte    func(d *side.Type, a *side.Arg)
	GatherPointer func(d *side.Type, a *side.Arg)
	GatherFloat   func(d *side.Type, a *side.Arg)
	GatherString  func(d *side.Type, a *side.Arg)

	BeforeGatherStruct func(d *side.Type)
	AfterGatherStruct  func(d *side.Type)

	BeforeGatherArray func(d *side.Type)
	AfterGatherArray  func(d *side.Type)

	// BeforeGatherVLA carries the element count the engine read
	// through the length type.
	BeforeGatherVLA func(d *side.Type, length uint32)
	AfterGatherVLA  func(d *side.Type)

	GatherEnum func(d *side.Type, a *side.Arg, labels []string)

	DynNull    func(a *side.Arg)
	DynBool    func(a *side.Arg)
	DynInteger func(a *side.Arg)
	DynByte    func(a *side.Arg)
	DynPointer func(a *side.Arg)
	DynFloat   func(a *side.Arg)
	DynString  func(a *side.Arg)

	// The dynamic struct and VLA brackets fire for both the eager and
	// the visitor-backed kinds; a tracer cannot tell them apart.
	BeforeDynStruct func(a *side.Arg)
	AfterDynStruct  func(a *side.Arg)
	BeforeDynField  func(f *side.DynamicField)
	AfterDynField   func(f *side.DynamicField)
	BeforeDynVLA    func(a *side.Arg)
	AfterDynVLA     func(a *side.Arg)
}

// Config parameterizes one argument walk.
type Config struct {
	// Callbacks may be nil for a validation-only walk.
	Callbacks *ArgCallbacks

	// Memory resolves gather addresses. Nil selects HostMemory, the
	// identity mapping over this process's address space.
	Memory side.MemReader
}

// WalkArguments pairs an event description with the argument vector
// of one emission and fires the callbacks in deterministic order. A
// fatal schema error, a memory read failure or an application
// visitor abort stops the walk at the offending node; the error never
// affects later emissions.
func WalkArguments(cfg Config, ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField, caller uint64) error {
	cb := cfg.Callbacks
	if cb == nil {
		cb = &ArgCallbacks{}
	}
	mem := cfg.Memory
	if mem == nil {
		mem = side.HostMemory
	}
	w := &argWalker{cb: cb, mem: mem}
	return w.walkEvent(ev, args, variadic, caller)
}

type argWalker struct {
	cb  *ArgCallbacks
	mem side.MemReader
}

func (w *argWalker) walkEvent(ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField, caller uint64) error {
	if len(args) != len(ev.Fields) {
		return &CountMismatchError{Want: len(ev.Fields), Got: len(args)}
	}
	if len(variadic) > 0 && !ev.Variadic() {
		return fmt.Errorf("variadic fields passed to non-variadic event %s", ev.FullName())
	}

	if w.cb.BeforeEvent != nil {
		w.cb.BeforeEvent(ev, caller)
	}
	if len(ev.Fields) > 0 {
		if w.cb.BeforeStaticFields != nil {
			w.cb.BeforeStaticFields(ev)
		}
		for i := range ev.Fields {
			if err := w.walkField(&ev.Fields[i], &args[i]); err != nil {
				return err
			}
		}
		if w.cb.AfterStaticFields != nil {
			w.cb.AfterStaticFields(ev)
		}
	}
	if ev.Variadic() {
		if w.cb.BeforeVariadicFields != nil {
			w.cb.BeforeVariadicFields(ev)
		}
		for i := range variadic {
			if err := w.walkDynField(&variadic[i]); err != nil {
				return err
			}
		}
		if w.cb.AfterVariadicFields != nil {
			w.cb.AfterVariadicFields(ev)
		}
	}
	if w.cb.AfterEvent != nil {
		w.cb.AfterEvent(ev)
	}
	return nil
}

func (w *argWalker) walkField(f *side.Field, a *side.Arg) error {
	if f.Type == nil {
		return nilField(f.Name)
	}
	if w.cb.BeforeField != nil {
		w.cb.BeforeField(f)
	}
	if err := w.walkArg(f.Type, a); err != nil {
		return err
	}
	if w.cb.AfterField != nil {
		w.cb.AfterField(f)
	}
	return nil
}

func (w *argWalker) walkElem(elem *side.Type, a *side.Arg) error {
	if w.cb.BeforeElem != nil {
		w.cb.BeforeElem(elem)
	}
	if err := w.walkArg(elem, a); err != nil {
		return err
	}
	if w.cb.AfterElem != nil {
		w.cb.AfterElem(elem)
	}
	return nil
}

func match(want, got side.Label) error {
	if want != got {
		return &MismatchError{Want: want, Got: got}
	}
	return nil
}

func (w *argWalker) walkArg(d *side.Type, a *side.Arg) error {
	if a.Incomplete() {
		return w.walkIncomplete(d, a)
	}

	switch d.Label {
	case side.LabelNull:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if w.cb.Null != nil {
			w.cb.Null(d, a)
		}

	case side.LabelBool:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if err := checkBool(d); err != nil {
			return err
		}
		if w.cb.Bool != nil {
			w.cb.Bool(d, a)
		}

	case side.LabelU8, side.LabelU16, side.LabelU32, side.LabelU64, side.LabelU128,
		side.LabelS8, side.LabelS16, side.LabelS32, side.LabelS64, side.LabelS128:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if err := checkInteger(d); err != nil {
			return err
		}
		if w.cb.Integer != nil {
			w.cb.Integer(d, a)
		}

	case side.LabelByte:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if w.cb.Byte != nil {
			w.cb.Byte(d, a)
		}

	case side.LabelPointer:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if err := checkInteger(d); err != nil {
			return err
		}
		if w.cb.Pointer != nil {
			w.cb.Pointer(d, a)
		}

	case side.LabelF16, side.LabelF32, side.LabelF64, side.LabelF128:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if err := checkFloat(d); err != nil {
			return err
		}
		if w.cb.Float != nil {
			w.cb.Float(d, a)
		}

	case side.LabelString8, side.LabelString16, side.LabelString32:
		if err := match(d.Label, a.Label); err != nil {
			return err
		}
		if err := checkString(d); err != nil {
			return err
		}
		if w.cb.String != nil {
			w.cb.String(d, a)
		}

	case side.LabelDynamic:
		if !a.Label.IsDynamic() {
			return &MismatchError{Want: side.LabelDynamic, Got: a.Label}
		}
		return w.walkDynamic(a)

	case side.LabelStruct:
		return w.walkStructArg(d, a)

	case side.LabelVariant:
		return w.walkVariantArg(d, a)

	case side.LabelArray:
		return w.walkArrayArg(d, a)

	case side.LabelVLA:
		return w.walkVLAArg(d, a)

	case side.LabelVLAVisitor:
		return w.walkVLAVisitorArg(d, a)

	case side.LabelEnum:
		return w.walkEnumArg(d, a)

	case side.LabelEnumBitmap:
		return w.walkBitmapArg(d, a)

	case side.LabelOptional:
		return w.walkOptionalArg(d, a)

	case side.LabelGatherBool, side.LabelGatherInteger, side.LabelGatherByte,
		side.LabelGatherPointer, side.LabelGatherFloat, side.LabelGatherString,
		side.LabelGatherStruct, side.LabelGatherArray, side.LabelGatherVLA,
		side.LabelGatherEnum:
		return w.walkGatherArg(d, a)

	default:
		return &UnknownLabelError{Label: d.Label}
	}
	return nil
}

func (w *argWalker) walkStructArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	if d.Struct == nil {
		return malformed(d, "struct")
	}
	fields := d.Struct.Fields
	if len(a.Vec) != len(fields) {
		return &CountMismatchError{Want: len(fields), Got: len(a.Vec)}
	}
	if w.cb.BeforeStruct != nil {
		w.cb.BeforeStruct(d, a.Vec)
	}
	for i := range fields {
		if err := w.walkField(&fields[i], &a.Vec[i]); err != nil {
			return err
		}
	}
	if w.cb.AfterStruct != nil {
		w.cb.AfterStruct(d)
	}
	return nil
}

func (w *argWalker) walkVariantArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	if err := checkSelector(d); err != nil {
		return err
	}
	if a.Variant == nil {
		return fmt.Errorf("variant argument missing payload")
	}
	selDesc := d.Variant.Selector
	if err := checkInteger(selDesc); err != nil {
		return err
	}
	sel := &a.Variant.Selector

	if w.cb.BeforeVariant != nil {
		w.cb.BeforeVariant(d, a.Variant)
	}
	if err := w.walkArg(selDesc, sel); err != nil {
		return err
	}
	if w.cb.AfterVariantSelector != nil {
		w.cb.AfterVariantSelector(d)
	}
	if sel.Incomplete() {
		// No selector value, no option to dispatch.
		if w.cb.AfterVariant != nil {
			w.cb.AfterVariant(d)
		}
		return nil
	}

	v := sel.IntegerValue(selDesc.Integer)
	dispatched := false
	for i := range d.Variant.Options {
		opt := &d.Variant.Options[i]
		if v.InRange(opt.Begin, opt.End) {
			if err := w.walkArg(opt.Type, &a.Variant.Value); err != nil {
				return err
			}
			dispatched = true
			break
		}
	}
	if !dispatched {
		return &UnmatchedSelectorError{Value: v}
	}
	if w.cb.AfterVariant != nil {
		w.cb.AfterVariant(d)
	}
	return nil
}

func (w *argWalker) walkArrayArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	if d.Array == nil || d.Array.Elem == nil {
		return malformed(d, "array")
	}
	if len(a.Vec) != int(d.Array.Length) {
		return &CountMismatchError{Want: int(d.Array.Length), Got: len(a.Vec)}
	}
	if w.cb.BeforeArray != nil {
		w.cb.BeforeArray(d, a.Vec)
	}
	for i := range a.Vec {
		if err := w.walkElem(d.Array.Elem, &a.Vec[i]); err != nil {
			return err
		}
	}
	if w.cb.AfterArray != nil {
		w.cb.AfterArray(d)
	}
	return nil
}

func (w *argWalker) walkVLAArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	if d.VLA == nil || d.VLA.Elem == nil {
		return malformed(d, "vla")
	}
	if err := checkVLALength(d, d.VLA.Length); err != nil {
		return err
	}
	if err := checkInteger(d.VLA.Length); err != nil {
		return err
	}

	if w.cb.BeforeVLA != nil {
		w.cb.BeforeVLA(d, a.Vec)
	}
	lenArg := synthLength(d.VLA.Length, uint64(len(a.Vec)))
	if w.cb.Integer != nil {
		w.cb.Integer(d.VLA.Length, &lenArg)
	}
	if w.cb.AfterLengthVLA != nil {
		w.cb.AfterLengthVLA(d)
	}
	for i := range a.Vec {
		if err := w.walkElem(d.VLA.Elem, &a.Vec[i]); err != nil {
			return err
		}
	}
	if w.cb.AfterElementVLA != nil {
		w.cb.AfterElementVLA(d)
	}
	if w.cb.AfterVLA != nil {
		w.cb.AfterVLA(d)
	}
	return nil
}

// synthLength builds the element-count argument the walk reports
// through a VLA's declared length type. The pattern is stored so that
// resolving it against the declared byte order yields the count.
func synthLength(t *side.Type, n uint64) side.Arg {
	pattern := side.ScalarOf(n).Resolve(t.Integer.Size, t.Integer.Order, 0, 0, false)
	return side.Arg{Label: t.Label, Scalar: pattern}
}

func (w *argWalker) walkVLAVisitorArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	vt := d.VLAVisitor
	if vt == nil || vt.Elem == nil {
		return malformed(d, "vla visitor")
	}
	if err := checkVLALength(d, vt.Length); err != nil {
		return err
	}
	if vt.Visitor == nil {
		return &MissingVisitorError{ID: vt.WireID}
	}

	if w.cb.BeforeVLAVisitor != nil {
		w.cb.BeforeVLAVisitor(d)
	}
	ctx := &vlaElemContext{w: w, elem: vt.Elem}
	ret := vt.Visitor(ctx, a.AppCtx)
	if err := visitErr(ctx.err, ret); err != nil {
		return err
	}
	if w.cb.AfterElementVLAVisitor != nil {
		w.cb.AfterElementVLAVisitor(d)
	}
	if w.cb.AfterVLAVisitor != nil {
		w.cb.AfterVLAVisitor(d)
	}
	return nil
}

func (w *argWalker) walkEnumArg(d *side.Type, a *side.Arg) error {
	if err := checkEnumElem(d, false); err != nil {
		return err
	}
	elem := d.Enum.Elem
	if err := match(elem.Label, a.Label); err != nil {
		return err
	}
	if err := checkInteger(elem); err != nil {
		return err
	}
	labels := matchEnum(d.Enum, a.IntegerValue(elem.Integer))
	if w.cb.Enum != nil {
		w.cb.Enum(d, a, labels)
	}
	return nil
}

func (w *argWalker) walkBitmapArg(d *side.Type, a *side.Arg) error {
	if err := checkEnumElem(d, false); err != nil {
		return err
	}
	elem := d.Enum.Elem
	if err := match(elem.Label, a.Label); err != nil {
		return err
	}
	if err := checkInteger(elem); err != nil {
		return err
	}
	t := elem.Integer
	canonical := a.Scalar.Resolve(t.Size, t.Order, 0, t.LenBits, false)
	labels := matchBitmap(d.Enum, canonical)
	if w.cb.EnumBitmap != nil {
		w.cb.EnumBitmap(d, a, labels)
	}
	return nil
}

func (w *argWalker) walkOptionalArg(d *side.Type, a *side.Arg) error {
	if err := match(d.Label, a.Label); err != nil {
		return err
	}
	if d.Optional == nil || d.Optional.Elem == nil {
		return malformed(d, "optional")
	}
	if a.Optional == nil {
		return fmt.Errorf("optional argument missing payload")
	}
	if !a.Optional.Present {
		if w.cb.OptionalAbsent != nil {
			w.cb.OptionalAbsent(d)
		}
		return nil
	}
	if a.Optional.Value == nil {
		return fmt.Errorf("optional argument present without a value")
	}
	if w.cb.BeforeOptional != nil {
		w.cb.BeforeOptional(d)
	}
	if err := w.walkArg(d.Optional.Elem, a.Optional.Value); err != nil {
		return err
	}
	if w.cb.AfterOptional != nil {
		w.cb.AfterOptional(d)
	}
	return nil
}

// walkIncomplete fires the sentinel callback for a value the call
// site could not capture: the per-kind hook with the flag visible for
// scalars, the empty bracket pair for compounds. Nothing is read or
// descended into.
func (w *argWalker) walkIncomplete(d *side.Type, a *side.Arg) error {
	want := d.Label
	switch d.Label {
	case side.LabelEnum, side.LabelEnumBitmap, side.LabelGatherEnum:
		if d.Enum == nil || d.Enum.Elem == nil {
			return malformed(d, "enum")
		}
		want = d.Enum.Elem.Label
	case side.LabelDynamic:
		if !a.Label.IsDynamic() {
			return &MismatchError{Want: side.LabelDynamic, Got: a.Label}
		}
		want = a.Label
	}
	if err := match(want, a.Label); err != nil {
		return err
	}

	switch d.Label {
	case side.LabelNull:
		if w.cb.Null != nil {
			w.cb.Null(d, a)
		}
	case side.LabelBool:
		if w.cb.Bool != nil {
			w.cb.Bool(d, a)
		}
	case side.LabelU8, side.LabelU16, side.LabelU32, side.LabelU64, side.LabelU128,
		side.LabelS8, side.LabelS16, side.LabelS32, side.LabelS64, side.LabelS128:
		if w.cb.Integer != nil {
			w.cb.Integer(d, a)
		}
	case side.LabelByte:
		if w.cb.Byte != nil {
			w.cb.Byte(d, a)
		}
	case side.LabelPointer:
		if w.cb.Pointer != nil {
			w.cb.Pointer(d, a)
		}
	case side.LabelF16, side.LabelF32, side.LabelF64, side.LabelF128:
		if w.cb.Float != nil {
			w.cb.Float(d, a)
		}
	case side.LabelString8, side.LabelString16, side.LabelString32:
		if w.cb.String != nil {
			w.cb.String(d, a)
		}
	case side.LabelDynamic:
		return w.dynIncomplete(a)

	case side.LabelStruct:
		if w.cb.BeforeStruct != nil {
			w.cb.BeforeStruct(d, nil)
		}
		if w.cb.AfterStruct != nil {
			w.cb.AfterStruct(d)
		}
	case side.LabelVariant:
		if w.cb.BeforeVariant != nil {
			w.cb.BeforeVariant(d, a.Variant)
		}
		if w.cb.AfterVariant != nil {
			w.cb.AfterVariant(d)
		}
	case side.LabelArray:
		if w.cb.BeforeArray != nil {
			w.cb.BeforeArray(d, nil)
		}
		if w.cb.AfterArray != nil {
			w.cb.AfterArray(d)
		}
	case side.LabelVLA:
		if w.cb.BeforeVLA != nil {
			w.cb.BeforeVLA(d, nil)
		}
		if w.cb.AfterVLA != nil {
			w.cb.AfterVLA(d)
		}
	case side.LabelVLAVisitor:
		if w.cb.BeforeVLAVisitor != nil {
			w.cb.BeforeVLAVisitor(d)
		}
		if w.cb.AfterVLAVisitor != nil {
			w.cb.AfterVLAVisitor(d)
		}
	case side.LabelEnum:
		if w.cb.Enum != nil {
			w.cb.Enum(d, a, nil)
		}
	case side.LabelEnumBitmap:
		if w.cb.EnumBitmap != nil {
			w.cb.EnumBitmap(d, a, nil)
		}
	case side.LabelOptional:
		if w.cb.BeforeOptional != nil {
			w.cb.BeforeOptional(d)
		}
		if w.cb.AfterOptional != nil {
			w.cb.AfterOptional(d)
		}

	case side.LabelGatherBool:
		if w.cb.GatherBool != nil {
			w.cb.GatherBool(d, a)
		}
	case side.LabelGatherInteger:
		if w.cb.GatherInteger != nil {
			w.cb.GatherInteger(d, a)
		}
	case side.LabelGatherByte:
		if w.cb.GatherByte != nil {
			w.cb.GatherByte(d, a)
		}
	case side.LabelGatherPointer:
		if w.cb.GatherPointer != nil {
			w.cb.GatherPointer(d, a)
		}
	case side.LabelGatherFloat:
		if w.cb.GatherFloat != nil {
			w.cb.GatherFloat(d, a)
		}
	case side.LabelGatherString:
		if w.cb.GatherString != nil {
			w.cb.GatherString(d, a)
		}
	case side.LabelGatherStruct:
		if w.cb.BeforeGatherStruct != nil {
			w.cb.BeforeGatherStruct(d)
		}
		if w.cb.AfterGatherStruct != nil {
			w.cb.AfterGatherStruct(d)
		}
	case side.LabelGatherArray:
		if w.cb.BeforeGatherArray != nil {
			w.cb.BeforeGatherArray(d)
		}
		if w.cb.AfterGatherArray != nil {
			w.cb.AfterGatherArray(d)
		}
	case side.LabelGatherVLA:
		if w.cb.BeforeGatherVLA != nil {
			w.cb.BeforeGatherVLA(d, 0)
		}
		if w.cb.AfterGatherVLA != nil {
			w.cb.AfterGatherVLA(d)
		}
	case side.LabelGatherEnum:
		if w.cb.GatherEnum != nil {
			w.cb.GatherEnum(d, a, nil)
		}

	default:
		return &UnknownLabelError{Label: d.Label}
	}
	return nil
}
