// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"fmt"

	"github.com/efficios/go-side/pkg/side"
)

// walkDynamic dispatches one dynamic argument. Dynamic values carry
// their own type metadata, so validation reads the argument instead
// of a description node.
func (w *argWalker) walkDynamic(a *side.Arg) error {
	if a.Incomplete() {
		return w.dynIncomplete(a)
	}
	if a.Dyn == nil {
		return fmt.Errorf("%s argument missing payload", a.Label)
	}

	switch a.Label {
	case side.LabelDynamicNull:
		if w.cb.DynNull != nil {
			w.cb.DynNull(a)
		}

	case side.LabelDynamicBool:
		if err := checkDynBool(a); err != nil {
			return err
		}
		if w.cb.DynBool != nil {
			w.cb.DynBool(a)
		}

	case side.LabelDynamicInteger:
		if err := checkDynInteger(a); err != nil {
			return err
		}
		if w.cb.DynInteger != nil {
			w.cb.DynInteger(a)
		}

	case side.LabelDynamicByte:
		if w.cb.DynByte != nil {
			w.cb.DynByte(a)
		}

	case side.LabelDynamicPointer:
		if err := checkDynInteger(a); err != nil {
			return err
		}
		if w.cb.DynPointer != nil {
			w.cb.DynPointer(a)
		}

	case side.LabelDynamicFloat:
		if err := checkDynFloat(a); err != nil {
			return err
		}
		if w.cb.DynFloat != nil {
			w.cb.DynFloat(a)
		}

	case side.LabelDynamicString:
		if err := checkDynString(a); err != nil {
			return err
		}
		if w.cb.DynString != nil {
			w.cb.DynString(a)
		}

	case side.LabelDynamicStruct:
		if w.cb.BeforeDynStruct != nil {
			w.cb.BeforeDynStruct(a)
		}
		for i := range a.Dyn.Fields {
			if err := w.walkDynField(&a.Dyn.Fields[i]); err != nil {
				return err
			}
		}
		if w.cb.AfterDynStruct != nil {
			w.cb.AfterDynStruct(a)
		}

	case side.LabelDynamicStructVisitor:
		sv := a.Dyn.StructVisitor
		if sv == nil {
			return &MissingVisitorError{ID: a.Dyn.VisitorID}
		}
		if w.cb.BeforeDynStruct != nil {
			w.cb.BeforeDynStruct(a)
		}
		ctx := &dynStructContext{w: w}
		ret := sv(ctx, a.Dyn.AppCtx)
		if err := visitErr(ctx.err, ret); err != nil {
			return err
		}
		if w.cb.AfterDynStruct != nil {
			w.cb.AfterDynStruct(a)
		}

	case side.LabelDynamicVLA:
		if w.cb.BeforeDynVLA != nil {
			w.cb.BeforeDynVLA(a)
		}
		for i := range a.Dyn.Elems {
			e := &a.Dyn.Elems[i]
			if !e.Label.IsDynamic() {
				return &MismatchError{Want: side.LabelDynamic, Got: e.Label}
			}
			if err := w.walkDynamic(e); err != nil {
				return err
			}
		}
		if w.cb.AfterDynVLA != nil {
			w.cb.AfterDynVLA(a)
		}

	case side.LabelDynamicVLAVisitor:
		ev := a.Dyn.ElemVisitor
		if ev == nil {
			return &MissingVisitorError{ID: a.Dyn.VisitorID}
		}
		if w.cb.BeforeDynVLA != nil {
			w.cb.BeforeDynVLA(a)
		}
		ctx := &dynVLAContext{w: w}
		ret := ev(ctx, a.Dyn.AppCtx)
		if err := visitErr(ctx.err, ret); err != nil {
			return err
		}
		if w.cb.AfterDynVLA != nil {
			w.cb.AfterDynVLA(a)
		}

	default:
		return &UnknownLabelError{Label: a.Label}
	}
	return nil
}

// walkDynField walks a named dynamic value, used both for dynamic
// struct fields and for the variadic section of an emission.
func (w *argWalker) walkDynField(f *side.DynamicField) error {
	if !f.Value.Label.IsDynamic() {
		return &MismatchError{Want: side.LabelDynamic, Got: f.Value.Label}
	}
	if w.cb.BeforeDynField != nil {
		w.cb.BeforeDynField(f)
	}
	if err := w.walkDynamic(&f.Value); err != nil {
		return err
	}
	if w.cb.AfterDynField != nil {
		w.cb.AfterDynField(f)
	}
	return nil
}

// dynIncomplete fires the sentinel callback for a dynamic value the
// call site could not capture: the scalar hook with the flag visible,
// the empty bracket pair for the compound kinds. The payload is not
// inspected.
func (w *argWalker) dynIncomplete(a *side.Arg) error {
	switch a.Label {
	case side.LabelDynamicNull:
		if w.cb.DynNull != nil {
			w.cb.DynNull(a)
		}
	case side.LabelDynamicBool:
		if w.cb.DynBool != nil {
			w.cb.DynBool(a)
		}
	case side.LabelDynamicInteger:
		if w.cb.DynInteger != nil {
			w.cb.DynInteger(a)
		}
	case side.LabelDynamicByte:
		if w.cb.DynByte != nil {
			w.cb.DynByte(a)
		}
	case side.LabelDynamicPointer:
		if w.cb.DynPointer != nil {
			w.cb.DynPointer(a)
		}
	case side.LabelDynamicFloat:
		if w.cb.DynFloat != nil {
			w.cb.DynFloat(a)
		}
	case side.LabelDynamicString:
		if w.cb.DynString != nil {
			w.cb.DynString(a)
		}
	case side.LabelDynamicStruct, side.LabelDynamicStructVisitor:
		if w.cb.BeforeDynStruct != nil {
			w.cb.BeforeDynStruct(a)
		}
		if w.cb.AfterDynStruct != nil {
			w.cb.AfterDynStruct(a)
		}
	case side.LabelDynamicVLA, side.LabelDynamicVLAVisitor:
		if w.cb.BeforeDynVLA != nil {
			w.cb.BeforeDynVLA(a)
		}
		if w.cb.AfterDynVLA != nil {
			w.cb.AfterDynVLA(a)
		}
	default:
		return &UnknownLabelError{Label: a.Label}
	}
	return nil
}

func checkDynBool(a *side.Arg) error {
	t := a.Dyn.Bool
	if t == nil {
		return dynMalformed(a, "bool")
	}
	if !t.Order.Valid() {
		return dynBadOrder(a)
	}
	switch t.Size {
	case 1, 2, 4, 8:
		return nil
	}
	return dynBadSize(a, t.Size)
}

func checkDynInteger(a *side.Arg) error {
	t := a.Dyn.Integer
	if t == nil {
		return dynMalformed(a, "integer")
	}
	if !t.Order.Valid() {
		return dynBadOrder(a)
	}
	switch t.Size {
	case 1, 2, 4, 8, 16:
		return nil
	}
	return dynBadSize(a, t.Size)
}

func checkDynFloat(a *side.Arg) error {
	t := a.Dyn.Float
	if t == nil {
		return dynMalformed(a, "float")
	}
	if !t.Order.Valid() {
		return dynBadOrder(a)
	}
	switch t.Size {
	case 2, 4, 8, 16:
		return nil
	}
	return dynBadSize(a, t.Size)
}

func checkDynString(a *side.Arg) error {
	s := &a.Dyn.Str
	if !s.Order.Valid() {
		return dynBadOrder(a)
	}
	switch s.UnitSize {
	case 1, 2, 4:
		return nil
	}
	return dynBadSize(a, uint16(s.UnitSize))
}

func dynMalformed(a *side.Arg, what string) error {
	return fmt.Errorf("%s argument missing %s record", a.Label, what)
}

func dynBadOrder(a *side.Arg) error {
	return fmt.Errorf("%s argument: %w", a.Label, ErrBadByteOrder)
}

func dynBadSize(a *side.Arg, size uint16) error {
	return fmt.Errorf("%s argument has unsupported size %d", a.Label, size)
}
