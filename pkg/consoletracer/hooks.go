// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package consoletracer

import (
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/visitor"
)

// Callbacks builds the hook table that assembles one line per
// emission. Gather leaves resolve exactly like stack-copy leaves, so
// they share hook methods.
func (c *ConsoleTracer) Callbacks() *visitor.ArgCallbacks {
	return &visitor.ArgCallbacks{
		BeforeEvent: c.beforeEvent,
		AfterEvent:  c.afterEvent,

		BeforeField: func(f *side.Field) { c.pending = f.Name },
		AfterField:  c.afterField,

		Null:    c.nullArg,
		Bool:    c.boolArg,
		Integer: c.integerArg,
		Byte:    c.byteArg,
		Pointer: c.pointerArg,
		Float:   c.floatArg,
		String:  c.stringArg,

		BeforeStruct: func(*side.Type, side.ArgVector) { c.pushStruct() },
		AfterStruct:  func(*side.Type) { c.pop() },

		BeforeArray: func(*side.Type, side.ArgVector) { c.pushList() },
		AfterArray:  func(*side.Type) { c.pop() },

		BeforeVLA:      func(*side.Type, side.ArgVector) { c.pushList() },
		AfterLengthVLA: func(*side.Type) { c.dropLength() },
		AfterVLA:       func(*side.Type) { c.pop() },

		BeforeVLAVisitor: func(*side.Type) { c.pushList() },
		AfterVLAVisitor:  func(*side.Type) { c.pop() },

		BeforeVariant:        func(*side.Type, *side.VariantArg) { c.pushVariant() },
		AfterVariantSelector: func(*side.Type) { c.selectorDone() },
		AfterVariant:         func(*side.Type) { c.pop() },

		Enum:       c.enumArg,
		EnumBitmap: c.enumArg,

		OptionalAbsent: func(*side.Type) { c.leaf(nil) },

		GatherBool:    c.boolArg,
		GatherInteger: c.integerArg,
		GatherByte:    c.byteArg,
		GatherPointer: c.pointerArg,
		GatherFloat:   c.floatArg,
		GatherString:  c.stringArg,

		BeforeGatherStruct: func(*side.Type) { c.pushStruct() },
		AfterGatherStruct:  func(*side.Type) { c.pop() },
		BeforeGatherArray:  func(*side.Type) { c.pushList() },
		AfterGatherArray:   func(*side.Type) { c.pop() },
		BeforeGatherVLA:    func(*side.Type, uint32) { c.pushList() },
		AfterGatherVLA:     func(*side.Type) { c.pop() },

		GatherEnum: c.enumArg,

		DynNull:    c.dynNullArg,
		DynBool:    c.dynBoolArg,
		DynInteger: c.dynIntegerArg,
		DynByte:    c.dynByteArg,
		DynPointer: c.dynPointerArg,
		DynFloat:   c.dynFloatArg,
		DynString:  c.dynStringArg,

		BeforeDynStruct: func(*side.Arg) { c.pushStruct() },
		AfterDynStruct:  func(*side.Arg) { c.pop() },
		BeforeDynField:  func(f *side.DynamicField) { c.pending = f.Name },
		BeforeDynVLA:    func(*side.Arg) { c.pushList() },
		AfterDynVLA:     func(*side.Arg) { c.pop() },
	}
}

// afterField catches fields whose walk fired no value hook, which is
// how an incomplete optional surfaces.
func (c *ConsoleTracer) afterField(f *side.Field) {
	if c.pending != "" && c.pending == f.Name {
		c.leaf(incompleteVal{})
	}
}

func (c *ConsoleTracer) nullArg(_ *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(nullVal{})
}

func (c *ConsoleTracer) boolArg(d *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.BoolValue(d.Bool))
}

func (c *ConsoleTracer) integerArg(d *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(intVal(a.IntegerValue(d.Integer)))
}

func (c *ConsoleTracer) byteArg(_ *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(byteVal(a.Scalar.Lo))
}

func (c *ConsoleTracer) pointerArg(d *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(hexVal(a.IntegerValue(d.Integer).Lo))
}

func (c *ConsoleTracer) floatArg(d *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.FloatValue(d.Float))
}

func (c *ConsoleTracer) stringArg(_ *side.Type, a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.Str.String())
}

func (c *ConsoleTracer) enumArg(d *side.Type, a *side.Arg, labels []string) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	if labels == nil {
		labels = []string{}
	}
	c.leaf(&enumNode{
		Value:  intVal(a.IntegerValue(d.Enum.Elem.Integer)),
		Labels: labels,
	})
}

func (c *ConsoleTracer) dynNullArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(nullVal{})
}

func (c *ConsoleTracer) dynBoolArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.Dyn.BoolValue())
}

func (c *ConsoleTracer) dynIntegerArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(intVal(a.Dyn.IntegerValue()))
}

func (c *ConsoleTracer) dynByteArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(byteVal(a.Dyn.Scalar.Lo))
}

func (c *ConsoleTracer) dynPointerArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(hexVal(a.Dyn.IntegerValue().Lo))
}

func (c *ConsoleTracer) dynFloatArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.Dyn.FloatValue())
}

func (c *ConsoleTracer) dynStringArg(a *side.Arg) {
	if a.Incomplete() {
		c.leaf(incompleteVal{})
		return
	}
	c.leaf(a.Dyn.Str.String())
}
