// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"fmt"

	"github.com/efficios/go-side/pkg/side"
)

// Schema checks shared by the description and argument walks. A
// description that passes the description walk passes all of these;
// the argument walk re-runs them because it accepts descriptions that
// were never pre-walked.

func malformed(d *side.Type, what string) error {
	return fmt.Errorf("%s description missing %s record", d.Label, what)
}

func nilField(name string) error {
	return fmt.Errorf("field %q has no type", name)
}

func badOrder(d *side.Type) error {
	return fmt.Errorf("%s description: %w", d.Label, ErrBadByteOrder)
}

func badSize(d *side.Type, size uint16) error {
	return fmt.Errorf("%s description has unsupported size %d", d.Label, size)
}

func checkBool(d *side.Type) error {
	t := d.Bool
	if t == nil {
		return malformed(d, "bool")
	}
	if !t.Order.Valid() {
		return badOrder(d)
	}
	switch t.Size {
	case 1, 2, 4, 8:
		return nil
	}
	return badSize(d, t.Size)
}

func checkInteger(d *side.Type) error {
	t := d.Integer
	if t == nil {
		return malformed(d, "integer")
	}
	if !t.Order.Valid() {
		return badOrder(d)
	}
	switch t.Size {
	case 1, 2, 4, 8, 16:
		return nil
	}
	return badSize(d, t.Size)
}

func checkFloat(d *side.Type) error {
	t := d.Float
	if t == nil {
		return malformed(d, "float")
	}
	if !t.Order.Valid() {
		return badOrder(d)
	}
	switch t.Size {
	case 2, 4, 8, 16:
		return nil
	}
	return badSize(d, t.Size)
}

func checkString(d *side.Type) error {
	t := d.Str
	if t == nil {
		return malformed(d, "string")
	}
	if !t.Order.Valid() {
		return badOrder(d)
	}
	switch t.UnitSize {
	case 1, 2, 4:
		return nil
	}
	return badSize(d, uint16(t.UnitSize))
}

func checkSelector(d *side.Type) error {
	if d.Variant == nil || d.Variant.Selector == nil {
		return malformed(d, "variant")
	}
	if sel := d.Variant.Selector; !sel.Label.IsInteger() {
		return &NestingError{Outer: d.Label, Site: "selector", Inner: sel.Label}
	}
	for i := range d.Variant.Options {
		if d.Variant.Options[i].Type == nil {
			return malformed(d, "option")
		}
	}
	return nil
}

func checkVLALength(d *side.Type, length *side.Type) error {
	if length == nil {
		return malformed(d, "length type")
	}
	if !length.Label.IsInteger() {
		return &NestingError{Outer: d.Label, Site: "length type", Inner: length.Label}
	}
	return nil
}

// checkGatherVLA enforces the gather-VLA rules: the length type must
// be a gather integer, and the element must be a gather kind other
// than another gather VLA.
func checkGatherVLA(d *side.Type) error {
	if d.VLA == nil || d.VLA.Length == nil || d.VLA.Elem == nil {
		return malformed(d, "vla")
	}
	if l := d.VLA.Length; l.Label != side.LabelGatherInteger {
		return &NestingError{Outer: d.Label, Site: "length type", Inner: l.Label}
	}
	return checkGatherElem(d, d.VLA.Elem)
}

// checkGatherElem rejects non-gather elements and nested gather VLAs
// under the gather array and gather VLA kinds.
func checkGatherElem(d *side.Type, elem *side.Type) error {
	if elem == nil {
		return malformed(d, "element")
	}
	if !elem.Label.IsGather() || elem.Label == side.LabelGatherVLA {
		return &NestingError{Outer: d.Label, Site: "element", Inner: elem.Label}
	}
	return nil
}

// checkEnumElem restricts enum elements to integer payloads: the
// stack-copy integer kinds for enum and enum-bitmap, the gather
// integer for gather-enum.
func checkEnumElem(d *side.Type, gather bool) error {
	if d.Enum == nil || d.Enum.Elem == nil {
		return malformed(d, "enum")
	}
	elem := d.Enum.Elem
	if gather {
		if elem.Label != side.LabelGatherInteger {
			return &NestingError{Outer: d.Label, Site: "element", Inner: elem.Label}
		}
		return nil
	}
	if !elem.Label.IsInteger() {
		return &NestingError{Outer: d.Label, Site: "element", Inner: elem.Label}
	}
	return nil
}
