// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"github.com/efficios/go-side/pkg/side"
)

// vlaElemContext streams application-produced elements of a static
// VLA visitor into the walk. The first engine error is latched so a
// visitor that ignores WriteElem results still aborts the event.
type vlaElemContext struct {
	w    *argWalker
	elem *side.Type
	err  error
}

func (c *vlaElemContext) WriteElem(a side.Arg) error {
	if c.err != nil {
		return c.err
	}
	if err := c.w.walkElem(c.elem, &a); err != nil {
		c.err = err
		return err
	}
	return nil
}

// dynVLAContext streams elements of a dynamic VLA visitor; elements
// must themselves be dynamic arguments.
type dynVLAContext struct {
	w   *argWalker
	err error
}

func (c *dynVLAContext) WriteElem(a side.Arg) error {
	if c.err != nil {
		return c.err
	}
	if !a.Label.IsDynamic() {
		c.err = &MismatchError{Want: side.LabelDynamic, Got: a.Label}
		return c.err
	}
	if err := c.w.walkDynamic(&a); err != nil {
		c.err = err
		return err
	}
	return nil
}

// dynStructContext streams named fields of a dynamic struct visitor.
type dynStructContext struct {
	w   *argWalker
	err error
}

func (c *dynStructContext) WriteField(name string, a side.Arg) error {
	if c.err != nil {
		return c.err
	}
	f := side.DynamicField{Name: name, Value: a}
	if err := c.w.walkDynField(&f); err != nil {
		c.err = err
		return err
	}
	return nil
}

// visitErr folds the outcome of an application visitor call: engine
// errors latched in the context win over the application's return,
// which is wrapped as a visitor abort.
func visitErr(latched, returned error) error {
	if latched != nil {
		return latched
	}
	if returned != nil {
		return abortErr(returned)
	}
	return nil
}
