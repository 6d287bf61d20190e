// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"errors"
	"fmt"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
)

var (
	// ErrVisitorAbort wraps the error an application VLA or dynamic
	// struct visitor returned to cancel the walk.
	ErrVisitorAbort = errors.New("visitor aborted the walk")

	// ErrBadByteOrder reports a byte-order tag other than 0 or 1 in a
	// scalar description.
	ErrBadByteOrder = errors.New("invalid byte-order tag")
)

// UnknownLabelError is fatal: the walk cannot skip what it cannot
// size. A known label in a position its family does not allow (a
// dynamic label inside a static description) reports the same way.
type UnknownLabelError struct {
	Label side.Label
}

func (e *UnknownLabelError) Error() string {
	if !e.Label.Valid() {
		return fmt.Sprintf("unknown type label %d", uint16(e.Label))
	}
	return fmt.Sprintf("misplaced type label %s", e.Label)
}

// MismatchError reports an argument whose label does not pair with
// its description.
type MismatchError struct {
	Want side.Label
	Got  side.Label
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("argument label mismatch: description wants %s, argument carries %s", e.Want, e.Got)
}

// CountMismatchError reports an argument vector or subvector whose
// length does not equal the field or element count of its
// description.
type CountMismatchError struct {
	Want int
	Got  int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("argument count mismatch: description wants %d, got %d", e.Want, e.Got)
}

// NestingError reports a description tree violating a structural
// rule: what may appear as a variant selector, as a VLA length type,
// or as a gather element.
type NestingError struct {
	Outer side.Label
	Site  string
	Inner side.Label
}

func (e *NestingError) Error() string {
	return fmt.Sprintf("%s %s may not be %s", e.Outer, e.Site, e.Inner)
}

// UnmatchedSelectorError reports a variant selector value no option
// range covers.
type UnmatchedSelectorError struct {
	Value abi.Int128
}

func (e *UnmatchedSelectorError) Error() string {
	return fmt.Sprintf("variant selector value %s matches no option", e.Value)
}

// MissingVisitorError reports a visitor-backed description whose
// function is absent, typically a decoded description whose visitor
// id was never registered.
type MissingVisitorError struct {
	ID uint64
}

func (e *MissingVisitorError) Error() string {
	return fmt.Sprintf("no visitor function bound for visitor id %d", e.ID)
}

func abortErr(err error) error {
	return fmt.Errorf("%w: %w", ErrVisitorAbort, err)
}
