// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"github.com/efficios/go-side/pkg/abi"
)

type ArgFlags uint16

const (
	// ArgIncomplete marks a value that could not be captured at the
	// call site. The walk emits the callback with the flag visible
	// and continues.
	ArgIncomplete ArgFlags = 1 << 0
)

// Arg is the runtime payload for one field. Label tags the payload
// kind and must agree with the matching description node; which of
// the remaining fields is meaningful follows from it.
type Arg struct {
	Label Label
	Flags ArgFlags

	// Scalar holds bool, integer, byte, pointer and float payloads
	// as raw 128-bit patterns.
	Scalar ScalarValue

	// Str holds stack-copy string payloads.
	Str StringValue

	// Vec holds struct fields, array elements and VLA elements.
	Vec []Arg

	Variant  *VariantArg
	Optional *OptionalArg

	// Addr is the base address of a gather payload, resolved
	// through the walk's memory reader.
	Addr uint64

	// AppCtx is handed to the application visitor of a VLA-visitor
	// payload.
	AppCtx any

	// Dyn holds the self-described payload of the dynamic kinds.
	Dyn *DynamicValue
}

// ArgVector is the ordered argument list of one emission. Its length
// must equal the field count of the matching description.
type ArgVector []Arg

// VariantArg pairs the selector value with the payload for the
// chosen option.
type VariantArg struct {
	Selector Arg
	Value    Arg
}

type OptionalArg struct {
	Present bool
	Value   *Arg
}

// DynamicField is a named dynamic value, used by dynamic structs and
// by the variadic section of an emission.
type DynamicField struct {
	Name  string
	Value Arg
}

// DynamicValue carries the self-describing payload of a dynamic
// argument: per-kind metadata that would otherwise live in a static
// description, plus the value itself.
type DynamicValue struct {
	Attrs []Attr

	Integer *IntegerType
	Bool    *BoolType
	Float   *FloatType

	Scalar ScalarValue
	Str    StringValue

	Fields []DynamicField
	Elems  []Arg

	// Visitor-backed dynamic compounds. VisitorID stands in for the
	// function in encoded blobs.
	StructVisitor DynamicStructVisitor
	ElemVisitor   VLAVisitor
	VisitorID     uint64
	AppCtx        any
}

// Incomplete reports whether the value could not be captured.
func (a *Arg) Incomplete() bool {
	return a.Flags&ArgIncomplete != 0
}

// IntegerValue resolves the scalar payload against its declared
// integer metadata into a sign-correct 128-bit value.
func (a *Arg) IntegerValue(t *IntegerType) abi.Int128 {
	return a.Scalar.Resolve(t.Size, t.Order, 0, t.LenBits, t.Signed).Int128()
}

// BoolValue resolves the scalar payload against its declared bool
// metadata.
func (a *Arg) BoolValue(t *BoolType) bool {
	return !a.Scalar.Resolve(t.Size, t.Order, 0, t.LenBits, false).IsZero()
}

// FloatValue resolves the scalar payload against its declared float
// metadata, widened to binary64.
func (a *Arg) FloatValue(t *FloatType) float64 {
	return a.Scalar.Resolve(t.Size, t.Order, 0, 0, false).Float64(t.Size)
}

// IntegerValue resolves the dynamic scalar against the integer
// metadata the value carries. The walk validates the metadata before
// any callback fires, so tracers may call this without checking.
func (d *DynamicValue) IntegerValue() abi.Int128 {
	t := d.Integer
	return d.Scalar.Resolve(t.Size, t.Order, 0, t.LenBits, t.Signed).Int128()
}

// BoolValue resolves the dynamic scalar against its carried bool
// metadata.
func (d *DynamicValue) BoolValue() bool {
	t := d.Bool
	return !d.Scalar.Resolve(t.Size, t.Order, 0, t.LenBits, false).IsZero()
}

// FloatValue resolves the dynamic scalar against its carried float
// metadata.
func (d *DynamicValue) FloatValue() float64 {
	t := d.Float
	return d.Scalar.Resolve(t.Size, t.Order, 0, 0, false).Float64(t.Size)
}
