// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package encoder

import (
	"fmt"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/strutils"
)

const (
	// maxCString caps identifier scans over unterminated memory.
	maxCString = 1 << 12

	// maxStringUnits caps raw string payload scans, mirroring the
	// gather string limit of the argument walk.
	maxStringUnits = 1 << 16

	// maxListLen rejects absurd counts before they turn into huge
	// allocations. No realistic description comes close.
	maxListLen = 1 << 20

	// maxDepth bounds type and argument recursion so a cyclic or
	// hostile blob cannot overflow the stack.
	maxDepth = 100
)

// TruncatedError reports a record extending past what the memory
// reader can serve.
type TruncatedError struct {
	Addr uint64
	Need int
	Err  error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated record: %d bytes at 0x%x: %v", e.Need, e.Addr, e.Err)
}

func (e *TruncatedError) Unwrap() error {
	return e.Err
}

// UnsupportedVersionError reports a description written by a newer
// ABI revision than this reader understands.
type UnsupportedVersionError struct {
	Got uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("description ABI version %d, reader supports up to %d", e.Got, side.DescriptionABIVersion)
}

// Decoder unpacks blobs through a side.MemReader. With a BlobReader
// the addresses handed to Decode calls are offsets and the root
// record sits at zero; with a live memory reader they are raw
// addresses in the traced address space.
//
// Function values cannot travel inside blobs, so visitor-backed
// types and arguments carry a wire identifier instead. Register the
// identifiers before decoding to restore the functions; a decoded
// description with an unregistered visitor still walks as a
// description, and an argument walk over it reports the missing
// visitor.
type Decoder struct {
	mem            side.MemReader
	vlaVisitors    map[uint64]side.VLAVisitor
	structVisitors map[uint64]side.DynamicStructVisitor
}

func NewDecoder(mem side.MemReader) *Decoder {
	return &Decoder{
		mem:            mem,
		vlaVisitors:    make(map[uint64]side.VLAVisitor),
		structVisitors: make(map[uint64]side.DynamicStructVisitor),
	}
}

// RegisterVLAVisitor maps a wire identifier back to its function for
// descriptions and dynamic arguments decoded afterwards.
func (d *Decoder) RegisterVLAVisitor(id uint64, v side.VLAVisitor) {
	d.vlaVisitors[id] = v
}

// RegisterStructVisitor maps a wire identifier back to its dynamic
// struct visitor.
func (d *Decoder) RegisterStructVisitor(id uint64, v side.DynamicStructVisitor) {
	d.structVisitors[id] = v
}

// DecodeEvent unpacks the event description record at addr. The
// decoded event carries fresh, disabled registration state.
func (d *Decoder) DecodeEvent(addr uint64) (*side.EventDescription, error) {
	b, err := d.window(addr, abi.EventDescSize)
	if err != nil {
		return nil, err
	}
	version := ru32(b[abi.EventDescVersionOff:])
	if version > side.DescriptionABIVersion {
		return nil, &UnsupportedVersionError{Got: version}
	}
	ev := &side.EventDescription{
		Version:  version,
		Flags:    side.EventFlags(ru16(b[abi.EventDescFlagsOff:])),
		Loglevel: side.Loglevel(ru32(b[abi.EventDescLoglevelOff:])),
		State:    side.NewEventState(),
	}
	if ev.Provider, err = d.cstring(rptr(b[abi.EventDescProviderOff:])); err != nil {
		return nil, err
	}
	if ev.Name, err = d.cstring(rptr(b[abi.EventDescNameOff:])); err != nil {
		return nil, err
	}
	nrFields := ru32(b[abi.EventDescNrFieldsOff:])
	if ev.Fields, err = d.fields(rptr(b[abi.EventDescFieldsOff:]), nrFields, 0); err != nil {
		return nil, err
	}
	if ev.Attrs, err = d.attrList(b[abi.EventDescAttrOff:]); err != nil {
		return nil, err
	}
	return ev, nil
}

// DecodeType unpacks the type description record at addr.
func (d *Decoder) DecodeType(addr uint64) (*side.Type, error) {
	return d.typeAt(addr, 0)
}

// DecodeArgs unpacks the argument vector record at addr.
func (d *Decoder) DecodeArgs(addr uint64) (side.ArgVector, error) {
	b, err := d.window(addr, abi.ArgVectorSize)
	if err != nil {
		return nil, err
	}
	return d.argList(rptr(b), ru32(b[abi.PtrSize:]), 0)
}

func (d *Decoder) window(addr uint64, n int) ([]byte, error) {
	b, err := d.mem.Window(addr, n)
	if err != nil {
		return nil, &TruncatedError{Addr: addr, Need: n, Err: err}
	}
	if len(b) < n {
		return nil, &TruncatedError{Addr: addr, Need: n, Err: fmt.Errorf("short window of %d bytes", len(b))}
	}
	return b, nil
}

func ru16(b []byte) uint16 {
	return blobOrder.Binary().Uint16(b)
}

func ru32(b []byte) uint32 {
	return blobOrder.Binary().Uint32(b)
}

func ru64(b []byte) uint64 {
	return blobOrder.Binary().Uint64(b)
}

func rs64(b []byte) int64 {
	return int64(ru64(b))
}

func rptr(b []byte) uint64 {
	var p abi.Ptr
	copy(p[:], b[:abi.PtrSize])
	return p.Get(blobOrder, blobPtrWidth)
}

func rvalue(b []byte) side.ScalarValue {
	return side.ScalarValue{Lo: ru64(b), Hi: ru64(b[8:])}
}

func rorder(b byte) (abi.ByteOrder, error) {
	order := abi.ByteOrder(b)
	if !order.Valid() {
		return 0, fmt.Errorf("byte order %d", b)
	}
	return order, nil
}

// cstring reads a NUL-terminated identifier. A null pointer decodes
// as the empty string.
func (d *Decoder) cstring(addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}
	var out []byte
	for len(out) <= maxCString {
		b, err := d.window(addr+uint64(len(out)), 1)
		if err != nil {
			return "", err
		}
		if b[0] == 0 {
			return string(out), nil
		}
		out = append(out, b[0])
	}
	return "", fmt.Errorf("string at 0x%x has no terminator within %d bytes", addr, maxCString)
}

// rawString resolves a raw string descriptor, scanning unit by unit
// for the terminator so the read never crosses it.
func (d *Decoder) rawString(b []byte) (side.StringValue, error) {
	addr := rptr(b)
	unit := b[abi.PtrSize]
	if unit == 0 {
		unit = 1
	}
	switch unit {
	case 1, 2, 4:
	default:
		return side.StringValue{}, fmt.Errorf("string unit size %d", unit)
	}
	order, err := rorder(b[abi.PtrSize+1])
	if err != nil {
		return side.StringValue{}, fmt.Errorf("string descriptor: %w", err)
	}
	sv := side.StringValue{UnitSize: unit, Order: order}
	if addr == 0 {
		return sv, nil
	}
	for units := 0; units <= maxStringUnits; units++ {
		w, err := d.window(addr+uint64(units)*uint64(unit), int(unit))
		if err != nil {
			return side.StringValue{}, err
		}
		if strutils.TermIndex(w, unit) == 0 {
			return sv, nil
		}
		sv.Bytes = append(sv.Bytes, w[:unit]...)
	}
	return side.StringValue{}, fmt.Errorf("string at 0x%x: %d units with no terminator", addr, maxStringUnits)
}

// attrList parses the counted attribute pointer at the start of b.
func (d *Decoder) attrList(b []byte) ([]side.Attr, error) {
	addr := rptr(b)
	count := ru32(b[abi.PtrSize:])
	if count == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, fmt.Errorf("attribute list of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("attribute list of %d entries", count)
	}
	attrs := make([]side.Attr, count)
	for i := range attrs {
		w, err := d.window(addr+uint64(i)*abi.AttrSize, abi.AttrSize)
		if err != nil {
			return nil, err
		}
		if attrs[i], err = d.attr(w); err != nil {
			return nil, err
		}
	}
	return attrs, nil
}

func (d *Decoder) attr(b []byte) (side.Attr, error) {
	key, err := d.cstring(rptr(b))
	if err != nil {
		return side.Attr{}, err
	}
	v := b[abi.RawStringSize:]
	label := side.Label(ru16(v))
	if !side.ValidAttrLabel(label) {
		return side.Attr{}, fmt.Errorf("attribute %q: %s is not an attribute value kind", key, label)
	}
	a := side.Attr{Key: key, Value: side.AttrValue{Label: label}}
	if label.IsString() {
		sv, err := d.rawString(v[2:])
		if err != nil {
			return side.Attr{}, fmt.Errorf("attribute %q: %w", key, err)
		}
		a.Value.Str = sv.String()
		return a, nil
	}
	a.Value.Scalar = rvalue(v[2:])
	return a, nil
}

func (d *Decoder) fields(addr uint64, count uint32, depth int) ([]side.Field, error) {
	if count == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, fmt.Errorf("field list of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("field list of %d entries", count)
	}
	fs := make([]side.Field, count)
	for i := range fs {
		b, err := d.window(addr+uint64(i)*abi.EventFieldSize, abi.EventFieldSize)
		if err != nil {
			return nil, err
		}
		name, err := d.cstring(rptr(b))
		if err != nil {
			return nil, err
		}
		t, err := d.typeRec(b[abi.PtrSize:], depth)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fs[i] = side.Field{Name: name, Type: t}
	}
	return fs, nil
}

func (d *Decoder) typeAt(addr uint64, depth int) (*side.Type, error) {
	b, err := d.window(addr, abi.TypeSize)
	if err != nil {
		return nil, err
	}
	return d.typeRec(b, depth)
}

func (d *Decoder) typeRec(b []byte, depth int) (*side.Type, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("type nesting deeper than %d", maxDepth)
	}
	t := &side.Type{Label: side.Label(ru16(b))}
	if !t.Label.Valid() {
		return nil, fmt.Errorf("unknown type label %d", ru16(b))
	}
	var err error
	p := b[2:]
	switch {
	case t.Label == side.LabelNull, t.Label == side.LabelByte, t.Label == side.LabelDynamic:
		t.Attrs, err = d.attrList(p)
	case t.Label == side.LabelBool:
		t.Bool, t.Attrs, err = d.boolPayload(p)
	case t.Label.IsInteger(), t.Label == side.LabelPointer:
		t.Integer, t.Attrs, err = d.integerPayload(p)
	case t.Label.IsFloat():
		t.Float, t.Attrs, err = d.floatPayload(p)
	case t.Label.IsString():
		t.Str, t.Attrs, err = d.stringPayload(p)
	case t.Label == side.LabelStruct:
		t.Struct, t.Attrs, err = d.structPayload(p, depth)
	case t.Label == side.LabelVariant:
		t.Variant, t.Attrs, err = d.variantPayload(p, depth)
	case t.Label == side.LabelArray:
		t.Array, t.Attrs, err = d.arrayPayload(p, depth)
	case t.Label == side.LabelVLA:
		t.VLA, t.Attrs, err = d.vlaPayload(p, depth)
	case t.Label == side.LabelVLAVisitor:
		t.VLAVisitor, t.Attrs, err = d.vlaVisitorPayload(p, depth)
	case t.Label == side.LabelEnum, t.Label == side.LabelEnumBitmap, t.Label == side.LabelGatherEnum:
		t.Enum, t.Attrs, err = d.enumPayload(p, depth)
	case t.Label == side.LabelOptional:
		var elem *side.Type
		if elem, err = d.typeAt(rptr(p), depth+1); err == nil {
			t.Optional = &side.OptionalType{Elem: elem}
			t.Attrs, err = d.attrList(p[abi.PtrSize:])
		}
	case t.Label.IsGather():
		err = d.gatherPayload(t, p, depth)
	default:
		err = fmt.Errorf("type label %s is not decodable", t.Label)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Label, err)
	}
	return t, nil
}

func (d *Decoder) boolPayload(p []byte) (*side.BoolType, []side.Attr, error) {
	attrs, err := d.attrList(p)
	if err != nil {
		return nil, nil, err
	}
	order, err := rorder(p[abi.AttrListSize+4])
	if err != nil {
		return nil, nil, err
	}
	return &side.BoolType{
		Size:    ru16(p[abi.AttrListSize:]),
		LenBits: ru16(p[abi.AttrListSize+2:]),
		Order:   order,
	}, attrs, nil
}

func (d *Decoder) integerPayload(p []byte) (*side.IntegerType, []side.Attr, error) {
	attrs, err := d.attrList(p)
	if err != nil {
		return nil, nil, err
	}
	order, err := rorder(p[abi.AttrListSize+5])
	if err != nil {
		return nil, nil, err
	}
	return &side.IntegerType{
		Size:    ru16(p[abi.AttrListSize:]),
		LenBits: ru16(p[abi.AttrListSize+2:]),
		Signed:  p[abi.AttrListSize+4] != 0,
		Order:   order,
	}, attrs, nil
}

func (d *Decoder) floatPayload(p []byte) (*side.FloatType, []side.Attr, error) {
	attrs, err := d.attrList(p)
	if err != nil {
		return nil, nil, err
	}
	order, err := rorder(p[abi.AttrListSize+2])
	if err != nil {
		return nil, nil, err
	}
	return &side.FloatType{Size: ru16(p[abi.AttrListSize:]), Order: order}, attrs, nil
}

func (d *Decoder) stringPayload(p []byte) (*side.StringType, []side.Attr, error) {
	attrs, err := d.attrList(p)
	if err != nil {
		return nil, nil, err
	}
	order, err := rorder(p[abi.AttrListSize+1])
	if err != nil {
		return nil, nil, err
	}
	unit := p[abi.AttrListSize]
	if unit == 0 {
		unit = 1
	}
	return &side.StringType{UnitSize: unit, Order: order}, attrs, nil
}

func (d *Decoder) structPayload(p []byte, depth int) (*side.StructType, []side.Attr, error) {
	count := ru32(p[abi.PtrSize+abi.AttrListSize:])
	fs, err := d.fields(rptr(p), count, depth+1)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := d.attrList(p[abi.PtrSize:])
	if err != nil {
		return nil, nil, err
	}
	return &side.StructType{Fields: fs}, attrs, nil
}

func (d *Decoder) variantPayload(p []byte, depth int) (*side.VariantType, []side.Attr, error) {
	sel, err := d.typeAt(rptr(p), depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("selector: %w", err)
	}
	count := ru32(p[abi.PtrSize:])
	opts, err := d.options(rptr(p[abi.PtrSize+4:]), count, depth)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := d.attrList(p[2*abi.PtrSize+4:])
	if err != nil {
		return nil, nil, err
	}
	return &side.VariantType{Selector: sel, Options: opts}, attrs, nil
}

func (d *Decoder) options(addr uint64, count uint32, depth int) ([]side.VariantOption, error) {
	if count == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, fmt.Errorf("option list of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("option list of %d entries", count)
	}
	opts := make([]side.VariantOption, count)
	for i := range opts {
		b, err := d.window(addr+uint64(i)*abi.VariantOptionSize, abi.VariantOptionSize)
		if err != nil {
			return nil, err
		}
		t, err := d.typeRec(b[16:], depth+1)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		opts[i] = side.VariantOption{Begin: rs64(b), End: rs64(b[8:]), Type: t}
	}
	return opts, nil
}

func (d *Decoder) arrayPayload(p []byte, depth int) (*side.ArrayType, []side.Attr, error) {
	elem, err := d.typeAt(rptr(p), depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("element: %w", err)
	}
	attrs, err := d.attrList(p[abi.PtrSize:])
	if err != nil {
		return nil, nil, err
	}
	return &side.ArrayType{Elem: elem, Length: ru32(p[abi.PtrSize+abi.AttrListSize:])}, attrs, nil
}

func (d *Decoder) vlaPayload(p []byte, depth int) (*side.VLAType, []side.Attr, error) {
	elem, err := d.typeAt(rptr(p), depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("element: %w", err)
	}
	length, err := d.typeAt(rptr(p[abi.PtrSize:]), depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("length type: %w", err)
	}
	attrs, err := d.attrList(p[2*abi.PtrSize:])
	if err != nil {
		return nil, nil, err
	}
	return &side.VLAType{Elem: elem, Length: length}, attrs, nil
}

func (d *Decoder) vlaVisitorPayload(p []byte, depth int) (*side.VLAVisitorType, []side.Attr, error) {
	impl := rptr(p)
	if impl == 0 {
		return nil, nil, fmt.Errorf("null implementation pointer")
	}
	b, err := d.window(impl, abi.VLAVisitorImplSize)
	if err != nil {
		return nil, nil, err
	}
	elem, err := d.typeRec(b, depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("element: %w", err)
	}
	length, err := d.typeRec(b[abi.TypeSize:], depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("length type: %w", err)
	}
	attrs, err := d.attrList(b[2*abi.TypeSize+8:])
	if err != nil {
		return nil, nil, err
	}
	id := ru64(b[2*abi.TypeSize:])
	return &side.VLAVisitorType{
		Elem:    elem,
		Length:  length,
		Visitor: d.vlaVisitors[id],
		WireID:  id,
	}, attrs, nil
}

func (d *Decoder) enumPayload(p []byte, depth int) (*side.EnumType, []side.Attr, error) {
	count := ru32(p[abi.PtrSize:])
	ms, err := d.mappings(rptr(p), count)
	if err != nil {
		return nil, nil, err
	}
	elem, err := d.typeAt(rptr(p[abi.PtrSize+4:]), depth+1)
	if err != nil {
		return nil, nil, fmt.Errorf("element: %w", err)
	}
	attrs, err := d.attrList(p[2*abi.PtrSize+4:])
	if err != nil {
		return nil, nil, err
	}
	return &side.EnumType{Mappings: ms, Elem: elem}, attrs, nil
}

func (d *Decoder) mappings(addr uint64, count uint32) ([]side.EnumMapping, error) {
	if count == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, fmt.Errorf("mapping list of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("mapping list of %d entries", count)
	}
	ms := make([]side.EnumMapping, count)
	for i := range ms {
		b, err := d.window(addr+uint64(i)*abi.EnumMappingSize, abi.EnumMappingSize)
		if err != nil {
			return nil, err
		}
		label, err := d.cstring(rptr(b[16:]))
		if err != nil {
			return nil, err
		}
		ms[i] = side.EnumMapping{Begin: rs64(b), End: rs64(b[8:]), Label: label}
	}
	return ms, nil
}

func (d *Decoder) gatherPayload(t *side.Type, p []byte, depth int) error {
	var err error
	var tail []byte
	switch t.Label {
	case side.LabelGatherBool:
		if t.Bool, t.Attrs, err = d.boolPayload(p); err != nil {
			return err
		}
		tail = p[abi.BoolTypePayloadSize:]
	case side.LabelGatherInteger, side.LabelGatherPointer:
		if t.Integer, t.Attrs, err = d.integerPayload(p); err != nil {
			return err
		}
		tail = p[abi.IntegerTypePayloadSize:]
	case side.LabelGatherByte:
		if t.Attrs, err = d.attrList(p); err != nil {
			return err
		}
		tail = p[abi.AttrListSize:]
	case side.LabelGatherFloat:
		if t.Float, t.Attrs, err = d.floatPayload(p); err != nil {
			return err
		}
		tail = p[abi.FloatTypePayloadSize:]
	case side.LabelGatherString:
		if t.Str, t.Attrs, err = d.stringPayload(p); err != nil {
			return err
		}
		tail = p[abi.StringTypePayloadSize:]
	case side.LabelGatherStruct:
		if t.Struct, t.Attrs, err = d.structPayload(p, depth); err != nil {
			return err
		}
		tail = p[abi.StructTypePayloadSize:]
	case side.LabelGatherArray:
		if t.Array, t.Attrs, err = d.arrayPayload(p, depth); err != nil {
			return err
		}
		tail = p[abi.ArrayTypePayloadSize:]
	case side.LabelGatherVLA:
		if t.VLA, t.Attrs, err = d.vlaPayload(p, depth); err != nil {
			return err
		}
		tail = p[abi.VLATypePayloadSize:]
	default:
		return fmt.Errorf("type label %s is not decodable", t.Label)
	}
	access := side.GatherAccess(tail[8])
	if access > side.GatherAccessPointer {
		return fmt.Errorf("gather access mode %d", tail[8])
	}
	t.Gather = &side.GatherInfo{Offset: ru64(tail), Access: access}
	switch t.Label {
	case side.LabelGatherBool, side.LabelGatherInteger, side.LabelGatherPointer:
		t.Gather.OffsetBits = ru16(tail[9:])
	case side.LabelGatherStruct:
		t.Gather.Size = ru32(tail[9:])
	}
	return nil
}

func (d *Decoder) argList(addr uint64, count uint32, depth int) (side.ArgVector, error) {
	if count == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, fmt.Errorf("argument vector of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return nil, fmt.Errorf("argument vector of %d entries", count)
	}
	args := make(side.ArgVector, count)
	for i := range args {
		b, err := d.window(addr+uint64(i)*abi.ArgSize, abi.ArgSize)
		if err != nil {
			return nil, err
		}
		if args[i], err = d.argRec(b, depth); err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return args, nil
}

func (d *Decoder) argRec(b []byte, depth int) (side.Arg, error) {
	if depth > maxDepth {
		return side.Arg{}, fmt.Errorf("argument nesting deeper than %d", maxDepth)
	}
	a := side.Arg{
		Label: side.Label(ru16(b)),
		Flags: side.ArgFlags(ru16(b[2:])),
	}
	if !a.Label.Valid() {
		return side.Arg{}, fmt.Errorf("unknown argument label %d", ru16(b))
	}
	var err error
	p := b[4:]
	switch {
	case a.Label == side.LabelNull:
	case a.Label == side.LabelBool, a.Label.IsInteger(), a.Label == side.LabelByte,
		a.Label == side.LabelPointer, a.Label.IsFloat():
		a.Scalar = rvalue(p)
	case a.Label.IsString():
		a.Str, err = d.rawString(p)
	case a.Label == side.LabelStruct, a.Label == side.LabelArray, a.Label == side.LabelVLA:
		a.Vec, err = d.argList(rptr(p), ru32(p[abi.PtrSize:]), depth+1)
	case a.Label == side.LabelVLAVisitor:
		// Nothing travels; elements come from the declared visitor.
	case a.Label == side.LabelVariant:
		err = d.variantArg(&a, p, depth)
	case a.Label == side.LabelOptional:
		err = d.optionalArg(&a, p, depth)
	case a.Label.IsGather():
		a.Addr = ru64(p)
	case a.Label.IsDynamic():
		a.Dyn, err = d.dynRec(a.Label, p, a.Incomplete(), depth)
	default:
		err = fmt.Errorf("argument label %s is not decodable", a.Label)
	}
	if err != nil {
		return side.Arg{}, err
	}
	return a, nil
}

func (d *Decoder) variantArg(a *side.Arg, p []byte, depth int) error {
	rec := rptr(p)
	if rec == 0 {
		if a.Incomplete() {
			return nil
		}
		return fmt.Errorf("variant argument with a null record")
	}
	b, err := d.window(rec, abi.VariantArgSize)
	if err != nil {
		return err
	}
	sel, err := d.argRec(b, depth+1)
	if err != nil {
		return fmt.Errorf("variant selector: %w", err)
	}
	val, err := d.argRec(b[abi.ArgSize:], depth+1)
	if err != nil {
		return fmt.Errorf("variant value: %w", err)
	}
	a.Variant = &side.VariantArg{Selector: sel, Value: val}
	return nil
}

func (d *Decoder) optionalArg(a *side.Arg, p []byte, depth int) error {
	present := p[0] != 0
	rec := rptr(p[1:])
	if rec == 0 {
		if present {
			return fmt.Errorf("optional argument present without a value")
		}
		a.Optional = &side.OptionalArg{}
		return nil
	}
	b, err := d.window(rec, abi.ArgSize)
	if err != nil {
		return err
	}
	v, err := d.argRec(b, depth+1)
	if err != nil {
		return fmt.Errorf("optional value: %w", err)
	}
	a.Optional = &side.OptionalArg{Present: present, Value: &v}
	return nil
}

func (d *Decoder) dynRec(label side.Label, p []byte, incomplete bool, depth int) (*side.DynamicValue, error) {
	dyn := &side.DynamicValue{}
	var err error
	switch label {
	case side.LabelDynamicNull:
		dyn.Attrs, err = d.attrList(p)
	case side.LabelDynamicBool:
		if dyn.Bool, dyn.Attrs, err = d.boolPayload(p); err != nil {
			return nil, err
		}
		dyn.Scalar = rvalue(p[abi.BoolTypePayloadSize:])
	case side.LabelDynamicInteger, side.LabelDynamicPointer:
		if dyn.Integer, dyn.Attrs, err = d.integerPayload(p); err != nil {
			return nil, err
		}
		dyn.Scalar = rvalue(p[abi.IntegerTypePayloadSize:])
	case side.LabelDynamicByte:
		if dyn.Attrs, err = d.attrList(p); err != nil {
			return nil, err
		}
		dyn.Scalar = rvalue(p[abi.AttrListSize:])
	case side.LabelDynamicFloat:
		if dyn.Float, dyn.Attrs, err = d.floatPayload(p); err != nil {
			return nil, err
		}
		dyn.Scalar = rvalue(p[abi.FloatTypePayloadSize:])
	case side.LabelDynamicString:
		if _, dyn.Attrs, err = d.stringPayload(p); err != nil {
			return nil, err
		}
		dyn.Str, err = d.rawString(p[abi.StringTypePayloadSize:])
	case side.LabelDynamicStruct:
		if rec := rptr(p); rec != 0 || !incomplete {
			err = d.dynStruct(dyn, rec, depth)
		}
	case side.LabelDynamicVLA:
		if rec := rptr(p); rec != 0 || !incomplete {
			err = d.dynVLA(dyn, rec, depth)
		}
	case side.LabelDynamicStructVisitor:
		dyn.VisitorID = ru64(p)
		dyn.StructVisitor = d.structVisitors[dyn.VisitorID]
		dyn.Attrs, err = d.attrList(p[8:])
	case side.LabelDynamicVLAVisitor:
		dyn.VisitorID = ru64(p)
		dyn.ElemVisitor = d.vlaVisitors[dyn.VisitorID]
		dyn.Attrs, err = d.attrList(p[8:])
	}
	if err != nil {
		return nil, err
	}
	return dyn, nil
}

func (d *Decoder) dynStruct(dyn *side.DynamicValue, rec uint64, depth int) error {
	if rec == 0 {
		return fmt.Errorf("dynamic struct with a null record")
	}
	b, err := d.window(rec, abi.DynamicStructSize)
	if err != nil {
		return err
	}
	count := ru32(b[abi.PtrSize+abi.AttrListSize:])
	if dyn.Attrs, err = d.attrList(b[abi.PtrSize:]); err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	addr := rptr(b)
	if addr == 0 {
		return fmt.Errorf("dynamic field list of %d entries with a null pointer", count)
	}
	if count > maxListLen {
		return fmt.Errorf("dynamic field list of %d entries", count)
	}
	dyn.Fields = make([]side.DynamicField, count)
	for i := range dyn.Fields {
		w, err := d.window(addr+uint64(i)*abi.DynamicFieldSize, abi.DynamicFieldSize)
		if err != nil {
			return err
		}
		name, err := d.cstring(rptr(w))
		if err != nil {
			return err
		}
		v, err := d.argRec(w[abi.PtrSize:], depth+1)
		if err != nil {
			return fmt.Errorf("dynamic field %q: %w", name, err)
		}
		dyn.Fields[i] = side.DynamicField{Name: name, Value: v}
	}
	return nil
}

func (d *Decoder) dynVLA(dyn *side.DynamicValue, rec uint64, depth int) error {
	if rec == 0 {
		return fmt.Errorf("dynamic vla with a null record")
	}
	b, err := d.window(rec, abi.DynamicVLASize)
	if err != nil {
		return err
	}
	count := ru32(b[abi.PtrSize+abi.AttrListSize:])
	if dyn.Attrs, err = d.attrList(b[abi.PtrSize:]); err != nil {
		return err
	}
	elems, err := d.argList(rptr(b), count, depth+1)
	if err != nil {
		return err
	}
	dyn.Elems = elems
	return nil
}
