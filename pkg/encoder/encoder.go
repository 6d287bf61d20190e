// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package encoder packs event descriptions, type descriptions and
// captured argument vectors into relocatable binary blobs, and reads
// them back through a side.MemReader. Records use the fixed layouts
// of pkg/abi; every cross-record reference is a wide pointer holding
// an offset from the blob origin, so a blob stays valid when copied,
// mapped at any address or handed across a process boundary.
package encoder

import (
	"errors"
	"fmt"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/strutils"
)

// Record fields are little-endian regardless of host order. Scalar
// value unions travel as their raw 128-bit pattern: the byte order
// of the value itself rides in its description, so patterns resolve
// to the same number after a decode on any host.
const (
	blobOrder    = abi.LittleEndian
	blobPtrWidth = 8
)

// Encoder builds one blob per Encode call. The zero value is ready
// to use and an Encoder may be reused; each call starts a fresh blob
// and the returned slice is owned by the caller.
type Encoder struct {
	buf     []byte
	strings map[string]uint64
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// EncodeEvent packs ev with its event description record at offset
// zero. Registration state is process local and does not travel;
// decoding yields an event with fresh state.
func (e *Encoder) EncodeEvent(ev *side.EventDescription) ([]byte, error) {
	if ev == nil {
		return nil, errors.New("nil event description")
	}
	e.reset()
	off := e.alloc(abi.EventDescSize)
	e.putU32(off+abi.EventDescVersionOff, ev.Version)
	e.putU16(off+abi.EventDescFlagsOff, uint16(ev.Flags))
	e.putU32(off+abi.EventDescLoglevelOff, uint32(ev.Loglevel))
	e.putU32(off+abi.EventDescNrFieldsOff, uint32(len(ev.Fields)))
	e.putPtr(off+abi.EventDescProviderOff, e.cstring(ev.Provider))
	e.putPtr(off+abi.EventDescNameOff, e.cstring(ev.Name))
	fields, err := e.fields(ev.Fields)
	if err != nil {
		return nil, err
	}
	e.putPtr(off+abi.EventDescFieldsOff, fields)
	if err := e.attrList(off+abi.EventDescAttrOff, ev.Attrs); err != nil {
		return nil, err
	}
	// The state slot stays null on the wire.
	return e.buf, nil
}

// EncodeType packs one type description tree with its root record at
// offset zero.
func (e *Encoder) EncodeType(t *side.Type) ([]byte, error) {
	e.reset()
	off := e.alloc(abi.TypeSize)
	if err := e.typeAt(off, t); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// EncodeArgs packs a captured argument vector with its counted
// vector record at offset zero.
func (e *Encoder) EncodeArgs(args side.ArgVector) ([]byte, error) {
	e.reset()
	off := e.alloc(abi.ArgVectorSize)
	if err := e.argVecAt(off, args); err != nil {
		return nil, err
	}
	return e.buf, nil
}

func (e *Encoder) reset() {
	e.buf = nil
	e.strings = make(map[string]uint64)
}

// alloc extends the blob by n zero bytes and returns their offset.
// Writers index e.buf at call time, so records allocated before
// their children keep valid offsets across growth.
func (e *Encoder) alloc(n int) int {
	off := len(e.buf)
	e.buf = append(e.buf, make([]byte, n)...)
	return off
}

func (e *Encoder) putU16(off int, v uint16) {
	blobOrder.Binary().PutUint16(e.buf[off:], v)
}

func (e *Encoder) putU32(off int, v uint32) {
	blobOrder.Binary().PutUint32(e.buf[off:], v)
}

func (e *Encoder) putU64(off int, v uint64) {
	blobOrder.Binary().PutUint64(e.buf[off:], v)
}

func (e *Encoder) putS64(off int, v int64) {
	e.putU64(off, uint64(v))
}

func (e *Encoder) putPtr(off int, target uint64) {
	var p abi.Ptr
	p.Put(blobOrder, blobPtrWidth, target)
	copy(e.buf[off:], p[:])
}

func (e *Encoder) putValue(off int, v side.ScalarValue) {
	e.putU64(off, v.Lo)
	e.putU64(off+8, v.Hi)
}

// cstring appends a NUL-terminated copy of s and returns its offset.
// Identical strings are stored once per blob. Offset zero is the
// root record, so zero stays unambiguous as a null pointer.
func (e *Encoder) cstring(s string) uint64 {
	if off, ok := e.strings[s]; ok {
		return off
	}
	off := uint64(e.alloc(len(s) + 1))
	copy(e.buf[off:], s)
	e.strings[s] = off
	return off
}

// rawString appends the string payload plus one zero terminator unit
// and writes the descriptor at off.
func (e *Encoder) rawString(off int, v side.StringValue) error {
	unit := v.UnitSize
	if unit == 0 {
		unit = 1
	}
	switch unit {
	case 1, 2, 4:
	default:
		return fmt.Errorf("string unit size %d", unit)
	}
	if len(v.Bytes)%int(unit) != 0 {
		return fmt.Errorf("string payload of %d bytes is not whole %d-byte units", len(v.Bytes), unit)
	}
	data := e.alloc(len(v.Bytes) + int(unit))
	copy(e.buf[data:], v.Bytes)
	e.putPtr(off, uint64(data))
	e.buf[off+abi.PtrSize] = unit
	e.buf[off+abi.PtrSize+1] = byte(v.Order)
	return nil
}

func (e *Encoder) attrList(off int, attrs []side.Attr) error {
	if len(attrs) == 0 {
		return nil
	}
	list := e.alloc(len(attrs) * abi.AttrSize)
	e.putPtr(off, uint64(list))
	e.putU32(off+abi.PtrSize, uint32(len(attrs)))
	for i := range attrs {
		if err := e.attrAt(list+i*abi.AttrSize, &attrs[i]); err != nil {
			return err
		}
	}
	return nil
}

// attrStringUnit maps a string-kind attribute label to its code unit
// size.
func attrStringUnit(l side.Label) uint8 {
	switch l {
	case side.LabelString16:
		return 2
	case side.LabelString32:
		return 4
	}
	return 1
}

func (e *Encoder) attrAt(off int, a *side.Attr) error {
	if !side.ValidAttrLabel(a.Value.Label) {
		return fmt.Errorf("attribute %q: %s is not an attribute value kind", a.Key, a.Value.Label)
	}
	e.putPtr(off, e.cstring(a.Key))
	e.buf[off+abi.PtrSize] = 1
	e.buf[off+abi.PtrSize+1] = byte(blobOrder)
	v := off + abi.RawStringSize
	e.putU16(v, uint16(a.Value.Label))
	if a.Value.Label.IsString() {
		unit := attrStringUnit(a.Value.Label)
		return e.rawString(v+2, side.StringValue{
			Bytes:    strutils.EncodeUnits(a.Value.Str, unit, blobOrder),
			UnitSize: unit,
			Order:    blobOrder,
		})
	}
	e.putValue(v+2, a.Value.Scalar)
	return nil
}

func (e *Encoder) fields(fs []side.Field) (uint64, error) {
	if len(fs) == 0 {
		return 0, nil
	}
	list := e.alloc(len(fs) * abi.EventFieldSize)
	for i := range fs {
		off := list + i*abi.EventFieldSize
		e.putPtr(off, e.cstring(fs[i].Name))
		if err := e.typeAt(off+abi.PtrSize, fs[i].Type); err != nil {
			return 0, fmt.Errorf("field %q: %w", fs[i].Name, err)
		}
	}
	return uint64(list), nil
}

// typeRef packs t as an out-of-line type record and returns its
// offset.
func (e *Encoder) typeRef(t *side.Type) (uint64, error) {
	off := e.alloc(abi.TypeSize)
	if err := e.typeAt(off, t); err != nil {
		return 0, err
	}
	return uint64(off), nil
}

func (e *Encoder) typeAt(off int, t *side.Type) error {
	if t == nil {
		return errors.New("nil type description")
	}
	if !t.Label.Valid() {
		return fmt.Errorf("unknown type label %d", uint16(t.Label))
	}
	e.putU16(off, uint16(t.Label))
	p := off + 2
	switch {
	case t.Label == side.LabelNull, t.Label == side.LabelByte, t.Label == side.LabelDynamic:
		return e.attrList(p, t.Attrs)
	case t.Label == side.LabelBool:
		return e.boolPayload(p, t.Bool, t.Attrs)
	case t.Label.IsInteger(), t.Label == side.LabelPointer:
		return e.integerPayload(p, t.Integer, t.Attrs)
	case t.Label.IsFloat():
		return e.floatPayload(p, t.Float, t.Attrs)
	case t.Label.IsString():
		return e.stringPayload(p, t.Str, t.Attrs)
	case t.Label == side.LabelStruct:
		if t.Struct == nil {
			return fmt.Errorf("%s description missing struct record", t.Label)
		}
		return e.structPayload(p, t.Struct.Fields, t.Attrs)
	case t.Label == side.LabelVariant:
		return e.variantPayload(p, t.Variant, t.Attrs)
	case t.Label == side.LabelArray:
		return e.arrayPayload(p, t.Array, t.Attrs)
	case t.Label == side.LabelVLA:
		return e.vlaPayload(p, t.VLA, t.Attrs)
	case t.Label == side.LabelVLAVisitor:
		return e.vlaVisitorPayload(p, t.VLAVisitor, t.Attrs)
	case t.Label == side.LabelEnum, t.Label == side.LabelEnumBitmap, t.Label == side.LabelGatherEnum:
		return e.enumPayload(p, t.Enum, t.Attrs)
	case t.Label == side.LabelOptional:
		if t.Optional == nil {
			return fmt.Errorf("%s description missing optional record", t.Label)
		}
		elem, err := e.typeRef(t.Optional.Elem)
		if err != nil {
			return fmt.Errorf("optional element: %w", err)
		}
		e.putPtr(p, elem)
		return e.attrList(p+abi.PtrSize, t.Attrs)
	case t.Label.IsGather():
		return e.gatherPayload(p, t)
	}
	return fmt.Errorf("type label %s is not encodable", t.Label)
}

func (e *Encoder) boolPayload(p int, t *side.BoolType, attrs []side.Attr) error {
	if t == nil {
		return errors.New("bool description missing its record")
	}
	if err := e.attrList(p, attrs); err != nil {
		return err
	}
	e.putU16(p+abi.AttrListSize, t.Size)
	e.putU16(p+abi.AttrListSize+2, t.LenBits)
	e.buf[p+abi.AttrListSize+4] = byte(t.Order)
	return nil
}

func (e *Encoder) integerPayload(p int, t *side.IntegerType, attrs []side.Attr) error {
	if t == nil {
		return errors.New("integer description missing its record")
	}
	if err := e.attrList(p, attrs); err != nil {
		return err
	}
	e.putU16(p+abi.AttrListSize, t.Size)
	e.putU16(p+abi.AttrListSize+2, t.LenBits)
	if t.Signed {
		e.buf[p+abi.AttrListSize+4] = 1
	}
	e.buf[p+abi.AttrListSize+5] = byte(t.Order)
	return nil
}

func (e *Encoder) floatPayload(p int, t *side.FloatType, attrs []side.Attr) error {
	if t == nil {
		return errors.New("float description missing its record")
	}
	if err := e.attrList(p, attrs); err != nil {
		return err
	}
	e.putU16(p+abi.AttrListSize, t.Size)
	e.buf[p+abi.AttrListSize+2] = byte(t.Order)
	return nil
}

func (e *Encoder) stringPayload(p int, t *side.StringType, attrs []side.Attr) error {
	if t == nil {
		return errors.New("string description missing its record")
	}
	if err := e.attrList(p, attrs); err != nil {
		return err
	}
	e.buf[p+abi.AttrListSize] = t.UnitSize
	e.buf[p+abi.AttrListSize+1] = byte(t.Order)
	return nil
}

// structPayload lays out fields pointer, attribute list, count. It
// backs both the stack-copy and the gathered struct kinds.
func (e *Encoder) structPayload(p int, fs []side.Field, attrs []side.Attr) error {
	fields, err := e.fields(fs)
	if err != nil {
		return err
	}
	e.putPtr(p, fields)
	if err := e.attrList(p+abi.PtrSize, attrs); err != nil {
		return err
	}
	e.putU32(p+abi.PtrSize+abi.AttrListSize, uint32(len(fs)))
	return nil
}

func (e *Encoder) variantPayload(p int, vt *side.VariantType, attrs []side.Attr) error {
	if vt == nil {
		return errors.New("variant description missing its record")
	}
	sel, err := e.typeRef(vt.Selector)
	if err != nil {
		return fmt.Errorf("variant selector: %w", err)
	}
	e.putPtr(p, sel)
	e.putU32(p+abi.PtrSize, uint32(len(vt.Options)))
	opts, err := e.options(vt.Options)
	if err != nil {
		return err
	}
	e.putPtr(p+abi.PtrSize+4, opts)
	return e.attrList(p+2*abi.PtrSize+4, attrs)
}

func (e *Encoder) options(opts []side.VariantOption) (uint64, error) {
	if len(opts) == 0 {
		return 0, nil
	}
	list := e.alloc(len(opts) * abi.VariantOptionSize)
	for i := range opts {
		off := list + i*abi.VariantOptionSize
		e.putS64(off, opts[i].Begin)
		e.putS64(off+8, opts[i].End)
		if err := e.typeAt(off+16, opts[i].Type); err != nil {
			return 0, fmt.Errorf("variant option %d: %w", i, err)
		}
	}
	return uint64(list), nil
}

func (e *Encoder) arrayPayload(p int, at *side.ArrayType, attrs []side.Attr) error {
	if at == nil {
		return errors.New("array description missing its record")
	}
	elem, err := e.typeRef(at.Elem)
	if err != nil {
		return fmt.Errorf("array element: %w", err)
	}
	e.putPtr(p, elem)
	if err := e.attrList(p+abi.PtrSize, attrs); err != nil {
		return err
	}
	e.putU32(p+abi.PtrSize+abi.AttrListSize, at.Length)
	return nil
}

func (e *Encoder) vlaPayload(p int, vt *side.VLAType, attrs []side.Attr) error {
	if vt == nil {
		return errors.New("vla description missing its record")
	}
	elem, err := e.typeRef(vt.Elem)
	if err != nil {
		return fmt.Errorf("vla element: %w", err)
	}
	e.putPtr(p, elem)
	length, err := e.typeRef(vt.Length)
	if err != nil {
		return fmt.Errorf("vla length: %w", err)
	}
	e.putPtr(p+abi.PtrSize, length)
	return e.attrList(p+2*abi.PtrSize, attrs)
}

// vlaVisitorPayload stores the implementation out of line. The
// visitor function itself cannot travel; its wire identifier stands
// in and decoding restores the function from the registry.
func (e *Encoder) vlaVisitorPayload(p int, vt *side.VLAVisitorType, attrs []side.Attr) error {
	if vt == nil {
		return errors.New("vla-visitor description missing its record")
	}
	impl := e.alloc(abi.VLAVisitorImplSize)
	e.putPtr(p, uint64(impl))
	if err := e.typeAt(impl, vt.Elem); err != nil {
		return fmt.Errorf("vla-visitor element: %w", err)
	}
	if err := e.typeAt(impl+abi.TypeSize, vt.Length); err != nil {
		return fmt.Errorf("vla-visitor length: %w", err)
	}
	e.putU64(impl+2*abi.TypeSize, vt.WireID)
	return e.attrList(impl+2*abi.TypeSize+8, attrs)
}

func (e *Encoder) enumPayload(p int, et *side.EnumType, attrs []side.Attr) error {
	if et == nil {
		return errors.New("enum description missing its record")
	}
	maps, err := e.mappings(et.Mappings)
	if err != nil {
		return err
	}
	e.putPtr(p, maps)
	e.putU32(p+abi.PtrSize, uint32(len(et.Mappings)))
	elem, err := e.typeRef(et.Elem)
	if err != nil {
		return fmt.Errorf("enum element: %w", err)
	}
	e.putPtr(p+abi.PtrSize+4, elem)
	return e.attrList(p+2*abi.PtrSize+4, attrs)
}

func (e *Encoder) mappings(ms []side.EnumMapping) (uint64, error) {
	if len(ms) == 0 {
		return 0, nil
	}
	list := e.alloc(len(ms) * abi.EnumMappingSize)
	for i := range ms {
		off := list + i*abi.EnumMappingSize
		e.putS64(off, ms[i].Begin)
		e.putS64(off+8, ms[i].End)
		e.putPtr(off+16, e.cstring(ms[i].Label))
		e.buf[off+16+abi.PtrSize] = 1
		e.buf[off+16+abi.PtrSize+1] = byte(blobOrder)
	}
	return uint64(list), nil
}

// gatherPayload appends the memory access parameters after the
// payload of the underlying kind. The gather enum carries no access
// parameters of its own; its element does.
func (e *Encoder) gatherPayload(p int, t *side.Type) error {
	g := t.Gather
	if g == nil {
		return fmt.Errorf("%s description missing gather record", t.Label)
	}
	if g.Access > side.GatherAccessPointer {
		return fmt.Errorf("%s description: gather access mode %d", t.Label, g.Access)
	}
	switch t.Label {
	case side.LabelGatherBool:
		if err := e.boolPayload(p, t.Bool, t.Attrs); err != nil {
			return err
		}
		tail := e.gatherTail(p+abi.BoolTypePayloadSize, g)
		e.putU16(tail, g.OffsetBits)
	case side.LabelGatherInteger, side.LabelGatherPointer:
		if err := e.integerPayload(p, t.Integer, t.Attrs); err != nil {
			return err
		}
		tail := e.gatherTail(p+abi.IntegerTypePayloadSize, g)
		e.putU16(tail, g.OffsetBits)
	case side.LabelGatherByte:
		if err := e.attrList(p, t.Attrs); err != nil {
			return err
		}
		e.gatherTail(p+abi.AttrListSize, g)
	case side.LabelGatherFloat:
		if err := e.floatPayload(p, t.Float, t.Attrs); err != nil {
			return err
		}
		e.gatherTail(p+abi.FloatTypePayloadSize, g)
	case side.LabelGatherString:
		if err := e.stringPayload(p, t.Str, t.Attrs); err != nil {
			return err
		}
		e.gatherTail(p+abi.StringTypePayloadSize, g)
	case side.LabelGatherStruct:
		if t.Struct == nil {
			return fmt.Errorf("%s description missing struct record", t.Label)
		}
		if err := e.structPayload(p, t.Struct.Fields, t.Attrs); err != nil {
			return err
		}
		tail := e.gatherTail(p+abi.StructTypePayloadSize, g)
		e.putU32(tail, g.Size)
	case side.LabelGatherArray:
		if err := e.arrayPayload(p, t.Array, t.Attrs); err != nil {
			return err
		}
		e.gatherTail(p+abi.ArrayTypePayloadSize, g)
	case side.LabelGatherVLA:
		if err := e.vlaPayload(p, t.VLA, t.Attrs); err != nil {
			return err
		}
		e.gatherTail(p+abi.VLATypePayloadSize, g)
	default:
		return fmt.Errorf("type label %s is not encodable", t.Label)
	}
	return nil
}

func (e *Encoder) gatherTail(p int, g *side.GatherInfo) int {
	e.putU64(p, g.Offset)
	e.buf[p+8] = byte(g.Access)
	return p + 9
}

func (e *Encoder) argVecAt(off int, args []side.Arg) error {
	if len(args) == 0 {
		return nil
	}
	list := e.alloc(len(args) * abi.ArgSize)
	e.putPtr(off, uint64(list))
	e.putU32(off+abi.PtrSize, uint32(len(args)))
	for i := range args {
		if err := e.argAt(list+i*abi.ArgSize, &args[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) argAt(off int, a *side.Arg) error {
	if !a.Label.Valid() {
		return fmt.Errorf("unknown argument label %d", uint16(a.Label))
	}
	e.putU16(off, uint16(a.Label))
	e.putU16(off+2, uint16(a.Flags))
	p := off + 4
	switch {
	case a.Label == side.LabelNull:
	case a.Label == side.LabelBool, a.Label.IsInteger(), a.Label == side.LabelByte,
		a.Label == side.LabelPointer, a.Label.IsFloat():
		e.putValue(p, a.Scalar)
	case a.Label.IsString():
		return e.rawString(p, a.Str)
	case a.Label == side.LabelStruct, a.Label == side.LabelArray, a.Label == side.LabelVLA:
		return e.argVecAt(p, a.Vec)
	case a.Label == side.LabelVLAVisitor:
		// Elements are produced at walk time; the application context
		// cannot travel.
	case a.Label == side.LabelVariant:
		return e.variantArg(p, a)
	case a.Label == side.LabelOptional:
		return e.optionalArg(p, a)
	case a.Label.IsGather():
		e.putU64(p, a.Addr)
	case a.Label.IsDynamic():
		return e.dynAt(p, a)
	default:
		return fmt.Errorf("argument label %s is not encodable", a.Label)
	}
	return nil
}

func (e *Encoder) variantArg(p int, a *side.Arg) error {
	if a.Variant == nil {
		if a.Incomplete() {
			return nil
		}
		return errors.New("variant argument missing its record")
	}
	rec := e.alloc(abi.VariantArgSize)
	e.putPtr(p, uint64(rec))
	if err := e.argAt(rec, &a.Variant.Selector); err != nil {
		return fmt.Errorf("variant selector: %w", err)
	}
	if err := e.argAt(rec+abi.ArgSize, &a.Variant.Value); err != nil {
		return fmt.Errorf("variant value: %w", err)
	}
	return nil
}

func (e *Encoder) optionalArg(p int, a *side.Arg) error {
	o := a.Optional
	if o == nil {
		if a.Incomplete() {
			return nil
		}
		return errors.New("optional argument missing its record")
	}
	if o.Present {
		if o.Value == nil {
			return errors.New("optional argument present without a value")
		}
		e.buf[p] = 1
	}
	if o.Value == nil {
		return nil
	}
	rec := e.alloc(abi.ArgSize)
	e.putPtr(p+1, uint64(rec))
	return e.argAt(rec, o.Value)
}

func (e *Encoder) dynAt(p int, a *side.Arg) error {
	d := a.Dyn
	if d == nil {
		if a.Incomplete() {
			return nil
		}
		return errors.New("dynamic argument missing its value record")
	}
	switch a.Label {
	case side.LabelDynamicNull:
		return e.attrList(p, d.Attrs)
	case side.LabelDynamicBool:
		if err := e.boolPayload(p, d.Bool, d.Attrs); err != nil {
			return err
		}
		e.putValue(p+abi.BoolTypePayloadSize, d.Scalar)
	case side.LabelDynamicInteger, side.LabelDynamicPointer:
		if err := e.integerPayload(p, d.Integer, d.Attrs); err != nil {
			return err
		}
		e.putValue(p+abi.IntegerTypePayloadSize, d.Scalar)
	case side.LabelDynamicByte:
		if err := e.attrList(p, d.Attrs); err != nil {
			return err
		}
		e.putValue(p+abi.AttrListSize, d.Scalar)
	case side.LabelDynamicFloat:
		if err := e.floatPayload(p, d.Float, d.Attrs); err != nil {
			return err
		}
		e.putValue(p+abi.FloatTypePayloadSize, d.Scalar)
	case side.LabelDynamicString:
		unit := d.Str.UnitSize
		if unit == 0 {
			unit = 1
		}
		st := &side.StringType{UnitSize: unit, Order: d.Str.Order}
		if err := e.stringPayload(p, st, d.Attrs); err != nil {
			return err
		}
		return e.rawString(p+abi.StringTypePayloadSize, d.Str)
	case side.LabelDynamicStruct:
		rec := e.alloc(abi.DynamicStructSize)
		e.putPtr(p, uint64(rec))
		if len(d.Fields) > 0 {
			list := e.alloc(len(d.Fields) * abi.DynamicFieldSize)
			e.putPtr(rec, uint64(list))
			for i := range d.Fields {
				off := list + i*abi.DynamicFieldSize
				e.putPtr(off, e.cstring(d.Fields[i].Name))
				if err := e.argAt(off+abi.PtrSize, &d.Fields[i].Value); err != nil {
					return fmt.Errorf("dynamic field %q: %w", d.Fields[i].Name, err)
				}
			}
		}
		if err := e.attrList(rec+abi.PtrSize, d.Attrs); err != nil {
			return err
		}
		e.putU32(rec+abi.PtrSize+abi.AttrListSize, uint32(len(d.Fields)))
	case side.LabelDynamicVLA:
		rec := e.alloc(abi.DynamicVLASize)
		e.putPtr(p, uint64(rec))
		if len(d.Elems) > 0 {
			list := e.alloc(len(d.Elems) * abi.ArgSize)
			e.putPtr(rec, uint64(list))
			for i := range d.Elems {
				if err := e.argAt(list+i*abi.ArgSize, &d.Elems[i]); err != nil {
					return fmt.Errorf("dynamic element %d: %w", i, err)
				}
			}
		}
		if err := e.attrList(rec+abi.PtrSize, d.Attrs); err != nil {
			return err
		}
		e.putU32(rec+abi.PtrSize+abi.AttrListSize, uint32(len(d.Elems)))
	case side.LabelDynamicStructVisitor, side.LabelDynamicVLAVisitor:
		e.putU64(p, d.VisitorID)
		return e.attrList(p+8, d.Attrs)
	}
	return nil
}
