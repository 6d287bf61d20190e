// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package visitor

import (
	"fmt"
	"math"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/strutils"
)

// maxGatherStringUnits caps the terminator scan of a gathered string
// so a corrupt pointer cannot walk the whole address space.
const maxGatherStringUnits = 1 << 16

// walkGatherArg pairs a top-level gather argument, which carries only
// a base address, with its description and reads the value tree out
// of memory through the walk's memory reader.
func (w *argWalker) walkGatherArg(d *side.Type, a *side.Arg) error {
	want := d.Label
	if d.Label == side.LabelGatherEnum {
		if err := checkEnumElem(d, true); err != nil {
			return err
		}
		want = d.Enum.Elem.Label
	}
	if err := match(want, a.Label); err != nil {
		return err
	}
	return w.gatherType(d, a.Addr)
}

// gatherType reads one gather node against a base address. Nested
// nodes receive the address of their slot as the base, so access
// modes and offsets compose the same way at every depth.
func (w *argWalker) gatherType(d *side.Type, base uint64) error {
	switch d.Label {
	case side.LabelGatherBool:
		if err := checkBool(d); err != nil {
			return err
		}
		a, err := w.gatherScalar(d, base, d.Bool.Size, d.Bool.Order)
		if err != nil {
			return err
		}
		if w.cb.GatherBool != nil {
			w.cb.GatherBool(d, a)
		}

	case side.LabelGatherInteger:
		if err := checkInteger(d); err != nil {
			return err
		}
		a, err := w.gatherScalar(d, base, d.Integer.Size, d.Integer.Order)
		if err != nil {
			return err
		}
		if w.cb.GatherInteger != nil {
			w.cb.GatherInteger(d, a)
		}

	case side.LabelGatherByte:
		a, err := w.gatherScalar(d, base, 1, abi.HostOrder)
		if err != nil {
			return err
		}
		if w.cb.GatherByte != nil {
			w.cb.GatherByte(d, a)
		}

	case side.LabelGatherPointer:
		if err := checkInteger(d); err != nil {
			return err
		}
		a, err := w.gatherScalar(d, base, d.Integer.Size, d.Integer.Order)
		if err != nil {
			return err
		}
		if w.cb.GatherPointer != nil {
			w.cb.GatherPointer(d, a)
		}

	case side.LabelGatherFloat:
		if err := checkFloat(d); err != nil {
			return err
		}
		a, err := w.gatherScalar(d, base, d.Float.Size, d.Float.Order)
		if err != nil {
			return err
		}
		if w.cb.GatherFloat != nil {
			w.cb.GatherFloat(d, a)
		}

	case side.LabelGatherString:
		return w.gatherString(d, base)

	case side.LabelGatherStruct:
		return w.gatherStruct(d, base)

	case side.LabelGatherArray:
		return w.gatherArray(d, base)

	case side.LabelGatherVLA:
		return w.gatherVLA(d, base)

	case side.LabelGatherEnum:
		return w.gatherEnum(d, base)

	default:
		return &UnknownLabelError{Label: d.Label}
	}
	return nil
}

// gatherScalar reads a fixed-size value and materializes it into the
// argument the matching stack-copy kind would carry. Addr records
// where the value was read.
func (w *argWalker) gatherScalar(d *side.Type, base uint64, size uint16, order abi.ByteOrder) (*side.Arg, error) {
	addr, err := w.gatherAddr(d, base)
	if err != nil {
		return nil, err
	}
	b, err := w.window(addr, int(size))
	if err != nil {
		return nil, err
	}
	return &side.Arg{
		Label:  d.Label,
		Scalar: materialize(side.PatternOf(b), size, order, d.Gather.OffsetBits),
		Addr:   addr,
	}, nil
}

// gatherString scans for the all-zero terminator unit by unit, so a
// string ending near the edge of readable memory is never over-read.
// The terminator is excluded from the materialized value.
func (w *argWalker) gatherString(d *side.Type, base uint64) error {
	if err := checkString(d); err != nil {
		return err
	}
	addr, err := w.gatherAddr(d, base)
	if err != nil {
		return err
	}
	unit := int(d.Str.UnitSize)
	var units []byte
	for i := 0; ; i++ {
		if i >= maxGatherStringUnits {
			return fmt.Errorf("gathered string at 0x%x exceeds %d units with no terminator", addr, maxGatherStringUnits)
		}
		b, err := w.window(addr+uint64(i)*uint64(unit), unit)
		if err != nil {
			return err
		}
		if strutils.TermIndex(b, d.Str.UnitSize) == 0 {
			break
		}
		units = append(units, b...)
	}
	a := &side.Arg{
		Label: d.Label,
		Str:   side.StringValue{Bytes: units, UnitSize: d.Str.UnitSize, Order: d.Str.Order},
		Addr:  addr,
	}
	if w.cb.GatherString != nil {
		w.cb.GatherString(d, a)
	}
	return nil
}

// gatherStruct resolves the region address once, then walks each
// field against it. Field offsets are relative to the region start
// and fields must themselves be gather kinds.
func (w *argWalker) gatherStruct(d *side.Type, base uint64) error {
	if d.Struct == nil {
		return malformed(d, "struct")
	}
	addr, err := w.gatherAddr(d, base)
	if err != nil {
		return err
	}
	if w.cb.BeforeGatherStruct != nil {
		w.cb.BeforeGatherStruct(d)
	}
	for i := range d.Struct.Fields {
		f := &d.Struct.Fields[i]
		if f.Type == nil {
			return nilField(f.Name)
		}
		if !f.Type.Label.IsGather() {
			return &NestingError{Outer: d.Label, Site: "field", Inner: f.Type.Label}
		}
		if err := w.gatherField(f, addr); err != nil {
			return err
		}
	}
	if w.cb.AfterGatherStruct != nil {
		w.cb.AfterGatherStruct(d)
	}
	return nil
}

func (w *argWalker) gatherField(f *side.Field, base uint64) error {
	if w.cb.BeforeField != nil {
		w.cb.BeforeField(f)
	}
	if err := w.gatherType(f.Type, base); err != nil {
		return err
	}
	if w.cb.AfterField != nil {
		w.cb.AfterField(f)
	}
	return nil
}

func (w *argWalker) gatherElem(elem *side.Type, slot uint64) error {
	if w.cb.BeforeElem != nil {
		w.cb.BeforeElem(elem)
	}
	if err := w.gatherType(elem, slot); err != nil {
		return err
	}
	if w.cb.AfterElem != nil {
		w.cb.AfterElem(elem)
	}
	return nil
}

func (w *argWalker) gatherArray(d *side.Type, base uint64) error {
	if d.Array == nil || d.Array.Elem == nil {
		return malformed(d, "array")
	}
	if err := checkGatherElem(d, d.Array.Elem); err != nil {
		return err
	}
	addr, err := w.gatherAddr(d, base)
	if err != nil {
		return err
	}
	stride, err := gatherStride(d.Array.Elem)
	if err != nil {
		return err
	}
	if w.cb.BeforeGatherArray != nil {
		w.cb.BeforeGatherArray(d)
	}
	for i := 0; i < int(d.Array.Length); i++ {
		if err := w.gatherElem(d.Array.Elem, addr+uint64(i)*uint64(stride)); err != nil {
			return err
		}
	}
	if w.cb.AfterGatherArray != nil {
		w.cb.AfterGatherArray(d)
	}
	return nil
}

// gatherVLA reads the element count through the declared length type
// against the same base as the elements, then walks that many
// consecutive slots. The count rides on the opening bracket callback.
func (w *argWalker) gatherVLA(d *side.Type, base uint64) error {
	if err := checkGatherVLA(d); err != nil {
		return err
	}
	lt := d.VLA.Length
	if err := checkInteger(lt); err != nil {
		return err
	}
	n, err := w.gatherLength(lt, base)
	if err != nil {
		return err
	}
	addr, err := w.gatherAddr(d, base)
	if err != nil {
		return err
	}
	stride, err := gatherStride(d.VLA.Elem)
	if err != nil {
		return err
	}
	if w.cb.BeforeGatherVLA != nil {
		w.cb.BeforeGatherVLA(d, n)
	}
	for i := 0; i < int(n); i++ {
		if err := w.gatherElem(d.VLA.Elem, addr+uint64(i)*uint64(stride)); err != nil {
			return err
		}
	}
	if w.cb.AfterGatherVLA != nil {
		w.cb.AfterGatherVLA(d)
	}
	return nil
}

func (w *argWalker) gatherEnum(d *side.Type, base uint64) error {
	if err := checkEnumElem(d, true); err != nil {
		return err
	}
	elem := d.Enum.Elem
	if err := checkInteger(elem); err != nil {
		return err
	}
	a, err := w.gatherScalar(elem, base, elem.Integer.Size, elem.Integer.Order)
	if err != nil {
		return err
	}
	labels := matchEnum(d.Enum, a.IntegerValue(elem.Integer))
	if w.cb.GatherEnum != nil {
		w.cb.GatherEnum(d, a, labels)
	}
	return nil
}

// gatherLength reads and resolves a gather-VLA element count.
func (w *argWalker) gatherLength(lt *side.Type, base uint64) (uint32, error) {
	a, err := w.gatherScalar(lt, base, lt.Integer.Size, lt.Integer.Order)
	if err != nil {
		return 0, err
	}
	v := a.IntegerValue(lt.Integer)
	if v.IsNegative() {
		return 0, fmt.Errorf("gathered element count %s is negative", v)
	}
	if v.Hi != 0 {
		return 0, fmt.Errorf("element count %s overflows 32-bit length", v)
	}
	if err := lengthFits(v.Lo); err != nil {
		return 0, err
	}
	return uint32(v.Lo), nil
}

// gatherAddr turns a node's base address into its value address:
// base plus the declared offset for direct access, the pointer read
// at base plus the offset for pointer access. Intermediate pointers
// are host-width and host-order.
func (w *argWalker) gatherAddr(d *side.Type, base uint64) (uint64, error) {
	g := d.Gather
	if g == nil {
		return 0, malformed(d, "gather access")
	}
	if g.Access == side.GatherAccessPointer {
		p, err := w.readPointer(base)
		if err != nil {
			return 0, err
		}
		base = p
	}
	return base + g.Offset, nil
}

func (w *argWalker) readPointer(addr uint64) (uint64, error) {
	b, err := w.window(addr, abi.HostPtrWidth)
	if err != nil {
		return 0, err
	}
	return side.PatternOf(b).Uint64(), nil
}

// window wraps the memory reader with the null-base and short-read
// checks every gather read needs.
func (w *argWalker) window(addr uint64, n int) ([]byte, error) {
	if addr == 0 {
		return nil, side.ErrNullGatherBase
	}
	b, err := w.mem.Window(addr, n)
	if err != nil {
		return nil, fmt.Errorf("memory read of %d bytes at 0x%x: %w", n, addr, err)
	}
	if len(b) < n {
		return nil, fmt.Errorf("memory read of %d bytes at 0x%x: short window of %d", n, addr, len(b))
	}
	return b, nil
}

// gatherStride is the byte distance between consecutive elements of
// a gather array or VLA. A pointer-access element occupies one
// host pointer per slot regardless of its kind; direct-access
// elements occupy their value size.
func gatherStride(d *side.Type) (int, error) {
	if d.Label == side.LabelGatherEnum {
		if err := checkEnumElem(d, true); err != nil {
			return 0, err
		}
		return gatherStride(d.Enum.Elem)
	}
	if d.Gather == nil {
		return 0, malformed(d, "gather access")
	}
	if d.Gather.Access == side.GatherAccessPointer {
		return abi.HostPtrWidth, nil
	}
	switch d.Label {
	case side.LabelGatherBool:
		if err := checkBool(d); err != nil {
			return 0, err
		}
		return int(d.Bool.Size), nil
	case side.LabelGatherInteger, side.LabelGatherPointer:
		if err := checkInteger(d); err != nil {
			return 0, err
		}
		return int(d.Integer.Size), nil
	case side.LabelGatherByte:
		return 1, nil
	case side.LabelGatherFloat:
		if err := checkFloat(d); err != nil {
			return 0, err
		}
		return int(d.Float.Size), nil
	case side.LabelGatherString:
		return 0, fmt.Errorf("direct-access gathered string has no element stride")
	case side.LabelGatherStruct:
		if d.Gather.Size == 0 {
			return 0, fmt.Errorf("gathered struct element has no declared byte size")
		}
		return int(d.Gather.Size), nil
	case side.LabelGatherArray:
		if d.Array == nil || d.Array.Elem == nil {
			return 0, malformed(d, "array")
		}
		es, err := gatherStride(d.Array.Elem)
		if err != nil {
			return 0, err
		}
		return es * int(d.Array.Length), nil
	}
	return 0, &UnknownLabelError{Label: d.Label}
}

// materialize converts a pattern loaded from memory into the pattern
// a stack-copy argument of the same description would carry. For
// bit-packed gathers the bit offset is shifted out in host-canonical
// space and the result re-encoded in the declared order, so the
// materialized argument resolves through the same declared-order
// path as every other argument.
func materialize(raw side.ScalarValue, size uint16, order abi.ByteOrder, offsetBits uint16) side.ScalarValue {
	if offsetBits == 0 {
		return raw
	}
	v := raw.Resolve(size, order, offsetBits, 0, false)
	if order != abi.HostOrder {
		v = v.Resolve(size, order, 0, 0, false)
	}
	return v
}

// lengthFits rejects element counts the 32-bit vector length of the
// wire form cannot carry.
func lengthFits(n uint64) error {
	if n > math.MaxUint32 {
		return fmt.Errorf("element count %d overflows 32-bit length", n)
	}
	return nil
}
