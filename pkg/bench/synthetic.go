// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !windows

package bench

import (
	"fmt"
	"log"
	"strings"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/encoder"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/strutils"
	"github.com/efficios/go-side/pkg/tracer"
)

// Workload is one synthetic emission pattern. An instance reuses its
// argument vector across emissions and is not safe for concurrent
// use; RunBench builds one per goroutine.
type Workload interface {
	Events() []*side.EventDescription
	Emit() error
	Memory() side.MemReader
}

var workloads = []string{"scalars", "strings", "compound", "gather", "dynamic", "encoded", "mixed"}

func WorkloadsSupported() []string {
	keys := make([]string, 0, len(workloads))
	for _, k := range workloads {
		keys = append(keys, string(k))
	}
	return keys
}

func WorkloadNameOrPanic(s string) string {
	for _, k := range workloads {
		if k == s {
			return s
		}
	}
	log.Fatalf("Unknown workload '%s', use one of: %s", s, strings.Join(WorkloadsSupported(), ", "))
	return string("")
}

func NewWorkload(name string, opts map[string]string) (Workload, error) {
	switch name {
	case "scalars":
		return newScalarsWorkload(), nil
	case "strings":
		return newStringsWorkload(opts)
	case "compound":
		return newCompoundWorkload(opts)
	case "gather":
		return newGatherWorkload(), nil
	case "dynamic":
		return newDynamicWorkload(opts)
	case "encoded":
		return newEncodedWorkload(opts)
	case "mixed":
		return newMixedWorkload(opts)
	}
	return nil, fmt.Errorf("unknown workload %q, use one of: %s", name, strings.Join(WorkloadsSupported(), ", "))
}

// ParseWorkloadOpts splits the key=value pairs given after --args.
func ParseWorkloadOpts(pairs []string) (map[string]string, error) {
	opts := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("workload option %q is not key=value", p)
		}
		opts[k] = v
	}
	return opts, nil
}

// optSize reads a size option, accepting unit suffixes such as 4K.
func optSize(opts map[string]string, key string, def int) (int, error) {
	s, ok := opts[key]
	if !ok {
		return def, nil
	}
	n, err := strutils.ParseSize(s)
	if err != nil {
		return 0, fmt.Errorf("workload option %s: %w", key, err)
	}
	return n, nil
}

// scalars emits an event of fixed-size values only.

type scalarsWorkload struct {
	ev   *side.EventDescription
	args side.ArgVector
	seq  uint32
}

func newScalarsWorkload() *scalarsWorkload {
	w := &scalarsWorkload{
		ev: side.NewEvent("bench", "scalars", side.LoglevelInfo,
			side.FieldOf("seq", side.U32()),
			side.FieldOf("id", side.U64()),
			side.FieldOf("delta", side.S32()),
			side.FieldOf("ratio", side.F64()),
			side.FieldOf("up", side.Bool()),
			side.FieldOf("tag", side.Byte()),
			side.FieldOf("ptr", side.Pointer()),
		),
	}
	w.args = side.ArgVector{
		side.ArgU32(0),
		side.ArgU64(0x0102030405060708),
		side.ArgS32(-12),
		side.ArgF64(0.25),
		side.ArgBool(true),
		side.ArgByte(0x5a),
		side.ArgPointer(0xffffa0cc00431e00),
	}
	return w
}

func (w *scalarsWorkload) Events() []*side.EventDescription { return []*side.EventDescription{w.ev} }
func (w *scalarsWorkload) Memory() side.MemReader           { return nil }

func (w *scalarsWorkload) Emit() error {
	w.seq++
	w.args[0] = side.ArgU32(w.seq)
	return tracer.CallEvent(w.ev, w.args)
}

// strings emits a payload string whose length is set with len=N.

type stringsWorkload struct {
	ev   *side.EventDescription
	args side.ArgVector
	seq  uint32
}

func newStringsWorkload(opts map[string]string) (*stringsWorkload, error) {
	n, err := optSize(opts, "len", 128)
	if err != nil {
		return nil, err
	}
	w := &stringsWorkload{
		ev: side.NewEvent("bench", "strings", side.LoglevelInfo,
			side.FieldOf("seq", side.U32()),
			side.FieldOf("msg", side.String()),
		),
	}
	w.args = side.ArgVector{
		side.ArgU32(0),
		side.ArgString(strings.Repeat("x", n)),
	}
	return w, nil
}

func (w *stringsWorkload) Events() []*side.EventDescription { return []*side.EventDescription{w.ev} }
func (w *stringsWorkload) Memory() side.MemReader           { return nil }

func (w *stringsWorkload) Emit() error {
	w.seq++
	w.args[0] = side.ArgU32(w.seq)
	return tracer.CallEvent(w.ev, w.args)
}

// compound exercises the bracketed kinds: struct, array, VLA, enum,
// bitmap, variant and optional. The VLA element count is set with
// elems=N. The variant and the optional alternate between their two
// shapes so both paths stay hot.

type compoundWorkload struct {
	ev   *side.EventDescription
	args side.ArgVector
	seq  uint32
}

func newCompoundWorkload(opts map[string]string) (*compoundWorkload, error) {
	elems, err := optSize(opts, "elems", 4)
	if err != nil {
		return nil, err
	}
	w := &compoundWorkload{
		ev: side.NewEvent("bench", "compound", side.LoglevelInfo,
			side.FieldOf("seq", side.U32()),
			side.FieldOf("pos", side.StructOf(
				side.FieldOf("x", side.S16()),
				side.FieldOf("y", side.S16()),
			)),
			side.FieldOf("ports", side.ArrayOf(side.U16(), 2)),
			side.FieldOf("samples", side.VLAOf(side.U64(), side.U32())),
			side.FieldOf("state", side.EnumOf(side.U8(),
				side.MappingValue(0, "idle"),
				side.MappingValue(1, "ready"),
				side.MappingRange(2, 9, "busy"),
			)),
			side.FieldOf("flags", side.BitmapOf(side.U8(),
				side.MappingValue(0, "r"),
				side.MappingValue(1, "w"),
				side.MappingValue(2, "x"),
			)),
			side.FieldOf("peer", side.VariantOf(side.U8(),
				side.OptionOf(1, 1, side.F64()),
				side.OptionOf(2, 2, side.String()),
			)),
			side.FieldOf("limit", side.OptionalOf(side.U32())),
		),
	}
	samples := make([]side.Arg, elems)
	for i := range samples {
		samples[i] = side.ArgU64(uint64(i))
	}
	w.args = side.ArgVector{
		side.ArgU32(0),
		side.ArgStruct(side.ArgS16(-3), side.ArgS16(7)),
		side.ArgArray(side.ArgU16(8080), side.ArgU16(8443)),
		side.ArgVLA(samples...),
		side.ArgU8(1),
		side.ArgU8(5),
		side.ArgVariant(side.ArgU8(1), side.ArgF64(1.5)),
		side.ArgOptional(side.ArgU32(0)),
	}
	return w, nil
}

func (w *compoundWorkload) Events() []*side.EventDescription { return []*side.EventDescription{w.ev} }
func (w *compoundWorkload) Memory() side.MemReader           { return nil }

func (w *compoundWorkload) Emit() error {
	w.seq++
	w.args[0] = side.ArgU32(w.seq)
	if w.seq%2 == 0 {
		w.args[6] = side.ArgVariant(side.ArgU8(2), side.ArgString("peer"))
		w.args[7] = side.ArgOptionalNone()
	} else {
		w.args[6] = side.ArgVariant(side.ArgU8(1), side.ArgF64(1.5))
		w.args[7] = side.ArgOptional(side.ArgU32(w.seq))
	}
	return tracer.CallEvent(w.ev, w.args)
}

// gather pulls every value out of a private buffer through the
// workload's own memory reader, so the walk pays the window lookup
// on each leaf.

const gatherBase = 0x1000

type benchMemory struct {
	buf []byte
}

func (m *benchMemory) Window(addr uint64, n int) ([]byte, error) {
	off := addr - gatherBase
	if off >= uint64(len(m.buf)) || uint64(n) > uint64(len(m.buf))-off {
		return nil, fmt.Errorf("no window at 0x%x+%d", addr, n)
	}
	return m.buf[off : off+uint64(n)], nil
}

type gatherWorkload struct {
	ev   *side.EventDescription
	args side.ArgVector
	mem  *benchMemory
	seq  uint32
}

func newGatherWorkload() *gatherWorkload {
	mem := &benchMemory{buf: make([]byte, 64)}
	copy(mem.buf[8:], "worker\x00")
	x := int16(-3)
	abi.HostOrder.Binary().PutUint16(mem.buf[24:], uint16(x))
	abi.HostOrder.Binary().PutUint16(mem.buf[26:], 11)
	abi.HostOrder.Binary().PutUint32(mem.buf[32:], 3)
	abi.HostOrder.Binary().PutUint16(mem.buf[40:], 7)
	abi.HostOrder.Binary().PutUint16(mem.buf[42:], 8)
	abi.HostOrder.Binary().PutUint16(mem.buf[44:], 9)

	w := &gatherWorkload{
		ev: side.NewEvent("bench", "gather", side.LoglevelInfo,
			side.FieldOf("seq", side.GatherInteger(0, 4, false, side.GatherAccessDirect)),
			side.FieldOf("name", side.GatherString(0, 1, side.GatherAccessDirect)),
			side.FieldOf("pt", side.GatherStructOf(0, side.GatherAccessDirect, 4,
				side.FieldOf("x", side.GatherInteger(0, 2, true, side.GatherAccessDirect)),
				side.FieldOf("y", side.GatherInteger(2, 2, true, side.GatherAccessDirect)),
			)),
			side.FieldOf("vals", side.GatherVLAOf(
				side.GatherInteger(0, 2, false, side.GatherAccessDirect),
				side.GatherInteger(0, 4, false, side.GatherAccessDirect),
				8, side.GatherAccessDirect,
			)),
		),
		mem: mem,
	}
	w.args = side.ArgVector{
		side.ArgGatherInteger(gatherBase + 0),
		side.ArgGatherString(gatherBase + 8),
		side.ArgGatherStruct(gatherBase + 24),
		side.ArgGatherVLA(gatherBase + 32),
	}
	return w
}

func (w *gatherWorkload) Events() []*side.EventDescription { return []*side.EventDescription{w.ev} }
func (w *gatherWorkload) Memory() side.MemReader           { return w.mem }

func (w *gatherWorkload) Emit() error {
	w.seq++
	abi.HostOrder.Binary().PutUint32(w.mem.buf[0:], w.seq)
	return tracer.CallEvent(w.ev, w.args)
}

// dynamic emits a variadic event whose call sites append
// self-described fields. The message length is set with len=N.

type dynamicWorkload struct {
	ev       *side.EventDescription
	args     side.ArgVector
	variadic []side.DynamicField
	seq      uint32
}

func newDynamicWorkload(opts map[string]string) (*dynamicWorkload, error) {
	n, err := optSize(opts, "len", 32)
	if err != nil {
		return nil, err
	}
	w := &dynamicWorkload{
		ev: side.NewVariadicEvent("bench", "dynamic", side.LoglevelInfo,
			side.FieldOf("seq", side.U32()),
		),
	}
	w.args = side.ArgVector{side.ArgU32(0)}
	w.variadic = []side.DynamicField{
		side.DynFieldOf("msg", side.DynString(strings.Repeat("y", n))),
		side.DynFieldOf("ctx", side.DynStructOf(
			side.DynFieldOf("pid", side.DynU32(4242)),
			side.DynFieldOf("ok", side.DynBool(true)),
		)),
		side.DynFieldOf("vals", side.DynVLAOf(side.DynU64(1), side.DynU64(2), side.DynU64(3))),
	}
	return w, nil
}

func (w *dynamicWorkload) Events() []*side.EventDescription { return []*side.EventDescription{w.ev} }
func (w *dynamicWorkload) Memory() side.MemReader           { return nil }

func (w *dynamicWorkload) Emit() error {
	w.seq++
	w.args[0] = side.ArgU32(w.seq)
	return tracer.CallEventVariadic(w.ev, w.args, w.variadic)
}

// encoded emits against a description that went through an encode
// and decode round trip, the shape a consumer sees after fetching
// registration blobs from another process. Dispatch then resolves
// types out of decoded records instead of builder output.

type encodedWorkload struct {
	*compoundWorkload
}

func newEncodedWorkload(opts map[string]string) (*encodedWorkload, error) {
	w, err := newCompoundWorkload(opts)
	if err != nil {
		return nil, err
	}
	blob, err := encoder.NewEncoder().EncodeEvent(w.ev)
	if err != nil {
		return nil, err
	}
	mem, err := encoder.NewCachingReader(encoder.NewBlobReader(blob), 64)
	if err != nil {
		return nil, err
	}
	decoded, err := encoder.NewDecoder(mem).DecodeEvent(0)
	if err != nil {
		return nil, err
	}
	w.ev = decoded
	return &encodedWorkload{compoundWorkload: w}, nil
}

// mixed round-robins across the other workloads.

type mixedWorkload struct {
	subs []Workload
	mem  side.MemReader
	n    int
}

func newMixedWorkload(opts map[string]string) (*mixedWorkload, error) {
	st, err := newStringsWorkload(opts)
	if err != nil {
		return nil, err
	}
	co, err := newCompoundWorkload(opts)
	if err != nil {
		return nil, err
	}
	dy, err := newDynamicWorkload(opts)
	if err != nil {
		return nil, err
	}
	ga := newGatherWorkload()
	return &mixedWorkload{
		subs: []Workload{newScalarsWorkload(), st, co, ga, dy},
		mem:  ga.Memory(),
	}, nil
}

func (w *mixedWorkload) Events() []*side.EventDescription {
	var evs []*side.EventDescription
	for _, sub := range w.subs {
		evs = append(evs, sub.Events()...)
	}
	return evs
}

// Memory serves the gather workload's buffer; the other workloads
// never read through it.
func (w *mixedWorkload) Memory() side.MemReader { return w.mem }

func (w *mixedWorkload) Emit() error {
	sub := w.subs[w.n%len(w.subs)]
	w.n++
	return sub.Emit()
}
