// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package consoletracer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/efficios/go-side/pkg/abi"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/tracer"
	"github.com/efficios/go-side/pkg/visitor"
)

func walkInto(t *testing.T, ct *ConsoleTracer, ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField, caller uint64) {
	t.Helper()
	cfg := visitor.Config{Callbacks: ct.Callbacks(), Memory: ct.opts.Memory}
	require.NoError(t, visitor.WalkArguments(cfg, ev, args, variadic, caller))
}

// rxEvent covers one field per stack-copy kind.
func rxEvent() (*side.EventDescription, side.ArgVector) {
	ev := side.NewEvent("net", "rx", side.LoglevelInfo,
		side.FieldOf("count", side.U32()),
		side.FieldOf("dev", side.String()),
		side.FieldOf("up", side.Bool()),
		side.FieldOf("pos", side.StructOf(
			side.FieldOf("x", side.S16()),
			side.FieldOf("y", side.S16()),
		)),
		side.FieldOf("ports", side.ArrayOf(side.U16(), 2)),
		side.FieldOf("times", side.VLAOf(side.U64(), side.U32())),
		side.FieldOf("state", side.EnumOf(side.U8(),
			side.MappingValue(3, "ready"),
		)),
		side.FieldOf("flags", side.BitmapOf(side.U8(),
			side.MappingValue(0, "r"),
			side.MappingValue(2, "x"),
		)),
		side.FieldOf("limit", side.OptionalOf(side.U32())),
		side.FieldOf("note", side.OptionalOf(side.String())),
		side.FieldOf("choice", side.VariantOf(side.U8(),
			side.OptionOf(1, 1, side.F64()),
		)),
		side.FieldOf("hole", side.Null()),
		side.FieldOf("addr", side.Pointer()),
		side.FieldOf("raw", side.Byte()),
		side.FieldOf("big", side.U128()),
	)
	args := side.ArgVector{
		side.ArgU32(42),
		side.ArgString("eth0"),
		side.ArgBool(true),
		side.ArgStruct(side.ArgS16(-3), side.ArgS16(7)),
		side.ArgArray(side.ArgU16(8080), side.ArgU16(8443)),
		side.ArgVLA(side.ArgU64(1), side.ArgU64(2), side.ArgU64(3)),
		side.ArgU8(3),
		side.ArgU8(5),
		side.ArgOptional(side.ArgU32(77)),
		side.ArgOptionalNone(),
		side.ArgVariant(side.ArgU8(1), side.ArgF64(3.5)),
		side.ArgNull(),
		side.ArgPointer(0xcafe),
		side.ArgByte(0xfe),
		side.ArgU128(1, 2),
	}
	return ev, args
}

func TestHumanLine(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever})
	ev, args := rxEvent()
	walkInto(t, ct, ev, args, nil, 0)

	want := `net.rx: { count=42 dev="eth0" up=true pos={ x=-3 y=7 } ` +
		`ports=[ 8080 8443 ] times=[ 1 2 3 ] state=3(ready) flags=5(r|x) ` +
		`limit=77 note=none choice=3.5 hole=null addr=0xcafe raw=0xfe ` +
		`big=18446744073709551618 }` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestHumanVLAVisitor(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever})

	stream := func(ctx side.VLAVisitorContext, appCtx any) error {
		for _, v := range appCtx.([]uint16) {
			if err := ctx.WriteElem(side.ArgU16(v)); err != nil {
				return err
			}
		}
		return nil
	}
	ev := side.NewEvent("p", "stream", side.LoglevelDebug,
		side.FieldOf("xs", side.VLAVisitorOf(side.U16(), side.U32(), stream)),
	)
	walkInto(t, ct, ev, side.ArgVector{side.ArgVLAVisitor([]uint16{4, 5})}, nil, 0)

	assert.Equal(t, "p.stream: { xs=[ 4 5 ] }\n", buf.String())
}

func TestHumanIncomplete(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever})

	ev := side.NewEvent("core", "drop", side.LoglevelWarning,
		side.FieldOf("v", side.U32()),
		side.FieldOf("s", side.StructOf(side.FieldOf("a", side.U8()))),
		side.FieldOf("maybe", side.OptionalOf(side.U32())),
		side.FieldOf("d", side.Dynamic()),
	)
	args := side.ArgVector{
		side.ArgU32(9).AsIncomplete(),
		side.ArgStruct().AsIncomplete(),
		side.ArgOptional(side.ArgU32(1)).AsIncomplete(),
		side.DynU32(7).AsIncomplete(),
	}
	walkInto(t, ct, ev, args, nil, 0)

	want := "core.drop: { v=<unavailable> s={ } maybe=<unavailable> d=<unavailable> }\n"
	assert.Equal(t, want, buf.String())
}

func TestHumanTimestamp(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever, Timestamps: true})

	ev := side.NewEvent("core", "beat", side.LoglevelInfo)
	walkInto(t, ct, ev, nil, nil, 0)

	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\S+ core\.beat: \{ \}\n$`, buf.String())
}

func TestJSONLine(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Mode: ModeJSON})
	ev, args := rxEvent()
	walkInto(t, ct, ev, args, nil, 42)

	line := strings.TrimSpace(buf.String())
	require.True(t, gjson.Valid(line))

	assert.Equal(t, "net", gjson.Get(line, "provider").String())
	assert.Equal(t, "rx", gjson.Get(line, "event").String())
	assert.Equal(t, "info", gjson.Get(line, "loglevel").String())
	assert.Equal(t, "0x2a", gjson.Get(line, "caller").String())
	assert.False(t, gjson.Get(line, "time").Exists())

	assert.Equal(t, int64(42), gjson.Get(line, "fields.count").Int())
	assert.Equal(t, "eth0", gjson.Get(line, "fields.dev").String())
	assert.True(t, gjson.Get(line, "fields.up").Bool())
	assert.Equal(t, int64(-3), gjson.Get(line, "fields.pos.x").Int())
	assert.Equal(t, int64(8443), gjson.Get(line, "fields.ports.1").Int())
	assert.Len(t, gjson.Get(line, "fields.times").Array(), 3)
	assert.Equal(t, int64(3), gjson.Get(line, "fields.state.value").Int())
	assert.Equal(t, "ready", gjson.Get(line, "fields.state.labels.0").String())
	assert.Equal(t, `["r","x"]`, gjson.Get(line, "fields.flags.labels").Raw)
	assert.Equal(t, int64(77), gjson.Get(line, "fields.limit").Int())
	assert.Equal(t, gjson.Null, gjson.Get(line, "fields.note").Type)
	assert.Equal(t, int64(1), gjson.Get(line, "fields.choice.selector").Int())
	assert.InDelta(t, 3.5, gjson.Get(line, "fields.choice.value").Float(), 0)
	assert.Equal(t, gjson.Null, gjson.Get(line, "fields.hole").Type)
	assert.Equal(t, "0xcafe", gjson.Get(line, "fields.addr").String())
	assert.Equal(t, int64(0xfe), gjson.Get(line, "fields.raw").Int())
	assert.Equal(t, "18446744073709551618", gjson.Get(line, "fields.big").String())
}

func TestJSONVariadic(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Mode: ModeJSON})

	ev := side.NewVariadicEvent("app", "log", side.LoglevelErr,
		side.FieldOf("code", side.U32()),
		side.FieldOf("lost", side.U64()),
	)
	args := side.ArgVector{
		side.ArgU32(7),
		side.ArgU64(0).AsIncomplete(),
	}
	variadic := []side.DynamicField{
		side.DynFieldOf("msg", side.DynString("boom")),
		side.DynFieldOf("ctx", side.DynStructOf(
			side.DynFieldOf("pid", side.DynU32(1234)),
		)),
		side.DynFieldOf("vals", side.DynVLAOf(side.DynU8(1), side.DynU8(2))),
		side.DynFieldOf("ratio", side.DynF64(0.5)),
		side.DynFieldOf("ok", side.DynBool(true)),
		side.DynFieldOf("p", side.DynPointer(0xbeef)),
		side.DynFieldOf("b", side.DynByte(0x7f)),
		side.DynFieldOf("nothing", side.DynNull()),
	}
	walkInto(t, ct, ev, args, variadic, 0)

	line := strings.TrimSpace(buf.String())
	require.True(t, gjson.Valid(line))

	assert.Equal(t, "err", gjson.Get(line, "loglevel").String())
	assert.False(t, gjson.Get(line, "caller").Exists())
	assert.Equal(t, int64(7), gjson.Get(line, "fields.code").Int())
	assert.Equal(t, "<unavailable>", gjson.Get(line, "fields.lost").String())
	assert.Equal(t, "boom", gjson.Get(line, "fields.msg").String())
	assert.Equal(t, int64(1234), gjson.Get(line, "fields.ctx.pid").Int())
	assert.Equal(t, int64(2), gjson.Get(line, "fields.vals.1").Int())
	assert.InDelta(t, 0.5, gjson.Get(line, "fields.ratio").Float(), 0)
	assert.True(t, gjson.Get(line, "fields.ok").Bool())
	assert.Equal(t, "0xbeef", gjson.Get(line, "fields.p").String())
	assert.Equal(t, int64(0x7f), gjson.Get(line, "fields.b").Int())
	assert.Equal(t, gjson.Null, gjson.Get(line, "fields.nothing").Type)
}

func TestJSONTimestamp(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Mode: ModeJSON, Timestamps: true})

	ev := side.NewEvent("core", "beat", side.LoglevelInfo)
	walkInto(t, ct, ev, nil, nil, 0)

	line := strings.TrimSpace(buf.String())
	stamp := gjson.Get(line, "time").String()
	require.NotEmpty(t, stamp)
	_, err := time.Parse(rfc3339Nano, stamp)
	assert.NoError(t, err)
}

type memBuf []byte

func (m memBuf) Window(addr uint64, n int) ([]byte, error) {
	if addr+uint64(n) > uint64(len(m)) {
		return nil, fmt.Errorf("read past end at 0x%x", addr)
	}
	return m[addr : addr+uint64(n)], nil
}

func TestGatherHuman(t *testing.T) {
	mem := make(memBuf, 64)
	abi.HostOrder.Binary().PutUint32(mem[0:], 99)
	copy(mem[8:], "disk\x00")
	x := int16(-5)
	abi.HostOrder.Binary().PutUint16(mem[16:], uint16(x))
	abi.HostOrder.Binary().PutUint16(mem[18:], 12)
	abi.HostOrder.Binary().PutUint32(mem[32:], 2)
	abi.HostOrder.Binary().PutUint16(mem[36:], 21)
	abi.HostOrder.Binary().PutUint16(mem[38:], 22)

	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever, Memory: mem})

	ev := side.NewEvent("sys", "stat", side.LoglevelNotice,
		side.FieldOf("n", side.GatherInteger(0, 4, false, side.GatherAccessDirect)),
		side.FieldOf("who", side.GatherString(0, 1, side.GatherAccessDirect)),
		side.FieldOf("pt", side.GatherStructOf(0, side.GatherAccessDirect, 4,
			side.FieldOf("x", side.GatherInteger(0, 2, true, side.GatherAccessDirect)),
			side.FieldOf("y", side.GatherInteger(2, 2, true, side.GatherAccessDirect)),
		)),
		side.FieldOf("xs", side.GatherVLAOf(
			side.GatherInteger(0, 2, false, side.GatherAccessDirect),
			side.GatherInteger(0, 4, false, side.GatherAccessDirect),
			4, side.GatherAccessDirect,
		)),
	)
	args := side.ArgVector{
		side.ArgGatherInteger(0),
		side.ArgGatherString(8),
		side.ArgGatherStruct(16),
		side.ArgGatherVLA(32),
	}
	walkInto(t, ct, ev, args, nil, 0)

	want := `sys.stat: { n=99 who="disk" pt={ x=-5 y=12 } xs=[ 21 22 ] }` + "\n"
	assert.Equal(t, want, buf.String())
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	ct := NewFile(path, FileRotation{MaxSizeMB: 1}, Options{Mode: ModeJSON})

	ev := side.NewEvent("net", "up", side.LoglevelInfo,
		side.FieldOf("dev", side.String()),
	)
	walkInto(t, ct, ev, side.ArgVector{side.ArgString("eth0")}, nil, 0)
	require.NoError(t, ct.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Equal(t, "eth0", gjson.Get(line, "fields.dev").String())
}

func TestRegistryDispatch(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever})

	reg := tracer.NewRegistry()
	ev := side.NewEvent("bench", "tick", side.LoglevelInfo,
		side.FieldOf("n", side.U32()),
	)
	require.NoError(t, reg.RegisterEvent(ev))
	h, err := reg.Register(ct.Tracer())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Unregister() })

	require.True(t, ev.Enabled())
	require.NoError(t, tracer.CallEvent(ev, side.ArgVector{side.ArgU32(1)}))
	assert.Equal(t, "bench.tick: { n=1 }\n", buf.String())
}

// A second emission reuses the instance cleanly even when the first
// walk failed mid-event.
func TestLineStateRecovers(t *testing.T) {
	var buf bytes.Buffer
	ct := New(Options{Writer: &buf, Colors: ColorNever})

	bad := side.NewEvent("p", "bad", side.LoglevelInfo,
		side.FieldOf("v", side.U32()),
	)
	err := visitor.WalkArguments(visitor.Config{Callbacks: ct.Callbacks()},
		bad, side.ArgVector{side.ArgU64(1)}, nil, 0)
	require.Error(t, err)
	assert.Empty(t, buf.String())

	good := side.NewEvent("p", "good", side.LoglevelInfo,
		side.FieldOf("v", side.U32()),
	)
	walkInto(t, ct, good, side.ArgVector{side.ArgU32(6)}, nil, 0)
	assert.Equal(t, "p.good: { v=6 }\n", buf.String())
}
