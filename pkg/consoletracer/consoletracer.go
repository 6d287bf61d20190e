// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package consoletracer renders emissions as text, one line per
// event. It implements the full callback table and is the reference
// consumer for every argument kind: scalars, compounds, gather reads
// and dynamic values, including incomplete markers and optional
// absence.
//
// A tracer instance keeps per-emission line state between its before
// and after hooks, so it must not receive interleaved emissions from
// multiple goroutines. Give each emitting domain its own instance or
// serialize calls upstream.
package consoletracer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cilium/lumberjack/v2"

	"github.com/efficios/go-side/pkg/ktime"
	"github.com/efficios/go-side/pkg/logger"
	"github.com/efficios/go-side/pkg/logger/logfields"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/tracer"
)

type Mode string

const (
	ModeHuman Mode = "human"
	ModeJSON  Mode = "json"
)

// rfc3339Nano is RFC3339Nano with trailing zeros kept, so timestamps
// keep a fixed width.
const rfc3339Nano = "2006-01-02T15:04:05.000000000Z07:00"

// Options configures one console tracer.
type Options struct {
	// Writer receives one line per emission. Defaults to os.Stdout.
	Writer io.Writer

	// Mode selects the line format. Defaults to ModeHuman.
	Mode Mode

	// Colors applies to human mode only.
	Colors ColorMode

	// Timestamps prefixes human lines with the capture time and adds
	// a time field to JSON lines. The clock is monotonic, read in the
	// before-event hook.
	Timestamps bool

	// Memory resolves gather addresses for this tracer's walks. Nil
	// selects the in-process identity mapping.
	Memory side.MemReader
}

// ConsoleTracer assembles each emission into one output line.
type ConsoleTracer struct {
	opts   Options
	colors *Colorer
	enc    *json.Encoder
	file   *lumberjack.Logger

	// Per-emission build state, reset by every before-event hook so a
	// walk aborted mid-emission cannot poison the next line.
	stack   []frame
	pending string
	caller  uint64
	ts      time.Duration
	tsOK    bool
}

func New(opts Options) *ConsoleTracer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	if opts.Mode == "" {
		opts.Mode = ModeHuman
	}
	if opts.Colors == "" {
		opts.Colors = ColorAuto
	}
	c := &ConsoleTracer{
		opts:   opts,
		colors: NewColorer(opts.Colors),
	}
	if opts.Mode == ModeJSON {
		c.enc = json.NewEncoder(opts.Writer)
	}
	return c
}

// FileRotation bounds a file-backed tracer's output.
type FileRotation struct {
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// NewFile writes to path through a rotating writer. Close releases
// the file.
func NewFile(path string, rot FileRotation, opts Options) *ConsoleTracer {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		Compress:   rot.Compress,
	}
	opts.Writer = writer
	c := New(opts)
	c.file = writer
	return c
}

func (c *ConsoleTracer) Close() error {
	if c.file == nil {
		return nil
	}
	return c.file.Close()
}

// RotateEvery rotates the output file on a fixed interval until ctx
// is done. It is a no-op for tracers not created with NewFile.
func (c *ConsoleTracer) RotateEvery(ctx context.Context, interval time.Duration) {
	if c.file == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.file.Rotate(); err != nil {
					logger.GetLogger().WithError(err).Warn("Failed to rotate console output file")
				}
			}
		}
	}()
}

// Tracer builds the registration-ready view of this console tracer.
// The hooks share the instance's line state; register the returned
// value once.
func (c *ConsoleTracer) Tracer() *tracer.Tracer {
	return &tracer.Tracer{
		Name:      "console",
		Callbacks: c.Callbacks(),
		Memory:    c.opts.Memory,
	}
}

// frame is one open compound while assembling a line. Exactly one of
// obj, arr and variant is set.
type frame struct {
	name    string
	obj     *objNode
	arr     *arrNode
	variant *variantNode
	selDone bool
}

func (c *ConsoleTracer) reset() {
	c.stack = c.stack[:0]
	c.pending = ""
	c.caller = 0
	c.ts = 0
	c.tsOK = false
}

// leaf places one rendered value into the top frame, consuming any
// pending field name.
func (c *ConsoleTracer) leaf(v any) {
	if len(c.stack) == 0 {
		return
	}
	f := &c.stack[len(c.stack)-1]
	switch {
	case f.obj != nil:
		f.obj.put(c.pending, v)
	case f.arr != nil:
		f.arr.elems = append(f.arr.elems, v)
	case f.variant != nil:
		if f.selDone {
			f.variant.Value = v
		} else {
			f.variant.Selector = v
		}
	}
	c.pending = ""
}

func (c *ConsoleTracer) push(f frame) {
	f.name = c.pending
	c.pending = ""
	c.stack = append(c.stack, f)
}

func (c *ConsoleTracer) pushStruct() {
	c.push(frame{obj: &objNode{}})
}

func (c *ConsoleTracer) pushList() {
	c.push(frame{arr: &arrNode{}})
}

func (c *ConsoleTracer) pushVariant() {
	c.push(frame{variant: &variantNode{}})
}

// pop closes the top frame and places its node into the parent.
func (c *ConsoleTracer) pop() {
	n := len(c.stack)
	if n <= 1 {
		return
	}
	f := c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.pending = f.name
	switch {
	case f.obj != nil:
		c.leaf(f.obj)
	case f.arr != nil:
		c.leaf(f.arr)
	default:
		c.leaf(f.variant)
	}
}

// dropLength discards the element-count value the walk reports
// through a VLA's length type; the rendered list shows the elements
// themselves.
func (c *ConsoleTracer) dropLength() {
	if len(c.stack) == 0 {
		return
	}
	if f := &c.stack[len(c.stack)-1]; f.arr != nil {
		f.arr.elems = f.arr.elems[:0]
	}
}

func (c *ConsoleTracer) selectorDone() {
	if len(c.stack) == 0 {
		return
	}
	if f := &c.stack[len(c.stack)-1]; f.variant != nil {
		f.selDone = true
	}
}

func (c *ConsoleTracer) beforeEvent(_ *side.EventDescription, caller uint64) {
	c.reset()
	c.caller = caller
	if c.opts.Timestamps {
		if ts, err := ktime.Monotonic(); err == nil {
			c.ts = ts
			c.tsOK = true
		}
	}
	c.stack = append(c.stack, frame{obj: &objNode{}})
}

func (c *ConsoleTracer) afterEvent(ev *side.EventDescription) {
	if len(c.stack) == 0 {
		return
	}
	fields := c.stack[0].obj
	var err error
	if c.opts.Mode == ModeJSON {
		err = c.writeJSON(ev, fields)
	} else {
		err = c.writeHuman(ev, fields)
	}
	if err != nil {
		logger.GetLogger().WithError(err).
			WithField(logfields.Event, ev.FullName()).
			Warn("Failed to write console line")
	}
	c.reset()
}

func (c *ConsoleTracer) stamp() (time.Time, bool) {
	if !c.tsOK {
		return time.Time{}, false
	}
	when, err := ktime.DecodeKtime(int64(c.ts), true)
	if err != nil {
		return time.Time{}, false
	}
	return when, true
}

func (c *ConsoleTracer) writeHuman(ev *side.EventDescription, fields *objNode) error {
	var b strings.Builder
	if when, ok := c.stamp(); ok {
		b.WriteString(when.Format(rfc3339Nano))
		b.WriteByte(' ')
	}
	b.WriteString(c.colors.Event(ev.Loglevel).Sprintf("%s.%s", ev.Provider, ev.Name))
	b.WriteString(": ")
	renderHuman(&b, fields)
	_, err := fmt.Fprintln(c.opts.Writer, b.String())
	return err
}

func (c *ConsoleTracer) writeJSON(ev *side.EventDescription, fields *objNode) error {
	line := &objNode{}
	if when, ok := c.stamp(); ok {
		line.put("time", when.Format(rfc3339Nano))
	}
	line.put("provider", ev.Provider)
	line.put("event", ev.Name)
	line.put("loglevel", ev.Loglevel.String())
	if c.caller != 0 {
		line.put("caller", hexVal(c.caller))
	}
	line.put("fields", fields)
	return c.enc.Encode(line)
}
