// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package side

import (
	"go.uber.org/atomic"
)

// Loglevel mirrors the syslog severity scale.
type Loglevel uint32

const (
	LoglevelEmerg   Loglevel = 0
	LoglevelAlert   Loglevel = 1
	LoglevelCrit    Loglevel = 2
	LoglevelErr     Loglevel = 3
	LoglevelWarning Loglevel = 4
	LoglevelNotice  Loglevel = 5
	LoglevelInfo    Loglevel = 6
	LoglevelDebug   Loglevel = 7
)

var LoglevelStrings = map[Loglevel]string{
	LoglevelEmerg:   "emerg",
	LoglevelAlert:   "alert",
	LoglevelCrit:    "crit",
	LoglevelErr:     "err",
	LoglevelWarning: "warning",
	LoglevelNotice:  "notice",
	LoglevelInfo:    "info",
	LoglevelDebug:   "debug",
}

func (l Loglevel) String() string {
	if s, ok := LoglevelStrings[l]; ok {
		return s
	}
	return "unknown"
}

type EventFlags uint16

const (
	// EventFlagVariadic marks an event that accepts additional
	// self-described fields after its static field list.
	EventFlagVariadic EventFlags = 1 << 0
)

// DescriptionABIVersion is written into every packed event
// description. Readers reject higher versions.
const DescriptionABIVersion uint32 = 0

// EventDescription is the static schema of one event. It is built
// once at declaration time and borrowed immutably by every walk; only
// State changes after registration.
type EventDescription struct {
	Version  uint32
	Flags    EventFlags
	Loglevel Loglevel
	Provider string
	Name     string
	Fields   []Field
	Attrs    []Attr
	State    *EventState
}

// NewEvent declares a non-variadic event.
func NewEvent(provider, name string, level Loglevel, fields ...Field) *EventDescription {
	return &EventDescription{
		Version:  DescriptionABIVersion,
		Loglevel: level,
		Provider: provider,
		Name:     name,
		Fields:   fields,
		State:    NewEventState(),
	}
}

// NewVariadicEvent declares an event that accepts extra dynamic
// fields at each call site after the static ones.
func NewVariadicEvent(provider, name string, level Loglevel, fields ...Field) *EventDescription {
	ev := NewEvent(provider, name, level, fields...)
	ev.Flags |= EventFlagVariadic
	return ev
}

// Variadic reports whether call sites may append dynamic fields.
func (ev *EventDescription) Variadic() bool {
	return ev.Flags&EventFlagVariadic != 0
}

// FullName is the provider-qualified event name.
func (ev *EventDescription) FullName() string {
	return ev.Provider + ":" + ev.Name
}

// Enabled is the fast-path predicate checked on every emission.
func (ev *EventDescription) Enabled() bool {
	return ev.State != nil && ev.State.Enabled()
}

// EventBinding routes one emission to one registered tracer. The
// registration layer builds the closure; the event fast path only
// iterates and calls.
type EventBinding struct {
	Walk func(ev *EventDescription, args ArgVector, variadic []DynamicField, caller uint64) error
}

// EventState is the mutable registration side of an event: the
// enabled word read on the emission fast path with relaxed semantics,
// and the current snapshot of tracer bindings. Binding snapshots are
// replaced wholesale so emitters never observe a half-updated list.
type EventState struct {
	enabled  atomic.Uint32
	bindings atomic.Pointer[[]EventBinding]
}

func NewEventState() *EventState {
	return &EventState{}
}

// Enabled reports whether at least one tracer wants this event.
// Missing a concurrent toggle by one emission is acceptable.
func (s *EventState) Enabled() bool {
	return s.enabled.Load() != 0
}

// SetEnabled flips the fast-path predicate.
func (s *EventState) SetEnabled(on bool) {
	if on {
		s.enabled.Store(1)
	} else {
		s.enabled.Store(0)
	}
}

// Bindings returns the current tracer snapshot. The returned slice
// must not be mutated.
func (s *EventState) Bindings() []EventBinding {
	p := s.bindings.Load()
	if p == nil {
		return nil
	}
	return *p
}

// SetBindings publishes a new tracer snapshot. Callers serialize
// updates externally; emitters keep walking the snapshot they loaded.
func (s *EventState) SetBindings(bs []EventBinding) {
	if len(bs) == 0 {
		s.bindings.Store(nil)
		return
	}
	s.bindings.Store(&bs)
}
