// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package tracer is the registration component: it maintains the set
// of registered tracers, binds them to event descriptions and keeps
// each event's enabled word current. The emission fast path lives in
// call.go and touches none of the registry's locks.
package tracer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/efficios/go-side/pkg/logger"
	"github.com/efficios/go-side/pkg/logger/logfields"
	"github.com/efficios/go-side/pkg/metrics"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/visitor"
)

var (
	ErrNoName             = errors.New("tracer needs a name")
	ErrNotRegistered      = errors.New("tracer is not registered")
	ErrEventRegistered    = errors.New("event is already registered")
	ErrEventNotRegistered = errors.New("event is not registered")
)

// Tracer is one consumer of emissions. The registry does not copy it;
// mutating a registered Tracer is undefined.
type Tracer struct {
	// Name labels the tracer in logs and metrics.
	Name string

	// Callbacks receive every emission of every bound event. A nil
	// table still validates emissions; the walk runs without hooks.
	Callbacks *visitor.ArgCallbacks

	// DescCallbacks, when set, walk each event's schema once as the
	// tracer binds to it.
	DescCallbacks *visitor.DescCallbacks

	// Memory resolves gather addresses for this tracer's walks. Nil
	// selects the in-process identity mapping.
	Memory side.MemReader

	// EventFilter decides binding. A tracer that rejects an event is
	// never called for it and does not keep it enabled. The filter
	// must answer the same for repeated calls with the same event.
	EventFilter func(ev *side.EventDescription) bool

	// Bind and unbind notifications. They run with the registry lock
	// held and must not re-enter the registry.
	OnRegisterEvent   func(ev *side.EventDescription)
	OnUnregisterEvent func(ev *side.EventDescription)
}

// Handle identifies one registration of one tracer.
type Handle struct {
	id  uuid.UUID
	reg *Registry
}

func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Unregister removes the tracer from its registry. Events it was
// bound to recompute their enabled word; in-flight emissions finish
// on the snapshot they loaded.
func (h *Handle) Unregister() error {
	return h.reg.unregister(h)
}

type eventEntry struct {
	// disabled is the user switch; the enabled word is
	// (bound tracers > 0) && !disabled.
	disabled bool
	bound    map[uuid.UUID]struct{}
}

// Registry maintains tracers and event descriptions. All methods are
// safe for concurrent use; emissions never take its lock.
type Registry struct {
	mu      sync.Mutex
	log     logrus.FieldLogger
	tracers map[uuid.UUID]*Tracer
	order   []uuid.UUID
	events  map[*side.EventDescription]*eventEntry
	evOrder []*side.EventDescription
}

func NewRegistry() *Registry {
	return &Registry{
		log:     logger.GetLogger(),
		tracers: make(map[uuid.UUID]*Tracer),
		events:  make(map[*side.EventDescription]*eventEntry),
	}
}

// Register adds a tracer and binds it to every registered event its
// filter accepts.
func (r *Registry) Register(t *Tracer) (*Handle, error) {
	if t == nil {
		return nil, errors.New("nil tracer")
	}
	if t.Name == "" {
		return nil, ErrNoName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Handle{id: uuid.New(), reg: r}
	r.tracers[h.id] = t
	r.order = append(r.order, h.id)
	for _, ev := range r.evOrder {
		r.recompute(ev, r.events[ev])
	}
	metrics.TracersGauge.Set(float64(len(r.tracers)))
	r.log.WithField(logfields.Tracer, t.Name).Debug("Add tracer")
	return h, nil
}

func (r *Registry) unregister(h *Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tracers[h.id]
	if !ok {
		return ErrNotRegistered
	}
	var wasBound []*side.EventDescription
	for _, ev := range r.evOrder {
		if _, bound := r.events[ev].bound[h.id]; bound {
			wasBound = append(wasBound, ev)
		}
	}
	delete(r.tracers, h.id)
	for i, id := range r.order {
		if id == h.id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, ev := range r.evOrder {
		r.recompute(ev, r.events[ev])
	}
	if t.OnUnregisterEvent != nil {
		for _, ev := range wasBound {
			t.OnUnregisterEvent(ev)
		}
	}
	metrics.TracersGauge.Set(float64(len(r.tracers)))
	r.log.WithField(logfields.Tracer, t.Name).Debug("Delete tracer")
	return nil
}

// RegisterEvent makes an event description known to the registry.
// The schema is validated here, so a registered event cannot fail
// schema checks at emission time.
func (r *Registry) RegisterEvent(ev *side.EventDescription) error {
	if ev == nil {
		return errors.New("nil event description")
	}
	if ev.State == nil {
		return fmt.Errorf("event %s has no runtime state", ev.FullName())
	}
	if err := visitor.WalkDescription(nil, ev); err != nil {
		return fmt.Errorf("event %s: %w", ev.FullName(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.events[ev]; dup {
		return ErrEventRegistered
	}
	entry := &eventEntry{bound: make(map[uuid.UUID]struct{})}
	r.events[ev] = entry
	r.evOrder = append(r.evOrder, ev)
	r.recompute(ev, entry)
	r.log.WithFields(logrus.Fields{
		logfields.Provider: ev.Provider,
		logfields.Event:    ev.Name,
	}).Debug("Register event")
	return nil
}

// UnregisterEvent withdraws an event. Its enabled word drops before
// bound tracers are notified.
func (r *Registry) UnregisterEvent(ev *side.EventDescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.events[ev]
	if !ok {
		return ErrEventNotRegistered
	}
	delete(r.events, ev)
	for i, e := range r.evOrder {
		if e == ev {
			r.evOrder = append(r.evOrder[:i], r.evOrder[i+1:]...)
			break
		}
	}
	ev.State.SetEnabled(false)
	ev.State.SetBindings(nil)
	for _, id := range r.order {
		if _, bound := entry.bound[id]; !bound {
			continue
		}
		if t := r.tracers[id]; t.OnUnregisterEvent != nil {
			t.OnUnregisterEvent(ev)
		}
	}
	r.log.WithFields(logrus.Fields{
		logfields.Provider: ev.Provider,
		logfields.Event:    ev.Name,
	}).Debug("Unregister event")
	return nil
}

// EnableEvent flips the user switch on. Events start enabled; this
// undoes DisableEvent.
func (r *Registry) EnableEvent(ev *side.EventDescription) error {
	return r.setDisabled(ev, false)
}

// DisableEvent turns an event off without unbinding its tracers.
func (r *Registry) DisableEvent(ev *side.EventDescription) error {
	return r.setDisabled(ev, true)
}

func (r *Registry) setDisabled(ev *side.EventDescription, off bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.events[ev]
	if !ok {
		return ErrEventNotRegistered
	}
	entry.disabled = off
	ev.State.SetEnabled(len(entry.bound) > 0 && !entry.disabled)
	return nil
}

// recompute rebuilds one event's binding snapshot from the current
// tracer set, firing bind and unbind notifications for the diff.
func (r *Registry) recompute(ev *side.EventDescription, entry *eventEntry) {
	old := entry.bound
	entry.bound = make(map[uuid.UUID]struct{})

	var bindings []side.EventBinding
	for _, id := range r.order {
		t := r.tracers[id]
		if t.EventFilter != nil && !t.EventFilter(ev) {
			continue
		}
		entry.bound[id] = struct{}{}
		bindings = append(bindings, binding(t))
		if _, was := old[id]; was {
			continue
		}
		if t.DescCallbacks != nil {
			if err := visitor.WalkDescription(t.DescCallbacks, ev); err != nil {
				r.log.WithError(err).WithField(logfields.Tracer, t.Name).
					Warn("Description walk failed")
			}
		}
		if t.OnRegisterEvent != nil {
			t.OnRegisterEvent(ev)
		}
	}
	for id := range old {
		if _, still := entry.bound[id]; still {
			continue
		}
		// A tracer being unregistered is already gone from the map;
		// its caller notifies.
		if t := r.tracers[id]; t != nil && t.OnUnregisterEvent != nil {
			t.OnUnregisterEvent(ev)
		}
	}

	ev.State.SetBindings(bindings)
	ev.State.SetEnabled(len(bindings) > 0 && !entry.disabled)
}

// binding builds the per-tracer walk closure the fast path calls.
func binding(t *Tracer) side.EventBinding {
	cfg := visitor.Config{Callbacks: t.Callbacks, Memory: t.Memory}
	name := t.Name
	return side.EventBinding{
		Walk: func(ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField, caller uint64) error {
			metrics.CallbacksTotal.WithLabelValues(name).Inc()
			return visitor.WalkArguments(cfg, ev, args, variadic, caller)
		},
	}
}

var defaultRegistry = NewRegistry()

// Default is the package-level registry most applications share.
func Default() *Registry {
	return defaultRegistry
}

func Register(t *Tracer) (*Handle, error) {
	return defaultRegistry.Register(t)
}

func RegisterEvent(ev *side.EventDescription) error {
	return defaultRegistry.RegisterEvent(ev)
}

func UnregisterEvent(ev *side.EventDescription) error {
	return defaultRegistry.UnregisterEvent(ev)
}
