// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package tracer

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/efficios/go-side/pkg/logger"
	"github.com/efficios/go-side/pkg/logger/logfields"
	"github.com/efficios/go-side/pkg/metrics"
	"github.com/efficios/go-side/pkg/side"
)

// failureLog keeps a hot broken call site from flooding the log.
var failureLog = rate.NewLimiter(rate.Every(time.Second), 8)

// CallEvent hands one emission to every tracer bound to ev. A
// disabled event costs one atomic load and returns nil.
func CallEvent(ev *side.EventDescription, args side.ArgVector) error {
	if !ev.Enabled() {
		return nil
	}
	pc, _, _, _ := runtime.Caller(1)
	return emit(ev, args, nil, uint64(pc))
}

// CallEventVariadic is CallEvent for events declared variadic: the
// call site appends named dynamic fields after the static arguments.
func CallEventVariadic(ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField) error {
	if !ev.Enabled() {
		return nil
	}
	pc, _, _, _ := runtime.Caller(1)
	return emit(ev, args, variadic, uint64(pc))
}

func emit(ev *side.EventDescription, args side.ArgVector, variadic []side.DynamicField, caller uint64) error {
	metrics.EventsTotal.WithLabelValues(ev.Provider, ev.Name).Inc()
	var errs error
	for _, b := range ev.State.Bindings() {
		if err := b.Walk(ev, args, variadic, caller); err != nil {
			metrics.WalkErrorInc(err)
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil && failureLog.Allow() {
		logger.GetLogger().WithError(errs).WithFields(logrus.Fields{
			logfields.Provider: ev.Provider,
			logfields.Event:    ev.Name,
		}).Warn("Event emission failed")
	}
	return errs
}
