// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package metrics defines the prometheus collectors maintained by the
// registration component. The visitor engines never touch them; all
// accounting happens around the walk, not inside it.
package metrics

import (
	"errors"
	"net/http"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/efficios/go-side/pkg/logger"
	"github.com/efficios/go-side/pkg/version"
	"github.com/efficios/go-side/pkg/visitor"
)

const MetricsNamespace = "side"

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

var (
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "The total number of event emissions per event description.",
	}, []string{"provider", "event"})
	CallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "callbacks_total",
		Help:      "The total number of per-tracer argument walks.",
	}, []string{"tracer"})
	WalkErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "walk_errors_total",
		Help:      "The total number of failed walks per error kind.",
	}, []string{"type"})
	TracersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "tracers",
		Help:      "The number of registered tracers.",
	})
)

// RegisterMetrics registers every collector of this package with reg.
func RegisterMetrics(reg *prometheus.Registry) {
	reg.MustRegister(EventsTotal)
	reg.MustRegister(CallbacksTotal)
	reg.MustRegister(WalkErrorsTotal)
	reg.MustRegister(TracersGauge)
	reg.MustRegister(version.NewBuildInfoCollector())

	// Initialize the error kinds so rates start from a visible zero.
	for _, kind := range errorKinds {
		WalkErrorsTotal.WithLabelValues(kind).Add(0)
	}
}

func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		RegisterMetrics(registry)
	})
	return registry
}

func EnableMetrics(address string) {
	reg := GetRegistry()

	logger.GetLogger().WithField("addr", address).Info("Starting metrics server")
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	http.ListenAndServe(address, nil)
}

var errorKinds = []string{
	ErrorKind(visitor.ErrVisitorAbort),
	ErrorKind(&visitor.MismatchError{}),
	ErrorKind(&visitor.CountMismatchError{}),
	ErrorKind(&visitor.NestingError{}),
	ErrorKind(&visitor.UnknownLabelError{}),
	ErrorKind(&visitor.UnmatchedSelectorError{}),
	ErrorKind(&visitor.MissingVisitorError{}),
	ErrorKind(visitor.ErrBadByteOrder),
	ErrorKind(errors.New("")),
}

// ErrorKind maps a walk error to its walk_errors_total label value.
// Aborts win over the wrapped application error.
func ErrorKind(err error) string {
	var (
		mismatch      *visitor.MismatchError
		countMismatch *visitor.CountMismatchError
		nesting       *visitor.NestingError
		unknownLabel  *visitor.UnknownLabelError
		unmatched     *visitor.UnmatchedSelectorError
		missing       *visitor.MissingVisitorError
	)
	switch {
	case errors.Is(err, visitor.ErrVisitorAbort):
		return strcase.ToSnake("VisitorAbort")
	case errors.As(err, &mismatch):
		return strcase.ToSnake("LabelMismatch")
	case errors.As(err, &countMismatch):
		return strcase.ToSnake("CountMismatch")
	case errors.As(err, &nesting):
		return strcase.ToSnake("Nesting")
	case errors.As(err, &unknownLabel):
		return strcase.ToSnake("UnknownLabel")
	case errors.As(err, &unmatched):
		return strcase.ToSnake("UnmatchedSelector")
	case errors.As(err, &missing):
		return strcase.ToSnake("MissingVisitor")
	case errors.Is(err, visitor.ErrBadByteOrder):
		return strcase.ToSnake("BadByteOrder")
	default:
		return strcase.ToSnake("Other")
	}
}

// WalkErrorInc counts one failed walk under its error kind.
func WalkErrorInc(err error) {
	WalkErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
}
