// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package logfields

const (
	// LogSubsys is the field denoting the subsystem when logging
	LogSubsys = "subsys"

	// Error is the Go error
	Error = "error"

	// Provider and Event identify an event description
	Provider = "provider"
	Event    = "event"

	// Tracer is the registered tracer name
	Tracer = "tracer"
)
