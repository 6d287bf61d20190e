// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !linux

package ktime

import (
	"time"
)

// Timestamps on non-linux hosts are relative to process start, which
// keeps them monotonic and self-consistent within one process.
var processStart = time.Now()

func Monotonic() (time.Duration, error) {
	return time.Since(processStart), nil
}

func NanoTimeSince(ktime int64) (time.Duration, error) {
	return time.Since(processStart) - time.Duration(ktime), nil
}

func DecodeKtime(ktime int64, _ bool) (time.Time, error) {
	return processStart.Add(time.Duration(ktime)), nil
}
