// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

// Package ktime reads the monotonic clock tracers timestamp
// emissions with, and converts such timestamps back to wall time.
package ktime

import (
	"time"
)

// DiffKtime is the elapsed time between two monotonic timestamps.
func DiffKtime(start, end uint64) time.Duration {
	return time.Duration(int64(end - start))
}
