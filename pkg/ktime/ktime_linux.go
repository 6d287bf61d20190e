// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build linux

package ktime

import (
	"time"

	"golang.org/x/sys/unix"
)

// Monotonic reads CLOCK_MONOTONIC.
func Monotonic() (time.Duration, error) {
	clk := int32(unix.CLOCK_MONOTONIC)
	currentTime := unix.Timespec{}
	if err := unix.ClockGettime(clk, &currentTime); err != nil {
		return 0, err
	}
	return time.Duration(currentTime.Nano()), nil
}

// NanoTimeSince is the time elapsed since the given monotonic
// timestamp.
func NanoTimeSince(ktime int64) (time.Duration, error) {
	now, err := Monotonic()
	if err != nil {
		return 0, err
	}
	return now - time.Duration(ktime), nil
}

// DecodeKtime converts a monotonic or boottime timestamp to wall
// time.
func DecodeKtime(ktime int64, monotonic bool) (time.Time, error) {
	var clk int32
	if monotonic {
		clk = int32(unix.CLOCK_MONOTONIC)
	} else {
		clk = int32(unix.CLOCK_BOOTTIME)
	}
	currentTime := unix.Timespec{}
	if err := unix.ClockGettime(clk, &currentTime); err != nil {
		return time.Time{}, err
	}
	diff := ktime - currentTime.Nano()
	return time.Now().Add(time.Duration(diff)), nil
}
