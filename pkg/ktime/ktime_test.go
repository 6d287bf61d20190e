// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package ktime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonic(t *testing.T) {
	time1, err := Monotonic()
	require.NoError(t, err)
	assert.Positive(t, time1)
	time2, err := Monotonic()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time2, time1)
}

func TestNanoTimeSince(t *testing.T) {
	since, err := NanoTimeSince(0)
	require.NoError(t, err)
	assert.Positive(t, since)
}

func TestDiffKtime(t *testing.T) {
	assert.Equal(t, 5*time.Nanosecond, DiffKtime(10, 15))
}

func TestDecodeKtime(t *testing.T) {
	now, err := Monotonic()
	require.NoError(t, err)
	decoded, err := DecodeKtime(int64(now), true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), decoded, time.Minute)
}
