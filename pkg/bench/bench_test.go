// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !windows

package bench

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efficios/go-side/pkg/tracer"
)

func TestParseWorkloadOpts(t *testing.T) {
	opts, err := ParseWorkloadOpts([]string{"len=4K", "elems=16"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"len": "4K", "elems": "16"}, opts)

	opts, err = ParseWorkloadOpts(nil)
	require.NoError(t, err)
	assert.Empty(t, opts)

	_, err = ParseWorkloadOpts([]string{"noequals"})
	assert.Error(t, err)
	_, err = ParseWorkloadOpts([]string{"=v"})
	assert.Error(t, err)
}

func TestWorkloadNames(t *testing.T) {
	assert.Equal(t, "scalars", WorkloadNameOrPanic("scalars"))
	assert.Equal(t, "null", TracerNameOrPanic("null"))
	assert.Contains(t, WorkloadsSupported(), "mixed")
	assert.Contains(t, TracersSupported(), "console")
}

// Every catalog entry must produce events that pass schema
// registration and emissions that survive a full validating walk.
func TestWorkloadCatalog(t *testing.T) {
	for _, name := range WorkloadsSupported() {
		t.Run(name, func(t *testing.T) {
			w, err := NewWorkload(name, nil)
			require.NoError(t, err)
			require.NotEmpty(t, w.Events())

			reg := tracer.NewRegistry()
			for _, ev := range w.Events() {
				require.NoError(t, reg.RegisterEvent(ev))
			}
			_, err = reg.Register(&tracer.Tracer{Name: "null", Memory: w.Memory()})
			require.NoError(t, err)

			// Ten emissions cover both branches of the alternating
			// workloads and a full rotation of the mixed one.
			for i := 0; i < 10; i++ {
				require.NoError(t, w.Emit())
			}
		})
	}

	_, err := NewWorkload("bogus", nil)
	assert.Error(t, err)
}

func TestWorkloadOptions(t *testing.T) {
	w, err := NewWorkload("strings", map[string]string{"len": "1K"})
	require.NoError(t, err)
	sw := w.(*stringsWorkload)
	assert.Len(t, sw.args[1].Str.Bytes, 1024)

	_, err = NewWorkload("strings", map[string]string{"len": "nope"})
	assert.Error(t, err)

	w, err = NewWorkload("compound", map[string]string{"elems": "32"})
	require.NoError(t, err)
	cw := w.(*compoundWorkload)
	assert.Len(t, cw.args[3].Vec, 32)
}

func TestEncodedWorkloadDecodes(t *testing.T) {
	w, err := NewWorkload("encoded", map[string]string{"elems": "8"})
	require.NoError(t, err)
	ew := w.(*encodedWorkload)

	// The event came back through the blob codec, not the builder.
	src, err := NewWorkload("compound", nil)
	require.NoError(t, err)
	assert.NotSame(t, src.(*compoundWorkload).ev, ew.ev)
	assert.Equal(t, "compound", ew.ev.Name)
	assert.Len(t, ew.ev.Fields, 8)
	assert.Len(t, ew.args[3].Vec, 8)
}

func TestRunBenchCount(t *testing.T) {
	summary := RunBench(&Arguments{
		Workload:   "scalars",
		Tracer:     "null",
		Goroutines: 4,
		Count:      2000,
	})
	require.Empty(t, summary.Error)
	assert.Equal(t, int64(2000), summary.Events)
	assert.Zero(t, summary.Failures)
	assert.Greater(t, summary.EventsPerSecond, 0.0)
	assert.False(t, summary.EndTime.Before(summary.RunTime))
}

func TestRunBenchBaseline(t *testing.T) {
	summary := RunBench(&Arguments{
		Workload: "scalars",
		Baseline: true,
		Count:    500,
	})
	require.Empty(t, summary.Error)
	assert.Equal(t, int64(500), summary.Events)
	assert.Zero(t, summary.Failures)
	// Nothing was bound, so nothing was written.
	assert.Zero(t, summary.OutputStats.nwrites.Load())
}

func TestRunBenchJSONOutput(t *testing.T) {
	summary := RunBench(&Arguments{
		Workload:   "mixed",
		Tracer:     "json",
		Goroutines: 2,
		Count:      100,
	})
	require.Empty(t, summary.Error)
	assert.Equal(t, int64(100), summary.Events)
	assert.Zero(t, summary.Failures)
	// One line per emission, one write per line.
	assert.Equal(t, int64(100), summary.OutputStats.nwrites.Load())
	assert.Greater(t, summary.OutputStats.nbytes.Load(), int64(0))
}

func TestRunBenchDuration(t *testing.T) {
	summary := RunBench(&Arguments{
		Workload: "scalars",
		Tracer:   "null",
		Duration: 50 * time.Millisecond,
	})
	require.Empty(t, summary.Error)
	assert.Greater(t, summary.Events, int64(0))
}

func TestRunBenchBadOptions(t *testing.T) {
	summary := RunBench(&Arguments{
		Workload: "strings",
		Tracer:   "null",
		CmdArgs:  []string{"len"},
	})
	assert.NotEmpty(t, summary.Error)
	assert.Zero(t, summary.Events)
}

func TestSummaryFiles(t *testing.T) {
	dir := t.TempDir()
	summary := RunBench(&Arguments{
		Workload: "scalars",
		Tracer:   "null",
		Count:    50,
	})
	require.Empty(t, summary.Error)

	jsonPath := filepath.Join(dir, "summary.json")
	require.NoError(t, summary.WriteFile(jsonPath))
	blob, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(blob))

	csvPath := filepath.Join(dir, "summary.csv")
	require.NoError(t, summary.CSVPrint(csvPath, "nightly"))
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, []string{"Name", "nightly"}, records[0])
}

func TestCountingDiscardWriter(t *testing.T) {
	var cw CountingDiscardWriter
	n, err := cw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	cw.Write([]byte("hi"))
	assert.Equal(t, "bytes=7, writes=2", cw.String())
}

func TestCPUUsageArithmetic(t *testing.T) {
	a := CPUUsage{SystemTime: 2 * time.Second, UserTime: 3 * time.Second, ContextSwitches: 10}
	b := CPUUsage{SystemTime: time.Second, UserTime: time.Second, ContextSwitches: 4}
	d := a.Sub(b)
	assert.Equal(t, time.Second, d.SystemTime)
	assert.Equal(t, 2*time.Second, d.UserTime)
	assert.Equal(t, int64(6), d.ContextSwitches)
	assert.Equal(t, a, d.Add(b))

	got := GetCPUUsage()
	assert.GreaterOrEqual(t, got.MaxRss, int64(0))
}
