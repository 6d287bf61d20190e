// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !windows

// Package bench drives synthetic emission workloads against the
// tracer registry and reports event throughput. Every emitting
// goroutine owns a private workload instance with its own event
// descriptions and its own tracer binding, which keeps the console
// tracer's single-consumer contract without locking the emission
// path. Only the output writer is shared, and each line reaches it
// in a single Write call.
package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cilium/lumberjack/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/efficios/go-side/pkg/consoletracer"
	"github.com/efficios/go-side/pkg/side"
	"github.com/efficios/go-side/pkg/tracer"
)

type Arguments struct {
	Workload         string
	Tracer           string
	CmdArgs          []string
	Goroutines       int
	Count            int64
	Duration         time.Duration
	PrintEvents      bool
	Output           string
	OutputMaxSizeMB  int
	OutputMaxBackups int
	OutputCompress   bool
	Timestamps       bool
	Colors           string
	Baseline         bool
}

func (args *Arguments) String() string {
	return fmt.Sprintf("Workload=%s, Tracer=%s, Goroutines=%d, Count=%d, Duration=%s, Baseline=%v",
		args.Workload, args.Tracer, args.Goroutines, args.Count, args.Duration, args.Baseline)
}

var tracers = []string{"console", "json", "null"}

func TracersSupported() []string {
	keys := make([]string, 0, len(tracers))
	for _, k := range tracers {
		keys = append(keys, string(k))
	}
	return keys
}

func TracerNameOrPanic(s string) string {
	for _, k := range tracers {
		if k == s {
			return s
		}
	}
	log.Fatalf("Unknown tracer '%s', use one of: %s", s, strings.Join(TracersSupported(), ", "))
	return string("")
}

func sigHandler(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		close(sigs)
		return
	case sig := <-sigs:
		log.Printf("Signal '%s' received, stopping...\n", sig)
		cancel()
		return
	}
}

type CountingDiscardWriter struct {
	nbytes  atomic.Int64
	nwrites atomic.Int64
}

func (cw *CountingDiscardWriter) Write(p []byte) (n int, err error) {
	cw.nbytes.Add(int64(len(p)))
	cw.nwrites.Inc()
	return len(p), nil
}

func (cw *CountingDiscardWriter) String() string {
	return fmt.Sprintf("bytes=%v, writes=%v", cw.nbytes.Load(), cw.nwrites.Load())
}

// workerTracer builds the tracer one goroutine registers for its own
// events. The null tracer runs the full walk with no hooks, which
// isolates walk cost from rendering cost.
func workerTracer(args *Arguments, w io.Writer, mem side.MemReader) *tracer.Tracer {
	if args.Tracer == "null" {
		return &tracer.Tracer{Name: "null", Memory: mem}
	}
	mode := consoletracer.ModeHuman
	if args.Tracer == "json" {
		mode = consoletracer.ModeJSON
	}
	ct := consoletracer.New(consoletracer.Options{
		Writer:     w,
		Mode:       mode,
		Colors:     consoletracer.ColorMode(args.Colors),
		Timestamps: args.Timestamps,
		Memory:     mem,
	})
	return ct.Tracer()
}

func RunBench(args *Arguments) (summary *Summary) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sigHandler(ctx, cancel)

	summary = newSummary(args)

	opts, err := ParseWorkloadOpts(args.CmdArgs)
	if err != nil {
		summary.Error = err.Error()
		return
	}

	goroutines := args.Goroutines
	if goroutines < 1 {
		goroutines = 1
	}

	var writer io.Writer
	if args.Output != "" {
		outFile := &lumberjack.Logger{
			Filename:   args.Output,
			MaxSize:    args.OutputMaxSizeMB,
			MaxBackups: args.OutputMaxBackups,
			Compress:   args.OutputCompress,
		}
		defer outFile.Close()
		writer = outFile
	} else if args.PrintEvents {
		writer = os.Stdout
	} else {
		writer = &summary.OutputStats
	}

	workers := make([]Workload, goroutines)
	for i := range workers {
		w, err := NewWorkload(args.Workload, opts)
		if err != nil {
			summary.Error = err.Error()
			return
		}
		reg := tracer.NewRegistry()
		for _, ev := range w.Events() {
			if err := reg.RegisterEvent(ev); err != nil {
				summary.Error = err.Error()
				return
			}
		}
		if !args.Baseline {
			if _, err := reg.Register(workerTracer(args, writer, w.Memory())); err != nil {
				summary.Error = err.Error()
				return
			}
		}
		workers[i] = w
	}
	summary.SetupDurationNanos = time.Since(summary.StartTime)

	log.Printf("Benchmark start [%s]", args.Workload)

	cpuUsageBefore := GetCPUUsage()

	runCtx := ctx
	if args.Duration > 0 {
		var tcancel context.CancelFunc
		runCtx, tcancel = context.WithTimeout(ctx, args.Duration)
		defer tcancel()
	}

	emitted := atomic.NewInt64(0)
	failures := atomic.NewInt64(0)

	summary.RunTime = time.Now()

	g, runCtx := errgroup.WithContext(runCtx)
	for _, w := range workers {
		g.Go(func() error {
			for {
				select {
				case <-runCtx.Done():
					return nil
				default:
				}
				if n := emitted.Inc(); args.Count > 0 && n > args.Count {
					emitted.Dec()
					return nil
				}
				if err := w.Emit(); err != nil {
					failures.Inc()
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		summary.Error = err.Error()
	}

	summary.EndTime = time.Now()

	cpuUsageAfter := GetCPUUsage()

	summary.Events = emitted.Load()
	summary.Failures = failures.Load()
	summary.TestDurationNanos = summary.EndTime.Sub(summary.RunTime)
	if secs := summary.TestDurationNanos.Seconds(); secs > 0 {
		summary.EventsPerSecond = float64(summary.Events) / secs
	}
	summary.CPUUsage = cpuUsageAfter.Sub(cpuUsageBefore)

	log.Printf("Benchmark finished [%s]", args.Workload)
	return
}
