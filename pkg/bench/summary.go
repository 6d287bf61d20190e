// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !windows

package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/efficios/go-side/pkg/metrics"
)

// Summary gathers benchmark results. Serializes to JSON. Workers
// update the counting writer concurrently; every other field is
// written once, after the workers have joined.
type Summary struct {
	Args *Arguments

	Events   int64
	Failures int64

	StartTime          time.Time
	EndTime            time.Time
	RunTime            time.Time
	SetupDurationNanos time.Duration
	TestDurationNanos  time.Duration

	EventsPerSecond float64

	OutputStats CountingDiscardWriter

	CPUUsage CPUUsage

	Error string
}

func (s *Summary) Dump() {
	err := json.NewEncoder(os.Stdout).Encode(s)
	if err != nil {
		log.Fatalf("json.Encode: %v", err)
	}
}

func getCounterValue(counter prometheus.Counter) int {
	var d dto.Metric
	counter.Write(&d)
	return int(*d.Counter.Value)
}

// tracerLabel is the name the worker tracers registered under, which
// keys their walk counter.
func (s *Summary) tracerLabel() string {
	if s.Args.Tracer == "null" {
		return "null"
	}
	return "console"
}

func (s *Summary) PrettyPrint() {
	color.Set(color.FgBlue)
	fmt.Println("Benchmark summary")
	fmt.Println("-----------------")
	color.Unset()
	fmt.Printf("Test started:       %s\n", s.StartTime)
	fmt.Printf("Test ended:         %s\n", s.EndTime)
	fmt.Printf("Arguments:          %v\n", s.Args)
	fmt.Printf("Total duration:     %s\n", s.EndTime.Sub(s.StartTime))
	fmt.Printf("Setup duration:     %s\n", s.SetupDurationNanos)
	fmt.Printf("Workload duration:  %s\n", s.EndTime.Sub(s.RunTime))
	fmt.Printf("Events emitted:     %d\n", s.Events)
	fmt.Printf("Events per second:  %.0f\n", s.EventsPerSecond)
	fmt.Printf("Walk failures:      %d\n", s.Failures)
	fmt.Printf("Output stats:       %s\n", s.OutputStats.String())
	fmt.Printf("Cpu usage:          %s\n", s.CPUUsage)

	if !s.Args.Baseline {
		fmt.Printf("Tracer walks:       %d\n",
			getCounterValue(metrics.CallbacksTotal.WithLabelValues(s.tracerLabel())))
	}

	if s.Error != "" {
		color.Set(color.FgRed)
		fmt.Printf("Error:              %s\n", s.Error)
		color.Unset()
	}
}

func (s *Summary) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s)
}

func newSummary(args *Arguments) *Summary {
	return &Summary{
		StartTime: time.Now(),
		Args:      args,
	}
}

func (s *Summary) CSVPrint(path, name string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	records := [][]string{
		{"Name", name},
		{"Workload duration",
			fmt.Sprintf("%v", s.EndTime.Sub(s.RunTime)),
			fmt.Sprintf("%d", s.EndTime.Sub(s.RunTime)),
		},
		{"Events", fmt.Sprintf("%d", s.Events)},
		{"Events per second", fmt.Sprintf("%.0f", s.EventsPerSecond)},
		{"Walk failures", fmt.Sprintf("%d", s.Failures)},
		{"SystemTime",
			fmt.Sprintf("%v", s.CPUUsage.SystemTime),
			fmt.Sprintf("%d", s.CPUUsage.SystemTime),
		},
		{"UserTime",
			fmt.Sprintf("%v", s.CPUUsage.UserTime),
			fmt.Sprintf("%d", s.CPUUsage.UserTime),
		},
		{"MaxRss", fmt.Sprintf("%d", s.CPUUsage.MaxRss)},
		{"ContextSwitches", fmt.Sprintf("%d", s.CPUUsage.ContextSwitches)},
	}
	w.WriteAll(records)
	return w.Error()
}
