// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

//go:build !windows

package main

import (
	"log"
	"os"
	"strings"

	gops "github.com/google/gops/agent"
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/efficios/go-side/pkg/bench"
	"github.com/efficios/go-side/pkg/logger"
	"github.com/efficios/go-side/pkg/metrics"
	"github.com/efficios/go-side/pkg/version"
)

const (
	keyWorkload         = "workload"
	keyTracer           = "tracer"
	keyBaseline         = "baseline"
	keyGoroutines       = "goroutines"
	keyCount            = "count"
	keyDuration         = "duration"
	keyArgs             = "args"
	keyPrint            = "print"
	keyOutput           = "output"
	keyOutputMaxSizeMB  = "output-max-size-mb"
	keyOutputMaxBackups = "output-max-backups"
	keyOutputCompress   = "output-compress"
	keyTimestamps       = "timestamps"
	keyColor            = "color"
	keyDebug            = "debug"
	keyLogLevel         = "log-level"
	keyLogFormat        = "log-format"
	keyMetricsServer    = "metrics-server"
	keyGopsAddr         = "gops-address"
	keyCSV              = "csv"
	keyName             = "name"
)

func execute() error {
	rootCmd := &cobra.Command{
		Use:   "side-bench",
		Short: "Benchmark event emission against synthetic workloads",
		Run: func(cmd *cobra.Command, _ []string) {
			log.SetOutput(os.Stderr)

			logOpts := make(logger.LogOptions)
			logger.PopulateLogOpts(logOpts, viper.GetString(keyLogLevel), viper.GetString(keyLogFormat))
			if err := logger.SetupLogging(logOpts, viper.GetBool(keyDebug)); err != nil {
				log.Fatal(err)
			}
			l := logger.GetLogger()
			l.WithField("version", version.Version).Info("Starting side-bench")

			if addr := viper.GetString(keyGopsAddr); addr != "" {
				l.WithField("addr", addr).Info("Starting gops server")
				if err := gops.Listen(gops.Options{
					Addr:                   addr,
					ReuseSocketAddrAndPort: true,
				}); err != nil {
					l.WithError(err).Fatal("Failed to start gops")
				}
			}

			if addr := viper.GetString(keyMetricsServer); addr != "" {
				go metrics.EnableMetrics(addr)
			}

			cmdArgs, err := shellquote.Split(viper.GetString(keyArgs))
			if err != nil {
				l.WithError(err).Fatal("Failed to parse workload options")
			}

			args := &bench.Arguments{
				Workload:         bench.WorkloadNameOrPanic(viper.GetString(keyWorkload)),
				Tracer:           bench.TracerNameOrPanic(viper.GetString(keyTracer)),
				CmdArgs:          cmdArgs,
				Goroutines:       viper.GetInt(keyGoroutines),
				Count:            viper.GetInt64(keyCount),
				Duration:         viper.GetDuration(keyDuration),
				PrintEvents:      viper.GetBool(keyPrint),
				Output:           viper.GetString(keyOutput),
				OutputMaxSizeMB:  viper.GetInt(keyOutputMaxSizeMB),
				OutputMaxBackups: viper.GetInt(keyOutputMaxBackups),
				OutputCompress:   viper.GetBool(keyOutputCompress),
				Timestamps:       viper.GetBool(keyTimestamps),
				Colors:           viper.GetString(keyColor),
				Baseline:         viper.GetBool(keyBaseline),
			}

			summary := bench.RunBench(args)

			if path := viper.GetString(keyCSV); path != "" {
				if err := summary.CSVPrint(path, viper.GetString(keyName)); err != nil {
					l.WithError(err).Warn("Failed to write CSV stats")
				}
			}

			summary.PrettyPrint()
			if summary.Error != "" {
				os.Exit(1)
			}
		},
	}

	cobra.OnInitialize(func() {
		viper.SetEnvPrefix("side_bench")
		replacer := strings.NewReplacer("-", "_")
		viper.SetEnvKeyReplacer(replacer)
		viper.AutomaticEnv()
	})

	flags := rootCmd.PersistentFlags()
	addFlags(flags)
	viper.BindPFlags(flags)

	return rootCmd.Execute()
}

func addFlags(flags *pflag.FlagSet) {
	flags.String(keyWorkload, "scalars", "Workload to run, one of: "+strings.Join(bench.WorkloadsSupported(), ", "))
	flags.String(keyTracer, "console", "Tracer to bind, one of: "+strings.Join(bench.TracersSupported(), ", "))
	flags.Bool(keyBaseline, false, "Run without a tracer to measure the disabled fast path")
	flags.Int(keyGoroutines, 1, "Number of emitting goroutines")
	flags.Int64(keyCount, 1000000, "Total number of emissions. Set it to zero for no limit.")
	flags.Duration(keyDuration, 0, "Stop after this long. Set it to zero for no time limit.")
	flags.String(keyArgs, "", "Workload options as key=value pairs (e.g. 'len=4K elems=16')")
	flags.Bool(keyPrint, false, "Print traced lines to stdout")
	flags.String(keyOutput, "", "Write traced lines to this file instead of discarding them")
	flags.Int(keyOutputMaxSizeMB, 10, "Size in MB for rotating the output file")
	flags.Int(keyOutputMaxBackups, 5, "Number of rotated output files to keep")
	flags.Bool(keyOutputCompress, false, "Compress rotated output files")
	flags.Bool(keyTimestamps, false, "Timestamp traced lines")
	flags.String(keyColor, "auto", "Color traced lines in human mode. One of: auto, always, never.")
	flags.BoolP(keyDebug, "d", false, "Enable debug messages")
	flags.String(keyLogLevel, "info", "Log level")
	flags.String(keyLogFormat, "text", "Log format, one of: text, json")
	flags.String(keyMetricsServer, "", "Metrics server address (e.g. ':2112'). Set it to an empty string to disable.")
	flags.String(keyGopsAddr, "", "gops server address (e.g. 'localhost:8118'). Set it to an empty string to disable.")
	flags.String(keyCSV, "", "Store stats to this CSV file")
	flags.String(keyName, "", "Benchmark name for the CSV record")
}

func main() {
	if err := execute(); err != nil {
		// The error message was already printed by execute().
		os.Exit(1)
	}
}
