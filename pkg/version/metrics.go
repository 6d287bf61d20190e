// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of go-side

package version

import (
	"github.com/prometheus/client_golang/prometheus"
)

// buildInfoCollector is a Collector for a build information metric
// that collects itself.
type buildInfoCollector struct {
	self prometheus.Metric
}

// Describe implements Collector.
func (b *buildInfoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- b.self.Desc()
}

// Collect implements Collector.
func (b *buildInfoCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- b.self
}

func NewBuildInfoCollector() prometheus.Collector {
	buildInfo := ReadBuildInfo()
	c := &buildInfoCollector{
		prometheus.MustNewConstMetric(
			prometheus.NewDesc(
				"side_build_info",
				"Build information about this module",
				nil,
				prometheus.Labels{
					"go_version": buildInfo.GoVersion,
					"commit":     buildInfo.Commit,
					"time":       buildInfo.Time,
					"modified":   buildInfo.Modified,
				},
			),
			prometheus.GaugeValue,
			1),
	}
	return c
}
