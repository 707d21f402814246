// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for whole runs.
type metricsPipeline struct {
	once sync.Once

	runs         *prometheus.CounterVec
	stageSeconds *prometheus.HistogramVec
	runSeconds   prometheus.Histogram
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "repolift_pipeline_runs_total", Help: "Pipeline runs by outcome"}, []string{"outcome"})

		buckets := []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
		m.stageSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "repolift_pipeline_stage_seconds", Help: "Duration of pipeline stages", Buckets: buckets}, []string{"stage"})
		m.runSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repolift_pipeline_run_seconds", Help: "Duration of complete runs", Buckets: buckets})

		prometheus.MustRegister(m.runs, m.stageSeconds, m.runSeconds)
	})
}

func recordOutcome(o Outcome) { pipeMetrics.init(); pipeMetrics.runs.WithLabelValues(string(o)).Inc() }
func observeStage(s Stage, d time.Duration) {
	pipeMetrics.init()
	pipeMetrics.stageSeconds.WithLabelValues(string(s)).Observe(d.Seconds())
}
func observeRun(d time.Duration) { pipeMetrics.init(); pipeMetrics.runSeconds.Observe(d.Seconds()) }
