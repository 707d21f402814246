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

package generate

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsGenerate holds Prometheus metrics for model calls.
type metricsGenerate struct {
	once sync.Once

	attempts       prometheus.Counter
	retries        prometheus.Counter
	schemaFailures prometheus.Counter
	exhausted      prometheus.Counter
	requestSeconds prometheus.Histogram
}

var genMetrics metricsGenerate

func (m *metricsGenerate) init() {
	m.once.Do(func() {
		m.attempts = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_gen_attempts_total", Help: "Model requests sent"})
		m.retries = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_gen_retries_total", Help: "Model requests retried after a transient failure"})
		m.schemaFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_gen_schema_failures_total", Help: "Responses rejected by output validation"})
		m.exhausted = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_gen_exhausted_total", Help: "Calls that failed after every attempt"})

		buckets := []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60}
		m.requestSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repolift_gen_request_seconds", Help: "Duration of single model requests", Buckets: buckets})

		prometheus.MustRegister(m.attempts, m.retries, m.schemaFailures, m.exhausted, m.requestSeconds)
	})
}

func recordAttempt() { genMetrics.init(); genMetrics.attempts.Inc() }
func recordRetry() { genMetrics.init(); genMetrics.retries.Inc() }
func recordSchemaFailure() { genMetrics.init(); genMetrics.schemaFailures.Inc() }
func recordExhausted() { genMetrics.init(); genMetrics.exhausted.Inc() }
func observeRequest(d time.Duration) {
	genMetrics.init()
	genMetrics.requestSeconds.Observe(d.Seconds())
}
