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

package ingestion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsIngestion holds Prometheus metrics for the ingestion subsystem.
type metricsIngestion struct {
	once sync.Once

	cloneFailures prometheus.Counter
	fragments     prometheus.Counter
	cloneDuration prometheus.Histogram
}

var ingMetrics metricsIngestion

func (m *metricsIngestion) init() {
	m.once.Do(func() {
		m.cloneFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_ing_clone_failures_total", Help: "Failed repository clones"})
		m.fragments = prometheus.NewCounter(prometheus.CounterOpts{Name: "repolift_ing_fragments_total", Help: "Fragments produced by the splitter"})

		buckets := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.cloneDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "repolift_ing_clone_seconds", Help: "Duration of successful clones", Buckets: buckets})

		prometheus.MustRegister(m.cloneFailures, m.fragments, m.cloneDuration)
	})
}

func recordCloneFailure() { ingMetrics.init(); ingMetrics.cloneFailures.Inc() }
func recordFragments(n int) { ingMetrics.init(); ingMetrics.fragments.Add(float64(n)) }
func observeClone(d time.Duration) { ingMetrics.init(); ingMetrics.cloneDuration.Observe(d.Seconds()) }
