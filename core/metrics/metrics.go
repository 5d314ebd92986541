/*
SPDX-License-Identifier: Apache-2.0

Copyright 2026 The Virtugrid Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics holds the Prometheus instruments exported by the grid
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Page fetch results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds all Prometheus metrics for the grid server.
type Metrics struct {
	CacheRebuilds    prometheus.Counter
	CacheRows        prometheus.Gauge
	WindowRequests   *prometheus.CounterVec
	PageFetches      *prometheus.CounterVec
	ExpansionToggles prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	cacheRebuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "virtugrid_cache_rebuilds_total",
		Help: "Total full rebuilds of row height caches",
	})

	cacheRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "virtugrid_cache_rows",
		Help: "Row slots held by the most recently built height cache",
	})

	windowRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "virtugrid_window_requests_total",
		Help: "Total window requests served per table",
	}, []string{"table"})

	pageFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "virtugrid_page_fetches_total",
		Help: "Total page fetches by result",
	}, []string{"result"})

	expansionToggles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "virtugrid_expansion_toggles_total",
		Help: "Total row expansion toggles",
	})

	reg.MustRegister(cacheRebuilds, cacheRows, windowRequests, pageFetches, expansionToggles)

	return &Metrics{
		CacheRebuilds:    cacheRebuilds,
		CacheRows:        cacheRows,
		WindowRequests:   windowRequests,
		PageFetches:      pageFetches,
		ExpansionToggles: expansionToggles,
	}
}

// ObserveRebuild records a cache rebuild over rows slots. Safe on a nil
// receiver.
func (m *Metrics) ObserveRebuild(rows int) {
	if m == nil {
		return
	}
	m.CacheRebuilds.Inc()
	m.CacheRows.Set(float64(rows))
}

// ObserveFetch records a page fetch outcome. Safe on a nil receiver.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.PageFetches.WithLabelValues(result).Inc()
}
