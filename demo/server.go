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

package demo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/metrics"
	"github.com/google/virtugrid/core/paging"
	"github.com/google/virtugrid/core/server"
	"github.com/google/virtugrid/core/textheight"
)

// Config selects the demo data.
type Config struct {
	// Rows is the number of synthetic orders to generate.
	Rows int
	// Seed makes generated data reproducible.
	Seed uint64
	// DataFile, when set, replaces the generated orders with rows loaded
	// by LoadRows.
	DataFile string
	// PageSize is the page size of the paged orders table.
	PageSize int
}

var orderColumns = []string{"id", "customer", "status", "region", "category", "amount"}

// SetupDemoServer creates a server with an in-memory and a paged orders
// table, recording metrics into reg.
func SetupDemoServer(cfg Config, logger *slog.Logger, reg *prometheus.Registry) (*server.Server, error) {
	rows := Orders(cfg.Rows, cfg.Seed)
	columns := orderColumns
	if cfg.DataFile != "" {
		loaded, err := LoadRows(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		rows = loaded
		columns = fieldNames(rows)
	}
	logger.Info("demo rows ready", "rows", len(rows), "source", sourceName(cfg))

	m := metrics.NewMetrics(reg)
	srv, err := server.NewServer(
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithTitle("Virtugrid Demo", "Virtual scrolling over rows of varying height"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	detail := textheight.Measurer{Width: 80, LineHeight: 18, Padding: 16}
	srv.AddTable(&server.Table{
		Name:        "orders",
		Title:       "Orders",
		Description: "Orders held in memory. Expand a row to read its note; group by any column.",
		Categories:  "In memory, Grouping",
		Columns:     columns,
		KeyField:    "id",
		DetailField: "note",
		Rows:        rows,
		RowHeight:   32,
		Detail:      detail,
	})

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	srv.AddTable(&server.Table{
		Name:        "orders_paged",
		Title:       "Orders (paged)",
		Description: "The same orders fetched a page at a time as the window reaches them.",
		Categories:  "External paging",
		Columns:     columns,
		KeyField:    "id",
		DetailField: "note",
		Store:       paging.NewStore(instrument[*structpb.Struct](paging.SliceFetcher[*structpb.Struct](rows), m), pageSize),
		RowHeight:   32,
		Detail:      detail,
	})
	return srv, nil
}

// fieldNames lists the fields of the first row in name order, leaving out
// the note shown in detail panels.
func fieldNames(rows []*structpb.Struct) []string {
	if len(rows) == 0 {
		return nil
	}
	var names []string
	for name := range rows[0].GetFields() {
		if name != "note" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func sourceName(cfg Config) string {
	if cfg.DataFile != "" {
		return cfg.DataFile
	}
	return "generated"
}

// instrument counts page fetches by result.
func instrument[R any](f paging.Fetcher[R], m *metrics.Metrics) paging.Fetcher[R] {
	return paging.FetcherFunc[R](func(ctx context.Context, page, size int) ([]R, int, error) {
		rows, total, err := f.FetchPage(ctx, page, size)
		m.ObserveFetch(err)
		return rows, total, err
	})
}

// NewMux wires the landing page, the window handler and /metrics.
func NewMux(srv *server.Server, reg *prometheus.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/window", func(w http.ResponseWriter, r *http.Request) {
		res := srv.HandleWindowRequest(r.Context(), w, r.URL, w.Header().Set)
		if res == nil {
			return
		}
		if res.Error != nil {
			logger.Error("window request failed", "url", r.URL.String(), "err", res.Error)
		}
		if res.StatusCode != 0 {
			http.Error(w, res.Message, res.StatusCode)
		}
	})

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		if err := srv.HandleLandingRequest(w, w.Header().Set); err != nil {
			logger.Error("landing request failed", "err", err)
		}
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

// NewRegistry returns a registry with the Go runtime and process collectors
// registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
