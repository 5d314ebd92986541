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

package server

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/heights"
	"github.com/google/virtugrid/core/metrics"
	"github.com/google/virtugrid/core/query"
	"github.com/google/virtugrid/core/viewport"
	"github.com/google/virtugrid/core/views"
)

// window is the cached scroll state of one table under one grouping. It is
// shared by every request for that table and grouping; the URL carries the
// offset and expanded rows, so each request resynchronizes them.
type window struct {
	mu      sync.Mutex
	table   *Table
	grouped []string
	body    *viewport.Body[item]
	set     *heights.ExpansionSet[*structpb.Struct, string]
	metrics *metrics.Metrics
	// slots maps row keys to slot indexes for rows seen loaded.
	slots map[string]int
	total int
}

func windowKey(table string, grouped []string) string {
	return table + "|" + strings.Join(grouped, ",")
}

func newWindow(t *Table, grouped []string, logger *slog.Logger, m *metrics.Metrics) *window {
	if t.paged() {
		grouped = nil
	}
	w := &window{
		table:   t,
		grouped: slices.Clone(grouped),
		set:     heights.NewExpansionSet(t.key),
		metrics: m,
	}
	cfg := t.config(w.grouped, w.set)
	cfg.Logger = logger
	w.body = viewport.NewBody(cfg, viewport.WithRowHeight(t.RowHeight))
	w.reindex()
	m.ObserveRebuild(w.body.RowCount())
	return w
}

// rebuild re-resolves every slot, after the paged row count changed.
func (w *window) rebuild() {
	cfg := w.table.config(w.grouped, w.set)
	cfg.Logger = w.body.Config().Logger
	w.body.Rebuild(cfg)
	w.reindex()
	w.metrics.ObserveRebuild(w.body.RowCount())
}

func (w *window) reindex() {
	cfg := w.body.Config()
	w.total = w.table.Len()
	w.slots = make(map[string]int)
	w.index(viewport.Window{First: 0, Last: w.body.RowCount()}, cfg)
}

func (w *window) index(rng viewport.Window, cfg heights.Config[item]) {
	for i := rng.First; i < rng.Last; i++ {
		it, ok := cfg.RowAt(i)
		if !ok || it.IsHeader() {
			continue
		}
		w.slots[w.table.key(it.Row)] = i
	}
}

// syncExpansions makes the expansion set match keys, updating one cache
// slot per changed row. It returns the number of rows that changed.
func (w *window) syncExpansions(keys []string) int {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}
	changed := 0
	for _, k := range w.set.Keys() {
		if !want[k] {
			w.setExpanded(k, false)
			changed++
		}
	}
	for k := range want {
		if !w.set.HasKey(k) {
			w.setExpanded(k, true)
			changed++
		}
	}
	return changed
}

func (w *window) setExpanded(key string, expanded bool) {
	if i, ok := w.slots[key]; ok && w.body.SetExpanded(i, expanded) == expanded {
		return
	}
	// Not loaded; the slot picks the state up once its row loads.
	if expanded {
		w.set.ExpandKey(key)
	} else {
		w.set.CollapseKey(key)
	}
}

// load fetches the pages under the render range of a paged table and
// refreshes the affected slots. The first load also sizes the cache. Fetch
// errors leave the rows as gaps.
func (w *window) load(ctx context.Context, offset float64) error {
	if !w.table.paged() {
		return nil
	}
	if w.total == 0 {
		if err := w.table.Store.Load(ctx, 0); err != nil {
			return err
		}
		w.rebuild()
		w.body.ScrollTo(offset)
	}
	rng := w.body.RenderRange()
	err := w.table.Store.LoadRange(ctx, rng.First, rng.Last)
	if w.table.Len() != w.total {
		w.rebuild()
		return err
	}
	w.body.Refresh(rng)
	w.index(rng, w.body.Config())
	return err
}

func (w *window) viewModel(q *query.Query) views.WindowViewModel {
	return views.BuildWindowViewModel(w.body, q, w.table.Title, w.table.describe(q.Columns))
}
