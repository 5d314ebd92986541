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

package heights

import (
	"fmt"
	"log/slog"
	"math"
)

// DefaultRowHeight is the height given to unloaded rows when the config has
// neither a FallbackHeight nor a Scalar row height resolver.
const DefaultRowHeight = 50

// Config describes the row set a Cache is built from.
type Config[R any] struct {
	// Rows is the loaded window of rows. May be nil when nothing is loaded.
	Rows RowSource[R]

	// RowHeight resolves the base height of a loaded row. When nil, loaded
	// rows get the fallback height.
	RowHeight HeightResolver[R]

	// DetailHeight resolves the extra height of an expanded row. When nil,
	// expansion never changes a row's height.
	DetailHeight DetailHeightResolver[R]

	// Expansions reports which rows are expanded. When nil, none are.
	Expansions Expander[R]

	// ExternalVirtual marks Rows as a window starting at IndexOffset in the
	// global row sequence. Otherwise IndexOffset is ignored and Rows starts
	// at slot 0.
	ExternalVirtual bool
	IndexOffset     int

	// RowCount is the total logical number of rows, which may exceed the
	// number loaded. A negative count builds an empty cache.
	RowCount int

	// FallbackHeight is the height of slots with no loaded row. Unloaded rows
	// never go through the RowHeight function since there is no row to pass.
	// When zero, the scalar value of RowHeight is used if it has one,
	// otherwise DefaultRowHeight.
	FallbackHeight float64

	// Logger receives debug records for heights that had to be clamped.
	Logger *slog.Logger
}

// New builds a cache from cfg.
func New[R any](cfg Config[R]) *Cache {
	c := &Cache{}
	Init(c, cfg)
	return c
}

// Init rebuilds c from cfg, discarding whatever it held before.
func Init[R any](c *Cache, cfg Config[R]) {
	c.Reset(cfg.Heights())
}

// Len returns the number of slots a cache built from cfg has.
func (cfg Config[R]) Len() int {
	if cfg.RowCount < 0 {
		return 0
	}
	return max(cfg.RowCount, cfg.offset()+cfg.loadedLen())
}

// Heights resolves the height of every slot.
func (cfg Config[R]) Heights() []float64 {
	n := cfg.Len()
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	fallback := cfg.Fallback()
	for i := range out {
		out[i] = fallback
	}
	offset := cfg.offset()
	for k := 0; k < cfg.loadedLen(); k++ {
		row, ok := cfg.Rows.Row(k)
		if !ok {
			continue
		}
		idx := offset + k
		out[idx] = cfg.SlotHeight(row, idx, cfg.expanded(row))
	}
	return out
}

// SlotHeight returns the total height of a loaded row at slot index: its
// base height plus its detail height when expanded.
func (cfg Config[R]) SlotHeight(row R, index int, expanded bool) float64 {
	h := cfg.Fallback()
	if cfg.RowHeight != nil {
		h = cfg.resolve(index, "row", func() float64 { return cfg.RowHeight.HeightOf(row) })
	}
	if expanded && cfg.DetailHeight != nil {
		h += cfg.resolve(index, "detail", func() float64 { return cfg.DetailHeight.DetailHeightOf(row, index) })
	}
	return h
}

// Fallback returns the height used for slots with no loaded row.
func (cfg Config[R]) Fallback() float64 {
	if h := cfg.FallbackHeight; h > 0 && !math.IsInf(h, 1) {
		return h
	}
	if s, ok := cfg.RowHeight.(Scalar); ok {
		return sanitize(s.Scalar())
	}
	return DefaultRowHeight
}

// RowAt returns the loaded row at a global slot index.
func (cfg Config[R]) RowAt(index int) (R, bool) {
	if cfg.Rows == nil {
		var zero R
		return zero, false
	}
	return cfg.Rows.Row(index - cfg.offset())
}

// IsExpanded reports whether the config's expander considers row expanded.
func (cfg Config[R]) IsExpanded(row R) bool {
	return cfg.expanded(row)
}

func (cfg Config[R]) expanded(row R) bool {
	return cfg.Expansions != nil && cfg.Expansions.Expanded(row)
}

func (cfg Config[R]) loadedLen() int {
	if cfg.Rows == nil {
		return 0
	}
	return cfg.Rows.Len()
}

func (cfg Config[R]) offset() int {
	if !cfg.ExternalVirtual || cfg.IndexOffset < 0 {
		return 0
	}
	return cfg.IndexOffset
}

// resolve calls a user supplied resolver, turning panics and invalid results
// into 0 so one bad row cannot break scrolling for the whole grid.
func (cfg Config[R]) resolve(index int, kind string, fn func() float64) (h float64) {
	defer func() {
		if r := recover(); r != nil {
			cfg.logClamp(index, kind, fmt.Sprint(r))
			h = 0
		}
	}()
	h = fn()
	if s := sanitize(h); s != h {
		cfg.logClamp(index, kind, fmt.Sprintf("invalid height %v", h))
		return s
	}
	return h
}

func (cfg Config[R]) logClamp(index int, kind, reason string) {
	if cfg.Logger == nil {
		return
	}
	cfg.Logger.Debug("row height clamped to 0",
		slog.Int("index", index),
		slog.String("resolver", kind),
		slog.String("reason", reason))
}
