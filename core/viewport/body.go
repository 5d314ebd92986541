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

// Package viewport holds the scroll arithmetic of a grid body: which rows are
// visible for a scroll offset, where the rendered block sits, how tall the
// scroll area is, and how expanding a row changes all of that.
package viewport

import (
	"math"

	"github.com/google/virtugrid/core/heights"
)

// Window is a half-open range of row indexes [First, Last).
type Window struct {
	First int
	Last  int
}

// Len returns the number of rows in the window.
func (w Window) Len() int {
	return max(w.Last-w.First, 0)
}

// Contains reports whether index falls inside the window.
func (w Window) Contains(index int) bool {
	return index >= w.First && index < w.Last
}

// Toggler is an Expander whose state can be changed. heights.ExpansionSet
// implements it.
type Toggler[R any] interface {
	heights.Expander[R]
	Set(row R, expanded bool)
}

// Body tracks the scroll state of one grid body. The height cache only
// exists when both virtualization and vertical scrolling are enabled;
// otherwise the body works from the scalar row height and page size.
type Body[R any] struct {
	opts     Options
	cfg      heights.Config[R]
	cache    *heights.Cache
	offset   float64
	viewport float64
	page     int
	up       bool
}

// NewBody creates a body for the rows described by cfg.
func NewBody[R any](cfg heights.Config[R], opts ...Option) *Body[R] {
	b := &Body[R]{opts: defaultOptions()}
	for _, opt := range opts {
		opt(&b.opts)
	}
	b.Rebuild(cfg)
	return b
}

// Rebuild replaces the row set and rebuilds the height cache from scratch.
// The scroll offset is kept but clamped to the new scroll height.
func (b *Body[R]) Rebuild(cfg heights.Config[R]) {
	b.cfg = cfg
	if b.opts.Virtualization && b.opts.ScrollbarV {
		if b.cache == nil {
			b.cache = &heights.Cache{}
		}
		heights.Init(b.cache, cfg)
	} else {
		b.cache = nil
	}
	b.ScrollTo(b.offset)
}

// Enabled reports whether the height cache drives the window, which needs
// a built, non-empty cache.
func (b *Body[R]) Enabled() bool {
	return b.cache != nil && !b.cache.IsEmpty()
}

// Cache returns the height cache, or nil in non-virtual modes.
func (b *Body[R]) Cache() *heights.Cache {
	return b.cache
}

// Config returns the config the body was last built from.
func (b *Body[R]) Config() heights.Config[R] {
	return b.cfg
}

// RowCount returns the total logical row count.
func (b *Body[R]) RowCount() int {
	return b.cfg.Len()
}

// SetViewport sets the visible height of the body.
func (b *Body[R]) SetViewport(height float64) {
	b.viewport = clampNonNegative(height)
	b.ScrollTo(b.offset)
}

func (b *Body[R]) Viewport() float64 {
	return b.viewport
}

// Offset returns the current scroll offset.
func (b *Body[R]) Offset() float64 {
	return b.offset
}

// ScrollTo moves the scroll offset, clamped to the scrollable range, and
// returns the clamped value.
func (b *Body[R]) ScrollTo(offset float64) float64 {
	limit := math.Max(b.ScrollHeight()-b.viewport, 0)
	offset = math.Min(clampNonNegative(offset), limit)
	if offset != b.offset {
		b.up = offset < b.offset
	}
	b.offset = offset
	return offset
}

// ScrollBy moves the scroll offset by delta.
func (b *Body[R]) ScrollBy(delta float64) float64 {
	return b.ScrollTo(b.offset + delta)
}

// ScrollToRow scrolls so that the row at index is the first visible row.
func (b *Body[R]) ScrollToRow(index int) float64 {
	return b.ScrollTo(b.RowTop(index))
}

// SetPage selects the page shown when vertical scrolling is off.
func (b *Body[R]) SetPage(page int) {
	b.page = max(page, 0)
}

// Indexes returns the rows that intersect the viewport.
func (b *Body[R]) Indexes() Window {
	n := b.RowCount()
	switch {
	case b.cache != nil:
		if b.cache.IsEmpty() {
			return Window{}
		}
		first := b.cache.RowIndex(b.offset)
		last := b.cache.RowIndex(b.viewport+b.offset) + 1
		return Window{First: first, Last: min(last, n)}
	case b.opts.ScrollbarV:
		return Window{First: 0, Last: n}
	default:
		first := 0
		if !b.opts.ExternalPaging {
			first = min(b.page*b.opts.PageSize, n)
		}
		return Window{First: first, Last: min(first+b.opts.PageSize, n)}
	}
}

// SetBuffer changes how many rows beyond the viewport RenderRange covers.
func (b *Body[R]) SetBuffer(n int) {
	b.opts.Buffer = max(n, 0)
}

// RenderRange widens Indexes by the configured buffer on both sides.
func (b *Body[R]) RenderRange() Window {
	w := b.Indexes()
	if b.cache == nil {
		return w
	}
	return Window{
		First: max(w.First-b.opts.Buffer, 0),
		Last:  min(w.Last+b.opts.Buffer, b.RowCount()),
	}
}

// OffsetY returns how far down the rendered block has to be translated so
// its first row lines up with that row's true position.
func (b *Body[R]) OffsetY() float64 {
	if b.cache == nil {
		return 0
	}
	return b.cache.Query(b.RenderRange().First - 1)
}

// ScrollHeight returns the height of the whole scrollable area.
func (b *Body[R]) ScrollHeight() float64 {
	if b.cache != nil {
		return b.cache.Total()
	}
	return float64(b.RowCount()) * b.opts.RowHeight
}

// PageOffset returns the scroll offset of the first row of a page. It is 0
// whenever the height cache is not in use.
func (b *Body[R]) PageOffset(page int) float64 {
	if b.cache == nil || page <= 0 || b.opts.PageSize <= 0 {
		return 0
	}
	return b.cache.Query(page*b.opts.PageSize - 1)
}

// Page returns the page holding the first visible row. While scrolling up
// the page is rounded up so a partly visible page is not reported early.
func (b *Body[R]) Page() int {
	if b.cache == nil {
		return b.page
	}
	if b.opts.PageSize <= 0 {
		return 0
	}
	first := b.Indexes().First
	if b.up {
		return (first + b.opts.PageSize - 1) / b.opts.PageSize
	}
	return first / b.opts.PageSize
}

// RowTop returns the offset of the top edge of a row.
func (b *Body[R]) RowTop(index int) float64 {
	if b.cache != nil {
		return b.cache.Query(index - 1)
	}
	return float64(max(index, 0)) * b.opts.RowHeight
}

// RowHeight returns the current height of one row, detail panel included.
func (b *Body[R]) RowHeight(index int) float64 {
	if b.cache != nil {
		return b.cache.Height(index)
	}
	if index < 0 || index >= b.RowCount() {
		return 0
	}
	return b.opts.RowHeight
}

// IsExpanded reports whether the loaded row at index is expanded.
func (b *Body[R]) IsExpanded(index int) bool {
	row, ok := b.cfg.RowAt(index)
	return ok && b.cfg.IsExpanded(row)
}

// ToggleExpansion flips the expansion of the row at index and returns its
// new state.
func (b *Body[R]) ToggleExpansion(index int) bool {
	return b.SetExpanded(index, !b.IsExpanded(index))
}

// SetExpanded expands or collapses the loaded row at index. Only that row's
// slot in the height cache is touched. Unloaded rows, out of range indexes
// and read-only expanders leave everything unchanged; the returned value is
// the row's resulting state.
func (b *Body[R]) SetExpanded(index int, expanded bool) bool {
	row, ok := b.cfg.RowAt(index)
	if !ok {
		return false
	}
	t, ok := b.cfg.Expansions.(Toggler[R])
	if !ok {
		return b.cfg.IsExpanded(row)
	}
	t.Set(row, expanded)
	expanded = b.cfg.IsExpanded(row)
	if b.cache != nil {
		b.cache.Update(index, b.cfg.SlotHeight(row, index, expanded))
		b.ScrollTo(b.offset)
	}
	return expanded
}

// Refresh re-resolves the slots in w, typically after rows in that range
// finished loading. It returns the number of slots whose height changed.
func (b *Body[R]) Refresh(w Window) int {
	if b.cache == nil {
		return 0
	}
	changed := 0
	for i := max(w.First, 0); i < min(w.Last, b.cache.Len()); i++ {
		row, ok := b.cfg.RowAt(i)
		h := b.cfg.Fallback()
		if ok {
			h = b.cfg.SlotHeight(row, i, b.cfg.IsExpanded(row))
		}
		if h != b.cache.Height(i) {
			b.cache.Update(i, h)
			changed++
		}
	}
	if changed > 0 {
		b.ScrollTo(b.offset)
	}
	return changed
}

func clampNonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
