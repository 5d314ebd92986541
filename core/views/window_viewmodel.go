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

package views

import (
	"strconv"

	"github.com/google/safehtml"

	"github.com/google/virtugrid/core/query"
	"github.com/google/virtugrid/core/viewport"
)

// TimingEntry is one timed step of a request.
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// TableInfo describes a table on the landing page.
type TableInfo struct {
	Name        string
	Description string
	URL         string
	RecordCount int
	Categories  string
}

// LandingViewModel contains the landing page data
type LandingViewModel struct {
	Title    string
	Subtitle string
	Tables   []TableInfo
}

// RowView is one rendered slot of the window. Describers fill the display
// fields; geometry and expansion state are filled in by BuildWindowViewModel.
type RowView struct {
	Index   int
	Key     string
	Header  bool
	Loading bool
	Level   int
	Label   string   // Header text
	Cells   []string // One value per visible column
	Detail  string   // Detail panel text, shown when expanded

	Top       float64
	Height    float64
	Expanded  bool
	ToggleURL safehtml.URL
	Style     safehtml.Style
}

// ColumnToggle is a link grouping or ungrouping one column.
type ColumnToggle struct {
	Column  string
	Grouped bool
	URL     safehtml.URL
}

// WindowViewModel contains one virtual window of a table formatted for
// template consumption
type WindowViewModel struct {
	Title   string
	Table   string
	Headers []string
	Rows    []RowView
	Columns []ColumnToggle

	// Geometry in pixels. PaddingTop and PaddingBottom stand in for the
	// rows outside the window so the scroll height stays TotalHeight.
	PaddingTop    float64
	PaddingBottom float64
	TotalHeight   float64
	Offset        float64
	Viewport      float64
	TopSpacer     safehtml.Style
	BottomSpacer  safehtml.Style

	First    int
	Last     int
	RowCount int

	HasPrev bool
	HasNext bool
	PrevURL safehtml.URL
	NextURL safehtml.URL
	JSONURL safehtml.URL

	RenderTimeMs    string
	TimingBreakdown []TimingEntry
}

// Describer fills the display fields of a loaded slot.
type Describer[R any] func(row R, index int) RowView

// BuildWindowViewModel renders the body's current render range. Unloaded
// slots become loading placeholders.
func BuildWindowViewModel[R any](body *viewport.Body[R], q *query.Query, title string, describe Describer[R]) WindowViewModel {
	rng := body.RenderRange()
	cfg := body.Config()

	vm := WindowViewModel{
		Title:       title,
		Table:       q.Table,
		Headers:     q.Columns,
		TotalHeight: body.ScrollHeight(),
		Offset:      body.Offset(),
		Viewport:    body.Viewport(),
		First:       rng.First,
		Last:        rng.Last,
		RowCount:    body.RowCount(),
		PaddingTop:  body.OffsetY(),
		JSONURL:     q.WithFormat(query.FormatJSON),
	}

	vm.Rows = make([]RowView, 0, rng.Len())
	for i := rng.First; i < rng.Last; i++ {
		var rv RowView
		row, ok := cfg.RowAt(i)
		if ok {
			rv = describe(row, i)
			rv.Expanded = cfg.IsExpanded(row)
		} else {
			rv = RowView{Loading: true, Label: "Loading…"}
		}
		rv.Index = i
		rv.Top = body.RowTop(i)
		rv.Height = body.RowHeight(i)
		rv.Style = heightStyle(rv.Height)
		if rv.Key != "" && !rv.Header {
			rv.ToggleURL = q.WithExpandedToggled(rv.Key)
		}
		vm.Rows = append(vm.Rows, rv)
	}

	bottom := vm.PaddingTop
	if rng.Len() > 0 {
		bottom = body.RowTop(rng.Last-1) + body.RowHeight(rng.Last-1)
	}
	vm.PaddingBottom = max(vm.TotalHeight-bottom, 0)
	vm.TopSpacer = heightStyle(vm.PaddingTop)
	vm.BottomSpacer = heightStyle(vm.PaddingBottom)

	vm.HasPrev = vm.Offset > 0
	vm.HasNext = vm.Offset+vm.Viewport < vm.TotalHeight
	vm.PrevURL = q.WithOffset(vm.Offset - vm.Viewport)
	vm.NextURL = q.WithOffset(vm.Offset + vm.Viewport)

	for _, col := range q.Columns {
		vm.Columns = append(vm.Columns, ColumnToggle{
			Column:  col,
			Grouped: q.IsColumnGrouped(col),
			URL:     q.WithGroupedColumnToggled(col),
		})
	}
	return vm
}

func heightStyle(px float64) safehtml.Style {
	return safehtml.StyleFromProperties(safehtml.StyleProperties{
		Height: strconv.FormatFloat(px, 'f', -1, 64) + "px",
	})
}
