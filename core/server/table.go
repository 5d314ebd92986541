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
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/grouping"
	"github.com/google/virtugrid/core/heights"
	"github.com/google/virtugrid/core/paging"
	"github.com/google/virtugrid/core/textheight"
	"github.com/google/virtugrid/core/views"
)

type item = grouping.Item[*structpb.Struct]

// Table is a row set served through virtual windows. Rows are held in
// memory unless Store is set, in which case pages are fetched as windows
// reach them and grouping is not available.
type Table struct {
	Name        string
	Title       string
	Description string
	Categories  string

	// Columns are shown when the request names none.
	Columns []string
	// KeyField identifies rows for expansion.
	KeyField string
	// DetailField holds the text shown in a row's detail panel.
	DetailField string

	Rows  []*structpb.Struct
	Store *paging.Store[*structpb.Struct]

	// RowHeight is the base height of every row and group header.
	RowHeight float64
	// Detail measures detail panel text.
	Detail textheight.Measurer
}

// Len returns the number of rows known to the table.
func (t *Table) Len() int {
	if t.Store != nil {
		return t.Store.Total()
	}
	return len(t.Rows)
}

func (t *Table) paged() bool {
	return t.Store != nil
}

func (t *Table) info() views.TableInfo {
	return views.TableInfo{
		Name:        t.Title,
		Description: t.Description,
		URL:         "/window?table=" + t.Name,
		RecordCount: t.Len(),
		Categories:  t.Categories,
	}
}

func (t *Table) key(row *structpb.Struct) string {
	return fieldString(row, t.KeyField)
}

// config describes the table's rows to the height cache. Grouping is
// ignored for paged tables.
func (t *Table) config(grouped []string, set *heights.ExpansionSet[*structpb.Struct, string]) heights.Config[item] {
	rowHeight := heights.FixedHeight[*structpb.Struct](t.RowHeight)
	detail := textheight.DetailFunc(t.Detail, func(row *structpb.Struct) string {
		return fieldString(row, t.DetailField)
	})
	cfg := heights.Config[item]{
		RowHeight:    grouping.ItemHeights[*structpb.Struct](nil, rowHeight),
		DetailHeight: grouping.ItemDetailHeights[*structpb.Struct](detail),
		Expansions:   grouping.ItemExpander[*structpb.Struct]{Rows: set},
	}
	if t.paged() {
		cfg.Rows = grouping.Source[*structpb.Struct](t.Store)
		cfg.RowCount = t.Store.Total()
		return cfg
	}
	var block *grouping.Block[*structpb.Struct]
	if len(grouped) > 0 {
		keys := make([]func(*structpb.Struct) string, len(grouped))
		for i, col := range grouped {
			keys[i] = func(row *structpb.Struct) string { return fieldString(row, col) }
		}
		block = grouping.Build(t.Rows, keys...)
	}
	cfg.Rows = grouping.Rows(t.Rows, block, nil)
	return cfg
}

// describe renders flattened items for the given columns.
func (t *Table) describe(columns []string) views.Describer[item] {
	return func(it item, _ int) views.RowView {
		if it.IsHeader() {
			return views.RowView{
				Header: true,
				Level:  it.Level,
				Label:  fmt.Sprintf("%s (%d)", strings.Join(it.Group.Path(), " / "), it.Group.Length()),
			}
		}
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = fieldString(it.Row, col)
		}
		return views.RowView{
			Key:    t.key(it.Row),
			Level:  it.Level,
			Cells:  cells,
			Detail: fieldString(it.Row, t.DetailField),
		}
	}
}

// fieldString formats one field of a row for display. Missing fields and
// nulls are empty.
func fieldString(row *structpb.Struct, name string) string {
	v, ok := row.GetFields()[name]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue)
	case *structpb.Value_NullValue:
		return ""
	default:
		b, err := protojson.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
