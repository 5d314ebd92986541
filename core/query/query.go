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

package query

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/google/safehtml"
)

// Output formats.
const (
	FormatHTML = "html"
	FormatJSON = "json"
	// FormatRows renders only the window's rows as an HTML fragment.
	FormatRows = "rows"
)

// DefaultViewport is the viewport height in pixels used when the URL does not
// carry one.
const DefaultViewport = 600

// Upper bounds for the request-controlled window size.
const (
	MaxViewport = 4000
	MaxBuffer   = 100
)

// Query represents the parsed state of a window URL
type Query struct {
	// Base path (e.g., "/window")
	Path string

	Table          string   // The table being viewed
	Columns        []string // Visible columns, grouped columns first
	Expanded       []string // Keys of rows with an open detail panel
	GroupedColumns []string // Ordered list of columns to group by

	Offset   float64 // Scroll offset in pixels
	Viewport float64 // Viewport height in pixels
	Buffer   int     // Extra rows rendered past each edge of the window
	Format   string  // FormatHTML, FormatJSON or FormatRows
}

// NewQuery creates a Query from a URL. Malformed numeric parameters fall back
// to their defaults.
func NewQuery(u *url.URL) *Query {
	state := &Query{
		Path:     u.Path,
		Viewport: DefaultViewport,
		Format:   FormatHTML,
	}

	q := u.Query()
	state.Table = q.Get("table")
	state.Columns = splitList(q.Get("columns"))
	state.Expanded = splitList(q.Get("expanded"))
	state.GroupedColumns = splitList(q.Get("grouped"))

	if v, err := strconv.ParseFloat(q.Get("offset"), 64); err == nil && v >= 0 {
		state.Offset = v
	}
	if v, err := strconv.ParseFloat(q.Get("viewport"), 64); err == nil && v > 0 {
		state.Viewport = min(v, MaxViewport)
	}
	if v, err := strconv.Atoi(q.Get("buffer")); err == nil && v >= 0 {
		state.Buffer = min(v, MaxBuffer)
	}
	switch f := q.Get("format"); f {
	case FormatJSON, FormatRows:
		state.Format = f
	}

	state.reorderColumns()
	return state
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	clone.Columns = slices.Clone(s.Columns)
	clone.Expanded = slices.Clone(s.Expanded)
	clone.GroupedColumns = slices.Clone(s.GroupedColumns)
	return &clone
}

// reorderColumns moves visible grouped columns to the front, in grouping
// order, keeping the relative order of the others.
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 {
		return
	}
	var grouped, others []string
	for _, col := range s.GroupedColumns {
		if slices.Contains(s.Columns, col) {
			grouped = append(grouped, col)
		}
	}
	for _, col := range s.Columns {
		if !slices.Contains(s.GroupedColumns, col) {
			others = append(others, col)
		}
	}
	s.Columns = append(grouped, others...)
}

// WantsJSON reports whether the window should be encoded as JSON.
func (s *Query) WantsJSON() bool {
	return s.Format == FormatJSON
}

// IsExpanded checks if a row key is in the expanded list
func (s *Query) IsExpanded(key string) bool {
	return slices.Contains(s.Expanded, key)
}

// IsColumnGrouped checks if a column is in the grouped columns list
func (s *Query) IsColumnGrouped(column string) bool {
	return slices.Contains(s.GroupedColumns, column)
}

// WithExpandedToggled returns a URL with the row key toggled in the expanded
// list. The scroll offset is kept so the page reloads at the same place.
func (s *Query) WithExpandedToggled(key string) safehtml.URL {
	newState := s.Clone()
	if i := slices.Index(s.Expanded, key); i >= 0 {
		newState.Expanded = slices.Delete(newState.Expanded, i, i+1)
	} else {
		newState.Expanded = append(newState.Expanded, key)
	}
	return newState.ToSafeURL()
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled.
// Regrouping changes every row position, so the offset is reset.
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	if i := slices.Index(s.GroupedColumns, column); i >= 0 {
		newState.GroupedColumns = slices.Delete(newState.GroupedColumns, i, i+1)
	} else {
		newState.GroupedColumns = append(newState.GroupedColumns, column)
	}
	newState.Offset = 0
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithOffset returns a URL scrolled to offset.
func (s *Query) WithOffset(offset float64) safehtml.URL {
	newState := s.Clone()
	newState.Offset = max(offset, 0)
	return newState.ToSafeURL()
}

// WithFormat returns a URL for the same window in another format.
func (s *Query) WithFormat(format string) safehtml.URL {
	newState := s.Clone()
	newState.Format = format
	return newState.ToSafeURL()
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := u.Query()

	if s.Table != "" {
		q.Set("table", s.Table)
	}
	if len(s.Columns) > 0 {
		q.Set("columns", strings.Join(s.Columns, ","))
	}
	if len(s.Expanded) > 0 {
		q.Set("expanded", strings.Join(s.Expanded, ","))
	}
	if len(s.GroupedColumns) > 0 {
		q.Set("grouped", strings.Join(s.GroupedColumns, ","))
	}
	if s.Offset > 0 {
		q.Set("offset", strconv.FormatFloat(s.Offset, 'f', -1, 64))
	}
	if s.Viewport != DefaultViewport {
		q.Set("viewport", strconv.FormatFloat(s.Viewport, 'f', -1, 64))
	}
	if s.Buffer > 0 {
		q.Set("buffer", strconv.Itoa(s.Buffer))
	}
	if s.Format == FormatJSON {
		q.Set("format", FormatJSON)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}
