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

// Package textheight measures how tall a block of text is once wrapped to a
// column width, so rows and detail panels holding free text can report
// their height to the height cache.
package textheight

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/google/virtugrid/core/heights"
)

// Measurer wraps text to Width cells and converts line counts to heights.
type Measurer struct {
	Width      int
	LineHeight float64
	// Padding is added to every non-empty block.
	Padding float64
}

// Wrap word-wraps s to the measurer's width, hard-breaking words longer than
// a line. A non-positive width leaves s unchanged.
func (m Measurer) Wrap(s string) string {
	if m.Width <= 0 {
		return s
	}
	return wrap.String(wordwrap.String(s, m.Width), m.Width)
}

// WrapLines returns the display lines of s after wrapping. Trailing newlines
// are dropped, so empty text has no lines.
func (m Measurer) WrapLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(m.Wrap(s), "\n")
}

// Lines returns the number of display lines s takes after wrapping.
func (m Measurer) Lines(s string) int {
	return len(m.WrapLines(s))
}

// Height returns the height of s: its line count times LineHeight plus
// Padding, or 0 for empty text.
func (m Measurer) Height(s string) float64 {
	lines := m.Lines(s)
	if lines == 0 {
		return 0
	}
	return float64(lines)*m.LineHeight + m.Padding
}

// RowFunc returns a row height resolver measuring the text of each row. Rows
// never get less than minHeight.
func RowFunc[R any](m Measurer, text func(R) string, minHeight float64) heights.HeightFunc[R] {
	return func(row R) float64 {
		return max(m.Height(text(row)), minHeight)
	}
}

// DetailFunc returns a detail height resolver measuring the detail text of
// each row.
func DetailFunc[R any](m Measurer, text func(R) string) heights.DetailHeightFunc[R] {
	return func(row R, _ int) float64 {
		return m.Height(text(row))
	}
}

// Fit truncates or pads s to exactly width display cells.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
