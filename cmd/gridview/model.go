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

package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/heights"
	"github.com/google/virtugrid/core/textheight"
	"github.com/google/virtugrid/core/viewport"
)

// Lines taken by the header and the status line.
const chromeLines = 2

const detailIndent = "    "

// Colors
var (
	accent = lipgloss.Color("#7C3AED")
	muted  = lipgloss.Color("#6B7280")
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	currentStyle = lipgloss.NewStyle().Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(muted)
	statusStyle  = lipgloss.NewStyle().Foreground(muted)
)

type column struct {
	name  string
	width int
}

var columns = []column{
	{"id", 7},
	{"customer", 12},
	{"status", 11},
	{"region", 8},
	{"category", 12},
	{"amount", 9},
}

// model scrolls a list of orders one terminal line at a time. Every row is
// one line high; an expanded row adds its wrapped note below it.
type model struct {
	rows    []*structpb.Struct
	set     *heights.ExpansionSet[*structpb.Struct, string]
	body    *viewport.Body[*structpb.Struct]
	measure textheight.Measurer
	width   int
	height  int
}

func newModel(rows []*structpb.Struct) model {
	m := model{
		rows:    rows,
		set:     heights.NewExpansionSet(rowKey),
		measure: textheight.Measurer{Width: 72, LineHeight: 1},
	}
	m.body = viewport.NewBody(m.config(), viewport.WithRowHeight(1))
	return m
}

func (m model) config() heights.Config[*structpb.Struct] {
	return heights.Config[*structpb.Struct]{
		Rows:         heights.Rows[*structpb.Struct](m.rows),
		RowHeight:    heights.FixedHeight[*structpb.Struct](1),
		DetailHeight: textheight.DetailFunc(m.measure, noteOf),
		Expansions:   m.set,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		// Detail heights depend on the wrap width.
		m.measure.Width = max(msg.Width-len(detailIndent), 10)
		m.body.Rebuild(m.config())
		m.body.SetViewport(float64(max(msg.Height-chromeLines, 0)))

	case tea.KeyMsg:
		page := m.body.Viewport()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "j", "down":
			m.body.ScrollBy(1)
		case "k", "up":
			m.body.ScrollBy(-1)
		case "pgdown", "f":
			m.body.ScrollBy(page)
		case "pgup", "b":
			m.body.ScrollBy(-page)
		case "g", "home":
			m.body.ScrollTo(0)
		case "G", "end":
			m.body.ScrollTo(m.body.ScrollHeight())
		case " ", "enter":
			m.body.ToggleExpansion(m.body.Indexes().First)
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.height == 0 {
		return "loading…"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(formatHeader()))
	b.WriteByte('\n')

	lines := m.visibleLines()
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for i := len(lines); i < int(m.body.Viewport()); i++ {
		b.WriteByte('\n')
	}
	b.WriteString(statusStyle.Render(m.status()))
	return b.String()
}

// visibleLines renders the rows under the viewport and cuts the lines that
// are scrolled out of view.
func (m model) visibleLines() []string {
	w := m.body.Indexes()
	var lines []string
	for i := w.First; i < w.Last; i++ {
		row := m.rows[i]
		expanded := m.set.Expanded(row)
		line := formatRow(row, expanded)
		if i == w.First {
			line = currentStyle.Render(line)
		}
		lines = append(lines, line)
		if expanded {
			for _, l := range m.measure.WrapLines(noteOf(row)) {
				lines = append(lines, detailStyle.Render(detailIndent+l))
			}
		}
	}
	skip := int(m.body.Offset() - m.body.RowTop(w.First))
	if skip >= len(lines) {
		return nil
	}
	lines = lines[max(skip, 0):]
	if n := int(m.body.Viewport()); len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

func (m model) status() string {
	w := m.body.Indexes()
	return fmt.Sprintf("rows %d-%d of %d · line %d/%d · %d expanded · j/k pgup/pgdn g/G space q",
		w.First, max(w.Last-1, w.First), m.body.RowCount(),
		int(m.body.Offset()), int(m.body.ScrollHeight()), m.set.Len())
}

func formatHeader() string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = textheight.Fit(c.name, c.width)
	}
	return "  " + strings.Join(cells, " ")
}

func formatRow(row *structpb.Struct, expanded bool) string {
	marker := "▸ "
	if expanded {
		marker = "▾ "
	}
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = textheight.Fit(field(row, c.name), c.width)
	}
	return marker + strings.Join(cells, " ")
}

func field(row *structpb.Struct, name string) string {
	v, ok := row.GetFields()[name]
	if !ok {
		return ""
	}
	return fmt.Sprint(v.AsInterface())
}

func rowKey(row *structpb.Struct) string {
	return field(row, "id")
}

func noteOf(row *structpb.Struct) string {
	return field(row, "note")
}
