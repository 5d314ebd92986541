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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/metrics"
	"github.com/google/virtugrid/core/query"
	"github.com/google/virtugrid/core/rendering"
	"github.com/google/virtugrid/core/views"
)

// Server represents the application server with all its dependencies
type Server struct {
	renderer *rendering.WindowRenderer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	title    string
	subtitle string

	mu      sync.Mutex
	tables  map[string]*Table
	order   []string
	windows map[string]*window
	// recent holds window keys, least recently used first.
	recent []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetrics makes the server record into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTitle sets the landing page title and subtitle.
func WithTitle(title, subtitle string) Option {
	return func(s *Server) {
		s.title = title
		s.subtitle = subtitle
	}
}

// NewServer creates a server with no tables.
func NewServer(opts ...Option) (*Server, error) {
	renderer, err := rendering.NewWindowRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	s := &Server{
		renderer: renderer,
		logger:   slog.Default(),
		title:    "Virtugrid",
		tables:   make(map[string]*Table),
		windows:  make(map[string]*window),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AddTable registers a table, replacing any table with the same name along
// with its cached windows.
func (s *Server) AddTable(t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[t.Name]; !ok {
		s.order = append(s.order, t.Name)
	}
	s.tables[t.Name] = t
	s.recent = slices.DeleteFunc(s.recent, func(key string) bool {
		if s.windows[key].table.Name != t.Name {
			return false
		}
		delete(s.windows, key)
		return true
	})
}

// Table returns a registered table.
func (s *Server) Table(name string) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables[name]
}

// Tables lists the registered tables in registration order.
func (s *Server) Tables() []views.TableInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]views.TableInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name].info())
	}
	return out
}

// maxWindows bounds the number of cached windows, each of which holds a
// height cache over the whole table.
const maxWindows = 32

// window returns the cached window for a table and grouping, building its
// height cache on first use. The least recently used window is dropped once
// maxWindows are cached.
func (s *Server) window(t *Table, grouped []string) (*window, bool) {
	key := windowKey(t.Name, grouped)
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.recent, key); i >= 0 {
		s.recent = append(slices.Delete(s.recent, i, i+1), key)
		return s.windows[key], false
	}
	if len(s.recent) >= maxWindows {
		delete(s.windows, s.recent[0])
		s.recent = slices.Delete(s.recent, 0, 1)
	}
	w := newWindow(t, grouped, s.logger, s.metrics)
	s.windows[key] = w
	s.recent = append(s.recent, key)
	return w, true
}

// groupable keeps the grouping columns the table has, each once. Paged
// tables are never grouped.
func (t *Table) groupable(grouped []string) []string {
	if t.paged() {
		return nil
	}
	var out []string
	for _, col := range grouped {
		if slices.Contains(t.Columns, col) && !slices.Contains(out, col) {
			out = append(out, col)
		}
	}
	return out
}

// HandlerResult represents the result of handling a request
type HandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

// HandleWindowRequest renders the window of a table described by the URL.
// Returns an error result if the request is invalid, nil on success
func (s *Server) HandleWindowRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *HandlerResult {
	timing := NewTimingCollector()

	parseStart := time.Now()
	q := query.NewQuery(requestURL)
	timing.Record("Parse Query", time.Since(parseStart))

	if q.Table == "" {
		return &HandlerResult{StatusCode: http.StatusBadRequest, Message: "Table parameter is required"}
	}
	t := s.Table(q.Table)
	if t == nil {
		return &HandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Table '%s' not found", q.Table)}
	}
	if len(q.Columns) == 0 {
		q.Columns = append(q.Columns, t.Columns...)
	}
	if s.metrics != nil {
		s.metrics.WindowRequests.WithLabelValues(t.Name).Inc()
	}

	cacheStart := time.Now()
	win, built := s.window(t, t.groupable(q.GroupedColumns))

	win.mu.Lock()
	defer win.mu.Unlock()
	if built {
		timing.Record("Build Cache", time.Since(cacheStart))
	}

	syncStart := time.Now()
	if n := win.syncExpansions(q.Expanded); n > 0 {
		if s.metrics != nil {
			s.metrics.ExpansionToggles.Add(float64(n))
		}
		timing.Record("Sync Expansions", time.Since(syncStart))
	}

	win.body.SetViewport(q.Viewport)
	win.body.SetBuffer(q.Buffer)
	win.body.ScrollTo(q.Offset)

	if t.paged() {
		loadStart := time.Now()
		if err := win.load(ctx, q.Offset); err != nil {
			s.logger.Warn("page load failed", "table", t.Name, "err", err)
		}
		win.body.ScrollTo(q.Offset)
		timing.Record("Load Pages", time.Since(loadStart))
	}

	vmStart := time.Now()
	vm := win.viewModel(q)
	timing.Record("Build ViewModel", time.Since(vmStart))
	vm.RenderTimeMs = timing.TotalMs()
	vm.TimingBreakdown = timing.GetEntries()

	s.logger.Debug("window",
		"table", t.Name,
		"offset", vm.Offset,
		"first", vm.First,
		"last", vm.Last,
		"total_height", vm.TotalHeight,
	)

	if q.WantsJSON() {
		b, err := encodeWindow(vm, win)
		if err != nil {
			return &HandlerResult{Error: fmt.Errorf("encode window: %w", err)}
		}
		setHeader("Content-Type", "application/json")
		if _, err := w.Write(b); err != nil {
			return &HandlerResult{Error: err}
		}
		return nil
	}

	setHeader("Content-Type", "text/html; charset=utf-8")
	render := s.renderer.Render
	if q.Format == query.FormatRows {
		render = s.renderer.RenderRows
	}
	if err := render(w, vm); err != nil {
		s.logger.Error("template rendering error", "err", err)
		return &HandlerResult{Error: err}
	}
	return nil
}

// HandleLandingRequest processes the landing page request
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")
	vm := views.LandingViewModel{
		Title:    s.title,
		Subtitle: s.subtitle,
		Tables:   s.Tables(),
	}
	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.logger.Error("landing page rendering error", "err", err)
		return err
	}
	return nil
}

// encodeWindow encodes the window geometry and its loaded rows as JSON.
func encodeWindow(vm views.WindowViewModel, win *window) ([]byte, error) {
	cfg := win.body.Config()
	rows := make([]any, 0, len(vm.Rows))
	for _, rv := range vm.Rows {
		r := map[string]any{
			"index":    rv.Index,
			"top":      rv.Top,
			"height":   rv.Height,
			"expanded": rv.Expanded,
		}
		switch {
		case rv.Loading:
			r["loading"] = true
		case rv.Header:
			r["header"] = rv.Label
			r["level"] = rv.Level
		default:
			r["key"] = rv.Key
			if it, ok := cfg.RowAt(rv.Index); ok {
				r["fields"] = it.Row.AsMap()
			}
		}
		rows = append(rows, r)
	}
	st, err := structpb.NewStruct(map[string]any{
		"table":         vm.Table,
		"offset":        vm.Offset,
		"viewport":      vm.Viewport,
		"first":         vm.First,
		"last":          vm.Last,
		"rowCount":      vm.RowCount,
		"totalHeight":   vm.TotalHeight,
		"paddingTop":    vm.PaddingTop,
		"paddingBottom": vm.PaddingBottom,
		"rows":          rows,
	})
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(st)
}
