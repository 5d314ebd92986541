package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/virtugrid/core/metrics"
	"github.com/google/virtugrid/core/paging"
	"github.com/google/virtugrid/core/textheight"
)

func testRows(t *testing.T, n int) []*structpb.Struct {
	t.Helper()
	rows := make([]*structpb.Struct, n)
	for i := range rows {
		status := "Active"
		if i%2 == 1 {
			status = "Inactive"
		}
		row, err := structpb.NewStruct(map[string]any{
			"id":     i,
			"status": status,
			"note":   "short note",
		})
		require.NoError(t, err)
		rows[i] = row
	}
	return rows
}

func testTable(rows []*structpb.Struct) *Table {
	return &Table{
		Name:        "orders",
		Title:       "Orders",
		Columns:     []string{"id", "status"},
		KeyField:    "id",
		DetailField: "note",
		Rows:        rows,
		RowHeight:   50,
		// "short note" fits one line: 20 + 10
		Detail: textheight.Measurer{Width: 40, LineHeight: 20, Padding: 10},
	}
}

func newTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	s, err := NewServer(
		WithMetrics(m),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return s, m
}

type windowJSON struct {
	Table       string  `json:"table"`
	First       int     `json:"first"`
	Last        int     `json:"last"`
	RowCount    int     `json:"rowCount"`
	TotalHeight float64 `json:"totalHeight"`
	PaddingTop  float64 `json:"paddingTop"`
	Rows        []struct {
		Index    int            `json:"index"`
		Key      string         `json:"key"`
		Header   string         `json:"header"`
		Loading  bool           `json:"loading"`
		Top      float64        `json:"top"`
		Height   float64        `json:"height"`
		Expanded bool           `json:"expanded"`
		Fields   map[string]any `json:"fields"`
	} `json:"rows"`
}

func request(t *testing.T, s *Server, raw string) (*httptest.ResponseRecorder, *HandlerResult) {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	res := s.HandleWindowRequest(context.Background(), rec, u, rec.Header().Set)
	return rec, res
}

func fetchWindow(t *testing.T, s *Server, raw string) windowJSON {
	t.Helper()
	rec, res := request(t, s, raw)
	require.Nil(t, res)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out windowJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleWindowRequestErrors(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 3)))

	_, res := request(t, s, "/window")
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	_, res = request(t, s, "/window?table=missing")
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestWindowJSON(t *testing.T) {
	s, m := newTestServer(t)
	s.AddTable(testTable(testRows(t, 20)))

	out := fetchWindow(t, s, "/window?table=orders&format=json&viewport=120&offset=60")

	assert.Equal(t, "orders", out.Table)
	assert.Equal(t, 1, out.First)
	assert.Equal(t, 4, out.Last)
	assert.Equal(t, 20, out.RowCount)
	assert.Equal(t, 1000.0, out.TotalHeight)
	assert.Equal(t, 50.0, out.PaddingTop)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, "1", out.Rows[0].Key)
	assert.Equal(t, 50.0, out.Rows[0].Top)
	assert.Equal(t, "Inactive", out.Rows[0].Fields["status"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WindowRequests.WithLabelValues("orders")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRebuilds))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.CacheRows))
}

func TestWindowExpansionFollowsURL(t *testing.T) {
	s, m := newTestServer(t)
	s.AddTable(testTable(testRows(t, 20)))

	out := fetchWindow(t, s, "/window?table=orders&format=json&expanded=0")
	assert.Equal(t, 1030.0, out.TotalHeight)
	assert.True(t, out.Rows[0].Expanded)
	assert.Equal(t, 80.0, out.Rows[0].Height)
	assert.Equal(t, 80.0, out.Rows[1].Top)

	out = fetchWindow(t, s, "/window?table=orders&format=json")
	assert.Equal(t, 1000.0, out.TotalHeight)
	assert.False(t, out.Rows[0].Expanded)

	// the cache was built once and updated in place
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRebuilds))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ExpansionToggles))
}

func TestWindowGrouped(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 20)))

	out := fetchWindow(t, s, "/window?table=orders&format=json&grouped=status&viewport=2000")

	// two headers plus twenty rows
	assert.Equal(t, 22, out.RowCount)
	assert.Equal(t, 1100.0, out.TotalHeight)
	require.Len(t, out.Rows, 22)
	assert.Equal(t, "Active (10)", out.Rows[0].Header)
	assert.Equal(t, "0", out.Rows[1].Key)
	assert.Equal(t, "Inactive (10)", out.Rows[11].Header)
}

func TestWindowHTML(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 5)))

	rec, res := request(t, s, "/window?table=orders&expanded=2")
	require.Nil(t, res)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Orders</title>")
	assert.Contains(t, body, "Collapse")
	assert.Contains(t, body, "short note")
}

func TestWindowRowsFragment(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 50)))

	rec, res := request(t, s, "/window?table=orders&format=rows&viewport=100&offset=500")
	require.Nil(t, res)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.NotContains(t, body, "<title>")
	assert.Contains(t, body, "Expand")
	assert.Contains(t, body, "Inactive")
}

func TestWindowPaged(t *testing.T) {
	s, m := newTestServer(t)
	rows := testRows(t, 100)
	table := testTable(nil)
	table.Store = paging.NewStore[*structpb.Struct](paging.SliceFetcher[*structpb.Struct](rows), 10)
	s.AddTable(table)

	out := fetchWindow(t, s, "/window?table=orders&format=json&viewport=120&offset=2010&expanded=41")

	assert.Equal(t, 100, out.RowCount)
	assert.Equal(t, 40, out.First)
	assert.True(t, table.Store.Loaded(0))
	assert.True(t, table.Store.Loaded(4))
	assert.False(t, table.Store.Loaded(2))
	require.NotEmpty(t, out.Rows)
	assert.Equal(t, "40", out.Rows[0].Key)
	assert.False(t, out.Rows[0].Loading)
	assert.True(t, out.Rows[1].Expanded)
	assert.Equal(t, 80.0, out.Rows[1].Height)

	// the empty initial cache, then the rebuild once the total was known
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRebuilds))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.CacheRows))
}

func TestBufferDoesNotMultiplyWindows(t *testing.T) {
	s, m := newTestServer(t)
	s.AddTable(testTable(testRows(t, 500)))

	for buffer := 0; buffer < 50; buffer++ {
		fetchWindow(t, s, fmt.Sprintf("/window?table=orders&format=json&viewport=100&buffer=%d", buffer))
	}
	assert.Len(t, s.windows, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRebuilds))

	out := fetchWindow(t, s, "/window?table=orders&format=json&viewport=100&offset=1000&buffer=3")
	// rows 20-22 intersect the viewport, three more on each side
	assert.Equal(t, 17, out.First)
	assert.Equal(t, 26, out.Last)
	require.Len(t, out.Rows, 9)
	assert.Equal(t, "17", out.Rows[0].Key)
}

func TestWindowSizeIsBounded(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 5000)))

	out := fetchWindow(t, s, "/window?table=orders&format=json&viewport=1e12&buffer=100000")
	// rows 0-80 touch the 4000px viewport, plus 100 buffered rows below
	assert.Len(t, out.Rows, 81+100)
}

func TestUnknownGroupingsShareWindow(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 20)))

	for _, g := range []string{"", "nope", "nope,other", "status", "status,status", "status,nope"} {
		fetchWindow(t, s, "/window?table=orders&format=json&grouped="+g)
	}
	assert.Len(t, s.windows, 2)
}

func TestWindowCacheEvictsLeastRecentlyUsed(t *testing.T) {
	s, m := newTestServer(t)
	for i := 0; i <= maxWindows; i++ {
		table := testTable(testRows(t, 3))
		table.Name = fmt.Sprintf("t%d", i)
		s.AddTable(table)
		fetchWindow(t, s, "/window?format=json&table="+table.Name)
	}
	assert.Len(t, s.windows, maxWindows)
	assert.Len(t, s.recent, maxWindows)
	_, ok := s.windows[windowKey("t0", nil)]
	assert.False(t, ok)

	// t1 is cached; asking for it does not rebuild
	before := testutil.ToFloat64(m.CacheRebuilds)
	fetchWindow(t, s, "/window?format=json&table=t1")
	assert.Equal(t, before, testutil.ToFloat64(m.CacheRebuilds))
	assert.Equal(t, windowKey("t1", nil), s.recent[len(s.recent)-1])
}

func TestLanding(t *testing.T) {
	s, _ := newTestServer(t)
	s.AddTable(testTable(testRows(t, 7)))

	rec := httptest.NewRecorder()
	require.NoError(t, s.HandleLandingRequest(rec, rec.Header().Set))
	assert.Contains(t, rec.Body.String(), "Orders")
	assert.Contains(t, rec.Body.String(), "7 rows")

	infos := s.Tables()
	require.Len(t, infos, 1)
	assert.Equal(t, "/window?table=orders", infos[0].URL)
}

func TestFieldString(t *testing.T) {
	row, err := structpb.NewStruct(map[string]any{
		"s": "text",
		"n": 12.5,
		"b": true,
		"z": nil,
		"l": []any{1, "a"},
	})
	require.NoError(t, err)

	assert.Equal(t, "text", fieldString(row, "s"))
	assert.Equal(t, "12.5", fieldString(row, "n"))
	assert.Equal(t, "true", fieldString(row, "b"))
	assert.Equal(t, "", fieldString(row, "z"))
	assert.Equal(t, "", fieldString(row, "missing"))
	assert.JSONEq(t, `[1,"a"]`, fieldString(row, "l"))
}
