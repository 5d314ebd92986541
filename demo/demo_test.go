package demo

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestOrdersAreDeterministic(t *testing.T) {
	a := Orders(50, 7)
	b := Orders(50, 7)

	require.Len(t, a, 50)
	for i := range a {
		assert.True(t, proto.Equal(a[i], b[i]), "row %d", i)
	}
	assert.Equal(t, float64(3), a[3].GetFields()["id"].GetNumberValue())
	assert.NotEmpty(t, a[0].GetFields()["note"].GetStringValue())
	assert.Empty(t, Orders(0, 1))
}

func TestLoadRows(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "rows.textproto")
	require.NoError(t, os.WriteFile(text, []byte(`
values { struct_value { fields { key: "id" value { number_value: 1 } } } }
values { struct_value { fields { key: "id" value { number_value: 2 } } } }
`), 0o644))
	rows, err := LoadRows(text)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2.0, rows[1].GetFields()["id"].GetNumberValue())

	js := filepath.Join(dir, "rows.json")
	require.NoError(t, os.WriteFile(js, []byte(`[{"id": 5, "note": "hi"}]`), 0o644))
	rows, err = LoadRows(js)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "hi", rows[0].GetFields()["note"].GetStringValue())

	csvPath := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,note\n9,from csv\n"), 0o644))
	rows, err = LoadRows(csvPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9.0, rows[0].GetFields()["id"].GetNumberValue())
	assert.Equal(t, "from csv", rows[0].GetFields()["note"].GetStringValue())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2]`), 0o644))
	_, err = LoadRows(bad)
	assert.Error(t, err)

	_, err = LoadRows(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDemoMux(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := NewRegistry()
	srv, err := SetupDemoServer(Config{Rows: 500, Seed: 1, PageSize: 20}, logger, reg)
	require.NoError(t, err)

	ts := httptest.NewServer(NewMux(srv, reg, logger))
	defer ts.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Orders (paged)")

	code, body = get("/window?table=orders&grouped=status&expanded=3")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Orders")

	code, body = get("/window?table=orders_paged&format=json&offset=3000")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"rowCount"`)

	code, _ = get("/window?table=nope")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get("/nothing-here")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "virtugrid_window_requests_total")
	assert.Contains(t, body, `virtugrid_page_fetches_total{result="ok"}`)
}

func TestFieldNames(t *testing.T) {
	rows := Orders(1, 3)
	assert.Equal(t, []string{"amount", "category", "customer", "id", "region", "status"}, fieldNames(rows))
	assert.Nil(t, fieldNames(nil))
}
