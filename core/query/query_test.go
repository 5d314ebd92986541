package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) *Query {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return NewQuery(u)
}

func TestNewQueryDefaults(t *testing.T) {
	q := parse(t, "/window?table=orders")

	assert.Equal(t, "/window", q.Path)
	assert.Equal(t, "orders", q.Table)
	assert.Equal(t, 0.0, q.Offset)
	assert.Equal(t, float64(DefaultViewport), q.Viewport)
	assert.Equal(t, 0, q.Buffer)
	assert.False(t, q.WantsJSON())
	assert.Empty(t, q.Expanded)
	assert.Empty(t, q.GroupedColumns)
}

func TestNewQueryParsesWindow(t *testing.T) {
	q := parse(t, "/window?table=orders&offset=125.5&viewport=300&buffer=2&format=json&expanded=3,7")

	assert.Equal(t, 125.5, q.Offset)
	assert.Equal(t, 300.0, q.Viewport)
	assert.Equal(t, 2, q.Buffer)
	assert.True(t, q.WantsJSON())
	assert.Equal(t, []string{"3", "7"}, q.Expanded)
	assert.True(t, q.IsExpanded("7"))
	assert.False(t, q.IsExpanded("4"))
}

func TestNewQueryIgnoresMalformedNumbers(t *testing.T) {
	q := parse(t, "/window?offset=-5&viewport=abc&buffer=-1&format=xml")

	assert.Equal(t, 0.0, q.Offset)
	assert.Equal(t, float64(DefaultViewport), q.Viewport)
	assert.Equal(t, 0, q.Buffer)
	assert.Equal(t, FormatHTML, q.Format)
}

func TestNewQueryClampsWindowSize(t *testing.T) {
	q := parse(t, "/window?viewport=1e12&buffer=99999")
	assert.Equal(t, float64(MaxViewport), q.Viewport)
	assert.Equal(t, MaxBuffer, q.Buffer)

	q = parse(t, "/window?viewport=%2BInf")
	assert.Equal(t, float64(MaxViewport), q.Viewport)
}

func TestNewQueryRowsFormat(t *testing.T) {
	q := parse(t, "/window?table=orders&format=rows")
	assert.Equal(t, FormatRows, q.Format)
	assert.False(t, q.WantsJSON())
}

// TestColumnReorderingOnGrouping tests that grouped columns move to the front
func TestColumnReorderingOnGrouping(t *testing.T) {
	t.Run("Group middle column", func(t *testing.T) {
		q := parse(t, "/window?table=test&columns=status,region,category,amount&offset=400")

		next := parse(t, q.WithGroupedColumnToggled("region").String())
		assert.Equal(t, []string{"region"}, next.GroupedColumns)
		assert.Equal(t, []string{"region", "status", "category", "amount"}, next.Columns)
		assert.Equal(t, 0.0, next.Offset)
	})

	t.Run("Ungroup column", func(t *testing.T) {
		q := parse(t, "/window?table=test&columns=status,region,amount&grouped=status,region")

		next := parse(t, q.WithGroupedColumnToggled("status").String())
		assert.Equal(t, []string{"region"}, next.GroupedColumns)
		assert.Equal(t, "region", next.Columns[0])
		assert.True(t, next.IsColumnGrouped("region"))
		assert.False(t, next.IsColumnGrouped("status"))
	})
}

func TestWithExpandedToggledKeepsOffset(t *testing.T) {
	q := parse(t, "/window?table=orders&offset=250&expanded=1,2")

	closed := parse(t, q.WithExpandedToggled("1").String())
	assert.Equal(t, []string{"2"}, closed.Expanded)
	assert.Equal(t, 250.0, closed.Offset)

	opened := parse(t, q.WithExpandedToggled("9").String())
	assert.Equal(t, []string{"1", "2", "9"}, opened.Expanded)

	// the receiver is not modified
	assert.Equal(t, []string{"1", "2"}, q.Expanded)
}

func TestWithOffsetAndFormat(t *testing.T) {
	q := parse(t, "/window?table=orders&viewport=320")

	next := parse(t, q.WithOffset(75).String())
	assert.Equal(t, 75.0, next.Offset)
	assert.Equal(t, 320.0, next.Viewport)

	assert.Equal(t, 0.0, parse(t, q.WithOffset(-10).String()).Offset)
	assert.True(t, parse(t, q.WithFormat(FormatJSON).String()).WantsJSON())
}

func TestToURLRoundTrip(t *testing.T) {
	raw := "/window?buffer=3&expanded=a%2Cb&format=json&grouped=status&offset=12.25&table=orders"
	q := parse(t, raw)
	assert.Equal(t, raw, q.ToURL())
}
