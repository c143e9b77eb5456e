package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnique_FirstOccurrenceOrder(t *testing.T) {
	tbl := NewTable([]string{"title"}, []Row{
		{"title": "Zeta"}, {"title": "Alpha"}, {"title": "Zeta"}, {}, {"title": "Mu"}, {"title": "Alpha"},
	})
	assert.Equal(t, []string{"Zeta", "Alpha", "", "Mu"}, tbl.Unique("title"))
}

func TestSortByTime_StableAndCopying(t *testing.T) {
	rows := []Row{
		{"id": "a", "timestamp": "2020-06-03T00:00:00Z"},
		{"id": "b", "timestamp": "2020-06-01T00:00:00Z"},
		{"id": "c"},
		{"id": "d", "timestamp": "2020-06-01T00:00:00Z"},
		{"id": "e", "timestamp": "garbage"},
		{"id": "f", "timestamp": "2020-06-02T00:00:00Z"},
	}
	tbl := NewTable([]string{"id", "timestamp"}, rows)
	sorted := tbl.SortByTime("timestamp")

	var ids []string
	for _, r := range sorted.Rows {
		ids = append(ids, r.String("id"))
	}
	assert.Equal(t, []string{"b", "d", "f", "a", "e", "c"}, ids)

	// source order untouched
	var orig []string
	for _, r := range tbl.Rows {
		orig = append(orig, r.String("id"))
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, orig)
}

func TestNonZero(t *testing.T) {
	tbl := NewTable(nil, []Row{
		{"s": "0"}, {"s": "0.5"}, {"s": ""}, {}, {"s": "NaN"}, {"s": "-1"}, {"s": "0.0"},
	})
	nz := tbl.NonZero("s")
	assert.Equal(t, []float64{0.5, -1}, nz.Floats("s"))
	assert.Equal(t, 7, tbl.Len())
}

func TestMerge_KeepsAllRowsAndColumns(t *testing.T) {
	a := NewTable([]string{"x", "y"}, []Row{{"x": "1", "y": "2"}})
	b := NewTable([]string{"y", "z"}, []Row{{"y": "3", "z": "4"}, {"y": "3", "z": "4"}})
	m := a.Merge(b)
	assert.Equal(t, []string{"x", "y", "z"}, m.Columns)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 1, a.Len(), "merge does not modify the receiver")

	var nilTable *Table
	assert.Equal(t, 2, nilTable.Merge(b).Len())
}

func TestFillMissingKey(t *testing.T) {
	tbl := NewTable([]string{"author", "ip"}, []Row{
		{"author": "Alice", "ip": ""},
		{"author": "", "ip": "10.0.0.7"},
		{"ip": "10.0.0.8"},
		{"author": ""},
	})
	filled := FillMissingKey(tbl, ColumnAuthor, ColumnIP)

	assert.Equal(t, []string{"Alice", "10.0.0.7", "10.0.0.8", ""}, filled.Unique(ColumnAuthor))
	assert.Equal(t, "", tbl.Rows[1].String(ColumnAuthor), "source rows are not modified")
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2020, 6, 8, 12, 30, 0, 0, time.UTC)
	for _, in := range []string{
		"2020-06-08T12:30:00Z",
		"2020-06-08 12:30:00",
		"20200608123000",
		"1591619400",
		"1591619400000",
	} {
		got, ok := ParseTimestamp(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}
	_, ok := ParseTimestamp("yesterday")
	assert.False(t, ok)
	assert.Equal(t, "2020-06-08 12:30:00", FormatTimestamp("2020-06-08T12:30:00Z"))
	assert.Equal(t, "yesterday", FormatTimestamp("yesterday"))
}
