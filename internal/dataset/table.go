// Package dataset holds the in-memory edit table and the batch loader that fills it.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Well-known edit record columns.
const (
	ColumnTitle     = "title"
	ColumnAuthor    = "author"
	ColumnIP        = "ip"
	ColumnTimestamp = "timestamp"
	ColumnDamaging  = "ores_damaging"
	ColumnGoodFaith = "ores_goodfaith"
)

// Row is one edit record keyed by column name. A column absent from the map is missing.
type Row map[string]string

// Value returns the raw value of col and whether it is present.
func (r Row) Value(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// String returns the raw value of col, or "" when missing.
func (r Row) String(col string) string { return r[col] }

// Float parses col as a number. Missing, empty, unparseable and NaN values report false.
func (r Row) Float(col string) (float64, bool) {
	v, ok := r[col]
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Time parses col as a timestamp (see ParseTimestamp).
func (r Row) Time(col string) (time.Time, bool) {
	v, ok := r[col]
	if !ok {
		return time.Time{}, false
	}
	return ParseTimestamp(v)
}

// Table is an ordered set of rows with the union of their columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a table. Columns referenced by rows but not listed are appended in row order.
func NewTable(columns []string, rows []Row) *Table {
	t := &Table{Columns: append([]string(nil), columns...), Rows: rows}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		seen[c] = struct{}{}
	}
	for _, r := range rows {
		// sorted so tables built from maps get a stable column order
		extra := make([]string, 0)
		for c := range r {
			if _, ok := seen[c]; !ok {
				extra = append(extra, c)
			}
		}
		sort.Strings(extra)
		for _, c := range extra {
			seen[c] = struct{}{}
			t.Columns = append(t.Columns, c)
		}
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Merge returns the outer union of t and other: all columns of both, all rows of both,
// t's rows first. Rows are not deduplicated.
func (t *Table) Merge(other *Table) *Table {
	if t == nil {
		return other.clone()
	}
	out := t.clone()
	if other == nil {
		return out
	}
	for _, c := range other.Columns {
		if !out.HasColumn(c) {
			out.Columns = append(out.Columns, c)
		}
	}
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// NonZero keeps rows whose col parses to a non-zero number.
func (t *Table) NonZero(col string) *Table {
	return t.Filter(func(r Row) bool {
		v, ok := r.Float(col)
		return ok && v != 0
	})
}

// SortByTime returns a copy of t stable-sorted ascending by col. Parseable timestamps come
// first, then unparseable values in lexical order, then missing values. Ties keep their order.
func (t *Table) SortByTime(col string) *Table {
	type sortKey struct {
		rank int // 0 parsed, 1 raw text, 2 missing
		at   time.Time
		raw  string
	}
	keys := make([]sortKey, len(t.Rows))
	idx := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		idx[i] = i
		raw, ok := r.Value(col)
		switch {
		case !ok || strings.TrimSpace(raw) == "":
			keys[i] = sortKey{rank: 2}
		default:
			if at, ok := ParseTimestamp(raw); ok {
				keys[i] = sortKey{rank: 0, at: at}
			} else {
				keys[i] = sortKey{rank: 1, raw: raw}
			}
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.rank != kb.rank {
			return ka.rank < kb.rank
		}
		switch ka.rank {
		case 0:
			return ka.at.Before(kb.at)
		case 1:
			return ka.raw < kb.raw
		}
		return false
	})
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([]Row, len(idx))}
	for i, j := range idx {
		out.Rows[i] = t.Rows[j]
	}
	return out
}

// Unique returns the distinct values of col in order of first appearance.
// Missing values appear as "".
func (t *Table) Unique(col string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.Rows {
		v := r.String(col)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Floats returns the numeric values of col, skipping missing and unparseable cells.
func (t *Table) Floats(col string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Float(col); ok {
			out = append(out, v)
		}
	}
	return out
}

func (t *Table) clone() *Table {
	if t == nil {
		return &Table{}
	}
	return &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    append([]Row(nil), t.Rows...),
	}
}
