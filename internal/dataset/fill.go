package dataset

import "strings"

// FillMissingKey returns a copy of t where rows with an empty or missing key column take
// the fallback column's value instead (anonymous edits are keyed by IP address).
// Rows that are not changed are shared with t; t itself is not modified.
func FillMissingKey(t *Table, key, fallback string) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: make([]Row, len(t.Rows))}
	if !out.HasColumn(key) {
		out.Columns = append(out.Columns, key)
	}
	for i, r := range t.Rows {
		if strings.TrimSpace(r.String(key)) != "" {
			out.Rows[i] = r
			continue
		}
		fb, ok := r.Value(fallback)
		if !ok {
			out.Rows[i] = r
			continue
		}
		cp := make(Row, len(r)+1)
		for k, v := range r {
			cp[k] = v
		}
		cp[key] = fb
		out.Rows[i] = cp
	}
	return out
}
