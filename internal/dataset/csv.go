package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// csvReader reads comma-separated files whose first row names the columns.
// Empty cells are treated as missing; short rows are padded with missing cells.
type csvReader struct{}

func (csvReader) Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{}, nil
		}
		return nil, eris.Wrap(err, "csv: read header")
	}
	cols := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		cols[i] = h
	}
	t := &Table{Columns: cols}
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read row %d", n)
		}
		if len(rec) > len(cols) {
			return nil, eris.Errorf("csv: row %d has %d fields, header has %d", n, len(rec), len(cols))
		}
		row := make(Row, len(cols))
		for i, v := range rec {
			if v == "" {
				continue
			}
			row[cols[i]] = v
		}
		t.Rows = append(t.Rows, row)
	}
}
