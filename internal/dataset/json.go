package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// jsonLinesReader reads one JSON object per record: {"col": val, ...}{"col": val, ...}.
// Key order of the first record that introduces a column decides column order.
type jsonLinesReader struct{}

func (jsonLinesReader) Read(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	t := &Table{}
	seen := map[string]struct{}{}
	for n := 1; ; n++ {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return t, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "json: record %d", n)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return nil, eris.Errorf("json: record %d: expected object, got %v", n, tok)
		}
		row := Row{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, eris.Wrapf(err, "json: record %d key", n)
			}
			key, _ := keyTok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, eris.Wrapf(err, "json: record %d field %q", n, key)
			}
			val, present, err := rawValue(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "json: record %d field %q", n, key)
			}
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				t.Columns = append(t.Columns, key)
			}
			if present {
				row[key] = val
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, eris.Wrapf(err, "json: record %d end", n)
		}
		t.Rows = append(t.Rows, row)
	}
}

// rawValue flattens a JSON value to text. null is reported as not present.
func rawValue(raw json.RawMessage) (string, bool, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return "", false, nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	case raw[0] == '{' || raw[0] == '[':
		var b bytes.Buffer
		if err := json.Compact(&b, raw); err != nil {
			return "", false, err
		}
		return b.String(), true, nil
	default:
		// numbers and booleans keep their literal text
		return string(raw), true, nil
	}
}
