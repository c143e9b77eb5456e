package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Placeholder is replaced with the file index in a path template.
const Placeholder = "##"

// ErrUnsupportedFormat is returned for data files that are neither .json nor .csv.
var ErrUnsupportedFormat = eris.New("unsupported data file format")

// Format identifies the on-disk encoding of a batch of edit files.
type Format int

const (
	FormatJSON Format = iota + 1 // line-delimited JSON records
	FormatCSV                    // comma-separated with a header row
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// Reader parses a single data file into a table.
type Reader interface {
	Read(r io.Reader) (*Table, error)
}

// Reader returns the parsing strategy for f.
func (f Format) Reader() (Reader, error) {
	switch f {
	case FormatJSON:
		return jsonLinesReader{}, nil
	case FormatCSV:
		return csvReader{}, nil
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "format %d", int(f))
	}
}

// FormatFromPath resolves the format from the template's file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return 0, eris.Wrapf(ErrUnsupportedFormat, "%q", filepath.Base(path))
	}
}

// FileNames expands template for every index in [start, stop). Indices below 10 are
// zero-padded to two digits.
func FileNames(template string, start, stop int) []string {
	var out []string
	for i := start; i < stop; i++ {
		out = append(out, strings.ReplaceAll(template, Placeholder, fmt.Sprintf("%02d", i)))
	}
	return out
}

// Loader reads a numbered batch of files and combines them into one table.
type Loader struct {
	format Format
	out    io.Writer
	table  *Table
	files  int
}

// NewLoader returns a loader for format. Row counts are reported to out.
func NewLoader(format Format, out io.Writer) *Loader {
	if out == nil {
		out = io.Discard
	}
	return &Loader{format: format, out: out}
}

// Load reads every file of the batch and outer-merges it into the combined table.
// The first file that cannot be read or parsed aborts the load.
func (l *Loader) Load(template string, start, stop int) error {
	reader, err := l.format.Reader()
	if err != nil {
		return err
	}
	for _, name := range FileNames(template, start, stop) {
		t, err := readFile(reader, name)
		if err != nil {
			return err
		}
		zap.L().Debug("loaded data file",
			zap.String("file", name),
			zap.String("format", l.format.String()),
			zap.Int("rows", t.Len()),
		)
		l.table = l.table.Merge(t)
		l.files++
	}
	return nil
}

// Files returns how many files have been merged so far.
func (l *Loader) Files() int { return l.files }

// Data returns the combined table and reports its row count.
func (l *Loader) Data() *Table {
	if l.table == nil {
		l.table = &Table{}
	}
	fmt.Fprintf(l.out, "%d revisions loaded\n", l.table.Len())
	zap.L().Info("revisions loaded", zap.Int("rows", l.table.Len()), zap.Int("files", l.files))
	return l.table
}

func readFile(reader Reader, name string) (*Table, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: open %s", name)
	}
	defer f.Close()
	t, err := reader.Read(f)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: parse %s", name)
	}
	return t, nil
}
