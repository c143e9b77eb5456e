// Package anomaly defines sliding-window anomaly events and the plain-text log they are written to.
package anomaly

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/KaramelBytes/cross-edits-cli/internal/utils"
	"github.com/rotisserie/eris"
)

// Metric is the window statistic compared against the baseline.
type Metric string

const (
	MetricMean   Metric = "mean"
	MetricMedian Metric = "median"
)

// Event is one window whose direction-adjusted deviation exceeded the threshold.
type Event struct {
	Column   string
	GroupKey string
	Start    string // first timestamp in the window, display form
	End      string // last timestamp in the window, display form
	Metric   Metric
	Percent  float64
}

// Line renders the event as a single log line, newline included.
func (e Event) Line() string {
	return fmt.Sprintf("Anomaly of %s of %s detected for %s during period from %s to %s, with a %.2f percent difference from baseline.\n",
		e.Metric, e.Column, e.GroupKey, e.Start, e.End, e.Percent)
}

// Sink receives anomaly events.
type Sink interface {
	Record(ev Event) error
}

// LogPath returns <dir>/<key>/sliding_window_anomaly_<threshold>_start_<start>_end_<stop>.txt.
func LogPath(dir, key string, threshold float64, start, stop int) string {
	name := fmt.Sprintf("sliding_window_anomaly_%s_start_%d_end_%d.txt",
		strconv.FormatFloat(threshold, 'f', -1, 64), start, stop)
	return filepath.Join(dir, key, name)
}

// FileLog writes one line per event to a truncated file. It has a single writer;
// concurrent runs must not share a path.
type FileLog struct {
	path   string
	f      *os.File
	w      *bufio.Writer
	count  int
	closed bool
}

// OpenFileLog creates (or truncates) the log at path, creating parent directories.
func OpenFileLog(path string) (*FileLog, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, eris.Wrapf(err, "anomaly log: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "anomaly log: open %s", path)
	}
	return &FileLog{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

// Record appends the event's line.
func (l *FileLog) Record(ev Event) error {
	if l.closed {
		return eris.Errorf("anomaly log: %s is closed", l.path)
	}
	if _, err := l.w.WriteString(ev.Line()); err != nil {
		return eris.Wrapf(err, "anomaly log: write %s", l.path)
	}
	l.count++
	return nil
}

// Path returns the log file location.
func (l *FileLog) Path() string { return l.path }

// Count returns the number of events written.
func (l *FileLog) Count() int { return l.count }

// Close flushes and closes the file. Calling Close more than once is a no-op.
func (l *FileLog) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	flushErr := l.w.Flush()
	closeErr := l.f.Close()
	if flushErr != nil {
		return eris.Wrapf(flushErr, "anomaly log: flush %s", l.path)
	}
	if closeErr != nil {
		return eris.Wrapf(closeErr, "anomaly log: close %s", l.path)
	}
	return nil
}
