package analysis

import (
	"math"

	"github.com/KaramelBytes/cross-edits-cli/internal/anomaly"
	"github.com/KaramelBytes/cross-edits-cli/internal/dataset"
	"github.com/KaramelBytes/cross-edits-cli/internal/metrics"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Baseline is a column's reference mean and median over a whole group.
type Baseline struct {
	Mean   float64
	Median float64
}

// Detection is the outcome of running the detector over one group.
type Detection struct {
	// Scored is the number of rows with a non-zero primary score.
	Scored int
	// WindowSize is the effective window size (0 when the group was skipped).
	WindowSize int
	// Windows is the number of windows compared against the baseline.
	Windows   int
	Baselines map[string]Baseline
	Events    []anomaly.Event
}

// Skipped reports whether the group had too few scored rows to analyze.
func (d Detection) Skipped() bool { return d.WindowSize == 0 }

// Detect runs the sliding-window comparison for one group.
//
// Rows with a zero or missing primary score are dropped; groups left with one row or fewer
// produce nothing. The rest are stable-sorted by timestamp and compared window by window
// against the mean and median of the whole sorted set. A (column, metric) pair whose
// baseline is zero or undefined carries no signal and is never reported.
func Detect(cfg Config, groupKey string, rows *dataset.Table) Detection {
	scored := rows.NonZero(cfg.PrimaryColumn)
	n := scored.Len()
	d := Detection{Scored: n}
	if n <= 1 {
		return d
	}
	size := cfg.WindowSize
	if size <= 0 {
		size = 10
	}
	if n < size {
		size = 1
	}
	d.WindowSize = size
	sorted := scored.SortByTime(cfg.TimestampColumn)

	// per-row values so each window is a slice instead of a re-parse
	values := make(map[string][]float64, len(cfg.Columns))
	d.Baselines = make(map[string]Baseline, len(cfg.Columns))
	for _, col := range cfg.Columns {
		vals := make([]float64, n)
		present := make([]float64, 0, n)
		for i, r := range sorted.Rows {
			v, ok := r.Float(col)
			if !ok {
				v = math.NaN()
			} else {
				present = append(present, v)
			}
			vals[i] = v
		}
		values[col] = vals
		d.Baselines[col] = Baseline{Mean: Mean(present), Median: Median(present)}
		if !usableBaseline(d.Baselines[col].Mean) || !usableBaseline(d.Baselines[col].Median) {
			zap.L().Debug("baseline without signal",
				zap.String("group", groupKey),
				zap.String("column", col),
				zap.Float64("mean", d.Baselines[col].Mean),
				zap.Float64("median", d.Baselines[col].Median),
			)
		}
	}

	for start := 0; start+size <= n; start++ {
		end := start + size
		from := dataset.FormatTimestamp(sorted.Rows[start].String(cfg.TimestampColumn))
		to := dataset.FormatTimestamp(sorted.Rows[end-1].String(cfg.TimestampColumn))
		for _, col := range cfg.Columns {
			window := finite(values[col][start:end])
			base := d.Baselines[col]
			mult := cfg.multiplier(col)
			checks := []struct {
				metric   anomaly.Metric
				value    float64
				baseline float64
			}{
				{anomaly.MetricMean, Mean(window), base.Mean},
				{anomaly.MetricMedian, Median(window), base.Median},
			}
			for _, c := range checks {
				pct, ok := percentDiff(mult, c.value, c.baseline)
				if !ok || pct <= cfg.Threshold {
					continue
				}
				d.Events = append(d.Events, anomaly.Event{
					Column:   col,
					GroupKey: groupKey,
					Start:    from,
					End:      to,
					Metric:   c.metric,
					Percent:  pct,
				})
			}
		}
		d.Windows++
	}
	return d
}

// percentDiff returns multiplier*(value-baseline)/baseline*100.
func percentDiff(multiplier, value, baseline float64) (float64, bool) {
	if !usableBaseline(baseline) || math.IsNaN(value) {
		return 0, false
	}
	return multiplier * (value - baseline) / baseline * 100.0, true
}

func usableBaseline(b float64) bool {
	return b != 0 && !math.IsNaN(b) && !math.IsInf(b, 0)
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// SlidingWindow is the Operation that runs Detect on every group and records its events.
type SlidingWindow struct {
	cfg     Config
	sink    anomaly.Sink
	metrics *metrics.Recorder
	events  int
	windows int
}

// NewSlidingWindow returns the detector operation. rec may be nil.
func NewSlidingWindow(cfg Config, sink anomaly.Sink, rec *metrics.Recorder) *SlidingWindow {
	return &SlidingWindow{cfg: cfg.clone(), sink: sink, metrics: rec}
}

// Events returns how many anomaly events have been recorded.
func (s *SlidingWindow) Events() int { return s.events }

// Windows returns how many windows have been evaluated across all groups.
func (s *SlidingWindow) Windows() int { return s.windows }

func (s *SlidingWindow) ProcessGroup(g Group) error {
	s.metrics.IncGroups()
	d := Detect(s.cfg, g.Key, g.Rows)
	if d.Skipped() {
		s.metrics.IncSkipped()
		zap.L().Debug("group skipped, not enough scored edits",
			zap.String("group", g.Key),
			zap.Int("scored", d.Scored),
		)
		return nil
	}
	s.windows += d.Windows
	s.metrics.AddWindows(d.Windows)
	for _, ev := range d.Events {
		if err := s.sink.Record(ev); err != nil {
			return eris.Wrap(err, "sliding window: record anomaly")
		}
		s.metrics.IncAnomaly(ev.Column, string(ev.Metric))
		s.events++
	}
	if len(d.Events) > 0 {
		zap.L().Debug("anomalies detected",
			zap.String("group", g.Key),
			zap.Int("index", g.Index),
			zap.Int("windows", d.Windows),
			zap.Int("events", len(d.Events)),
		)
	}
	return nil
}
