// Package metrics counts what an analysis run did and can dump it in the Prometheus
// textfile format (for node_exporter's textfile collector).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

const namespace = "cross_edits"

// Recorder holds the run's counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	reg       *prometheus.Registry
	rows      prometheus.Counter
	groups    prometheus.Counter
	skipped   prometheus.Counter
	windows   prometheus.Counter
	anomalies *prometheus.CounterVec
}

// New builds a recorder on a private registry. A non-empty runID is attached to every series.
func New(runID string) *Recorder {
	reg := prometheus.NewRegistry()
	var r prometheus.Registerer = reg
	if runID != "" {
		r = prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, reg)
	}
	f := promauto.With(r)
	return &Recorder{
		reg: reg,
		rows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revisions_loaded_total",
			Help:      "Edit records loaded from the input batch.",
		}),
		groups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_total",
			Help:      "Groups visited by the sliding-window detector.",
		}),
		skipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_skipped_total",
			Help:      "Groups with at most one scored edit.",
		}),
		windows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "windows_evaluated_total",
			Help:      "Sliding windows compared against their group baseline.",
		}),
		anomalies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Anomaly events written to the log.",
		}, []string{"column", "metric"}),
	}
}

func (r *Recorder) AddRows(n int) {
	if r == nil {
		return
	}
	r.rows.Add(float64(n))
}

func (r *Recorder) IncGroups() {
	if r == nil {
		return
	}
	r.groups.Inc()
}

func (r *Recorder) IncSkipped() {
	if r == nil {
		return
	}
	r.skipped.Inc()
}

func (r *Recorder) AddWindows(n int) {
	if r == nil {
		return
	}
	r.windows.Add(float64(n))
}

func (r *Recorder) IncAnomaly(column, metric string) {
	if r == nil {
		return
	}
	r.anomalies.WithLabelValues(column, metric).Inc()
}

// WriteTextfile writes all series to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
