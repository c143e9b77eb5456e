package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New("")
	r.AddRows(12)
	r.IncGroups()
	r.IncGroups()
	r.IncSkipped()
	r.AddWindows(7)
	r.IncAnomaly("ores_damaging", "mean")
	r.IncAnomaly("ores_damaging", "mean")
	r.IncAnomaly("ores_goodfaith", "median")

	assert.Equal(t, 12.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.groups))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.windows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.anomalies.WithLabelValues("ores_damaging", "mean")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.anomalies.WithLabelValues("ores_goodfaith", "median")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.AddRows(1)
	r.IncGroups()
	r.IncSkipped()
	r.AddWindows(1)
	r.IncAnomaly("c", "m")
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile_IncludesRunID(t *testing.T) {
	r := New("run-123")
	r.AddRows(3)
	path := filepath.Join(t.TempDir(), "cross_edits.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(b)
	assert.True(t, strings.Contains(body, `cross_edits_revisions_loaded_total{run_id="run-123"} 3`), body)
}
