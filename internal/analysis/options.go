// Package analysis groups edit records by a key column and runs per-group reports and the
// sliding-window anomaly detector over each group.
package analysis

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/cross-edits-cli/internal/dataset"
	"github.com/KaramelBytes/cross-edits-cli/internal/utils"
)

// Config controls grouping, statistics and anomaly detection. It is passed by value and
// never modified by the engine or its operations.
type Config struct {
	// KeyName labels the grouping in paths and messages (article, author).
	KeyName string
	// KeyColumn is the column rows are partitioned on (title, author).
	KeyColumn string
	// Columns are the tracked score columns, in report order.
	Columns []string
	// PrimaryColumn decides which rows count as scored (non-zero).
	PrimaryColumn string
	// TimestampColumn orders rows within a group.
	TimestampColumn string
	// Threshold is the percent deviation a window must exceed to be an anomaly.
	Threshold float64
	// WindowSize is the number of rows per window; groups smaller than this use 1.
	WindowSize int
	// Multipliers maps a column to +1 (higher is worse) or -1 (lower is worse).
	// Columns not listed use +1.
	Multipliers map[string]float64
	// Histogram bin counts.
	AggregateBins    int
	GroupBins        int
	DistributionBins int
	// GraphsDir is the root directory for chart images.
	GraphsDir string
	// SortGroups iterates keys in sorted order instead of first appearance.
	SortGroups bool
}

// DefaultConfig returns the article analysis defaults.
func DefaultConfig() Config {
	return Config{
		KeyName:         "article",
		KeyColumn:       dataset.ColumnTitle,
		Columns:         []string{dataset.ColumnDamaging, dataset.ColumnGoodFaith},
		PrimaryColumn:   dataset.ColumnDamaging,
		TimestampColumn: dataset.ColumnTimestamp,
		Threshold:       50,
		WindowSize:      10,
		Multipliers: map[string]float64{
			dataset.ColumnDamaging:  1,
			dataset.ColumnGoodFaith: -1,
		},
		AggregateBins:    20,
		GroupBins:        20,
		DistributionBins: 50,
		GraphsDir:        "graphs",
	}
}

func (c Config) multiplier(col string) float64 {
	if m, ok := c.Multipliers[col]; ok && m != 0 {
		return m
	}
	return 1
}

func (c Config) clone() Config {
	c.Columns = append([]string(nil), c.Columns...)
	m := make(map[string]float64, len(c.Multipliers))
	for k, v := range c.Multipliers {
		m[k] = v
	}
	c.Multipliers = m
	return c
}

// AggregateChartPath returns <graphs>/aggregate/<name>.png.
func (c Config) AggregateChartPath(name string) string {
	return filepath.Join(c.GraphsDir, "aggregate", name+".png")
}

// GroupChartPath returns <graphs>/<key name>/<prefix>_<group key>.png with "/" removed from the key.
func (c Config) GroupChartPath(prefix, groupKey string) string {
	return filepath.Join(c.GraphsDir, c.KeyName, fmt.Sprintf("%s_%s.png", prefix, utils.SanitizeFileName(groupKey)))
}
