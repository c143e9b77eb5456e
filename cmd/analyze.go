package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/cross-edits-cli/internal/analysis"
	"github.com/KaramelBytes/cross-edits-cli/internal/anomaly"
	"github.com/KaramelBytes/cross-edits-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/cross-edits-cli/internal/config"
	"github.com/KaramelBytes/cross-edits-cli/internal/dataset"
	"github.com/KaramelBytes/cross-edits-cli/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const unsupportedFormatMsg = "Unrecognizable data file format. Data file must be in .csv or .json format!"

// Per-group tasks selectable with --tasks.
const (
	taskWindow    = "window"
	taskStats     = "stats"
	taskEvolution = "evolution"
)

// previewKeys is how many keys the author flow lists before per-group work.
const previewKeys = 5

// newRenderer is swapped in tests.
var newRenderer = func() analysis.Renderer { return chart.NewPNG() }

func runAnalysis(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	keyCol, err := cfgpkg.KeyColumn(cfg.Key)
	if err != nil {
		return &usageError{err: err}
	}
	tasks, err := parseTasks(cfg.Tasks)
	if err != nil {
		return &usageError{err: err}
	}
	format, err := dataset.FormatFromPath(flagPath)
	if err != nil {
		fmt.Fprintln(out, unsupportedFormatMsg)
		return fmt.Errorf("%s: %w", flagPath, err)
	}

	loader := dataset.NewLoader(format, out)
	if err := loader.Load(flagPath, flagStart, flagStop); err != nil {
		return fmt.Errorf("load data: %w", err)
	}
	table := loader.Data()

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New(runID)
	}
	rec.AddRows(table.Len())

	if cfg.Key == "author" && cfg.FallbackKeyColumn != "" {
		table = dataset.FillMissingKey(table, keyCol, cfg.FallbackKeyColumn)
	}

	acfg := analysisConfig(cfg, keyCol)
	renderer := newRenderer()

	fmt.Fprintf(out, "Now displaying aggregate statistics from %d to %d\n", flagStart, flagStop)
	if _, err := analysis.AggregateReport(table, acfg, renderer, out); err != nil {
		return fmt.Errorf("aggregate statistics: %w", err)
	}

	engine := analysis.NewEngine(table, acfg)
	if cfg.Key == "author" {
		printKeyPreview(out, cfg.Key, engine.Keys())
	}

	var (
		ops    []analysis.Operation
		window *analysis.SlidingWindow
		alog   *anomaly.FileLog
	)
	for _, t := range tasks {
		switch t {
		case taskStats:
			ops = append(ops, analysis.NewGroupStats(acfg, renderer, out))
		case taskEvolution:
			ops = append(ops, analysis.NewEvolution(acfg, renderer))
		case taskWindow:
			path := anomaly.LogPath(cfg.LogDir, cfg.Key, cfg.Threshold, flagStart, flagStop)
			alog, err = anomaly.OpenFileLog(path)
			if err != nil {
				return fmt.Errorf("open anomaly log: %w", err)
			}
			defer alog.Close()
			window = analysis.NewSlidingWindow(acfg, alog, rec)
			ops = append(ops, window)
		}
	}
	dist := analysis.NewDistribution(acfg, renderer)
	ops = append(ops, dist)

	if err := engine.IteratePerKey(ops...); err != nil {
		return fmt.Errorf("per-%s analysis: %w", cfg.Key, err)
	}
	if err := dist.Render(); err != nil {
		return err
	}

	if alog != nil {
		if err := alog.Close(); err != nil {
			return fmt.Errorf("close anomaly log: %w", err)
		}
		fmt.Fprintf(out, "✓ %d anomalies written to %s\n", window.Events(), alog.Path())
	}
	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Metrics written to %s\n", cfg.MetricsFile)
	}

	fields := []zap.Field{
		zap.String("key", cfg.Key),
		zap.Int("rows", table.Len()),
		zap.Int("groups", engine.GroupCount()),
		zap.Strings("tasks", tasks),
	}
	if window != nil {
		fields = append(fields, zap.Int("windows", window.Windows()), zap.Int("anomalies", window.Events()))
	}
	zap.L().Info("analysis complete", fields...)
	return nil
}

// parseTasks normalizes the task list, dropping duplicates and keeping the given order.
func parseTasks(in []string) ([]string, error) {
	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, raw := range in {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" || seen[t] {
			continue
		}
		switch t {
		case taskWindow, taskStats, taskEvolution:
		default:
			return nil, errors.New("unknown task: " + raw + " (use window, stats or evolution)")
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

func analysisConfig(c *cfgpkg.Global, keyCol string) analysis.Config {
	a := analysis.DefaultConfig()
	a.KeyName = c.Key
	a.KeyColumn = keyCol
	if len(c.Columns) > 0 {
		a.Columns = append([]string(nil), c.Columns...)
	}
	if c.PrimaryColumn != "" {
		a.PrimaryColumn = c.PrimaryColumn
	}
	if c.TimestampColumn != "" {
		a.TimestampColumn = c.TimestampColumn
	}
	if len(c.Multipliers) > 0 {
		a.Multipliers = c.Multipliers
	}
	a.Threshold = c.Threshold
	a.WindowSize = c.WindowSize
	if c.AggregateBins > 0 {
		a.AggregateBins = c.AggregateBins
	}
	if c.GroupBins > 0 {
		a.GroupBins = c.GroupBins
	}
	if c.DistributionBins > 0 {
		a.DistributionBins = c.DistributionBins
	}
	if c.GraphsDir != "" {
		a.GraphsDir = c.GraphsDir
	}
	a.SortGroups = c.SortGroups
	return a
}

func printKeyPreview(out io.Writer, key string, keys []string) {
	n := previewKeys
	if len(keys) < n {
		n = len(keys)
	}
	fmt.Fprintf(out, "There are %d unique %ss. The first %d are:\n", len(keys), key, n)
	for _, k := range keys[:n] {
		fmt.Fprintln(out, k)
	}
}
