package analysis

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/KaramelBytes/cross-edits-cli/internal/chart"
	"github.com/KaramelBytes/cross-edits-cli/internal/dataset"
	"github.com/rotisserie/eris"
)

// Renderer draws the figures produced by the reporters.
type Renderer interface {
	Histograms(path string, grid [][]chart.Histogram) error
	Lines(path string, series []chart.Series) error
}

// AggregateReport prints whole-table statistics for every tracked column and renders
// their histograms side by side.
func AggregateReport(t *dataset.Table, cfg Config, r Renderer, out io.Writer) ([]Summary, error) {
	var (
		sums  []Summary
		panel []chart.Histogram
	)
	for _, col := range cfg.Columns {
		vals := t.Floats(col)
		s := Summarize(vals, t.Len())
		sums = append(sums, s)
		fmt.Fprintf(out, "The mean of %s is %s\n", col, num(s.Mean))
		fmt.Fprintf(out, "The median of %s is %s\n", col, num(s.Median))
		fmt.Fprintf(out, "The std of %s is %s\n", col, num(s.Std))
		fmt.Fprintf(out, "The count of zeros of %s is %d\n", col, s.Zeros)
		fmt.Fprintf(out, "The percentage of zeros of %s is %s%%\n", col, num(s.ZeroPercent()))
		panel = append(panel, chart.Histogram{
			Title:  "Distribution of " + col,
			Values: vals,
			Bins:   cfg.AggregateBins,
		})
	}
	if len(panel) == 0 {
		return sums, nil
	}
	if err := r.Histograms(cfg.AggregateChartPath("Distribution_Agg"), [][]chart.Histogram{panel}); err != nil {
		return nil, eris.Wrap(err, "aggregate report")
	}
	return sums, nil
}

// GroupStats prints each group's statistics and renders a per-group histogram figure.
type GroupStats struct {
	cfg Config
	r   Renderer
	out io.Writer
}

func NewGroupStats(cfg Config, r Renderer, out io.Writer) *GroupStats {
	return &GroupStats{cfg: cfg.clone(), r: r, out: out}
}

func (gs *GroupStats) ProcessGroup(g Group) error {
	fmt.Fprintf(gs.out, "Now displaying statistics for %s %s\n", gs.cfg.KeyName, g.Key)
	var panel []chart.Histogram
	for _, col := range gs.cfg.Columns {
		vals := g.Rows.Floats(col)
		s := Summarize(vals, g.Rows.Len())
		fmt.Fprintf(gs.out, "The mean of %s is %s\n", col, num(s.Mean))
		fmt.Fprintf(gs.out, "The median of %s is %s\n", col, num(s.Median))
		fmt.Fprintf(gs.out, "The std of %s is %s\n", col, num(s.Std))
		panel = append(panel, chart.Histogram{
			Title:  fmt.Sprintf("Distribution of %s for %s %s", col, gs.cfg.KeyName, g.Key),
			Values: vals,
			Bins:   gs.cfg.GroupBins,
		})
	}
	if len(panel) == 0 {
		return nil
	}
	return gs.r.Histograms(gs.cfg.GroupChartPath("Distribution", g.Key), [][]chart.Histogram{panel})
}

// Evolution plots each tracked column of a group's scored edits against time.
// Groups with fewer than two scored edits are skipped.
type Evolution struct {
	cfg Config
	r   Renderer
}

func NewEvolution(cfg Config, r Renderer) *Evolution {
	return &Evolution{cfg: cfg.clone(), r: r}
}

func (ev *Evolution) ProcessGroup(g Group) error {
	scored := g.Rows.NonZero(ev.cfg.PrimaryColumn)
	if scored.Len() <= 1 {
		return nil
	}
	sorted := scored.SortByTime(ev.cfg.TimestampColumn)
	var (
		times []time.Time
		keep  []dataset.Row
	)
	for _, r := range sorted.Rows {
		at, ok := r.Time(ev.cfg.TimestampColumn)
		if !ok {
			continue
		}
		times = append(times, at)
		keep = append(keep, r)
	}
	if len(keep) <= 1 {
		return nil
	}
	series := make([]chart.Series, 0, len(ev.cfg.Columns))
	for _, col := range ev.cfg.Columns {
		vals := make([]float64, len(keep))
		for i, r := range keep {
			v, ok := r.Float(col)
			if !ok {
				v = math.NaN()
			}
			vals[i] = v
		}
		series = append(series, chart.Series{
			Title:  fmt.Sprintf("Change of %s for %s %s", col, ev.cfg.KeyName, g.Key),
			Times:  times,
			Values: vals,
		})
	}
	return ev.r.Lines(ev.cfg.GroupChartPath("Evolution", g.Key), series)
}

// Distribution collects each group's non-zero mean and median per tracked column so the
// spread across groups can be rendered once iteration is done.
type Distribution struct {
	cfg     Config
	r       Renderer
	groups  []string
	means   map[string][]float64
	medians map[string][]float64
}

func NewDistribution(cfg Config, r Renderer) *Distribution {
	return &Distribution{
		cfg:     cfg.clone(),
		r:       r,
		means:   map[string][]float64{},
		medians: map[string][]float64{},
	}
}

func (d *Distribution) ProcessGroup(g Group) error {
	scored := g.Rows.NonZero(d.cfg.PrimaryColumn)
	if scored.Len() == 0 {
		return nil
	}
	d.groups = append(d.groups, g.Key)
	for _, col := range d.cfg.Columns {
		vals := scored.Floats(col)
		d.means[col] = append(d.means[col], Mean(vals))
		d.medians[col] = append(d.medians[col], Median(vals))
	}
	return nil
}

// Groups returns the keys of groups that had at least one scored edit.
func (d *Distribution) Groups() []string { return d.groups }

// Means returns the collected per-group means of col.
func (d *Distribution) Means(col string) []float64 { return d.means[col] }

// Medians returns the collected per-group medians of col.
func (d *Distribution) Medians(col string) []float64 { return d.medians[col] }

// Render draws a 2xN grid: means on the first row, medians on the second.
func (d *Distribution) Render() error {
	if len(d.cfg.Columns) == 0 {
		return nil
	}
	meanRow := make([]chart.Histogram, 0, len(d.cfg.Columns))
	medianRow := make([]chart.Histogram, 0, len(d.cfg.Columns))
	for _, col := range d.cfg.Columns {
		meanRow = append(meanRow, chart.Histogram{
			Title:  fmt.Sprintf("Mean of %s across all %ss", col, d.cfg.KeyName),
			Values: d.means[col],
			Bins:   d.cfg.DistributionBins,
		})
		medianRow = append(medianRow, chart.Histogram{
			Title:  fmt.Sprintf("Median of %s across all %ss", col, d.cfg.KeyName),
			Values: d.medians[col],
			Bins:   d.cfg.DistributionBins,
		})
	}
	name := fmt.Sprintf("Mean_median_all_%ss_all_columns_no_zero", d.cfg.KeyName)
	if err := d.r.Histograms(d.cfg.AggregateChartPath(name), [][]chart.Histogram{meanRow, medianRow}); err != nil {
		return eris.Wrap(err, "distribution across groups")
	}
	return nil
}

// num formats a statistic with two decimals, printing undefined values as nan.
func num(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
