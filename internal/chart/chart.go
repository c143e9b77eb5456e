// Package chart renders histogram grids and time-series line charts to PNG files.
package chart

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/cross-edits-cli/internal/utils"
	"github.com/rotisserie/eris"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Histogram is one histogram panel.
type Histogram struct {
	Title  string
	Values []float64
	Bins   int
}

// Series is one line-chart panel of values over time.
type Series struct {
	Title  string
	Times  []time.Time
	Values []float64
}

// PNG draws figures as PNG images. Width and Height size one row of panels.
type PNG struct {
	Width  vg.Length
	Height vg.Length
}

// NewPNG returns a renderer with an 18.5x10.5 inch row.
func NewPNG() *PNG {
	return &PNG{Width: 18.5 * vg.Inch, Height: 10.5 * vg.Inch}
}

// Histograms draws grid[row][col] histograms into one image at path.
func (p *PNG) Histograms(path string, grid [][]Histogram) error {
	plots := make([][]*plot.Plot, len(grid))
	for i, row := range grid {
		plots[i] = make([]*plot.Plot, len(row))
		for j, h := range row {
			pl, err := histogramPlot(h)
			if err != nil {
				return err
			}
			plots[i][j] = pl
		}
	}
	return p.save(path, plots)
}

// Lines draws one line chart per series, side by side, into one image at path.
func (p *PNG) Lines(path string, series []Series) error {
	row := make([]*plot.Plot, len(series))
	for i, s := range series {
		pl, err := linePlot(s)
		if err != nil {
			return err
		}
		row[i] = pl
	}
	return p.save(path, [][]*plot.Plot{row})
}

func histogramPlot(h Histogram) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = h.Title
	vals := make(plotter.Values, 0, len(h.Values))
	for _, v := range h.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return pl, nil
	}
	hist, err := plotter.NewHist(vals, h.Bins)
	if err != nil {
		return nil, eris.Wrapf(err, "chart: histogram %q", h.Title)
	}
	pl.Add(hist)
	return pl, nil
}

func linePlot(s Series) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = s.Title
	pl.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	pts := make(plotter.XYs, 0, len(s.Values))
	for i, v := range s.Values {
		if i >= len(s.Times) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(s.Times[i].Unix()), Y: v})
	}
	if len(pts) == 0 {
		return pl, nil
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, eris.Wrapf(err, "chart: line %q", s.Title)
	}
	pl.Add(line)
	return pl, nil
}

func (p *PNG) save(path string, plots [][]*plot.Plot) error {
	rows := len(plots)
	if rows == 0 || len(plots[0]) == 0 {
		return eris.Errorf("chart: nothing to draw for %s", path)
	}
	cols := len(plots[0])
	img := vgimg.New(p.Width, p.Height*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		for j := range plots[i] {
			if plots[i][j] != nil {
				plots[i][j].Draw(canvases[i][j])
			}
		}
	}

	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return eris.Wrapf(err, "chart: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "chart: create %s", path)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "chart: encode %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "chart: close %s", path)
	}
	return nil
}
