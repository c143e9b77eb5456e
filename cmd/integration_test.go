package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/cross-edits-cli/internal/analysis"
	"github.com/KaramelBytes/cross-edits-cli/internal/chart"
	"github.com/spf13/pflag"
)

type recordingRenderer struct{ paths []string }

func (r *recordingRenderer) Histograms(path string, _ [][]chart.Histogram) error {
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingRenderer) Lines(path string, _ []chart.Series) error {
	r.paths = append(r.paths, path)
	return nil
}

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags() {
	for _, fs := range []*pflag.FlagSet{rootCmd.Flags(), rootCmd.PersistentFlags()} {
		fs.VisitAll(func(fl *pflag.Flag) {
			if sv, ok := fl.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = fl.Value.Set(fl.DefValue)
			}
			fl.Changed = false
		})
	}
	cfg = nil
}

// execute runs the root command with args and returns its stdout and error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func useRecordingRenderer(t *testing.T) *recordingRenderer {
	t.Helper()
	r := &recordingRenderer{}
	old := newRenderer
	newRenderer = func() analysis.Renderer { return r }
	t.Cleanup(func() { newRenderer = old })
	return r
}

func writeBatch(t *testing.T, dir string, files ...string) string {
	t.Helper()
	for i, body := range files {
		name := filepath.Join(dir, "edits_0"+string(rune('0'+i))+".json")
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "edits_##.json")
}

const batch0 = `{"title":"A","author":"Alice","ip":"","timestamp":"2020-06-08T12:00:00Z","ores_damaging":0.1,"ores_goodfaith":0.7}
{"title":"B","author":"","ip":"10.0.0.1","timestamp":"2020-06-08T12:00:30Z","ores_damaging":0.5,"ores_goodfaith":0.5}
{"title":"A","author":"Alice","ip":"","timestamp":"2020-06-08T12:01:00Z","ores_damaging":0.1,"ores_goodfaith":0.7}
`

const batch1 = `{"title":"A","author":"Bob","ip":"","timestamp":"2020-06-08T12:02:00Z","ores_damaging":0.4,"ores_goodfaith":0.7}
{"title":"C","author":null,"ip":"10.0.0.2","timestamp":"2020-06-08T12:03:00Z","ores_damaging":0,"ores_goodfaith":0.9}
`

func TestCLI_WindowWritesAnomalyLog(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	useRecordingRenderer(t)
	path := writeBatch(t, home, batch0, batch1)
	logDir := filepath.Join(home, "log")

	out := runCmd(t, "--path", path, "--start", "0", "--stop", "2", "--log-dir", logDir, "--graphs-dir", filepath.Join(home, "graphs"))

	if !strings.Contains(out, "5 revisions loaded\n") {
		t.Fatalf("missing row count in output:\n%s", out)
	}
	if !strings.Contains(out, "Now displaying aggregate statistics from 0 to 2\n") {
		t.Fatalf("missing aggregate banner:\n%s", out)
	}
	if !strings.Contains(out, "The percentage of zeros of ores_damaging is 20.00%\n") {
		t.Fatalf("missing zero percentage:\n%s", out)
	}

	logPath := filepath.Join(logDir, "article", "sliding_window_anomaly_50_start_0_end_2.txt")
	b, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read anomaly log: %v", err)
	}
	want := "Anomaly of mean of ores_damaging detected for A during period from 2020-06-08 12:02:00 to 2020-06-08 12:02:00, with a 100.00 percent difference from baseline.\n" +
		"Anomaly of median of ores_damaging detected for A during period from 2020-06-08 12:02:00 to 2020-06-08 12:02:00, with a 300.00 percent difference from baseline.\n"
	if string(b) != want {
		t.Fatalf("anomaly log mismatch:\n got: %q\nwant: %q", string(b), want)
	}
	if !strings.Contains(out, "✓ 2 anomalies written to "+logPath) {
		t.Fatalf("missing summary line:\n%s", out)
	}

	// a second run truncates instead of appending
	runCmd(t, "--path", path, "--start", "0", "--stop", "2", "--log-dir", logDir)
	b2, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reread anomaly log: %v", err)
	}
	if string(b2) != want {
		t.Fatalf("expected truncated log, got %q", string(b2))
	}
}

func TestCLI_AuthorFallsBackToIP(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	r := useRecordingRenderer(t)
	path := writeBatch(t, home, batch0, batch1)
	graphs := filepath.Join(home, "graphs")

	out := runCmd(t, "--path", path, "--start", "0", "--stop", "2", "--key", "author",
		"--tasks", "stats,evolution", "--graphs-dir", graphs, "--log-dir", filepath.Join(home, "log"))

	if !strings.Contains(out, "There are 4 unique authors. The first 4 are:\nAlice\n10.0.0.1\nBob\n10.0.0.2\n") {
		t.Fatalf("unexpected key preview:\n%s", out)
	}
	if !strings.Contains(out, "Now displaying statistics for author 10.0.0.1\n") {
		t.Fatalf("missing per-group banner:\n%s", out)
	}
	wantChart := filepath.Join(graphs, "author", "Distribution_10.0.0.1.png")
	found := false
	for _, p := range r.paths {
		if p == wantChart {
			found = true
		}
	}
	if !found {
		t.Fatalf("chart %s not rendered; got %v", wantChart, r.paths)
	}
	// window was not requested
	if _, err := os.Stat(filepath.Join(home, "log")); !os.IsNotExist(err) {
		t.Fatalf("anomaly log dir should not exist, stat err=%v", err)
	}
	last := r.paths[len(r.paths)-1]
	if last != filepath.Join(graphs, "aggregate", "Mean_median_all_authors_all_columns_no_zero.png") {
		t.Fatalf("distribution chart should be rendered last, got %s", last)
	}
}

func TestCLI_RendersPNGCharts(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeBatch(t, home, batch0, batch1)
	graphs := filepath.Join(home, "graphs")

	runCmd(t, "--path", path, "--start", "0", "--stop", "2", "--tasks", "evolution",
		"--graphs-dir", graphs, "--log-dir", filepath.Join(home, "log"))

	for _, p := range []string{
		filepath.Join(graphs, "aggregate", "Distribution_Agg.png"),
		filepath.Join(graphs, "aggregate", "Mean_median_all_articles_all_columns_no_zero.png"),
		filepath.Join(graphs, "article", "Evolution_A.png"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected chart %s: %v", p, err)
		}
	}
}

func TestCLI_UnsupportedExtension(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	useRecordingRenderer(t)

	out, err := execute(t, "--path", "edits_##.xml", "--start", "0", "--stop", "1")
	if err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out, unsupportedFormatMsg) {
		t.Fatalf("missing format message:\n%s", out)
	}
}

func TestCLI_UsageErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	useRecordingRenderer(t)

	cases := [][]string{
		{"--start", "0", "--stop", "1"},
		{"--path", "x_##.json", "--start", "zero"},
		{"--path", "x_##.json", "--bogus"},
		{"--path", "x_##.json", "--key", "editor"},
		{"--path", "x_##.json", "--tasks", "window,cluster"},
	}
	for _, args := range cases {
		_, err := execute(t, args...)
		if err == nil {
			t.Fatalf("%v: expected error", args)
		}
		if code := exitCode(err); code != 2 {
			t.Fatalf("%v: exit code = %d, want 2 (err: %v)", args, code, err)
		}
	}
}

func TestCLI_MissingFileAborts(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	useRecordingRenderer(t)
	path := writeBatch(t, home, batch0)

	_, err := execute(t, "--path", path, "--start", "0", "--stop", "2", "--log-dir", filepath.Join(home, "log"))
	if err == nil {
		t.Fatalf("expected error for missing second file")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestCLI_MetricsFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	useRecordingRenderer(t)
	path := writeBatch(t, home, batch0, batch1)
	prom := filepath.Join(home, "cross_edits.prom")

	runCmd(t, "--path", path, "--start", "0", "--stop", "2", "--metrics-file", prom, "--log-dir", filepath.Join(home, "log"))

	b, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	body := string(b)
	for _, want := range []string{"cross_edits_revisions_loaded_total", "cross_edits_groups_total", "run_id="} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	runCmd(t, "config", "set", "threshold", "35")
	runCmd(t, "config", "set", "tasks", "window, stats")
	if _, err := execute(t, "config", "set", "key", "editor"); err == nil {
		t.Fatalf("expected error for invalid key")
	}
	if _, err := os.Stat(filepath.Join(home, ".cross-edits", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}

	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "threshold: 35\n") || !strings.Contains(out, "tasks: window,stats\n") {
		t.Fatalf("unexpected config show output:\n%s", out)
	}
}
