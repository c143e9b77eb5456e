package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/cross-edits-cli/internal/config"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Run flags (override config if set)
	flagPath        string
	flagStart       int
	flagStop        int
	flagKey         string
	flagTasks       []string
	flagThreshold   float64
	flagWindow      int
	flagSortGroups  bool
	flagMetricsFile string
	flagLogDir      string
	flagGraphsDir   string

	// Loaded configuration
	cfg *cfgpkg.Global

	// runID tags the structured log and metrics of one invocation
	runID string
)

// usageError marks invalid invocations; they exit with status 2.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

var rootCmd = &cobra.Command{
	Use:   "cross-edits --path <pattern with ##> --start <n> --stop <n>",
	Short: "Cross-edit analysis: ORES score statistics and sliding-window anomaly detection",
	Long: `cross-edits loads a numbered batch of edit-record files (JSON lines or CSV), prints aggregate
statistics of the ORES damaging and good-faith scores, and scans every article or author for
windows of edits whose scores deviate from that group's baseline by more than a threshold.
Anomalies are written to a plain-text log; charts are written as PNG files.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			applyFlagOverrides(cmd.Root().Flags(), cfg)
		}
		lc := cfg.Log
		if debug {
			lc.Level = "debug"
		}
		if err := cfgpkg.InitLogger(lc); err != nil {
			return err
		}
		runID = uuid.NewString()
		zap.ReplaceGlobals(zap.L().With(zap.String("run_id", runID)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPath == "" {
			_ = cmd.Usage()
			return usagef("--path is required")
		}
		return runAnalysis(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "✗ Error:", err)
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		_ = cmd.Usage()
		return &usageError{err: err}
	})

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.cross-edits/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	f := rootCmd.Flags()
	f.StringVar(&flagPath, "path", "", "data file pattern; every ## is replaced by the file index (required)")
	f.IntVar(&flagStart, "start", 0, "first file index (inclusive)")
	f.IntVar(&flagStop, "stop", 1, "last file index (exclusive)")
	f.StringVar(&flagKey, "key", "", "group edits by article or author (overrides config)")
	f.StringSliceVar(&flagTasks, "tasks", nil, "per-group tasks to run: window, stats, evolution (overrides config)")
	f.Float64Var(&flagThreshold, "threshold", 0, "anomaly threshold in percent (overrides config)")
	f.IntVar(&flagWindow, "window", 0, "sliding window size (overrides config)")
	f.BoolVar(&flagSortGroups, "sort-groups", false, "visit groups in sorted order instead of first appearance")
	f.StringVar(&flagMetricsFile, "metrics-file", "", "write run counters in Prometheus textfile format")
	f.StringVar(&flagLogDir, "log-dir", "", "anomaly log root directory (overrides config)")
	f.StringVar(&flagGraphsDir, "graphs-dir", "", "chart root directory (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here; PersistentPreRunE retries and reports the error
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	applyFlagOverrides(rootCmd.Flags(), cfg)
}

// applyFlagOverrides copies explicitly set run flags onto c.
func applyFlagOverrides(f *pflag.FlagSet, c *cfgpkg.Global) {
	if f.Changed("key") {
		c.Key = flagKey
	}
	if f.Changed("tasks") {
		c.Tasks = append([]string(nil), flagTasks...)
	}
	if f.Changed("threshold") {
		c.Threshold = flagThreshold
	}
	if f.Changed("window") {
		c.WindowSize = flagWindow
	}
	if f.Changed("sort-groups") {
		c.SortGroups = flagSortGroups
	}
	if f.Changed("metrics-file") {
		c.MetricsFile = flagMetricsFile
	}
	if f.Changed("log-dir") {
		c.LogDir = flagLogDir
	}
	if f.Changed("graphs-dir") {
		c.GraphsDir = flagGraphsDir
	}
}
