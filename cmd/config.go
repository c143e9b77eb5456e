package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/cross-edits-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cross-edits configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "key: %s\n", cfg.Key)
		fmt.Fprintf(out, "threshold: %s\n", strconv.FormatFloat(cfg.Threshold, 'f', -1, 64))
		fmt.Fprintf(out, "window_size: %d\n", cfg.WindowSize)
		fmt.Fprintf(out, "columns: %s\n", strings.Join(cfg.Columns, ","))
		fmt.Fprintf(out, "primary_column: %s\n", cfg.PrimaryColumn)
		fmt.Fprintf(out, "timestamp_column: %s\n", cfg.TimestampColumn)
		if cfg.FallbackKeyColumn != "" {
			fmt.Fprintf(out, "fallback_key_column: %s\n", cfg.FallbackKeyColumn)
		}
		fmt.Fprintf(out, "log_dir: %s\n", cfg.LogDir)
		fmt.Fprintf(out, "graphs_dir: %s\n", cfg.GraphsDir)
		if cfg.MetricsFile != "" {
			fmt.Fprintf(out, "metrics_file: %s\n", cfg.MetricsFile)
		}
		fmt.Fprintf(out, "bins: aggregate=%d group=%d distribution=%d\n", cfg.AggregateBins, cfg.GroupBins, cfg.DistributionBins)
		fmt.Fprintf(out, "tasks: %s\n", strings.Join(cfg.Tasks, ","))
		fmt.Fprintf(out, "sort_groups: %t\n", cfg.SortGroups)
		fmt.Fprintf(out, "log: level=%s format=%s\n", cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "key":
			if _, err := cfgpkg.KeyColumn(val); err != nil {
				return err
			}
			cfg.Key = val
		case "threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for threshold: %w", err)
			}
			cfg.Threshold = f
		case "window_size":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for window_size: %v", val)
			}
			cfg.WindowSize = i
		case "columns":
			cfg.Columns = splitList(val)
		case "primary_column":
			cfg.PrimaryColumn = val
		case "timestamp_column":
			cfg.TimestampColumn = val
		case "fallback_key_column":
			cfg.FallbackKeyColumn = val
		case "log_dir":
			cfg.LogDir = val
		case "graphs_dir":
			cfg.GraphsDir = val
		case "metrics_file":
			cfg.MetricsFile = val
		case "aggregate_bins", "group_bins", "distribution_bins":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for %s: %v", key, val)
			}
			switch key {
			case "aggregate_bins":
				cfg.AggregateBins = i
			case "group_bins":
				cfg.GroupBins = i
			default:
				cfg.DistributionBins = i
			}
		case "tasks":
			tasks, err := parseTasks(splitList(val))
			if err != nil {
				return err
			}
			cfg.Tasks = tasks
		case "sort_groups":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for sort_groups: %w", err)
			}
			cfg.SortGroups = b
		case "log.level":
			cfg.Log.Level = val
		case "log.format":
			switch val {
			case "console", "json":
				cfg.Log.Format = val
			default:
				return fmt.Errorf("invalid log.format: %s (use console or json)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
