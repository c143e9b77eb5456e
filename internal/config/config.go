package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/cross-edits-cli/internal/utils"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned for a grouping key other than article or author.
var ErrUnknownKey = eris.New("unknown grouping key")

// keyColumns maps a grouping key name to the column it partitions on.
var keyColumns = map[string]string{
	"article": "title",
	"author":  "author",
}

// Global configuration structure.
type Global struct {
	Key               string             `mapstructure:"key" yaml:"key"`
	Threshold         float64            `mapstructure:"threshold" yaml:"threshold"`
	WindowSize        int                `mapstructure:"window_size" yaml:"window_size"`
	Columns           []string           `mapstructure:"columns" yaml:"columns"`
	PrimaryColumn     string             `mapstructure:"primary_column" yaml:"primary_column"`
	TimestampColumn   string             `mapstructure:"timestamp_column" yaml:"timestamp_column"`
	FallbackKeyColumn string             `mapstructure:"fallback_key_column" yaml:"fallback_key_column"`
	Multipliers       map[string]float64 `mapstructure:"multipliers" yaml:"multipliers"`

	// Output locations
	LogDir      string `mapstructure:"log_dir" yaml:"log_dir"`
	GraphsDir   string `mapstructure:"graphs_dir" yaml:"graphs_dir"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Histogram bins
	AggregateBins    int `mapstructure:"aggregate_bins" yaml:"aggregate_bins"`
	GroupBins        int `mapstructure:"group_bins" yaml:"group_bins"`
	DistributionBins int `mapstructure:"distribution_bins" yaml:"distribution_bins"`

	Tasks      []string  `mapstructure:"tasks" yaml:"tasks"`
	SortGroups bool      `mapstructure:"sort_groups" yaml:"sort_groups"`
	Log        LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig configures the global zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// KeyColumn returns the column a grouping key partitions on.
func KeyColumn(key string) (string, error) {
	col, ok := keyColumns[key]
	if !ok {
		return "", eris.Wrapf(ErrUnknownKey, "%q (use %s)", key, strings.Join(KeyNames(), " or "))
	}
	return col, nil
}

// KeyNames returns the supported grouping keys.
func KeyNames() []string {
	names := make([]string, 0, len(keyColumns))
	for k := range keyColumns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		Key:               "article",
		Threshold:         50,
		WindowSize:        10,
		Columns:           []string{"ores_damaging", "ores_goodfaith"},
		PrimaryColumn:     "ores_damaging",
		TimestampColumn:   "timestamp",
		FallbackKeyColumn: "ip",
		Multipliers:       map[string]float64{"ores_damaging": 1, "ores_goodfaith": -1},
		LogDir:            "./log",
		GraphsDir:         "./graphs",
		AggregateBins:     20,
		GroupBins:         20,
		DistributionBins:  50,
		Tasks:             []string{"window"},
		Log:               LogConfig{Level: "info", Format: "console"},
	}
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "config: resolve home dir")
	}
	return filepath.Join(home, ".cross-edits"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cross-edits/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return eris.Wrap(err, "config: mkdir")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return eris.Wrap(err, "config: marshal yaml")
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CROSSEDITS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("key", d.Key)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("window_size", d.WindowSize)
	v.SetDefault("columns", d.Columns)
	v.SetDefault("primary_column", d.PrimaryColumn)
	v.SetDefault("timestamp_column", d.TimestampColumn)
	v.SetDefault("fallback_key_column", d.FallbackKeyColumn)
	v.SetDefault("multipliers", d.Multipliers)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("graphs_dir", d.GraphsDir)
	v.SetDefault("metrics_file", "")
	v.SetDefault("aggregate_bins", d.AggregateBins)
	v.SetDefault("group_bins", d.GroupBins)
	v.SetDefault("distribution_bins", d.DistributionBins)
	v.SetDefault("tasks", d.Tasks)
	v.SetDefault("sort_groups", false)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && os.IsNotExist(err)) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &c, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
