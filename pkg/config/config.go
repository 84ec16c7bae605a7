// Package config loads and writes heron.yml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/simonhull/firebird-suite/heron/pkg/model"
)

// FileName is the default configuration file looked up in the working directory.
const FileName = "heron.yml"

// Config represents heron.yml configuration
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// EngineConfig describes how the external analysis engine is launched.
type EngineConfig struct {
	Command     string        `mapstructure:"command" yaml:"command"`
	Args        []string      `mapstructure:"args" yaml:"args"`
	SearchPaths []string      `mapstructure:"search_paths" yaml:"search_paths"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ThresholdsConfig holds the two independent complexity bucket configurations.
// Node thresholds apply to modules and functions, folder thresholds to
// aggregated folder complexity.
type ThresholdsConfig struct {
	Node   Bounds `mapstructure:"node" yaml:"node"`
	Folder Bounds `mapstructure:"folder" yaml:"folder"`
}

// Bounds are inclusive upper bounds for the low and medium buckets.
type Bounds struct {
	Low    float64 `mapstructure:"low" yaml:"low"`
	Medium float64 `mapstructure:"medium" yaml:"medium"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Command: "python3",
			Args:    []string{"-m", "heron_engine"},
			SearchPaths: []string{
				".venv/bin/python*",
				"venv/bin/python*",
			},
			Timeout: 120 * time.Second,
		},
		Thresholds: ThresholdsConfig{
			Node:   Bounds{Low: 5, Medium: 10},
			Folder: Bounds{Low: 8, Medium: 15},
		},
		Log: LogConfig{Level: "warn"},
	}
}

// Load reads configuration from path. A missing file yields the defaults;
// HERON_* environment variables override file values (HERON_ENGINE_TIMEOUT=90s).
func Load(path string) (*Config, error) {
	defaults := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HERON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaults)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !isNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that threshold pairs are ordered and the timeout is usable.
func (c *Config) Validate() error {
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	if err := c.Thresholds.Node.validate("thresholds.node"); err != nil {
		return err
	}
	return c.Thresholds.Folder.validate("thresholds.folder")
}

// Thresholds converts b for the normalizer.
func (b Bounds) Thresholds() model.Thresholds {
	return model.Thresholds{Low: b.Low, Medium: b.Medium}
}

func (b Bounds) validate(name string) error {
	if b.Low < 0 || b.Medium < 0 {
		return fmt.Errorf("%s: bounds must not be negative", name)
	}
	if b.Medium < b.Low {
		return fmt.Errorf("%s: medium (%g) must be >= low (%g)", name, b.Medium, b.Low)
	}
	return nil
}

// Save writes configuration to a YAML file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("engine.command", d.Engine.Command)
	v.SetDefault("engine.args", d.Engine.Args)
	v.SetDefault("engine.search_paths", d.Engine.SearchPaths)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("thresholds.node.low", d.Thresholds.Node.Low)
	v.SetDefault("thresholds.node.medium", d.Thresholds.Node.Medium)
	v.SetDefault("thresholds.folder.low", d.Thresholds.Folder.Low)
	v.SetDefault("thresholds.folder.medium", d.Thresholds.Folder.Medium)
	v.SetDefault("log.level", d.Log.Level)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
