// Package config loads engine configuration for the rtfkit extractor.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wudi/rtfkit/observability"
	"github.com/wudi/rtfkit/recovery"
	"github.com/wudi/rtfkit/rtf"
)

type Config struct {
	TempDir  string        `yaml:"temp_dir"`
	KeepTemp bool          `yaml:"keep_temp"`
	Strict   bool          `yaml:"strict"`
	Logging  LoggingConfig `yaml:"logging"`
	Limits   LimitsConfig  `yaml:"limits"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type LimitsConfig struct {
	MaxObjectSize int64 `yaml:"max_object_size"`
	MaxObjects    int   `yaml:"max_objects"`
}

// Default returns the configuration used when no file is given: lenient
// recovery, info logging, scanning-engine limits, temp files under the
// system temp directory.
func Default() *Config {
	limits := rtf.DefaultLimits()
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Limits: LimitsConfig{
			MaxObjectSize: limits.MaxObjectSize,
			MaxObjects:    limits.MaxObjects,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ExtractorOptions maps the configuration onto rtf.Options, logging to w.
func (c *Config) ExtractorOptions(w io.Writer) rtf.Options {
	var strategy recovery.Strategy
	if c.Strict {
		strategy = recovery.NewStrictStrategy()
	}
	return rtf.Options{
		TempDir:  c.TempDir,
		KeepTemp: c.KeepTemp,
		Logger:   observability.NewTextLogger(w, observability.ParseLevel(c.Logging.Level)),
		Recovery: strategy,
		Limits: rtf.Limits{
			MaxObjectSize: c.Limits.MaxObjectSize,
			MaxObjects:    c.Limits.MaxObjects,
		},
	}
}
