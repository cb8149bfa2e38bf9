// Package config loads the two configuration layers: the pipeline file
// (what to run) and the run config (where and how), the latter merged
// with environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const SupportedSchema = "v1"

// File is the pipeline file: which sources to process and how the
// transform job is driven. Mode is deliberately absent — it comes from
// the invocation script, not the file.
type File struct {
	SchemaVersion string `yaml:"schema_version"`

	// Sources to process, in order. Empty means all known sources.
	Sources []string `yaml:"sources"`

	Transform struct {
		Driver string `yaml:"driver"` // transformer driver name, e.g. "exec"
		Config string `yaml:"config"` // path to the run config, relative to this file
	} `yaml:"transform"`

	MetricsPort int `yaml:"metrics_port"`
}

// LoadPipeline parses the pipeline YAML, validates schema_version, and
// returns the parsed file plus an absolute path to the run config.
func LoadPipeline(path string) (File, string, error) {
	var cfg File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", err
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if cfg.Transform.Driver == "" {
		cfg.Transform.Driver = "exec"
	}
	if cfg.MetricsPort == 0 {
		cfg.MetricsPort = 9100
	}
	confPath := cfg.Transform.Config
	if confPath != "" && !filepath.IsAbs(confPath) {
		confPath = filepath.Join(filepath.Dir(path), confPath)
	}
	return cfg, confPath, nil
}
