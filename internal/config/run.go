package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"geoexport/internal/fetch"
	"geoexport/internal/job"
	"geoexport/internal/notify"
	"geoexport/internal/workspace"
)

// WorkspaceCfg names the four working directories.
type WorkspaceCfg struct {
	ArchiveDir   string `koanf:"archive_dir"`
	ExtractedDir string `koanf:"extracted_dir"`
	TransformDir string `koanf:"transform_dir"`
	ExportDir    string `koanf:"export_dir"`
}

func (c WorkspaceCfg) Workspace() workspace.Workspace {
	return workspace.Workspace{
		ArchiveDir:   c.ArchiveDir,
		ExtractedDir: c.ExtractedDir,
		TransformDir: c.TransformDir,
		ExportDir:    c.ExportDir,
	}
}

// RunConfig is the driver-level configuration: directories, upstream
// location, transform job command, and the optional notifier.
type RunConfig struct {
	Workspace WorkspaceCfg   `koanf:"workspace"`
	Fetch     fetch.Config   `koanf:"fetch"`
	Exec      job.ExecConfig `koanf:"exec"`
	Notify    notify.Config  `koanf:"notify"`
}

// LoadRunConfig merges YAML (if present) with env vars (prefix
// `GEOEXPORT__`, delimiter `__`), so e.g. GEOEXPORT__FETCH__URL
// overrides fetch.url.
func LoadRunConfig(path string) (RunConfig, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return RunConfig{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return RunConfig{}, fmt.Errorf("run config schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	// GEOEXPORT__FETCH__URL ⇒ fetch.url; the double underscore is the
	// path separator so single underscores inside key names survive.
	_ = k.Load(env.Provider("GEOEXPORT__", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "GEOEXPORT__")), "__", ".")
	}), nil)

	var cfg RunConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(c *RunConfig) {
	if c.Workspace.ArchiveDir == "" {
		c.Workspace.ArchiveDir = "data/archive"
	}
	if c.Workspace.ExtractedDir == "" {
		c.Workspace.ExtractedDir = "data/extracted"
	}
	if c.Workspace.TransformDir == "" {
		c.Workspace.TransformDir = "data/transform"
	}
	if c.Workspace.ExportDir == "" {
		c.Workspace.ExportDir = "data/export"
	}
	if c.Fetch.ArchiveName == "" {
		c.Fetch.ArchiveName = "prg.zip"
	}
	if c.Fetch.URL == "" {
		c.Fetch.URL = "https://integracja.gugik.gov.pl/PRG/pobierz.php?adresy_zbiorcze_gml"
	}
	if c.Notify.Topic == "" {
		c.Notify.Topic = "geoexport.published"
	}
	if c.Notify.Acks == 0 {
		// the notifier is a sync producer; without broker acks its
		// delivery confirmation would confirm nothing
		c.Notify.Acks = -1
	}
}
