package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPipeline_ResolvesRelativeRunConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v1
sources: [registry, open-dataset]
transform:
  driver: exec
  config: run.yml
metrics_port: 9200
`)
	if err := os.WriteFile(filepath.Join(dir, "geoexport.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	cfg, abs, err := LoadPipeline(filepath.Join(dir, "geoexport.yml"))
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "registry" {
		t.Fatalf("unexpected sources: %v", cfg.Sources)
	}
	if cfg.MetricsPort != 9200 {
		t.Fatalf("metrics_port = %d", cfg.MetricsPort)
	}
	if abs == "" || !filepath.IsAbs(abs) {
		t.Fatalf("want absolute run config path, got %q", abs)
	}
}

func TestLoadPipeline_Defaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "geoexport.yml"), []byte("sources: []\n"), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	cfg, _, err := LoadPipeline(filepath.Join(dir, "geoexport.yml"))
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if cfg.Transform.Driver != "exec" {
		t.Fatalf("default driver = %q, want exec", cfg.Transform.Driver)
	}
	if cfg.MetricsPort != 9100 {
		t.Fatalf("default metrics_port = %d, want 9100", cfg.MetricsPort)
	}
}

func TestLoadPipeline_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "geoexport.yml"), []byte("schema_version: v999\n"), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	if _, _, err := LoadPipeline(filepath.Join(dir, "geoexport.yml")); err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}

func TestLoadRunConfig_YAMLAndDefaults(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`schema_version: v1
workspace:
  export_dir: /srv/exports
exec:
  command: spark-submit
  args: [process_gml.py]
notify:
  brokers: [localhost:9092]
`)
	path := filepath.Join(dir, "run.yml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write run config: %v", err)
	}

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Workspace.ExportDir != "/srv/exports" {
		t.Fatalf("export_dir = %q", cfg.Workspace.ExportDir)
	}
	if cfg.Workspace.ArchiveDir != "data/archive" {
		t.Fatalf("archive_dir default = %q", cfg.Workspace.ArchiveDir)
	}
	if cfg.Exec.Command != "spark-submit" {
		t.Fatalf("exec command = %q", cfg.Exec.Command)
	}
	if cfg.Fetch.ArchiveName != "prg.zip" {
		t.Fatalf("archive_name default = %q", cfg.Fetch.ArchiveName)
	}
	if !cfg.Notify.Enabled() {
		t.Fatal("notify should be enabled with brokers set")
	}
	if cfg.Notify.Topic != "geoexport.published" {
		t.Fatalf("notify topic default = %q", cfg.Notify.Topic)
	}
	if cfg.Notify.Acks != -1 {
		t.Fatalf("notify required_acks default = %d, want -1 (wait for all)", cfg.Notify.Acks)
	}
}

func TestLoadRunConfig_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	raw := []byte(`fetch:
  url: https://upstream.test/archive.zip
workspace:
  export_dir: /srv/exports
`)
	path := filepath.Join(dir, "run.yml")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write run config: %v", err)
	}

	t.Setenv("GEOEXPORT__FETCH__URL", "https://mirror.test/archive.zip")
	t.Setenv("GEOEXPORT__WORKSPACE__ARCHIVE_DIR", "/var/lib/geoexport/archive")

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Fetch.URL != "https://mirror.test/archive.zip" {
		t.Fatalf("fetch.url = %q, env override not applied", cfg.Fetch.URL)
	}
	// a key containing a single underscore must survive the mapping
	if cfg.Workspace.ArchiveDir != "/var/lib/geoexport/archive" {
		t.Fatalf("workspace.archive_dir = %q, env override not applied", cfg.Workspace.ArchiveDir)
	}
	// untouched YAML values stay
	if cfg.Workspace.ExportDir != "/srv/exports" {
		t.Fatalf("export_dir = %q, clobbered by env load", cfg.Workspace.ExportDir)
	}
}

func TestLoadRunConfig_EnvOnly(t *testing.T) {
	t.Setenv("GEOEXPORT__EXEC__COMMAND", "spark-submit")
	cfg, err := LoadRunConfig("")
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Exec.Command != "spark-submit" {
		t.Fatalf("exec.command = %q, env-only config not applied", cfg.Exec.Command)
	}
}

func TestLoadRunConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Fetch.URL == "" {
		t.Fatal("fetch.url default missing")
	}
	if cfg.Notify.Enabled() {
		t.Fatal("notify enabled without brokers")
	}
}

func TestLoadRunConfig_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yml")
	if err := os.WriteFile(path, []byte("schema_version: v2\n"), 0o644); err != nil {
		t.Fatalf("write run config: %v", err)
	}
	if _, err := LoadRunConfig(path); err == nil {
		t.Fatal("expected error for unsupported schema_version")
	}
}
