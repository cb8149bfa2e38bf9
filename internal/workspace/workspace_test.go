package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func testWorkspace(t *testing.T) Workspace {
	t.Helper()
	root := t.TempDir()
	return Workspace{
		ArchiveDir:   filepath.Join(root, "archive"),
		ExtractedDir: filepath.Join(root, "extracted"),
		TransformDir: filepath.Join(root, "transform"),
		ExportDir:    filepath.Join(root, "export"),
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustBeEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Fatalf("%s not empty: %d entries", dir, len(entries))
	}
}

func TestReset_CreatesAllDirs(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	for _, dir := range []string{ws.ArchiveDir, ws.ExtractedDir, ws.TransformDir, ws.ExportDir} {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Fatalf("missing dir after Reset: %s (%v)", dir, err)
		}
	}
}

func TestReset_ClearsArchiveAndExtracted(t *testing.T) {
	ws := testWorkspace(t)
	touch(t, filepath.Join(ws.ArchiveDir, "prg.zip"))
	touch(t, filepath.Join(ws.ExtractedDir, "a.xml"))

	if err := ws.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	mustBeEmpty(t, ws.ArchiveDir)
	mustBeEmpty(t, ws.ExtractedDir)
}

func TestReset_PreservesExports(t *testing.T) {
	ws := testWorkspace(t)
	touch(t, filepath.Join(ws.ExportDir, "registry.parquet"))

	if err := ws.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := os.Stat(filepath.Join(ws.ExportDir, "registry.parquet")); err != nil {
		t.Fatalf("export artifact removed by Reset: %v", err)
	}
}

func TestReset_Idempotent(t *testing.T) {
	ws := testWorkspace(t)
	for i := 0; i < 3; i++ {
		if err := ws.Reset(); err != nil {
			t.Fatalf("Reset #%d: %v", i+1, err)
		}
	}
	mustBeEmpty(t, ws.ArchiveDir)
	mustBeEmpty(t, ws.ExtractedDir)
}

func TestClearTransformOutput(t *testing.T) {
	ws := testWorkspace(t)
	touch(t, filepath.Join(ws.TransformDir, "part-00000.parquet"))
	touch(t, filepath.Join(ws.TransformDir, "_SUCCESS"))
	touch(t, filepath.Join(ws.TransformDir, ".part-00000.parquet.crc"))

	if err := ws.ClearTransformOutput(); err != nil {
		t.Fatalf("ClearTransformOutput: %v", err)
	}
	mustBeEmpty(t, ws.TransformDir)
}

func TestFinalCleanup_LeavesExportsAndArchive(t *testing.T) {
	ws := testWorkspace(t)
	touch(t, filepath.Join(ws.ExtractedDir, "a.xml"))
	touch(t, filepath.Join(ws.TransformDir, "part-00000.parquet"))
	touch(t, filepath.Join(ws.TransformDir, "_SUCCESS"))
	touch(t, filepath.Join(ws.ExportDir, "registry.parquet"))

	if err := ws.FinalCleanup(); err != nil {
		t.Fatalf("FinalCleanup: %v", err)
	}
	mustBeEmpty(t, ws.ExtractedDir)
	mustBeEmpty(t, ws.TransformDir)
	if _, err := os.Stat(filepath.Join(ws.ExportDir, "registry.parquet")); err != nil {
		t.Fatalf("export artifact removed by FinalCleanup: %v", err)
	}
}

func TestClearDir_MissingDirIsNoError(t *testing.T) {
	ws := testWorkspace(t)
	// none of the dirs exist yet
	if err := ws.ClearTransformOutput(); err != nil {
		t.Fatalf("ClearTransformOutput on missing dir: %v", err)
	}
	if err := ws.FinalCleanup(); err != nil {
		t.Fatalf("FinalCleanup on missing dirs: %v", err)
	}
}
