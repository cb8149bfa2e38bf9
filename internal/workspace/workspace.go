// Package workspace owns the pipeline's working directories and their
// lifecycles. Each stage receives the Workspace value explicitly; which
// stage may delete what, and when, is this package's contract.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"geoexport/internal/logging"
)

// Workspace is the fixed set of flat directories a single run operates on.
//
//	ArchiveDir   — fetched compressed inputs; empty before and after extraction
//	ExtractedDir — decompressed raw documents; input to the transform job
//	TransformDir — the transform job's partition files plus its bookkeeping
//	ExportDir    — published artifacts; never cleaned by the orchestrator
type Workspace struct {
	ArchiveDir   string
	ExtractedDir string
	TransformDir string
	ExportDir    string
}

// Reset clears the archive and extracted dirs and ensures all four dirs
// exist. Idempotent; called exactly once at run start. The export dir is
// left alone: its contents belong to downstream consumers.
func (w Workspace) Reset() error {
	for _, dir := range []string{w.ArchiveDir, w.ExtractedDir} {
		if err := clearDir(dir); err != nil {
			return err
		}
	}
	for _, dir := range []string{w.ArchiveDir, w.ExtractedDir, w.TransformDir, w.ExportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("workspace: mkdir %s: %w", dir, err)
		}
	}
	return nil
}

// ClearArchive deletes the single-use compressed inputs once extraction
// has produced the raw documents.
func (w Workspace) ClearArchive() error {
	return clearDir(w.ArchiveDir)
}

// ClearTransformOutput empties the transform-output dir. Called before
// every transform so export selection can never pick up a previous
// source's partitions.
func (w Workspace) ClearTransformOutput() error {
	return clearDir(w.TransformDir)
}

// FinalCleanup removes the extracted documents and the transform job's
// output and bookkeeping files. Success path only: a failed run leaves
// everything in place for the operator.
func (w Workspace) FinalCleanup() error {
	logging.L().Info("workspace: final cleanup", "extracted", w.ExtractedDir, "transform", w.TransformDir)
	for _, dir := range []string{w.ExtractedDir, w.TransformDir} {
		if err := clearDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// clearDir removes the contents of dir but not dir itself. A missing
// dir is not an error.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("workspace: read %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("workspace: remove %s: %w", filepath.Join(dir, e.Name()), err)
		}
	}
	return nil
}
