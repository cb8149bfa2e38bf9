package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geoexport/internal/logging"
	"geoexport/internal/source"
	"geoexport/internal/telemetry"
	"geoexport/internal/workspace"
)

// ErrNoPartitions means the transform job signalled success but left no
// partition files behind.
var ErrNoPartitions = errors.New("no partition files in transform output")

// artifactMode makes exports readable and overwritable across the
// identities that touch the export dir: downstream consumers read them,
// the next run replaces them.
const artifactMode os.FileMode = 0o666

// Published describes one publication for the run result and the
// notifier.
type Published struct {
	Source    source.Source
	Path      string
	Bytes     int64
	StampedAt time.Time // zero unless a sidecar was written
}

// ExportStage publishes the transform job's output under the source's
// fixed export name.
type ExportStage struct {
	ws  workspace.Workspace
	now func() time.Time
}

func NewExportStage(ws workspace.Workspace) *ExportStage {
	return &ExportStage{ws: ws, now: time.Now}
}

// Publish selects the partition files in the transform-output dir,
// concatenates them in name order into the export dir under the
// source's fixed artifact name, and normalizes permissions. With stamp
// set it also writes a sidecar holding the publication time.
func (e *ExportStage) Publish(src source.Source, stamp bool) (Published, error) {
	parts, err := selectPartitions(e.ws.TransformDir)
	if err != nil {
		return Published{}, fmt.Errorf("export %s: %w", src, err)
	}

	dest := filepath.Join(e.ws.ExportDir, src.Artifact())
	n, err := concatTo(dest, parts)
	if err != nil {
		return Published{}, fmt.Errorf("export %s: %w", src, err)
	}
	if err := os.Chmod(dest, artifactMode); err != nil {
		return Published{}, fmt.Errorf("export %s: chmod: %w", src, err)
	}

	pub := Published{Source: src, Path: dest, Bytes: n}
	if stamp {
		ts := e.now().UTC()
		sidecar := filepath.Join(e.ws.ExportDir, src.Sidecar())
		if err := os.WriteFile(sidecar, []byte(ts.Format(timestampLayout)+"\n"), artifactMode); err != nil {
			return Published{}, fmt.Errorf("export %s: sidecar: %w", src, err)
		}
		if err := os.Chmod(sidecar, artifactMode); err != nil {
			return Published{}, fmt.Errorf("export %s: sidecar chmod: %w", src, err)
		}
		pub.StampedAt = ts
	}

	telemetry.ExportedBytes.WithLabelValues(src.String()).Set(float64(n))
	logging.L().Info("published export", "source", src, "artifact", dest, "bytes", n, "partitions", len(parts), "stamped", stamp)
	return pub, nil
}

// timestampLayout renders the sidecar time as ISO-8601 with a numeric
// UTC offset (+00:00 rather than the bare Z designator).
const timestampLayout = "2006-01-02T15:04:05-07:00"

// selectPartitions returns the partition files in dir, in name order.
// Selection is by naming pattern only: the engine's dot-prefixed
// checksum sidecars and underscore-prefixed markers never match.
func selectPartitions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "part") || !strings.HasSuffix(name, ".parquet") {
			continue
		}
		parts = append(parts, filepath.Join(dir, name))
	}
	if len(parts) == 0 {
		return nil, ErrNoPartitions
	}
	return parts, nil
}

// concatTo copies the sources, in order, into a freshly truncated dest.
// The sources are left in place: the transform dir's lifecycle is the
// workspace's business, not the export's.
func concatTo(dest string, sources []string) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	var written int64
	for _, src := range sources {
		in, err := os.Open(src)
		if err != nil {
			out.Close()
			return 0, err
		}
		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return 0, err
		}
		written += n
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	return written, nil
}
