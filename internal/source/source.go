// Package source defines the closed set of upstream datasets the pipeline
// processes and the fixed names their exports publish under.
package source

import "fmt"

// Source identifies one upstream registry. The set is closed: the
// transform job only understands these identifiers.
type Source string

const (
	// Registry is the national address registry (PRG address points,
	// fetched as zipped GML).
	Registry Source = "registry"
	// OpenDataset is the open geospatial dataset variant of the same
	// address data, exported with the raw upstream columns.
	OpenDataset Source = "open-dataset"
)

// All lists the sources in processing order. The order is fixed:
// registry first, then the open dataset.
var All = []Source{Registry, OpenDataset}

// Parse validates a source identifier from config.
func Parse(s string) (Source, error) {
	switch Source(s) {
	case Registry:
		return Registry, nil
	case OpenDataset:
		return OpenDataset, nil
	}
	return "", fmt.Errorf("unknown source %q (want one of %v)", s, All)
}

// Artifact is the fixed filename the source publishes under in the
// export dir. A run overwrites the previous run's file of the same name.
func (s Source) Artifact() string { return string(s) + ".parquet" }

// Sidecar is the timestamp sidecar filename written next to the
// artifact in backfill mode.
func (s Source) Sidecar() string { return string(s) + ".txt" }

func (s Source) String() string { return string(s) }
