// Package job defines the capability interfaces for the pipeline's
// external collaborators. The orchestrator treats both as black boxes:
// the only contract is the completion signal.
package job

import (
	"context"
	"fmt"

	"geoexport/internal/source"
)

// Fetcher is the download collaborator. Fetch populates the archive dir
// and then the extracted dir from network sources; it takes no
// per-source arguments and runs once per run.
type Fetcher interface {
	Fetch(ctx context.Context) error
}

// Transformer is the transform-job collaborator. Transform consumes the
// extracted dir's documents and writes an arbitrary number of partition
// files plus engine bookkeeping (dot-prefixed checksums, underscore-
// prefixed markers) into the transform-output dir.
type Transformer interface {
	Configure(any) error // driver-specific config block ⇒ struct
	Transform(ctx context.Context, src source.Source) error
}

/*──────── transformer driver registry ───────*/

type factory = func() Transformer

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func New(name string) (Transformer, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown transformer driver %q", name)
}
