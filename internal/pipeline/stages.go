package pipeline

import (
	"context"
	"fmt"

	"geoexport/internal/job"
	"geoexport/internal/logging"
	"geoexport/internal/source"
	"geoexport/internal/workspace"
)

// DownloadStage runs the fetch collaborator once per run and then
// deletes the single-use compressed inputs it left in the archive dir.
type DownloadStage struct {
	ws      workspace.Workspace
	fetcher job.Fetcher
}

func NewDownloadStage(ws workspace.Workspace, f job.Fetcher) *DownloadStage {
	return &DownloadStage{ws: ws, fetcher: f}
}

func (s *DownloadStage) Run(ctx context.Context) error {
	if err := s.fetcher.Fetch(ctx); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	if err := s.ws.ClearArchive(); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	return nil
}

// TransformStage invokes the transform job for one source. The
// transform-output dir is cleared first so the following export can
// only ever see this source's partitions.
type TransformStage struct {
	ws  workspace.Workspace
	job job.Transformer
}

func NewTransformStage(ws workspace.Workspace, t job.Transformer) *TransformStage {
	return &TransformStage{ws: ws, job: t}
}

func (s *TransformStage) Run(ctx context.Context, src source.Source) error {
	if err := s.ws.ClearTransformOutput(); err != nil {
		return fmt.Errorf("transform %s: %w", src, err)
	}
	logging.L().Info("transforming source", "source", src)
	if err := s.job.Transform(ctx, src); err != nil {
		return fmt.Errorf("transform %s: %w", src, err)
	}
	return nil
}
