package pipeline

import (
	"context"
	"fmt"
	"time"

	"geoexport/internal/logging"
	"geoexport/internal/source"
	"geoexport/internal/telemetry"
	"geoexport/internal/workspace"
)

// Mode selects the run variant. Both walk the same stage sequence; the
// only difference is whether exports get a provenance timestamp.
type Mode string

const (
	ModeBackfill    Mode = "backfill"    // stamp a timestamp sidecar per export
	ModeIncremental Mode = "incremental" // refresh the data file only
)

// ParseMode maps the invocation script's mode string. Empty defaults
// to incremental, the routine re-run variant.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBackfill:
		return ModeBackfill, nil
	case ModeIncremental, "":
		return ModeIncremental, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeBackfill, ModeIncremental)
}

// PublishHook is called after each successful export, outside the
// fail-fast path: the artifact on disk is the source of truth, so hook
// errors are logged but never abort the run.
type PublishHook func(Published) error

// Result is the terminal outcome of a run.
type Result struct {
	State        State
	Trace        []State // states reached, in order
	Published    []Published
	FailedStage  Stage
	FailedSource source.Source // empty unless a per-source stage failed
	Err          error
}

// ExitCode maps the result onto the process exit code: 0 on success,
// otherwise the failing stage's code.
func (r Result) ExitCode() int {
	if r.Err == nil {
		return 0
	}
	if code, ok := exitCodes[r.FailedStage]; ok {
		return code
	}
	return 1
}

// Runner sequences the stages for every configured source, strictly in
// order and strictly sequentially. The first failure aborts the run and
// skips final cleanup, leaving the workspace for inspection.
type Runner struct {
	ws        workspace.Workspace
	mode      Mode
	sources   []source.Source
	download  *DownloadStage
	transform *TransformStage
	export    *ExportStage
	onPublish PublishHook
}

func NewRunner(ws workspace.Workspace, mode Mode, download *DownloadStage, transform *TransformStage, export *ExportStage) *Runner {
	return &Runner{
		ws:        ws,
		mode:      mode,
		sources:   source.All,
		download:  download,
		transform: transform,
		export:    export,
	}
}

// SetSources overrides the processed sources. Order is preserved.
func (r *Runner) SetSources(srcs []source.Source) { r.sources = srcs }

func (r *Runner) OnPublish(fn PublishHook) { r.onPublish = fn }

// Run executes the whole pipeline:
//
//	reset → download → (transform → export) per source → final cleanup
func (r *Runner) Run(ctx context.Context) Result {
	res := Result{State: StateStart, Trace: []State{StateStart}}
	start := time.Now()
	logging.L().Info("run starting", "mode", r.mode, "sources", len(r.sources))

	if err := r.timed(StageWorkspace, func() error { return r.ws.Reset() }); err != nil {
		return r.fail(res, StageWorkspace, "", err)
	}
	r.advance(&res, StateReset)

	if err := r.timed(StageDownload, func() error { return r.download.Run(ctx) }); err != nil {
		return r.fail(res, StageDownload, "", err)
	}
	r.advance(&res, StateDownloaded)

	for _, src := range r.sources {
		if err := r.timed(StageTransform, func() error { return r.transform.Run(ctx, src) }); err != nil {
			return r.fail(res, StageTransform, src, err)
		}
		r.advance(&res, StateTransformed)

		var pub Published
		err := r.timed(StageExport, func() error {
			var err error
			pub, err = r.export.Publish(src, r.mode == ModeBackfill)
			return err
		})
		if err != nil {
			return r.fail(res, StageExport, src, err)
		}
		res.Published = append(res.Published, pub)
		r.advance(&res, StateExported)

		if r.onPublish != nil {
			if err := r.onPublish(pub); err != nil {
				logging.L().Error("publish hook failed", "source", src, "err", err)
			}
		}
	}

	if err := r.timed(StageWorkspace, func() error { return r.ws.FinalCleanup() }); err != nil {
		return r.fail(res, StageWorkspace, "", err)
	}
	r.advance(&res, StateCleaned)
	r.advance(&res, StateDone)

	telemetry.RunsTotal.WithLabelValues("success").Inc()
	logging.L().Info("run finished", "elapsed", time.Since(start), "exports", len(res.Published))
	return res
}

func (r *Runner) advance(res *Result, s State) {
	res.State = s
	res.Trace = append(res.Trace, s)
}

func (r *Runner) fail(res Result, stage Stage, src source.Source, err error) Result {
	res.State = StateFailed
	res.Trace = append(res.Trace, StateFailed)
	res.FailedStage = stage
	res.FailedSource = src
	res.Err = err
	telemetry.RunsTotal.WithLabelValues("failure").Inc()
	logging.L().Error("run aborted", "stage", stage, "source", src, "err", err)
	return res
}

func (r *Runner) timed(stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	telemetry.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	return err
}
