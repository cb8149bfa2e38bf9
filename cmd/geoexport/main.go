package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"geoexport/internal/config"
	"geoexport/internal/fetch"
	"geoexport/internal/job"
	"geoexport/internal/logging"
	"geoexport/internal/notify"
	"geoexport/internal/pipeline"
	"geoexport/internal/source"
	"geoexport/internal/telemetry"
)

func main() {
	logging.InitFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx))
}

// run wires the pipeline and returns the process exit code: 0 on
// success, 1 for configuration problems, otherwise the failing stage's
// code.
func run(ctx context.Context) int {
	mode, err := pipeline.ParseMode(os.Getenv("GEOEXPORT_MODE"))
	if err != nil {
		logging.L().Error("bad mode", "err", err)
		return 1
	}

	pipePath := os.Getenv("GEOEXPORT_CONFIG")
	if pipePath == "" {
		pipePath = "geoexport.yml"
	}
	pipe, runPath, err := config.LoadPipeline(pipePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.L().Error("pipeline config", "path", pipePath, "err", err)
			return 1
		}
		// no pipeline file: defaults plus env-only run config
		pipe = config.File{MetricsPort: 9100}
		pipe.Transform.Driver = "exec"
	}

	rc, err := config.LoadRunConfig(runPath)
	if err != nil {
		logging.L().Error("run config", "path", runPath, "err", err)
		return 1
	}

	srcs, err := parseSources(pipe.Sources)
	if err != nil {
		logging.L().Error("sources", "err", err)
		return 1
	}

	transformer, err := job.New(pipe.Transform.Driver)
	if err != nil {
		logging.L().Error("transformer", "err", err)
		return 1
	}
	if err := transformer.Configure(rc.Exec); err != nil {
		logging.L().Error("transformer config", "err", err)
		return 1
	}

	ws := rc.Workspace.Workspace()
	telemetry.Expose(pipe.MetricsPort)

	r := pipeline.NewRunner(ws, mode,
		pipeline.NewDownloadStage(ws, fetch.NewClient(rc.Fetch, ws)),
		pipeline.NewTransformStage(ws, transformer),
		pipeline.NewExportStage(ws))
	r.SetSources(srcs)

	if rc.Notify.Enabled() {
		producer, err := notify.NewProducer(rc.Notify, mode)
		if err != nil {
			logging.L().Error("notify", "err", err)
			return 1
		}
		defer producer.Close()
		r.OnPublish(producer.Published)
	}

	return r.Run(ctx).ExitCode()
}

func parseSources(names []string) ([]source.Source, error) {
	if len(names) == 0 {
		return source.All, nil
	}
	srcs := make([]source.Source, 0, len(names))
	for _, name := range names {
		s, err := source.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("pipeline config: %w", err)
		}
		srcs = append(srcs, s)
	}
	return srcs, nil
}
