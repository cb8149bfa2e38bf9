package job

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"geoexport/internal/logging"
	"geoexport/internal/source"
)

// ExecConfig describes how to spawn the transform job as a child
// process. The source identifier is appended as the final argument,
// matching the job's own CLI contract.
type ExecConfig struct {
	Command    string   `koanf:"command"`
	Args       []string `koanf:"args"`
	WorkingDir string   `koanf:"working_dir"`
	Env        []string `koanf:"env"` // KEY=VALUE pairs appended to the inherited environment
}

type execDriver struct {
	cfg ExecConfig
}

func (d *execDriver) Configure(c any) error {
	cfg, ok := c.(ExecConfig)
	if !ok {
		return fmt.Errorf("exec transformer: want ExecConfig, got %T", c)
	}
	if cfg.Command == "" {
		return fmt.Errorf("exec transformer: command not set")
	}
	d.cfg = cfg
	return nil
}

// Transform runs the configured command to completion. Stdout and
// stderr are inherited so the job's diagnostics land in the run's
// output, which is all the operator has on failure.
func (d *execDriver) Transform(ctx context.Context, src source.Source) error {
	args := append(append([]string{}, d.cfg.Args...), src.String())
	cmd := exec.CommandContext(ctx, d.cfg.Command, args...)
	cmd.Dir = d.cfg.WorkingDir
	cmd.Env = append(os.Environ(), d.cfg.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logging.L().Info("transform job starting", "command", d.cfg.Command, "source", src)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("transform job %s (source %s): %w", d.cfg.Command, src, err)
	}
	return nil
}

func init() { Register("exec", func() Transformer { return &execDriver{} }) }
