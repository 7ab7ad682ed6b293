package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shaiso/Kiln/internal/shell"
)

const (
	// StepTypeExec — тип шага внешней команды.
	StepTypeExec = "exec"

	configCommand = "command"
	configCwd     = "cwd"
	configEnv     = "env"
)

// ExecStep — шаг запуска команды через оболочку.
//
// Конфигурация:
//
//	[tasks.css]
//	type = "exec"
//	config = { command = "sass src/main.scss build/main.css", timeout_sec = 60 }
//
// Команда рендерится как шаблон ({{ .Task }}, {{ .Env.NAME }}).
// Outputs: stdout, stderr.
type ExecStep struct{}

// NewExecStep создаёт новый ExecStep.
func NewExecStep() *ExecStep {
	return &ExecStep{}
}

// Type возвращает тип шага.
func (s *ExecStep) Type() string {
	return StepTypeExec
}

// Execute запускает команду.
func (s *ExecStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	command := GetConfigString(req.Config, configCommand)
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("%w: %s: command is required", ErrInvalidConfig, StepTypeExec)
	}

	data := NewTemplateData(req)
	command, err := Render(command, data)
	if err != nil {
		return nil, err
	}

	opts := shell.Options{
		Cwd: req.FS.Resolve(GetConfigString(req.Config, configCwd)),
		Env: GetConfigMapString(req.Config, configEnv),
	}
	if sec := GetConfigInt(req.Config, configTimeoutSec); sec > 0 {
		opts.Timeout = time.Duration(sec) * time.Second
	}
	if req.Timeout > 0 {
		opts.Timeout = req.Timeout
	}

	req.Logger.Debug("exec", "command", command, "cwd", opts.Cwd)

	res, err := shell.Exec(ctx, command, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		}
		return nil, err
	}

	if res.Stdout != "" {
		req.Logger.Info("command output", "stdout", res.Stdout)
	}
	if res.Stderr != "" {
		req.Logger.Warn("command output", "stderr", res.Stderr)
	}

	return NewResponse(map[string]any{
		"stdout": res.Stdout,
		"stderr": res.Stderr,
	}), nil
}
