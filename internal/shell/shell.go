package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

var (
	// ErrCommandFailed — команда завершилась с ненулевым кодом.
	ErrCommandFailed = errors.New("command failed")

	// ErrEmptyCommand — пустая строка команды.
	ErrEmptyCommand = errors.New("empty command")
)

// waitDelay — сколько ждать закрытия pipe'ов после убийства процесса.
const waitDelay = 2 * time.Second

// Options — параметры запуска.
type Options struct {
	// Cwd — рабочий каталог; пусто означает текущий.
	Cwd string
	// Env дополняет окружение процесса.
	Env map[string]string
	// Timeout ограничивает время выполнения; 0 — без ограничения.
	Timeout time.Duration
}

// Result — вывод завершившейся команды.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Exec выполняет command и ждёт завершения.
func Exec(ctx context.Context, command string, opts Options) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		return nil, ErrEmptyCommand
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := shellCommand(ctx, command)
	cmd.Dir = opts.Cwd
	cmd.Env = buildEnv(opts.Env)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout: strings.TrimRight(stdout.String(), "\r\n"),
		Stderr: strings.TrimRight(stderr.String(), "\r\n"),
	}

	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", command, ctx.Err())
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("start %q: %w", command, err)
		}
		res.ExitCode = exitErr.ExitCode()
		msg := res.Stderr
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", res.ExitCode)
		}
		return res, fmt.Errorf("%w: %s: %s", ErrCommandFailed, command, msg)
	}

	return res, nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// buildEnv возвращает окружение процесса, дополненное extra.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
