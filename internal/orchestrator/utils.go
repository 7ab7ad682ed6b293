package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/reload"
	"github.com/shaiso/Kiln/internal/shell"
	"github.com/shaiso/Kiln/internal/task"
)

// Debounce оборачивает fn в task.Debouncer с задержкой delay.
// Возвращаемая функция планирует вызов и отдаёт общий для серии Future.
func Debounce[T any](o *Orchestrator, fn func(ctx context.Context) (T, error), delay time.Duration) func() *task.Future[T] {
	d := task.NewDebouncer(fn, delay, o.logger)
	return func() *task.Future[T] {
		return d.Call(o.ctx)
	}
}

// DebounceFunc — Debounce для функций без результата. Future
// разрешается true при успехе.
func (o *Orchestrator) DebounceFunc(fn func(ctx context.Context) error, delay time.Duration) func() *task.Future[bool] {
	return Debounce(o, func(ctx context.Context) (bool, error) {
		if err := fn(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, delay)
}

// Serve запускает dev-сервер статики из directory на port.
// Сервер останавливается в Close.
func (o *Orchestrator) Serve(directory string, port int, opts ...reload.Option) (*reload.Server, error) {
	cfg := reload.DefaultConfig()
	cfg.Directory = directory
	cfg.Port = port
	cfg.FS = o.fs
	cfg.Logger = o.logger

	srv := reload.New(cfg, opts...)
	if err := srv.Start(o.ctx); err != nil {
		o.logger.Error("cannot start dev server", "dir", directory, "port", port, "error", err)
		return nil, fmt.Errorf("serve %s: %w", directory, err)
	}

	o.mu.Lock()
	o.servers = append(o.servers, srv)
	o.mu.Unlock()
	return srv, nil
}

// Exec выполняет команду оболочки в корне проекта.
func (o *Orchestrator) Exec(ctx context.Context, command string, opts shell.Options) (*shell.Result, error) {
	if opts.Cwd == "" {
		opts.Cwd = o.fs.Cwd
	} else {
		opts.Cwd = o.fs.Resolve(opts.Cwd)
	}
	o.logger.Debug("exec $", "command", command, "cwd", opts.Cwd)
	return shell.Exec(ctx, command, opts)
}

// Hash возвращает хеш строки (см. fsx.HashText).
func (o *Orchestrator) Hash(text, algo, encoding string) (string, error) {
	return fsx.HashText(text, algo, encoding)
}
