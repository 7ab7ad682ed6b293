package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Kiln/internal/config"
	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/orchestrator"
	"github.com/shaiso/Kiln/internal/reload"
	"github.com/shaiso/Kiln/internal/scheduler"
	"github.com/shaiso/Kiln/internal/steps"
	"github.com/shaiso/Kiln/internal/task"
	"github.com/shaiso/Kiln/internal/telemetry"
	"github.com/shaiso/Kiln/internal/watcher"
)

// shutdownTimeout — сколько ждать остановки серверов при выходе.
const shutdownTimeout = 5 * time.Second

// Deps — зависимости проекта.
type Deps struct {
	Logger *slog.Logger
	// FS — корень проекта; по умолчанию каталог файла проекта.
	FS *fsx.FS
	// Registry — типы шагов; по умолчанию steps.DefaultRegistry().
	Registry *steps.Registry
	// BaseContext передаётся callback'ам задач.
	BaseContext context.Context
}

// Kind — вид записи в списке задач.
type Kind string

const (
	KindTask  Kind = "task"
	KindAlias Kind = "alias"
)

// Entry — описание задачи или алиаса для вывода.
type Entry struct {
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Type     string   `json:"type,omitempty"`
	Members  []string `json:"members,omitempty"`
	Watch    []string `json:"watch,omitempty"`
	Reload   bool     `json:"reload,omitempty"`
	Schedule string   `json:"schedule,omitempty"`
	Default  bool     `json:"default,omitempty"`
}

// Project — оркестратор, собранный из файла проекта.
type Project struct {
	file   *config.File
	orch   *orchestrator.Orchestrator
	fs     *fsx.FS
	logger *slog.Logger

	mu       sync.Mutex
	server   *reload.Server
	watchers []*watcher.Watcher
	sched    *scheduler.Scheduler
}

// Build проверяет файл и регистрирует все задачи и алиасы.
func Build(f *config.File, deps Deps) (*Project, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = steps.DefaultRegistry()
	}
	fs := deps.FS
	if fs == nil {
		fs = fsx.New("")
	}

	if err := f.Validate(reg); err != nil {
		return nil, err
	}

	orch := orchestrator.New(orchestrator.Config{
		Logger:      logger,
		BaseContext: deps.BaseContext,
		FS:          fs,
	})

	for _, name := range f.TaskNames() {
		def := f.Tasks[name]
		step, err := reg.ForTask(name, def.Type)
		if err != nil {
			return nil, err
		}
		if err := orch.Register(name, stepFunc(step, name, def, fs, logger), def.Options()...); err != nil {
			return nil, err
		}
	}

	order, err := f.AliasOrder()
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		if err := orch.Alias(name, f.Aliases[name]); err != nil {
			return nil, err
		}
	}

	return &Project{
		file:   f,
		orch:   orch,
		fs:     fs,
		logger: logger,
	}, nil
}

// stepFunc превращает шаг в callback задачи.
func stepFunc(step steps.Step, name string, def config.TaskDef, fs *fsx.FS, logger *slog.Logger) task.Func {
	taskLogger := telemetry.WithTask(logger, name)
	return func(ctx context.Context) error {
		req := steps.NewRequest(name, def.Config, fs, taskLogger)
		_, err := step.Execute(ctx, req)
		return err
	}
}

// Orchestrator возвращает собранный оркестратор.
func (p *Project) Orchestrator() *orchestrator.Orchestrator {
	return p.orch
}

// Run последовательно выполняет names или задачу по умолчанию.
func (p *Project) Run(ctx context.Context, names ...string) (bool, error) {
	return p.orch.Start(ctx, p.file.Default, names...)
}

// Entries возвращает задачи и алиасы в алфавитном порядке.
func (p *Project) Entries() []Entry {
	var out []Entry
	for _, name := range p.orch.Names() {
		e := Entry{Name: name, Default: name == p.file.Default}
		if members, ok := p.orch.AliasMembers(name); ok {
			e.Kind = KindAlias
			e.Members = members
		} else {
			def := p.file.Tasks[name]
			e.Kind = KindTask
			e.Type = def.Type
			e.Watch = def.Watch
			e.Reload = def.Reload
			e.Schedule = def.Schedule
		}
		out = append(out, e)
	}
	return out
}

// Server возвращает запущенный dev-сервер или nil.
func (p *Project) Server() *reload.Server {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.server
}

// Start поднимает dev-сервер (если есть секция serve), watchers для
// задач с watch и расписания для задач со schedule.
func (p *Project) Start(ctx context.Context) error {
	if p.file.Serve != nil {
		srv, err := p.orch.Serve(p.file.Serve.Directory(), p.file.Serve.ListenPort(), p.file.Serve.ReloadOptions()...)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.server = srv
		p.mu.Unlock()
	}

	var sched *scheduler.Scheduler
	for _, name := range p.file.TaskNames() {
		def := p.file.Tasks[name]

		if len(def.Watch) > 0 {
			w, err := watcher.Watch(ctx, watcher.Config{
				Cwd:      p.fs.Cwd,
				Patterns: def.Watch,
				Logger:   p.logger,
			}, p.trigger(ctx, name, def.Reload))
			if err != nil {
				return fmt.Errorf("watch %s: %w", name, err)
			}
			p.mu.Lock()
			p.watchers = append(p.watchers, w)
			p.mu.Unlock()
		}

		if def.Schedule != "" {
			if sched == nil {
				sched = scheduler.New(scheduler.Config{Runner: p.orch, Logger: p.logger})
			}
			if _, err := sched.Add(def.Schedule, name); err != nil {
				return err
			}
		}
	}

	if sched != nil {
		if err := sched.Start(ctx); err != nil {
			return err
		}
		p.mu.Lock()
		p.sched = sched
		p.mu.Unlock()
	}

	p.logger.Info("watching for changes", "watchers", len(p.watchers))
	return nil
}

// Watch вызывает Start и блокируется до отмены ctx, затем вызывает Close.
func (p *Project) Watch(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		p.Close()
		return err
	}
	<-ctx.Done()
	return p.Close()
}

// trigger возвращает обработчик изменения файлов для задачи: запуск и,
// при reload, перезагрузку браузеров после успешного выполнения.
func (p *Project) trigger(ctx context.Context, name string, reloadAfter bool) func() {
	return func() {
		exec := p.orch.Run(name)
		if !reloadAfter {
			return
		}
		go func() {
			ok, err := exec.Wait(ctx)
			if err != nil || !ok {
				return
			}
			if srv := p.Server(); srv != nil {
				srv.Reload()
			}
		}()
	}
}

// Close останавливает watchers, расписания и серверы.
func (p *Project) Close() error {
	p.mu.Lock()
	watchers := p.watchers
	sched := p.sched
	p.watchers, p.sched, p.server = nil, nil, nil
	p.mu.Unlock()

	var errs []error
	for _, w := range watchers {
		errs = append(errs, w.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sched != nil {
		errs = append(errs, sched.Stop(ctx))
	}
	errs = append(errs, p.orch.Close(ctx))

	return errors.Join(errs...)
}
