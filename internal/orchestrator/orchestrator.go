package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/reload"
	"github.com/shaiso/Kiln/internal/task"
)

// Значения по умолчанию для новых задач.
const (
	DefaultCoalesceWindow = 200 * time.Millisecond
	DefaultSerialize      = true
)

// DefaultOptions возвращает политику выполнения по умолчанию.
func DefaultOptions() task.Options {
	return task.Options{
		CoalesceWindow: DefaultCoalesceWindow,
		Serialize:      DefaultSerialize,
	}
}

// Config — конфигурация Orchestrator.
type Config struct {
	Logger *slog.Logger

	// Defaults — политика для задач без явных опций.
	// nil означает DefaultOptions().
	Defaults *task.Options

	// BaseContext передаётся callback'ам задач (default: Background).
	BaseContext context.Context

	// FS — файловый корень проекта (default: рабочий каталог).
	FS *fsx.FS
}

// Orchestrator — реестр задач.
type Orchestrator struct {
	logger   *slog.Logger
	defaults task.Options
	ctx      context.Context
	fs       *fsx.FS

	mu      sync.RWMutex
	tasks   map[string]*task.Task
	aliases map[string][]string
	servers []*reload.Server
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultOptions()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}

	ctx := cfg.BaseContext
	if ctx == nil {
		ctx = context.Background()
	}

	fs := cfg.FS
	if fs == nil {
		fs = fsx.New("")
	}

	return &Orchestrator{
		logger:   logger,
		defaults: defaults,
		ctx:      ctx,
		fs:       fs,
		tasks:    make(map[string]*task.Task),
		aliases:  make(map[string][]string),
	}
}

// Logger возвращает логгер оркестратора.
func (o *Orchestrator) Logger() *slog.Logger {
	return o.logger
}

// FS возвращает файловый корень проекта.
func (o *Orchestrator) FS() *fsx.FS {
	return o.fs
}

// Register регистрирует задачу. Повторная регистрация имени
// отклоняется: ошибка логируется, существующая задача не меняется.
func (o *Orchestrator) Register(name string, fn task.Func, opts ...task.Option) error {
	if name == "" {
		o.logger.Error("cannot register task without a name")
		return ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, exists := o.tasks[name]; exists {
		o.logger.Error("task $ is already registered", "task", name)
		return fmt.Errorf("%w: %s", ErrTaskExists, name)
	}

	t := task.New(name, fn, o.defaults.Apply(opts...))
	t.Observe(o.hooks())
	o.tasks[name] = t

	o.logger.Debug("registered task $", "task", name,
		"coalesce", t.Options().CoalesceWindow,
		"serialize", t.Options().Serialize,
	)
	return nil
}

// Alias регистрирует задачу, которая параллельно запускает members и
// ждёт их завершения. Неудача участника не делает алиас неудачным:
// участники сами сообщают о своих ошибках. Алиас падает только при
// отмене контекста.
func (o *Orchestrator) Alias(name string, members []string, opts ...task.Option) error {
	for _, m := range members {
		if _, ok := o.Task(m); !ok {
			o.logger.Error("alias $ refers to unknown task $", "alias", name, "task", m)
			return fmt.Errorf("%w: %s in %s", ErrUnknownMember, m, name)
		}
	}

	members = append([]string(nil), members...)
	fn := func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range members {
			m := m
			g.Go(func() error {
				_, err := o.RunContext(ctx, m).Wait(gctx)
				return err
			})
		}
		return g.Wait()
	}

	if err := o.Register(name, fn, opts...); err != nil {
		return err
	}

	o.mu.Lock()
	o.aliases[name] = members
	o.mu.Unlock()
	return nil
}

// Run запускает задачу. Для неизвестного имени возвращает уже
// разрешённый Execution (false, ErrTaskNotFound).
func (o *Orchestrator) Run(name string) *task.Execution {
	return o.RunContext(o.ctx, name)
}

// RunContext — Run с явным контекстом для callback'а.
func (o *Orchestrator) RunContext(ctx context.Context, name string) *task.Execution {
	t, ok := o.Task(name)
	if !ok {
		o.logger.Error("cannot run unknown task $", "task", name)
		return task.Resolved(false, fmt.Errorf("%w: %s", ErrTaskNotFound, name))
	}
	return t.Invoke(ctx)
}

// Until возвращает Future, который разрешается true, когда у задачи
// не останется выполняющихся и ожидающих запусков. Если задача уже в
// покое, Future разрешён сразу.
func (o *Orchestrator) Until(name string) *task.Future[bool] {
	t, ok := o.Task(name)
	if !ok {
		o.logger.Error("cannot wait for unknown task $", "task", name)
		return task.Resolved(false, fmt.Errorf("%w: %s", ErrTaskNotFound, name))
	}
	return task.OnSignal(t.Until(), true)
}

// Task возвращает задачу по имени.
func (o *Orchestrator) Task(name string) (*task.Task, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	t, ok := o.tasks[name]
	return t, ok
}

// Names возвращает отсортированные имена всех задач, включая алиасы.
func (o *Orchestrator) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.tasks))
	for name := range o.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AliasMembers возвращает участников алиаса.
func (o *Orchestrator) AliasMembers(name string) ([]string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	members, ok := o.aliases[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), members...), true
}

// Start последовательно запускает names, дожидаясь каждой задачи.
// Без имён запускается defaultTask. Ошибки задач не прерывают
// последовательность; результат true, если все запуски успешны.
// Ошибка возвращается только при отмене ctx.
func (o *Orchestrator) Start(ctx context.Context, defaultTask string, names ...string) (bool, error) {
	if len(names) == 0 {
		if defaultTask == "" {
			o.logger.Warn("nothing to run: no task given and no default task")
			return true, nil
		}
		names = []string{defaultTask}
	}

	all := true
	for _, name := range names {
		ok, err := o.RunContext(ctx, name).Wait(ctx)
		if err != nil && ctx.Err() != nil {
			return false, ctx.Err()
		}
		all = all && ok
	}
	return all, nil
}

// Close останавливает запущенные через Serve серверы.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	servers := o.servers
	o.servers = nil
	o.mu.Unlock()

	var firstErr error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
