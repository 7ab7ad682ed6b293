package task

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"time"
)

// Func — пользовательский callback задачи.
type Func func(ctx context.Context) error

// Hooks — наблюдатели жизненного цикла выполнения.
//
// Вызываются синхронно на пути выполнения задачи, поэтому должны
// быть быстрыми. Любое поле может быть nil.
type Hooks struct {
	// OnStart вызывается перед запуском callback'а.
	OnStart func(name string)

	// OnSuccess вызывается после успешного завершения.
	// elapsed — секунды, округлённые до десятых.
	OnSuccess func(name string, elapsed float64)

	// OnFail вызывается после ошибки или паники callback'а.
	OnFail func(name string, elapsed float64, err error)
}

// PanicError — паника callback'а, превращённая в ошибку.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCallbackPanicked, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrCallbackPanicked
}

// Task — именованная задача с политикой коалесцирования и сериализации.
//
// Task живёт всё время жизни процесса; удаления нет.
type Task struct {
	name string
	fn   Func
	opts Options

	window *Window
	heap   *Heap

	// mu сериализует решения Invoke и удаления из heap, чтобы
	// проверка Count и последующий First/Last видели одно состояние.
	mu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []Hooks
}

// New создаёт задачу.
func New(name string, fn Func, opts Options) *Task {
	if fn == nil {
		fn = func(context.Context) error { return ErrNilCallback }
	}
	opts = opts.Apply()

	return &Task{
		name:   name,
		fn:     fn,
		opts:   opts,
		window: NewWindow(opts.CoalesceWindow),
		heap:   NewHeap(),
	}
}

// Name возвращает имя задачи.
func (t *Task) Name() string {
	return t.name
}

// Options возвращает политику выполнения.
func (t *Task) Options() Options {
	return t.opts
}

// Pending возвращает количество выполняющихся и ожидающих запусков.
func (t *Task) Pending() int {
	return t.heap.Count()
}

// Until возвращает канал, закрывающийся при переходе задачи в покой.
// Если задача уже в покое, канал закрыт.
func (t *Task) Until() <-chan struct{} {
	return t.heap.OnceQuiescent()
}

// Observe добавляет наблюдателя жизненного цикла.
func (t *Task) Observe(h Hooks) {
	t.hooksMu.Lock()
	defer t.hooksMu.Unlock()
	t.hooks = append(t.hooks, h)
}

// Invoke запускает задачу с учётом окна и сериализации.
//
// Никогда не блокируется на выполнении callback'а и никогда не
// возвращает ошибку callback'а: результирующий Execution разрешается
// true или false.
func (t *Task) Invoke(ctx context.Context) *Execution {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// 1. Серия уже идёт — присоединяемся к последнему выполнению.
	if t.window.Enabled() && t.window.ProbeAndBump() {
		if last := t.heap.Last(); last != nil {
			return last
		}
		// Окно активно, но выполнять нечего — запускаем как обычно.
	}

	// 2. Не больше одного запуска в очереди за текущим.
	if t.opts.Serialize {
		switch n := t.heap.Count(); {
		case n > 1:
			return t.heap.Last()
		case n == 1:
			return t.enqueueLocked(ctx, t.heap.First())
		}
	}

	// 3. Прямое выполнение.
	return t.startLocked(ctx)
}

// enqueueLocked ставит выполнение в очередь за running.
func (t *Task) enqueueLocked(ctx context.Context, running *Execution) *Execution {
	e := NewFuture[bool]()
	t.heap.Add(e)

	go func() {
		<-running.Done()
		t.execute(ctx, e)
	}()

	return e
}

// startLocked запускает выполнение немедленно.
func (t *Task) startLocked(ctx context.Context) *Execution {
	e := NewFuture[bool]()
	t.heap.Add(e)

	go t.execute(ctx, e)

	return e
}

// execute выполняет callback, сообщает наблюдателям и убирает e из heap.
func (t *Task) execute(ctx context.Context, e *Execution) {
	t.emitStart()
	start := time.Now()

	err := t.call(ctx)
	elapsed := toSeconds(time.Since(start))

	if err != nil {
		t.emitFail(elapsed, err)
	} else {
		t.emitSuccess(elapsed)
	}

	t.mu.Lock()
	t.heap.Remove(e)
	t.mu.Unlock()

	e.resolve(err == nil, nil)
}

// call вызывает callback, превращая панику в ошибку.
func (t *Task) call(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return t.fn(ctx)
}

func (t *Task) snapshotHooks() []Hooks {
	t.hooksMu.RLock()
	defer t.hooksMu.RUnlock()
	out := make([]Hooks, len(t.hooks))
	copy(out, t.hooks)
	return out
}

func (t *Task) emitStart() {
	for _, h := range t.snapshotHooks() {
		if h.OnStart != nil {
			h.OnStart(t.name)
		}
	}
}

func (t *Task) emitSuccess(elapsed float64) {
	for _, h := range t.snapshotHooks() {
		if h.OnSuccess != nil {
			h.OnSuccess(t.name, elapsed)
		}
	}
}

func (t *Task) emitFail(elapsed float64, err error) {
	for _, h := range t.snapshotHooks() {
		if h.OnFail != nil {
			h.OnFail(t.name, elapsed, err)
		}
	}
}

// toSeconds округляет длительность до десятых долей секунды.
func toSeconds(d time.Duration) float64 {
	return math.Round(float64(d.Milliseconds())/100) / 10
}
