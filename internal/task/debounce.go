package task

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Debouncer оборачивает произвольную функцию без регистрации задачи.
//
// Правила:
//   - первый вызов тихого периода ждёт delay; все вызовы во время
//     ожидания получают один и тот же Future;
//   - вызовы во время выполнения fn схлопываются в один догоняющий
//     запуск, который стартует сразу после текущего;
//   - после выполнения без догоняющего запуска начинается новый тихий
//     период, и следующий вызов снова ждёт delay.
//
// В отличие от Task, ошибка fn возвращается через Future.
type Debouncer[T any] struct {
	fn     func(ctx context.Context) (T, error)
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	waiting *Future[T] // ждёт окончания ведущей задержки
	running *Future[T] // выполняется сейчас
	next    *Future[T] // догоняющий запуск
}

// NewDebouncer создаёт Debouncer. logger может быть nil.
func NewDebouncer[T any](fn func(ctx context.Context) (T, error), delay time.Duration, logger *slog.Logger) *Debouncer[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		fn:     fn,
		delay:  delay,
		logger: logger,
	}
}

// Call планирует выполнение и возвращает Future, общий для всех
// вызовов, попавших в тот же запуск.
func (d *Debouncer[T]) Call(ctx context.Context) *Future[T] {
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.next != nil:
		d.logger.Debug("debounce: joining queued run")
		return d.next
	case d.running != nil:
		d.logger.Debug("debounce: queueing run after current")
		d.next = NewFuture[T]()
		return d.next
	case d.waiting != nil:
		d.logger.Debug("debounce: returning waiting run", "delay", d.delay)
		return d.waiting
	}

	f := NewFuture[T]()
	d.waiting = f

	time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		d.waiting = nil
		d.running = f
		d.mu.Unlock()

		d.logger.Debug("debounce: waiting done")
		d.loop(ctx, f)
	})

	return f
}

// loop выполняет f и все накопившиеся догоняющие запуски.
func (d *Debouncer[T]) loop(ctx context.Context, f *Future[T]) {
	for f != nil {
		val, err := d.call(ctx)
		if err != nil {
			d.logger.Error("debounced function failed", "error", err)
		}
		f.resolve(val, err)

		d.mu.Lock()
		f = d.next
		d.next = nil
		d.running = f
		d.mu.Unlock()
	}
}

func (d *Debouncer[T]) call(ctx context.Context) (val T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p, Stack: debug.Stack()}
		}
	}()
	return d.fn(ctx)
}
