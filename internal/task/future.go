package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Future — одноразовый результат асинхронной операции.
//
// Идентичность Future определяется токеном ID, а не значением:
// Heap удаляет записи именно по нему.
type Future[T any] struct {
	id   uuid.UUID
	done chan struct{}
	once sync.Once

	val T
	err error
}

// Execution — дескриптор одного выполнения задачи.
// Разрешается true при успехе и false при ошибке.
type Execution = Future[bool]

// NewFuture создаёт неразрешённый Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{
		id:   uuid.New(),
		done: make(chan struct{}),
	}
}

// Resolved создаёт уже разрешённый Future.
func Resolved[T any](val T, err error) *Future[T] {
	f := NewFuture[T]()
	f.resolve(val, err)
	return f
}

// OnSignal создаёт Future, который разрешается значением val после
// закрытия ch. Уже закрытый ch даёт разрешённый Future.
func OnSignal[T any](ch <-chan struct{}, val T) *Future[T] {
	select {
	case <-ch:
		return Resolved(val, nil)
	default:
	}

	f := NewFuture[T]()
	go func() {
		<-ch
		f.resolve(val, nil)
	}()
	return f
}

// ID возвращает токен идентичности.
func (f *Future[T]) ID() uuid.UUID {
	return f.id
}

// Done закрывается после разрешения.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait ждёт разрешения или отмены ctx.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result блокируется до разрешения.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// resolve разрешает Future. Повторные вызовы игнорируются.
func (f *Future[T]) resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}
