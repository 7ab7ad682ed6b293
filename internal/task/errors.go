package task

import "errors"

// Ошибки пакета task.
var (
	// ErrCallbackPanicked — callback задачи запаниковал.
	ErrCallbackPanicked = errors.New("task callback panicked")

	// ErrNilCallback — задача создана без callback'а.
	ErrNilCallback = errors.New("task callback is nil")
)
