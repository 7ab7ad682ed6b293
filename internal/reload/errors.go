package reload

import "errors"

var (
	// ErrAlreadyStarted — Start вызван повторно.
	ErrAlreadyStarted = errors.New("server already started")

	// ErrPortConflict — HTTP и reload-канал настроены на один порт.
	ErrPortConflict = errors.New("http and reload ports must differ")
)
