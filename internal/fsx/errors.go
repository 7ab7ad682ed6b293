package fsx

import "errors"

// Ошибки файловых операций.
var (
	// ErrUnsupportedAlgorithm — неизвестный алгоритм хеширования.
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")

	// ErrUnsupportedEncoding — неизвестная кодировка хеша.
	ErrUnsupportedEncoding = errors.New("unsupported hash encoding")

	// ErrInvalidPattern — некорректный glob-шаблон.
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrSameFile — источник и назначение копирования совпадают.
	ErrSameFile = errors.New("source and target are the same file")
)
