package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrTaskNotFound — задача с таким именем не зарегистрирована.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskExists — имя уже занято.
	ErrTaskExists = errors.New("task already registered")

	// ErrUnknownMember — алиас ссылается на незарегистрированную задачу.
	ErrUnknownMember = errors.New("unknown alias member")

	// ErrEmptyName — пустое имя задачи.
	ErrEmptyName = errors.New("empty task name")
)
