package steps

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry сопоставляет значение поля type задачи в kiln.toml с
// реализацией шага. Безопасен для конкурентного чтения.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// DefaultRegistry возвращает реестр со встроенными типами задач:
// exec, copy, write, delay, http.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(NewExecStep(), NewCopyStep(), NewWriteStep(), NewDelayStep(), NewHTTPStep())
	return r
}

// Register добавляет типы задач. Пустой или уже занятый тип даёт
// ErrDuplicateStep или ErrInvalidConfig; в этом случае реестр не меняется.
func (r *Registry) Register(steps ...Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		t := s.Type()
		switch {
		case t == "":
			return fmt.Errorf("%w: step %T has an empty type", ErrInvalidConfig, s)
		case seen[t]:
			return fmt.Errorf("%w: %q", ErrDuplicateStep, t)
		}
		if _, taken := r.steps[t]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateStep, t)
		}
		seen[t] = true
	}
	for _, s := range steps {
		r.steps[s.Type()] = s
	}
	return nil
}

// MustRegister — Register, паникующий при ошибке.
func (r *Registry) MustRegister(steps ...Step) {
	if err := r.Register(steps...); err != nil {
		panic(err)
	}
}

// Get возвращает шаг по типу. Ошибка перечисляет известные типы.
func (r *Registry) Get(stepType string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.steps[stepType]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q (known: %s)", ErrStepNotFound, stepType, strings.Join(r.typesLocked(), ", "))
}

// ForTask — Get для задачи проекта: ошибка называет задачу.
func (r *Registry) ForTask(taskName, stepType string) (Step, error) {
	if stepType == "" {
		return nil, fmt.Errorf("task %q: %w: type is required", taskName, ErrInvalidConfig)
	}
	s, err := r.Get(stepType)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", taskName, err)
	}
	return s, nil
}

// Types возвращает известные типы по алфавиту.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typesLocked()
}

func (r *Registry) typesLocked() []string {
	types := make([]string, 0, len(r.steps))
	for t := range r.steps {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
