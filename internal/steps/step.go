package steps

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shaiso/Kiln/internal/fsx"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — тип шага не найден в реестре.
	ErrStepNotFound = errors.New("unknown step type")

	// ErrDuplicateStep — тип шага уже зарегистрирован.
	ErrDuplicateStep = errors.New("step type already registered")

	// ErrInvalidConfig — невалидная конфигурация шага.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrStepCancelled — выполнение шага отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrTemplate — ошибка разбора или рендеринга шаблона.
	ErrTemplate = errors.New("template error")
)

// Step — интерфейс для типов шагов.
//
// Тип шага указывается в файле проекта (type = "exec") и превращается
// в callback задачи.
type Step interface {
	// Type возвращает тип шага.
	Type() string

	// Execute выполняет шаг и возвращает результат.
	// Шаг должен проверять ctx.Done() для отмены.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения шага.
type Request struct {
	// Task — имя задачи, которой принадлежит шаг.
	Task string

	// Config — конфигурация шага из файла проекта.
	Config map[string]any

	// FS — файловый корень проекта.
	FS *fsx.FS

	Logger *slog.Logger

	// Timeout — таймаут выполнения шага.
	// Если 0, используется таймаут из Config или шага.
	Timeout time.Duration
}

// Response — результат выполнения шага.
type Response struct {
	Outputs map[string]any
}

// NewRequest создаёт новый Request.
func NewRequest(taskName string, config map[string]any, fs *fsx.FS, logger *slog.Logger) *Request {
	if config == nil {
		config = make(map[string]any)
	}
	if fs == nil {
		fs = fsx.New("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Request{
		Task:   taskName,
		Config: config,
		FS:     fs,
		Logger: logger,
	}
}

// NewResponse создаёт новый Response с outputs.
func NewResponse(outputs map[string]any) *Response {
	if outputs == nil {
		outputs = make(map[string]any)
	}
	return &Response{Outputs: outputs}
}

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из конфига.
// TOML декодирует целые в int64, YAML — в int, JSON — в float64.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}

// GetConfigBool извлекает булево значение из конфига.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetConfigStrings извлекает список строк. Одиночная строка
// трактуется как список из одного элемента.
func GetConfigStrings(config map[string]any, key string) []string {
	v, ok := config[key]
	if !ok {
		return nil
	}
	switch items := v.(type) {
	case string:
		return []string{items}
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// GetConfigMapString извлекает map[string]string из конфига.
// Нестроковые значения приводятся через fmt.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string, len(m))
			for k, val := range m {
				result[k] = toString(val)
			}
			return result
		}
	}
	return nil
}
