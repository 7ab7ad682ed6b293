package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelSuccess — уровень для успешно завершённых задач.
// Находится между Info и Warn, поэтому проходит фильтр уровня Info.
const LevelSuccess = slog.Level(2)

// Форматы вывода логов.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// LogLevel определяет уровень логирования из переменной окружения.
// Возможные значения: DEBUG, INFO, WARN, ERROR
// По умолчанию: INFO
func LogLevel() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel переводит строку уровня в slog.Level.
// Неизвестные значения трактуются как INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options — параметры создания логгера.
type Options struct {
	// Format — json, text или console (по умолчанию console).
	Format string

	// Level — минимальный уровень.
	Level slog.Level

	// Silent полностью отключает вывод.
	Silent bool

	// Output — куда писать (по умолчанию os.Stdout).
	Output io.Writer
}

// NewLogger создаёт логгер по опциям.
func NewLogger(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stdout
	}
	if opts.Silent {
		w = io.Discard
	}

	hopts := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.Level == slog.LevelDebug && opts.Format == FormatJSON,
		ReplaceAttr: replaceLevel,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, hopts)
	case FormatText:
		handler = slog.NewTextHandler(w, hopts)
	default:
		handler = NewConsoleHandler(w, opts.Level)
	}

	return slog.New(handler)
}

// SetupLogger инициализирует глобальный логгер из окружения.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "console" (по умолчанию) — для терминала разработчика
//   - "json" — JSON формат
//   - "text" — logfmt
func SetupLogger() *slog.Logger {
	format := os.Getenv("LOG_FORMAT")
	if format == "" {
		format = FormatConsole
	}

	logger := NewLogger(Options{
		Format: format,
		Level:  LogLevel(),
	})
	slog.SetDefault(logger)

	return logger
}

// replaceLevel подписывает LevelSuccess в JSON/text выводе.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelSuccess {
		a.Value = slog.StringValue("SUCCESS")
	}
	return a
}

// Success пишет запись уровня LevelSuccess.
func Success(ctx context.Context, logger *slog.Logger, msg string, args ...any) {
	logger.Log(ctx, LevelSuccess, msg, args...)
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithTask возвращает логгер с добавленным именем задачи.
func WithTask(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("task", name)
}
