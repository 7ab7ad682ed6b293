package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Префиксы строк консольного вывода.
const (
	prefixInfo    = "  ~ "
	prefixSuccess = "✔ ~ "
	prefixError   = "✗ ~ "
	prefixDebug   = "? ~ "
	prefixWarn    = "! ~ "
)

// ConsoleHandler — slog.Handler для терминала разработчика.
//
// Формат строки: "<префикс><сообщение> key=value ...".
// Символы "$" в сообщении заменяются значениями атрибутов записи по
// порядку (см. Format); подставленные атрибуты не дублируются в хвосте.
// Префикс зависит от уровня: debug "? ~", info "  ~", success "✔ ~",
// warn "! ~", error "✗ ~". Время не выводится — это интерактивный
// инструмент, а не сервисный лог.
type ConsoleHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewConsoleHandler создаёт ConsoleHandler.
func NewConsoleHandler(w io.Writer, level slog.Leveler) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

// Enabled сообщает, пишет ли handler записи уровня l.
func (h *ConsoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

// Handle форматирует и пишет одну запись.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	values := make([]any, len(attrs))
	for i, a := range attrs {
		values[i] = a.Value.Resolve().Any()
	}
	msg, used := substitute(r.Message, values)

	buf.WriteString(levelPrefix(r.Level))
	buf.WriteString(msg)

	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	for _, a := range attrs[used:] {
		writeAttr(&buf, h.group, a)
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs возвращает handler с дополнительными атрибутами.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

// WithGroup возвращает handler, префиксующий ключи именем группы.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func levelPrefix(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return prefixError
	case l >= slog.LevelWarn:
		return prefixWarn
	case l >= LevelSuccess:
		return prefixSuccess
	case l >= slog.LevelInfo:
		return prefixInfo
	default:
		return prefixDebug
	}
}

func writeAttr(buf *bytes.Buffer, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, key, ga)
		}
		return
	}

	val := fmt.Sprint(a.Value.Any())
	if strings.ContainsAny(val, " \t\n\"") {
		val = fmt.Sprintf("%q", val)
	}

	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(val)
}
