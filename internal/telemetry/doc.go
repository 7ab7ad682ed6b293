// Package telemetry обеспечивает наблюдаемость Kiln.
//
// Включает:
//   - logging.go — structured logging через slog
//   - console.go — человекочитаемый handler для терминала разработчика
//   - metrics.go — Prometheus метрики задач и reload-сервера
//
// Библиотечный код получает *slog.Logger через Config и не трогает
// глобальный логгер; SetupLogger/NewLogger вызываются только из cmd.
package telemetry
