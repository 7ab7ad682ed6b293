package steps

import (
	"context"
	"fmt"
	"time"
)

const (
	// StepTypeDelay — тип шага задержки.
	StepTypeDelay = "delay"

	configDuration    = "duration"
	configDurationSec = "duration_sec"
	configDurationMs  = "duration_ms"
)

// DelayStep приостанавливает задачу. Полезен, чтобы дождаться
// внешнего процесса (например, dev-сервера бэкенда) перед перезагрузкой.
//
// Конфигурация (одно из):
//
//	duration     = "1.5s"
//	duration_sec = 2
//	duration_ms  = 300
type DelayStep struct{}

// NewDelayStep создаёт новый DelayStep.
func NewDelayStep() *DelayStep {
	return &DelayStep{}
}

// Type возвращает тип шага.
func (s *DelayStep) Type() string {
	return StepTypeDelay
}

// Execute ждёт заданное время или отмены ctx.
func (s *DelayStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	duration, err := parseDuration(req.Config)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	case <-timer.C:
		return NewResponse(map[string]any{
			"duration_ms": duration.Milliseconds(),
		}), nil
	}
}

func parseDuration(config map[string]any) (time.Duration, error) {
	if s := GetConfigString(config, configDuration); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: %s: bad duration %q", ErrInvalidConfig, StepTypeDelay, s)
		}
		return d, nil
	}
	if sec := GetConfigInt(config, configDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}
	if ms := GetConfigInt(config, configDurationMs); ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("%w: %s: duration, duration_sec or duration_ms required",
		ErrInvalidConfig, StepTypeDelay)
}
