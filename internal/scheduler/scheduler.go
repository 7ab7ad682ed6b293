package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/shaiso/Kiln/internal/task"
)

var (
	// ErrInvalidExpr — выражение расписания не разбирается.
	ErrInvalidExpr = errors.New("invalid schedule expression")

	// ErrEmptyTask — не указано имя задачи.
	ErrEmptyTask = errors.New("empty task name")
)

// defaultTickInterval — период проверки расписаний.
const defaultTickInterval = time.Second

// Runner запускает задачу по имени.
type Runner interface {
	Run(name string) *task.Execution
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner Runner
	Logger *slog.Logger
	// Timezone — часовой пояс cron-выражений (по умолчанию локальный).
	Timezone string
	// TickInterval — период проверки (default: 1s).
	TickInterval time.Duration
	// Now — источник времени; nil означает time.Now.
	Now func() time.Time
}

// Entry — одно расписание.
type Entry struct {
	ID        uuid.UUID
	Task      string
	Expr      string
	NextDueAt time.Time
	LastRunAt time.Time
	Runs      int

	schedule cron.Schedule
}

// Scheduler запускает задачи по расписанию.
type Scheduler struct {
	runner   Runner
	logger   *slog.Logger
	loc      *time.Location
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries []*Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New создаёт Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Warn("unknown timezone, using local", "timezone", cfg.Timezone, "error", err)
		} else {
			loc = l
		}
	}

	interval := cfg.TickInterval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		runner:   cfg.Runner,
		logger:   logger.With("component", "scheduler"),
		loc:      loc,
		interval: interval,
		now:      now,
	}
}

// Add добавляет расписание для задачи.
func (s *Scheduler) Add(expr, taskName string) (uuid.UUID, error) {
	if taskName == "" {
		return uuid.Nil, ErrEmptyTask
	}
	schedule, err := ParseExpr(expr)
	if err != nil {
		return uuid.Nil, err
	}

	e := &Entry{
		ID:        uuid.New(),
		Task:      taskName,
		Expr:      expr,
		NextDueAt: CalculateNextDue(schedule, s.now(), s.loc),
		schedule:  schedule,
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	s.logger.Debug("schedule added", "task", taskName, "expr", expr, "next_due_at", e.NextDueAt)
	return e.ID, nil
}

// Entries возвращает копию расписаний.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Tick запускает все расписания с NextDueAt <= now и возвращает число
// запусков. Пропущенные за время простоя срабатывания не догоняются:
// следующее время считается от now.
func (s *Scheduler) Tick(now time.Time) int {
	s.mu.Lock()
	var due []*Entry
	for _, e := range s.entries {
		if e.NextDueAt.After(now) {
			continue
		}
		e.LastRunAt = now
		e.Runs++
		e.NextDueAt = CalculateNextDue(e.schedule, now, s.loc)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		s.logger.Info("scheduled run", "task", e.Task, "expr", e.Expr)
		s.runner.Run(e.Task)
	}
	return len(due)
}

// Start запускает цикл проверки расписаний.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return fmt.Errorf("scheduler already started")
	}
	if s.runner == nil {
		return fmt.Errorf("scheduler has no runner")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Debug("scheduler started", "entries", len(s.entries), "tick", s.interval)
	return nil
}

// Stop останавливает цикл и ждёт его завершения или отмены ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(s.now())
		}
	}
}
