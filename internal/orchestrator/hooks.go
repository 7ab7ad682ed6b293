package orchestrator

import (
	"github.com/shaiso/Kiln/internal/task"
	"github.com/shaiso/Kiln/internal/telemetry"
)

// hooks связывает жизненный цикл задачи с логом и метриками.
func (o *Orchestrator) hooks() task.Hooks {
	return task.Hooks{
		OnStart: func(name string) {
			telemetry.TaskRunning.WithLabelValues(name).Inc()
			o.logger.Info("started $", "task", name)
		},

		OnSuccess: func(name string, elapsed float64) {
			telemetry.TaskRunning.WithLabelValues(name).Dec()
			telemetry.TaskRuns.WithLabelValues(name, telemetry.StatusSucceeded).Inc()
			telemetry.TaskDuration.WithLabelValues(name).Observe(elapsed)
			telemetry.Success(o.ctx, o.logger, "finished $ in $s", "task", name, "elapsed", elapsed)
		},

		OnFail: func(name string, elapsed float64, err error) {
			telemetry.TaskRunning.WithLabelValues(name).Dec()
			telemetry.TaskRuns.WithLabelValues(name, telemetry.StatusFailed).Inc()
			telemetry.TaskDuration.WithLabelValues(name).Observe(elapsed)
			o.logger.Error("$ failed after $s", "task", name, "elapsed", elapsed, "error", err)
		},
	}
}
