// Package scheduler запускает задачи по cron-расписанию.
//
// Структура:
//   - scheduler.go — Scheduler: список расписаний и цикл Tick
//   - cron.go      — разбор выражений и вычисление следующего времени
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Runner: orch,   // всё, у чего есть Run(name) *task.Execution
//	    Logger: logger,
//	})
//	sched.Add("*/15 * * * *", "deploy-preview")
//	sched.Add("@every 30s", "lint")
//
//	sched.Start(ctx)
//	defer sched.Stop(context.Background())
//
// Tick проверяет расписания раз в TickInterval. Scheduler не ждёт
// завершения запусков: сериализацию и коалесцирование обеспечивает
// сама задача.
package scheduler
