// Package orchestrator — реестр задач сборки.
//
// Orchestrator регистрирует задачи (task.Task), собирает из них
// алиасы, запускает их по имени и ждёт их перехода в покой. Все
// публичные операции, которые могут не удаться, логируют проблему и
// возвращают безопасный результат (false, ошибку-значение или no-op),
// чтобы долгоживущий цикл watch не падал из-за одной задачи.
//
//	o := orchestrator.New(orchestrator.Config{Logger: logger})
//	o.Register("css", buildCSS)
//	o.Register("js", buildJS, task.WithCoalesceWindow(500*time.Millisecond))
//	o.Alias("build", []string{"css", "js"})
//
//	ok, _ := o.Run("build").Wait(ctx)
//
// Каждое выполнение пишется в лог ("started css", "finished css in
// 0.4s") и в метрики Prometheus из пакета telemetry.
package orchestrator
