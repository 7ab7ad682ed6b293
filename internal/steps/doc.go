// Package steps содержит встроенные типы шагов, из которых собираются
// задачи в файле проекта.
//
// # Типы шагов
//
//   - exec  — команда через оболочку (shell.Exec)
//   - copy  — копирование файлов по glob-шаблонам
//   - write — запись файла из шаблона
//   - delay — пауза
//   - http  — HTTP-запрос (webhook, прогрев страницы)
//
// # Шаблоны
//
// Строковые поля command, content, url и значения headers рендерятся
// через text/template с TemplateData:
//
//	{{ .Task }}                 — имя задачи
//	{{ .Cwd }}                  — корень проекта
//	{{ .Env.NAME }}             — переменная окружения
//	{{ hash "md5" "hex" .Task }} — хеш строки
//
// # Использование
//
//	reg := steps.DefaultRegistry()
//	step, err := reg.ForTask("css", "exec")
//	if err != nil {
//	    return err
//	}
//	req := steps.NewRequest("css", map[string]any{"command": "sass in.scss out.css"}, fs, logger)
//	resp, err := step.Execute(ctx, req)
package steps
