// Package cli реализует команды kiln.
//
// # Обзор
//
// Команды работают с файлом проекта (kiln.toml или kiln.yaml): собирают
// из него оркестратор через project.Build и запускают задачи, режим
// наблюдения или dev-сервер.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: kiln list --json | jq .
//
// ## Commands
//
//   - run [task...]: запуск задач по очереди
//   - watch: запуск задачи по умолчанию и наблюдение за файлами
//   - list: задачи и алиасы проекта
//   - serve DIR: только dev-сервер
//
// Каждая команда создаётся фабричной функцией (NewRunCmd и т.д.),
// принимающей замыкания для ленивого создания Project, Output и логгера
// после парсинга PersistentFlags.
package cli
