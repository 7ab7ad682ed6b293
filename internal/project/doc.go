// Package project собирает оркестратор из файла проекта и запускает
// режим наблюдения: dev-сервер, watchers и cron-расписания.
package project
