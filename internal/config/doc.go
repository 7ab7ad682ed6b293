// Package config читает файл проекта kiln.toml или kiln.yaml.
//
// Пример kiln.toml:
//
//	default = "build"
//
//	[serve]
//	dir = "build"
//	port = 8080
//	reload_port = 8181
//
//	[tasks.css]
//	type = "exec"
//	watch = ["src/**/*.scss"]
//	reload = true
//	config = { command = "sass src/main.scss build/main.css" }
//
//	[tasks.static]
//	type = "copy"
//	coalesce_ms = 500
//	config = { from = ["static/**/*"], to = "build", base = "static" }
//
//	[aliases]
//	build = ["css", "static"]
//
// Формат выбирается по расширению файла.
package config
