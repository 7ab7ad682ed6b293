// Package fsx содержит файловые операции, которыми пользуются задачи
// сборки и dev-сервер.
//
// Все относительные пути разрешаются относительно FS.Cwd, а не рабочего
// каталога процесса, поэтому несколько FS с разными корнями могут
// сосуществовать в одном процессе (и в тестах).
//
//	fs := fsx.New("./site")
//	if kind, _ := fs.Exists("build/index.html"); kind == fsx.KindFile {
//	    html, _ := fs.Read("build/index.html")
//	}
//
// List принимает doublestar-шаблоны; шаблоны с префиксом "!" исключают
// совпадения.
package fsx
