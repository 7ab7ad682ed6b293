// Package watcher вызывает функцию при изменении файлов, подходящих под
// doublestar-шаблоны.
//
// Для каждого включающего шаблона рекурсивно наблюдается каталог,
// соответствующий его статическому префиксу ("src" для "src/**/*.js").
// Новые каталоги подхватываются автоматически. Шаблоны с префиксом "!"
// исключают файлы из событий и каталоги из наблюдения.
package watcher
