// Package shell запускает внешние команды через командную оболочку
// платформы: "sh -c" на Unix и "cmd /C" на Windows.
//
// Stdout и stderr собираются в Result. Ненулевой код выхода
// превращается в ошибку, оборачивающую ErrCommandFailed, с текстом
// stderr. При отмене контекста или истечении Timeout процесс убивается
// вместе со всей группой дочерних процессов.
package shell
