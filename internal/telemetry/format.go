package telemetry

import (
	"fmt"
	"strings"
)

// Format подставляет args в шаблон вместо символов "$" по порядку.
// "$$" выводит один "$". Лишние "$" остаются как есть, лишние
// аргументы отбрасываются.
//
//	Format("finished $ in $s", "build", 1.2) // "finished build in 1.2s"
func Format(template string, args ...any) string {
	out, _ := substitute(template, args)
	return out
}

// substitute возвращает результат и число использованных аргументов.
func substitute(template string, args []any) (string, int) {
	if !strings.Contains(template, "$") {
		return template, 0
	}

	var b strings.Builder
	used := 0
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(template) && template[i+1] == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if used < len(args) {
			fmt.Fprint(&b, args[used])
			used++
			continue
		}
		b.WriteByte('$')
	}
	return b.String(), used
}
