package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Kiln/internal/project"
)

// entryColumns — колонки таблицы kiln list.
var entryColumns = []string{"NAME", "KIND", "RUNS", "WATCH", "SCHEDULE"}

// Output печатает список задач проекта: таблицей для терминала или
// JSON-массивом project.Entry для скриптов (kiln list --json | jq).
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output поверх stdout и stderr.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Entries печатает задачи и алиасы. Пустой проект в JSON даёт [],
// в таблице — подсказку в stderr.
func (o *Output) Entries(entries []project.Entry) error {
	if o.jsonMode {
		if entries == nil {
			entries = []project.Entry{}
		}
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		_, err := fmt.Fprintln(o.errW, "No tasks defined")
		return err
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	writeRow(tw, entryColumns)
	for _, e := range entries {
		writeRow(tw, entryRow(e))
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t"))
}

// entryRow раскладывает запись по колонкам entryColumns.
func entryRow(e project.Entry) []string {
	name := e.Name
	if e.Default {
		name += " (default)"
	}

	runs := e.Type
	if e.Kind == project.KindAlias {
		runs = strings.Join(e.Members, ", ")
	}

	watch := strings.Join(e.Watch, " ")
	if e.Reload {
		watch += " +reload"
	}

	return []string{name, string(e.Kind), dash(runs), dash(strings.TrimSpace(watch)), dash(e.Schedule)}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
