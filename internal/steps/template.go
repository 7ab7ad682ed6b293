package steps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/shaiso/Kiln/internal/fsx"
)

// TemplateData — данные, доступные в шаблонах конфигурации шагов:
//   - {{ .Task }}
//   - {{ .Cwd }}
//   - {{ .Env.HOME }}
//   - {{ .Now.Format "2006-01-02" }}
type TemplateData struct {
	Task string
	Cwd  string
	Env  map[string]string
	Now  time.Time
}

// NewTemplateData собирает данные шаблона для запроса.
func NewTemplateData(req *Request) *TemplateData {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return &TemplateData{
		Task: req.Task,
		Cwd:  req.FS.Cwd,
		Env:  env,
		Now:  time.Now(),
	}
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — значение по умолчанию для пустого аргумента
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// hash — хеш строки: {{ hash "sha256" "hex" .Task }}
	"hash": func(algo, encoding, text string) (string, error) {
		return fsx.HashText(text, algo, encoding)
	},

	"join":    func(sep string, items []string) string { return strings.Join(items, sep) },
	"split":   func(sep, s string) []string { return strings.Split(s, sep) },
	"lower":   strings.ToLower,
	"upper":   strings.ToUpper,
	"trim":    strings.TrimSpace,
	"replace": strings.ReplaceAll,
}

// Render рендерит строковый шаблон. Строки без "{{" возвращаются как есть.
func Render(tmpl string, data *TemplateData) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: parse: %v", ErrTemplate, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: render: %v", ErrTemplate, err)
	}
	return buf.String(), nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
