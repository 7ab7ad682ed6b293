package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/Kiln/internal/reload"
	"github.com/shaiso/Kiln/internal/scheduler"
	"github.com/shaiso/Kiln/internal/steps"
	"github.com/shaiso/Kiln/internal/task"
)

var (
	// ErrNotFound — файл проекта не найден.
	ErrNotFound = errors.New("project file not found")

	// ErrUnsupportedFormat — неизвестное расширение файла.
	ErrUnsupportedFormat = errors.New("unsupported project file format")

	// ErrInvalid — файл проекта не прошёл проверку.
	ErrInvalid = errors.New("invalid project file")
)

// FileNames — имена, которые ищет Find, в порядке приоритета.
var FileNames = []string{"kiln.toml", "kiln.yaml", "kiln.yml"}

// File — содержимое файла проекта.
type File struct {
	// Path — откуда файл прочитан.
	Path string `toml:"-" yaml:"-"`

	// Default — задача, которую запускают run и watch без аргументов.
	Default string              `toml:"default" yaml:"default"`
	Serve   *ServeDef           `toml:"serve" yaml:"serve"`
	Tasks   map[string]TaskDef  `toml:"tasks" yaml:"tasks"`
	Aliases map[string][]string `toml:"aliases" yaml:"aliases"`
}

// ServeDef — настройки dev-сервера.
type ServeDef struct {
	Dir        string `toml:"dir" yaml:"dir"`
	Port       int    `toml:"port" yaml:"port"`
	Fallback   string `toml:"fallback" yaml:"fallback"`
	Reload     *bool  `toml:"reload" yaml:"reload"`
	ReloadPort int    `toml:"reload_port" yaml:"reload_port"`
}

// TaskDef — описание задачи.
type TaskDef struct {
	// Type — тип шага (exec, copy, write, delay, http).
	Type   string         `toml:"type" yaml:"type"`
	Config map[string]any `toml:"config" yaml:"config"`

	// CoalesceMs переопределяет окно коалесцирования; 0 отключает его.
	CoalesceMs *int `toml:"coalesce_ms" yaml:"coalesce_ms"`
	// Serialize переопределяет последовательный режим.
	Serialize *bool `toml:"serialize" yaml:"serialize"`

	// Watch — шаблоны файлов, изменение которых запускает задачу.
	Watch []string `toml:"watch" yaml:"watch"`
	// Reload — перезагрузить браузеры после успешного запуска.
	Reload bool `toml:"reload" yaml:"reload"`
	// Schedule — cron-выражение для периодического запуска.
	Schedule string `toml:"schedule" yaml:"schedule"`
}

// Find ищет файл проекта в каталоге dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, dir, strings.Join(FileNames, ", "))
}

// Load читает и разбирает файл проекта. Проверку выполняет Validate.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse разбирает содержимое по расширению (".toml", ".yaml", ".yml").
func Parse(data []byte, ext string) (*File, error) {
	var f File

	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if f.Tasks == nil {
		f.Tasks = make(map[string]TaskDef)
	}
	if f.Aliases == nil {
		f.Aliases = make(map[string][]string)
	}
	return &f, nil
}

// Validate проверяет типы шагов, состав алиасов, уникальность имён,
// cron-выражения и задачу по умолчанию. Возвращает все найденные
// проблемы сразу.
func (f *File) Validate(reg *steps.Registry) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	for _, name := range sortedKeys(f.Tasks) {
		def := f.Tasks[name]
		if _, err := reg.ForTask(name, def.Type); err != nil {
			add("%v", err)
		}
		if def.CoalesceMs != nil && *def.CoalesceMs < 0 {
			add("task %q: coalesce_ms must not be negative", name)
		}
		if def.Schedule != "" {
			if err := scheduler.ValidateCronExpr(def.Schedule); err != nil {
				add("task %q: %v", name, err)
			}
		}
	}

	for _, name := range sortedKeys(f.Aliases) {
		if _, ok := f.Tasks[name]; ok {
			add("alias %q: name already used by a task", name)
		}
		if len(f.Aliases[name]) == 0 {
			add("alias %q: no members", name)
		}
		for _, member := range f.Aliases[name] {
			if !f.Has(member) {
				add("alias %q: unknown member %q", name, member)
			}
		}
	}

	if _, err := f.AliasOrder(); err != nil {
		errs = append(errs, err)
	}

	if f.Default != "" && !f.Has(f.Default) {
		add("default task %q is not defined", f.Default)
	}

	return errors.Join(errs...)
}

// Has сообщает, определена ли задача или алиас с именем name.
func (f *File) Has(name string) bool {
	if _, ok := f.Tasks[name]; ok {
		return true
	}
	_, ok := f.Aliases[name]
	return ok
}

// TaskNames возвращает отсортированные имена задач.
func (f *File) TaskNames() []string {
	return sortedKeys(f.Tasks)
}

// AliasNames возвращает отсортированные имена алиасов.
func (f *File) AliasNames() []string {
	return sortedKeys(f.Aliases)
}

// AliasOrder возвращает алиасы в порядке, в котором их можно
// регистрировать: члены алиаса регистрируются раньше него самого.
// Циклы между алиасами дают ошибку.
func (f *File) AliasOrder() ([]string, error) {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[string]int)
	var order []string

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: alias cycle %s", ErrInvalid, strings.Join(append(slices.Clone(path), name), " -> "))
		}
		state[name] = visiting
		path = append(slices.Clone(path), name)
		for _, member := range f.Aliases[name] {
			if _, isAlias := f.Aliases[member]; isAlias {
				if err := visit(member, path); err != nil {
					return err
				}
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range f.AliasNames() {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Options переводит настройки задачи в task.Options поверх defaults.
func (d TaskDef) Options() []task.Option {
	var opts []task.Option
	if d.CoalesceMs != nil {
		opts = append(opts, task.WithCoalesceWindow(time.Duration(*d.CoalesceMs)*time.Millisecond))
	}
	if d.Serialize != nil {
		opts = append(opts, task.WithSerialize(*d.Serialize))
	}
	return opts
}

// ReloadOptions переводит настройки dev-сервера в опции reload.
func (s *ServeDef) ReloadOptions() []reload.Option {
	if s == nil {
		return nil
	}
	var opts []reload.Option
	if s.Fallback != "" {
		opts = append(opts, reload.WithFallback(s.Fallback))
	}
	if s.Reload != nil {
		opts = append(opts, reload.WithReload(*s.Reload))
	}
	if s.ReloadPort != 0 {
		opts = append(opts, reload.WithReloadPort(s.ReloadPort))
	}
	return opts
}

// Directory возвращает каталог статики с учётом значения по умолчанию.
func (s *ServeDef) Directory() string {
	if s == nil || s.Dir == "" {
		return reload.DefaultDirectory
	}
	return s.Dir
}

// ListenPort возвращает порт с учётом значения по умолчанию.
func (s *ServeDef) ListenPort() int {
	if s == nil || s.Port == 0 {
		return reload.DefaultPort
	}
	return s.Port
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
