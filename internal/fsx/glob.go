package fsx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ListOptions — фильтры List.
type ListOptions struct {
	// Absolute возвращает абсолютные пути вместо путей относительно Cwd.
	Absolute bool

	// OnlyFiles оставляет только обычные файлы.
	OnlyFiles bool

	// OnlyDirs оставляет только каталоги.
	OnlyDirs bool
}

// List раскрывает glob-шаблоны.
//
// Шаблоны с префиксом "!" исключают совпадения остальных шаблонов.
// Результат уникален и отсортирован; dot-файлы включаются.
func (f *FS) List(patterns []string, opts ListOptions) ([]string, error) {
	include, exclude := SplitPatterns(patterns)

	seen := make(map[string]bool)
	var out []string

	for _, pattern := range include {
		matches, err := f.glob(pattern)
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			if Excluded(exclude, m) || seen[m] {
				continue
			}
			if !f.keep(m, opts) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}

	if opts.Absolute {
		for i, m := range out {
			out[i] = f.Resolve(filepath.FromSlash(m))
		}
	}

	sort.Strings(out)
	return out, nil
}

// glob раскрывает один шаблон. Относительные шаблоны дают пути
// относительно Cwd в slash-форме.
func (f *FS) glob(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, pattern)
	}

	if filepath.IsAbs(filepath.FromSlash(pattern)) {
		base, rest := doublestar.SplitPattern(pattern)
		matches, err := doublestar.Glob(os.DirFS(base), rest)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for i, m := range matches {
			matches[i] = filepath.ToSlash(filepath.Join(base, m))
		}
		return matches, nil
	}

	matches, err := doublestar.Glob(os.DirFS(f.Cwd), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return matches, nil
}

func (f *FS) keep(match string, opts ListOptions) bool {
	if !opts.OnlyFiles && !opts.OnlyDirs {
		return true
	}
	kind, err := f.Exists(filepath.FromSlash(match))
	if err != nil {
		return false
	}
	if opts.OnlyFiles {
		return kind == KindFile
	}
	return kind == KindDir
}

// NormalizePattern приводит шаблон к slash-форме без ведущего "./".
func NormalizePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, "/")
	for strings.HasPrefix(pattern, "./") {
		pattern = strings.TrimPrefix(pattern, "./")
	}
	return pattern
}

// SplitPatterns делит шаблоны на включающие и исключающие ("!").
func SplitPatterns(patterns []string) (include, exclude []string) {
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			exclude = append(exclude, NormalizePattern(strings.TrimPrefix(p, "!")))
			continue
		}
		include = append(include, NormalizePattern(p))
	}
	return include, exclude
}

// Excluded сообщает, подпадает ли путь под один из исключающих шаблонов.
func Excluded(exclude []string, path string) bool {
	path = filepath.ToSlash(path)
	for _, p := range exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Matches сообщает, подходит ли путь (в slash-форме, относительно Cwd)
// под набор шаблонов с учётом исключений.
func Matches(patterns []string, path string) bool {
	include, exclude := SplitPatterns(patterns)
	path = filepath.ToSlash(path)
	if Excluded(exclude, path) {
		return false
	}
	for _, p := range include {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}
