package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/shaiso/Kiln/internal/fsx"
)

// ErrNoPatterns — не задано ни одного включающего шаблона.
var ErrNoPatterns = errors.New("no watch patterns")

// Config — параметры наблюдения.
type Config struct {
	// Cwd — корень, относительно которого заданы шаблоны.
	Cwd string
	// Patterns — doublestar-шаблоны, относительные или абсолютные;
	// "!" в начале исключает.
	Patterns []string
	Logger   *slog.Logger
}

// Watcher — запущенное наблюдение.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string
	// patterns и exclude привязаны к root и сравниваются с абсолютными
	// путями в slash-форме.
	patterns []string
	exclude  []string
	fn       func()
	logger   *slog.Logger

	mu      sync.Mutex
	watched map[string]struct{}

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Watch начинает наблюдение. fn вызывается один раз после готовности и
// затем на каждое подходящее событие; вызовы идут из одной горутины,
// поэтому fn не должна блокироваться надолго.
func Watch(ctx context.Context, cfg Config, fn func()) (*Watcher, error) {
	include, exclude := fsx.SplitPatterns(cfg.Patterns)
	if len(include) == 0 {
		return nil, ErrNoPatterns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	root := fsx.New(cfg.Cwd).Cwd
	for i, p := range include {
		include[i] = anchor(root, p)
	}
	patterns := append([]string(nil), include...)
	for i, p := range exclude {
		exclude[i] = anchor(root, p)
		patterns = append(patterns, "!"+exclude[i])
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		patterns: patterns,
		exclude:  exclude,
		fn:       fn,
		logger:   logger.With("component", "watcher"),
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}

	for _, p := range include {
		if err := w.addRecursive(w.baseDir(p)); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.loop(ctx)

	w.logger.Debug("watching", "patterns", cfg.Patterns, "dirs", w.Count())
	return w, nil
}

// Count возвращает число наблюдаемых каталогов.
func (w *Watcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Close останавливает наблюдение и дожидается выхода горутины.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// anchor делает относительный шаблон абсолютным относительно root;
// абсолютные шаблоны остаются как есть, как в fsx.List.
func anchor(root, pattern string) string {
	if filepath.IsAbs(filepath.FromSlash(pattern)) {
		return pattern
	}
	return path.Join(filepath.ToSlash(root), pattern)
}

// baseDir возвращает ближайший существующий каталог статического
// префикса привязанного шаблона.
func (w *Watcher) baseDir(pattern string) string {
	base, _ := doublestar.SplitPattern(pattern)
	dir := filepath.Clean(filepath.FromSlash(base))
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return w.root
		}
		dir = parent
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Каталог мог исчезнуть между событием и обходом.
			if p != dir {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && w.excluded(p) {
			return filepath.SkipDir
		}
		return w.add(p)
	})
}

func (w *Watcher) add(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.watched[dir]; ok {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.watched[dir] = struct{}{}
	return nil
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, path)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) excluded(path string) bool {
	return fsx.Excluded(w.exclude, filepath.ToSlash(path))
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	w.fn()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// Смена прав не считается изменением содержимого.
	if ev.Op == fsnotify.Chmod {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.excluded(ev.Name) {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("watch new directory failed", "path", ev.Name, "error", err)
			}
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		w.forget(ev.Name)
	}

	if !fsx.Matches(w.patterns, filepath.ToSlash(ev.Name)) {
		return
	}

	w.logger.Debug("file changed", "path", w.rel(ev.Name), "op", ev.Op.String())
	w.fn()
}
