package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Kind — результат проверки существования пути.
type Kind string

const (
	KindAbsent Kind = ""
	KindFile   Kind = "file"
	KindDir    Kind = "dir"
)

// FS — файловые операции относительно корня Cwd.
type FS struct {
	Cwd string
}

// New создаёт FS. Пустой cwd означает рабочий каталог процесса.
func New(cwd string) *FS {
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	abs, err := filepath.Abs(cwd)
	if err == nil {
		cwd = abs
	}
	return &FS{Cwd: cwd}
}

// Resolve превращает путь в абсолютный относительно Cwd.
func (f *FS) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(f.Cwd, path)
}

// Exists сообщает, чем является путь: файлом, каталогом или ничем.
// Символические ссылки разыменовываются.
func (f *FS) Exists(path string) (Kind, error) {
	info, err := os.Stat(f.Resolve(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return KindAbsent, nil
		}
		return KindAbsent, err
	}
	if info.IsDir() {
		return KindDir, nil
	}
	if info.Mode().IsRegular() {
		return KindFile, nil
	}
	// Сокеты, устройства и т.п. не считаем файлами.
	return KindAbsent, nil
}

// Read читает файл как строку.
func (f *FS) Read(path string) (string, error) {
	data, err := f.ReadRaw(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadRaw читает файл как байты.
func (f *FS) ReadRaw(path string) ([]byte, error) {
	data, err := os.ReadFile(f.Resolve(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Write записывает файл, создавая недостающие каталоги.
func (f *FS) Write(path string, data []byte) error {
	full := f.Resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Edit читает файл, применяет fn и записывает результат обратно.
func (f *FS) Edit(path string, fn func(string) (string, error)) error {
	data, err := f.Read(path)
	if err != nil {
		return err
	}
	out, err := fn(data)
	if err != nil {
		return fmt.Errorf("edit %s: %w", path, err)
	}
	return f.Write(path, []byte(out))
}

// CreateDir создаёт каталог со всеми родителями.
func (f *FS) CreateDir(path string) error {
	if err := os.MkdirAll(f.Resolve(path), 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", path, err)
	}
	return nil
}

// CreateTempDir создаёт временный каталог с префиксом kiln-.
func (f *FS) CreateTempDir() (string, error) {
	dir, err := os.MkdirTemp("", "kiln-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	return dir, nil
}

// Remove удаляет файл или каталог рекурсивно. Отсутствие пути не ошибка.
func (f *FS) Remove(path string) error {
	if err := os.RemoveAll(f.Resolve(path)); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Rename переименовывает (перемещает) путь.
func (f *FS) Rename(source, target string) error {
	if err := os.Rename(f.Resolve(source), f.Resolve(target)); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", source, target, err)
	}
	return nil
}

// Copy копирует файл или каталог рекурсивно с перезаписью.
// Символические ссылки копируются как их содержимое.
func (f *FS) Copy(source, target string) error {
	src := f.Resolve(source)
	dst := f.Resolve(target)

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", source, err)
	}
	if src == dst {
		return fmt.Errorf("copy %s: %w", source, ErrSameFile)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(info, dstInfo) {
		return fmt.Errorf("copy %s -> %s: %w", source, target, ErrSameFile)
	}

	if !info.IsDir() {
		return copyFile(src, dst, info.Mode())
	}

	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)

		// Stat, а не d.Info(): ссылки разыменовываем.
		st, err := os.Stat(p)
		if err != nil {
			return err
		}
		if st.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		return copyFile(p, out, st.Mode())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return out.Close()
}
