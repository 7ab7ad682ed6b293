package cli

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/shaiso/Kiln/internal/config"
	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/project"
)

// ErrTasksFailed — хотя бы одна из запущенных задач завершилась неудачно.
var ErrTasksFailed = errors.New("some tasks failed")

// ProjectFunc лениво собирает проект после разбора флагов.
type ProjectFunc func(ctx context.Context) (*project.Project, error)

// Loader находит файл проекта и собирает из него Project.
type Loader struct {
	// File — явный путь к файлу проекта; пусто означает поиск в Cwd.
	File string
	// Cwd — каталог поиска; пусто означает рабочий каталог процесса.
	Cwd    string
	Logger *slog.Logger
}

// Load читает файл проекта и собирает оркестратор. Корнем проекта
// считается каталог файла.
func (l Loader) Load(ctx context.Context) (*project.Project, error) {
	root := fsx.New(l.Cwd)

	path := l.File
	if path == "" {
		found, err := config.Find(root.Cwd)
		if err != nil {
			return nil, err
		}
		path = found
	} else {
		path = root.Resolve(path)
	}

	f, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("loaded project file", "path", path, "tasks", len(f.Tasks), "aliases", len(f.Aliases))

	return project.Build(f, project.Deps{
		Logger:      logger,
		FS:          fsx.New(filepath.Dir(path)),
		BaseContext: ctx,
	})
}
