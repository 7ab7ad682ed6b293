package steps

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shaiso/Kiln/internal/fsx"
)

const (
	// StepTypeCopy — тип шага копирования файлов.
	StepTypeCopy = "copy"

	configFrom = "from"
	configTo   = "to"
	configBase = "base"
)

// CopyStep копирует файлы, найденные по шаблонам, в каталог назначения.
//
// Конфигурация:
//
//	from = ["static/**/*", "!static/**/*.psd"]
//	to   = "build"
//	base = "static"   // префикс, отрезаемый от путей; пусто — пути как есть
//
// Outputs: copied — число скопированных файлов.
type CopyStep struct{}

// NewCopyStep создаёт новый CopyStep.
func NewCopyStep() *CopyStep {
	return &CopyStep{}
}

// Type возвращает тип шага.
func (s *CopyStep) Type() string {
	return StepTypeCopy
}

// Execute копирует файлы.
func (s *CopyStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	from := GetConfigStrings(req.Config, configFrom)
	to := GetConfigString(req.Config, configTo)
	if len(from) == 0 || to == "" {
		return nil, fmt.Errorf("%w: %s: from and to are required", ErrInvalidConfig, StepTypeCopy)
	}
	base := filepath.FromSlash(GetConfigString(req.Config, configBase))

	files, err := req.FS.List(from, fsx.ListOptions{OnlyFiles: true})
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
		}

		rel := filepath.FromSlash(file)
		if base != "" {
			r, err := filepath.Rel(base, rel)
			if err != nil || outside(r) {
				return nil, fmt.Errorf("%w: %s: %s is outside base %s", ErrInvalidConfig, StepTypeCopy, file, base)
			}
			rel = r
		}

		if err := req.FS.Copy(file, filepath.Join(to, rel)); err != nil {
			return nil, err
		}
	}

	req.Logger.Debug("copied files", "count", len(files), "to", to)
	return NewResponse(map[string]any{"copied": len(files)}), nil
}

// outside сообщает, выходит ли относительный путь за пределы base.
func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
