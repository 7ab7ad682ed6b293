package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/Kiln/internal/fsx"
)

const (
	// StepTypeWrite — тип шага записи файла.
	StepTypeWrite = "write"

	configPath    = "path"
	configContent = "content"
	configAppend  = "append"
)

// WriteStep записывает файл из шаблона.
//
// Конфигурация:
//
//	path    = "build/version.txt"
//	content = "{{ .Task }} built at {{ .Now.Format \"15:04:05\" }}"
//	append  = false
//
// Outputs: bytes — размер записанного содержимого.
type WriteStep struct{}

// NewWriteStep создаёт новый WriteStep.
func NewWriteStep() *WriteStep {
	return &WriteStep{}
}

// Type возвращает тип шага.
func (s *WriteStep) Type() string {
	return StepTypeWrite
}

// Execute рендерит содержимое и пишет файл.
func (s *WriteStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}

	path := GetConfigString(req.Config, configPath)
	if path == "" {
		return nil, fmt.Errorf("%w: %s: path is required", ErrInvalidConfig, StepTypeWrite)
	}

	content, err := Render(GetConfigString(req.Config, configContent), NewTemplateData(req))
	if err != nil {
		return nil, err
	}

	kind, _ := req.FS.Exists(path)
	if GetConfigBool(req.Config, configAppend, false) && kind == fsx.KindFile {
		err = req.FS.Edit(path, func(old string) (string, error) {
			return old + content, nil
		})
	} else {
		err = req.FS.Write(path, []byte(content))
	}
	if err != nil {
		return nil, err
	}

	return NewResponse(map[string]any{"bytes": len(content)}), nil
}
