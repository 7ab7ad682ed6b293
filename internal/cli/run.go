package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Kiln/internal/orchestrator"
	"github.com/shaiso/Kiln/internal/project"
)

// NewRunCmd создаёт команду run: задачи выполняются по очереди,
// без аргументов — задача по умолчанию.
func NewRunCmd(projectFn ProjectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run [task...]",
		Short: "Run tasks one after another",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := projectFn(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			if err := checkNames(p, args); err != nil {
				return err
			}

			ok, err := p.Run(ctx, args...)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTasksFailed
			}
			return nil
		},
	}
}

// NewWatchCmd создаёт команду watch: начальный запуск задач, затем
// наблюдение за файлами, dev-сервер и расписания до сигнала остановки.
func NewWatchCmd(projectFn ProjectFunc) *cobra.Command {
	var noInitial bool

	cmd := &cobra.Command{
		Use:   "watch [task...]",
		Short: "Run tasks, then rebuild on changes and serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := projectFn(ctx)
			if err != nil {
				return err
			}

			if err := checkNames(p, args); err != nil {
				p.Close()
				return err
			}

			if !noInitial {
				// Неудачный начальный запуск не мешает наблюдению.
				if _, err := p.Run(ctx, args...); err != nil {
					p.Close()
					return err
				}
			}

			return p.Watch(ctx)
		},
	}

	cmd.Flags().BoolVar(&noInitial, "no-initial", false, "Skip the initial run")

	return cmd
}

func checkNames(p *project.Project, names []string) error {
	for _, name := range names {
		if _, ok := p.Orchestrator().Task(name); !ok {
			return fmt.Errorf("%w: %s", orchestrator.ErrTaskNotFound, name)
		}
	}
	return nil
}
