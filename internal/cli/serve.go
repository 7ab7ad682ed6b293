package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/reload"
)

// shutdownTimeout — время на остановку dev-сервера.
const shutdownTimeout = 5 * time.Second

// NewServeCmd создаёт команду serve: dev-сервер без файла проекта.
func NewServeCmd(loggerFn func() *slog.Logger, fsFn func() *fsx.FS) *cobra.Command {
	cfg := reload.DefaultConfig()
	var noReload bool

	cmd := &cobra.Command{
		Use:   "serve [DIR]",
		Short: "Serve a directory with live reload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 1 {
				cfg.Directory = args[0]
			}
			cfg.Reload = !noReload
			cfg.FS = fsFn()
			cfg.Logger = loggerFn()

			srv := reload.New(cfg)
			if err := srv.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&cfg.Host, "host", "", "Host to listen on")
	cmd.Flags().IntVarP(&cfg.Port, "port", "p", reload.DefaultPort, "HTTP port")
	cmd.Flags().StringVar(&cfg.Fallback, "fallback", reload.DefaultFallback, "File served for missing paths")
	cmd.Flags().IntVar(&cfg.ReloadPort, "reload-port", reload.DefaultReloadPort, "WebSocket port for reload events")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "Disable live reload")

	return cmd
}
