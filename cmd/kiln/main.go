// Kiln — оркестратор задач для разработки: запускает задачи из файла
// проекта, пересобирает их при изменении файлов и раздаёт результат
// с автоматической перезагрузкой браузера.
//
// Использование:
//
//	kiln [--file PATH] [--cwd DIR] [--debug|--silent] <command> [flags]
//
// Команды:
//
//	run    Запустить задачи по очереди
//	watch  Запустить задачи и следить за изменениями
//	list   Показать задачи и алиасы
//	serve  Раздать каталог с live reload
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Kiln/internal/cli"
	"github.com/shaiso/Kiln/internal/fsx"
	"github.com/shaiso/Kiln/internal/project"
	"github.com/shaiso/Kiln/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

var startTime = time.Now()

func main() {
	var (
		file        string
		cwd         string
		debug       bool
		silent      bool
		logFormat   string
		metricsAddr string
		jsonOutput  bool
	)

	var logger *slog.Logger

	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Kiln — development task orchestrator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := telemetry.LogLevel()
			if debug {
				level = slog.LevelDebug
			}
			logger = telemetry.NewLogger(telemetry.Options{
				Format: logFormat,
				Level:  level,
				Silent: silent,
			})
			slog.SetDefault(logger)

			if metricsAddr != "" {
				startMetrics(cmd.Context(), metricsAddr, logger)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&file, "file", "f", os.Getenv("KILN_FILE"), "Project file (default: kiln.toml, kiln.yaml or kiln.yml in --cwd)")
	flags.StringVar(&cwd, "cwd", "", "Working directory")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&silent, "silent", false, "Disable all logging")
	flags.StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", telemetry.FormatConsole), "Log format: console, text or json")
	flags.StringVar(&metricsAddr, "metrics-addr", os.Getenv("KILN_METRICS_ADDR"), "Address for /metrics and /healthz (disabled when empty)")

	loggerFn := func() *slog.Logger { return logger }
	fsFn := func() *fsx.FS { return fsx.New(cwd) }
	projectFn := func(ctx context.Context) (*project.Project, error) {
		return cli.Loader{File: file, Cwd: cwd, Logger: logger}.Load(ctx)
	}
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	listCmd := cli.NewListCmd(projectFn, outputFn)
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		cli.NewRunCmd(projectFn),
		cli.NewWatchCmd(projectFn),
		listCmd,
		cli.NewServeCmd(loggerFn, fsFn),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !errors.Is(err, cli.ErrTasksFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// startMetrics поднимает /metrics и /healthz на addr до отмены ctx.
func startMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
