package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Статусы выполнения задач для меток метрик.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

var (
	// TaskRuns — количество завершённых выполнений задач.
	TaskRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiln_task_runs_total",
		Help: "Total task executions by outcome",
	}, []string{"task", "status"})

	// TaskDuration — длительность выполнения задач.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kiln_task_duration_seconds",
		Help:    "Task execution duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"task"})

	// TaskRunning — количество выполняющихся прямо сейчас задач.
	TaskRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kiln_task_running",
		Help: "Task executions currently in progress",
	}, []string{"task"})

	// ReloadBroadcasts — количество рассылок сигнала reload.
	ReloadBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kiln_reload_broadcasts_total",
		Help: "Total reload broadcasts sent to connected browsers",
	})

	// ReloadClients — количество подключённых к reload-каналу браузеров.
	ReloadClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kiln_reload_clients",
		Help: "Browsers currently connected to the reload channel",
	})

	// HTTPRequests — запросы к dev-серверу по статусу ответа.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kiln_http_requests_total",
		Help: "Total HTTP requests handled by the dev server",
	}, []string{"status"})
)
