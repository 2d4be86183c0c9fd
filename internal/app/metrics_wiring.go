package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vk/nodeflow/internal/metrics"
)

func metricsRecorderFor(a *App) *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

func newMetricsServer(a *App) *metrics.Server {
	return metrics.NewServer(a.config.MetricsPort, a.logger)
}
