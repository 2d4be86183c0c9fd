// Package metrics wires the scheduler's execution activity into Prometheus
// counters and exposes them, alongside a liveness endpoint, over the same
// small HTTP server pattern as the teacher's healthcheck server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vk/nodeflow/internal/node"
)

// Recorder implements scheduler.Recorder, translating each scheduler event
// into a Prometheus counter increment.
type Recorder struct {
	nodesExecuted      *prometheus.CounterVec
	producerTicks      *prometheus.CounterVec
	validationFailures prometheus.Counter
}

// New registers a fresh set of collectors against reg (pass
// prometheus.NewRegistry() in tests to avoid the global default registry's
// cross-test collisions, or prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		nodesExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Name:      "nodes_executed_total",
			Help:      "Total number of node execution passes, labeled by node kind.",
		}, []string{"kind"}),
		producerTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Name:      "producer_ticks_total",
			Help:      "Total number of on_update ticks observed, labeled by producer node id.",
		}, []string{"producer_id"}),
		validationFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "nodeflow",
			Name:      "validation_failures_total",
			Help:      "Total number of graph validation failures encountered before a run.",
		}),
	}
}

// NodeExecuted implements scheduler.Recorder.
func (r *Recorder) NodeExecuted(nodeID string, kind node.Kind) {
	r.nodesExecuted.WithLabelValues(kind.String()).Inc()
}

// ProducerTick implements scheduler.Recorder.
func (r *Recorder) ProducerTick(producerID string) {
	r.producerTicks.WithLabelValues(producerID).Inc()
}

// ValidationFailed records a rejected graph, called by internal/app before
// a run ever reaches the scheduler.
func (r *Recorder) ValidationFailed() {
	r.validationFailures.Inc()
}
