package domain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation label values.
const (
	opLoad       = "load"
	opClone      = "clone"
	opPersist    = "persist"
	opSubstitute = "substitute"
	opMutant     = "mutant"
)

// Status label values.
const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Metrics records registry and mutant production activity.
type Metrics struct {
	// operations counts registry operations by operation and status.
	operations *prometheus.CounterVec

	// openDebugReaders tracks debug symbol readers acquired and not yet released.
	openDebugReaders prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests and throwaway registries use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vmut",
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Registry operations by operation and status",
		}, []string{"operation", "status"}),
		openDebugReaders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmut",
			Subsystem: "registry",
			Name:      "open_debug_readers",
			Help:      "Debug symbol readers currently held by registered modules",
		}),
	}
}

func (mt *Metrics) record(operation string, err error) {
	status := statusOK
	if err != nil {
		status = statusFailed
	}

	mt.operations.WithLabelValues(operation, status).Inc()
}
