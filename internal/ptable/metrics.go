package ptable

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are per-engine Prometheus instruments, registered once and shared
// across ProcessBatch calls. Naming follows the teacher's
// <namespace>_<subsystem>_<metric> convention.
type Metrics struct {
	BatchesProcessed prometheus.Counter
	NotifyOutcomes   *prometheus.CounterVec
	MappingSize      prometheus.Gauge
	ComputeErrors    *prometheus.CounterVec
}

// NewMetrics registers a fresh set of instruments under the given engine
// name label. Use a distinct name per Engine instance sharing a process to
// avoid duplicate-registration panics from promauto.
func NewMetrics(reg prometheus.Registerer, engineName string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name:        "ptable_engine_batches_processed_total",
			Help:        "Total batches processed by the engine.",
			ConstLabels: prometheus.Labels{"engine": engineName},
		}),
		NotifyOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "ptable_engine_notify_outcomes_total",
			Help:        "Batch notify outcomes, by result.",
			ConstLabels: prometheus.Labels{"engine": engineName},
		}, []string{"result"}),
		MappingSize: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "ptable_engine_mapping_size",
			Help:        "Current number of live primary keys in the master table.",
			ConstLabels: prometheus.Labels{"engine": engineName},
		}),
		ComputeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "ptable_engine_computed_column_errors_total",
			Help:        "Computed column evaluation errors, by column name.",
			ConstLabels: prometheus.Labels{"engine": engineName},
		}, []string{"column"}),
	}
}
