// Package metrics registers the counters and histograms the engine
// updates as it serves operations: per-operation counts and latencies,
// catalog CAS conflicts, chosen query execution mode, and unique-
// violation rejections. Mounting a /metrics HTTP handler against the
// registry is left to the caller, the same boundary the core draws
// around logging.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors the engine updates. Construct with New and
// pass the Registry to your own promhttp.Handler.
type Metrics struct {
	Registry *prometheus.Registry

	OperationTotal    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CatalogConflicts  prometheus.Counter
	CatalogRetries    prometheus.Counter
	QueryModeTotal    *prometheus.CounterVec
	UniqueViolations  *prometheus.CounterVec
}

// New registers and returns a fresh set of collectors against a new
// registry, namespaced under "stormidb".
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		OperationTotal: createCounterVec(reg, "stormidb", "operation_total",
			"Count of engine operations by name and outcome.", []string{"operation", "outcome"}),
		OperationDuration: createHistogramVec(reg, "stormidb", "operation_duration_seconds",
			"Latency of engine operations by name.", []string{"operation"}, prometheus.DefBuckets),
		CatalogConflicts: createCounter(reg, "stormidb", "catalog_conflicts_total",
			"Count of catalog CAS conflicts that exhausted the retry budget."),
		CatalogRetries: createCounter(reg, "stormidb", "catalog_retries_total",
			"Count of catalog CAS retry attempts."),
		QueryModeTotal: createCounterVec(reg, "stormidb", "query_mode_total",
			"Count of queries executed by chosen planner mode.", []string{"mode"}),
		UniqueViolations: createCounterVec(reg, "stormidb", "unique_violations_total",
			"Count of writes rejected by a unique-field probe.", []string{"collection", "field"}),
	}
	return m
}

func createCounterVec(reg *prometheus.Registry, namespace, name, help string, labels []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	reg.MustRegister(cv)
	return cv
}

func createCounter(reg *prometheus.Registry, namespace, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
	reg.MustRegister(c)
	return c
}

func createHistogramVec(reg *prometheus.Registry, namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
	reg.MustRegister(hv)
	return hv
}
