// Package metrics exposes Prometheus counters for analysis runs and price fetches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "regimetrader"

// Recorder owns the counters. A nil *Recorder is valid and records nothing.
type Recorder struct {
	runs          *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
}

// New registers the counters with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Completed analysis runs by regime and strategy label.",
		}, []string{"regime", "strategy"}),
		cacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_requests_total",
			Help:      "Price series cache lookups by result (hit, miss, error).",
		}, []string{"result"}),
		fetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed price series fetches by provider.",
		}, []string{"provider"}),
	}
}

// RecordRun counts one finished pipeline run.
func (r *Recorder) RecordRun(regime, strategy string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(regime, strategy).Inc()
}

// ObserveCache counts one cache lookup. It satisfies provider.CacheObserver.
func (r *Recorder) ObserveCache(result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

// RecordFetchFailure counts one failed fetch.
func (r *Recorder) RecordFetchFailure(provider string) {
	if r == nil {
		return
	}
	r.fetchFailures.WithLabelValues(provider).Inc()
}
