package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Acquisition instruments the outbound helpdesk API pipeline. A nil
// receiver disables all recording, so callers never need to guard.
type Acquisition struct {
	requests       *prometheus.CounterVec
	retries        prometheus.Counter
	globalBackoffs prometheus.Counter
	pageFailures   prometheus.Counter
	cacheLookups   *prometheus.CounterVec
	reportDuration prometheus.Observer
}

// NewAcquisition registers the acquisition collectors on the given registry.
func NewAcquisition(reg prometheus.Registerer) *Acquisition {
	factory := promauto.With(reg)
	return &Acquisition{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "acquisition",
			Name:      "requests_total",
			Help:      "Outbound helpdesk API requests, labeled by outcome",
		}, []string{"outcome"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "acquisition",
			Name:      "retries_total",
			Help:      "Retry attempts after transient failures",
		}),
		globalBackoffs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "acquisition",
			Name:      "global_backoffs_total",
			Help:      "Times the shared request queue was paused by a quota signal",
		}),
		pageFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "acquisition",
			Name:      "search_page_failures_total",
			Help:      "Search pages that degraded to an empty result",
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "cache",
			Name:      "thread_lookups_total",
			Help:      "Conversation-thread cache lookups, labeled hit or miss",
		}, []string{"result"}),
		reportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "helpdesk_metrics",
			Subsystem: "report",
			Name:      "generation_duration_seconds",
			Help:      "Duration of full report generations",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// RecordRequest counts one finished outbound request.
func (m *Acquisition) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// RecordRetry counts one retry attempt.
func (m *Acquisition) RecordRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// RecordGlobalBackoff counts one shared-queue pause.
func (m *Acquisition) RecordGlobalBackoff() {
	if m == nil {
		return
	}
	m.globalBackoffs.Inc()
}

// RecordPageFailure counts one search page degraded to empty.
func (m *Acquisition) RecordPageFailure() {
	if m == nil {
		return
	}
	m.pageFailures.Inc()
}

// RecordCacheLookup counts one thread-cache lookup.
func (m *Acquisition) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveReportDuration records one report generation duration in seconds.
func (m *Acquisition) ObserveReportDuration(seconds float64) {
	if m == nil {
		return
	}
	m.reportDuration.Observe(seconds)
}
