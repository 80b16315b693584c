// Package perf records request and query timings as Prometheus metrics.
package perf

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing observation.
type Entry struct {
	Kind       EntryKind
	Path       string // route pattern or SQL operation
	Method     string // HTTP method (empty for queries)
	StatusCode int    // HTTP status (0 for queries)
	Duration   time.Duration
}

// Collector owns the Prometheus instruments for the service.
// A nil *Collector is valid and records nothing.
type Collector struct {
	requestDuration *prometheus.HistogramVec
	queryDuration   *prometheus.HistogramVec
	waiverSubmitted *prometheus.CounterVec
	waiverDecided   *prometheus.CounterVec
	count           atomic.Int64
}

// NewCollector registers the instruments with registry.
// PRE: registry is non-nil and has not seen these metric names
// POST: Returns a ready-to-use collector
func NewCollector(registry prometheus.Registerer) *Collector {
	factory := promauto.With(registry)
	return &Collector{
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rollcall_sql_query_duration_seconds",
			Help:    "SQL call latency by database/sql operation",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		waiverSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_waiver_submissions_total",
			Help: "Waiver submissions by outcome",
		}, []string{"outcome"}),
		waiverDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_waiver_decisions_total",
			Help: "Waiver decisions by decision and outcome",
		}, []string{"decision", "outcome"}),
	}
}

// Record observes a timing entry.
// PRE: e.Duration >= 0
// POST: the matching histogram has one more sample
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.count.Add(1)
	switch e.Kind {
	case KindRequest:
		c.requestDuration.WithLabelValues(e.Method, e.Path, strconv.Itoa(e.StatusCode)).Observe(e.Duration.Seconds())
	case KindQuery:
		c.queryDuration.WithLabelValues(e.Path).Observe(e.Duration.Seconds())
	}
}

// WaiverSubmitted counts a submission attempt.
func (c *Collector) WaiverSubmitted(outcome string) {
	if c == nil {
		return
	}
	c.waiverSubmitted.WithLabelValues(outcome).Inc()
}

// WaiverDecided counts a decision attempt.
func (c *Collector) WaiverDecided(decision, outcome string) {
	if c == nil {
		return
	}
	c.waiverDecided.WithLabelValues(decision, outcome).Inc()
}

// TotalRecorded returns the total number of timing entries ever recorded.
// PRE: none
// POST: returns count >= 0
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	return c.count.Load()
}
