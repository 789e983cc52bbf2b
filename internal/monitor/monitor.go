// Package monitor tracks search latency, cache hit rate and error rate.
//
// A Monitor holds cumulative counters only; rates are plain ratios with no
// windowing. It is constructed explicitly and passed to the search client,
// and it doubles as a prometheus.Collector so the same numbers can be
// scraped from /metrics.
package monitor

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "contentsearch"

// Stats is a point-in-time snapshot of the monitor
type Stats struct {
	TotalSearches   int64   `json:"totalSearches"`
	AvgResponseTime float64 `json:"avgResponseTime"` // milliseconds
	CacheHitRate    float64 `json:"cacheHitRate"`
	ErrorRate       float64 `json:"errorRate"`
}

// Monitor accumulates search metrics. Safe for concurrent use.
type Monitor struct {
	mu          sync.Mutex
	searchCount int64
	totalTimeMs float64
	cacheHits   int64
	errors      int64

	searchesDesc  *prometheus.Desc
	cacheHitsDesc *prometheus.Desc
	errorsDesc    *prometheus.Desc
	timeDesc      *prometheus.Desc
	avgDesc       *prometheus.Desc
}

// New creates a Monitor with zeroed counters
func New() *Monitor {
	return &Monitor{
		searchesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "searches_total"),
			"Total number of completed searches", nil, nil),
		cacheHitsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "cache_hits_total"),
			"Searches answered from a cache", nil, nil),
		errorsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "errors_total"),
			"Searches that failed", nil, nil),
		timeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "search_time_ms_total"),
			"Cumulative search time in milliseconds", nil, nil),
		avgDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "avg_response_time_ms"),
			"Mean search time in milliseconds", nil, nil),
	}
}

// RecordSearch records one completed search
func (m *Monitor) RecordSearch(d time.Duration, fromCache bool) {
	ms := float64(d) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.searchCount++
	m.totalTimeMs += ms
	if fromCache {
		m.cacheHits++
	}
}

// RecordError records one failed search
func (m *Monitor) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// Stats returns the current ratios
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{TotalSearches: m.searchCount}
	if m.searchCount > 0 {
		n := float64(m.searchCount)
		s.AvgResponseTime = m.totalTimeMs / n
		s.CacheHitRate = float64(m.cacheHits) / n
		s.ErrorRate = float64(m.errors) / n
	}
	return s
}

// Reset zeroes every counter
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.searchCount = 0
	m.totalTimeMs = 0
	m.cacheHits = 0
	m.errors = 0
	m.mu.Unlock()
}

// Describe implements prometheus.Collector
func (m *Monitor) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.searchesDesc
	ch <- m.cacheHitsDesc
	ch <- m.errorsDesc
	ch <- m.timeDesc
	ch <- m.avgDesc
}

// Collect implements prometheus.Collector. Counters are reported as they
// stand, so a Reset shows up as a counter reset to the scraper.
func (m *Monitor) Collect(ch chan<- prometheus.Metric) {
	m.mu.Lock()
	searches := m.searchCount
	hits := m.cacheHits
	errs := m.errors
	totalMs := m.totalTimeMs
	m.mu.Unlock()

	avg := 0.0
	if searches > 0 {
		avg = totalMs / float64(searches)
	}

	ch <- prometheus.MustNewConstMetric(m.searchesDesc, prometheus.CounterValue, float64(searches))
	ch <- prometheus.MustNewConstMetric(m.cacheHitsDesc, prometheus.CounterValue, float64(hits))
	ch <- prometheus.MustNewConstMetric(m.errorsDesc, prometheus.CounterValue, float64(errs))
	ch <- prometheus.MustNewConstMetric(m.timeDesc, prometheus.CounterValue, totalMs)
	ch <- prometheus.MustNewConstMetric(m.avgDesc, prometheus.GaugeValue, avg)
}

var _ prometheus.Collector = (*Monitor)(nil)
