// Package rpcmetrics tracks the lightweight counters surfaced by the
// status request: total requests served, cache hit rate, and average
// request latency.
package rpcmetrics

import (
	"sync"
	"time"
)

// Metrics accumulates request counts and latency for the status response.
type Metrics struct {
	mu sync.Mutex

	requestsTotal int64
	totalLatency  time.Duration

	cacheHits   int64
	cacheLookups int64
}

// New returns a zeroed Metrics.
func New() *Metrics { return &Metrics{} }

// Observe records the latency of one completed request.
func (m *Metrics) Observe(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestsTotal++
	m.totalLatency += d
}

// RecordCacheLookup records a project-cache lookup and whether it hit.
func (m *Metrics) RecordCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheLookups++
	if hit {
		m.cacheHits++
	}
}

// Snapshot is a point-in-time read of the accumulated counters.
type Snapshot struct {
	RequestsTotal uint64
	CacheHitRate  float64
	AvgLatencyMs  int64
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avgMs int64
	if m.requestsTotal > 0 {
		avgMs = (m.totalLatency / time.Duration(m.requestsTotal)).Milliseconds()
	}
	var hitRate float64
	if m.cacheLookups > 0 {
		hitRate = float64(m.cacheHits) / float64(m.cacheLookups)
	}
	return Snapshot{
		RequestsTotal: uint64(m.requestsTotal),
		CacheHitRate:  hitRate,
		AvgLatencyMs:  avgMs,
	}
}
