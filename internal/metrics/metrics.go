// Package metrics wires the counters this library exposes into
// prometheus/client_golang, matching the teacher's
// internal/metrics.Collector style of registering a fixed set of
// named counters up front rather than creating them ad hoc. Every
// counter here satisfies internal/keys.Counter, so the signing
// packages never import prometheus directly.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters produced while signing: derivation
// cache effectiveness and streaming signature volume.
type Metrics struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	ChunksSigned prometheus.Counter
	EventsSigned prometheus.Counter
}

// New registers a fresh counter set with reg. Passing nil uses
// prometheus.DefaultRegisterer, matching the teacher's collector
// defaulting to the global registry when the caller supplies none.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigv4",
			Subsystem: "derivation_cache",
			Name:      "hits_total",
			Help:      "Signing key derivation cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigv4",
			Subsystem: "derivation_cache",
			Name:      "misses_total",
			Help:      "Signing key derivation cache misses.",
		}),
		ChunksSigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigv4",
			Subsystem: "chunked",
			Name:      "chunks_signed_total",
			Help:      "S3 chunked-upload chunks signed.",
		}),
		EventsSigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigv4",
			Subsystem: "eventstream",
			Name:      "events_signed_total",
			Help:      "Event-stream messages signed.",
		}),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.ChunksSigned, m.EventsSigned)
	return m
}
