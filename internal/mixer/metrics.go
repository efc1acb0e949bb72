package mixer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus gauges/counters for one Amplimix instance.
// Adapted from audiocore's MetricsCollector: a lazily-initialized,
// nil-safe collector the hot path can call unconditionally, but with
// direct client_golang types in place of the deleted observability
// package's wrapper (see DESIGN.md).
type Metrics struct {
	enabled bool

	blocksProcessed prometheus.Counter
	underruns       prometheus.Counter
	activeLayers    prometheus.Gauge
	mixDuration     prometheus.Histogram

	mu         sync.RWMutex
	lastUpdate time.Time

	processed atomic.Uint64
	underrun  atomic.Uint64
}

// NewMetrics constructs a Metrics instance and registers its collectors
// with reg. A nil registerer yields a disabled Metrics whose methods are
// all no-ops, for callers (tests, headless tools) that don't want a
// Prometheus registry in play.
func NewMetrics(reg prometheus.Registerer, instance string) *Metrics {
	if reg == nil {
		return &Metrics{enabled: false}
	}

	labels := prometheus.Labels{"instance": instance}
	m := &Metrics{
		enabled: true,
		blocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "amplimix",
			Name:        "blocks_processed_total",
			Help:        "Number of Mix calls completed.",
			ConstLabels: labels,
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "amplimix",
			Name:        "underruns_total",
			Help:        "Number of Mix calls that produced fewer frames than requested.",
			ConstLabels: labels,
		}),
		activeLayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "amplimix",
			Name:        "active_layers",
			Help:        "Layers mixed by the last Mix call.",
			ConstLabels: labels,
		}),
		mixDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "amplimix",
			Name:        "mix_duration_seconds",
			Help:        "Wall-clock time spent in one Mix call.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}

	reg.MustRegister(m.blocksProcessed, m.underruns, m.activeLayers, m.mixDuration)
	return m
}

// RecordBlock records one completed Mix call: its duration, the number
// of active layers mixed, and whether it produced fewer frames than
// requested (an underrun).
func (m *Metrics) RecordBlock(duration time.Duration, activeLayers int, underrun bool) {
	m.processed.Add(1)
	if underrun {
		m.underrun.Add(1)
	}
	if !m.enabled {
		return
	}
	m.mu.Lock()
	m.lastUpdate = time.Now()
	m.mu.Unlock()

	m.blocksProcessed.Inc()
	m.activeLayers.Set(float64(activeLayers))
	m.mixDuration.Observe(duration.Seconds())
	if underrun {
		m.underruns.Inc()
	}
}

// Snapshot is a point-in-time, allocation-free read of the running
// totals, independent of whether Prometheus registration is enabled —
// useful for the health monitor and for tests that don't stand up a
// registry.
type Snapshot struct {
	BlocksProcessed uint64
	Underruns       uint64
	LastUpdate      time.Time
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	last := m.lastUpdate
	m.mu.RUnlock()
	return Snapshot{
		BlocksProcessed: m.processed.Load(),
		Underruns:       m.underrun.Load(),
		LastUpdate:      last,
	}
}
