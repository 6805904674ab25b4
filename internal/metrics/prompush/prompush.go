// Package prompush ships run metrics to a Prometheus Pushgateway. Batch jobs
// are gone before a scrape would find them, so everything is registered
// locally and pushed once on Flush.
package prompush

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"txnpipe/internal/metrics"
)

// Backend implements metrics.Backend on top of a push registry.
type Backend struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	pusher   *push.Pusher
	counters map[string]*prometheus.CounterVec
	summary  map[string]*prometheus.SummaryVec
}

// New returns a backend that pushes to the gateway at url under the given
// job name when Flush is called.
func New(url, job string) *Backend {
	reg := prometheus.NewRegistry()
	return &Backend{
		registry: reg,
		pusher:   push.New(url, job).Gatherer(reg),
		counters: make(map[string]*prometheus.CounterVec),
		summary:  make(map[string]*prometheus.SummaryVec),
	}
}

func labelKeys(labels metrics.Labels) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	vec, ok := b.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelKeys(labels))
		b.registry.MustRegister(vec)
		b.counters[name] = vec
	}
	b.mu.Unlock()
	vec.With(prometheus.Labels(labels)).Add(delta)
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	b.mu.Lock()
	vec, ok := b.summary[name]
	if !ok {
		vec = prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: name}, labelKeys(labels))
		b.registry.MustRegister(vec)
		b.summary[name] = vec
	}
	b.mu.Unlock()
	vec.With(prometheus.Labels(labels)).Observe(value)
}

// Flush pushes the accumulated registry to the gateway.
func (b *Backend) Flush() error {
	return b.pusher.Add()
}
