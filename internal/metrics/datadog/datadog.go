// Package datadog emits run metrics over dogstatsd.
package datadog

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"txnpipe/internal/metrics"
)

// Backend implements metrics.Backend over a statsd client.
type Backend struct {
	client *statsd.Client
}

// New dials the dogstatsd agent at addr, e.g. "127.0.0.1:8125".
func New(addr string) (*Backend, error) {
	client, err := statsd.New(addr)
	if err != nil {
		return nil, fmt.Errorf("dial dogstatsd %s: %w", addr, err)
	}
	return &Backend{client: client}, nil
}

func tags(labels metrics.Labels) []string {
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, k+":"+v)
	}
	return out
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	_ = b.client.Count(name, int64(delta), tags(labels), 1)
}

func (b *Backend) ObserveDuration(name string, value float64, labels metrics.Labels) {
	_ = b.client.Timing(name, time.Duration(value*float64(time.Second)), tags(labels), 1)
}

// Flush drains the client buffer and closes the socket.
func (b *Backend) Flush() error {
	return b.client.Close()
}
