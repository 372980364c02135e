// Package datadog sends checkpost metrics to a DogStatsD agent.
//
// Metric names keep their Prometheus spelling ("etl_step_total") behind an
// optional namespace; labels travel as sorted "key:value" tags. Step
// durations are histograms.
package datadog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DataDog/datadog-go/v5/statsd"

	"checkpost/internal/metrics"
)

// Config selects the agent and the tags shared by every sample.
type Config struct {
	// Addr is host:port for UDP or unix:///path for a socket.
	Addr string
	// Namespace prefixes every name, e.g. "checkpost.".
	Namespace string
	// GlobalTags such as "env:prod" or "job:checkpost-load".
	GlobalTags []string
}

// Backend implements metrics.Backend. A zero Backend drops everything.
type Backend struct {
	client statsd.ClientInterface
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend dials the agent described by cfg.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("datadog: agent address is empty")
	}
	opts := []statsd.Option{statsd.WithoutTelemetry()}
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}
	client, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: dial %s: %w", cfg.Addr, err)
	}
	return &Backend{client: client}, nil
}

// IncCounter sends a count. Fractional deltas are truncated since DogStatsD
// counts are integral.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client != nil {
		_ = b.client.Count(name, int64(delta), tags(labels), 1)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client != nil {
		_ = b.client.Histogram(name, value, tags(labels), 1)
	}
}

// Flush writes buffered samples to the agent.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Flush()
}

// Close flushes and releases the client.
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

func tags(labels metrics.Labels) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		if v == "" {
			v = "none"
		}
		out = append(out, k+":"+v)
	}
	slices.Sort(out)
	return out
}
