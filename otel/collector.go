// Package otel provides OpenTelemetry integration for xanthos cache metrics.
//
// This package implements the xanthos.MetricsCollector interface using
// OpenTelemetry, enabling observability with automatic percentile
// calculation (p50, p95, p99) and multi-backend support (Prometheus,
// Jaeger, DataDog, Grafana).
//
// # Metrics Exposed
//
//   - xanthos_get_latency_ns: Histogram of lookup latencies in nanoseconds
//   - xanthos_set_latency_ns: Histogram of write latencies in nanoseconds
//   - xanthos_delete_latency_ns: Histogram of removal latencies in nanoseconds
//   - xanthos_get_hits_total: Counter of cache hits
//   - xanthos_get_misses_total: Counter of cache misses
//   - xanthos_evictions_total: Counter of replacement-policy evictions
//   - xanthos_expirations_total: Counter of lifetime-elapsed removals
//
// All metrics are aggregated by the OTEL SDK and can be exported to any
// OTEL-compatible backend; histograms calculate percentiles automatically.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/xanthos"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements xanthos.MetricsCollector using
// OpenTelemetry.
//
// Thread-safety: Safe for concurrent use by multiple goroutines; the
// underlying OTEL instruments are thread-safe and lock-free.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	expirations   metric.Int64Counter
}

// Options for configuring OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/xanthos"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple cache instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates a new OpenTelemetry metrics collector.
//
// Example:
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, err := NewOTelMetricsCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{
		MeterName: "github.com/agilira/xanthos",
	}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.getLatency, err = meter.Int64Histogram(
		"xanthos_get_latency_ns",
		metric.WithDescription("Latency of lookup operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.setLatency, err = meter.Int64Histogram(
		"xanthos_set_latency_ns",
		metric.WithDescription("Latency of write operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.deleteLatency, err = meter.Int64Histogram(
		"xanthos_delete_latency_ns",
		metric.WithDescription("Latency of removal operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.hits, err = meter.Int64Counter(
		"xanthos_get_hits_total",
		metric.WithDescription("Total number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	collector.misses, err = meter.Int64Counter(
		"xanthos_get_misses_total",
		metric.WithDescription("Total number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	collector.evictions, err = meter.Int64Counter(
		"xanthos_evictions_total",
		metric.WithDescription("Total number of replacement-policy evictions"),
	)
	if err != nil {
		return nil, err
	}

	collector.expirations, err = meter.Int64Counter(
		"xanthos_expirations_total",
		metric.WithDescription("Total number of lifetime-elapsed removals"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordGet records a lookup: latency goes to the histogram, the result
// increments either the hits or the misses counter.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordSet records a write operation's latency.
func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

// RecordDelete records a removal's latency.
func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Record(context.Background(), latencyNs)
}

// RecordEviction increments the evictions counter.
func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

// RecordExpiration increments the expirations counter.
func (c *OTelMetricsCollector) RecordExpiration() {
	c.expirations.Add(context.Background(), 1)
}

// Compile-time interface check
var _ xanthos.MetricsCollector = (*OTelMetricsCollector)(nil)
