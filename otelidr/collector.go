// collector.go: OpenTelemetry integration for idr metrics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otelidr

import (
	"context"
	"errors"

	"github.com/agilira/idr"
	"go.opentelemetry.io/otel/metric"
)

// Compile-time interface check.
var _ idr.MetricsCollector = (*Collector)(nil)

// Collector implements idr.MetricsCollector using OpenTelemetry,
// recording latency histograms for Insert/Remove and counters for
// Get hits/misses, page allocations, and exhaustion events.
//
// Thread-safety: safe for concurrent use; the underlying OTEL
// instruments are themselves thread-safe.
type Collector struct {
	insertLatency metric.Int64Histogram
	removeLatency metric.Int64Histogram
	insertOK      metric.Int64Counter
	insertFailed  metric.Int64Counter
	removeOK      metric.Int64Counter
	removeFailed  metric.Int64Counter
	getHits       metric.Int64Counter
	getMisses     metric.Int64Counter
	pageAllocs    metric.Int64Counter
	exhausted     metric.Int64Counter
}

// Options configures a Collector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/agilira/idr"
	MeterName string
}

// Option is a functional option for configuring a Collector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple Idr instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewCollector creates a Collector backed by provider. provider must
// not be nil.
func NewCollector(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/idr"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	c := &Collector{}

	var err error
	if c.insertLatency, err = meter.Int64Histogram(
		"idr_insert_latency_ns",
		metric.WithDescription("Latency of Insert/VacantEntry operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.removeLatency, err = meter.Int64Histogram(
		"idr_remove_latency_ns",
		metric.WithDescription("Latency of Remove operations in nanoseconds"),
		metric.WithUnit("ns"),
	); err != nil {
		return nil, err
	}
	if c.insertOK, err = meter.Int64Counter(
		"idr_insert_total",
		metric.WithDescription("Total successful Insert operations"),
	); err != nil {
		return nil, err
	}
	if c.insertFailed, err = meter.Int64Counter(
		"idr_insert_exhausted_total",
		metric.WithDescription("Total Insert attempts that found no free slot"),
	); err != nil {
		return nil, err
	}
	if c.removeOK, err = meter.Int64Counter(
		"idr_remove_total",
		metric.WithDescription("Total successful Remove operations"),
	); err != nil {
		return nil, err
	}
	if c.removeFailed, err = meter.Int64Counter(
		"idr_remove_miss_total",
		metric.WithDescription("Total Remove calls on an unknown or stale key"),
	); err != nil {
		return nil, err
	}
	if c.getHits, err = meter.Int64Counter(
		"idr_get_hits_total",
		metric.WithDescription("Total Get/Contains calls that resolved a live key"),
	); err != nil {
		return nil, err
	}
	if c.getMisses, err = meter.Int64Counter(
		"idr_get_misses_total",
		metric.WithDescription("Total Get/Contains calls on an unknown, stale, or forged key"),
	); err != nil {
		return nil, err
	}
	if c.pageAllocs, err = meter.Int64Counter(
		"idr_page_allocations_total",
		metric.WithDescription("Total pages materialized on demand"),
	); err != nil {
		return nil, err
	}
	if c.exhausted, err = meter.Int64Counter(
		"idr_exhausted_total",
		metric.WithDescription("Total times the table was observed completely full"),
	); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordInsert implements idr.MetricsCollector.
func (c *Collector) RecordInsert(latencyNs int64, ok bool) {
	ctx := context.Background()
	c.insertLatency.Record(ctx, latencyNs)
	if ok {
		c.insertOK.Add(ctx, 1)
	} else {
		c.insertFailed.Add(ctx, 1)
	}
}

// RecordRemove implements idr.MetricsCollector.
func (c *Collector) RecordRemove(latencyNs int64, ok bool) {
	ctx := context.Background()
	c.removeLatency.Record(ctx, latencyNs)
	if ok {
		c.removeOK.Add(ctx, 1)
	} else {
		c.removeFailed.Add(ctx, 1)
	}
}

// RecordGet implements idr.MetricsCollector.
func (c *Collector) RecordGet(hit bool) {
	ctx := context.Background()
	if hit {
		c.getHits.Add(ctx, 1)
	} else {
		c.getMisses.Add(ctx, 1)
	}
}

// RecordPageAllocation implements idr.MetricsCollector.
func (c *Collector) RecordPageAllocation(pageNo int) {
	c.pageAllocs.Add(context.Background(), 1)
}

// RecordExhausted implements idr.MetricsCollector.
func (c *Collector) RecordExhausted() {
	c.exhausted.Add(context.Background(), 1)
}
