// doc.go: package documentation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package otelidr provides an OpenTelemetry-backed idr.MetricsCollector.
//
// It is a separate module so that applications which don't need metrics
// don't pay for the OTEL SDK dependency; the core idr module only
// depends on its own no-op default.
//
// # Usage
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := otelidr.NewCollector(provider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	table, err := idr.New[*Session](idr.Config{
//	    InitialPageSize:  32,
//	    MaxPages:         27,
//	    MetricsCollector: collector,
//	})
//
// # Metrics exposed
//
// Histograms:
//   - idr_insert_latency_ns
//   - idr_remove_latency_ns
//
// Counters:
//   - idr_insert_total / idr_insert_exhausted_total
//   - idr_remove_total / idr_remove_miss_total
//   - idr_get_hits_total / idr_get_misses_total
//   - idr_page_allocations_total
//   - idr_exhausted_total
//
// All instruments are thread-safe; Collector may be shared across
// every Idr instance an application constructs, or given a distinct
// WithMeterName per instance.
package otelidr
