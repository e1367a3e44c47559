// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rmmetrics instruments the decision state machine and dependency
// container with OpenTelemetry metrics and tracing, exported through
// Prometheus — the same stack router/metrics.go and router/tracing.go wire
// up for the HTTP router this module is grounded on (SPEC_FULL.md §4).
//
// The core never ships a metrics backend (spec.md §1 Non-goals): Recorder
// only talks to the OpenTelemetry API. Wiring an actual exporter (the
// Prometheus HTTP handler, an OTLP pipeline) is the embedding
// application's job, exactly as router/metrics.go's WithMetrics option
// leaves exporter selection to the caller.
package rmmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Recorder records decision-machine and container observability signals.
// The zero value is a no-op recorder (every method is nil-receiver safe).
type Recorder struct {
	meter  metric.Meter
	tracer trace.Tracer

	nodeDuration  metric.Float64Histogram
	diCacheHits   metric.Int64Counter
	diCacheMisses metric.Int64Counter
	terminal      metric.Int64Counter
}

// New builds a Recorder against an already-configured MeterProvider/
// TracerProvider. Applications typically obtain these from
// go.opentelemetry.io/otel/sdk/metric and .../sdk/trace, wired to a
// Prometheus exporter (go.opentelemetry.io/otel/exporters/prometheus), the
// same composition router/metrics.go documents for WithMetrics.
func New(mp metric.MeterProvider, tp trace.TracerProvider) (*Recorder, error) {
	r := &Recorder{
		meter:  mp.Meter("restmachine"),
		tracer: tp.Tracer("restmachine"),
	}
	var err error
	if r.nodeDuration, err = r.meter.Float64Histogram(
		"restmachine.decision_node.duration",
		metric.WithDescription("Wall time spent in a single decision node"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if r.diCacheHits, err = r.meter.Int64Counter(
		"restmachine.container.cache_hits",
		metric.WithDescription("Dependency resolutions served from cache, by scope"),
	); err != nil {
		return nil, err
	}
	if r.diCacheMisses, err = r.meter.Int64Counter(
		"restmachine.container.cache_misses",
		metric.WithDescription("Dependency resolutions that invoked a producer, by scope"),
	); err != nil {
		return nil, err
	}
	if r.terminal, err = r.meter.Int64Counter(
		"restmachine.requests.total",
		metric.WithDescription("Terminal responses produced by the decision machine, by status"),
	); err != nil {
		return nil, err
	}
	return r, nil
}

// StartRequest opens a span covering one Application.execute call
// (SPEC_FULL.md §4 "an OpenTelemetry span per execute() call").
func (r *Recorder) StartRequest(ctx context.Context, method, template string) (context.Context, trace.Span) {
	if r == nil || r.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return r.tracer.Start(ctx, "restmachine.execute",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", template),
		),
	)
}

// RecordNode records one decision node's execution as an event on the
// request span plus a duration histogram sample, grounded on
// router/tracing.go's per-middleware span pattern.
func (r *Recorder) RecordNode(ctx context.Context, name string, start time.Time) {
	if r == nil {
		return
	}
	if r.nodeDuration != nil {
		r.nodeDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
			metric.WithAttributes(attribute.String("node", name)))
	}
	if span := trace.SpanFromContext(ctx); span != nil {
		span.AddEvent(name)
	}
}

// RecordCache records a dependency-resolution cache hit or miss.
func (r *Recorder) RecordCache(ctx context.Context, scope string, hit bool) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("scope", scope))
	if hit {
		if r.diCacheHits != nil {
			r.diCacheHits.Add(ctx, 1, attrs)
		}
		return
	}
	if r.diCacheMisses != nil {
		r.diCacheMisses.Add(ctx, 1, attrs)
	}
}

// RecordTerminal records the final status code of a request.
func (r *Recorder) RecordTerminal(ctx context.Context, status int) {
	if r == nil || r.terminal == nil {
		return
	}
	r.terminal.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
}
