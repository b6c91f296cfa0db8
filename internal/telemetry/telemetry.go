// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry wires OpenTelemetry tracing and metrics for the agent server.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/go-a2a/taskagent"

// Trace exporters.
const (
	TraceNone   = "none"
	TraceStdout = "stdout"
)

// Options configures [New].
type Options struct {
	ServiceName    string
	ServiceVersion string
	// Metrics enables the Prometheus backed meter provider.
	Metrics bool
	// Trace selects the span exporter: [TraceNone] or [TraceStdout].
	Trace string
	// TraceWriter receives stdout spans. Defaults to os.Stdout.
	TraceWriter io.Writer
}

// Provider owns the meter and tracer providers of the process.
type Provider struct {
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	registry       *prometheus.Registry
	shutdown       []func(context.Context) error
}

// New builds the providers described by opts. Disabled signals get no-op providers.
func New(ctx context.Context, opts Options) (*Provider, error) {
	p := &Provider{
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if opts.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		p.meterProvider = mp
		p.registry = reg
		p.shutdown = append(p.shutdown, mp.Shutdown)
	}

	switch opts.Trace {
	case "", TraceNone:
	case TraceStdout:
		w := opts.TraceWriter
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		p.tracerProvider = tp
		p.shutdown = append(p.shutdown, tp.Shutdown)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Trace)
	}

	return p, nil
}

// Tracer returns the tracer used for server spans.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracerProvider.Tracer(instrumentationName)
}

// Metrics creates the server instruments on the provider's meter.
func (p *Provider) Metrics() *Metrics {
	return NewMetrics(p.meterProvider.Meter(instrumentationName))
}

// Handler serves the Prometheus exposition, or nil when metrics are disabled.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
