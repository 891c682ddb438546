// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig initializes the global OpenTelemetry tracer provider
// which picoserve servers record request spans with.
package otelconfig

import (
	"context"
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Initializer creates a trace.TracerProvider.
type Initializer interface {
	Init(context.Context) (trace.TracerProvider, error)
}

// Common holds the settings shared by every exporting Initializer.
type Common struct {
	ServiceName string
}

// CommonOption configures any exporting Initializer.
type CommonOption interface {
	StdoutOption
	OTLPOption
	GoogleCloudOption
}

type commonOptionFunc func(*Common)

func (f commonOptionFunc) applyStdout(cfg *StdoutConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) applyOTLP(cfg *OTLPConfig) {
	f(&cfg.Common)
}

func (f commonOptionFunc) applyGCP(cfg *GoogleCloudConfig) {
	f(&cfg.Common)
}

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) CommonOption {
	return commonOptionFunc(func(c *Common) {
		c.ServiceName = name
	})
}

func (c Common) resource(ctx context.Context, opts ...resource.Option) (*resource.Resource, error) {
	opts = append(opts, resource.WithTelemetrySDK())
	if len(c.ServiceName) > 0 {
		opts = append(opts, resource.WithAttributes(semconv.ServiceName(c.ServiceName)))
	}
	return resource.New(ctx, opts...)
}

// Noop leaves the global tracer provider as is.
var Noop Initializer = noopInitializer{}

type noopInitializer struct{}

func (noopInitializer) Init(_ context.Context) (trace.TracerProvider, error) {
	return otel.GetTracerProvider(), nil
}

// StdoutConfig is the config for the Stdout Initializer.
type StdoutConfig struct {
	Common

	Out io.Writer
}

// StdoutOption configures the Stdout Initializer.
type StdoutOption interface {
	applyStdout(*StdoutConfig)
}

type stdoutOptionFunc func(*StdoutConfig)

func (f stdoutOptionFunc) applyStdout(cfg *StdoutConfig) {
	f(cfg)
}

// Writer sets where spans are written. The default is os.Stdout.
func Writer(w io.Writer) StdoutOption {
	return stdoutOptionFunc(func(cfg *StdoutConfig) {
		cfg.Out = w
	})
}

// Stdout returns an Initializer which pretty prints spans as JSON.
func Stdout(opts ...StdoutOption) Initializer {
	cfg := StdoutConfig{
		Out: os.Stdout,
	}
	for _, opt := range opts {
		opt.applyStdout(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg StdoutConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(cfg.Out),
	)
	if err != nil {
		return nil, err
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// Install initializes a tracer provider and registers it, along with
// W3C trace context and baggage propagation, as the otel globals.
// The returned func flushes and shuts the provider down.
func Install(ctx context.Context, initer Initializer) (func(context.Context) error, error) {
	if initer == nil {
		return nil, errors.New("otelconfig: nil Initializer")
	}

	tp, err := initer.Init(ctx)
	if err != nil {
		return nil, err
	}
	// otel refuses, and logs, setting the global delegate onto itself
	if tp != otel.GetTracerProvider() {
		otel.SetTracerProvider(tp)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		stp, ok := tp.(interface {
			Shutdown(context.Context) error
		})
		if !ok {
			return nil
		}
		return stp.Shutdown(ctx)
	}
	return shutdown, nil
}
