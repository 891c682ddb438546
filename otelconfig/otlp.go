// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// OTLPConfig is the config for the OTLP Initializer.
type OTLPConfig struct {
	Common

	// Target is the gRPC target of the collector.
	Target string

	// DialTimeout bounds how long Init waits on the collector connection.
	DialTimeout time.Duration
}

// OTLPOption configures the OTLP Initializer.
type OTLPOption interface {
	applyOTLP(*OTLPConfig)
}

type otlpOptionFunc func(*OTLPConfig)

func (f otlpOptionFunc) applyOTLP(cfg *OTLPConfig) {
	f(cfg)
}

// Target sets the gRPC target of the collector.
func Target(target string) OTLPOption {
	return otlpOptionFunc(func(cfg *OTLPConfig) {
		cfg.Target = target
	})
}

// DialTimeout sets how long to wait on the collector connection.
func DialTimeout(d time.Duration) OTLPOption {
	return otlpOptionFunc(func(cfg *OTLPConfig) {
		cfg.DialTimeout = d
	})
}

// OTLP returns an Initializer which exports spans to an OTLP collector over gRPC.
func OTLP(opts ...OTLPOption) Initializer {
	cfg := OTLPConfig{
		DialTimeout: time.Second,
	}
	for _, opt := range opts {
		opt.applyOTLP(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg OTLPConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	if len(cfg.Target) == 0 {
		return nil, errors.New("otelconfig: otlp target is not set")
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		cfg.Target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	return tp, nil
}
