// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otelconfig

import (
	"context"

	texporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GoogleCloudConfig is the config for the GoogleCloud Initializer.
type GoogleCloudConfig struct {
	Common

	ProjectID string
}

// GoogleCloudOption configures the GoogleCloud Initializer.
type GoogleCloudOption interface {
	applyGCP(*GoogleCloudConfig)
}

type gcpOptionFunc func(*GoogleCloudConfig)

func (f gcpOptionFunc) applyGCP(cfg *GoogleCloudConfig) {
	f(cfg)
}

// ProjectID sets the Google Cloud project spans are exported to.
// When empty, the project is detected from the environment.
func ProjectID(id string) GoogleCloudOption {
	return gcpOptionFunc(func(cfg *GoogleCloudConfig) {
		cfg.ProjectID = id
	})
}

// GoogleCloud returns an Initializer which exports spans directly to Cloud Trace.
func GoogleCloud(opts ...GoogleCloudOption) Initializer {
	cfg := GoogleCloudConfig{}
	for _, opt := range opts {
		opt.applyGCP(&cfg)
	}
	return cfg
}

// Init implements the Initializer interface.
func (cfg GoogleCloudConfig) Init(ctx context.Context) (trace.TracerProvider, error) {
	exporter, err := texporter.New(
		texporter.WithProjectID(cfg.ProjectID),
		texporter.WithTraceClientOptions([]option.ClientOption{option.WithTelemetryDisabled()}),
	)
	if err != nil {
		return nil, err
	}

	res, err := cfg.resource(ctx, resource.WithDetectors(gcp.NewDetector()))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}
