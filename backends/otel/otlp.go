package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Supported OTLP transports.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// OTLPConfig describes how to push metrics to an OpenTelemetry collector.
type OTLPConfig struct {
	Protocol string
	Endpoint string
	Insecure bool
	Headers  map[string]string
	Interval time.Duration
	Resource map[string]string
}

// NewOTLP creates a backend owning a meter provider that periodically pushes to a collector.
// Shutdown flushes pending measurements and stops the provider.
func NewOTLP(ctx context.Context, cfg OTLPConfig) (*Backend, error) {
	res, err := newResource(ctx, cfg.Resource)
	if err != nil {
		return nil, err
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)

	b := New(provider.Meter("github.com/kpn-digital/timeexecution"))
	b.provider = provider

	return b, nil
}

// newExporter creates the OTLP exporter for the configured transport.
func newExporter(ctx context.Context, cfg OTLPConfig) (sdkmetric.Exporter, error) {
	switch cfg.Protocol {
	case ProtocolHTTP, "":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}

		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otel: failed to create OTLP HTTP exporter: %w", err)
		}
		return exporter, nil

	case ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}

		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otel: failed to create OTLP gRPC exporter: %w", err)
		}
		return exporter, nil
	}

	return nil, fmt.Errorf("otel: unknown OTLP protocol: protocol=%s", cfg.Protocol)
}

// newResource creates a resource from configured attributes.
func newResource(ctx context.Context, resourceAttrs map[string]string) (*resource.Resource, error) {
	attrs := make([]attribute.KeyValue, 0, len(resourceAttrs))
	for k, v := range resourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("otel: failed to create resource: %w", err)
	}

	return res, nil
}
