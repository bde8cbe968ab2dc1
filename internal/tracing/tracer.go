// Package tracing wires OpenTelemetry spans around deploy and serve steps.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/sokol-samples/webpage/internal/config"
)

// ServiceName identifies this tool in exported traces.
const ServiceName = "webpage"

// Provider owns the tracer used by deploy and serve. A disabled Provider
// hands out a no-op tracer.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// Disabled returns a Provider whose spans are discarded.
func Disabled() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer("noop")}
}

// NewProvider builds a Provider from the tracing config section.
func NewProvider(cfg config.TracingConfig) (*Provider, error) {
	if !cfg.Enabled {
		return Disabled(), nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}
	p := newSDKProvider(opts...)
	otel.SetTracerProvider(p.provider)
	return p, nil
}

// NewProviderWithExporter exports every span synchronously to exporter.
// Used by tests with an in-memory exporter.
func NewProviderWithExporter(exporter sdktrace.SpanExporter) *Provider {
	return newSDKProvider(sdktrace.WithSyncer(exporter), sdktrace.WithSampler(sdktrace.AlwaysSample()))
}

func newSDKProvider(opts ...sdktrace.TracerProviderOption) *Provider {
	// Schemaless so the resource never conflicts with resource.Default().
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
	provider := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{sdktrace.WithResource(res)}, opts...)...)
	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(ServiceName),
		enabled:  true,
	}
}

func newExporter(cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = config.DefaultTracesFilePath()
		}
		if path == "" {
			return nil, fmt.Errorf("tracing.file_path required for file exporter")
		}
		exp, err := NewFileExporter(path)
		if err != nil {
			return nil, fmt.Errorf("create file exporter: %w", err)
		}
		return exp, nil
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		return exp, nil
	case "otlp":
		endpoint := cfg.OTLPEndpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		exp, err := otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		return exp, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}
}

// Tracer returns the tracer for creating spans. Never nil.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}
