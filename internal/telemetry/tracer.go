package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/craftedby/marketplace/internal/config"
)

type CleanupFunc func(ctx context.Context) error

// InitTracer configures the global tracer provider with an OTLP gRPC
// exporter. When no collector URL is configured the provider still runs
// with a noop exporter so spans stay cheap.
func InitTracer(ctx context.Context, cfg config.Otel) (CleanupFunc, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.K8SPodName(cfg.K8sPodName),
			semconv.K8SNamespaceName(cfg.K8sNamespace),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceIDRatio))),
	}

	if cfg.CollectorURL != "" {
		exporterOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.CollectorURL),
		}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		} else {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithTLSCredentials(
				credentials.NewClientTLSFromCert(nil, ""),
			))
		}
		if cfg.CollectorAuth != "" {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(map[string]string{
				"Authorization": cfg.CollectorAuth,
			}))
		}

		exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(exporterOpts...))
		if err != nil {
			return nil, fmt.Errorf("create otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}
