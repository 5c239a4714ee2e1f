// Package observability configures OpenTelemetry tracing for the guidebook
// backend. Traces cover the HTTP layer (otelgin), the service layer (manual
// spans around model calls), and GORM queries (tracing plugin), all exported
// over OTLP/gRPC.
package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/propdesk/go-guidebook-backend/internal/config"
)

// Construction seams. Tests swap these to inject exporter and resource
// failures; the signatures are part of the package's test contract.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string) (*resource.Resource, error) {
		attrs := []resource.Option{
			resource.WithAttributes(
				semconv.ServiceNamespace("propdesk"),
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
			),
		}
		// Hostname distinguishes instances when several backends share one
		// collector; losing it is not worth failing startup over.
		if hn, err := os.Hostname(); err == nil && hn != "" {
			attrs = append(attrs, resource.WithAttributes(semconv.HostName(hn)))
		}
		return resource.New(ctx, attrs...)
	}
)

// SetupOTel configures OpenTelemetry tracing and returns a shutdown function.
// When tracing is disabled the returned shutdown is a no-op and the global
// tracer provider is left untouched. On any setup error the globals are also
// left untouched, so a half-configured provider never leaks.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	client := newOTLPClient(otlpClientOptions(cfg)...)
	exp, err := newOTLPExporterFn(ctx, client)
	if err != nil {
		return nil, err
	}

	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version)
	if err != nil {
		return nil, err
	}

	// A chat turn holds a model call that can run for tens of seconds, so a
	// shorter batch timeout keeps the preceding spans from going stale in the
	// exporter queue.
	sampler := sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// otlpClientOptions translates the OTEL config into gRPC client options:
// plaintext for local collectors, system-pool TLS otherwise.
func otlpClientOptions(cfg config.OTELConfig) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		return append(opts, otlptracegrpc.WithInsecure())
	}
	creds := credentials.NewClientTLSFromCert(nil, "")
	return append(opts, otlptracegrpc.WithTLSCredentials(creds))
}
