package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-viewer/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type exporters struct {
	spans   trace.SpanExporter
	metrics metric.Exporter
}

func Init(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tc := cfg.Telemetry
	if tc.OTLPEndpoint == "" && tc.OTLPTracesEndpoint == "" && tc.OTLPMetricsEndpoint == "" {
		Logger(ctx).Info("OpenTelemetry export disabled", zap.String("reason", "no OTLP endpoint configured"))
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(tc.ServiceName),
			semconv.ServiceVersion(tc.ServiceVersion),
			attribute.String("deployment.environment", cfg.AppEnv),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exp, err := newExporters(ctx, tc)
	if err != nil {
		return nil, err
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(exp.spans),
		trace.WithResource(res),
	)
	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(exp.metrics, metric.WithInterval(tc.MetricExportInterval))),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	Logger(ctx).Info("OpenTelemetry export enabled",
		zap.String("protocol", tc.OTLPProtocol),
		zap.String("traces_endpoint", endpointFor(tc.OTLPEndpoint, tc.OTLPTracesEndpoint)),
		zap.String("metrics_endpoint", endpointFor(tc.OTLPEndpoint, tc.OTLPMetricsEndpoint)),
	)

	return func(shutdownCtx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, shutdownTimeout)
		defer cancel()
		return errors.Join(
			tracerProvider.Shutdown(shutdownCtx),
			meterProvider.Shutdown(shutdownCtx),
		)
	}, nil
}

func endpointFor(shared, specific string) string {
	if specific != "" {
		return specific
	}
	return shared
}

func newExporters(ctx context.Context, tc config.TelemetryConfig) (exporters, error) {
	traceEndpoint := endpointFor(tc.OTLPEndpoint, tc.OTLPTracesEndpoint)
	metricEndpoint := endpointFor(tc.OTLPEndpoint, tc.OTLPMetricsEndpoint)

	var (
		exp exporters
		err error
	)
	switch tc.OTLPProtocol {
	case "http/protobuf", "http":
		traceOpts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(traceEndpoint),
			otlptracehttp.WithHeaders(tc.OTLPHeaders),
			otlptracehttp.WithTimeout(tc.ExportTimeout),
		}
		metricOpts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(metricEndpoint),
			otlpmetrichttp.WithHeaders(tc.OTLPHeaders),
			otlpmetrichttp.WithTimeout(tc.ExportTimeout),
		}
		if tc.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
			metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
		}
		if exp.spans, err = otlptracehttp.New(ctx, traceOpts...); err != nil {
			return exporters{}, fmt.Errorf("create trace exporter: %w", err)
		}
		if exp.metrics, err = otlpmetrichttp.New(ctx, metricOpts...); err != nil {
			return exporters{}, fmt.Errorf("create metric exporter: %w", err)
		}
	default:
		traceOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(traceEndpoint),
			otlptracegrpc.WithHeaders(tc.OTLPHeaders),
			otlptracegrpc.WithTimeout(tc.ExportTimeout),
		}
		metricOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(metricEndpoint),
			otlpmetricgrpc.WithHeaders(tc.OTLPHeaders),
			otlpmetricgrpc.WithTimeout(tc.ExportTimeout),
		}
		if tc.OTLPInsecure {
			traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
			metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		}
		if exp.spans, err = otlptracegrpc.New(ctx, traceOpts...); err != nil {
			return exporters{}, fmt.Errorf("create trace exporter: %w", err)
		}
		if exp.metrics, err = otlpmetricgrpc.New(ctx, metricOpts...); err != nil {
			return exporters{}, fmt.Errorf("create metric exporter: %w", err)
		}
	}
	return exp, nil
}
