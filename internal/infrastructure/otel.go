package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"transitcli/internal/config"
)

const (
	ServiceName = "transit-merger"
	MeterName   = "transitcli"
)

// Telemetry holds the tracing and metrics providers of one run.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider // nil when tracing is disabled
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *MergeMetrics
	Logger         *slog.Logger
}

// MergeMetrics holds the counters the pipeline records.
type MergeMetrics struct {
	FilesRead       metric.Int64Counter
	RowsMerged      metric.Int64Counter
	DatasetsWritten metric.Int64Counter
	StageDuration   metric.Float64Histogram
}

// InitializeTelemetry builds the providers for a run. Spans are exported to
// traceOut (stdout when nil) only when cfg.TraceExporter is "stdout"; metrics
// are always collected into a private Prometheus registry.
func InitializeTelemetry(cfg config.TelemetryConfig, runID string, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res, err := createResource(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{Logger: logger}

	if err := t.initializeTracing(cfg, res, traceOut); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := t.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.DebugContext(ctx, "Telemetry initialized",
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metrics_file", cfg.MetricsFile))

	return t, nil
}

// createResource creates the OpenTelemetry resource
func createResource(runID string) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("run.id", runID),
	), nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource, out io.Writer) error {
	switch cfg.TraceExporter {
	case "stdout":
		if out == nil {
			out = os.Stdout
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(out),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Tracer = noop.NewTracerProvider().Tracer(MeterName)
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	t.Registry = prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(t.Registry),
		otelprom.WithoutScopeInfo(),
		otelprom.WithoutTargetInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	t.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))

	t.Metrics, err = CreateMergeMetrics(t.Meter)
	return err
}

// CreateMergeMetrics creates the merge pipeline instruments
func CreateMergeMetrics(meter metric.Meter) (*MergeMetrics, error) {
	filesRead, err := meter.Int64Counter(
		"transit_files_read",
		metric.WithDescription("Source files processed, by category and status"),
	)
	if err != nil {
		return nil, err
	}

	rowsMerged, err := meter.Int64Counter(
		"transit_rows_merged",
		metric.WithDescription("Rows in the merged dataset of each category"),
	)
	if err != nil {
		return nil, err
	}

	datasetsWritten, err := meter.Int64Counter(
		"transit_datasets_written",
		metric.WithDescription("Merged CSV files written"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"transit_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &MergeMetrics{
		FilesRead:       filesRead,
		RowsMerged:      rowsMerged,
		DatasetsWritten: datasetsWritten,
		StageDuration:   stageDuration,
	}, nil
}

// StartSpan starts a span named name under ctx.
func (t *Telemetry) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordFileRead counts one processed source file.
func (t *Telemetry) RecordFileRead(ctx context.Context, category string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	t.Metrics.FilesRead.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
		attribute.String("status", status),
	))
}

// RecordRowsMerged counts the rows of a merged category.
func (t *Telemetry) RecordRowsMerged(ctx context.Context, category string, rows int) {
	t.Metrics.RowsMerged.Add(ctx, int64(rows), metric.WithAttributes(
		attribute.String("category", category),
	))
}

// RecordDatasetWritten counts one written CSV.
func (t *Telemetry) RecordDatasetWritten(ctx context.Context, category string) {
	t.Metrics.DatasetsWritten.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", category),
	))
}

// RecordStage records how long a pipeline stage took.
func (t *Telemetry) RecordStage(ctx context.Context, stage string, d time.Duration) {
	t.Metrics.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
	))
}

// RecordError records an error on the span and marks it failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// WriteMetricsFile writes the registry in the Prometheus text format, for the
// node_exporter textfile collector.
func (t *Telemetry) WriteMetricsFile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes pending spans and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	return nil
}
