package observability

import (
	"context"
	"time"

	"partner-insights/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records job and analysis outcomes through OpenTelemetry. The
// exporter publishes into the default Prometheus registry, so the values show
// up on the same /metrics endpoint as the promauto collectors.
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	jobCounter       otelmetric.Int64Counter
	jobDuration      otelmetric.Float64Histogram
	analysisCounter  otelmetric.Int64Counter
	analysisDuration otelmetric.Float64Histogram
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter, observability disabled", map[string]interface{}{
			"error": err,
		})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	analysisCounter, _ := meter.Int64Counter(
		"partner.analyses",
		otelmetric.WithDescription("Number of partner recommendation requests"),
	)

	analysisDuration, _ := meter.Float64Histogram(
		"partner.analysis.duration",
		otelmetric.WithDescription("Partner recommendation latency"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		jobCounter:       jobCounter,
		jobDuration:      jobDuration,
		analysisCounter:  analysisCounter,
		analysisDuration: analysisDuration,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordAnalysis counts one recommendation request. outcome is "success" or
// the error kind.
func (o *Observability) RecordAnalysis(ctx context.Context, outcome string, duration time.Duration) {
	if o == nil || o.analysisCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("outcome", outcome))
	o.analysisCounter.Add(ctx, 1, attrs)
	o.analysisDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown() {
	if o == nil || o.meterProvider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = o.meterProvider.Shutdown(ctx)
}
