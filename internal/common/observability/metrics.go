// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"vehicle-dedup-workers/internal/dedup/engine"
)

// Observability owns the OpenTelemetry meter provider and the
// decision-level instruments. Exported through the same Prometheus
// registry the /metrics endpoint serves.
type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	decisionCounter otelmetric.Int64Counter
	publishDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	decisionCounter, _ := meter.Int64Counter(
		"dedup.decisions",
		otelmetric.WithDescription("Deduplication decisions by outcome"),
	)

	publishDuration, _ := meter.Float64Histogram(
		"dedup.decision.publish.duration",
		otelmetric.WithDescription("Decision event publish latency"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		decisionCounter: decisionCounter,
		publishDuration: publishDuration,
	}
}

// InstrumentSink wraps an event sink so every published decision is
// counted by outcome and tenant.
func (o *Observability) InstrumentSink(next engine.EventSink) engine.EventSink {
	return &instrumentedSink{obs: o, next: next}
}

type instrumentedSink struct {
	obs  *Observability
	next engine.EventSink
}

func (s *instrumentedSink) PublishDecision(ctx context.Context, event *engine.DecisionEvent) error {
	start := time.Now()
	err := s.next.PublishDecision(ctx, event)

	if s.obs.decisionCounter != nil {
		s.obs.decisionCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("decision", string(event.Decision)),
			attribute.String("tenant", event.TenantID),
		))
	}
	if s.obs.publishDuration != nil {
		s.obs.publishDuration.Record(ctx, float64(time.Since(start).Milliseconds()), otelmetric.WithAttributes(
			attribute.Bool("error", err != nil),
		))
	}
	return err
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
