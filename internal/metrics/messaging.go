package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MessagingMetrics covers invalidation events on the wire.
type MessagingMetrics struct {
	published       metric.Int64Counter
	consumed        metric.Int64Counter
	errors          metric.Int64Counter
	publishDuration metric.Float64Histogram
}

func NewMessagingMetrics(meter metric.Meter) (*MessagingMetrics, error) {
	mm := &MessagingMetrics{}

	var err error

	mm.published, err = meter.Int64Counter(
		"messaging.messages.published",
		metric.WithDescription("Total number of invalidation events published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	mm.consumed, err = meter.Int64Counter(
		"messaging.messages.consumed",
		metric.WithDescription("Total number of invalidation events received"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	mm.errors, err = meter.Int64Counter(
		"messaging.message.errors",
		metric.WithDescription("Failed publishes and undecodable messages"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 100µs .. 1s
	mm.publishDuration, err = meter.Float64Histogram(
		"messaging.message.publish_duration",
		metric.WithDescription("Time spent publishing an invalidation event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0,
		),
	)
	if err != nil {
		return nil, err
	}

	return mm, nil
}

func (mm *MessagingMetrics) RecordPublish(ctx context.Context, kind string, duration time.Duration, err error) {
	if mm == nil || mm.published == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	mm.published.Add(ctx, 1, attrs)
	mm.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		mm.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("error_type", "publish"),
		))
	}
}

func (mm *MessagingMetrics) RecordConsume(ctx context.Context, kind string, err error) {
	if mm == nil || mm.consumed == nil {
		return
	}
	if err != nil {
		mm.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("error_type", "decode")))
		return
	}
	mm.consumed.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
