package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/metrics"
)

// NewPublisher picks the transport named by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Noop{}, nil
	case "nats":
		return NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
}

// DefaultPublishTimeout bounds how long a mutation waits on the broker.
const DefaultPublishTimeout = 2 * time.Second

// Notifier publishes invalidations without failing the caller. A failed or
// timed out publish is logged and dropped.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.MessagingMetrics
	timeout   time.Duration
	now       func() time.Time
}

func NewNotifier(publisher Publisher, logger *slog.Logger) *Notifier {
	if publisher == nil {
		publisher = Noop{}
	}
	return &Notifier{publisher: publisher, logger: logger, timeout: DefaultPublishTimeout, now: time.Now}
}

// WithTimeout changes how long Notify waits for the publisher.
func (n *Notifier) WithTimeout(d time.Duration) *Notifier {
	n.timeout = d
	return n
}

// WithMetrics records publish latency and failures to mm.
func (n *Notifier) WithMetrics(mm *metrics.MessagingMetrics) *Notifier {
	n.metrics = mm
	return n
}

func (n *Notifier) Notify(ctx context.Context, event Invalidation) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = n.now().UTC()
	}
	start := n.now()
	err := n.publish(ctx, event)
	n.metrics.RecordPublish(ctx, string(event.Kind), n.now().Sub(start), err)
	if err != nil {
		n.logger.WarnContext(ctx, "failed to publish invalidation",
			"kind", event.Kind, "action", event.Action, "id", event.ID, "error", err)
	}
}

// publish stops waiting after n.timeout. The request context's cancellation
// is detached so a client hanging up does not drop the event.
func (n *Notifier) publish(ctx context.Context, event Invalidation) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- n.publisher.Publish(ctx, event) }()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("publish %s %s: %w", event.Kind, event.Action, ctx.Err())
	}
}
