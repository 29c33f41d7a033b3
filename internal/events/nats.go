package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"taskboard/internal/metrics"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("taskboard-publisher"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event Invalidation) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "invalidation published to NATS", "subject", p.subject, "kind", event.Kind, "id", event.ID)
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// HealthCheck verifies NATS connection is healthy
func (p *NATSPublisher) HealthCheck() error {
	if p.conn == nil || p.conn.IsClosed() {
		return nats.ErrConnectionClosed
	}
	if !p.conn.IsConnected() {
		return nats.ErrDisconnected
	}
	return nil
}

// Subscriber delivers invalidations published by other processes.
type Subscriber struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	subject string
	logger  *slog.Logger
	metrics *metrics.MessagingMetrics
}

func NewSubscriber(url, subject string, logger *slog.Logger) (*Subscriber, error) {
	nc, err := nats.Connect(url, nats.Name("taskboard-subscriber"))
	if err != nil {
		return nil, err
	}

	return &Subscriber{
		conn:    nc,
		subject: subject,
		logger:  logger,
	}, nil
}

func (s *Subscriber) WithMetrics(mm *metrics.MessagingMetrics) *Subscriber {
	s.metrics = mm
	return s
}

// Start subscribes and calls handle for each decoded event until ctx is done.
func (s *Subscriber) Start(ctx context.Context, handle func(Invalidation)) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		var event Invalidation
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.metrics.RecordConsume(ctx, "", err)
			s.logger.Error("failed to unmarshal invalidation", "error", err)
			return
		}
		s.metrics.RecordConsume(ctx, string(event.Kind), nil)
		handle(event)
	})
	if err != nil {
		return err
	}
	if err := s.conn.Flush(); err != nil {
		sub.Unsubscribe()
		return err
	}

	s.sub = sub
	s.logger.Info("NATS subscriber started", "subject", s.subject)

	<-ctx.Done()
	return ctx.Err()
}

func (s *Subscriber) Close() error {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.conn.Close()
	return nil
}
