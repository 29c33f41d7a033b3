package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	projectsCreated   metric.Int64Counter
	projectsUpdated   metric.Int64Counter
	projectsDeleted   metric.Int64Counter
	ticketsCreated    metric.Int64Counter
	ticketsUpdated    metric.Int64Counter
	ticketsDeleted    metric.Int64Counter
	ticketTransitions metric.Int64Counter
	views             metric.Int64Counter

	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
		unit        string
	}{
		{&m.projectsCreated, "taskboard.projects.created", "Total number of projects created", "{project}"},
		{&m.projectsUpdated, "taskboard.projects.updated", "Total number of project updates", "{project}"},
		{&m.projectsDeleted, "taskboard.projects.deleted", "Total number of projects deleted", "{project}"},
		{&m.ticketsCreated, "taskboard.tickets.created", "Total number of tickets created", "{ticket}"},
		{&m.ticketsUpdated, "taskboard.tickets.updated", "Total number of ticket updates", "{ticket}"},
		{&m.ticketsDeleted, "taskboard.tickets.deleted", "Total number of tickets deleted", "{ticket}"},
		{&m.ticketTransitions, "taskboard.tickets.status_transitions", "Ticket moves between board columns", "{transition}"},
		{&m.views, "taskboard.views", "Read requests by resource", "{view}"},
	}

	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit(c.unit),
		)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}
	m.Database = database

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}
	m.Messaging = messaging

	return m, nil
}

func add(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordProjectCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.projectsCreated)
	}
}

func (m *Metrics) RecordProjectUpdated(ctx context.Context) {
	if m != nil {
		add(ctx, m.projectsUpdated)
	}
}

func (m *Metrics) RecordProjectDeleted(ctx context.Context) {
	if m != nil {
		add(ctx, m.projectsDeleted)
	}
}

func (m *Metrics) RecordTicketCreated(ctx context.Context) {
	if m != nil {
		add(ctx, m.ticketsCreated)
	}
}

func (m *Metrics) RecordTicketUpdated(ctx context.Context) {
	if m != nil {
		add(ctx, m.ticketsUpdated)
	}
}

func (m *Metrics) RecordTicketDeleted(ctx context.Context) {
	if m != nil {
		add(ctx, m.ticketsDeleted)
	}
}

// RecordTicketTransition counts a status change. Same-status updates are ignored.
func (m *Metrics) RecordTicketTransition(ctx context.Context, from, to string) {
	if m == nil || from == to {
		return
	}
	add(ctx, m.ticketTransitions, attribute.String("from", from), attribute.String("to", to))
}

func (m *Metrics) RecordView(ctx context.Context, resource string) {
	if m != nil {
		add(ctx, m.views, attribute.String("resource", resource))
	}
}

// DB returns the database metrics; nil-safe for use with NewMock.
func (m *Metrics) DB() *DatabaseMetrics {
	if m == nil {
		return nil
	}
	return m.Database
}

// Events returns the messaging metrics; nil-safe like DB.
func (m *Metrics) Events() *MessagingMetrics {
	if m == nil {
		return nil
	}
	return m.Messaging
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}, Messaging: &MessagingMetrics{}}
}
