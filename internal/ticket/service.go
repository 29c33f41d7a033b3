package ticket

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/events"
	"taskboard/internal/metrics"
	"taskboard/internal/schema"
)

var ErrTicketNotFound = errors.New("ticket not found")

type Service interface {
	ListTickets(ctx context.Context, projectID int) ([]schema.Ticket, error)
	GetTicket(ctx context.Context, id int) (*schema.Ticket, error)
	CreateTicket(ctx context.Context, input schema.CreateTicketInput) (*schema.Ticket, error)
	UpdateTicket(ctx context.Context, id int, patch schema.UpdateTicketInput) (*schema.Ticket, error)
	DeleteTicket(ctx context.Context, id int) error
}

type service struct {
	repo     Repository
	notifier *events.Notifier
	metrics  *metrics.Metrics
}

func NewService(repo Repository, notifier *events.Notifier, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		metrics:  m,
	}
}

func (s *service) ListTickets(ctx context.Context, projectID int) ([]schema.Ticket, error) {
	tickets, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tickets of project %d: %w", projectID, err)
	}
	s.metrics.RecordView(ctx, "tickets")
	return tickets, nil
}

func (s *service) GetTicket(ctx context.Context, id int) (*schema.Ticket, error) {
	ticket, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get ticket %d: %w", id, err)
	}
	s.metrics.RecordView(ctx, "ticket")
	return ticket, nil
}

func (s *service) CreateTicket(ctx context.Context, input schema.CreateTicketInput) (*schema.Ticket, error) {
	ticket := input.ToTicket()
	if err := s.repo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.metrics.RecordTicketCreated(ctx)
	s.notifier.Notify(ctx, events.Invalidation{
		Kind:      events.KindTicket,
		Action:    events.ActionCreated,
		ID:        ticket.ID,
		ProjectID: ticket.ProjectID,
	})
	return ticket, nil
}

// UpdateTicket applies patch. Any status may move to any other status.
func (s *service) UpdateTicket(ctx context.Context, id int, patch schema.UpdateTicketInput) (*schema.Ticket, error) {
	if patch.IsEmpty() {
		return s.GetTicket(ctx, id)
	}

	// The previous row is only needed to report moves.
	var before *schema.Ticket
	if patch.Status.Set || patch.ProjectID.Set {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update ticket %d: %w", id, err)
		}
		before = current
	}

	ticket, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update ticket %d: %w", id, err)
	}

	event := events.Invalidation{
		Kind:      events.KindTicket,
		Action:    events.ActionUpdated,
		ID:        ticket.ID,
		ProjectID: ticket.ProjectID,
	}
	if before != nil {
		s.metrics.RecordTicketTransition(ctx, string(before.Status), string(ticket.Status))
		if before.ProjectID != ticket.ProjectID {
			event.PreviousProjectID = before.ProjectID
		}
	}

	s.metrics.RecordTicketUpdated(ctx)
	s.notifier.Notify(ctx, event)
	return ticket, nil
}

// DeleteTicket removes the ticket if it exists.
func (s *service) DeleteTicket(ctx context.Context, id int) error {
	current, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrTicketNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}

	s.metrics.RecordTicketDeleted(ctx)
	s.notifier.Notify(ctx, events.Invalidation{
		Kind:      events.KindTicket,
		Action:    events.ActionDeleted,
		ID:        id,
		ProjectID: current.ProjectID,
	})
	return nil
}
