package events

import (
	"context"
	"strconv"
	"time"
)

type Kind string

const (
	KindProject Kind = "project"
	KindTicket  Kind = "ticket"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Invalidation tells clients which cached reads a mutation made stale.
// ProjectID is set for tickets; PreviousProjectID only when a ticket moved
// to another project.
type Invalidation struct {
	Kind              Kind      `json:"kind"`
	Action            Action    `json:"action"`
	ID                int       `json:"id"`
	ProjectID         int       `json:"projectId,omitempty"`
	PreviousProjectID int       `json:"previousProjectId,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// Key is used as the message key so events for one project stay ordered.
func (e Invalidation) Key() string {
	if e.Kind == KindTicket && e.ProjectID != 0 {
		return "project-" + strconv.Itoa(e.ProjectID)
	}
	return string(e.Kind) + "-" + strconv.Itoa(e.ID)
}

type Publisher interface {
	Publish(ctx context.Context, event Invalidation) error
	Close() error
}

// Noop discards events. Used when events.driver is "none".
type Noop struct{}

func (Noop) Publish(context.Context, Invalidation) error { return nil }
func (Noop) Close() error                                { return nil }
