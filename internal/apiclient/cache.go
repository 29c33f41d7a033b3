package apiclient

import (
	"strconv"
	"strings"

	"taskboard/internal/events"
)

type Kind string

const (
	KindProjects Kind = "projects"
	KindProject  Kind = "project"
	KindTickets  Kind = "tickets"
	KindTicket   Kind = "ticket"
)

// Key identifies one cached read: the resource kind plus its parameters.
type Key struct {
	Kind   Kind
	Params string
}

func projectKey(id int) Key        { return Key{Kind: KindProject, Params: strconv.Itoa(id)} }
func ticketsKey(projectID int) Key { return Key{Kind: KindTickets, Params: strconv.Itoa(projectID)} }
func ticketKey(id int) Key         { return Key{Kind: KindTicket, Params: strconv.Itoa(id)} }

// Invalidate drops the cached read for kind and params.
func (c *Client) Invalidate(kind Kind, params ...string) {
	c.cache.Remove(Key{Kind: kind, Params: strings.Join(params, "/")})
}

// Cached reports whether a read is currently cached.
func (c *Client) Cached(kind Kind, params ...string) bool {
	return c.cache.Contains(Key{Kind: kind, Params: strings.Join(params, "/")})
}

func (c *Client) invalidateKind(kind Kind) {
	for _, key := range c.cache.Keys() {
		if key.Kind == kind {
			c.cache.Remove(key)
		}
	}
}

// ApplyInvalidation drops reads made stale by a mutation from another session.
func (c *Client) ApplyInvalidation(e events.Invalidation) {
	switch e.Kind {
	case events.KindProject:
		c.Invalidate(KindProjects)
		c.Invalidate(KindProject, strconv.Itoa(e.ID))
		if e.Action == events.ActionDeleted {
			c.Invalidate(KindTickets, strconv.Itoa(e.ID))
		}
	case events.KindTicket:
		c.Invalidate(KindTicket, strconv.Itoa(e.ID))
		if e.ProjectID != 0 {
			c.Invalidate(KindTickets, strconv.Itoa(e.ProjectID))
		} else {
			c.invalidateKind(KindTickets)
		}
		if e.PreviousProjectID != 0 {
			c.Invalidate(KindTickets, strconv.Itoa(e.PreviousProjectID))
		}
	}
}
