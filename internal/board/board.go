package board

import (
	"sort"
	"strings"

	"taskboard/internal/schema"
)

// Column is one status lane of a project board.
type Column struct {
	Status  schema.TicketStatus
	Label   string
	Tickets []schema.Ticket
}

func (c Column) Count() int { return len(c.Tickets) }

// Build groups tickets into the four status columns, To Do first. Inside a
// column tickets are ordered by priority, high first, then by id.
func Build(tickets []schema.Ticket) []Column {
	columns := make([]Column, len(schema.TicketStatuses))
	index := make(map[schema.TicketStatus]int, len(schema.TicketStatuses))
	for i, status := range schema.TicketStatuses {
		columns[i] = Column{Status: status, Label: StatusLabel(status), Tickets: []schema.Ticket{}}
		index[status] = i
	}

	for _, t := range tickets {
		i, ok := index[t.Status]
		if !ok {
			continue
		}
		columns[i].Tickets = append(columns[i].Tickets, t)
	}

	for i := range columns {
		sort.SliceStable(columns[i].Tickets, func(a, b int) bool {
			ta, tb := columns[i].Tickets[a], columns[i].Tickets[b]
			if ra, rb := ta.Priority.Rank(), tb.Priority.Rank(); ra != rb {
				return ra < rb
			}
			return ta.ID < tb.ID
		})
	}
	return columns
}

// Summary holds the dashboard totals.
type Summary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Student  int `json:"student"`
	Personal int `json:"personal"`
}

func Summarize(projects []schema.Project) Summary {
	s := Summary{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case schema.ProjectStatusActive:
			s.Active++
		case schema.ProjectStatusArchived:
			s.Archived++
		}
		switch p.Type {
		case schema.ProjectTypeStudent:
			s.Student++
		case schema.ProjectTypePersonal:
			s.Personal++
		}
	}
	return s
}

// FilterProjects keeps projects whose name or description contains query,
// ignoring case, and whose type matches typ. An empty typ or "all" matches
// every type.
func FilterProjects(projects []schema.Project, query, typ string) []schema.Project {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]schema.Project, 0, len(projects))
	for _, p := range projects {
		if typ != "" && typ != "all" && string(p.Type) != typ {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matches(p schema.Project, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) {
		return true
	}
	return p.Description != nil && strings.Contains(strings.ToLower(*p.Description), query)
}

func StatusLabel(s schema.TicketStatus) string {
	switch s {
	case schema.TicketStatusTodo:
		return "To Do"
	case schema.TicketStatusInProgress:
		return "In Progress"
	case schema.TicketStatusReview:
		return "Review"
	case schema.TicketStatusDone:
		return "Done"
	}
	return string(s)
}

func PriorityLabel(p schema.TicketPriority) string {
	switch p {
	case schema.TicketPriorityLow:
		return "Low"
	case schema.TicketPriorityMedium:
		return "Medium"
	case schema.TicketPriorityHigh:
		return "High"
	}
	return string(p)
}

func ProjectTypeLabel(t schema.ProjectType) string {
	switch t {
	case schema.ProjectTypeStudent:
		return "Student"
	case schema.ProjectTypePersonal:
		return "Personal"
	}
	return string(t)
}
