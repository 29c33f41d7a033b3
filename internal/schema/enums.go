package schema

type ProjectType string

const (
	ProjectTypePersonal ProjectType = "personal"
	ProjectTypeStudent  ProjectType = "student"
)

func (t ProjectType) Valid() bool {
	return t == ProjectTypePersonal || t == ProjectTypeStudent
}

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusActive || s == ProjectStatusArchived
}

type TicketStatus string

const (
	TicketStatusTodo       TicketStatus = "todo"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusReview     TicketStatus = "review"
	TicketStatusDone       TicketStatus = "done"
)

// TicketStatuses lists the board columns from left to right.
var TicketStatuses = []TicketStatus{
	TicketStatusTodo,
	TicketStatusInProgress,
	TicketStatusReview,
	TicketStatusDone,
}

func (s TicketStatus) Valid() bool {
	for _, status := range TicketStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

func (p TicketPriority) Valid() bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Rank orders priorities for display, high first.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityHigh:
		return 0
	case TicketPriorityMedium:
		return 1
	case TicketPriorityLow:
		return 2
	}
	return 3
}
