package schema

import (
	"time"

	"github.com/uptrace/bun"
)

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          int           `bun:"id,pk,autoincrement" json:"id"`
	Name        string        `bun:"name,notnull" json:"name"`
	Description *string       `bun:"description" json:"description"`
	Type        ProjectType   `bun:"type,notnull" json:"type"`
	Status      ProjectStatus `bun:"status,nullzero,notnull,default:'active'" json:"status"`
	OwnerID     *string       `bun:"owner_id" json:"ownerId"`
	CreatedAt   time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID           int            `bun:"id,pk,autoincrement" json:"id"`
	Title        string         `bun:"title,notnull" json:"title"`
	Description  *string        `bun:"description" json:"description"`
	Status       TicketStatus   `bun:"status,nullzero,notnull,default:'todo'" json:"status"`
	Priority     TicketPriority `bun:"priority,nullzero,notnull,default:'medium'" json:"priority"`
	ProjectID    int            `bun:"project_id,notnull" json:"projectId"`
	AssigneeName *string        `bun:"assignee_name" json:"assigneeName"`
	DueDate      *time.Time     `bun:"due_date" json:"dueDate"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
