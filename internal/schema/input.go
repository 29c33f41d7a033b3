package schema

import "time"

// CreateProjectInput is the body of POST /projects.
type CreateProjectInput struct {
	Name        string        `json:"name" validate:"required"`
	Description *string       `json:"description,omitempty"`
	Type        ProjectType   `json:"type" validate:"required,oneof=personal student"`
	Status      ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=active archived"`
	OwnerID     *string       `json:"ownerId,omitempty"`
}

func (in CreateProjectInput) ToProject() *Project {
	status := in.Status
	if status == "" {
		status = ProjectStatusActive
	}
	return &Project{
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		Status:      status,
		OwnerID:     in.OwnerID,
	}
}

// UpdateProjectInput is the body of PATCH /projects/{id}. Fields left out
// of the body are not touched; description and ownerId accept null.
type UpdateProjectInput struct {
	Name        Optional[string]        `json:"name,omitzero" validate:"omitnil,min=1"`
	Description Optional[string]        `json:"description,omitzero"`
	Type        Optional[ProjectType]   `json:"type,omitzero" validate:"omitnil,oneof=personal student"`
	Status      Optional[ProjectStatus] `json:"status,omitzero" validate:"omitnil,oneof=active archived"`
	OwnerID     Optional[string]        `json:"ownerId,omitzero"`
}

func (in UpdateProjectInput) IsEmpty() bool {
	return !in.Name.Set && !in.Description.Set && !in.Type.Set && !in.Status.Set && !in.OwnerID.Set
}

// Apply merges the patch into p: present fields overwrite, absent fields stay.
func (in UpdateProjectInput) Apply(p *Project) {
	if in.Name.Set {
		p.Name = in.Name.Value
	}
	if in.Description.Set {
		p.Description = in.Description.Ptr()
	}
	if in.Type.Set {
		p.Type = in.Type.Value
	}
	if in.Status.Set {
		p.Status = in.Status.Value
	}
	if in.OwnerID.Set {
		p.OwnerID = in.OwnerID.Ptr()
	}
}

// CreateTicketInput is the body of POST /tickets.
type CreateTicketInput struct {
	Title        string         `json:"title" validate:"required"`
	Description  *string        `json:"description,omitempty"`
	Status       TicketStatus   `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress review done"`
	Priority     TicketPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	ProjectID    int            `json:"projectId" validate:"required,gt=0"`
	AssigneeName *string        `json:"assigneeName,omitempty"`
	DueDate      *time.Time     `json:"dueDate,omitempty"`
}

func (in CreateTicketInput) ToTicket() *Ticket {
	status := in.Status
	if status == "" {
		status = TicketStatusTodo
	}
	priority := in.Priority
	if priority == "" {
		priority = TicketPriorityMedium
	}
	return &Ticket{
		Title:        in.Title,
		Description:  in.Description,
		Status:       status,
		Priority:     priority,
		ProjectID:    in.ProjectID,
		AssigneeName: in.AssigneeName,
		DueDate:      in.DueDate,
	}
}

// UpdateTicketInput is the body of PATCH /tickets/{id}.
type UpdateTicketInput struct {
	Title        Optional[string]         `json:"title,omitzero" validate:"omitnil,min=1"`
	Description  Optional[string]         `json:"description,omitzero"`
	Status       Optional[TicketStatus]   `json:"status,omitzero" validate:"omitnil,oneof=todo in_progress review done"`
	Priority     Optional[TicketPriority] `json:"priority,omitzero" validate:"omitnil,oneof=low medium high"`
	ProjectID    Optional[int]            `json:"projectId,omitzero" validate:"omitnil,gt=0"`
	AssigneeName Optional[string]         `json:"assigneeName,omitzero"`
	DueDate      Optional[time.Time]      `json:"dueDate,omitzero"`
}

func (in UpdateTicketInput) IsEmpty() bool {
	return !in.Title.Set && !in.Description.Set && !in.Status.Set && !in.Priority.Set &&
		!in.ProjectID.Set && !in.AssigneeName.Set && !in.DueDate.Set
}

func (in UpdateTicketInput) Apply(t *Ticket) {
	if in.Title.Set {
		t.Title = in.Title.Value
	}
	if in.Description.Set {
		t.Description = in.Description.Ptr()
	}
	if in.Status.Set {
		t.Status = in.Status.Value
	}
	if in.Priority.Set {
		t.Priority = in.Priority.Value
	}
	if in.ProjectID.Set {
		t.ProjectID = in.ProjectID.Value
	}
	if in.AssigneeName.Set {
		t.AssigneeName = in.AssigneeName.Ptr()
	}
	if in.DueDate.Set {
		t.DueDate = in.DueDate.Ptr()
	}
}
