package seed

import (
	"context"
	"fmt"
	"log/slog"

	"taskboard/internal/project"
	"taskboard/internal/schema"
	"taskboard/internal/ticket"
)

type demoProject struct {
	project schema.Project
	tickets []schema.Ticket
}

func ptr[T any](v T) *T { return &v }

func demoData() []demoProject {
	return []demoProject{
		{
			project: schema.Project{
				Name:        "Final Year Thesis",
				Description: ptr("Research on AI agents"),
				Type:        schema.ProjectTypeStudent,
				Status:      schema.ProjectStatusActive,
			},
			tickets: []schema.Ticket{
				{
					Title:        "Literature Review",
					Description:  ptr("Read top 5 papers on LLMs"),
					Status:       schema.TicketStatusDone,
					Priority:     schema.TicketPriorityHigh,
					AssigneeName: ptr("Student A"),
				},
				{
					Title:        "Prototype Design",
					Description:  ptr("Sketch UI for the dashboard"),
					Status:       schema.TicketStatusInProgress,
					Priority:     schema.TicketPriorityMedium,
					AssigneeName: ptr("Student A"),
				},
			},
		},
		{
			project: schema.Project{
				Name:        "Home Renovation",
				Description: ptr("Tracking tasks for kitchen remodel"),
				Type:        schema.ProjectTypePersonal,
				Status:      schema.ProjectStatusActive,
			},
			tickets: []schema.Ticket{
				{
					Title:        "Call Contractors",
					Description:  ptr("Get quotes from 3 plumbers"),
					Status:       schema.TicketStatusTodo,
					Priority:     schema.TicketPriorityMedium,
					AssigneeName: ptr("Me"),
				},
			},
		},
	}
}

// Run inserts the demo projects when the store has no projects. It returns
// whether anything was written.
func Run(ctx context.Context, projects project.Repository, tickets ticket.Repository, logger *slog.Logger) (bool, error) {
	n, err := projects.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count projects: %w", err)
	}
	if n > 0 {
		logger.InfoContext(ctx, "skipping seed, projects exist", "count", n)
		return false, nil
	}

	for _, demo := range demoData() {
		p := demo.project
		if err := projects.Create(ctx, &p); err != nil {
			return false, fmt.Errorf("seed project %q: %w", p.Name, err)
		}
		for _, t := range demo.tickets {
			t.ProjectID = p.ID
			if err := tickets.Create(ctx, &t); err != nil {
				return false, fmt.Errorf("seed ticket %q: %w", t.Title, err)
			}
		}
	}

	logger.InfoContext(ctx, "seeded demo data")
	return true, nil
}
