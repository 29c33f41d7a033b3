package ticket

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskboard/internal/db"
	"taskboard/internal/metrics"
	"taskboard/internal/project"
	"taskboard/internal/schema"

	"github.com/uptrace/bun"
)

const table = "tickets"

type Repository interface {
	ListByProject(ctx context.Context, projectID int) ([]schema.Ticket, error)
	GetByID(ctx context.Context, id int) (*schema.Ticket, error)
	Create(ctx context.Context, ticket *schema.Ticket) error
	Update(ctx context.Context, id int, patch schema.UpdateTicketInput) (*schema.Ticket, error)
	Delete(ctx context.Context, id int) error
}

type repository struct {
	db      bun.IDB
	metrics *metrics.DatabaseMetrics
}

func NewRepository(idb bun.IDB, dbMetrics *metrics.DatabaseMetrics) Repository {
	return &repository{db: idb, metrics: dbMetrics}
}

func (r *repository) ListByProject(ctx context.Context, projectID int) ([]schema.Ticket, error) {
	start := time.Now()
	tickets := make([]schema.Ticket, 0)
	err := r.db.NewSelect().
		Model(&tickets).
		Where("project_id = ?", projectID).
		OrderExpr("id ASC").
		Scan(ctx)
	r.metrics.RecordQuery(ctx, "select", table, start, err)
	return tickets, err
}

func (r *repository) GetByID(ctx context.Context, id int) (*schema.Ticket, error) {
	start := time.Now()
	ticket := new(schema.Ticket)
	err := r.db.NewSelect().Model(ticket).Where("id = ?", id).Scan(ctx)
	r.metrics.RecordQuery(ctx, "select", table, start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// Create inserts ticket. A projectId with no matching project yields
// project.ErrProjectNotFound.
func (r *repository) Create(ctx context.Context, ticket *schema.Ticket) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(ticket).Returning("*").Exec(ctx)
	r.metrics.RecordQuery(ctx, "insert", table, start, err)
	if db.IsForeignKeyViolation(err) {
		return project.ErrProjectNotFound
	}
	return err
}

func (r *repository) Update(ctx context.Context, id int, patch schema.UpdateTicketInput) (*schema.Ticket, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	ticket := new(schema.Ticket)
	q := r.db.NewUpdate().Model(ticket).Where("id = ?", id)
	if patch.Title.Set {
		q = q.Set("title = ?", patch.Title.Value)
	}
	if patch.Description.Set {
		q = q.Set("description = ?", patch.Description.Ptr())
	}
	if patch.Status.Set {
		q = q.Set("status = ?", patch.Status.Value)
	}
	if patch.Priority.Set {
		q = q.Set("priority = ?", patch.Priority.Value)
	}
	if patch.ProjectID.Set {
		q = q.Set("project_id = ?", patch.ProjectID.Value)
	}
	if patch.AssigneeName.Set {
		q = q.Set("assignee_name = ?", patch.AssigneeName.Ptr())
	}
	if patch.DueDate.Set {
		q = q.Set("due_date = ?", patch.DueDate.Ptr())
	}

	start := time.Now()
	err := q.Returning("*").Scan(ctx)
	r.metrics.RecordQuery(ctx, "update", table, start, err)
	switch {
	case err == nil:
		return ticket, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrTicketNotFound
	case db.IsForeignKeyViolation(err):
		return nil, project.ErrProjectNotFound
	}
	return nil, err
}

// Delete removes the ticket. Deleting a missing ticket is not an error.
func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	_, err := r.db.NewDelete().Model((*schema.Ticket)(nil)).Where("id = ?", id).Exec(ctx)
	r.metrics.RecordQuery(ctx, "delete", table, start, err)
	return err
}
