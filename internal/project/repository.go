package project

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taskboard/internal/metrics"
	"taskboard/internal/schema"

	"github.com/uptrace/bun"
)

const table = "projects"

type Repository interface {
	List(ctx context.Context) ([]schema.Project, error)
	GetByID(ctx context.Context, id int) (*schema.Project, error)
	Create(ctx context.Context, project *schema.Project) error
	Update(ctx context.Context, id int, patch schema.UpdateProjectInput) (*schema.Project, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db      bun.IDB
	metrics *metrics.DatabaseMetrics
}

func NewRepository(db bun.IDB, dbMetrics *metrics.DatabaseMetrics) Repository {
	return &repository{db: db, metrics: dbMetrics}
}

func (r *repository) List(ctx context.Context) ([]schema.Project, error) {
	start := time.Now()
	projects := make([]schema.Project, 0)
	err := r.db.NewSelect().Model(&projects).OrderExpr("id ASC").Scan(ctx)
	r.metrics.RecordQuery(ctx, "select", table, start, err)
	return projects, err
}

func (r *repository) GetByID(ctx context.Context, id int) (*schema.Project, error) {
	start := time.Now()
	project := new(schema.Project)
	err := r.db.NewSelect().Model(project).Where("id = ?", id).Scan(ctx)
	r.metrics.RecordQuery(ctx, "select", table, start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Create inserts project and fills in the generated id, defaults and createdAt.
func (r *repository) Create(ctx context.Context, project *schema.Project) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(project).Returning("*").Exec(ctx)
	r.metrics.RecordQuery(ctx, "insert", table, start, err)
	return err
}

// Update writes only the fields present in patch and returns the stored row.
func (r *repository) Update(ctx context.Context, id int, patch schema.UpdateProjectInput) (*schema.Project, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	project := new(schema.Project)
	q := r.db.NewUpdate().Model(project).Where("id = ?", id)
	if patch.Name.Set {
		q = q.Set("name = ?", patch.Name.Value)
	}
	if patch.Description.Set {
		q = q.Set("description = ?", patch.Description.Ptr())
	}
	if patch.Type.Set {
		q = q.Set("type = ?", patch.Type.Value)
	}
	if patch.Status.Set {
		q = q.Set("status = ?", patch.Status.Value)
	}
	if patch.OwnerID.Set {
		q = q.Set("owner_id = ?", patch.OwnerID.Ptr())
	}

	start := time.Now()
	err := q.Returning("*").Scan(ctx)
	r.metrics.RecordQuery(ctx, "update", table, start, err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// Delete removes the project and, through the foreign key, its tickets.
// Deleting a missing project is not an error.
func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	_, err := r.db.NewDelete().Model((*schema.Project)(nil)).Where("id = ?", id).Exec(ctx)
	r.metrics.RecordQuery(ctx, "delete", table, start, err)
	return err
}

func (r *repository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.db.NewSelect().Model((*schema.Project)(nil)).Count(ctx)
	r.metrics.RecordQuery(ctx, "count", table, start, err)
	return n, err
}
