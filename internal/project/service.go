package project

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/events"
	"taskboard/internal/metrics"
	"taskboard/internal/schema"
)

var ErrProjectNotFound = errors.New("project not found")

type Service interface {
	ListProjects(ctx context.Context) ([]schema.Project, error)
	GetProject(ctx context.Context, id int) (*schema.Project, error)
	CreateProject(ctx context.Context, input schema.CreateProjectInput) (*schema.Project, error)
	UpdateProject(ctx context.Context, id int, patch schema.UpdateProjectInput) (*schema.Project, error)
	DeleteProject(ctx context.Context, id int) error
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

func (s *service) ListProjects(ctx context.Context) ([]schema.Project, error) {
	projects, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	s.metrics.RecordView(ctx, "projects")
	return projects, nil
}

func (s *service) GetProject(ctx context.Context, id int) (*schema.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	s.metrics.RecordView(ctx, "project")
	return project, nil
}

func (s *service) CreateProject(ctx context.Context, input schema.CreateProjectInput) (*schema.Project, error) {
	project := input.ToProject()
	if err := s.repo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.metrics.RecordProjectCreated(ctx)
	s.notifier.Notify(ctx, events.Invalidation{
		Kind:   events.KindProject,
		Action: events.ActionCreated,
		ID:     project.ID,
	})
	return project, nil
}

func (s *service) UpdateProject(ctx context.Context, id int, patch schema.UpdateProjectInput) (*schema.Project, error) {
	project, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update project %d: %w", id, err)
	}

	if !patch.IsEmpty() {
		s.metrics.RecordProjectUpdated(ctx)
		s.notifier.Notify(ctx, events.Invalidation{
			Kind:   events.KindProject,
			Action: events.ActionUpdated,
			ID:     project.ID,
		})
	}
	return project, nil
}

// DeleteProject removes the project and its tickets if it exists.
func (s *service) DeleteProject(ctx context.Context, id int) error {
	if _, err := s.repo.GetByID(ctx, id); errors.Is(err, ErrProjectNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project %d: %w", id, err)
	}

	s.metrics.RecordProjectDeleted(ctx)
	s.notifier.Notify(ctx, events.Invalidation{
		Kind:   events.KindProject,
		Action: events.ActionDeleted,
		ID:     id,
	})
	return nil
}
