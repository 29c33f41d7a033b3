package project

import (
	"errors"
	"log/slog"
	"net/http"

	"taskboard/internal/httputil"
	"taskboard/internal/schema"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service  Service
	validate *schema.Validator
	logger   *slog.Logger
}

func NewHandler(service Service, validate *schema.Validator, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validate,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/projects", h.ListProjects)
	router.Post("/projects", h.CreateProject)
	router.Get("/projects/{id}", h.GetProject)
	router.Patch("/projects/{id}", h.UpdateProject)
	router.Delete("/projects/{id}", h.DeleteProject)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid project ID", "id")
		return
	}

	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, project)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var input schema.CreateProjectInput
	if err := h.decode(r, &input); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "creating project", "name", input.Name, "type", input.Type)
	project, err := h.service.CreateProject(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid project ID", "id")
		return
	}

	var patch schema.UpdateProjectInput
	if err := h.decode(r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "updating project", "project_id", id)
	project, err := h.service.UpdateProject(r.Context(), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid project ID", "id")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting project", "project_id", id)
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := schema.DecodeJSON(r.Body, dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *schema.ValidationError
	if errors.As(err, &vErr) {
		h.logger.InfoContext(r.Context(), "invalid project input", "field", vErr.Field, "message", vErr.Message)
		httputil.RespondWithFieldError(w, http.StatusBadRequest, vErr.Message, vErr.Field)
		return
	}
	if errors.Is(err, ErrProjectNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "Project not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "project request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
