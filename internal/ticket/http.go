package ticket

import (
	"errors"
	"log/slog"
	"net/http"

	"taskboard/internal/httputil"
	"taskboard/internal/project"
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
	router.Get("/projects/{id}/tickets", h.ListTickets)
	router.Post("/tickets", h.CreateTicket)
	router.Get("/tickets/{id}", h.GetTicket)
	router.Patch("/tickets/{id}", h.UpdateTicket)
	router.Delete("/tickets/{id}", h.DeleteTicket)
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid project ID", "id")
		return
	}

	tickets, err := h.service.ListTickets(r.Context(), projectID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, tickets)
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid ticket ID", "id")
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, ticket)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var input schema.CreateTicketInput
	if err := h.decode(r, &input); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "creating ticket", "project_id", input.ProjectID, "title", input.Title)
	ticket, err := h.service.CreateTicket(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid ticket ID", "id")
		return
	}

	var patch schema.UpdateTicketInput
	if err := h.decode(r, &patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "updating ticket", "ticket_id", id)
	ticket, err := h.service.UpdateTicket(r.Context(), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, ticket)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.IDParam(r, "id")
	if !ok {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Invalid ticket ID", "id")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting ticket", "ticket_id", id)
	if err := h.service.DeleteTicket(r.Context(), id); err != nil {
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
		h.logger.InfoContext(r.Context(), "invalid ticket input", "field", vErr.Field, "message", vErr.Message)
		httputil.RespondWithFieldError(w, http.StatusBadRequest, vErr.Message, vErr.Field)
		return
	}
	// A ticket pointing at a missing project is bad input, not a missing resource.
	if errors.Is(err, project.ErrProjectNotFound) {
		httputil.RespondWithFieldError(w, http.StatusBadRequest, "Project not found", "projectId")
		return
	}
	if errors.Is(err, ErrTicketNotFound) {
		httputil.RespondWithError(w, http.StatusNotFound, "Ticket not found")
		return
	}
	h.logger.ErrorContext(r.Context(), "ticket request failed", "error", err)
	httputil.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
