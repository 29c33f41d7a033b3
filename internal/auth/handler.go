package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"taskboard/internal/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	sessions *Sessions
	logger   *slog.Logger
}

func NewHandler(sessions *Sessions, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// RegisterPublicRoutes mounts the endpoints reachable without a session.
func (h *Handler) RegisterPublicRoutes(router chi.Router) {
	router.Get("/auth/callback", h.Callback)
	router.Post("/auth/logout", h.Logout)
}

// RegisterRoutes mounts the endpoints that need a session.
func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/auth/user", h.CurrentUser)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		httputil.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, user)
}

// Callback accepts a token issued by the login flow, stores it in the session
// cookie and sends the browser back to returnTo.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token := r.URL.Query().Get("token")
	user, err := h.sessions.manager.ParseToken(token)
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected login callback", "error", err)
		httputil.RespondWithError(w, http.StatusUnauthorized, "Invalid session token")
		return
	}

	h.sessions.SetCookie(w, token)
	h.logger.InfoContext(r.Context(), "session started", "user_id", user.ID)

	http.Redirect(w, r, safeReturnTo(r.URL.Query().Get("returnTo")), http.StatusFound)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		h.sessions.ClearCookie(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// safeReturnTo only allows local paths so the callback cannot redirect off-site.
func safeReturnTo(returnTo string) string {
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	return returnTo
}
