package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"
)

type contextKey string

const userKey contextKey = "user"

// LocalUser is the principal used when authentication is disabled.
var LocalUser = User{ID: "local", Name: "Local User", Email: "local@localhost"}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the session principal from context
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

// Sessions reads the session cookie and sends unauthenticated requests to
// the login flow.
type Sessions struct {
	manager    *Manager
	cookieName string
	loginURL   string
	ttl        time.Duration
	logger     *slog.Logger
}

func NewSessions(manager *Manager, cookieName, loginURL string, ttl time.Duration, logger *slog.Logger) *Sessions {
	return &Sessions{
		manager:    manager,
		cookieName: cookieName,
		loginURL:   loginURL,
		ttl:        ttl,
		logger:     logger,
	}
}

// Middleware validates the session cookie and adds the user to context.
// Requests without a valid session are redirected to the login URL with a
// returnTo parameter.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.cookieName)
		if err != nil {
			s.logger.DebugContext(r.Context(), "no session cookie", "path", r.URL.Path)
			s.redirectToLogin(w, r)
			return
		}

		user, err := s.manager.ParseToken(cookie.Value)
		if err != nil {
			s.logger.WarnContext(r.Context(), "invalid session", "error", err)
			s.ClearCookie(w)
			s.redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *user)))
	})
}

func (s *Sessions) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target, err := url.Parse(s.loginURL)
	if err != nil {
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}
	q := target.Query()
	q.Set("returnTo", r.URL.RequestURI())
	target.RawQuery = q.Encode()

	http.Redirect(w, r, target.String(), http.StatusFound)
}

// SetCookie stores token in an HttpOnly session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	env := os.Getenv("ENV")
	sameSite := http.SameSiteStrictMode
	if env == "" || env == "local" || env == "development" {
		sameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   env == "prod" || env == "production",
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
	})
}

func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		MaxAge:   -1,
	})
}

// Anonymous marks every request as LocalUser. Used when auth is disabled.
func Anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), LocalUser)))
	})
}
