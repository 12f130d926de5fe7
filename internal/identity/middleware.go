package identity

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/psweb/psweb/internal/shared"
)

// Middleware resolves and enforces request identity.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// Resolve loads the user bound to the session, when any, and stores it in
// the request context. It never denies by itself.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("identity parse user id", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.Service.Resolve(r.Context(), id)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireUser denies anonymous requests.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin denies requests from anyone without the administrator role.
// This is only the outer gate; services re-check the role themselves.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
