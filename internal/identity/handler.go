package identity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/psweb/psweb/internal/platform/httpx"
	"github.com/psweb/psweb/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validate       *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validate:       validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginPayload struct {
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required,min=8"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FiscalID int64  `json:"fiscal_id,omitempty"`
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	CSRFToken string       `json:"csrf_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "email ou senha inválidos")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	token, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	httpx.JSON(w, http.StatusOK, sessionResponse{User: toUserResponse(user), CSRFToken: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	h.sessionManager.Destroy(sess)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	token := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		token, _ = h.csrfManager.EnsureToken(r.Context(), sess)
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{User: toUserResponse(user), CSRFToken: token})
}

func toUserResponse(u *User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: string(u.Role), FiscalID: u.FiscalID}
}
