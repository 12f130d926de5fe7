package fiscais

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/psweb/psweb/internal/platform/httpx"
	"github.com/psweb/psweb/internal/shared"
)

// Handler wires the fiscal CRUD endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountReadRoutes registers the routes available to any signed-in user.
func (h *Handler) MountReadRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

// MountWriteRoutes registers the mutating routes, reserved to administrators.
func (h *Handler) MountWriteRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

type fiscalPayload struct {
	Nome     string `json:"nome" validate:"required,max=120"`
	Chave    string `json:"chave" validate:"required,len=4"`
	Telefone string `json:"telefone" validate:"max=20"`
}

type fiscalResponse struct {
	ID       int64  `json:"id"`
	Nome     string `json:"nome"`
	Chave    string `json:"chave"`
	Telefone string `json:"telefone,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list fiscais", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]fiscalResponse, 0, len(list))
	for _, f := range list {
		out = append(out, fiscalResponse{ID: f.ID, Nome: f.Nome, Chave: f.Chave, Telefone: f.Telefone})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	f, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get fiscal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, fiscalResponse{ID: f.ID, Nome: f.Nome, Chave: f.Chave, Telefone: f.Telefone})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	f, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), f)
	if err != nil {
		h.respondError(w, "create fiscal", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, fiscalResponse{ID: created.ID, Nome: created.Nome, Chave: created.Chave, Telefone: created.Telefone})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	f, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, f); err != nil {
		h.respondError(w, "update fiscal", err)
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "reload fiscal", err)
		return
	}
	httpx.JSON(w, http.StatusOK, fiscalResponse{ID: updated.ID, Nome: updated.Nome, Chave: updated.Chave, Telefone: updated.Telefone})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete fiscal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Fiscal, bool) {
	var payload fiscalPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json")
		return Fiscal{}, false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Fiscal{}, false
	}
	return Fiscal{Nome: payload.Nome, Chave: payload.Chave, Telefone: payload.Telefone}, true
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "fiscal not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
