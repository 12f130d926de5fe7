package embarcacoes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/psweb/psweb/internal/platform/httpx"
	"github.com/psweb/psweb/internal/shared"
)

// Handler wires the vessel CRUD endpoints.
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

type embarcacaoPayload struct {
	Nome                 string `json:"nome" validate:"required,max=120"`
	Tipo                 string `json:"tipo" validate:"max=60"`
	PrimeiraEntradaPorto string `json:"primeira_entrada_porto" validate:"omitempty,datetime=2006-01-02"`
}

type embarcacaoResponse struct {
	ID                   int64  `json:"id"`
	Nome                 string `json:"nome"`
	Tipo                 string `json:"tipo"`
	PrimeiraEntradaPorto string `json:"primeira_entrada_porto,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list embarcacoes", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]embarcacaoResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toResponse(e))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get embarcacao", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	e, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), e)
	if err != nil {
		h.respondError(w, "create embarcacao", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	e, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.service.Update(r.Context(), id, e); err != nil {
		h.respondError(w, "update embarcacao", err)
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "reload embarcacao", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete embarcacao", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Embarcacao, bool) {
	var payload embarcacaoPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json")
		return Embarcacao{}, false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Embarcacao{}, false
	}
	e := Embarcacao{Nome: payload.Nome, Tipo: payload.Tipo}
	if payload.PrimeiraEntradaPorto != "" {
		entrada, err := time.Parse("2006-01-02", payload.PrimeiraEntradaPorto)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "primeira_entrada_porto must be YYYY-MM-DD")
			return Embarcacao{}, false
		}
		e.PrimeiraEntradaPorto = entrada
	}
	return e, true
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "embarcacao not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toResponse(e Embarcacao) embarcacaoResponse {
	out := embarcacaoResponse{ID: e.ID, Nome: e.Nome, Tipo: e.Tipo}
	if !e.PrimeiraEntradaPorto.IsZero() {
		out.PrimeiraEntradaPorto = e.PrimeiraEntradaPorto.Format("2006-01-02")
	}
	return out
}
