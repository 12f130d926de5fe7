package ps

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psweb/psweb/internal/identity"
	"github.com/psweb/psweb/internal/platform/httpx"
	"github.com/psweb/psweb/internal/shared"
)

// Handler wires the PS lifecycle endpoints. Every route assumes the identity
// middleware already resolved the session user; the acting fiscal is derived
// here from that user, never from the payload.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the operator-facing PS routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/finalizar", h.finalize)
	r.Post("/{id}/copiar", h.copy)
}

// MountAdminRoutes registers the administration routes. The router mounting
// these must already gate on the administrator role.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.adminList)
	r.Delete("/{id}", h.adminRemove)
}

type criarPayload struct {
	EmbarcacaoID int64 `json:"embarcacao_id"`
}

type atualizarPayload struct {
	FiscalEmbarcandoID *int64  `json:"fiscal_embarcando_id"`
	Atividades         *string `json:"atividades"`
	Pendencias         *string `json:"pendencias"`
	Observacoes        *string `json:"observacoes"`
}

type psResponse struct {
	ID                      int64  `json:"id"`
	Rotulo                  string `json:"rotulo"`
	Numero                  int    `json:"numero"`
	Ano                     int    `json:"ano"`
	Status                  string `json:"status"`
	EmbarcacaoID            int64  `json:"embarcacao_id"`
	EmbarcacaoNome          string `json:"embarcacao_nome,omitempty"`
	FiscalEmbarcandoID      int64  `json:"fiscal_embarcando_id,omitempty"`
	FiscalEmbarcandoNome    string `json:"fiscal_embarcando_nome,omitempty"`
	FiscalDesembarcandoID   int64  `json:"fiscal_desembarcando_id"`
	FiscalDesembarcandoNome string `json:"fiscal_desembarcando_nome,omitempty"`
	PeriodoInicio           string `json:"periodo_inicio"`
	PeriodoFim              string `json:"periodo_fim"`
	DataEmissao             string `json:"data_emissao"`
	Atividades              string `json:"atividades"`
	Pendencias              string `json:"pendencias"`
	Observacoes             string `json:"observacoes"`
	DocumentoPath           string `json:"documento_path,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	inicio, ok := h.queryDate(w, r, "inicio")
	if !ok {
		return
	}
	fim, ok := h.queryDate(w, r, "fim")
	if !ok {
		return
	}
	dets, err := h.service.Listar(r.Context(), ator, inicio, fim)
	if err != nil {
		h.respondError(w, "list ps", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(dets))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	det, err := h.service.Obter(r.Context(), ator, id)
	if err != nil {
		h.respondError(w, "get ps", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPSResponse(det))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	var payload criarPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json")
		return
	}
	created, err := h.service.Criar(r.Context(), ator, CriarInput{EmbarcacaoID: payload.EmbarcacaoID})
	if err != nil {
		h.respondError(w, "create ps", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPSResponse(Detalhe{PassagemServico: created}))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload atualizarPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json")
		return
	}
	updated, err := h.service.Atualizar(r.Context(), ator, id, Campos{
		FiscalEmbarcandoID: payload.FiscalEmbarcandoID,
		Atividades:         payload.Atividades,
		Pendencias:         payload.Pendencias,
		Observacoes:        payload.Observacoes,
	})
	if err != nil {
		h.respondError(w, "update ps", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPSResponse(Detalhe{PassagemServico: updated}))
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Finalizar(r.Context(), ator, id)
	if err != nil {
		h.respondError(w, "finalize ps", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPSResponse(Detalhe{PassagemServico: p}))
}

func (h *Handler) copy(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	nova, err := h.service.Copiar(r.Context(), ator, id)
	if err != nil {
		h.respondError(w, "copy ps", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPSResponse(Detalhe{PassagemServico: nova}))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Excluir(r.Context(), ator, id); err != nil {
		h.respondError(w, "delete ps", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	dets, err := h.service.ListarAdmin(r.Context(), ator)
	if err != nil {
		h.respondError(w, "admin list ps", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(dets))
}

func (h *Handler) adminRemove(w http.ResponseWriter, r *http.Request) {
	ator, ok := h.ator(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.ExcluirAdmin(r.Context(), ator, id); err != nil {
		h.respondError(w, "admin delete ps", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ator(w http.ResponseWriter, r *http.Request) (Ator, bool) {
	user := identity.UserFromContext(r.Context())
	if user == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return Ator{}, false
	}
	return Ator{UserID: user.ID, FiscalID: user.FiscalID, Admin: user.IsAdmin()}, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", name+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// respondError maps domain errors to RFC7807 responses. Business rule
// outcomes answer with their typed detail; anything unrecognised is logged
// and answered generically.
func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	var fe *ForbiddenError
	var ve *ValidationError
	switch {
	case errors.As(err, &fe):
		httpx.JSON(w, http.StatusForbidden, httpx.ProblemDetail{
			Title:  "Forbidden",
			Status: http.StatusForbidden,
			Detail: err.Error(),
			Reason: string(fe.Reason),
		})
	case errors.As(err, &ve):
		httpx.JSON(w, http.StatusBadRequest, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Field:  ve.Field,
		})
	case errors.Is(err, ErrNotFound), errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDraftAlreadyExists):
		httpx.Problem(w, http.StatusConflict, "Draft Already Exists", err.Error())
	case errors.Is(err, ErrMissingAnchorDate):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Missing Anchor Date", err.Error())
	case errors.Is(err, ErrDependencyFailure):
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Dependency Failure", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func toResponses(dets []Detalhe) []psResponse {
	out := make([]psResponse, 0, len(dets))
	for _, d := range dets {
		out = append(out, toPSResponse(d))
	}
	return out
}

func toPSResponse(d Detalhe) psResponse {
	return psResponse{
		ID:                      d.ID,
		Rotulo:                  d.Rotulo(),
		Numero:                  d.Numero,
		Ano:                     d.Ano,
		Status:                  string(d.Status),
		EmbarcacaoID:            d.EmbarcacaoID,
		EmbarcacaoNome:          d.EmbarcacaoNome,
		FiscalEmbarcandoID:      d.FiscalEmbarcandoID,
		FiscalEmbarcandoNome:    d.FiscalEmbarcandoNome,
		FiscalDesembarcandoID:   d.FiscalDesembarcandoID,
		FiscalDesembarcandoNome: d.FiscalDesembarcandoNome,
		PeriodoInicio:           d.PeriodoInicio.Format("2006-01-02"),
		PeriodoFim:              d.PeriodoFim.Format("2006-01-02"),
		DataEmissao:             d.DataEmissao.Format("2006-01-02"),
		Atividades:              d.Atividades,
		Pendencias:              d.Pendencias,
		Observacoes:             d.Observacoes,
		DocumentoPath:           d.DocumentoPath,
	}
}
