package ps

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/psweb/psweb/internal/identity"
)

func rotearPS(f *fixture) chi.Router {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), f.svc)
	r := chi.NewRouter()
	r.Route("/ps", h.MountRoutes)
	r.Route("/admin/ps", h.MountAdminRoutes)
	return r
}

func comUsuario(req *http.Request, u *identity.User) *http.Request {
	return req.WithContext(identity.ContextWithUser(req.Context(), u))
}

func TestHandlerCriar(t *testing.T) {
	f := novaFixture(t)
	r := rotearPS(f)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ps", strings.NewReader(`{"embarcacao_id":1}`))
	r.ServeHTTP(rec, comUsuario(req, &identity.User{ID: 70, FiscalID: 7, Role: identity.RoleUsuario}))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "6/2024", resp["rotulo"])
	require.Equal(t, "RASCUNHO", resp["status"])
	require.Equal(t, "2024-02-26", resp["periodo_inicio"])
}

func TestHandlerSemUsuario(t *testing.T) {
	f := novaFixture(t)
	r := rotearPS(f)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ps", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerNegativaCarregaMotivo(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(t.Context(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)
	r := rotearPS(f)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/ps/"+idPath(p.ID), strings.NewReader(`{"atividades":"alheia"}`))
	r.ServeHTTP(rec, comUsuario(req, &identity.User{ID: 80, FiscalID: 8, Role: identity.RoleUsuario}))

	require.Equal(t, http.StatusForbidden, rec.Code)
	var problema struct {
		Status int    `json:"status"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problema))
	require.Equal(t, http.StatusForbidden, problema.Status)
	require.Equal(t, "WRONG_OWNER", problema.Reason)
}

func TestHandlerConflitoDeRascunho(t *testing.T) {
	f := novaFixture(t)
	_, err := f.svc.Criar(t.Context(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)
	r := rotearPS(f)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ps", strings.NewReader(`{"embarcacao_id":1}`))
	r.ServeHTTP(rec, comUsuario(req, &identity.User{ID: 70, FiscalID: 7, Role: identity.RoleUsuario}))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerAdminExcluir(t *testing.T) {
	f := novaFixture(t)
	p, err := f.svc.Criar(t.Context(), fiscal7, CriarInput{EmbarcacaoID: 1})
	require.NoError(t, err)
	r := rotearPS(f)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/admin/ps/"+idPath(p.ID), nil)
	r.ServeHTTP(rec, comUsuario(req, &identity.User{ID: 1, Role: identity.RoleAdmin}))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func idPath(id int64) string {
	return strconv.FormatInt(id, 10)
}
